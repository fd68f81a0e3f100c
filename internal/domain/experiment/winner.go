package experiment

import "strings"

// Outcome is the directional result of winner determination.
type Outcome string

const (
	// WinnerA means version A's primary-metric mean is better.
	WinnerA Outcome = "version_a"
	// WinnerB means version B's primary-metric mean is better.
	WinnerB Outcome = "version_b"
	// Inconclusive means missing data, a tie, or not enough assignments.
	Inconclusive Outcome = "inconclusive"
)

// Verdict explains a winner determination.
type Verdict struct {
	Outcome Outcome
	Metric  string
	MeanA   float64
	MeanB   float64
	Reason  string
}

// higherIsBetterHints mark metric names where a larger mean wins. Everything
// else (latency, error rates) is treated as lower-is-better.
var higherIsBetterHints = []string{"accuracy", "satisfaction", "completion"}

// HigherIsBetter reports the winning direction implied by a metric name.
func HigherIsBetter(metric string) bool {
	m := strings.ToLower(metric)
	for _, hint := range higherIsBetterHints {
		if strings.Contains(m, hint) {
			return true
		}
	}
	return false
}

// DetermineWinner compares mean samples of the primary success metric for
// both versions. Pure over its inputs: repeated calls with the same samples
// yield the same verdict. This is a simple mean comparison, not a
// significance test.
func DetermineWinner(
	t Test, samplesA, samplesB []Sample,
	totalAssignments, sampleFloor int,
) Verdict {
	primary := t.successMetrics[0]

	if totalAssignments < sampleFloor {
		return Verdict{
			Outcome: Inconclusive,
			Metric:  primary,
			Reason:  "not enough assignments",
		}
	}

	meanA, okA := meanOf(samplesA, primary)
	meanB, okB := meanOf(samplesB, primary)
	if !okA || !okB {
		return Verdict{
			Outcome: Inconclusive,
			Metric:  primary,
			MeanA:   meanA,
			MeanB:   meanB,
			Reason:  "missing samples for one or both versions",
		}
	}
	if meanA == meanB {
		return Verdict{
			Outcome: Inconclusive,
			Metric:  primary,
			MeanA:   meanA,
			MeanB:   meanB,
			Reason:  "tie",
		}
	}

	aWins := meanA > meanB
	if !HigherIsBetter(primary) {
		aWins = !aWins
	}

	v := Verdict{Metric: primary, MeanA: meanA, MeanB: meanB, Reason: "mean comparison"}
	if aWins {
		v.Outcome = WinnerA
	} else {
		v.Outcome = WinnerB
	}
	return v
}

// meanOf averages samples of one metric, weighting each by its sample size.
func meanOf(samples []Sample, metric string) (float64, bool) {
	var sum float64
	var n int
	for _, s := range samples {
		if s.MetricName != metric {
			continue
		}
		size := s.SampleSize
		if size <= 0 {
			size = 1
		}
		sum += s.Value * float64(size)
		n += size
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
