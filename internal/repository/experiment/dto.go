package experiment

import (
	"time"

	domalg "github.com/linksmith/matchlab/internal/domain/algorithm"
	domexp "github.com/linksmith/matchlab/internal/domain/experiment"
)

// testRow is the JSON-serializable representation of an A/B test.
type testRow struct {
	ID             string    `json:"id"`
	Role           string    `json:"role"`
	VersionA       string    `json:"version_a"`
	VersionB       string    `json:"version_b"`
	TrafficSplit   float64   `json:"traffic_split"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date,omitzero"`
	Status         string    `json:"status"`
	SuccessMetrics []string  `json:"success_metrics"`
}

func testToRow(t domexp.Test) testRow {
	return testRow{
		ID:             t.ID(),
		Role:           string(t.Role()),
		VersionA:       t.VersionA(),
		VersionB:       t.VersionB(),
		TrafficSplit:   t.TrafficSplit(),
		StartDate:      t.StartDate(),
		EndDate:        t.EndDate(),
		Status:         string(t.Status()),
		SuccessMetrics: t.SuccessMetrics(),
	}
}

func (r testRow) toDomain() domexp.Test {
	return domexp.ReconstructTest(
		r.ID, domalg.Role(r.Role), r.VersionA, r.VersionB,
		r.TrafficSplit, r.StartDate, r.EndDate,
		domexp.Status(r.Status), r.SuccessMetrics,
	)
}

// assignmentRow is the JSON-serializable representation of an assignment.
type assignmentRow struct {
	SessionID  string    `json:"session_id"`
	Role       string    `json:"role"`
	Version    string    `json:"version"`
	TestID     string    `json:"test_id,omitempty"`
	AssignedAt time.Time `json:"assigned_at"`
}

func assignmentToRow(a domexp.Assignment) assignmentRow {
	return assignmentRow{
		SessionID:  a.SessionID,
		Role:       string(a.Role),
		Version:    a.Version,
		TestID:     a.TestID,
		AssignedAt: a.AssignedAt,
	}
}

func (r assignmentRow) toDomain() domexp.Assignment {
	return domexp.Assignment{
		SessionID:  r.SessionID,
		Role:       domalg.Role(r.Role),
		Version:    r.Version,
		TestID:     r.TestID,
		AssignedAt: r.AssignedAt,
	}
}

// sampleRow is the JSON-serializable representation of a metric sample.
type sampleRow struct {
	Role       string    `json:"role"`
	Version    string    `json:"version"`
	MetricName string    `json:"metric_name"`
	Value      float64   `json:"value"`
	SampleSize int       `json:"sample_size"`
	MeasuredOn time.Time `json:"measured_on"`
}

func sampleToRow(s domexp.Sample) sampleRow {
	return sampleRow{
		Role:       string(s.Role),
		Version:    s.Version,
		MetricName: s.MetricName,
		Value:      s.Value,
		SampleSize: s.SampleSize,
		MeasuredOn: s.MeasuredOn,
	}
}

func (r sampleRow) toDomain() domexp.Sample {
	return domexp.Sample{
		Role:       domalg.Role(r.Role),
		Version:    r.Version,
		MetricName: r.MetricName,
		Value:      r.Value,
		SampleSize: r.SampleSize,
		MeasuredOn: r.MeasuredOn,
	}
}
