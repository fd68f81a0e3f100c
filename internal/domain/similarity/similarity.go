// Package similarity computes scalar similarity between two feature vectors.
// All functions are pure and total: missing dimensions read as 0 and every
// metric returns a value in [0, 1], higher meaning more similar.
package similarity

import (
	"math"

	"github.com/linksmith/matchlab/internal/domain/vector"
)

// weights is the fixed per-dimension importance table used by the weighted
// euclidean metric. These reflect domain priority and are configuration,
// not learned parameters.
var weights = map[vector.Dimension]float64{
	vector.Skill:       1.5,
	vector.Social:      1.2,
	vector.Tradition:   1.0,
	vector.Luxury:      1.4,
	vector.Competitive: 1.1,
	vector.Generation:  0.8,
	vector.Amenity:     0.9,
	vector.Pace:        1.0,
}

// Weight returns the importance weight of a dimension (1.0 if unlisted).
func Weight(d vector.Dimension) float64 {
	if w, ok := weights[d]; ok {
		return w
	}
	return 1.0
}

// Score computes the similarity between two vectors under the given metric.
func Score(a, b vector.Vector, m Metric) float64 {
	switch m {
	case Cosine:
		return cosine(a, b)
	case Manhattan:
		return manhattan(a, b)
	case Pearson:
		return pearson(a, b)
	default:
		return weightedEuclidean(a, b)
	}
}

// weightedEuclidean normalizes each difference by the dimension range,
// weights it by the importance table, and converts the weighted RMS distance
// to similarity via 1-d clamped at 0.
func weightedEuclidean(a, b vector.Vector) float64 {
	var sum, wsum float64
	for _, d := range vector.Dimensions {
		diff := (a.Get(d) - b.Get(d)) / vector.MaxValue
		w := Weight(d)
		sum += w * diff * diff
		wsum += w
	}
	dist := math.Sqrt(sum / wsum)
	if dist > 1 {
		return 0
	}
	return 1 - dist
}

// cosine returns 0 when either vector has zero magnitude. Dimension values
// are non-negative, so no negative clamp is needed.
func cosine(a, b vector.Vector) float64 {
	var dot, magA, magB float64
	for _, d := range vector.Dimensions {
		av, bv := a.Get(d), b.Get(d)
		dot += av * bv
		magA += av * av
		magB += bv * bv
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

func manhattan(a, b vector.Vector) float64 {
	var sum float64
	for _, d := range vector.Dimensions {
		sum += math.Abs(a.Get(d)-b.Get(d)) / vector.MaxValue
	}
	return 1 - sum/float64(len(vector.Dimensions))
}

// pearson treats the two vectors as paired samples over the dimension list.
// Zero variance on either side yields 0; negative correlations are clamped
// to 0 so the result stays a bounded similarity.
func pearson(a, b vector.Vector) float64 {
	n := float64(len(vector.Dimensions))

	var meanA, meanB float64
	for _, d := range vector.Dimensions {
		meanA += a.Get(d)
		meanB += b.Get(d)
	}
	meanA /= n
	meanB /= n

	var cov, varA, varB float64
	for _, d := range vector.Dimensions {
		da := a.Get(d) - meanA
		db := b.Get(d) - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}

	r := cov / (math.Sqrt(varA) * math.Sqrt(varB))
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}
