package similarity

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/linksmith/matchlab/internal/domain"
	"github.com/linksmith/matchlab/internal/domain/vector"
)

var allMetrics = []Metric{WeightedEuclidean, Cosine, Manhattan, Pearson}

func randomVector(t *testing.T, rng *rand.Rand) vector.Vector {
	t.Helper()
	vals := make(map[vector.Dimension]float64, len(vector.Dimensions))
	for _, d := range vector.Dimensions {
		vals[d] = rng.Float64() * vector.MaxValue
	}
	return vector.MustNew(vals)
}

func TestScore_Symmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 50; i++ {
		a := randomVector(t, rng)
		b := randomVector(t, rng)
		for _, m := range allMetrics {
			if ab, ba := Score(a, b, m), Score(b, a, m); math.Abs(ab-ba) > 1e-12 {
				t.Fatalf("%s not symmetric: %g vs %g", m, ab, ba)
			}
		}
	}
}

func TestScore_Bounded(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	for i := 0; i < 50; i++ {
		a := randomVector(t, rng)
		b := randomVector(t, rng)
		for _, m := range allMetrics {
			if s := Score(a, b, m); s < 0 || s > 1 {
				t.Fatalf("%s out of [0,1]: %g", m, s)
			}
		}
	}
}

func TestScore_SelfSimilarity(t *testing.T) {
	v := vector.MustNew(map[vector.Dimension]float64{
		vector.Skill: 7, vector.Social: 3, vector.Luxury: 9, vector.Pace: 4,
	})
	for _, m := range []Metric{WeightedEuclidean, Cosine, Manhattan, Pearson} {
		if s := Score(v, v, m); math.Abs(s-1) > 1e-12 {
			t.Errorf("%s self-similarity = %g, want 1", m, s)
		}
	}
}

func TestWeightedEuclidean_Extremes(t *testing.T) {
	lo := vector.MustNew(nil)
	hi := make(map[vector.Dimension]float64)
	for _, d := range vector.Dimensions {
		hi[d] = vector.MaxValue
	}
	if s := Score(lo, vector.MustNew(hi), WeightedEuclidean); s != 0 {
		t.Errorf("opposite extremes = %g, want 0", s)
	}
}

func TestWeightedEuclidean_WeightsMatter(t *testing.T) {
	base := vector.MustNew(nil)
	skillOff := vector.MustNew(map[vector.Dimension]float64{vector.Skill: 5})
	generationOff := vector.MustNew(map[vector.Dimension]float64{vector.Generation: 5})

	// Skill carries more weight than generation, so the same raw difference
	// must cost more similarity.
	if sk, gen := Score(base, skillOff, WeightedEuclidean), Score(base, generationOff, WeightedEuclidean); sk >= gen {
		t.Errorf("skill difference (%g) should cost more than generation (%g)", sk, gen)
	}
}

func TestCosine_ZeroMagnitude(t *testing.T) {
	zero := vector.MustNew(nil)
	other := vector.MustNew(map[vector.Dimension]float64{vector.Skill: 5})
	if s := Score(zero, other, Cosine); s != 0 {
		t.Errorf("zero magnitude = %g, want 0", s)
	}
}

func TestCosine_ScaleInvariance(t *testing.T) {
	a := vector.MustNew(map[vector.Dimension]float64{vector.Skill: 2, vector.Social: 4})
	b := vector.MustNew(map[vector.Dimension]float64{vector.Skill: 4, vector.Social: 8})
	if s := Score(a, b, Cosine); math.Abs(s-1) > 1e-12 {
		t.Errorf("proportional vectors = %g, want 1", s)
	}
}

func TestManhattan_KnownDistance(t *testing.T) {
	a := vector.MustNew(nil)
	b := make(map[vector.Dimension]float64)
	for _, d := range vector.Dimensions {
		b[d] = 5
	}
	// Mean normalized difference of 0.5 on every dimension.
	if s := Score(a, vector.MustNew(b), Manhattan); math.Abs(s-0.5) > 1e-12 {
		t.Errorf("uniform half-range difference = %g, want 0.5", s)
	}
}

func TestPearson_Clamping(t *testing.T) {
	// Perfectly anti-correlated shapes clamp to 0 rather than going negative.
	a := vector.MustNew(map[vector.Dimension]float64{vector.Skill: 10, vector.Social: 0})
	b := vector.MustNew(map[vector.Dimension]float64{vector.Skill: 0, vector.Social: 10})
	if s := Score(a, b, Pearson); s != 0 {
		t.Errorf("anti-correlation = %g, want 0", s)
	}
}

func TestPearson_ZeroVariance(t *testing.T) {
	flat := make(map[vector.Dimension]float64)
	for _, d := range vector.Dimensions {
		flat[d] = 5
	}
	varied := vector.MustNew(map[vector.Dimension]float64{vector.Skill: 9, vector.Social: 1})
	if s := Score(vector.MustNew(flat), varied, Pearson); s != 0 {
		t.Errorf("zero variance = %g, want 0", s)
	}
}

func TestParse(t *testing.T) {
	m, err := Parse("")
	if err != nil || m != WeightedEuclidean {
		t.Errorf("Parse(\"\") = %q, %v; want default", m, err)
	}
	if _, err := Parse("cosine"); err != nil {
		t.Errorf("Parse(cosine): %v", err)
	}
	if _, err := Parse("hamming"); !errors.Is(err, domain.ErrUnknownMetric) {
		t.Errorf("expected ErrUnknownMetric, got %v", err)
	}
}
