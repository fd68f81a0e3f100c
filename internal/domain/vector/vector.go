// Package vector defines the normalized feature vector shared by every
// scoring and matching component.
package vector

import (
	"fmt"

	"github.com/linksmith/matchlab/internal/domain"
)

// Dimension names one axis of the feature vector.
type Dimension string

// The fixed dimension schema. Every profile is scored on exactly these axes.
const (
	Skill       Dimension = "skill"
	Social      Dimension = "social"
	Tradition   Dimension = "tradition"
	Luxury      Dimension = "luxury"
	Competitive Dimension = "competitive"
	Generation  Dimension = "generation"
	Amenity     Dimension = "amenity"
	Pace        Dimension = "pace"
)

// MaxValue is the upper bound of every dimension; values live in [0, MaxValue].
const MaxValue = 10.0

// Dimensions lists the schema in canonical order.
var Dimensions = []Dimension{
	Skill, Social, Tradition, Luxury, Competitive, Generation, Amenity, Pace,
}

// Vector is an immutable feature vector. Missing dimensions read as 0 so
// distance math stays total over any pair of vectors.
type Vector struct {
	values     map[Dimension]float64
	styleVotes []string
}

// New validates and creates a Vector. Unknown dimensions are rejected at the
// boundary rather than carried along; values are clamped to [0, MaxValue].
func New(values map[Dimension]float64, styleVotes []string) (Vector, error) {
	known := make(map[Dimension]bool, len(Dimensions))
	for _, d := range Dimensions {
		known[d] = true
	}

	vals := make(map[Dimension]float64, len(values))
	for d, v := range values {
		if !known[d] {
			return Vector{}, fmt.Errorf("%w: %q", domain.ErrUnknownDimension, d)
		}
		vals[d] = clamp(v, 0, MaxValue)
	}

	votes := make([]string, len(styleVotes))
	copy(votes, styleVotes)

	return Vector{values: vals, styleVotes: votes}, nil
}

// MustNew creates a Vector or panics. Intended for static definitions and tests.
func MustNew(values map[Dimension]float64) Vector {
	v, err := New(values, nil)
	if err != nil {
		panic(err)
	}
	return v
}

// Get returns the value of a dimension, 0 if unset.
func (v Vector) Get(d Dimension) float64 { return v.values[d] }

// Values returns a copy of all set dimension values.
func (v Vector) Values() map[Dimension]float64 {
	out := make(map[Dimension]float64, len(v.values))
	for d, val := range v.values {
		out[d] = val
	}
	return out
}

// StyleVotes returns the categorical course-style votes. These are excluded
// from numeric distance math.
func (v Vector) StyleVotes() []string {
	out := make([]string, len(v.styleVotes))
	copy(out, v.styleVotes)
	return out
}

// IsZero reports whether every dimension is 0.
func (v Vector) IsZero() bool {
	for _, d := range Dimensions {
		if v.values[d] != 0 {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
