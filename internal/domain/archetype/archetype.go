// Package archetype classifies feature vectors into named behavioral
// clusters defined by per-dimension range constraints.
package archetype

import (
	"fmt"

	"github.com/linksmith/matchlab/internal/domain"
	"github.com/linksmith/matchlab/internal/domain/vector"
)

// Fallback is the archetype returned when no definition scores above the
// fallback floor. It guarantees a non-null classification for any vector.
const Fallback = "all_rounder"

// FallbackConfidence is the floor confidence assigned to Fallback.
const FallbackConfidence = 0.3

// tolerance is the raw-unit distance outside a range bound that still earns
// half credit.
const tolerance = 2.0

// Range bounds one dimension, inclusive on both ends.
type Range struct {
	Min float64
	Max float64
}

// Definition is a static archetype: range constraints plus the set of
// archetypes it is considered compatible with.
type Definition struct {
	Name        string
	Constraints map[vector.Dimension]Range
	Compatible  []string
}

// definitions is evaluated in order; with equal confidence the earlier
// definition is kept (strictly-higher-wins tie-break).
var definitions = []Definition{
	{
		Name: "traditional_serious",
		Constraints: map[vector.Dimension]Range{
			vector.Tradition:   {Min: 6, Max: 10},
			vector.Skill:       {Min: 6, Max: 10},
			vector.Competitive: {Min: 5, Max: 10},
		},
		Compatible: []string{"competitive_grinder", "luxury_leisure"},
	},
	{
		Name: "competitive_grinder",
		Constraints: map[vector.Dimension]Range{
			vector.Competitive: {Min: 7, Max: 10},
			vector.Skill:       {Min: 6, Max: 10},
			vector.Pace:        {Min: 6, Max: 10},
			vector.Luxury:      {Min: 0, Max: 5},
		},
		Compatible: []string{"traditional_serious"},
	},
	{
		Name: "weekend_social",
		Constraints: map[vector.Dimension]Range{
			vector.Social:      {Min: 6, Max: 10},
			vector.Competitive: {Min: 0, Max: 5},
			vector.Skill:       {Min: 0, Max: 6},
		},
		Compatible: []string{"casual_newcomer", "luxury_leisure"},
	},
	{
		Name: "luxury_leisure",
		Constraints: map[vector.Dimension]Range{
			vector.Luxury:  {Min: 6, Max: 10},
			vector.Amenity: {Min: 5, Max: 10},
			vector.Pace:    {Min: 0, Max: 6},
		},
		Compatible: []string{"weekend_social", "traditional_serious"},
	},
	{
		Name: "casual_newcomer",
		Constraints: map[vector.Dimension]Range{
			vector.Skill:     {Min: 0, Max: 4},
			vector.Tradition: {Min: 0, Max: 5},
		},
		Compatible: []string{"weekend_social"},
	},
}

// Definitions returns the static archetype set.
func Definitions() []Definition { return definitions }

// Names returns every archetype name including the fallback.
func Names() []string {
	out := make([]string, 0, len(definitions)+1)
	for _, d := range definitions {
		out = append(out, d.Name)
	}
	return append(out, Fallback)
}

// Validate checks the static definition set. Called once at startup so
// malformed definitions fail fast instead of at request time.
func Validate() error {
	names := make(map[string]bool, len(definitions))
	for _, d := range definitions {
		if d.Name == "" {
			return fmt.Errorf("%w: empty name", domain.ErrInvalidDefinition)
		}
		if names[d.Name] {
			return fmt.Errorf("%w: duplicate name %q", domain.ErrInvalidDefinition, d.Name)
		}
		names[d.Name] = true
		if len(d.Constraints) == 0 {
			return fmt.Errorf("%w: %s has no constraints", domain.ErrInvalidDefinition, d.Name)
		}
		for dim, r := range d.Constraints {
			if r.Min > r.Max || r.Min < 0 || r.Max > vector.MaxValue {
				return fmt.Errorf("%w: %s has bad range for %s [%g, %g]",
					domain.ErrInvalidDefinition, d.Name, dim, r.Min, r.Max)
			}
		}
	}
	for _, d := range definitions {
		for _, c := range d.Compatible {
			if !names[c] {
				return fmt.Errorf("%w: %s lists unknown compatible archetype %q",
					domain.ErrInvalidDefinition, d.Name, c)
			}
		}
	}
	return nil
}

// Compatible reports whether two archetypes are adjacent in the static
// compatibility table. An archetype is not compatible with itself here;
// exact matches are handled separately by the caller.
func Compatible(a, b string) bool {
	for _, d := range definitions {
		if d.Name != a {
			continue
		}
		for _, c := range d.Compatible {
			if c == b {
				return true
			}
		}
	}
	return false
}
