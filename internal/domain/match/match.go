// Package match defines the neighbor-search request options and the
// ephemeral per-search result. Results are produced per call and never
// persisted.
package match

import (
	"fmt"

	"github.com/linksmith/matchlab/internal/domain"
	"github.com/linksmith/matchlab/internal/domain/profile"
	"github.com/linksmith/matchlab/internal/domain/similarity"
)

// Default option values.
const (
	DefaultMinResults = 3
	DefaultMaxResults = 10
	MaxMaxResults     = 50
)

// Options configures one neighbor search.
type Options struct {
	metric            similarity.Metric
	minResults        int
	maxResults        int
	useArchetypeBonus bool
	diversityFactor   float64
}

// NewOptions validates and creates search options. Zero minResults and
// maxResults resolve to defaults; diversityFactor 0 disables re-ranking.
func NewOptions(
	metric similarity.Metric, minResults, maxResults int,
	useArchetypeBonus bool, diversityFactor float64,
) (Options, error) {
	if minResults < 0 {
		return Options{}, fmt.Errorf("%w: min results must not be negative", domain.ErrValidation)
	}
	if minResults == 0 {
		minResults = DefaultMinResults
	}
	if maxResults < 0 || maxResults > MaxMaxResults {
		return Options{}, fmt.Errorf("%w: max results must be between 0 and %d", domain.ErrValidation, MaxMaxResults)
	}
	if maxResults == 0 {
		maxResults = DefaultMaxResults
	}
	if minResults > maxResults {
		return Options{}, fmt.Errorf("%w: min results %d exceeds max results %d", domain.ErrValidation, minResults, maxResults)
	}
	if diversityFactor < 0 || diversityFactor > 1 {
		return Options{}, fmt.Errorf("%w: diversity factor must be in [0, 1], got %g", domain.ErrValidation, diversityFactor)
	}
	if metric == "" {
		metric = similarity.WeightedEuclidean
	}
	return Options{
		metric:            metric,
		minResults:        minResults,
		maxResults:        maxResults,
		useArchetypeBonus: useArchetypeBonus,
		diversityFactor:   diversityFactor,
	}, nil
}

// Metric returns the similarity metric.
func (o Options) Metric() similarity.Metric { return o.metric }

// MinResults returns the best-effort minimum result count.
func (o Options) MinResults() int { return o.minResults }

// MaxResults returns the hard maximum result count.
func (o Options) MaxResults() int { return o.maxResults }

// UseArchetypeBonus reports whether archetype affinity boosts similarity.
func (o Options) UseArchetypeBonus() bool { return o.useArchetypeBonus }

// DiversityFactor returns the diversity re-ranking weight (0 disables it).
func (o Options) DiversityFactor() float64 { return o.diversityFactor }

// Result is a single scored neighbor.
type Result struct {
	profile   profile.Record
	base      float64
	bonus     float64
	final     float64
	archetype string
}

// NewResult creates a scored neighbor. The final similarity is base+bonus
// capped at 1.
func NewResult(p profile.Record, base, bonus float64, archetype string) Result {
	final := base + bonus
	if final > 1 {
		final = 1
	}
	return Result{profile: p, base: base, bonus: bonus, final: final, archetype: archetype}
}

// Profile returns the matched profile record.
func (r Result) Profile() profile.Record { return r.profile }

// BaseSimilarity returns the metric similarity before any bonus.
func (r Result) BaseSimilarity() float64 { return r.base }

// ArchetypeBonus returns the archetype affinity bonus.
func (r Result) ArchetypeBonus() float64 { return r.bonus }

// FinalSimilarity returns min(1, base+bonus).
func (r Result) FinalSimilarity() float64 { return r.final }

// Archetype returns the matched member's archetype.
func (r Result) Archetype() string { return r.archetype }
