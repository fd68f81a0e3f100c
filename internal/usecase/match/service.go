// Package match implements progressive-relaxation nearest-neighbor search
// with archetype-aware scoring and diversity re-ranking.
package match

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/linksmith/matchlab/internal/domain/archetype"
	dommatch "github.com/linksmith/matchlab/internal/domain/match"
	"github.com/linksmith/matchlab/internal/domain/vector"
	"github.com/linksmith/matchlab/internal/logger"
	"github.com/linksmith/matchlab/internal/metrics"
	profilerepo "github.com/linksmith/matchlab/internal/repository/profile"
)

// Thresholds drive progressive relaxation: the filter starts at Start and
// drops by Step until MinResults survive or Floor is reached.
type Thresholds struct {
	Start float64
	Step  float64
	Floor float64
}

// DefaultThresholds returns the standard relaxation ladder.
func DefaultThresholds() Thresholds {
	return Thresholds{Start: 0.7, Step: 0.1, Floor: 0.3}
}

// Service handles neighbor search over the recorded profile pool.
type Service struct {
	repo       Repository
	thresholds Thresholds
}

// New creates a match service with default relaxation thresholds.
func New(repo Repository) *Service {
	return &Service{repo: repo, thresholds: DefaultThresholds()}
}

// WithThresholds overrides the relaxation ladder.
func (s *Service) WithThresholds(t Thresholds) *Service {
	if t.Start > 0 {
		s.thresholds = t
	}
	return s
}

// FindNeighbors returns up to opts.MaxResults() profiles most similar to the
// target, best-effort at least opts.MinResults() when the pool allows. An
// empty pool yields an empty list, never an error.
func (s *Service) FindNeighbors(
	ctx context.Context, target vector.Vector, opts dommatch.Options,
) ([]dommatch.Result, error) {
	log := logger.FromContext(ctx)

	pool, err := s.repo.List(ctx, profilerepo.Filter{})
	if err != nil {
		return nil, fmt.Errorf("list candidate pool: %w", err)
	}
	if len(pool) == 0 {
		log.Info("neighbor search on empty pool")
		metrics.NeighborsReturned.Observe(0)
		return nil, nil
	}

	targetMatch := archetype.Classify(target)
	scored := scorePool(target, targetMatch, pool, opts)

	kept, steps := relax(scored, opts.MinResults(), s.thresholds, func(threshold float64, kept int) {
		log.Debug("relaxing similarity threshold",
			zap.Float64("threshold", threshold),
			zap.Int("kept", kept),
			zap.Int("min_results", opts.MinResults()),
		)
	})

	sortByFinal(kept)

	if opts.DiversityFactor() > 0 && len(kept) > opts.MaxResults() {
		kept = diversityRerank(kept, opts.DiversityFactor(), opts.MaxResults())
	}
	if len(kept) > opts.MaxResults() {
		kept = kept[:opts.MaxResults()]
	}

	metrics.RelaxationSteps.Observe(float64(steps))
	metrics.NeighborsReturned.Observe(float64(len(kept)))
	log.Info("neighbor search complete",
		zap.String("target_archetype", targetMatch.Name),
		zap.Int("pool_size", len(pool)),
		zap.Int("relaxation_steps", steps),
		zap.Int("results", len(kept)),
	)
	return kept, nil
}

// Classify exposes archetype classification to transport callers.
func (s *Service) Classify(_ context.Context, v vector.Vector) archetype.Match {
	return archetype.Classify(v)
}
