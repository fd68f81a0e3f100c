// Package segment runs offline population segmentation over the stored
// profile pool.
package segment

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	domsegment "github.com/linksmith/matchlab/internal/domain/segment"
	"github.com/linksmith/matchlab/internal/domain/vector"
	"github.com/linksmith/matchlab/internal/logger"
	profilerepo "github.com/linksmith/matchlab/internal/repository/profile"
)

// Summary describes one segment of the population.
type Summary struct {
	Centroid          vector.Vector
	Size              int
	Sessions          []string
	DominantArchetype string
}

// Analysis is the outcome of one segmentation run.
type Analysis struct {
	Segments   []Summary
	Iterations int
	PoolSize   int
}

// Service partitions the stored population into K segments.
type Service struct {
	repo Repository
	seed func() int64
}

// New creates a segment service with time-based centroid seeding.
func New(repo Repository) *Service {
	return &Service{repo: repo, seed: func() int64 { return time.Now().UnixNano() }}
}

// WithSeed pins the centroid seed for reproducible runs.
func (s *Service) WithSeed(seed int64) *Service {
	s.seed = func() int64 { return seed }
	return s
}

// Segment clusters the stored population into k groups. Each call draws a
// fresh random source so concurrent runs do not share generator state.
func (s *Service) Segment(ctx context.Context, k int) (Analysis, error) {
	log := logger.FromContext(ctx)

	pool, err := s.repo.List(ctx, profilerepo.Filter{})
	if err != nil {
		return Analysis{}, fmt.Errorf("list population: %w", err)
	}

	vectors := make([]vector.Vector, len(pool))
	for i, p := range pool {
		vectors[i] = p.Vector()
	}

	rng := rand.New(rand.NewSource(s.seed()))
	result, err := domsegment.Cluster(vectors, k, rng)
	if err != nil {
		return Analysis{}, fmt.Errorf("cluster population of %d: %w", len(pool), err)
	}

	segments := make([]Summary, k)
	archetypes := make([]map[string]int, k)
	for i := range segments {
		segments[i].Centroid = result.Centroids[i]
		archetypes[i] = make(map[string]int)
	}
	for i, c := range result.Assignments {
		segments[c].Size++
		segments[c].Sessions = append(segments[c].Sessions, pool[i].SessionID())
		archetypes[c][pool[i].Archetype()]++
	}
	for i := range segments {
		segments[i].DominantArchetype = dominant(archetypes[i])
	}

	log.Info("population segmented",
		zap.Int("pool_size", len(pool)),
		zap.Int("segments", k),
		zap.Int("iterations", result.Iterations),
	)
	return Analysis{Segments: segments, Iterations: result.Iterations, PoolSize: len(pool)}, nil
}

// dominant picks the most frequent archetype, empty when a segment has no
// members or its members carry no snapshot.
func dominant(counts map[string]int) string {
	var name string
	var best int
	for a, n := range counts {
		if a == "" {
			continue
		}
		if n > best || (n == best && a < name) {
			name, best = a, n
		}
	}
	return name
}
