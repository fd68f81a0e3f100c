// Package experiment runs A/B tests over algorithm versions: sticky
// per-session assignment, performance sample collection and winner
// determination.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/linksmith/matchlab/internal/domain"
	domalg "github.com/linksmith/matchlab/internal/domain/algorithm"
	domexp "github.com/linksmith/matchlab/internal/domain/experiment"
	"github.com/linksmith/matchlab/internal/logger"
	"github.com/linksmith/matchlab/internal/metrics"
)

// DefaultSampleFloor is the minimum assignment count before a winner can be
// declared.
const DefaultSampleFloor = 100

// storageTimeout bounds every storage round-trip on the resolution path.
const storageTimeout = 2 * time.Second

// Resolution source labels, also used as the prometheus source dimension.
const (
	SourceSticky   = "sticky"
	SourceTest     = "test"
	SourceActive   = "active"
	SourceFallback = "fallback"
)

// Resolution is the outcome of resolving a (session, role) pair to an
// algorithm version.
type Resolution struct {
	Assignment domexp.Assignment
	Source     string
}

// Service coordinates A/B tests and sticky version assignment.
type Service struct {
	repo        Repository
	versions    VersionResolver
	sampleFloor int

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates an experiment service with a time-seeded traffic source.
func New(repo Repository, versions VersionResolver, sampleFloor int) *Service {
	if sampleFloor <= 0 {
		sampleFloor = DefaultSampleFloor
	}
	return &Service{
		repo:        repo,
		versions:    versions,
		sampleFloor: sampleFloor,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithRand pins the traffic-split source for reproducible draws.
func (s *Service) WithRand(rng *rand.Rand) *Service {
	s.rng = rng
	return s
}

func (s *Service) draw() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// Resolve returns the algorithm version a session should use for a role.
// A prior assignment always wins. Otherwise a running test draws the
// session into one of its arms and persists the assignment create-once, so
// concurrent first resolutions converge on a single row. With no running
// test the registry's active version is served without writing a row,
// keeping those sessions eligible for tests created later.
//
// Resolution never fails: test storage trouble degrades to the registry's
// resolution instead of surfacing an error, so the serving path stays up.
func (s *Service) Resolve(
	ctx context.Context, sessionID string, role domalg.Role,
) (Resolution, error) {
	log := logger.FromContext(ctx)

	rctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	prior, err := s.repo.GetAssignment(rctx, sessionID, role)
	switch {
	case err == nil:
		metrics.AssignmentsTotal.WithLabelValues(role.String(), prior.Version, SourceSticky).Inc()
		return Resolution{Assignment: prior, Source: SourceSticky}, nil
	case !errors.Is(err, domain.ErrNotFound):
		log.Warn("assignment lookup failed, serving degraded",
			zap.String("session_id", sessionID),
			zap.String("role", role.String()),
			zap.Error(err),
		)
		return s.degraded(ctx, sessionID, role), nil
	}

	test, ok, err := s.runningTestFor(rctx, role)
	if err != nil {
		log.Warn("running-test lookup failed, serving degraded",
			zap.String("session_id", sessionID),
			zap.String("role", role.String()),
			zap.Error(err),
		)
		return s.degraded(ctx, sessionID, role), nil
	}
	if !ok {
		active := s.versions.GetActive(ctx, role)
		source := SourceActive
		if active.Name() == domalg.Fallback(role).Name() {
			source = SourceFallback
		}
		metrics.AssignmentsTotal.WithLabelValues(role.String(), active.Name(), source).Inc()
		return Resolution{
			Assignment: domexp.Assignment{
				SessionID: sessionID,
				Role:      role,
				Version:   active.Name(),
			},
			Source: source,
		}, nil
	}

	version := test.VersionB()
	if s.draw() < test.TrafficSplit() {
		version = test.VersionA()
	}
	assigned, created, err := s.repo.CreateAssignment(rctx, domexp.Assignment{
		SessionID:  sessionID,
		Role:       role,
		Version:    version,
		TestID:     test.ID(),
		AssignedAt: time.Now().UTC(),
	})
	if err != nil {
		log.Warn("assignment write failed, serving degraded",
			zap.String("session_id", sessionID),
			zap.String("role", role.String()),
			zap.String("test_id", test.ID()),
			zap.Error(err),
		)
		return s.degraded(ctx, sessionID, role), nil
	}
	source := SourceTest
	if !created {
		// Lost a concurrent first-resolve race; the stored row wins.
		source = SourceSticky
	}
	metrics.AssignmentsTotal.WithLabelValues(role.String(), assigned.Version, source).Inc()
	log.Debug("session assigned to test arm",
		zap.String("session_id", sessionID),
		zap.String("role", role.String()),
		zap.String("test_id", test.ID()),
		zap.String("version", assigned.Version),
		zap.Bool("created", created),
	)
	return Resolution{Assignment: assigned, Source: source}, nil
}

// runningTestFor finds the running test covering a role. ListRunning is
// ordered by start date, so with several running tests the earliest wins.
func (s *Service) runningTestFor(ctx context.Context, role domalg.Role) (domexp.Test, bool, error) {
	running, err := s.repo.ListRunning(ctx)
	if err != nil {
		return domexp.Test{}, false, fmt.Errorf("list running tests: %w", err)
	}
	for _, t := range running {
		if t.Role() == role {
			return t, true, nil
		}
	}
	return domexp.Test{}, false, nil
}

// degraded serves the registry's resolution without touching test storage.
// No row is persisted, so the session is drawn normally once storage
// recovers.
func (s *Service) degraded(ctx context.Context, sessionID string, role domalg.Role) Resolution {
	active := s.versions.GetActive(ctx, role)
	metrics.AssignmentsTotal.WithLabelValues(role.String(), active.Name(), SourceFallback).Inc()
	return Resolution{
		Assignment: domexp.Assignment{
			SessionID: sessionID,
			Role:      role,
			Version:   active.Name(),
		},
		Source: SourceFallback,
	}
}

// TrackPerformance appends one aggregated performance measurement for a
// (role, version) pair. A zero sampleSize means the value is a single
// observation.
func (s *Service) TrackPerformance(
	ctx context.Context, role domalg.Role, version, metric string,
	value float64, sampleSize int,
) error {
	if _, err := domalg.ParseRole(string(role)); err != nil {
		return err
	}
	if version == "" {
		return fmt.Errorf("%w: empty version", domain.ErrVersionNotFound)
	}
	if metric == "" {
		return fmt.Errorf("%w: empty metric name", domain.ErrUnknownMetric)
	}
	if sampleSize < 0 {
		return fmt.Errorf("%w: sample size must not be negative, got %d", domain.ErrValidation, sampleSize)
	}
	if sampleSize == 0 {
		sampleSize = 1
	}
	return s.repo.AppendSample(ctx, domexp.Sample{
		Role:       role,
		Version:    version,
		MetricName: metric,
		Value:      value,
		SampleSize: sampleSize,
		MeasuredOn: time.Now().UTC(),
	})
}

// CreateTest starts a new A/B test. At most one test may run per role; the
// second creation attempt fails instead of silently splitting traffic three
// ways.
func (s *Service) CreateTest(
	ctx context.Context, role domalg.Role, versionA, versionB string,
	trafficSplit float64, successMetrics []string,
) (domexp.Test, error) {
	t, err := domexp.NewTest(role, versionA, versionB, trafficSplit, successMetrics)
	if err != nil {
		return domexp.Test{}, err
	}

	if _, running, err := s.runningTestFor(ctx, role); err != nil {
		return domexp.Test{}, err
	} else if running {
		return domexp.Test{}, fmt.Errorf("%w: role %s", domain.ErrTestAlreadyRunning, role)
	}

	if err := s.repo.CreateTest(ctx, t); err != nil {
		return domexp.Test{}, fmt.Errorf("create test: %w", err)
	}
	logger.FromContext(ctx).Info("test created",
		zap.String("test_id", t.ID()),
		zap.String("role", role.String()),
		zap.String("version_a", versionA),
		zap.String("version_b", versionB),
		zap.Float64("traffic_split", trafficSplit),
	)
	return t, nil
}

// GetTest returns one test record.
func (s *Service) GetTest(ctx context.Context, id string) (domexp.Test, error) {
	return s.repo.GetTest(ctx, id)
}

// CompleteTest stops a running test. Completing an already completed test
// is a no-op returning the stored record.
func (s *Service) CompleteTest(ctx context.Context, id string) (domexp.Test, error) {
	t, err := s.repo.GetTest(ctx, id)
	if err != nil {
		return domexp.Test{}, err
	}
	if t.Status() == domexp.Completed {
		return t, nil
	}
	done := t.Complete()
	if err := s.repo.UpdateTest(ctx, done); err != nil {
		return domexp.Test{}, fmt.Errorf("complete test %s: %w", id, err)
	}
	return done, nil
}

// Winner evaluates a test's primary success metric. The verdict is
// inconclusive until the assignment count reaches the configured floor.
func (s *Service) Winner(ctx context.Context, testID string) (domexp.Verdict, error) {
	t, err := s.repo.GetTest(ctx, testID)
	if err != nil {
		return domexp.Verdict{}, err
	}

	samplesA, err := s.repo.ListSamples(ctx, t.Role(), t.VersionA())
	if err != nil {
		return domexp.Verdict{}, fmt.Errorf("samples for %s: %w", t.VersionA(), err)
	}
	samplesB, err := s.repo.ListSamples(ctx, t.Role(), t.VersionB())
	if err != nil {
		return domexp.Verdict{}, fmt.Errorf("samples for %s: %w", t.VersionB(), err)
	}
	assigned, err := s.repo.CountAssignments(ctx, t.ID())
	if err != nil {
		return domexp.Verdict{}, fmt.Errorf("count assignments: %w", err)
	}

	return domexp.DetermineWinner(t, samplesA, samplesB, assigned, s.sampleFloor), nil
}
