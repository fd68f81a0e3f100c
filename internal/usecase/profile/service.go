// Package profile records completed preference profiles. Each record
// snapshots the archetype classification at recording time, so later
// definition changes never rewrite history.
package profile

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/linksmith/matchlab/internal/domain/archetype"
	domprofile "github.com/linksmith/matchlab/internal/domain/profile"
	"github.com/linksmith/matchlab/internal/domain/vector"
	"github.com/linksmith/matchlab/internal/logger"
	profilerepo "github.com/linksmith/matchlab/internal/repository/profile"
)

// Service records and lists preference profiles.
type Service struct {
	repo Repository
}

// New creates a profile service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record classifies the vector and persists it with the archetype snapshot.
func (s *Service) Record(
	ctx context.Context, sessionID string, vec vector.Vector,
) (domprofile.Record, error) {
	m := archetype.Classify(vec)
	rec, err := domprofile.New(sessionID, vec, m.Name, m.Confidence)
	if err != nil {
		return domprofile.Record{}, err
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return domprofile.Record{}, fmt.Errorf("record profile: %w", err)
	}
	logger.FromContext(ctx).Info("profile recorded",
		zap.String("profile_id", rec.ID()),
		zap.String("session_id", sessionID),
		zap.String("archetype", m.Name),
		zap.Float64("confidence", m.Confidence),
	)
	return rec, nil
}

// Get returns one profile record.
func (s *Service) Get(ctx context.Context, id string) (domprofile.Record, error) {
	return s.repo.Get(ctx, id)
}

// List returns stored profiles, newest first.
func (s *Service) List(ctx context.Context, f profilerepo.Filter) ([]domprofile.Record, error) {
	return s.repo.List(ctx, f)
}
