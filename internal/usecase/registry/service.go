// Package registry manages algorithm version records and resolves the
// active version per role. Resolution never fails: storage trouble degrades
// to the hard-coded fallback so the serving path stays up.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	domalg "github.com/linksmith/matchlab/internal/domain/algorithm"
	"github.com/linksmith/matchlab/internal/logger"
)

// storageTimeout bounds every storage round-trip on the resolution path.
const storageTimeout = 2 * time.Second

// Service manages the algorithm version registry.
type Service struct {
	repo Repository
}

// New creates a registry service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateVersion registers a new version for a role.
func (s *Service) CreateVersion(
	ctx context.Context, role domalg.Role, name string, config json.RawMessage,
) (domalg.Version, error) {
	v, err := domalg.NewVersion(role, name, config)
	if err != nil {
		return domalg.Version{}, err
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return domalg.Version{}, fmt.Errorf("create version %s/%s: %w", role, name, err)
	}
	return v, nil
}

// GetVersion returns one version record.
func (s *Service) GetVersion(ctx context.Context, role domalg.Role, name string) (domalg.Version, error) {
	return s.repo.Get(ctx, role, name)
}

// ListVersions returns every version for a role, newest first.
func (s *Service) ListVersions(ctx context.Context, role domalg.Role) ([]domalg.Version, error) {
	return s.repo.List(ctx, role)
}

// Activate marks one version active for its role, deactivating the rest.
func (s *Service) Activate(ctx context.Context, role domalg.Role, name string) error {
	if err := s.repo.Activate(ctx, role, name); err != nil {
		return fmt.Errorf("activate %s/%s: %w", role, name, err)
	}
	return nil
}

// GetActive resolves the version to serve for a role. The ladder is: the
// active record, else the most recently created record, else the hard-coded
// fallback. It never returns an error; any storage failure falls through to
// the fallback.
func (s *Service) GetActive(ctx context.Context, role domalg.Role) domalg.Version {
	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	versions, err := s.repo.List(ctx, role)
	if err != nil {
		logger.FromContext(ctx).Warn("version lookup failed, serving fallback",
			zap.String("role", role.String()),
			zap.Error(err),
		)
		return domalg.Fallback(role)
	}
	for _, v := range versions {
		if v.Active() {
			return v
		}
	}
	if len(versions) > 0 {
		// List is newest-first.
		return versions[0]
	}
	return domalg.Fallback(role)
}
