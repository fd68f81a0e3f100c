// Package algorithm persists versioned algorithm configuration records.
package algorithm

import (
	"context"
	"fmt"
	"sort"

	"github.com/linksmith/matchlab/internal/domain"
	domalg "github.com/linksmith/matchlab/internal/domain/algorithm"
)

// store is the consumer interface for algorithm-version storage (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements the registry storage contract.
type Repo struct {
	store store
}

// New creates an algorithm-version repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Create persists a new version record. Fails if (role, version) exists.
func (r *Repo) Create(ctx context.Context, v domalg.Version) error {
	key := versionKey(v.Role(), v.Name())
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check version %s/%s: %w", v.Role(), v.Name(), err)
	}
	if exists {
		return fmt.Errorf("version %s/%s: %w", v.Role(), v.Name(), domain.ErrAlreadyExists)
	}
	if err := r.store.HSet(ctx, key, versionToHash(v)); err != nil {
		return fmt.Errorf("store version %s/%s: %w", v.Role(), v.Name(), err)
	}
	return nil
}

// Get retrieves one version record.
func (r *Repo) Get(ctx context.Context, role domalg.Role, name string) (domalg.Version, error) {
	m, err := r.store.HGetAll(ctx, versionKey(role, name))
	if err != nil {
		return domalg.Version{}, fmt.Errorf("get version %s/%s: %w", role, name, err)
	}
	if len(m) == 0 {
		return domalg.Version{}, domain.ErrVersionNotFound
	}
	return versionFromHash(m)
}

// List returns every version of a role, newest first.
func (r *Repo) List(ctx context.Context, role domalg.Role) ([]domalg.Version, error) {
	keys, err := r.store.Scan(ctx, rolePattern(role))
	if err != nil {
		return nil, fmt.Errorf("scan versions %s: %w", role, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load versions %s: %w", role, err)
	}

	versions := make([]domalg.Version, 0, len(maps))
	for _, m := range maps {
		if len(m) == 0 {
			continue
		}
		v, err := versionFromHash(m)
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}

	sort.Slice(versions, func(i, j int) bool {
		return versions[i].CreatedAt().After(versions[j].CreatedAt())
	})
	return versions, nil
}

// Activate deactivates every version of the role and then activates the
// named one. The two steps are not atomic together; readers tolerate the
// brief zero-active window by falling back to most-recently-created.
func (r *Repo) Activate(ctx context.Context, role domalg.Role, name string) error {
	target := versionKey(role, name)
	exists, err := r.store.Exists(ctx, target)
	if err != nil {
		return fmt.Errorf("check version %s/%s: %w", role, name, err)
	}
	if !exists {
		return domain.ErrVersionNotFound
	}

	keys, err := r.store.Scan(ctx, rolePattern(role))
	if err != nil {
		return fmt.Errorf("scan versions %s: %w", role, err)
	}
	for _, key := range keys {
		if err := r.store.HSet(ctx, key, map[string]string{"active": "0"}); err != nil {
			return fmt.Errorf("deactivate %s: %w", key, err)
		}
	}

	if err := r.store.HSet(ctx, target, map[string]string{"active": "1"}); err != nil {
		return fmt.Errorf("activate %s/%s: %w", role, name, err)
	}
	return nil
}

func versionKey(role domalg.Role, name string) string {
	return fmt.Sprintf("%salgo:%s:%s", domain.KeyPrefix, role, name)
}

func rolePattern(role domalg.Role) string {
	return fmt.Sprintf("%salgo:%s:*", domain.KeyPrefix, role)
}
