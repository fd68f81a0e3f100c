// Package profile persists profile records as storage hashes.
package profile

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/linksmith/matchlab/internal/domain"
	domprofile "github.com/linksmith/matchlab/internal/domain/profile"
)

// store is the consumer interface for profile storage (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Filter narrows a profile listing.
type Filter struct {
	MinRecordedAt time.Time
	Limit         int
}

// Repo implements the profile storage contract.
type Repo struct {
	store store
}

// New creates a profile repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Create persists a profile record. Records are append-only; an existing id
// is never overwritten by a different session.
func (r *Repo) Create(ctx context.Context, rec domprofile.Record) error {
	fields, err := profileToHash(rec)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := r.store.HSet(ctx, profileKey(rec.ID()), fields); err != nil {
		return fmt.Errorf("store profile %s: %w", rec.ID(), err)
	}
	return nil
}

// Get retrieves one profile record by id.
func (r *Repo) Get(ctx context.Context, id string) (domprofile.Record, error) {
	m, err := r.store.HGetAll(ctx, profileKey(id))
	if err != nil {
		return domprofile.Record{}, fmt.Errorf("get profile %s: %w", id, err)
	}
	if len(m) == 0 {
		return domprofile.Record{}, domain.ErrNotFound
	}
	return profileFromHash(m)
}

// List returns stored profiles, newest first, honoring the filter.
func (r *Repo) List(ctx context.Context, f Filter) ([]domprofile.Record, error) {
	keys, err := r.store.Scan(ctx, domain.KeyPrefix+"profile:*")
	if err != nil {
		return nil, fmt.Errorf("scan profiles: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}

	records := make([]domprofile.Record, 0, len(maps))
	for _, m := range maps {
		if len(m) == 0 {
			continue
		}
		rec, err := profileFromHash(m)
		if err != nil {
			return nil, err
		}
		if !f.MinRecordedAt.IsZero() && rec.RecordedAt().Before(f.MinRecordedAt) {
			continue
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].RecordedAt().After(records[j].RecordedAt())
	})

	if f.Limit > 0 && len(records) > f.Limit {
		records = records[:f.Limit]
	}
	return records, nil
}

func profileKey(id string) string {
	return domain.KeyPrefix + "profile:" + id
}
