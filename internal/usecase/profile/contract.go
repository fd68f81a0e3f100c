package profile

import (
	"context"

	domprofile "github.com/linksmith/matchlab/internal/domain/profile"
	profilerepo "github.com/linksmith/matchlab/internal/repository/profile"
)

// Repository defines the storage contract for profile records.
type Repository interface {
	Create(ctx context.Context, rec domprofile.Record) error
	Get(ctx context.Context, id string) (domprofile.Record, error)
	List(ctx context.Context, f profilerepo.Filter) ([]domprofile.Record, error)
}
