package match

import (
	"context"

	domprofile "github.com/linksmith/matchlab/internal/domain/profile"
	profilerepo "github.com/linksmith/matchlab/internal/repository/profile"
)

// Repository defines the storage contract for the candidate pool.
type Repository interface {
	List(ctx context.Context, f profilerepo.Filter) ([]domprofile.Record, error)
}
