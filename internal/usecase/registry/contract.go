package registry

import (
	"context"

	domalg "github.com/linksmith/matchlab/internal/domain/algorithm"
)

// Repository defines the storage contract for algorithm versions.
type Repository interface {
	Create(ctx context.Context, v domalg.Version) error
	Get(ctx context.Context, role domalg.Role, name string) (domalg.Version, error)
	List(ctx context.Context, role domalg.Role) ([]domalg.Version, error)
	Activate(ctx context.Context, role domalg.Role, name string) error
}
