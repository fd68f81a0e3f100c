package experiment

import (
	"context"

	domalg "github.com/linksmith/matchlab/internal/domain/algorithm"
	domexp "github.com/linksmith/matchlab/internal/domain/experiment"
)

// Repository defines the storage contract for tests, assignments and
// performance samples.
type Repository interface {
	CreateTest(ctx context.Context, t domexp.Test) error
	UpdateTest(ctx context.Context, t domexp.Test) error
	GetTest(ctx context.Context, id string) (domexp.Test, error)
	ListRunning(ctx context.Context) ([]domexp.Test, error)

	CreateAssignment(ctx context.Context, a domexp.Assignment) (domexp.Assignment, bool, error)
	GetAssignment(ctx context.Context, sessionID string, role domalg.Role) (domexp.Assignment, error)
	CountAssignments(ctx context.Context, testID string) (int, error)

	AppendSample(ctx context.Context, s domexp.Sample) error
	ListSamples(ctx context.Context, role domalg.Role, version string) ([]domexp.Sample, error)
}

// VersionResolver resolves the version to serve when no test covers a role.
type VersionResolver interface {
	GetActive(ctx context.Context, role domalg.Role) domalg.Version
}
