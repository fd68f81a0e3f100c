// Package experiment persists A/B tests, sticky assignments, and
// performance metric samples.
package experiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/linksmith/matchlab/internal/db"
	"github.com/linksmith/matchlab/internal/domain"
	domalg "github.com/linksmith/matchlab/internal/domain/algorithm"
	domexp "github.com/linksmith/matchlab/internal/domain/experiment"
)

// store is the consumer interface for experiment storage (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetNX(ctx context.Context, key string, value []byte) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	RPush(ctx context.Context, key string, values ...[]byte) error
	LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error)
	LLen(ctx context.Context, key string) (int64, error)
}

// Repo implements the experiment storage contract.
type Repo struct {
	store store
}

// New creates an experiment repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// --- A/B tests ---

// CreateTest persists a new test.
func (r *Repo) CreateTest(ctx context.Context, t domexp.Test) error {
	data, err := json.Marshal(testToRow(t))
	if err != nil {
		return fmt.Errorf("marshal test: %w", err)
	}
	if err := r.store.Set(ctx, testKey(t.ID()), data); err != nil {
		return fmt.Errorf("store test %s: %w", t.ID(), err)
	}
	return nil
}

// UpdateTest overwrites an existing test (status transitions).
func (r *Repo) UpdateTest(ctx context.Context, t domexp.Test) error {
	return r.CreateTest(ctx, t)
}

// GetTest retrieves a test by id.
func (r *Repo) GetTest(ctx context.Context, id string) (domexp.Test, error) {
	data, err := r.store.Get(ctx, testKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domexp.Test{}, domain.ErrTestNotFound
		}
		return domexp.Test{}, fmt.Errorf("get test %s: %w", id, err)
	}
	var row testRow
	if err := json.Unmarshal(data, &row); err != nil {
		return domexp.Test{}, fmt.Errorf("unmarshal test %s: %w", id, err)
	}
	return row.toDomain(), nil
}

// ListRunning returns every running test ordered by start date ascending,
// so the earliest-created test wins deterministic tie-breaks.
func (r *Repo) ListRunning(ctx context.Context) ([]domexp.Test, error) {
	keys, err := r.store.Scan(ctx, domain.KeyPrefix+"abtest:*")
	if err != nil {
		return nil, fmt.Errorf("scan tests: %w", err)
	}

	var tests []domexp.Test
	for _, key := range keys {
		data, err := r.store.Get(ctx, key)
		if err != nil {
			if errors.Is(err, db.ErrKeyNotFound) {
				continue
			}
			return nil, fmt.Errorf("load test %s: %w", key, err)
		}
		var row testRow
		if err := json.Unmarshal(data, &row); err != nil {
			return nil, fmt.Errorf("unmarshal test %s: %w", key, err)
		}
		t := row.toDomain()
		if t.Status() == domexp.Running {
			tests = append(tests, t)
		}
	}

	sort.Slice(tests, func(i, j int) bool {
		return tests[i].StartDate().Before(tests[j].StartDate())
	})
	return tests, nil
}

// --- sticky assignments ---

// CreateAssignment writes an assignment only if none exists for the
// (session, role) pair. Returns the winning assignment and whether this
// call created it; the loser of a concurrent race gets the winner's row.
func (r *Repo) CreateAssignment(
	ctx context.Context, a domexp.Assignment,
) (domexp.Assignment, bool, error) {
	data, err := json.Marshal(assignmentToRow(a))
	if err != nil {
		return domexp.Assignment{}, false, fmt.Errorf("marshal assignment: %w", err)
	}

	key := assignmentKey(a.SessionID, a.Role)
	won, err := r.store.SetNX(ctx, key, data)
	if err != nil {
		return domexp.Assignment{}, false, fmt.Errorf("store assignment %s: %w", key, err)
	}
	if won {
		if a.TestID != "" {
			if err := r.store.RPush(ctx, testAssignmentsKey(a.TestID), []byte(a.SessionID)); err != nil {
				return domexp.Assignment{}, false, fmt.Errorf("count assignment %s: %w", a.TestID, err)
			}
		}
		return a, true, nil
	}

	existing, err := r.GetAssignment(ctx, a.SessionID, a.Role)
	if err != nil {
		return domexp.Assignment{}, false, fmt.Errorf("reread assignment %s: %w", key, err)
	}
	return existing, false, nil
}

// GetAssignment retrieves the sticky assignment for a (session, role) pair.
func (r *Repo) GetAssignment(
	ctx context.Context, sessionID string, role domalg.Role,
) (domexp.Assignment, error) {
	data, err := r.store.Get(ctx, assignmentKey(sessionID, role))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domexp.Assignment{}, domain.ErrNotFound
		}
		return domexp.Assignment{}, fmt.Errorf("get assignment %s/%s: %w", sessionID, role, err)
	}
	var row assignmentRow
	if err := json.Unmarshal(data, &row); err != nil {
		return domexp.Assignment{}, fmt.Errorf("unmarshal assignment: %w", err)
	}
	return row.toDomain(), nil
}

// CountAssignments returns how many sessions a test has assigned.
func (r *Repo) CountAssignments(ctx context.Context, testID string) (int, error) {
	n, err := r.store.LLen(ctx, testAssignmentsKey(testID))
	if err != nil {
		return 0, fmt.Errorf("count assignments %s: %w", testID, err)
	}
	return int(n), nil
}

// --- performance samples ---

// AppendSample appends one performance measurement (append-only).
func (r *Repo) AppendSample(ctx context.Context, s domexp.Sample) error {
	data, err := json.Marshal(sampleToRow(s))
	if err != nil {
		return fmt.Errorf("marshal sample: %w", err)
	}
	key := samplesKey(s.Role, s.Version)
	if err := r.store.RPush(ctx, key, data); err != nil {
		return fmt.Errorf("append sample %s: %w", key, err)
	}
	return nil
}

// ListSamples returns every sample recorded for a (role, version) pair.
func (r *Repo) ListSamples(
	ctx context.Context, role domalg.Role, version string,
) ([]domexp.Sample, error) {
	items, err := r.store.LRange(ctx, samplesKey(role, version), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("list samples %s/%s: %w", role, version, err)
	}
	samples := make([]domexp.Sample, 0, len(items))
	for _, it := range items {
		var row sampleRow
		if err := json.Unmarshal(it, &row); err != nil {
			return nil, fmt.Errorf("unmarshal sample: %w", err)
		}
		samples = append(samples, row.toDomain())
	}
	return samples, nil
}

func testKey(id string) string {
	return domain.KeyPrefix + "abtest:" + id
}

func testAssignmentsKey(id string) string {
	// Separate prefix so the test-blob scan never hits the session lists.
	return domain.KeyPrefix + "abtest_sessions:" + id
}

func assignmentKey(sessionID string, role domalg.Role) string {
	return fmt.Sprintf("%sassign:%s:%s", domain.KeyPrefix, sessionID, role)
}

func samplesKey(role domalg.Role, version string) string {
	return fmt.Sprintf("%ssamples:%s:%s", domain.KeyPrefix, role, version)
}
