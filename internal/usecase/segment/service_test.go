package segment

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/linksmith/matchlab/internal/domain"
	domprofile "github.com/linksmith/matchlab/internal/domain/profile"
	"github.com/linksmith/matchlab/internal/domain/vector"
	profilerepo "github.com/linksmith/matchlab/internal/repository/profile"
)

type mockRepo struct {
	records []domprofile.Record
	err     error
}

func (m *mockRepo) List(_ context.Context, _ profilerepo.Filter) ([]domprofile.Record, error) {
	return m.records, m.err
}

func makeProfile(t *testing.T, session, archetype string, level float64) domprofile.Record {
	t.Helper()
	values := make(map[vector.Dimension]float64, len(vector.Dimensions))
	for _, d := range vector.Dimensions {
		values[d] = level
	}
	vec, err := vector.New(values, nil)
	if err != nil {
		t.Fatalf("vector.New: %v", err)
	}
	return domprofile.Reconstruct(session, session, vec, time.Now(), archetype, 0.8)
}

// threeClusterPool builds 12 profiles in tight groups around levels 8, 5
// and 2.
func threeClusterPool(t *testing.T) []domprofile.Record {
	t.Helper()
	var pool []domprofile.Record
	groups := []struct {
		level     float64
		archetype string
	}{
		{8, "competitive_grinder"},
		{5, "weekend_social"},
		{2, "casual_newcomer"},
	}
	for g, group := range groups {
		for i := 0; i < 4; i++ {
			session := fmt.Sprintf("s%d-%d", g, i)
			pool = append(pool, makeProfile(t, session, group.archetype, group.level+float64(i)*0.2))
		}
	}
	return pool
}

func TestSegment_PoolTooSmall(t *testing.T) {
	pool := []domprofile.Record{makeProfile(t, "only", "", 5)}
	svc := New(&mockRepo{records: pool})

	_, err := svc.Segment(context.Background(), 3)
	if !errors.Is(err, domain.ErrPoolTooSmall) {
		t.Fatalf("expected ErrPoolTooSmall, got %v", err)
	}
}

func TestSegment_RepoError(t *testing.T) {
	wantErr := errors.New("storage down")
	svc := New(&mockRepo{err: wantErr})

	_, err := svc.Segment(context.Background(), 3)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped repo error, got %v", err)
	}
}

func TestSegment_PartitionsWholePool(t *testing.T) {
	svc := New(&mockRepo{records: threeClusterPool(t)}).WithSeed(42)

	analysis, err := svc.Segment(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analysis.PoolSize != 12 {
		t.Errorf("expected pool size 12, got %d", analysis.PoolSize)
	}
	if len(analysis.Segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(analysis.Segments))
	}

	var total int
	for i, seg := range analysis.Segments {
		total += seg.Size
		if seg.Size != len(seg.Sessions) {
			t.Errorf("segment %d: size %d does not match %d sessions", i, seg.Size, len(seg.Sessions))
		}
		if seg.Centroid.IsZero() && seg.Size > 0 {
			t.Errorf("segment %d: populated segment has zero centroid", i)
		}
	}
	if total != 12 {
		t.Errorf("expected every profile assigned exactly once, got %d", total)
	}
}

func TestSegment_SameSeedIsReproducible(t *testing.T) {
	repo := &mockRepo{records: threeClusterPool(t)}
	first, err := New(repo).WithSeed(7).Segment(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := New(repo).WithSeed(7).Segment(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.Iterations != second.Iterations {
		t.Errorf("iterations differ: %d vs %d", first.Iterations, second.Iterations)
	}
	for i := range first.Segments {
		a, b := first.Segments[i], second.Segments[i]
		if a.Size != b.Size {
			t.Errorf("segment %d: sizes differ: %d vs %d", i, a.Size, b.Size)
			continue
		}
		for j := range a.Sessions {
			if a.Sessions[j] != b.Sessions[j] {
				t.Errorf("segment %d: member %d differs: %s vs %s", i, j, a.Sessions[j], b.Sessions[j])
			}
		}
	}
}

func TestSegment_DominantArchetype(t *testing.T) {
	svc := New(&mockRepo{records: threeClusterPool(t)}).WithSeed(42)

	analysis, err := svc.Segment(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	known := map[string]bool{
		"competitive_grinder": true,
		"weekend_social":      true,
		"casual_newcomer":     true,
	}
	for i, seg := range analysis.Segments {
		if seg.Size == 0 {
			if seg.DominantArchetype != "" {
				t.Errorf("segment %d: empty segment should have no dominant archetype", i)
			}
			continue
		}
		if !known[seg.DominantArchetype] {
			t.Errorf("segment %d: unexpected dominant archetype %q", i, seg.DominantArchetype)
		}
	}
}

func TestDominant(t *testing.T) {
	t.Run("majority wins", func(t *testing.T) {
		got := dominant(map[string]int{"weekend_social": 3, "casual_newcomer": 1})
		if got != "weekend_social" {
			t.Errorf("expected weekend_social, got %s", got)
		}
	})

	t.Run("missing snapshots are skipped", func(t *testing.T) {
		got := dominant(map[string]int{"": 5, "luxury_leisure": 1})
		if got != "luxury_leisure" {
			t.Errorf("expected luxury_leisure, got %s", got)
		}
	})

	t.Run("empty counts", func(t *testing.T) {
		if got := dominant(nil); got != "" {
			t.Errorf("expected empty, got %s", got)
		}
	})
}
