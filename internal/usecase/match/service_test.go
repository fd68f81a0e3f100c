package match

import (
	"context"
	"errors"
	"testing"

	dommatch "github.com/linksmith/matchlab/internal/domain/match"
	domprofile "github.com/linksmith/matchlab/internal/domain/profile"
	"github.com/linksmith/matchlab/internal/domain/similarity"
	"github.com/linksmith/matchlab/internal/domain/vector"
	profilerepo "github.com/linksmith/matchlab/internal/repository/profile"
)

// --- Mocks ---

type mockRepo struct {
	records []domprofile.Record
	err     error
	called  bool
}

func (m *mockRepo) List(_ context.Context, _ profilerepo.Filter) ([]domprofile.Record, error) {
	m.called = true
	return m.records, m.err
}

func defaultOptions(t *testing.T) dommatch.Options {
	t.Helper()
	opts, err := dommatch.NewOptions(similarity.WeightedEuclidean, 0, 0, false, 0)
	if err != nil {
		t.Fatalf("NewOptions: %v", err)
	}
	return opts
}

// clusteredPool builds three groups of four profiles each, centered on
// uniform 8s, 5s and 2s with small per-member offsets.
func clusteredPool(t *testing.T) []domprofile.Record {
	t.Helper()
	var pool []domprofile.Record
	centers := map[string]float64{"high": 8, "mid": 5, "low": 2}
	offsets := []float64{-0.4, -0.2, 0.2, 0.4}
	for name, center := range centers {
		for i, off := range offsets {
			vec := uniformVector(t, center+off)
			session := name + string(rune('a'+i))
			pool = append(pool, makeRecord(t, session, vec))
		}
	}
	return pool
}

// --- Tests ---

func TestFindNeighbors_EmptyPool(t *testing.T) {
	svc := New(&mockRepo{})

	results, err := svc.FindNeighbors(context.Background(), uniformVector(t, 8), defaultOptions(t))
	if err != nil {
		t.Fatalf("empty pool must not error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestFindNeighbors_RepoError(t *testing.T) {
	wantErr := errors.New("storage down")
	svc := New(&mockRepo{err: wantErr})

	_, err := svc.FindNeighbors(context.Background(), uniformVector(t, 8), defaultOptions(t))
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped repo error, got %v", err)
	}
}

func TestFindNeighbors_NearestClusterWins(t *testing.T) {
	repo := &mockRepo{records: clusteredPool(t)}
	svc := New(repo)

	results, err := svc.FindNeighbors(context.Background(), uniformVector(t, 8), defaultOptions(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !repo.called {
		t.Fatal("expected repository List to be called")
	}
	if len(results) < 4 {
		t.Fatalf("expected at least the high cluster, got %d results", len(results))
	}
	for i := 0; i < 4; i++ {
		session := results[i].Profile().SessionID()
		if session[:4] != "high" {
			t.Errorf("position %d: expected a high-cluster member, got %s", i, session)
		}
	}
	for i := 1; i < len(results); i++ {
		if results[i].FinalSimilarity() > results[i-1].FinalSimilarity() {
			t.Errorf("results not sorted at index %d", i)
		}
	}
}

func TestFindNeighbors_RelaxesToFloorOnSparsePool(t *testing.T) {
	pool := []domprofile.Record{
		makeRecord(t, "mid", uniformVector(t, 4)),
		makeRecord(t, "far", uniformVector(t, 2)),
	}
	svc := New(&mockRepo{records: pool})

	results, err := svc.FindNeighbors(context.Background(), uniformVector(t, 8), defaultOptions(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected both sparse candidates after relaxation, got %d", len(results))
	}
	if results[0].Profile().SessionID() != "mid" {
		t.Errorf("expected 'mid' first, got %s", results[0].Profile().SessionID())
	}
}

func TestFindNeighbors_MaxResultsBounds(t *testing.T) {
	var pool []domprofile.Record
	for i := 0; i < 20; i++ {
		pool = append(pool, makeRecord(t, "near"+string(rune('a'+i)), uniformVector(t, 8)))
	}
	svc := New(&mockRepo{records: pool})

	opts, err := dommatch.NewOptions(similarity.WeightedEuclidean, 3, 5, false, 0)
	if err != nil {
		t.Fatalf("NewOptions: %v", err)
	}
	results, err := svc.FindNeighbors(context.Background(), uniformVector(t, 8), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 5 {
		t.Errorf("expected max results cap of 5, got %d", len(results))
	}
}

func TestFindNeighbors_DiversityKeepsBestMatch(t *testing.T) {
	pool := clusteredPool(t)
	svc := New(&mockRepo{records: pool})

	opts, err := dommatch.NewOptions(similarity.WeightedEuclidean, 3, 3, false, 0.7)
	if err != nil {
		t.Fatalf("NewOptions: %v", err)
	}
	target := uniformVector(t, 8)
	results, err := svc.FindNeighbors(context.Background(), target, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	plain, err := dommatch.NewOptions(similarity.WeightedEuclidean, 3, 3, false, 0)
	if err != nil {
		t.Fatalf("NewOptions: %v", err)
	}
	baseline, err := svc.FindNeighbors(context.Background(), target, plain)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Profile().ID() != baseline[0].Profile().ID() {
		t.Errorf("diversity re-ranking must not displace the best match: got %s, want %s",
			results[0].Profile().ID(), baseline[0].Profile().ID())
	}
}

func TestFindNeighbors_AlternateMetric(t *testing.T) {
	pool := []domprofile.Record{makeRecord(t, "twin", uniformVector(t, 8))}
	svc := New(&mockRepo{records: pool})

	opts, err := dommatch.NewOptions(similarity.Cosine, 1, 5, false, 0)
	if err != nil {
		t.Fatalf("NewOptions: %v", err)
	}
	results, err := svc.FindNeighbors(context.Background(), uniformVector(t, 8), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].BaseSimilarity() < 0.999 {
		t.Errorf("identical vectors should score ~1 under cosine, got %f", results[0].BaseSimilarity())
	}
}

func TestFindNeighbors_CustomThresholds(t *testing.T) {
	pool := []domprofile.Record{makeRecord(t, "far", uniformVector(t, 2))}
	svc := New(&mockRepo{records: pool}).WithThresholds(Thresholds{Start: 0.5, Step: 0.1, Floor: 0.5})

	results, err := svc.FindNeighbors(context.Background(), uniformVector(t, 8), defaultOptions(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("raised floor should exclude the far profile, got %d results", len(results))
	}
}

func TestClassify_Passthrough(t *testing.T) {
	svc := New(&mockRepo{})

	target := vector.MustNew(map[vector.Dimension]float64{
		vector.Skill: 8, vector.Social: 4, vector.Tradition: 9,
		vector.Luxury: 6, vector.Competitive: 8, vector.Amenity: 5, vector.Pace: 8,
	})
	m := svc.Classify(context.Background(), target)
	if m.Name != "traditional_serious" {
		t.Errorf("expected traditional_serious, got %s", m.Name)
	}
	if m.Confidence != 1.0 {
		t.Errorf("expected full confidence, got %f", m.Confidence)
	}
}
