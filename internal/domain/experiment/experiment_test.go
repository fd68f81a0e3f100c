package experiment

import (
	"testing"

	"github.com/linksmith/matchlab/internal/domain/algorithm"
)

func TestNewTest_Valid(t *testing.T) {
	tt, err := NewTest(algorithm.Scoring, "v1", "v2", 0.5, []string{"match_accuracy", "retention"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tt.ID() == "" {
		t.Error("expected generated id")
	}
	if tt.Status() != Running {
		t.Errorf("new test must be running, got %s", tt.Status())
	}
	if tt.StartDate().IsZero() {
		t.Error("expected start date")
	}
	if !tt.EndDate().IsZero() {
		t.Error("running test must have no end date")
	}
	if got := tt.SuccessMetrics(); len(got) != 2 || got[0] != "match_accuracy" {
		t.Errorf("SuccessMetrics() = %v", got)
	}
}

func TestNewTest_Invalid(t *testing.T) {
	cases := []struct {
		name    string
		role    algorithm.Role
		a, b    string
		split   float64
		metrics []string
	}{
		{"unknown role", "bogus", "v1", "v2", 0.5, []string{"m"}},
		{"missing version", algorithm.Scoring, "", "v2", 0.5, []string{"m"}},
		{"equal versions", algorithm.Scoring, "v1", "v1", 0.5, []string{"m"}},
		{"negative split", algorithm.Scoring, "v1", "v2", -0.1, []string{"m"}},
		{"split above one", algorithm.Scoring, "v1", "v2", 1.1, []string{"m"}},
		{"no metrics", algorithm.Scoring, "v1", "v2", 0.5, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewTest(tc.role, tc.a, tc.b, tc.split, tc.metrics); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestTest_Complete(t *testing.T) {
	tt, err := NewTest(algorithm.Similarity, "v1", "v2", 0.5, []string{"m"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := tt.Complete()
	if done.Status() != Completed {
		t.Errorf("expected completed, got %s", done.Status())
	}
	if done.EndDate().IsZero() {
		t.Error("completed test must carry an end date")
	}
	if tt.Status() != Running {
		t.Error("Complete must not mutate the original value")
	}
}

func TestTest_SuccessMetricsCopy(t *testing.T) {
	tt, err := NewTest(algorithm.Scoring, "v1", "v2", 0.5, []string{"m1", "m2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tt.SuccessMetrics()[0] = "mutated"
	if tt.SuccessMetrics()[0] != "m1" {
		t.Error("SuccessMetrics must return a copy")
	}
}
