// Package experiment defines A/B tests, sticky session assignments, and
// performance metric samples.
package experiment

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/linksmith/matchlab/internal/domain"
	"github.com/linksmith/matchlab/internal/domain/algorithm"
)

// Status is the lifecycle state of a test.
type Status string

const (
	// Running means the test is actively assigning sessions.
	Running Status = "running"
	// Completed means the test is closed to new assignments.
	Completed Status = "completed"
)

// Test is an A/B test over one algorithm role.
type Test struct {
	id             string
	role           algorithm.Role
	versionA       string
	versionB       string
	trafficSplit   float64
	startDate      time.Time
	endDate        time.Time
	status         Status
	successMetrics []string
}

// NewTest validates and creates a running Test. trafficSplit is the share
// of sessions assigned to version A. The first success metric is the
// primary one used by winner determination.
func NewTest(
	role algorithm.Role, versionA, versionB string,
	trafficSplit float64, successMetrics []string,
) (Test, error) {
	if _, err := algorithm.ParseRole(string(role)); err != nil {
		return Test{}, err
	}
	if versionA == "" || versionB == "" {
		return Test{}, fmt.Errorf("%w: both versions are required", domain.ErrValidation)
	}
	if versionA == versionB {
		return Test{}, fmt.Errorf("%w: versions must differ", domain.ErrValidation)
	}
	if trafficSplit < 0 || trafficSplit > 1 {
		return Test{}, fmt.Errorf("%w: traffic split must be in [0, 1], got %g", domain.ErrValidation, trafficSplit)
	}
	if len(successMetrics) == 0 {
		return Test{}, fmt.Errorf("%w: at least one success metric is required", domain.ErrValidation)
	}
	return Test{
		id:             uuid.NewString(),
		role:           role,
		versionA:       versionA,
		versionB:       versionB,
		trafficSplit:   trafficSplit,
		startDate:      time.Now().UTC(),
		status:         Running,
		successMetrics: successMetrics,
	}, nil
}

// ReconstructTest creates a Test without validation (storage hydration).
func ReconstructTest(
	id string, role algorithm.Role, versionA, versionB string,
	trafficSplit float64, startDate, endDate time.Time,
	status Status, successMetrics []string,
) Test {
	return Test{
		id: id, role: role, versionA: versionA, versionB: versionB,
		trafficSplit: trafficSplit, startDate: startDate, endDate: endDate,
		status: status, successMetrics: successMetrics,
	}
}

// ID returns the test identifier.
func (t Test) ID() string { return t.id }

// Role returns the algorithm role under test.
func (t Test) Role() algorithm.Role { return t.role }

// VersionA returns the control version name.
func (t Test) VersionA() string { return t.versionA }

// VersionB returns the challenger version name.
func (t Test) VersionB() string { return t.versionB }

// TrafficSplit returns the share of sessions routed to version A.
func (t Test) TrafficSplit() float64 { return t.trafficSplit }

// StartDate returns when the test started.
func (t Test) StartDate() time.Time { return t.startDate }

// EndDate returns when the test completed (zero while running).
func (t Test) EndDate() time.Time { return t.endDate }

// Status returns the lifecycle state.
func (t Test) Status() Status { return t.status }

// SuccessMetrics returns the declared success metric names; the first one
// is primary.
func (t Test) SuccessMetrics() []string {
	out := make([]string, len(t.successMetrics))
	copy(out, t.successMetrics)
	return out
}

// Complete returns a closed copy of the test.
func (t Test) Complete() Test {
	t.status = Completed
	t.endDate = time.Now().UTC()
	return t
}

// Assignment is a sticky (session, role) → version record. Written at most
// once; all later resolutions return it verbatim until explicitly cleared.
type Assignment struct {
	SessionID  string
	Role       algorithm.Role
	Version    string
	TestID     string
	AssignedAt time.Time
}

// Sample is one appended performance measurement. Samples are aggregated on
// read as a mean per (version, metric name).
type Sample struct {
	Role       algorithm.Role
	Version    string
	MetricName string
	Value      float64
	SampleSize int
	MeasuredOn time.Time
}
