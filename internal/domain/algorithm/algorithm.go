// Package algorithm defines versioned algorithm configuration records and
// the roles they are registered under.
package algorithm

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/linksmith/matchlab/internal/domain"
)

// Role names one of the interchangeable, independently versioned behaviors.
type Role string

const (
	// Scoring covers recommendation scoring configuration.
	Scoring Role = "scoring"
	// QuestionSelection covers quiz question-selection configuration.
	QuestionSelection Role = "question_selection"
	// Similarity covers similarity/matching configuration.
	Similarity Role = "similarity"
)

// Roles lists every known role.
var Roles = []Role{Scoring, QuestionSelection, Similarity}

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case Scoring, QuestionSelection, Similarity:
		return Role(s), nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownRole, s)
	}
}

func (r Role) String() string { return string(r) }

// Version is a named configuration record for one role.
type Version struct {
	role      Role
	version   string
	config    json.RawMessage
	active    bool
	createdAt time.Time
}

// NewVersion validates and creates a Version record.
func NewVersion(role Role, name string, config json.RawMessage) (Version, error) {
	if _, err := ParseRole(string(role)); err != nil {
		return Version{}, err
	}
	if name == "" {
		return Version{}, fmt.Errorf("%w: version name is required", domain.ErrValidation)
	}
	if len(config) > 0 && !json.Valid(config) {
		return Version{}, fmt.Errorf("%w: config blob must be valid JSON", domain.ErrValidation)
	}
	return Version{
		role:      role,
		version:   name,
		config:    config,
		createdAt: time.Now().UTC(),
	}, nil
}

// Reconstruct creates a Version without validation (storage hydration).
func Reconstruct(role Role, name string, config json.RawMessage, active bool, createdAt time.Time) Version {
	return Version{role: role, version: name, config: config, active: active, createdAt: createdAt}
}

// Role returns the algorithm role.
func (v Version) Role() Role { return v.role }

// Name returns the version name.
func (v Version) Name() string { return v.version }

// Config returns the configuration blob.
func (v Version) Config() json.RawMessage { return v.config }

// Active reports whether this is the active version of its role.
func (v Version) Active() bool { return v.active }

// CreatedAt returns the creation timestamp.
func (v Version) CreatedAt() time.Time { return v.createdAt }

// Fallback returns the hard-coded versionless configuration for a role.
// Served whenever storage is unavailable so callers never block on registry
// availability; a stale default beats a failed request.
func Fallback(role Role) Version {
	var cfg json.RawMessage
	switch role {
	case Scoring:
		cfg = json.RawMessage(`{"dimension_weighting":"standard","feedback_boost":0.1}`)
	case QuestionSelection:
		cfg = json.RawMessage(`{"strategy":"adaptive","max_questions":12}`)
	case Similarity:
		cfg = json.RawMessage(`{"metric":"weighted_euclidean","archetype_bonus":true}`)
	}
	return Version{role: role, version: "fallback", config: cfg}
}
