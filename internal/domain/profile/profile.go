// Package profile defines the recorded preference profile referenced by
// neighbor search. Records are append-only and owned by storage; the core
// only reads them during a search.
package profile

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/linksmith/matchlab/internal/domain"
	"github.com/linksmith/matchlab/internal/domain/vector"
)

// Record is an immutable profile snapshot created once per completed quiz
// session.
type Record struct {
	id         string
	sessionID  string
	vec        vector.Vector
	recordedAt time.Time
	archetype  string
	confidence float64
}

// New validates and creates a Record.
func New(sessionID string, vec vector.Vector, archetype string, confidence float64) (Record, error) {
	if sessionID == "" {
		return Record{}, fmt.Errorf("%w: session id is required", domain.ErrValidation)
	}
	return Record{
		id:         uuid.NewString(),
		sessionID:  sessionID,
		vec:        vec,
		recordedAt: time.Now().UTC(),
		archetype:  archetype,
		confidence: confidence,
	}, nil
}

// Reconstruct creates a Record without validation (storage hydration).
func Reconstruct(
	id, sessionID string, vec vector.Vector,
	recordedAt time.Time, archetype string, confidence float64,
) Record {
	return Record{
		id: id, sessionID: sessionID, vec: vec,
		recordedAt: recordedAt, archetype: archetype, confidence: confidence,
	}
}

// ID returns the profile identifier.
func (r Record) ID() string { return r.id }

// SessionID returns the quiz session that produced this profile.
func (r Record) SessionID() string { return r.sessionID }

// Vector returns the feature vector.
func (r Record) Vector() vector.Vector { return r.vec }

// RecordedAt returns when the profile was recorded.
func (r Record) RecordedAt() time.Time { return r.recordedAt }

// Archetype returns the archetype derived at recording time.
func (r Record) Archetype() string { return r.archetype }

// ArchetypeConfidence returns the confidence of the derived archetype.
func (r Record) ArchetypeConfidence() float64 { return r.confidence }
