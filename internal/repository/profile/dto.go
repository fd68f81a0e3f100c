package profile

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	domprofile "github.com/linksmith/matchlab/internal/domain/profile"
	"github.com/linksmith/matchlab/internal/domain/vector"
)

// profileToHash converts a domain Record to a map for HSET.
func profileToHash(rec domprofile.Record) (map[string]string, error) {
	vec, err := json.Marshal(rec.Vector().Values())
	if err != nil {
		return nil, fmt.Errorf("marshal vector: %w", err)
	}
	votes, err := json.Marshal(rec.Vector().StyleVotes())
	if err != nil {
		return nil, fmt.Errorf("marshal style votes: %w", err)
	}
	return map[string]string{
		"id":                   rec.ID(),
		"session_id":           rec.SessionID(),
		"vector_json":          string(vec),
		"style_votes_json":     string(votes),
		"recorded_at":          strconv.FormatInt(rec.RecordedAt().UnixMilli(), 10),
		"archetype":            rec.Archetype(),
		"archetype_confidence": strconv.FormatFloat(rec.ArchetypeConfidence(), 'f', -1, 64),
	}, nil
}

// profileFromHash hydrates a domain Record from an HGETALL result map.
func profileFromHash(m map[string]string) (domprofile.Record, error) {
	recordedAt, err := strconv.ParseInt(m["recorded_at"], 10, 64)
	if err != nil {
		return domprofile.Record{}, fmt.Errorf("invalid recorded_at: %w", err)
	}

	var values map[vector.Dimension]float64
	if m["vector_json"] != "" {
		if err := json.Unmarshal([]byte(m["vector_json"]), &values); err != nil {
			return domprofile.Record{}, fmt.Errorf("unmarshal vector: %w", err)
		}
	}
	var votes []string
	if m["style_votes_json"] != "" {
		if err := json.Unmarshal([]byte(m["style_votes_json"]), &votes); err != nil {
			return domprofile.Record{}, fmt.Errorf("unmarshal style votes: %w", err)
		}
	}

	vec, err := vector.New(values, votes)
	if err != nil {
		return domprofile.Record{}, fmt.Errorf("rebuild vector: %w", err)
	}

	confidence, _ := strconv.ParseFloat(m["archetype_confidence"], 64)

	return domprofile.Reconstruct(
		m["id"], m["session_id"], vec,
		time.UnixMilli(recordedAt).UTC(), m["archetype"], confidence,
	), nil
}
