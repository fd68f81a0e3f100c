package algorithm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	domalg "github.com/linksmith/matchlab/internal/domain/algorithm"
)

// versionToHash converts a domain Version to a map for HSET.
func versionToHash(v domalg.Version) map[string]string {
	active := "0"
	if v.Active() {
		active = "1"
	}
	return map[string]string{
		"role":        string(v.Role()),
		"version":     v.Name(),
		"config_json": string(v.Config()),
		"active":      active,
		"created_at":  strconv.FormatInt(v.CreatedAt().UnixMilli(), 10),
	}
}

// versionFromHash hydrates a domain Version from an HGETALL result map.
func versionFromHash(m map[string]string) (domalg.Version, error) {
	createdAt, err := strconv.ParseInt(m["created_at"], 10, 64)
	if err != nil {
		return domalg.Version{}, fmt.Errorf("invalid created_at: %w", err)
	}

	var cfg json.RawMessage
	if m["config_json"] != "" {
		cfg = json.RawMessage(m["config_json"])
	}

	return domalg.Reconstruct(
		domalg.Role(m["role"]), m["version"], cfg,
		m["active"] == "1", time.UnixMilli(createdAt).UTC(),
	), nil
}
