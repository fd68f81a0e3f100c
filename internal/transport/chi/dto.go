package chi

import (
	"encoding/json"
	"time"

	domalg "github.com/linksmith/matchlab/internal/domain/algorithm"
	"github.com/linksmith/matchlab/internal/domain/archetype"
	domexp "github.com/linksmith/matchlab/internal/domain/experiment"
	dommatch "github.com/linksmith/matchlab/internal/domain/match"
	domprofile "github.com/linksmith/matchlab/internal/domain/profile"
	"github.com/linksmith/matchlab/internal/domain/vector"
	experimentuc "github.com/linksmith/matchlab/internal/usecase/experiment"
	segmentuc "github.com/linksmith/matchlab/internal/usecase/segment"
)

// errorCode identifies an API error category.
type errorCode string

const (
	codeBadRequest         errorCode = "bad_request"
	codeValidationFailed   errorCode = "validation_failed"
	codeNotFound           errorCode = "not_found"
	codeAlreadyExists      errorCode = "already_exists"
	codeVersionNotFound    errorCode = "version_not_found"
	codeTestNotFound       errorCode = "test_not_found"
	codeTestAlreadyRunning errorCode = "test_already_running"
	codePoolTooSmall       errorCode = "pool_too_small"
	codeUnknownRole        errorCode = "unknown_role"
	codeUnknownMetric      errorCode = "unknown_metric"
	codeInternalError      errorCode = "internal_error"
)

// errorResponse is the uniform error body.
type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// vectorPayload carries a feature vector over the wire.
type vectorPayload struct {
	Values     map[string]float64 `json:"values"`
	StyleVotes []string           `json:"style_votes,omitempty"`
}

func (p vectorPayload) toDomain() (vector.Vector, error) {
	values := make(map[vector.Dimension]float64, len(p.Values))
	for k, v := range p.Values {
		values[vector.Dimension(k)] = v
	}
	return vector.New(values, p.StyleVotes)
}

func vectorToPayload(v vector.Vector) vectorPayload {
	values := make(map[string]float64, len(v.Values()))
	for d, val := range v.Values() {
		values[string(d)] = val
	}
	return vectorPayload{Values: values, StyleVotes: v.StyleVotes()}
}

// --- matching ---

type neighborsRequest struct {
	Vector            vectorPayload `json:"vector"`
	Metric            string        `json:"metric,omitempty"`
	MinResults        int           `json:"min_results,omitempty"`
	MaxResults        int           `json:"max_results,omitempty"`
	UseArchetypeBonus bool          `json:"use_archetype_bonus,omitempty"`
	DiversityFactor   float64       `json:"diversity_factor,omitempty"`
}

type matchItem struct {
	Profile         profileItem `json:"profile"`
	BaseSimilarity  float64     `json:"base_similarity"`
	ArchetypeBonus  float64     `json:"archetype_bonus"`
	FinalSimilarity float64     `json:"final_similarity"`
	Archetype       string      `json:"archetype"`
}

type neighborsResponse struct {
	Results []matchItem `json:"results"`
}

func matchToItem(r dommatch.Result) matchItem {
	return matchItem{
		Profile:         profileToItem(r.Profile()),
		BaseSimilarity:  r.BaseSimilarity(),
		ArchetypeBonus:  r.ArchetypeBonus(),
		FinalSimilarity: r.FinalSimilarity(),
		Archetype:       r.Archetype(),
	}
}

type classifyRequest struct {
	Vector vectorPayload `json:"vector"`
}

type classifyResponse struct {
	Archetype  string  `json:"archetype"`
	Confidence float64 `json:"confidence"`
}

func matchFromArchetype(m archetype.Match) classifyResponse {
	return classifyResponse{Archetype: m.Name, Confidence: m.Confidence}
}

// --- profiles ---

type createProfileRequest struct {
	SessionID string        `json:"session_id"`
	Vector    vectorPayload `json:"vector"`
}

type profileItem struct {
	ID                  string        `json:"id"`
	SessionID           string        `json:"session_id"`
	Vector              vectorPayload `json:"vector"`
	RecordedAt          time.Time     `json:"recorded_at"`
	Archetype           string        `json:"archetype"`
	ArchetypeConfidence float64       `json:"archetype_confidence"`
}

type profileListResponse struct {
	Profiles []profileItem `json:"profiles"`
}

func profileToItem(rec domprofile.Record) profileItem {
	return profileItem{
		ID:                  rec.ID(),
		SessionID:           rec.SessionID(),
		Vector:              vectorToPayload(rec.Vector()),
		RecordedAt:          rec.RecordedAt(),
		Archetype:           rec.Archetype(),
		ArchetypeConfidence: rec.ArchetypeConfidence(),
	}
}

// --- segmentation ---

type segmentRequest struct {
	K int `json:"k"`
}

type segmentItem struct {
	Centroid          vectorPayload `json:"centroid"`
	Size              int           `json:"size"`
	Sessions          []string      `json:"sessions"`
	DominantArchetype string        `json:"dominant_archetype,omitempty"`
}

type segmentResponse struct {
	Segments   []segmentItem `json:"segments"`
	Iterations int           `json:"iterations"`
	PoolSize   int           `json:"pool_size"`
}

func analysisToResponse(a segmentuc.Analysis) segmentResponse {
	items := make([]segmentItem, len(a.Segments))
	for i, s := range a.Segments {
		items[i] = segmentItem{
			Centroid:          vectorToPayload(s.Centroid),
			Size:              s.Size,
			Sessions:          s.Sessions,
			DominantArchetype: s.DominantArchetype,
		}
	}
	return segmentResponse{Segments: items, Iterations: a.Iterations, PoolSize: a.PoolSize}
}

// --- algorithm registry ---

type createVersionRequest struct {
	Version string          `json:"version"`
	Config  json.RawMessage `json:"config"`
}

type versionItem struct {
	Role      string          `json:"role"`
	Version   string          `json:"version"`
	Config    json.RawMessage `json:"config,omitempty"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at,omitzero"`
}

type versionListResponse struct {
	Versions []versionItem `json:"versions"`
}

func versionToItem(v domalg.Version) versionItem {
	return versionItem{
		Role:      v.Role().String(),
		Version:   v.Name(),
		Config:    v.Config(),
		Active:    v.Active(),
		CreatedAt: v.CreatedAt(),
	}
}

// --- experiments ---

type resolveRequest struct {
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
}

type resolveResponse struct {
	SessionID  string    `json:"session_id"`
	Role       string    `json:"role"`
	Version    string    `json:"version"`
	TestID     string    `json:"test_id,omitempty"`
	Source     string    `json:"source"`
	AssignedAt time.Time `json:"assigned_at,omitzero"`
}

func resolutionToResponse(r experimentuc.Resolution) resolveResponse {
	return resolveResponse{
		SessionID:  r.Assignment.SessionID,
		Role:       r.Assignment.Role.String(),
		Version:    r.Assignment.Version,
		TestID:     r.Assignment.TestID,
		Source:     r.Source,
		AssignedAt: r.Assignment.AssignedAt,
	}
}

type performanceRequest struct {
	Role       string  `json:"role"`
	Version    string  `json:"version"`
	Metric     string  `json:"metric"`
	Value      float64 `json:"value"`
	SampleSize int     `json:"sample_size"`
}

type createTestRequest struct {
	Role           string   `json:"role"`
	VersionA       string   `json:"version_a"`
	VersionB       string   `json:"version_b"`
	TrafficSplit   float64  `json:"traffic_split"`
	SuccessMetrics []string `json:"success_metrics"`
}

type testItem struct {
	ID             string    `json:"id"`
	Role           string    `json:"role"`
	VersionA       string    `json:"version_a"`
	VersionB       string    `json:"version_b"`
	TrafficSplit   float64   `json:"traffic_split"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date,omitzero"`
	Status         string    `json:"status"`
	SuccessMetrics []string  `json:"success_metrics"`
}

func testToItem(t domexp.Test) testItem {
	return testItem{
		ID:             t.ID(),
		Role:           t.Role().String(),
		VersionA:       t.VersionA(),
		VersionB:       t.VersionB(),
		TrafficSplit:   t.TrafficSplit(),
		StartDate:      t.StartDate(),
		EndDate:        t.EndDate(),
		Status:         string(t.Status()),
		SuccessMetrics: t.SuccessMetrics(),
	}
}

type verdictResponse struct {
	Outcome string  `json:"outcome"`
	Metric  string  `json:"metric"`
	MeanA   float64 `json:"mean_a"`
	MeanB   float64 `json:"mean_b"`
	Reason  string  `json:"reason"`
}

func verdictToResponse(v domexp.Verdict) verdictResponse {
	return verdictResponse{
		Outcome: string(v.Outcome),
		Metric:  v.Metric,
		MeanA:   v.MeanA,
		MeanB:   v.MeanB,
		Reason:  v.Reason,
	}
}

// --- health ---

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
