// Package chi exposes the engine over HTTP using the chi router.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/linksmith/matchlab/internal/domain"
	domalg "github.com/linksmith/matchlab/internal/domain/algorithm"
	dommatch "github.com/linksmith/matchlab/internal/domain/match"
	"github.com/linksmith/matchlab/internal/domain/similarity"
	profilerepo "github.com/linksmith/matchlab/internal/repository/profile"
	experimentuc "github.com/linksmith/matchlab/internal/usecase/experiment"
	healthuc "github.com/linksmith/matchlab/internal/usecase/health"
	matchuc "github.com/linksmith/matchlab/internal/usecase/match"
	profileuc "github.com/linksmith/matchlab/internal/usecase/profile"
	registryuc "github.com/linksmith/matchlab/internal/usecase/registry"
	segmentuc "github.com/linksmith/matchlab/internal/usecase/segment"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the usecase services behind the HTTP API.
type Server struct {
	match         *matchuc.Service
	profiles      *profileuc.Service
	segments      *segmentuc.Service
	registry      *registryuc.Service
	experiments   *experimentuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	match *matchuc.Service,
	profiles *profileuc.Service,
	segments *segmentuc.Service,
	registry *registryuc.Service,
	experiments *experimentuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		match:       match,
		profiles:    profiles,
		segments:    segments,
		registry:    registry,
		experiments: experiments,
		health:      health,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrVersionNotFound, http.StatusNotFound, codeVersionNotFound),
		sentinelHandler(domain.ErrTestNotFound, http.StatusNotFound, codeTestNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, codeAlreadyExists),
		sentinelHandler(domain.ErrTestAlreadyRunning, http.StatusConflict, codeTestAlreadyRunning),
		sentinelHandler(domain.ErrUnknownRole, http.StatusBadRequest, codeUnknownRole),
		sentinelHandler(domain.ErrUnknownMetric, http.StatusBadRequest, codeUnknownMetric),
		sentinelHandler(domain.ErrUnknownDimension, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidDefinition, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrPoolTooSmall, http.StatusBadRequest, codePoolTooSmall),
	}
	return s
}

// Routes registers every API endpoint on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.GetHealth)
	r.Get("/metrics", s.GetMetrics)

	r.Post("/match/neighbors", s.FindNeighbors)
	r.Post("/match/classify", s.ClassifyVector)
	r.Post("/match/segments", s.SegmentPopulation)

	r.Post("/profiles", s.CreateProfile)
	r.Get("/profiles", s.ListProfiles)
	r.Get("/profiles/{id}", s.GetProfile)

	r.Post("/algorithms/{role}/versions", s.CreateVersion)
	r.Get("/algorithms/{role}/versions", s.ListVersions)
	r.Get("/algorithms/{role}/active", s.GetActiveVersion)
	r.Post("/algorithms/{role}/versions/{version}/activate", s.ActivateVersion)

	r.Post("/experiments", s.CreateTest)
	r.Get("/experiments/{id}", s.GetTest)
	r.Post("/experiments/{id}/complete", s.CompleteTest)
	r.Get("/experiments/{id}/winner", s.GetWinner)
	r.Post("/experiments/resolve", s.ResolveAssignment)
	r.Post("/experiments/performance", s.TrackPerformance)
}

// FindNeighbors handles POST /match/neighbors.
func (s *Server) FindNeighbors(w http.ResponseWriter, r *http.Request) {
	var req neighborsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	target, err := req.Vector.toDomain()
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	metric, err := similarity.Parse(req.Metric)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	opts, err := dommatch.NewOptions(
		metric, req.MinResults, req.MaxResults, req.UseArchetypeBonus, req.DiversityFactor)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	results, err := s.match.FindNeighbors(r.Context(), target, opts)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]matchItem, len(results))
	for i, res := range results {
		items[i] = matchToItem(res)
	}
	writeJSON(w, http.StatusOK, neighborsResponse{Results: items})
}

// ClassifyVector handles POST /match/classify.
func (s *Server) ClassifyVector(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	target, err := req.Vector.toDomain()
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, matchFromArchetype(s.match.Classify(r.Context(), target)))
}

// SegmentPopulation handles POST /match/segments.
func (s *Server) SegmentPopulation(w http.ResponseWriter, r *http.Request) {
	var req segmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	analysis, err := s.segments.Segment(r.Context(), req.K)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysisToResponse(analysis))
}

// CreateProfile handles POST /profiles.
func (s *Server) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "session_id is required")
		return
	}

	vec, err := req.Vector.toDomain()
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	rec, err := s.profiles.Record(r.Context(), req.SessionID, vec)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, profileToItem(rec))
}

// ListProfiles handles GET /profiles. Supports limit and since query params.
func (s *Server) ListProfiles(w http.ResponseWriter, r *http.Request) {
	var filter profilerepo.Filter

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}
	if raw := r.URL.Query().Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "since must be an RFC 3339 timestamp")
			return
		}
		filter.MinRecordedAt = since
	}

	recs, err := s.profiles.List(r.Context(), filter)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]profileItem, len(recs))
	for i, rec := range recs {
		items[i] = profileToItem(rec)
	}
	writeJSON(w, http.StatusOK, profileListResponse{Profiles: items})
}

// GetProfile handles GET /profiles/{id}.
func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request) {
	rec, err := s.profiles.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profileToItem(rec))
}

// CreateVersion handles POST /algorithms/{role}/versions.
func (s *Server) CreateVersion(w http.ResponseWriter, r *http.Request) {
	role, err := domalg.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	var req createVersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	v, err := s.registry.CreateVersion(r.Context(), role, req.Version, req.Config)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, versionToItem(v))
}

// ListVersions handles GET /algorithms/{role}/versions.
func (s *Server) ListVersions(w http.ResponseWriter, r *http.Request) {
	role, err := domalg.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	versions, err := s.registry.ListVersions(r.Context(), role)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]versionItem, len(versions))
	for i, v := range versions {
		items[i] = versionToItem(v)
	}
	writeJSON(w, http.StatusOK, versionListResponse{Versions: items})
}

// GetActiveVersion handles GET /algorithms/{role}/active. Always resolves to
// a usable version, falling back down the ladder when storage misbehaves.
func (s *Server) GetActiveVersion(w http.ResponseWriter, r *http.Request) {
	role, err := domalg.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, versionToItem(s.registry.GetActive(r.Context(), role)))
}

// ActivateVersion handles POST /algorithms/{role}/versions/{version}/activate.
func (s *Server) ActivateVersion(w http.ResponseWriter, r *http.Request) {
	role, err := domalg.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	if err := s.registry.Activate(r.Context(), role, chi.URLParam(r, "version")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateTest handles POST /experiments.
func (s *Server) CreateTest(w http.ResponseWriter, r *http.Request) {
	var req createTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	role, err := domalg.ParseRole(req.Role)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	t, err := s.experiments.CreateTest(
		r.Context(), role, req.VersionA, req.VersionB, req.TrafficSplit, req.SuccessMetrics)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, testToItem(t))
}

// GetTest handles GET /experiments/{id}.
func (s *Server) GetTest(w http.ResponseWriter, r *http.Request) {
	t, err := s.experiments.GetTest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, testToItem(t))
}

// CompleteTest handles POST /experiments/{id}/complete.
func (s *Server) CompleteTest(w http.ResponseWriter, r *http.Request) {
	t, err := s.experiments.CompleteTest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, testToItem(t))
}

// GetWinner handles GET /experiments/{id}/winner.
func (s *Server) GetWinner(w http.ResponseWriter, r *http.Request) {
	verdict, err := s.experiments.Winner(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, verdictToResponse(verdict))
}

// ResolveAssignment handles POST /experiments/resolve.
func (s *Server) ResolveAssignment(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "session_id is required")
		return
	}

	role, err := domalg.ParseRole(req.Role)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	res, err := s.experiments.Resolve(r.Context(), req.SessionID, role)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resolutionToResponse(res))
}

// TrackPerformance handles POST /experiments/performance.
func (s *Server) TrackPerformance(w http.ResponseWriter, r *http.Request) {
	var req performanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	role, err := domalg.ParseRole(req.Role)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	err = s.experiments.TrackPerformance(
		r.Context(), role, req.Version, req.Metric, req.Value, req.SampleSize)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}

	checks := make(map[string]string, len(report.Checks))
	for name, result := range report.Checks {
		checks[name] = string(result)
	}
	writeJSON(w, status, healthResponse{Status: string(report.Status), Checks: checks})
}

// GetMetrics handles GET /metrics in Prometheus exposition format.
func (s *Server) GetMetrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
// Validation errors keep their full text: the detail is the point.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrValidation) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrAlreadyExists,
		domain.ErrVersionNotFound,
		domain.ErrTestNotFound,
		domain.ErrTestAlreadyRunning,
		domain.ErrUnknownRole,
		domain.ErrUnknownMetric,
		domain.ErrUnknownDimension,
		domain.ErrInvalidDefinition,
		domain.ErrPoolTooSmall,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
