// Package service exposes CURIE resolution over HTTP with Prometheus
// metrics, optional NATS resolution events, and live snapshot reloads.
package service

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/semcite/resolver"
)

// ResolveResponse is the JSON response for GET /resolve.
type ResolveResponse struct {
	Curie     string `json:"curie"`
	Prefix    string `json:"prefix"`
	Accession string `json:"accession"`
	URL       string `json:"url"`
}

// InspectResponse is the JSON response for GET /inspect.
type InspectResponse struct {
	Curie  string `json:"curie"`
	URL    string `json:"url,omitempty"`
	Report string `json:"report,omitempty"`
}

// HealthResponse is the JSON response for GET /healthz.
type HealthResponse struct {
	Status   string `json:"status"`
	Prefixes int    `json:"prefixes"`
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Server handles HTTP requests for CURIE resolution. The underlying
// resolver handler is swappable at runtime so a snapshot watcher can
// publish a rebuilt index without restarting the server.
type Server struct {
	handler atomic.Pointer[resolver.Handler]
	logger  *slog.Logger
	metrics *Metrics
	events  *EventPublisher
}

// NewServer creates an HTTP server around a resolver handler. metrics
// and events may be nil.
func NewServer(h *resolver.Handler, metrics *Metrics, events *EventPublisher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		logger:  logger,
		metrics: metrics,
		events:  events,
	}
	s.handler.Store(h)
	return s
}

// Swap replaces the resolver handler. In-flight requests keep the
// handler they loaded.
func (s *Server) Swap(h *resolver.Handler) {
	s.handler.Store(h)
	s.logger.Info("Resolver handler swapped", "prefixes", h.Index().Len())
}

// Handler returns the current resolver handler.
func (s *Server) Handler() *resolver.Handler {
	return s.handler.Load()
}

// RegisterHTTPHandlers registers the resolution endpoints on mux.
func (s *Server) RegisterHTTPHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/resolve", s.handleResolve)
	mux.HandleFunc("/inspect", s.handleInspect)
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.HTTPHandler())
	}
}

// handleResolve handles GET /resolve?curie=prefix:accession.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	reqID := uuid.NewString()
	curie := r.URL.Query().Get("curie")
	if curie == "" {
		writeJSONError(w, http.StatusBadRequest, "curie_required", "Query parameter curie is required")
		return
	}

	start := time.Now()
	resolved, err := s.Handler().Resolve(curie)
	elapsed := time.Since(start)
	s.observe("resolve", err, elapsed)

	if err != nil {
		status, code := classifyResolveError(err)
		s.logger.Warn("Resolution failed",
			"request_id", reqID,
			"curie", curie,
			"code", code)
		writeJSONError(w, status, code, err.Error())
		return
	}

	parsed, _ := resolver.ParseCurie(curie)
	s.logger.Debug("Resolved",
		"request_id", reqID,
		"curie", curie,
		"url", resolved,
		"duration", elapsed)

	s.events.PublishResolution(r.Context(), curie, resolved)
	writeJSON(w, http.StatusOK, ResolveResponse{
		Curie:     curie,
		Prefix:    parsed.Prefix,
		Accession: parsed.Accession,
		URL:       resolved,
	})
}

// handleInspect handles GET /inspect?curie=prefix:accession. The
// response mirrors the resolver's advisory contract: the report covers
// pattern mismatches only, so a malformed curie or unknown prefix
// yields an empty report and an empty URL, never an error status.
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	curie := r.URL.Query().Get("curie")
	if curie == "" {
		writeJSONError(w, http.StatusBadRequest, "curie_required", "Query parameter curie is required")
		return
	}

	resp := InspectResponse{
		Curie:  curie,
		Report: s.Handler().Inspect(curie),
	}
	// The URL is informational; a curie that does not resolve simply
	// leaves it empty.
	if url, err := s.Handler().Resolve(curie); err == nil {
		resp.URL = url
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Prefixes: s.Handler().Index().Len(),
	})
}

// observe records one resolution outcome if metrics are enabled.
func (s *Server) observe(op string, err error, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		_, outcome = classifyResolveError(err)
	}
	s.metrics.ObserveResolution(op, outcome, elapsed)
}

// classifyResolveError maps resolver errors onto HTTP status codes and
// stable error codes.
func classifyResolveError(err error) (int, string) {
	switch {
	case errors.Is(err, resolver.ErrMalformedCurie):
		return http.StatusBadRequest, "malformed_curie"
	case errors.Is(err, resolver.ErrUnknownPrefix):
		return http.StatusNotFound, "unknown_prefix"
	case errors.Is(err, resolver.ErrUnresolvable):
		return http.StatusUnprocessableEntity, "unresolvable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, errorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}
