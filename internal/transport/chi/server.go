package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/recollect/internal/domain"
	"github.com/kailas-cloud/recollect/internal/domain/search/request"
	"github.com/kailas-cloud/recollect/internal/logger"
	healthuc "github.com/kailas-cloud/recollect/internal/usecase/health"
)

// maxBodyBytes bounds the search request body.
const maxBodyBytes = 64 << 10

// Error codes returned in the JSON error body.
const (
	codeBadRequest       = "bad_request"
	codeInvalidRequest   = "invalid_request"
	codeUnknownMode      = "unknown_mode"
	codeUnknownProvider  = "unknown_provider"
	codeMethodNotAllowed = "method_not_allowed"
	codeNotFound         = "not_found"
	codeUnauthorized     = "unauthorized"
	codeInternalError    = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the search API.
type Server struct {
	search         SearchHandler
	health         HealthReporter
	requestTimeout time.Duration
	errorHandlers  []errorHandler
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithRequestTimeout bounds each search; sub-calls still running at the
// deadline are cancelled and the response is built from what finished.
func WithRequestTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.requestTimeout = d }
}

// NewServer creates an HTTP API server.
// Handlers log through the request-scoped logger placed by the router.
func NewServer(search SearchHandler, health HealthReporter, opts ...ServerOption) *Server {
	s := &Server{
		search: search,
		health: health,
	}
	for _, opt := range opts {
		opt(s)
	}
	// Most specific sentinel first.
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrUnknownMode, http.StatusBadRequest, codeUnknownMode),
		sentinelHandler(domain.ErrUnknownProvider, http.StatusBadRequest, codeUnknownProvider),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, codeInvalidRequest),
	}
	return s
}

// Search handles POST /api/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var body searchRequestBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	m, p := body.modeAndProvider()
	req, err := request.New(body.UserQuery, m, p)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx := logger.With(r.Context(),
		zap.String("mode", string(req.Mode())),
		zap.String("provider", string(req.Provider())),
	)
	ctx, usage := domain.NewContextWithUsage(ctx)
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	resp, err := s.search.Handle(ctx, &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, searchResponseFromDomain(&resp))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// MethodNotAllowed answers a known route hit with the wrong verb.
func (s *Server) MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
}

// NotFound answers an unknown route.
func (s *Server) NotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, codeNotFound, "not found")
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.LLMUsage) {
	if usage != nil && usage.Calls() > 0 {
		w.Header().Set("X-LLM-Calls", strconv.Itoa(usage.Calls()))
		w.Header().Set("X-LLM-Tokens", strconv.Itoa(usage.TotalTokens()))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:  code,
		Error: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrUnknownMode,
		domain.ErrUnknownProvider,
		domain.ErrInvalidRequest,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			log.Warn("Rejected request", zap.Error(err))
			return
		}
	}
	log.Error("Internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
