package chi

import (
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/recollect/internal/metrics"
)

// Route paths.
const (
	SearchPath        = "/api/search"
	NetlifySearchPath = "/.netlify/functions/search"
	HealthPath        = "/health"
	MetricsPath       = "/metrics"
)

// RouterConfig holds router-level settings.
type RouterConfig struct {
	APIKeys []string
	Logger  *zap.Logger
}

// NewRouter wires the middleware stack and the API routes.
func NewRouter(s *Server, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gochi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(BearerAuthMiddleware(cfg.APIKeys))
	r.Use(metrics.Middleware(MetricsPath))

	r.NotFound(s.NotFound)
	r.MethodNotAllowed(s.MethodNotAllowed)

	r.Post(SearchPath, s.Search)
	// Legacy path the static web page posts to.
	r.Post(NetlifySearchPath, s.Search)
	r.Get(HealthPath, s.HealthCheck)
	r.Get(MetricsPath, s.Metrics)

	return r
}
