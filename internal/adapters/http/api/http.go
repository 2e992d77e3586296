// Package api exposes the rider search service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/okian/cyclingdb/internal/adapters/http/swagger"
	service "github.com/okian/cyclingdb/internal/app"
	"github.com/okian/cyclingdb/internal/domain/query"
	"github.com/okian/cyclingdb/internal/domain/stats"
	"github.com/okian/cyclingdb/internal/domain/table"
	"github.com/okian/cyclingdb/pkg/logger"
)

// DefaultRequestTimeout bounds every request unless WithRequestTimeout says otherwise.
const DefaultRequestTimeout = 60 * time.Second

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	StatsProvider

	Table(ctx context.Context) (*table.Table, error)
	Search(ctx context.Context, req service.Request) (service.Result, error)
	Summary(ctx context.Context, c query.Criteria) (filtered, overall stats.Summary, err error)
	Options(ctx context.Context) (stats.FilterOptions, error)
	Export(ctx context.Context, req service.Request, w io.Writer) (int, error)
}

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// Server wires HTTP routes for the rider API.
type Server struct {
	deps    Dependencies
	timeout time.Duration
	logger  logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithRequestTimeout bounds every request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{deps: deps, timeout: DefaultRequestTimeout}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("api")
	}
	return s
}

// Handler returns a router with every route registered.
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	s.Register(ctx, r)
	return r
}

// Register attaches middleware and all HTTP routes to r.
func (s *Server) Register(ctx context.Context, r chi.Router) {
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.Get("/healthz", MetricsMiddleware(s.handleHealth, "healthz"))
	r.Get("/readyz", MetricsMiddleware(s.handleReady, "readyz"))
	r.Get("/metrics", MetricsMiddleware(s.handleMetrics, "metrics"))
	r.Get("/status", MetricsMiddleware(s.handleStatus, "status"))

	r.Get("/riders", MetricsMiddleware(s.handleRiders, "riders"))
	r.Get("/riders/export", MetricsMiddleware(s.handleExport, "export"))
	r.Get("/stats", MetricsMiddleware(s.handleStats, "stats"))
	r.Get("/filters", MetricsMiddleware(s.handleFilters, "filters"))

	swagger.Register(ctx, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError logs err and writes its JSON error body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, retryable := classify(err)
	fields := []logger.Field{
		logger.String("path", r.URL.Path),
		logger.Int("status", status),
		logger.String("code", code),
		logger.Error(err),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", fields...)
	} else {
		s.logger.Debug(r.Context(), "request rejected", fields...)
	}
	if retryable {
		w.Header().Set("Retry-After", "5")
	}
	writeJSON(w, status, errorResponse{Code: code, Message: err.Error(), Retryable: retryable})
}
