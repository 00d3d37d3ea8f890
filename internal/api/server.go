// Package api exposes the route session over a small local HTTP control API.
// A chi router enforces cross-cutting concerns (panic recovery, request IDs,
// logging, CORS, compression) before requests reach the session handlers.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/gzhttp"

	"searoute/internal/session"
	"searoute/internal/types"
)

// defaultRequestTimeout bounds a single API request. Route creation against
// the remote service can take tens of seconds.
const defaultRequestTimeout = 90 * time.Second

// SessionController is the subset of *session.Controller the API drives.
type SessionController interface {
	Snapshot() session.Snapshot
	SelectPoint(point types.Coordinate)
	SetGridStep(step types.GridStep) error
	SetMonitoring(enabled bool)
	CreateRoute(ctx context.Context, start, end types.Coordinate, step types.GridStep) error
	CreateRouteWithStoredStep(ctx context.Context, start, end types.Coordinate) error
	ComputeRoute(ctx context.Context) error
	ForceUpdate(ctx context.Context) error
	ClearRoute(ctx context.Context) error
	PredictAt(ctx context.Context, point types.Coordinate) (*types.Prediction, error)
	RefreshSystemStatus(ctx context.Context) error
}

var _ SessionController = (*session.Controller)(nil)

// Options configures the Server.
type Options struct {
	CorsAllowedOrigins []string
	RequestTimeout     time.Duration
	Version            string
	HealthProbes       []HealthProbe
}

// Server encapsulates the dependencies of the control API.
type Server struct {
	Session      SessionController
	Logger       *slog.Logger
	HealthProbes []HealthProbe

	opts   Options
	router *chi.Mux
}

// NewServer builds a Server with all routes mounted.
func NewServer(ctrl SessionController, opts Options, logger *slog.Logger) (*Server, error) {
	if ctrl == nil {
		return nil, fmt.Errorf("session controller must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if len(opts.CorsAllowedOrigins) == 0 {
		opts.CorsAllowedOrigins = []string{"*"}
	}

	s := &Server{
		Session:      ctrl,
		Logger:       logger,
		HealthProbes: opts.HealthProbes,
		opts:         opts,
		router:       chi.NewRouter(),
	}
	s.mountRoutes()
	return s, nil
}

// Handler returns the router wrapped in gzip compression. Snapshots carry
// full path histories and compress well.
func (s *Server) Handler() http.Handler {
	return gzhttp.GzipHandler(s.router)
}

// Router returns the underlying chi.Mux.
func (s *Server) Router() *chi.Mux {
	return s.router
}
