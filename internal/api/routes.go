package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"searoute/internal/types"
)

// mountRoutes registers the middleware chain and all endpoints.
//
// Middleware order:
//  1. Recoverer       - outermost, catches panics anywhere below.
//  2. ContextTimeout  - bounds each request.
//  3. RequestID       - generates/propagates the correlation ID.
//  4. SecurityHeaders
//  5. RequestLogger
//  6. CORS
func (s *Server) mountRoutes() {
	s.router.Use(s.Recoverer)
	s.router.Use(ContextTimeoutMiddleware(s.opts.RequestTimeout))
	s.router.Use(RequestIDMiddleware)
	s.router.Use(SecurityHeadersMiddleware)
	s.router.Use(RequestLogger(s.Logger))
	s.router.Use(NewCORSMiddleware(s.opts.CorsAllowedOrigins))

	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/state", s.handleGetState)
		r.Post("/selection", s.handleSelectPoint)
		r.Put("/grid-step", s.handleSetGridStep)
		r.Put("/monitoring", s.handleSetMonitoring)

		r.Route("/route", func(r chi.Router) {
			r.Post("/", s.handleCreateRoute)
			r.Delete("/", s.handleClearRoute)
			r.Post("/update", s.handleForceUpdate)
		})

		r.Post("/prediction", s.handlePredict)
		r.Post("/system/refresh", s.handleRefreshSystem)
	})

	s.router.Get("/health", s.HandleHealth)
}

// ContextTimeoutMiddleware sets a deadline on the request context.
func ContextTimeoutMiddleware(duration time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), duration)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDMiddleware reuses an incoming X-Request-Id or generates a UUID.
// The ID is stored via types.WithRequestID, so it is also forwarded to the
// routing service on outbound calls made while serving the request.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := types.WithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-Id", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
