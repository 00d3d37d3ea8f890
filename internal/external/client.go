// Package external is the boundary between the route session and the remote
// routing service. All outbound HTTP calls go through BaseClient, which
// enforces the same behavior on every call: request correlation headers,
// circuit breaking, and mapping of transport failures to types.AppError.
//
// Calls are never retried automatically. The caller decides whether to issue
// a request again (a user pressing "Update", the next scheduled poll).
package external

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"searoute/internal/types"
)

// Headers attached to every outbound request.
const (
	headerRequestID    = "X-Request-Id"
	headerRouteSession = "X-Route-Session"
)

// BreakerSettings configures the circuit breaker guarding the routing service.
type BreakerSettings struct {
	Name string
	// TripAfter is the number of consecutive failures that opens the breaker.
	TripAfter uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// DefaultBreakerSettings returns sensible defaults for the routing service.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:        "routing-service",
		TripAfter:   5,
		OpenTimeout: 30 * time.Second,
	}
}

// BaseClient wraps an *http.Client and a circuit breaker. RoutingHTTPClient
// embeds it to inherit this behavior.
type BaseClient struct {
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[*http.Response]
	userAgent string
}

// NewBaseClient creates a BaseClient with the given http client, breaker
// settings, and user agent string.
func NewBaseClient(httpClient *http.Client, settings BreakerSettings, userAgent string) *BaseClient {
	if settings.TripAfter == 0 {
		settings.TripAfter = DefaultBreakerSettings().TripAfter
	}
	tripAfter := settings.TripAfter

	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= tripAfter
		},
		// A caller abandoning its request says nothing about the service.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return NewBaseClientWithBreaker(httpClient, cb, userAgent)
}

// NewBaseClientWithBreaker creates a BaseClient with a caller-provided circuit
// breaker. This is useful for testing or when sharing a breaker across clients.
func NewBaseClientWithBreaker(
	httpClient *http.Client,
	breaker *gobreaker.CircuitBreaker[*http.Response],
	userAgent string,
) *BaseClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &BaseClient{
		client:    httpClient,
		breaker:   breaker,
		userAgent: userAgent,
	}
}

// BreakerState returns the circuit breaker's current state name.
func (c *BaseClient) BreakerState() string {
	return c.breaker.State().String()
}

// Do executes the HTTP request with:
//  1. Request ID injection (from context, or a fresh UUID)
//  2. Route session header injection (from context, if tagged)
//  3. User-Agent header injection
//  4. Circuit breaker wrapping (5xx and transport errors count as failures)
//  5. Error mapping to types.AppError
//
// Any response that was received, including 4xx and 5xx, is returned as-is so
// the caller can read the service's error body. The caller is responsible for
// closing the response body.
//
// When no response was received, Do returns a types.AppError with code
// ErrCodeTransportFailure, or ErrCodeUpstreamUnavailable when the breaker
// refused the call.
func (c *BaseClient) Do(req *http.Request) (*http.Response, error) {
	requestID := types.GetRequestID(req.Context())
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set(headerRequestID, requestID)

	if sessionID := types.GetSessionID(req.Context()); sessionID != "" {
		req.Header.Set(headerRouteSession, sessionID)
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		r, doErr := c.client.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		// Server errors trip the breaker but the response still reaches the
		// caller so its error body can be surfaced.
		if r.StatusCode >= 500 {
			return r, fmt.Errorf("upstream returned %d", r.StatusCode)
		}
		return r, nil
	})

	if resp != nil {
		return resp, nil
	}

	return nil, c.mapError(err)
}

// mapError translates failures that produced no response into AppErrors.
func (c *BaseClient) mapError(err error) *types.AppError {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return types.NewAppError(
			types.ErrCodeUpstreamUnavailable,
			"circuit breaker is open; routing service unavailable",
			err,
		)
	}

	return types.NewAppError(
		types.ErrCodeTransportFailure,
		"routing service unreachable",
		err,
	)
}
