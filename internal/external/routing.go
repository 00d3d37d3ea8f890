package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"searoute/internal/types"
)

// defaultRoutingBaseURL is where the routing service listens in a default
// local deployment. Overridable via RoutingClientConfig.BaseURL.
const defaultRoutingBaseURL = "http://localhost:5001"

// maxResponseBody bounds how much of a response body is read. Path histories
// of long sessions are the largest payloads.
const maxResponseBody = 8 << 20

// RoutingClientConfig holds the configuration for creating a RoutingHTTPClient.
type RoutingClientConfig struct {
	BaseURL   string // Defaults to defaultRoutingBaseURL
	UserAgent string
	Breaker   BreakerSettings
	Logger    *slog.Logger
}

// RoutingHTTPClient implements RoutingService over the service's JSON API. All
// requests go through BaseClient.
type RoutingHTTPClient struct {
	base    *BaseClient
	baseURL string
	logger  *slog.Logger
}

// NewRoutingClient creates a new RoutingHTTPClient. The httpClient timeout is
// the per-request timeout; a slow weather sample cannot outlive it.
func NewRoutingClient(httpClient *http.Client, cfg RoutingClientConfig) *RoutingHTTPClient {
	breaker := cfg.Breaker
	if breaker.Name == "" {
		breaker = DefaultBreakerSettings()
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "SeaRoute/1.0"
	}
	return NewRoutingClientWithBase(NewBaseClient(httpClient, breaker, userAgent), cfg)
}

// NewRoutingClientWithBase creates a RoutingHTTPClient with a pre-configured
// BaseClient. Tests use it to control the breaker.
func NewRoutingClientWithBase(base *BaseClient, cfg RoutingClientConfig) *RoutingHTTPClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultRoutingBaseURL
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &RoutingHTTPClient{
		base:    base,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

// BreakerState exposes the underlying breaker state for health reporting.
func (c *RoutingHTTPClient) BreakerState() string {
	return c.base.BreakerState()
}

// CreateRoute asks the service to compute a new route. POST /route.
func (c *RoutingHTTPClient) CreateRoute(ctx context.Context, req RouteRequest) (*RouteResult, error) {
	body := createRouteRequest{
		Start: toLatLon(req.Start),
		End:   toLatLon(req.End),
		Grid:  gridConfig{StepDeg: float64(req.GridStep)},
	}

	var resp createRouteResponse
	if err := c.call(ctx, "CreateRoute", http.MethodPost, "/route", body, &resp); err != nil {
		return nil, err
	}

	if resp.RouteID == "" {
		return nil, types.NewAppError(
			types.ErrCodeServiceBadResponse,
			"routing service returned an empty route id",
			nil,
		)
	}

	result := &RouteResult{
		RouteID:       resp.RouteID,
		PathHistory:   resp.PathHistory.toDomain(),
		DistanceKm:    resp.DistanceKm,
		Waypoints:     waypointsToDomain(resp.RouteDetails),
		VoyageSummary: resp.VoyageSummary,
	}
	if resp.GridStepUsed != nil {
		step := types.GridStep(*resp.GridStepUsed)
		result.GridStepUsed = &step
	}

	c.logger.InfoContext(ctx, "route created",
		"route_id", result.RouteID,
		"paths", len(result.PathHistory),
		"distance_km", result.DistanceKm,
	)

	return result, nil
}

// GetRouteStatus polls a route for recomputation. GET /route/{id}.
func (c *RoutingHTTPClient) GetRouteStatus(ctx context.Context, routeID string) (*RouteStatus, error) {
	if routeID == "" {
		return nil, types.NewAppError(types.ErrCodeNotFoundSession, "route id is required for status check", nil)
	}

	var resp routeStatusResponse
	if err := c.call(ctx, "GetRouteStatus", http.MethodGet, routePath(routeID), nil, &resp); err != nil {
		return nil, err
	}

	status := &RouteStatus{
		RouteUpdated: resp.RouteUpdated,
		DistanceKm:   resp.DistanceKm,
	}
	if len(resp.PathHistory) > 0 {
		status.PathHistory = resp.PathHistory.toDomain()
	}
	if resp.Details != nil {
		status.Waypoints = waypointsToDomain(resp.Details)
	}
	return status, nil
}

// ForceUpdate recomputes a route unconditionally. POST /route/{id}.
func (c *RoutingHTTPClient) ForceUpdate(ctx context.Context, routeID string) (*ForceUpdateResult, error) {
	if routeID == "" {
		return nil, types.NewAppError(types.ErrCodeNotFoundSession, "route id is required for update", nil)
	}

	var resp forceUpdateResponse
	if err := c.call(ctx, "ForceUpdate", http.MethodPost, routePath(routeID), nil, &resp); err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "route force-updated",
		"route_id", routeID,
		"paths", len(resp.PathHistory),
		"distance_km", resp.DistanceKm,
	)

	return &ForceUpdateResult{
		PathHistory: resp.PathHistory.toDomain(),
		DistanceKm:  resp.DistanceKm,
	}, nil
}

// DeleteRoute removes a route from the service. DELETE /route/{id}. The
// service may confirm with an empty body.
func (c *RoutingHTTPClient) DeleteRoute(ctx context.Context, routeID string) error {
	if routeID == "" {
		return types.NewAppError(types.ErrCodeNotFoundSession, "route id is required for deletion", nil)
	}
	return c.call(ctx, "DeleteRoute", http.MethodDelete, routePath(routeID), nil, nil)
}

// GetWeather fetches current conditions at a point. GET /weather?lat=&lon=.
func (c *RoutingHTTPClient) GetWeather(ctx context.Context, at types.Coordinate) (*types.WeatherSample, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(at.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(at.Lon, 'f', -1, 64))

	var resp weatherResponse
	if err := c.call(ctx, "GetWeather", http.MethodGet, "/weather?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	sample := resp.toDomain(at)
	return &sample, nil
}

// Predict runs the performance model on a conditions record. POST /predict.
func (c *RoutingHTTPClient) Predict(ctx context.Context, conditions PredictionConditions) (*PredictionResult, error) {
	var resp predictResponse
	if err := c.call(ctx, "Predict", http.MethodPost, "/predict", predictRequest{Conditions: conditions}, &resp); err != nil {
		return nil, err
	}
	return &PredictionResult{
		Speed:           resp.Speed,
		FuelConsumption: resp.FuelConsumption,
	}, nil
}

// Health reports which optional service capabilities are up. GET /health.
func (c *RoutingHTTPClient) Health(ctx context.Context) (*types.SystemStatus, error) {
	var resp healthResponse
	if err := c.call(ctx, "Health", http.MethodGet, "/health", nil, &resp); err != nil {
		return nil, err
	}
	return &types.SystemStatus{
		MLModelAvailable:    resp.MLModel,
		WeatherAPIAvailable: resp.WeatherAPI,
	}, nil
}

// call performs one JSON round trip. A nil in is sent without a body; a nil
// out accepts any success body, including an empty one.
func (c *RoutingHTTPClient) call(ctx context.Context, operation, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return types.NewAppError(
				types.ErrCodeInternalUnexpected,
				fmt.Sprintf("failed to serialize %s request", operation),
				err,
			)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return types.NewAppError(
			types.ErrCodeInternalUnexpected,
			fmt.Sprintf("failed to create %s request", operation),
			err,
		)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.base.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "routing service call failed",
			"operation", operation,
			"error", err,
		)
		return c.wrapError(operation, err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "routing service call completed",
		"operation", operation,
		"status_code", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode >= 400 {
		return c.handleErrorResponse(resp, operation)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return types.NewAppError(
			types.ErrCodeTransportFailure,
			fmt.Sprintf("failed to read %s response", operation),
			err,
		)
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return &types.AppError{
			Code:    types.ErrCodeServiceBadResponse,
			Message: fmt.Sprintf("routing service sent an empty %s response", operation),
			Status:  resp.StatusCode,
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &types.AppError{
			Code:    types.ErrCodeServiceBadResponse,
			Message: fmt.Sprintf("failed to decode %s response", operation),
			Status:  resp.StatusCode,
			Err:     err,
		}
	}
	return nil
}

// handleErrorResponse turns a non-success response into a ServiceError. The
// service's {"error": "..."} text is used when present; otherwise a generic
// message carrying the status code.
func (c *RoutingHTTPClient) handleErrorResponse(resp *http.Response, operation string) *types.AppError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	c.logger.Error("routing service error",
		"operation", operation,
		"status_code", resp.StatusCode,
		"response_body", string(raw),
	)

	cause := fmt.Errorf("%s returned %d: %s", operation, resp.StatusCode, string(raw))

	var parsed errorBody
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error != "" {
		return types.NewServiceError(parsed.Error, resp.StatusCode, cause)
	}

	return types.NewServiceError(
		fmt.Sprintf("routing service returned HTTP %d", resp.StatusCode),
		resp.StatusCode,
		cause,
	)
}

// wrapError prefixes BaseClient errors with the operation name, keeping the code.
func (c *RoutingHTTPClient) wrapError(operation string, err error) error {
	if appErr, ok := err.(*types.AppError); ok {
		return &types.AppError{
			Code:    appErr.Code,
			Message: fmt.Sprintf("%s: %s", operation, appErr.Message),
			Status:  appErr.Status,
			Err:     appErr.Err,
		}
	}
	return types.NewAppError(
		types.ErrCodeTransportFailure,
		fmt.Sprintf("%s failed", operation),
		err,
	)
}

func routePath(routeID string) string {
	return "/route/" + url.PathEscape(routeID)
}

// Compile-time interface compliance check.
var _ RoutingService = (*RoutingHTTPClient)(nil)
