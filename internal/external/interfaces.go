package external

import (
	"context"

	"searoute/internal/types"
)

// RouteRequest is the input of a route creation call.
type RouteRequest struct {
	Start    types.Coordinate
	End      types.Coordinate
	GridStep types.GridStep
}

// RouteResult is a freshly created route as reported by the service.
type RouteResult struct {
	RouteID       string
	PathHistory   types.PathHistory
	DistanceKm    float64
	Waypoints     []types.WaypointDetail
	VoyageSummary *types.VoyageSummary
	// GridStepUsed is set when the service reports the resolution it actually
	// routed with, which may differ from the requested one.
	GridStepUsed *types.GridStep
}

// RouteStatus is the answer to a status poll. Only RouteUpdated is always
// present; the rest is filled when the service sends it.
type RouteStatus struct {
	RouteUpdated bool
	PathHistory  types.PathHistory
	DistanceKm   *float64
	Waypoints    []types.WaypointDetail
}

// ForceUpdateResult is the answer to an unconditional recomputation.
type ForceUpdateResult struct {
	PathHistory types.PathHistory
	DistanceKm  float64
}

// PredictionConditions is the fixed-shape record fed to the performance model.
type PredictionConditions struct {
	WindSpeed        float64 `json:"wind_speed"`
	WindDirection    float64 `json:"wind_direction"`
	WaveHeight       float64 `json:"wave_height"`
	WavePeriod       float64 `json:"wave_period"`
	CurrentSpeed     float64 `json:"current_speed"`
	CurrentDirection float64 `json:"current_direction"`
	SeaTemp          float64 `json:"sea_temp"`
	AirTemp          float64 `json:"air_temp"`
	Pressure         float64 `json:"pressure"`
	Visibility       float64 `json:"visibility"`
	ShipHeading      float64 `json:"ship_heading"`
	ShipSpeedPrev    float64 `json:"ship_speed_prev"`
}

// ConditionsFromWeather builds the prediction record from a weather sample
// plus the caller-supplied heading and previous speed.
func ConditionsFromWeather(w types.WeatherSample, heading, previousSpeed float64) PredictionConditions {
	return PredictionConditions{
		WindSpeed:        w.WindSpeed,
		WindDirection:    w.WindDirection,
		WaveHeight:       w.WaveHeight,
		WavePeriod:       w.WavePeriod,
		CurrentSpeed:     w.CurrentSpeed,
		CurrentDirection: w.CurrentDirection,
		SeaTemp:          w.SeaTemp,
		AirTemp:          w.AirTemp,
		Pressure:         w.Pressure,
		Visibility:       w.Visibility,
		ShipHeading:      heading,
		ShipSpeedPrev:    previousSpeed,
	}
}

// PredictionResult is the performance model's output.
type PredictionResult struct {
	Speed           float64
	FuelConsumption float64
}

// RoutingService is the full contract of the remote routing service.
// RoutingHTTPClient is the production implementation.
type RoutingService interface {
	CreateRoute(ctx context.Context, req RouteRequest) (*RouteResult, error)
	GetRouteStatus(ctx context.Context, routeID string) (*RouteStatus, error)
	ForceUpdate(ctx context.Context, routeID string) (*ForceUpdateResult, error)
	DeleteRoute(ctx context.Context, routeID string) error
	GetWeather(ctx context.Context, at types.Coordinate) (*types.WeatherSample, error)
	Predict(ctx context.Context, conditions PredictionConditions) (*PredictionResult, error)
	Health(ctx context.Context) (*types.SystemStatus, error)
}
