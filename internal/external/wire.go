package external

import "searoute/internal/types"

// latLon is the service's [lat, lon] coordinate encoding.
type latLon [2]float64

func toLatLon(c types.Coordinate) latLon {
	return latLon{c.Lat, c.Lon}
}

func (l latLon) coordinate() types.Coordinate {
	return types.Coordinate{Lat: l[0], Lon: l[1]}
}

// pathHistoryDTO is path_history: a list of paths, each a list of [lat, lon].
type pathHistoryDTO [][]latLon

// toDomain converts the wire history. A nil or empty history becomes a
// single empty path so callers always see a current path.
func (h pathHistoryDTO) toDomain() types.PathHistory {
	if len(h) == 0 {
		return types.PathHistory{types.Path{}}
	}
	out := make(types.PathHistory, len(h))
	for i, p := range h {
		path := make(types.Path, len(p))
		for j, ll := range p {
			path[j] = ll.coordinate()
		}
		out[i] = path
	}
	return out
}

type gridConfig struct {
	StepDeg float64 `json:"step_deg"`
}

type createRouteRequest struct {
	Start latLon     `json:"start"`
	End   latLon     `json:"end"`
	Grid  gridConfig `json:"grid"`
}

type waypointDTO struct {
	Lat               float64           `json:"lat"`
	Lon               float64           `json:"lon"`
	DistanceFromStart float64           `json:"distance_from_start"`
	Conditions        *types.Conditions `json:"conditions,omitempty"`
}

func waypointsToDomain(in []waypointDTO) []types.WaypointDetail {
	out := make([]types.WaypointDetail, len(in))
	for i, w := range in {
		out[i] = types.WaypointDetail{
			Coordinate:          types.Coordinate{Lat: w.Lat, Lon: w.Lon},
			DistanceFromStartKm: w.DistanceFromStart,
			Conditions:          w.Conditions,
		}
	}
	return out
}

type createRouteResponse struct {
	RouteID       string               `json:"route_id"`
	PathHistory   pathHistoryDTO       `json:"path_history"`
	DistanceKm    float64              `json:"distance_km"`
	RouteDetails  []waypointDTO        `json:"route_details"`
	VoyageSummary *types.VoyageSummary `json:"voyage_summary,omitempty"`
	GridStepUsed  *float64             `json:"grid_step_used,omitempty"`
}

type routeStatusResponse struct {
	RouteUpdated bool           `json:"route_updated"`
	PathHistory  pathHistoryDTO `json:"path_history,omitempty"`
	DistanceKm   *float64       `json:"distance_km,omitempty"`
	Details      []waypointDTO  `json:"details,omitempty"`
}

type forceUpdateResponse struct {
	PathHistory pathHistoryDTO `json:"path_history"`
	DistanceKm  float64        `json:"distance_km"`
}

type weatherResponse struct {
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
}

func (w weatherResponse) toDomain(at types.Coordinate) types.WeatherSample {
	return types.WeatherSample{
		Coordinate:       at,
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
	}
}

type predictRequest struct {
	Conditions PredictionConditions `json:"conditions"`
}

type predictResponse struct {
	Speed           float64 `json:"speed"`
	FuelConsumption float64 `json:"fuel_consumption"`
}

type healthResponse struct {
	MLModel    bool `json:"ml_model"`
	WeatherAPI bool `json:"weather_api"`
}

type errorBody struct {
	Error string `json:"error"`
}
