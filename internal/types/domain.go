package types

import (
	"fmt"
	"math"
	"time"
)

// Coordinate is a geographic point in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lon float64 `json:"lon" validate:"longitude"`
}

// String renders the coordinate with three decimals, the precision shown to
// users for start and end points.
func (c Coordinate) String() string {
	return fmt.Sprintf("%.3f, %.3f", c.Lat, c.Lon)
}

// WeatherKey is the lookup key for weather samples: both components rounded
// half away from zero to two decimals. Points closer than that precision
// share a key.
func (c Coordinate) WeatherKey() string {
	return fmt.Sprintf("%.2f_%.2f", round2(c.Lat), round2(c.Lon))
}

// round2 rounds to two decimals. %.2f alone rounds exact ties to even.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Path is one computed route's intermediate waypoints, in travel order.
type Path []Coordinate

// Equal reports whether both paths visit the same coordinates in order.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy that shares no backing array with p.
func (p Path) Clone() Path {
	if p == nil {
		return Path{}
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// PathHistory holds every path computed for a session, oldest first. The last
// element is the current path; all earlier ones are historical.
type PathHistory []Path

// Current returns the current path and whether one exists.
func (h PathHistory) Current() (Path, bool) {
	if len(h) == 0 {
		return nil, false
	}
	return h[len(h)-1], true
}

// Historical returns the superseded paths.
func (h PathHistory) Historical() []Path {
	if len(h) < 2 {
		return nil
	}
	return h[:len(h)-1]
}

// Clone deep-copies the history.
func (h PathHistory) Clone() PathHistory {
	out := make(PathHistory, len(h))
	for i, p := range h {
		out[i] = p.Clone()
	}
	return out
}

// Conditions are the per-waypoint readings reported with a computed route.
// Any field may be missing from the service's response.
type Conditions struct {
	WindSpeed      *float64 `json:"wind_speed,omitempty"`
	WaveHeight     *float64 `json:"wave_height,omitempty"`
	Visibility     *float64 `json:"visibility,omitempty"`
	PredictedSpeed *float64 `json:"predicted_speed,omitempty"`
	PredictedFuel  *float64 `json:"predicted_fuel,omitempty"`
}

// WaypointDetail describes one waypoint of the current path.
type WaypointDetail struct {
	Coordinate          Coordinate  `json:"coordinate"`
	DistanceFromStartKm float64     `json:"distance_from_start_km"`
	Conditions          *Conditions `json:"conditions,omitempty"`
}

// VoyageSummary aggregates the expected cost of sailing the current path.
type VoyageSummary struct {
	TotalTimeHours  float64 `json:"total_time_hours"`
	TotalFuelLiters float64 `json:"total_fuel_liters"`
	AverageSpeedKts float64 `json:"average_speed_kts"`
}

// WeatherSample is the full set of conditions observed at one coordinate.
type WeatherSample struct {
	Coordinate       Coordinate `json:"coordinate"`
	WindSpeed        float64    `json:"wind_speed"`
	WindDirection    float64    `json:"wind_direction"`
	WaveHeight       float64    `json:"wave_height"`
	WavePeriod       float64    `json:"wave_period"`
	CurrentSpeed     float64    `json:"current_speed"`
	CurrentDirection float64    `json:"current_direction"`
	SeaTemp          float64    `json:"sea_temp"`
	AirTemp          float64    `json:"air_temp"`
	Pressure         float64    `json:"pressure"`
	Visibility       float64    `json:"visibility"`
}

// WeatherMap indexes samples by Coordinate.WeatherKey.
type WeatherMap map[string]WeatherSample

// Clone returns a shallow copy of the map (samples are values).
func (m WeatherMap) Clone() WeatherMap {
	out := make(WeatherMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// UpdateEvent is one entry of the session's recent-updates log.
type UpdateEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
}

// SystemStatus reports which optional backend capabilities are available.
type SystemStatus struct {
	MLModelAvailable    bool `json:"ml_model_available"`
	WeatherAPIAvailable bool `json:"weather_api_available"`
}

// Prediction is the performance forecast for a single point together with
// the weather it was computed from.
type Prediction struct {
	Coordinate      Coordinate    `json:"coordinate"`
	Speed           float64       `json:"speed"`
	FuelConsumption float64       `json:"fuel_consumption"`
	Weather         WeatherSample `json:"weather"`
}
