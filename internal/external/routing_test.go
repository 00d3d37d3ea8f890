package external

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"searoute/internal/types"
)

func newTestRoutingClient(t *testing.T, serverURL string) *RoutingHTTPClient {
	t.Helper()
	base := NewBaseClient(
		&http.Client{Timeout: 5 * time.Second},
		BreakerSettings{Name: "test-routing", TripAfter: 100, OpenTimeout: time.Minute},
		"SeaRoute-Test/1.0",
	)
	return NewRoutingClientWithBase(base, RoutingClientConfig{BaseURL: serverURL + "/"})
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestCreateRoute_Success(t *testing.T) {
	var received map[string]any
	var method, path, contentType string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&received)
		writeJSON(w, http.StatusOK, `{
			"route_id": "r-1",
			"path_history": [[[18.5, 72.0], [15.0, 74.0], [13.5, 79.0]]],
			"distance_km": 1532.4,
			"route_details": [
				{"lat": 18.5, "lon": 72.0, "distance_from_start": 0, "conditions": {"wind_speed": 5.5}},
				{"lat": 15.0, "lon": 74.0, "distance_from_start": 420.1}
			],
			"voyage_summary": {"total_time_hours": 80.5, "total_fuel_liters": 12000, "average_speed_kts": 10.3},
			"grid_step_used": 1.0
		}`)
	}))
	defer server.Close()

	client := newTestRoutingClient(t, server.URL)

	result, err := client.CreateRoute(context.Background(), RouteRequest{
		Start:    types.Coordinate{Lat: 18.93, Lon: 72.84},
		End:      types.Coordinate{Lat: 13.10, Lon: 80.30},
		GridStep: types.GridStepMedium,
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/route", path)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, []any{18.93, 72.84}, received["start"])
	assert.Equal(t, []any{13.10, 80.30}, received["end"])
	assert.Equal(t, map[string]any{"step_deg": 0.25}, received["grid"])

	assert.Equal(t, "r-1", result.RouteID)
	require.Len(t, result.PathHistory, 1)
	current, ok := result.PathHistory.Current()
	require.True(t, ok)
	assert.Len(t, current, 3)
	assert.Equal(t, types.Coordinate{Lat: 15.0, Lon: 74.0}, current[1])
	assert.InDelta(t, 1532.4, result.DistanceKm, 1e-9)

	require.Len(t, result.Waypoints, 2)
	require.NotNil(t, result.Waypoints[0].Conditions)
	require.NotNil(t, result.Waypoints[0].Conditions.WindSpeed)
	assert.InDelta(t, 5.5, *result.Waypoints[0].Conditions.WindSpeed, 1e-9)
	assert.Nil(t, result.Waypoints[1].Conditions)
	assert.InDelta(t, 420.1, result.Waypoints[1].DistanceFromStartKm, 1e-9)

	require.NotNil(t, result.VoyageSummary)
	assert.InDelta(t, 80.5, result.VoyageSummary.TotalTimeHours, 1e-9)

	require.NotNil(t, result.GridStepUsed)
	assert.Equal(t, types.GridStep(1.0), *result.GridStepUsed)
}

func TestCreateRoute_EmptyPathHistoryYieldsEmptyCurrentPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"route_id": "r-2", "path_history": [], "distance_km": 0}`)
	}))
	defer server.Close()

	result, err := newTestRoutingClient(t, server.URL).CreateRoute(context.Background(), RouteRequest{})
	require.NoError(t, err)

	current, ok := result.PathHistory.Current()
	assert.True(t, ok, "an empty history must still expose a current path")
	assert.NotNil(t, current)
	assert.Empty(t, current)
	assert.Nil(t, result.GridStepUsed)
	assert.Nil(t, result.VoyageSummary)
}

func TestCreateRoute_MissingRouteID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"path_history": [[]]}`)
	}))
	defer server.Close()

	_, err := newTestRoutingClient(t, server.URL).CreateRoute(context.Background(), RouteRequest{})
	assert.True(t, types.HasCode(err, types.ErrCodeServiceBadResponse))
}

func TestCreateRoute_ServiceErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"error": "No path found between points"}`)
	}))
	defer server.Close()

	_, err := newTestRoutingClient(t, server.URL).CreateRoute(context.Background(), RouteRequest{})
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeServiceError, appErr.Code)
	assert.Equal(t, "No path found between points", appErr.Message)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.False(t, appErr.IsTransport())
}

func TestCreateRoute_UnparseableErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "<html>Internal Server Error</html>")
	}))
	defer server.Close()

	_, err := newTestRoutingClient(t, server.URL).CreateRoute(context.Background(), RouteRequest{})

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeServiceError, appErr.Code)
	assert.Equal(t, "routing service returned HTTP 500", appErr.Message)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
}

func TestCreateRoute_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestRoutingClient(t, url).CreateRoute(context.Background(), RouteRequest{})

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeTransportFailure, appErr.Code)
	assert.Contains(t, appErr.Message, "CreateRoute")
	assert.Zero(t, appErr.Status)
}

func TestGetRouteStatus_NotUpdated(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.Equal(t, http.MethodGet, r.Method)
		writeJSON(w, http.StatusOK, `{"route_updated": false}`)
	}))
	defer server.Close()

	status, err := newTestRoutingClient(t, server.URL).GetRouteStatus(context.Background(), "r-1")
	require.NoError(t, err)

	assert.Equal(t, "/route/r-1", path)
	assert.False(t, status.RouteUpdated)
	assert.Nil(t, status.PathHistory)
	assert.Nil(t, status.DistanceKm)
	assert.Nil(t, status.Waypoints)
}

func TestGetRouteStatus_Updated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{
			"route_updated": true,
			"path_history": [[[1, 1]], [[2, 2], [3, 3]]],
			"distance_km": 1600.2,
			"details": [{"lat": 2, "lon": 2, "distance_from_start": 0}]
		}`)
	}))
	defer server.Close()

	status, err := newTestRoutingClient(t, server.URL).GetRouteStatus(context.Background(), "r-1")
	require.NoError(t, err)

	assert.True(t, status.RouteUpdated)
	require.Len(t, status.PathHistory, 2)
	current, _ := status.PathHistory.Current()
	assert.Equal(t, types.Path{{Lat: 2, Lon: 2}, {Lat: 3, Lon: 3}}, current)
	require.NotNil(t, status.DistanceKm)
	assert.InDelta(t, 1600.2, *status.DistanceKm, 1e-9)
	assert.Len(t, status.Waypoints, 1)
}

func TestGetRouteStatus_RequiresRouteID(t *testing.T) {
	_, err := newTestRoutingClient(t, "http://127.0.0.1:1").GetRouteStatus(context.Background(), "")
	assert.True(t, types.HasCode(err, types.ErrCodeNotFoundSession))
}

func TestForceUpdate_Success(t *testing.T) {
	var method, path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		writeJSON(w, http.StatusOK, `{"path_history": [[[1, 1]], [[4, 4], [5, 5]]], "distance_km": 1499.9}`)
	}))
	defer server.Close()

	result, err := newTestRoutingClient(t, server.URL).ForceUpdate(context.Background(), "r-9")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/route/r-9", path)
	assert.Len(t, result.PathHistory, 2)
	assert.InDelta(t, 1499.9, result.DistanceKm, 1e-9)
}

func TestForceUpdate_EmptyBodyIsBadResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, err := newTestRoutingClient(t, server.URL).ForceUpdate(context.Background(), "r-9")
	assert.True(t, types.HasCode(err, types.ErrCodeServiceBadResponse))
}

func TestDeleteRoute_EmptyBodySucceeds(t *testing.T) {
	var method, path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	err := newTestRoutingClient(t, server.URL).DeleteRoute(context.Background(), "r-1")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/route/r-1", path)
}

func TestDeleteRoute_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"error": "Route not found"}`)
	}))
	defer server.Close()

	err := newTestRoutingClient(t, server.URL).DeleteRoute(context.Background(), "r-1")

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Route not found", appErr.Message)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
}

func TestGetWeather_Success(t *testing.T) {
	var lat, lon string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		lat = r.URL.Query().Get("lat")
		lon = r.URL.Query().Get("lon")
		writeJSON(w, http.StatusOK, `{
			"wind_speed": 12.1, "wind_direction": 270, "wave_height": 1.8, "wave_period": 7,
			"current_speed": 0.6, "current_direction": 90, "sea_temp": 28.4, "air_temp": 30.1,
			"pressure": 1009, "visibility": 10
		}`)
	}))
	defer server.Close()

	at := types.Coordinate{Lat: 12.3456, Lon: 80.1234}
	sample, err := newTestRoutingClient(t, server.URL).GetWeather(context.Background(), at)
	require.NoError(t, err)

	assert.Equal(t, "12.3456", lat)
	assert.Equal(t, "80.1234", lon)
	assert.Equal(t, at, sample.Coordinate)
	assert.InDelta(t, 12.1, sample.WindSpeed, 1e-9)
	assert.InDelta(t, 1009, sample.Pressure, 1e-9)
	assert.InDelta(t, 10, sample.Visibility, 1e-9)
}

func TestPredict_SendsConditionsRecord(t *testing.T) {
	var received struct {
		Conditions map[string]float64 `json:"conditions"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&received)
		writeJSON(w, http.StatusOK, `{"speed": 11.2, "fuel_consumption": 152.7}`)
	}))
	defer server.Close()

	conditions := ConditionsFromWeather(types.WeatherSample{WindSpeed: 9, Pressure: 1012}, 180, 12)
	result, err := newTestRoutingClient(t, server.URL).Predict(context.Background(), conditions)
	require.NoError(t, err)

	assert.InDelta(t, 11.2, result.Speed, 1e-9)
	assert.InDelta(t, 152.7, result.FuelConsumption, 1e-9)
	assert.Len(t, received.Conditions, 12)
	assert.Equal(t, 180.0, received.Conditions["ship_heading"])
	assert.Equal(t, 12.0, received.Conditions["ship_speed_prev"])
	assert.Equal(t, 9.0, received.Conditions["wind_speed"])
}

func TestHealth_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"status": "healthy", "ml_model": false, "weather_api": true}`)
	}))
	defer server.Close()

	status, err := newTestRoutingClient(t, server.URL).Health(context.Background())
	require.NoError(t, err)
	assert.False(t, status.MLModelAvailable)
	assert.True(t, status.WeatherAPIAvailable)
}

func TestHealth_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{not json`)
	}))
	defer server.Close()

	_, err := newTestRoutingClient(t, server.URL).Health(context.Background())
	assert.True(t, types.HasCode(err, types.ErrCodeServiceBadResponse))
}
