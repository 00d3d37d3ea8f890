package api

import (
	"errors"
	"io"
	"net/http"

	"searoute/internal/types"
)

type pointRequest struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// coordinate converts the request to a Coordinate; both fields are required.
func (p pointRequest) coordinate() (types.Coordinate, error) {
	if p.Lat == nil || p.Lon == nil {
		return types.Coordinate{}, types.NewAppError(
			types.ErrCodeValidationMissingEndpoint,
			"lat and lon are required",
			nil,
		)
	}
	return types.Coordinate{Lat: *p.Lat, Lon: *p.Lon}, nil
}

type gridStepRequest struct {
	GridStep float64 `json:"grid_step"`
}

type monitoringRequest struct {
	Enabled bool `json:"enabled"`
}

// createRouteRequest is optional: an empty body computes the route between
// the currently selected points.
type createRouteRequest struct {
	Start    *types.Coordinate `json:"start"`
	End      *types.Coordinate `json:"end"`
	GridStep *float64          `json:"grid_step,omitempty"`
}

func (s *Server) writeSnapshot(w http.ResponseWriter, r *http.Request) {
	JSON(w, r, http.StatusOK, APIResponse{Data: s.Session.Snapshot()})
}

// handleGetState returns the full session snapshot.
func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	s.writeSnapshot(w, r)
}

// handleSelectPoint adds a map pick to the start/end selection.
func (s *Server) handleSelectPoint(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		Error(w, r, err)
		return
	}
	point, err := req.coordinate()
	if err != nil {
		Error(w, r, err)
		return
	}
	if err := types.ValidateCoordinate(point); err != nil {
		Error(w, r, err)
		return
	}

	s.Session.SelectPoint(point)
	s.writeSnapshot(w, r)
}

func (s *Server) handleSetGridStep(w http.ResponseWriter, r *http.Request) {
	var req gridStepRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		Error(w, r, err)
		return
	}
	if err := s.Session.SetGridStep(types.GridStep(req.GridStep)); err != nil {
		Error(w, r, err)
		return
	}
	s.writeSnapshot(w, r)
}

func (s *Server) handleSetMonitoring(w http.ResponseWriter, r *http.Request) {
	var req monitoringRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		Error(w, r, err)
		return
	}
	s.Session.SetMonitoring(req.Enabled)
	s.writeSnapshot(w, r)
}

// handleCreateRoute creates a route from explicit endpoints, or from the
// current selection when the body is empty.
func (s *Server) handleCreateRoute(w http.ResponseWriter, r *http.Request) {
	var req createRouteRequest
	err := DecodeJSON(w, r, &req)
	switch {
	case errors.Is(err, io.EOF):
		err = s.Session.ComputeRoute(r.Context())
	case err != nil:
	case req.Start == nil || req.End == nil:
		err = types.NewAppError(
			types.ErrCodeValidationMissingEndpoint,
			"both start and end are required",
			nil,
		)
	case req.GridStep == nil:
		err = s.Session.CreateRouteWithStoredStep(r.Context(), *req.Start, *req.End)
	default:
		err = s.Session.CreateRoute(r.Context(), *req.Start, *req.End, types.GridStep(*req.GridStep))
	}
	if err != nil {
		Error(w, r, err)
		return
	}

	JSON(w, r, http.StatusCreated, APIResponse{Data: s.Session.Snapshot()})
}

func (s *Server) handleForceUpdate(w http.ResponseWriter, r *http.Request) {
	if err := s.Session.ForceUpdate(r.Context()); err != nil {
		Error(w, r, err)
		return
	}
	s.writeSnapshot(w, r)
}

func (s *Server) handleClearRoute(w http.ResponseWriter, r *http.Request) {
	if err := s.Session.ClearRoute(r.Context()); err != nil {
		Error(w, r, err)
		return
	}
	s.writeSnapshot(w, r)
}

// handlePredict runs a performance prediction at the posted point.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		Error(w, r, err)
		return
	}
	point, err := req.coordinate()
	if err != nil {
		Error(w, r, err)
		return
	}

	prediction, err := s.Session.PredictAt(r.Context(), point)
	if err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: prediction})
}

// handleRefreshSystem re-checks service health immediately.
func (s *Server) handleRefreshSystem(w http.ResponseWriter, r *http.Request) {
	if err := s.Session.RefreshSystemStatus(r.Context()); err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: s.Session.Snapshot().SystemStatus})
}
