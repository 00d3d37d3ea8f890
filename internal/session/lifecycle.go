package session

import (
	"context"
	"time"

	"searoute/internal/external"
	"searoute/internal/types"
)

// validateEndpoints checks a start/end pair before any network call.
func validateEndpoints(start, end types.Coordinate) error {
	if err := types.ValidateCoordinate(start); err != nil {
		return err
	}
	if err := types.ValidateCoordinate(end); err != nil {
		return err
	}
	if start == end {
		return types.NewAppError(
			types.ErrCodeValidationSameEndpoints,
			"start and end points must differ",
			nil,
		)
	}
	return nil
}

// CreateRoute requests a new route and makes it the active session,
// superseding any previous one. step must be one of types.GridStepMenu.
//
// On failure the previous session, if any, is left untouched and the error
// is also placed in the user-visible error slot.
func (c *Controller) CreateRoute(ctx context.Context, start, end types.Coordinate, step types.GridStep) error {
	if err := validateEndpoints(start, end); err != nil {
		return err
	}
	if err := types.ValidateGridStep(step); err != nil {
		return err
	}
	return c.createRoute(ctx, start, end, step)
}

// CreateRouteWithStoredStep requests a route between start and end at the
// stored grid step. Like ComputeRoute it accepts a step the service adopted
// for an earlier route, which may lie outside types.GridStepMenu.
func (c *Controller) CreateRouteWithStoredStep(ctx context.Context, start, end types.Coordinate) error {
	if err := validateEndpoints(start, end); err != nil {
		return err
	}
	c.mu.RLock()
	step := c.gridStep
	c.mu.RUnlock()
	return c.createRoute(ctx, start, end, step)
}

// ComputeRoute creates a route from the current selection and grid step.
// The grid step may be one the service adopted for an earlier route.
func (c *Controller) ComputeRoute(ctx context.Context) error {
	c.mu.RLock()
	sel := c.selection.clone()
	step := c.gridStep
	c.mu.RUnlock()

	if !sel.Complete() {
		return types.NewAppError(
			types.ErrCodeValidationMissingEndpoint,
			"select both a start and an end point",
			nil,
		)
	}
	if err := validateEndpoints(*sel.Start, *sel.End); err != nil {
		return err
	}
	return c.createRoute(ctx, *sel.Start, *sel.End, step)
}

func (c *Controller) createRoute(ctx context.Context, start, end types.Coordinate, step types.GridStep) error {
	if err := c.acquire(ctx); err != nil {
		return err
	}
	defer c.release()

	c.mu.Lock()
	prior := c.state
	c.state = types.StateCreating
	c.lastError = ""
	c.mu.Unlock()

	began := time.Now()
	result, err := c.svc.CreateRoute(ctx, external.RouteRequest{
		Start:    start,
		End:      end,
		GridStep: step,
	})
	c.metrics.RecordLifecycle(ctx, types.OpCreateRoute, err == nil, time.Since(began))

	c.mu.Lock()
	if err != nil {
		c.state = prior
		c.setErrorLocked(err)
		c.mu.Unlock()
		c.logger.WarnContext(ctx, "route creation failed",
			"start", start.String(),
			"end", end.String(),
			"grid_step", float64(step),
			"error", err,
		)
		return err
	}

	history := result.PathHistory.Clone()
	if len(history) == 0 {
		history = types.PathHistory{types.Path{}}
	}

	route := &routeSession{
		id:         result.RouteID,
		start:      start,
		end:        end,
		gridStep:   step,
		history:    history,
		distanceKm: result.DistanceKm,
		waypoints:  append([]types.WaypointDetail(nil), result.Waypoints...),
	}
	if result.VoyageSummary != nil {
		summary := *result.VoyageSummary
		route.summary = &summary
	}
	// The service is authoritative on feasible resolutions.
	if result.GridStepUsed != nil && *result.GridStepUsed > 0 {
		route.gridStep = *result.GridStepUsed
		c.gridStep = *result.GridStepUsed
	}

	c.route = route
	c.state = types.StateActive
	c.weather = types.WeatherMap{}
	c.weatherGen++
	c.prediction = nil
	c.predictGen++
	c.monitoring = true
	c.syncMonitorLocked()

	current, _ := history.Current()
	resample := c.weatherAvailableLocked() && len(current) > 0
	gen := c.weatherGen
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "route session created",
		"session_id", route.id,
		"distance_km", route.distanceKm,
		"waypoints", len(current),
		"grid_step", float64(route.gridStep),
	)

	if resample {
		c.sampleWeatherAsync(route.id, gen, current.Clone())
	}
	return nil
}

// PollStatus is one monitoring tick for sessionID: fetch the route status and
// apply it. The poll is skipped when another operation holds the session, and
// discarded when sessionID is no longer the active session. Failures are
// logged only.
func (c *Controller) PollStatus(ctx context.Context, sessionID string) types.PollOutcome {
	if !c.tryAcquire() {
		c.metrics.RecordPoll(ctx, types.PollSkipped)
		return types.PollSkipped
	}
	defer c.release()

	c.mu.Lock()
	if c.route == nil || c.route.id != sessionID {
		c.mu.Unlock()
		c.metrics.RecordPoll(ctx, types.PollStale)
		return types.PollStale
	}
	c.state = types.StateRefreshing
	c.mu.Unlock()

	status, err := c.svc.GetRouteStatus(types.WithSessionID(ctx, sessionID), sessionID)

	c.mu.Lock()
	if c.route != nil {
		c.state = types.StateActive
	}
	if err != nil {
		c.mu.Unlock()
		outcome := types.PollFailed
		if ctx.Err() != nil {
			outcome = types.PollStale
		}
		c.logger.WarnContext(ctx, "route status check failed",
			"session_id", sessionID,
			"error", err,
		)
		c.metrics.RecordPoll(ctx, outcome)
		return outcome
	}
	outcome, ev := c.applyStatusLocked(sessionID, status)
	c.mu.Unlock()

	c.afterRefresh(ctx, sessionID, outcome, ev)
	return outcome
}

// RefreshFromStatus applies a status result obtained for sessionID. It is a
// no-op unless the service reports the route as recomputed with a path that
// differs from the current one.
func (c *Controller) RefreshFromStatus(ctx context.Context, sessionID string, status *external.RouteStatus) types.PollOutcome {
	if !c.tryAcquire() {
		c.metrics.RecordPoll(ctx, types.PollSkipped)
		return types.PollSkipped
	}
	defer c.release()

	c.mu.Lock()
	outcome, ev := c.applyStatusLocked(sessionID, status)
	c.mu.Unlock()

	c.afterRefresh(ctx, sessionID, outcome, ev)
	return outcome
}

// applyStatusLocked merges a status result. c.mu must be held for writing.
// The returned event is non-nil only when the path history grew.
func (c *Controller) applyStatusLocked(sessionID string, status *external.RouteStatus) (types.PollOutcome, *types.UpdateEvent) {
	if c.route == nil || c.route.id != sessionID {
		return types.PollStale, nil
	}
	if status == nil || !status.RouteUpdated {
		return types.PollUnchanged, nil
	}

	incoming, ok := status.PathHistory.Current()
	if !ok {
		c.logger.Warn("route reported as updated without a path", "session_id", sessionID)
		return types.PollUnchanged, nil
	}
	// route_updated stays true on later polls; a path we already hold is not new.
	if local, _ := c.route.history.Current(); local.Equal(incoming) {
		return types.PollUnchanged, nil
	}

	c.route.history = append(c.route.history, incoming.Clone())
	if status.DistanceKm != nil {
		c.route.distanceKm = *status.DistanceKm
	}
	if status.Waypoints != nil {
		c.route.waypoints = append([]types.WaypointDetail(nil), status.Waypoints...)
	}
	ev := c.pushUpdateLocked(MsgRouteUpdated, types.SeverityInfo)
	return types.PollUpdated, &ev
}

func (c *Controller) afterRefresh(ctx context.Context, sessionID string, outcome types.PollOutcome, ev *types.UpdateEvent) {
	c.metrics.RecordPoll(ctx, outcome)
	if ev == nil {
		return
	}
	c.logger.InfoContext(ctx, "route updated by monitoring", "session_id", sessionID)
	c.metrics.RecordLifecycle(ctx, types.OpRefresh, true, 0)
	c.publishAsync(sessionID, *ev)
}

// ForceUpdate asks the service to recompute the active route unconditionally
// and appends the result to the path history.
func (c *Controller) ForceUpdate(ctx context.Context) error {
	if err := c.acquire(ctx); err != nil {
		return err
	}
	defer c.release()

	c.mu.Lock()
	if c.route == nil {
		c.mu.Unlock()
		return types.NewAppError(types.ErrCodeNotFoundSession, "no active route to update", nil)
	}
	sessionID := c.route.id
	c.state = types.StateForcingUpdate
	c.mu.Unlock()

	began := time.Now()
	result, err := c.svc.ForceUpdate(types.WithSessionID(ctx, sessionID), sessionID)
	c.metrics.RecordLifecycle(ctx, types.OpForceUpdate, err == nil, time.Since(began))

	c.mu.Lock()
	c.state = types.StateActive
	if err != nil {
		c.setErrorLocked(err)
		c.mu.Unlock()
		c.logger.WarnContext(ctx, "force update failed",
			"session_id", sessionID,
			"error", err,
		)
		return err
	}

	current, _ := result.PathHistory.Current()
	current = current.Clone()
	c.route.history = append(c.route.history, current)
	c.route.distanceKm = result.DistanceKm
	c.lastError = ""
	ev := c.pushUpdateLocked(MsgRouteForceUpdated, types.SeveritySuccess)

	c.weatherGen++
	gen := c.weatherGen
	resample := c.weatherAvailableLocked() && len(current) > 0
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "route force-updated",
		"session_id", sessionID,
		"distance_km", result.DistanceKm,
		"waypoints", len(current),
	)

	c.publishAsync(sessionID, ev)
	if resample {
		c.sampleWeatherAsync(sessionID, gen, current.Clone())
	}
	return nil
}

// ClearRoute ends the active session. Remote deletion is best effort: its
// failure is logged and local state is reset regardless. Monitoring is
// disarmed and the selection is emptied.
func (c *Controller) ClearRoute(ctx context.Context) error {
	// Cancel pending and in-flight polls before waiting for the slot.
	c.statusMonitor.Stop()

	if err := c.acquire(ctx); err != nil {
		c.mu.Lock()
		c.syncMonitorLocked()
		c.mu.Unlock()
		return err
	}
	defer c.release()

	c.mu.Lock()
	var sessionID string
	if c.route != nil {
		sessionID = c.route.id
		c.state = types.StateDeleting
	}
	c.mu.Unlock()

	if sessionID != "" {
		began := time.Now()
		err := c.svc.DeleteRoute(types.WithSessionID(ctx, sessionID), sessionID)
		c.metrics.RecordLifecycle(ctx, types.OpClearRoute, err == nil, time.Since(began))
		if err != nil {
			c.logger.WarnContext(ctx, "remote route deletion failed, clearing local state",
				"session_id", sessionID,
				"error", err,
			)
		}
	}

	c.mu.Lock()
	c.route = nil
	c.state = types.StateEmpty
	c.selection.Reset()
	c.weather = types.WeatherMap{}
	c.weatherGen++
	c.prediction = nil
	c.predictGen++
	c.updates.Reset()
	c.monitoring = false
	c.lastError = ""
	c.syncMonitorLocked()
	c.mu.Unlock()

	if sessionID != "" {
		c.logger.InfoContext(ctx, "route session cleared", "session_id", sessionID)
	}
	return nil
}
