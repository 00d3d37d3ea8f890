package session

import (
	"context"

	"searoute/internal/external"
	"searoute/internal/types"
)

// PredictAt looks up the weather at point and feeds it to the performance
// model. Nothing is requested when the last health check reported the model
// unavailable. Failures leave the previous prediction in place.
func (c *Controller) PredictAt(ctx context.Context, point types.Coordinate) (*types.Prediction, error) {
	if err := types.ValidateCoordinate(point); err != nil {
		return nil, err
	}

	c.mu.RLock()
	available := c.system != nil && c.system.MLModelAvailable
	gen := c.predictGen
	c.mu.RUnlock()

	if !available {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamModelUnavailable,
			"performance model is not available",
			nil,
		)
	}

	sample, err := c.svc.GetWeather(ctx, point)
	if err != nil {
		c.logger.WarnContext(ctx, "prediction weather lookup failed",
			"lat", point.Lat,
			"lon", point.Lon,
			"error", err,
		)
		return nil, err
	}

	conditions := external.ConditionsFromWeather(*sample, c.shipHeading, c.previousSpeed)
	result, err := c.svc.Predict(ctx, conditions)
	if err != nil {
		c.logger.WarnContext(ctx, "prediction failed",
			"lat", point.Lat,
			"lon", point.Lon,
			"error", err,
		)
		return nil, err
	}

	prediction := types.Prediction{
		Coordinate:      point,
		Speed:           result.Speed,
		FuelConsumption: result.FuelConsumption,
		Weather:         *sample,
	}

	c.mu.Lock()
	// A clear or new route since the lookup started makes this result stale.
	if c.predictGen == gen {
		stored := prediction
		c.prediction = &stored
	}
	c.mu.Unlock()

	return &prediction, nil
}

// RefreshSystemStatus fetches service health. On failure the previous status
// is kept and the error is logged.
func (c *Controller) RefreshSystemStatus(ctx context.Context) error {
	status, err := c.svc.Health(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "health check failed", "error", err)
		return err
	}

	c.mu.Lock()
	s := *status
	c.system = &s
	c.mu.Unlock()

	c.logger.DebugContext(ctx, "system status refreshed",
		"ml_model", status.MLModelAvailable,
		"weather_api", status.WeatherAPIAvailable,
	)
	return nil
}

// SystemStatus returns the last known service health, or nil before the
// first successful check.
func (c *Controller) SystemStatus() *types.SystemStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.system == nil {
		return nil
	}
	s := *c.system
	return &s
}
