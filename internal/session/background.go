package session

import (
	"context"

	"searoute/internal/types"
)

// weatherAvailableLocked reports whether the last health check saw the
// weather API up. c.mu must be held.
func (c *Controller) weatherAvailableLocked() bool {
	return c.system != nil && c.system.WeatherAPIAvailable
}

// sampleWeatherAsync samples path in the background. The result replaces the
// weather map only if the session and sampling generation are still current
// and at least one point answered; otherwise prior weather stays in place.
func (c *Controller) sampleWeatherAsync(sessionID string, gen uint64, path types.Path) {
	if c.sampler == nil {
		return
	}
	c.background.Add(1)
	go func() {
		defer c.background.Done()

		ctx, cancel := context.WithTimeout(types.WithSessionID(c.baseCtx, sessionID), backgroundTimeout)
		defer cancel()

		result, err := c.sampler.Sample(ctx, path)
		if err != nil {
			c.logger.WarnContext(ctx, "weather sampling incomplete",
				"session_id", sessionID,
				"error", err,
			)
		}
		if result == nil || len(result.Samples) == 0 {
			return
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.route == nil || c.route.id != sessionID || c.weatherGen != gen {
			c.logger.DebugContext(ctx, "discarding stale weather samples", "session_id", sessionID)
			return
		}
		c.weather = result.Samples.Clone()
	}()
}

// publishAsync hands ev to the event publisher without blocking the caller.
func (c *Controller) publishAsync(sessionID string, ev types.UpdateEvent) {
	if _, ok := c.events.(noopPublisher); ok {
		return
	}
	c.background.Add(1)
	go func() {
		defer c.background.Done()

		ctx, cancel := context.WithTimeout(types.WithSessionID(c.baseCtx, sessionID), backgroundTimeout)
		defer cancel()

		if err := c.events.PublishUpdate(ctx, sessionID, ev); err != nil {
			c.logger.WarnContext(ctx, "failed to publish route update event",
				"session_id", sessionID,
				"event_id", ev.ID,
				"error", err,
			)
		}
	}()
}
