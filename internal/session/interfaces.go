package session

import (
	"context"
	"time"

	"searoute/internal/types"
	"searoute/internal/weather"
)

// WeatherSampler samples conditions along a path. *weather.Sampler is the
// production implementation.
type WeatherSampler interface {
	Sample(ctx context.Context, path types.Path) (*weather.Result, error)
}

// Metrics records session telemetry. Implementations must be safe for
// concurrent use and must not block for long; publishing failures are the
// implementation's concern.
type Metrics interface {
	RecordPoll(ctx context.Context, outcome types.PollOutcome)
	RecordLifecycle(ctx context.Context, op types.Operation, success bool, latency time.Duration)
}

// EventPublisher fans update events out to external consumers.
type EventPublisher interface {
	PublishUpdate(ctx context.Context, sessionID string, event types.UpdateEvent) error
}

type noopMetrics struct{}

func (noopMetrics) RecordPoll(context.Context, types.PollOutcome)                         {}
func (noopMetrics) RecordLifecycle(context.Context, types.Operation, bool, time.Duration) {}

type noopPublisher struct{}

func (noopPublisher) PublishUpdate(context.Context, string, types.UpdateEvent) error { return nil }
