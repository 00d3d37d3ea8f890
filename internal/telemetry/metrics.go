// Package telemetry publishes route session metrics to AWS CloudWatch.
//
// Record calls never block the session: datums are queued and a background
// loop (Run) ships them in batches. When the queue is full new datums are
// dropped and counted.
package telemetry

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"searoute/internal/session"
	"searoute/internal/types"
	"searoute/internal/weather"
)

var (
	_ session.Metrics  = (*CloudWatchMetrics)(nil)
	_ weather.Observer = (*CloudWatchMetrics)(nil)
)

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

const (
	defaultQueueSize     = 256
	defaultBatchSize     = 20
	defaultFlushInterval = 10 * time.Second
	flushTimeout         = 5 * time.Second
)

// Result dimension values.
const (
	resultSuccess = "success"
	resultFailure = "failure"
)

// Config holds the configuration for creating CloudWatchMetrics.
type Config struct {
	Namespace     string        // Defaults to types.MetricNamespace
	QueueSize     int           // Defaults to 256
	BatchSize     int           // Defaults to 20
	FlushInterval time.Duration // Defaults to 10s
	Logger        *slog.Logger
}

// CloudWatchMetrics implements session.Metrics and weather.Observer.
//
// Metrics emitted:
//   - StatusPoll: Dims {Outcome} -- one per poll
//   - RouteLifecycle: Dims {Operation, Result} -- create, force update, clear, refresh
//   - ServiceLatency: Dims {Operation} -- milliseconds per routing service call
//   - WeatherSample: Dims {Result} -- one per sampled point
type CloudWatchMetrics struct {
	client        CloudWatchClient
	namespace     string
	batchSize     int
	flushInterval time.Duration
	logger        *slog.Logger

	queue   chan cwtypes.MetricDatum
	dropped atomic.Int64
}

// NewCloudWatchMetrics creates a CloudWatchMetrics. Nothing is sent until Run
// is started.
func NewCloudWatchMetrics(client CloudWatchClient, cfg Config) *CloudWatchMetrics {
	if cfg.Namespace == "" {
		cfg.Namespace = types.MetricNamespace
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = defaultFlushInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &CloudWatchMetrics{
		client:        client,
		namespace:     cfg.Namespace,
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
		logger:        cfg.Logger,
		queue:         make(chan cwtypes.MetricDatum, cfg.QueueSize),
	}
}

// RecordPoll emits a StatusPoll metric with the Outcome dimension.
func (m *CloudWatchMetrics) RecordPoll(_ context.Context, outcome types.PollOutcome) {
	m.enqueue(countDatum(types.MetricStatusPoll,
		dimension(types.DimOutcome, string(outcome)),
	))
}

// RecordLifecycle emits a RouteLifecycle count and, for calls that reached
// the service, a ServiceLatency datum.
func (m *CloudWatchMetrics) RecordLifecycle(_ context.Context, op types.Operation, success bool, latency time.Duration) {
	m.enqueue(countDatum(types.MetricRouteLifecycle,
		dimension(types.DimOperation, string(op)),
		dimension(types.DimResult, result(success)),
	))
	if latency > 0 {
		m.enqueue(latencyDatum(string(op), latency))
	}
	if !success {
		m.enqueue(countDatum(types.MetricServiceFailure,
			dimension(types.DimOperation, string(op)),
		))
	}
}

// RecordWeatherSample emits a WeatherSample count and its latency.
func (m *CloudWatchMetrics) RecordWeatherSample(_ context.Context, success bool, latency time.Duration) {
	m.enqueue(countDatum(types.MetricWeatherSample,
		dimension(types.DimResult, result(success)),
	))
	m.enqueue(latencyDatum("get_weather", latency))
}

// Dropped returns how many datums were discarded because the queue was full.
func (m *CloudWatchMetrics) Dropped() int64 {
	return m.dropped.Load()
}

// Run ships queued datums until ctx is cancelled, then flushes what is left.
func (m *CloudWatchMetrics) Run(ctx context.Context) {
	ticker := time.NewTicker(m.flushInterval)
	defer ticker.Stop()

	batch := make([]cwtypes.MetricDatum, 0, m.batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		fctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()
		m.send(fctx, batch)
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case d := <-m.queue:
					batch = append(batch, d)
					if len(batch) >= m.batchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		case d := <-m.queue:
			batch = append(batch, d)
			if len(batch) >= m.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (m *CloudWatchMetrics) send(ctx context.Context, batch []cwtypes.MetricDatum) {
	data := make([]cwtypes.MetricDatum, len(batch))
	copy(data, batch)

	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	}
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to publish metrics",
			"error", err.Error(),
			"datums", len(data),
		)
	}
}

func (m *CloudWatchMetrics) enqueue(d cwtypes.MetricDatum) {
	select {
	case m.queue <- d:
	default:
		if m.dropped.Add(1) == 1 {
			m.logger.Warn("metrics queue full, dropping datums")
		}
	}
}

func countDatum(name string, dims ...cwtypes.Dimension) cwtypes.MetricDatum {
	return cwtypes.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(1),
		Unit:       cwtypes.StandardUnitCount,
		Timestamp:  aws.Time(time.Now().UTC()),
		Dimensions: dims,
	}
}

func latencyDatum(operation string, latency time.Duration) cwtypes.MetricDatum {
	return cwtypes.MetricDatum{
		MetricName: aws.String(types.MetricServiceLatency),
		Value:      aws.Float64(float64(latency.Milliseconds())),
		Unit:       cwtypes.StandardUnitMilliseconds,
		Timestamp:  aws.Time(time.Now().UTC()),
		Dimensions: []cwtypes.Dimension{dimension(types.DimOperation, operation)},
	}
}

func dimension(name, value string) cwtypes.Dimension {
	return cwtypes.Dimension{
		Name:  aws.String(name),
		Value: aws.String(value),
	}
}

func result(success bool) string {
	if success {
		return resultSuccess
	}
	return resultFailure
}
