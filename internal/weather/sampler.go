// Package weather samples current conditions along a route path.
//
// A path of any length is reduced to at most MaxSamples points and every
// selected point is fetched concurrently. Failures are isolated per point: the
// points that answered are returned even when some did not.
package weather

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"searoute/internal/types"
)

const (
	// DefaultMaxSamples bounds the number of weather requests per path.
	DefaultMaxSamples = 10

	// DefaultConcurrency is the maximum number of in-flight weather requests.
	DefaultConcurrency = 10
)

// Fetcher retrieves conditions at a single coordinate. The routing service
// client satisfies it.
type Fetcher interface {
	GetWeather(ctx context.Context, at types.Coordinate) (*types.WeatherSample, error)
}

// Observer is notified of each point's outcome. Implementations must be safe
// for concurrent use.
type Observer interface {
	RecordWeatherSample(ctx context.Context, success bool, latency time.Duration)
}

type noopObserver struct{}

func (noopObserver) RecordWeatherSample(context.Context, bool, time.Duration) {}

// Config holds the configuration for creating a Sampler.
type Config struct {
	MaxSamples  int // Defaults to DefaultMaxSamples
	Concurrency int // Defaults to DefaultConcurrency
	Observer    Observer
	Logger      *slog.Logger
}

// Sampler fans weather requests out across a path.
type Sampler struct {
	fetcher     Fetcher
	maxSamples  int
	concurrency int
	observer    Observer
	logger      *slog.Logger
}

// NewSampler creates a Sampler backed by fetcher.
func NewSampler(fetcher Fetcher, cfg Config) *Sampler {
	if cfg.MaxSamples <= 0 {
		cfg.MaxSamples = DefaultMaxSamples
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Observer == nil {
		cfg.Observer = noopObserver{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Sampler{
		fetcher:     fetcher,
		maxSamples:  cfg.MaxSamples,
		concurrency: cfg.Concurrency,
		observer:    cfg.Observer,
		logger:      cfg.Logger,
	}
}

// Result is the outcome of sampling one path.
type Result struct {
	// Samples holds every successful sample keyed by Coordinate.WeatherKey.
	Samples types.WeatherMap
	// Requested is the number of points selected for sampling.
	Requested int
	// Failed is the number of selected points whose request failed.
	Failed int
}

// Complete reports whether every selected point was sampled.
func (r *Result) Complete() bool {
	return r.Failed == 0
}

// SelectPoints returns every ceil(len/maxSamples)-th point of path, starting
// with the first.
func (s *Sampler) SelectPoints(path types.Path) []types.Coordinate {
	if len(path) == 0 {
		return nil
	}
	stride := (len(path) + s.maxSamples - 1) / s.maxSamples
	points := make([]types.Coordinate, 0, (len(path)+stride-1)/stride)
	for i := 0; i < len(path); i += stride {
		points = append(points, path[i])
	}
	return points
}

// Sample fetches weather for the selected points of path. An empty path
// yields an empty map without any request.
//
// The returned Result is never nil. When at least one point failed, the error
// is a types.AppError with ErrCodePartialDataFailure; Result.Samples still
// carries the points that succeeded.
func (s *Sampler) Sample(ctx context.Context, path types.Path) (*Result, error) {
	points := s.SelectPoints(path)
	result := &Result{
		Samples:   make(types.WeatherMap, len(points)),
		Requested: len(points),
	}
	if len(points) == 0 {
		return result, nil
	}

	// Results are gathered by position and applied in path order afterwards
	// so that the later of two colliding points wins deterministically.
	samples := make([]*types.WeatherSample, len(points))
	var (
		mu       sync.Mutex
		firstErr error
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, point := range points {
		i, point := i, point
		g.Go(func() error {
			start := time.Now()
			sample, err := s.fetcher.GetWeather(gCtx, point)
			s.observer.RecordWeatherSample(gCtx, err == nil, time.Since(start))
			if err != nil {
				s.logger.WarnContext(gCtx, "weather sample failed",
					"lat", point.Lat,
					"lon", point.Lon,
					"error", err,
				)
				mu.Lock()
				result.Failed++
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				// Isolated: siblings keep running.
				return nil
			}
			samples[i] = sample
			return nil
		})
	}

	// Goroutines never return an error, so Wait only synchronizes.
	_ = g.Wait()

	for i, sample := range samples {
		if sample == nil {
			continue
		}
		result.Samples[points[i].WeatherKey()] = *sample
	}

	if result.Failed > 0 {
		appErr := types.NewAppError(
			types.ErrCodePartialDataFailure,
			fmt.Sprintf("weather sampling failed for %d of %d points", result.Failed, result.Requested),
			firstErr,
		).WithDetails(map[string]any{
			"requested": result.Requested,
			"failed":    result.Failed,
		})
		return result, appErr
	}

	return result, nil
}
