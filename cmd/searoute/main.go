// Package main is the entry point for the sea-route session service.
//
// It loads configuration, builds the routing service client and the session
// controller, optionally wires CloudWatch metrics and SQS event fan-out, and
// serves the local control API until SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"searoute/internal/api"
	"searoute/internal/config"
	"searoute/internal/events"
	"searoute/internal/external"
	"searoute/internal/session"
	"searoute/internal/telemetry"
	"searoute/internal/types"
	"searoute/internal/weather"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// app is the fully wired process.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	controller *session.Controller
	server     *api.Server
	metrics    *telemetry.CloudWatchMetrics
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("searoute starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"routing_base_url", cfg.Routing.BaseURL,
		"port", cfg.Server.Port,
	)

	a, err := build(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	return a.serve()
}

// build wires every component from cfg. AWS credentials are only resolved
// when metrics or events are enabled.
func build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	routing := external.NewRoutingClient(
		&http.Client{Timeout: cfg.Routing.Timeout},
		external.RoutingClientConfig{
			BaseURL:   cfg.Routing.BaseURL,
			UserAgent: cfg.Routing.UserAgent,
			Breaker: external.BreakerSettings{
				Name:        "routing-service",
				TripAfter:   cfg.Routing.BreakerTripAfter,
				OpenTimeout: cfg.Routing.BreakerOpenTimeout,
			},
			Logger: logger,
		},
	)

	a := &app{cfg: cfg, logger: logger}

	var (
		metrics   session.Metrics
		observer  weather.Observer
		publisher session.EventPublisher
	)
	if cfg.NeedsAWS() {
		awsCfg, err := loadAWSConfig(ctx, cfg.AWS)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		if cfg.Observability.EnableMetrics {
			cw := cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
				if cfg.AWS.EndpointURL != "" {
					o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
				}
			})
			a.metrics = telemetry.NewCloudWatchMetrics(cw, telemetry.Config{
				Namespace:     cfg.Observability.MetricNamespace,
				FlushInterval: cfg.Observability.MetricsFlushPeriod,
				Logger:        logger,
			})
			metrics = a.metrics
			observer = a.metrics
		}
		if cfg.Events.QueueURL != "" {
			client := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
				if cfg.AWS.EndpointURL != "" {
					o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
				}
			})
			publisher = events.NewSQSPublisher(client, cfg.Events.QueueURL, logger)
		}
	}

	sampler := weather.NewSampler(routing, weather.Config{
		MaxSamples:  cfg.Weather.MaxSamples,
		Concurrency: cfg.Weather.Concurrency,
		Observer:    observer,
		Logger:      logger,
	})

	a.controller = session.New(session.Config{
		Service:         routing,
		Sampler:         sampler,
		Metrics:         metrics,
		Events:          publisher,
		DefaultGridStep: types.GridStep(cfg.Session.DefaultGridStep),
		ShipHeading:     cfg.Prediction.ShipHeading,
		PreviousSpeed:   cfg.Prediction.PreviousSpeed,
		PollInterval:    cfg.Monitor.PollInterval,
		HealthInterval:  cfg.Monitor.HealthInterval,
		Logger:          logger,
	})

	srv, err := api.NewServer(a.controller, api.Options{
		CorsAllowedOrigins: cfg.Server.CorsAllowedOrigins,
		RequestTimeout:     cfg.Server.RequestTimeout,
		Version:            cfg.Build.Version,
		HealthProbes: []api.HealthProbe{
			api.BreakerProbe{Component: "routing_service", State: routing.BreakerState},
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating server: %w", err)
	}
	a.server = srv

	return a, nil
}

func loadAWSConfig(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	return awsconfig.LoadDefaultConfig(ctx, opts...)
}

// serve runs the HTTP server and background loops until a shutdown signal.
func (a *app) serve() error {
	addr := ":" + a.cfg.Server.Port
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           a.server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      a.cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	metricsCtx, stopMetrics := context.WithCancel(context.Background())
	metricsDone := make(chan struct{})
	if a.metrics != nil {
		go func() {
			a.metrics.Run(metricsCtx)
			close(metricsDone)
		}()
	} else {
		close(metricsDone)
	}

	a.controller.Start()

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-shutdown:
		a.logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			runErr = fmt.Errorf("server error: %w", err)
		}
	}

	a.logger.Info("initiating graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("HTTP server shutdown error", "error", err)
	}

	// The remote route is left in place; a restart starts a fresh session.
	a.controller.Close()

	stopMetrics()
	select {
	case <-metricsDone:
	case <-ctx.Done():
		a.logger.Warn("metrics flush did not finish before shutdown deadline")
	}

	if runErr == nil {
		a.logger.Info("server stopped cleanly")
	}
	return runErr
}

// newLogger creates a structured slog.Logger configured for the given log level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	})
	return slog.New(handler)
}
