// Package config defines the configuration structure for the sea-route
// session service. Configuration is loaded once at startup and is immutable
// thereafter.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> struct tag defaults (Lowest)
//
// Any invalid value causes Load to fail, and the process exits on startup.
package config

import (
	"time"
)

// Config is the top-level configuration struct. Sub-components receive only
// the specific config subsets they require.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"searoute"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	// Domain Configurations
	Routing       RoutingConfig
	Monitor       MonitorConfig
	Weather       WeatherConfig
	Prediction    PredictionConfig
	Session       SessionConfig
	Server        ServerConfig
	AWS           AWSConfig
	Observability ObservabilityConfig
	Events        EventsConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// RoutingConfig holds the remote routing service endpoint and the tuning of
// the outbound client.
type RoutingConfig struct {
	BaseURL   string        `envconfig:"ROUTING_BASE_URL" default:"http://localhost:5001" validate:"required,url"`
	Timeout   time.Duration `envconfig:"ROUTING_TIMEOUT" default:"60s" validate:"gt=0"`
	UserAgent string        `envconfig:"ROUTING_USER_AGENT"` // Defaults to Build.UserAgent()

	// Circuit breaker: consecutive failures before opening, and how long it
	// stays open before a trial request.
	BreakerTripAfter   uint32        `envconfig:"ROUTING_BREAKER_TRIP_AFTER" default:"5" validate:"gte=1"`
	BreakerOpenTimeout time.Duration `envconfig:"ROUTING_BREAKER_OPEN_TIMEOUT" default:"30s" validate:"gt=0"`
}

// MonitorConfig holds the background polling cadences.
type MonitorConfig struct {
	PollInterval   time.Duration `envconfig:"MONITOR_POLL_INTERVAL" default:"30s" validate:"gte=1s"`
	HealthInterval time.Duration `envconfig:"HEALTH_REFRESH_INTERVAL" default:"5m" validate:"gte=1s"`
}

// WeatherConfig bounds weather sampling along a path.
type WeatherConfig struct {
	MaxSamples  int `envconfig:"WEATHER_MAX_SAMPLES" default:"10" validate:"gte=1,lte=100"`
	Concurrency int `envconfig:"WEATHER_CONCURRENCY" default:"10" validate:"gte=1,lte=100"`
}

// PredictionConfig holds the fixed vessel state sent with every
// performance prediction.
type PredictionConfig struct {
	ShipHeading   float64 `envconfig:"PREDICTION_SHIP_HEADING" default:"180" validate:"gte=0,lt=360"`
	PreviousSpeed float64 `envconfig:"PREDICTION_PREVIOUS_SPEED" default:"12" validate:"gte=0"`
}

// SessionConfig holds route session defaults.
type SessionConfig struct {
	DefaultGridStep float64 `envconfig:"DEFAULT_GRID_STEP" default:"0.25" validate:"gridstep"`
}

// ServerConfig holds the local control API settings.
type ServerConfig struct {
	Port               string        `envconfig:"PORT" default:"8080" validate:"required,numeric"`
	CorsAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"90s" validate:"gt=0"`
	ShutdownTimeout    time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s" validate:"gt=0"`
}

// AWSConfig holds regional configuration for the optional AWS integrations.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`

	// LocalStack Support (Empty in Prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL" validate:"omitempty,url"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	EnableMetrics      bool          `envconfig:"ENABLE_METRICS" default:"false"`
	MetricNamespace    string        `envconfig:"METRIC_NAMESPACE" default:"SeaRoute"`
	MetricsFlushPeriod time.Duration `envconfig:"METRICS_FLUSH_INTERVAL" default:"10s" validate:"gt=0"`
}

// EventsConfig holds route update event fan-out settings. Publishing is
// disabled when QueueURL is empty.
type EventsConfig struct {
	QueueURL string `envconfig:"SQS_ROUTE_UPDATES" validate:"omitempty,url"`
}

// NeedsAWS reports whether any AWS-backed integration is enabled.
func (c *Config) NeedsAWS() bool {
	return c.Observability.EnableMetrics || c.Events.QueueURL != ""
}

// BuildInfo holds build-time metadata injected via ldflags.
// These values are NOT populated from environment variables.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrDotenv indicates an explicitly requested .env file could not be read.
	ErrDotenv ConfigErrorType = "DOTENV_FAILURE"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
