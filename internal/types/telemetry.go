package types

// Telemetry metric names for CloudWatch.
// All components MUST use these constants.
const (
	// Metric Names
	MetricStatusPoll     = "StatusPoll"
	MetricRouteLifecycle = "RouteLifecycle"
	MetricWeatherSample  = "WeatherSample"
	MetricServiceFailure = "ServiceFailure"
	MetricServiceLatency = "ServiceLatency"

	// Dimension Keys
	DimOutcome   = "Outcome"
	DimOperation = "Operation"
	DimResult    = "Result"

	// Metric Namespace
	MetricNamespace = "SeaRoute"
)
