// Package session owns the single active route session and everything derived
// from it: the start/end selection, path history, waypoint details, weather
// along the current path, the point prediction, recent updates and the
// monitoring flag.
//
// All state lives in one Controller. It is changed only through the
// controller's operations; getters return copies. The route-mutating
// operations (create, status refresh, force update, clear) are serialized:
// at most one of them is in flight at a time. A status poll never waits for
// that slot; it is skipped when the slot is taken.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"searoute/internal/external"
	"searoute/internal/scheduler"
	"searoute/internal/types"
)

// Event messages pushed to the update log.
const (
	MsgRouteUpdated      = "Route updated due to changing conditions"
	MsgRouteForceUpdated = "Route manually updated"
)

const (
	defaultPollInterval   = 30 * time.Second
	defaultHealthInterval = 5 * time.Minute

	// backgroundTimeout bounds one weather sampling batch or event publish.
	backgroundTimeout = 30 * time.Second
)

// Config holds the configuration for creating a Controller.
type Config struct {
	Service external.RoutingService
	Sampler WeatherSampler

	Metrics Metrics        // Optional
	Events  EventPublisher // Optional

	DefaultGridStep types.GridStep // Defaults to types.DefaultGridStep

	// ShipHeading and PreviousSpeed complete the prediction conditions record.
	ShipHeading   float64
	PreviousSpeed float64

	PollInterval   time.Duration // Defaults to 30s
	HealthInterval time.Duration // Defaults to 5m

	// NewTicker overrides the scheduler's ticker for both monitors.
	NewTicker scheduler.TickerFactory

	Now    func() time.Time
	Logger *slog.Logger
}

// routeSession is the remote route and its derived data.
type routeSession struct {
	id         string
	start      types.Coordinate
	end        types.Coordinate
	gridStep   types.GridStep
	history    types.PathHistory
	distanceKm float64
	waypoints  []types.WaypointDetail
	summary    *types.VoyageSummary
}

// Controller is the route session orchestrator.
type Controller struct {
	svc     external.RoutingService
	sampler WeatherSampler
	metrics Metrics
	events  EventPublisher
	logger  *slog.Logger
	now     func() time.Time

	shipHeading   float64
	previousSpeed float64

	statusMonitor *scheduler.Monitor
	healthMonitor *scheduler.Monitor

	// ops is the single slot held by a route-mutating operation.
	ops chan struct{}

	// baseCtx parents background work; Close cancels it.
	baseCtx    context.Context
	cancelBase context.CancelFunc
	background sync.WaitGroup

	mu         sync.RWMutex
	state      types.SessionState
	selection  Selection
	gridStep   types.GridStep
	route      *routeSession
	weather    types.WeatherMap
	weatherGen uint64
	prediction *types.Prediction
	predictGen uint64
	updates    UpdateLog
	monitoring bool
	system     *types.SystemStatus
	lastError  string
}

// New creates a Controller in the Empty state. Call Start to begin the
// periodic health refresh.
func New(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	events := cfg.Events
	if events == nil {
		events = noopPublisher{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	step := cfg.DefaultGridStep
	if step == 0 {
		step = types.DefaultGridStep
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	healthInterval := cfg.HealthInterval
	if healthInterval <= 0 {
		healthInterval = defaultHealthInterval
	}

	baseCtx, cancel := context.WithCancel(context.Background())

	c := &Controller{
		svc:           cfg.Service,
		sampler:       cfg.Sampler,
		metrics:       metrics,
		events:        events,
		logger:        logger,
		now:           now,
		shipHeading:   cfg.ShipHeading,
		previousSpeed: cfg.PreviousSpeed,
		ops:           make(chan struct{}, 1),
		baseCtx:       baseCtx,
		cancelBase:    cancel,
		state:         types.StateEmpty,
		gridStep:      step,
		weather:       types.WeatherMap{},
	}

	c.statusMonitor = scheduler.NewMonitor(scheduler.MonitorConfig{
		Name:     "route-status",
		Interval: pollInterval,
		Poll: func(ctx context.Context, sessionID string) {
			c.PollStatus(ctx, sessionID)
		},
		OnSkip: func(string) {
			c.metrics.RecordPoll(c.baseCtx, types.PollSkipped)
		},
		NewTicker: cfg.NewTicker,
		Logger:    logger,
	})

	c.healthMonitor = scheduler.NewMonitor(scheduler.MonitorConfig{
		Name:      "system-health",
		Interval:  healthInterval,
		Immediate: true,
		Poll: func(ctx context.Context, _ string) {
			_ = c.RefreshSystemStatus(ctx)
		},
		NewTicker: cfg.NewTicker,
		Logger:    logger,
	})

	return c
}

// Start begins the periodic system health refresh.
func (c *Controller) Start() {
	c.healthMonitor.Start("system")
}

// Close stops both monitors, cancels background work and waits for it.
// The remote route, if any, is left in place.
func (c *Controller) Close() {
	c.healthMonitor.Stop()
	c.statusMonitor.Stop()
	c.cancelBase()
	c.healthMonitor.Wait()
	c.statusMonitor.Wait()
	c.background.Wait()
}

// Drain waits for background weather sampling, event publishing and polls
// started so far.
func (c *Controller) Drain() {
	c.statusMonitor.Wait()
	c.background.Wait()
}

// --- Selection, grid step and monitoring ---

// SelectPoint applies one point pick to the start/end selection.
func (c *Controller) SelectPoint(point types.Coordinate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.Select(point)
}

// SetGridStep changes the resolution used by the next route creation.
func (c *Controller) SetGridStep(step types.GridStep) error {
	if err := types.ValidateGridStep(step); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gridStep = step
	return nil
}

// SetMonitoring toggles periodic status polling. The flag is kept even when
// no route exists; polling runs only while both are true.
func (c *Controller) SetMonitoring(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.monitoring = enabled
	c.syncMonitorLocked()
}

// syncMonitorLocked arms or disarms the status monitor to match the current
// route and monitoring flag. c.mu must be held for writing.
func (c *Controller) syncMonitorLocked() {
	if c.monitoring && c.route != nil {
		c.statusMonitor.Start(c.route.id)
		return
	}
	c.statusMonitor.Stop()
}

// --- Operation slot ---

// acquire takes the operation slot, waiting until it is free or ctx ends.
func (c *Controller) acquire(ctx context.Context) error {
	select {
	case c.ops <- struct{}{}:
		return nil
	case <-ctx.Done():
		return types.NewAppError(
			types.ErrCodeConflictOperationInFlight,
			"another route operation is still in progress",
			ctx.Err(),
		)
	}
}

// tryAcquire takes the operation slot only if it is free.
func (c *Controller) tryAcquire() bool {
	select {
	case c.ops <- struct{}{}:
		return true
	default:
		return false
	}
}

func (c *Controller) release() {
	<-c.ops
}

// --- Update log ---

// pushUpdateLocked records an event and returns it for publishing.
// c.mu must be held for writing.
func (c *Controller) pushUpdateLocked(message string, severity types.Severity) types.UpdateEvent {
	ev := types.UpdateEvent{
		ID:        uuid.NewString(),
		Timestamp: c.now(),
		Message:   message,
		Severity:  severity,
	}
	c.updates.Push(ev)
	return ev
}

// setErrorLocked fills the user-visible error slot from err.
func (c *Controller) setErrorLocked(err error) {
	if appErr, ok := err.(*types.AppError); ok {
		c.lastError = appErr.Message
		return
	}
	c.lastError = err.Error()
}

// --- Reads ---

// State returns the current lifecycle state.
func (c *Controller) State() types.SessionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// SessionID returns the active route id, or "" when none exists.
func (c *Controller) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.route == nil {
		return ""
	}
	return c.route.id
}

// PathHistory returns a copy of the path history; empty when no route exists.
func (c *Controller) PathHistory() types.PathHistory {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.route == nil {
		return types.PathHistory{}
	}
	return c.route.history.Clone()
}

// Updates returns the recent update events, newest first.
func (c *Controller) Updates() []types.UpdateEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updates.Entries()
}

// Monitoring reports whether the status monitor is armed.
func (c *Controller) Monitoring() bool {
	return c.statusMonitor.Running()
}

// Weather returns a copy of the weather samples along the current path.
func (c *Controller) Weather() types.WeatherMap {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.weather.Clone()
}

// Snapshot is a consistent read of the whole session.
type Snapshot struct {
	State        types.SessionState     `json:"state"`
	Loading      bool                   `json:"loading"`
	Selection    Selection              `json:"selection"`
	GridStep     types.GridStep         `json:"grid_step"`
	GridStepMenu []types.GridStep       `json:"grid_step_menu"`
	SessionID    string                 `json:"session_id,omitempty"`
	Start        *types.Coordinate      `json:"start,omitempty"`
	End          *types.Coordinate      `json:"end,omitempty"`
	PathHistory  types.PathHistory      `json:"path_history"`
	CurrentPath  types.Path             `json:"current_path"`
	DistanceKm   *float64               `json:"distance_km,omitempty"`
	Distance     string                 `json:"distance,omitempty"`
	Waypoints    []types.WaypointDetail `json:"waypoints"`
	Summary      *types.VoyageSummary   `json:"voyage_summary,omitempty"`
	Weather      types.WeatherMap       `json:"weather"`
	Prediction   *types.Prediction      `json:"prediction,omitempty"`
	Updates      []types.UpdateEvent    `json:"updates"`
	Monitoring   bool                   `json:"monitoring"`
	SystemStatus *types.SystemStatus    `json:"system_status,omitempty"`
	Error        string                 `json:"error,omitempty"`
}

// Snapshot returns a copy of the full session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		State:        c.state,
		Loading:      c.state == types.StateCreating || c.state == types.StateForcingUpdate,
		Selection:    c.selection.clone(),
		GridStep:     c.gridStep,
		GridStepMenu: append([]types.GridStep(nil), types.GridStepMenu...),
		PathHistory:  types.PathHistory{},
		CurrentPath:  types.Path{},
		Waypoints:    []types.WaypointDetail{},
		Weather:      c.weather.Clone(),
		Updates:      c.updates.Entries(),
		Monitoring:   c.monitoring && c.route != nil,
		Error:        c.lastError,
	}

	if r := c.route; r != nil {
		start, end := r.start, r.end
		distance := r.distanceKm
		snap.SessionID = r.id
		snap.Start = &start
		snap.End = &end
		snap.PathHistory = r.history.Clone()
		if current, ok := r.history.Current(); ok {
			snap.CurrentPath = current.Clone()
		}
		snap.DistanceKm = &distance
		snap.Distance = FormatDistance(distance)
		snap.Waypoints = append(snap.Waypoints, r.waypoints...)
		if r.summary != nil {
			summary := *r.summary
			snap.Summary = &summary
		}
	}
	if c.prediction != nil {
		p := *c.prediction
		snap.Prediction = &p
	}
	if c.system != nil {
		s := *c.system
		snap.SystemStatus = &s
	}
	return snap
}

// FormatDistance renders a distance in kilometres with one decimal.
func FormatDistance(km float64) string {
	return fmt.Sprintf("%.1f", km)
}
