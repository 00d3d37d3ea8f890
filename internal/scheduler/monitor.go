// Package scheduler runs the periodic background work of the route session:
// status polling of the active route and the independent system health
// refresh.
//
// A Monitor is bound to a key (the route id for status polling) for the
// lifetime of one run. Stop cancels the run: no tick fires after it returns,
// and the context handed to an in-flight poll is cancelled so the poll's
// result can be recognized as stale.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// PollFunc performs one poll for key. It must honor ctx cancellation.
type PollFunc func(ctx context.Context, key string)

// Ticker is the subset of *time.Ticker the monitor depends on.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a Ticker firing every d.
type TickerFactory func(d time.Duration) Ticker

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// NewRealTicker is the production TickerFactory.
func NewRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// MonitorConfig holds the configuration for creating a Monitor.
type MonitorConfig struct {
	// Name identifies the monitor in logs.
	Name     string
	Interval time.Duration
	Poll     PollFunc

	// Immediate triggers one poll as soon as a run starts, before the first
	// tick.
	Immediate bool

	// OnSkip is called when a tick is dropped because the previous poll is
	// still outstanding. Optional.
	OnSkip func(key string)

	// NewTicker defaults to NewRealTicker. Tests inject a manual ticker.
	NewTicker TickerFactory
	Logger    *slog.Logger
}

// Monitor is a cancellable periodic task with skip-if-outstanding ticks.
type Monitor struct {
	name      string
	interval  time.Duration
	poll      PollFunc
	immediate bool
	onSkip    func(key string)
	newTicker TickerFactory
	logger    *slog.Logger

	mu  sync.Mutex
	run *monitorRun

	// polls tracks every poll goroutine across runs.
	polls sync.WaitGroup
}

// monitorRun is the state of one Start..Stop cycle.
type monitorRun struct {
	key      string
	cancel   context.CancelFunc
	done     chan struct{}
	inFlight atomic.Bool
}

// NewMonitor creates a stopped Monitor.
func NewMonitor(cfg MonitorConfig) *Monitor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	newTicker := cfg.NewTicker
	if newTicker == nil {
		newTicker = NewRealTicker
	}
	onSkip := cfg.OnSkip
	if onSkip == nil {
		onSkip = func(string) {}
	}
	return &Monitor{
		name:      cfg.Name,
		interval:  cfg.Interval,
		poll:      cfg.Poll,
		immediate: cfg.Immediate,
		onSkip:    onSkip,
		newTicker: newTicker,
		logger:    logger.With("monitor", cfg.Name),
	}
}

// Start begins polling for key. A run already bound to the same key is left
// alone; a run bound to a different key is stopped first.
func (m *Monitor) Start(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.run != nil {
		if m.run.key == key {
			return
		}
		m.stopLocked()
	}

	ctx, cancel := context.WithCancel(context.Background())
	run := &monitorRun{
		key:    key,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	m.run = run

	ticker := m.newTicker(m.interval)
	go m.loop(ctx, run, ticker)

	m.logger.Info("monitor started", "key", key, "interval", m.interval)
}

// Stop cancels the current run, if any, and waits for its tick loop to exit.
// It does not wait for an outstanding poll; that poll observes a cancelled
// context instead.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *Monitor) stopLocked() {
	if m.run == nil {
		return
	}
	run := m.run
	m.run = nil
	run.cancel()
	<-run.done
	m.logger.Info("monitor stopped", "key", run.key)
}

// Running reports whether a run is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.run != nil
}

// Key returns the key of the active run, or "" when stopped.
func (m *Monitor) Key() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.run == nil {
		return ""
	}
	return m.run.key
}

// Wait blocks until every poll started so far has returned.
func (m *Monitor) Wait() {
	m.polls.Wait()
}

func (m *Monitor) loop(ctx context.Context, run *monitorRun, ticker Ticker) {
	defer close(run.done)
	defer ticker.Stop()

	if m.immediate {
		m.fire(ctx, run)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			// A tick and a cancellation may be ready together; cancellation wins.
			if ctx.Err() != nil {
				return
			}
			m.fire(ctx, run)
		}
	}
}

// fire starts one poll unless the previous one is still outstanding.
func (m *Monitor) fire(ctx context.Context, run *monitorRun) {
	if !run.inFlight.CompareAndSwap(false, true) {
		m.logger.Debug("tick skipped, poll outstanding", "key", run.key)
		m.onSkip(run.key)
		return
	}

	m.polls.Add(1)
	go func() {
		defer m.polls.Done()
		defer run.inFlight.Store(false)
		m.poll(ctx, run.key)
	}()
}
