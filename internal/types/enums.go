package types

// Severity classifies an UpdateEvent.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// SessionState is the lifecycle state of the route session.
type SessionState string

const (
	StateEmpty         SessionState = "empty"
	StateCreating      SessionState = "creating"
	StateActive        SessionState = "active"
	StateRefreshing    SessionState = "refreshing"
	StateForcingUpdate SessionState = "forcing_update"
	StateDeleting      SessionState = "deleting"
)

// Busy reports whether a network-bound operation is running in this state.
func (s SessionState) Busy() bool {
	switch s {
	case StateCreating, StateRefreshing, StateForcingUpdate, StateDeleting:
		return true
	default:
		return false
	}
}

// GridStep is the routing grid resolution in degrees.
type GridStep float64

// Grid steps a user may choose from.
const (
	GridStepCoarse GridStep = 0.5
	GridStepMedium GridStep = 0.25
	GridStepFine   GridStep = 0.1
)

// DefaultGridStep is the resolution selected when a session starts.
const DefaultGridStep = GridStepMedium

// GridStepMenu lists the selectable resolutions, coarsest first.
var GridStepMenu = []GridStep{GridStepCoarse, GridStepMedium, GridStepFine}

// IsSelectable reports whether s is one of the menu values.
func (s GridStep) IsSelectable() bool {
	for _, m := range GridStepMenu {
		if s == m {
			return true
		}
	}
	return false
}

// PollOutcome is how a status poll ended.
type PollOutcome string

const (
	// PollUpdated means a recomputed path was appended.
	PollUpdated PollOutcome = "updated"
	// PollUnchanged means the service reported nothing new.
	PollUnchanged PollOutcome = "unchanged"
	// PollFailed means the status call returned an error.
	PollFailed PollOutcome = "failed"
	// PollSkipped means another operation held the session.
	PollSkipped PollOutcome = "skipped"
	// PollStale means the result targeted a session that is no longer active.
	PollStale PollOutcome = "stale"
)

// Operation names a state-mutating session operation.
type Operation string

const (
	OpCreateRoute Operation = "create_route"
	OpRefresh     Operation = "refresh"
	OpForceUpdate Operation = "force_update"
	OpClearRoute  Operation = "clear_route"
)
