package model

import "strings"

// State is the lifecycle state of a job within a batch.
type State string

const (
	StateQueued      State = "queued"
	StateDownloading State = "downloading"
	StateRetrying    State = "retrying"
	StatePaused      State = "paused"
	StateDone        State = "done"
	StateSkipped     State = "skipped"
	StateError       State = "error"
	StateCancelled   State = "cancelled"
)

// Per-job transitions are strictly ordered because a job runs on exactly one
// worker at a time. A paused job is requeued, so paused leads back to queued.
var allowedTransitions = map[State]map[State]bool{
	"": {
		StateQueued: true,
	},
	StateQueued: {
		StateQueued:      true,
		StateDownloading: true,
		StatePaused:      true,
		StateCancelled:   true,
		StateError:       true,
	},
	StateDownloading: {
		StateDownloading: true,
		StateRetrying:    true,
		StatePaused:      true,
		StateDone:        true,
		StateSkipped:     true,
		StateError:       true,
		StateCancelled:   true,
	},
	StateRetrying: {
		StateRetrying:    true,
		StateDownloading: true,
		StatePaused:      true,
		StateError:       true,
		StateCancelled:   true,
	},
	StatePaused: {
		StatePaused:      true,
		StateQueued:      true,
		StateDownloading: true,
		StateCancelled:   true,
	},
	StateDone:      {StateDone: true},
	StateSkipped:   {StateSkipped: true},
	StateError:     {StateError: true},
	StateCancelled: {StateCancelled: true},
}

// Terminal reports whether no further attempts follow this state.
func (s State) Terminal() bool {
	switch s {
	case StateDone, StateSkipped, StateError, StateCancelled:
		return true
	default:
		return false
	}
}

func IsKnownState(s State) bool {
	_, ok := allowedTransitions[s]
	return ok
}

// CanTransition reports whether from -> to is a valid per-job edge. Status
// consumers use it to drop stale notifications that arrive out of order.
func CanTransition(from, to State) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// NormalizeState maps unknown state strings to error, matching how results
// from a misbehaving executor are accounted.
func NormalizeState(raw string) State {
	s := State(normalizeToken(raw))
	if IsKnownState(s) && s != "" {
		return s
	}
	return StateError
}

func normalizeToken(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
