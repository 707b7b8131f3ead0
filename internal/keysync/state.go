package keysync

import "fmt"

// State is the position of a session in the synchronization protocol.
type State int

const (
	StateAnonymous State = iota
	StateRegistering
	StateBootstrapping
	StateFetching
	// StateWaiting means a key exists for the account but has not been wrapped
	// for this device yet.
	StateWaiting
	StateSynced
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "ANONYMOUS"
	case StateRegistering:
		return "REGISTERING"
	case StateBootstrapping:
		return "BOOTSTRAPPING"
	case StateFetching:
		return "FETCHING"
	case StateWaiting:
		return "WAITING"
	case StateSynced:
		return "SYNCED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// inFlight reports whether an initialization is running in this state.
func (s State) inFlight() bool {
	return s == StateRegistering || s == StateBootstrapping || s == StateFetching
}
