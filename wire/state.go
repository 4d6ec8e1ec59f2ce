package wire

// State represents the lifecycle of one wire session.
//
// Transitions are strictly forward: Unconnected -> Connected on session
// establishment, Connected -> Closing on local Close or remote EOF/error,
// Closing -> Closed once teardown has fired. Teardown fires exactly once per
// session; repeated Close calls are no-ops.
type State int

const (
	// StateUnconnected is the initial state before a transport is attached.
	StateUnconnected State = iota
	// StateConnected indicates the session is live and writable.
	StateConnected
	// StateClosing indicates teardown has started.
	StateClosing
	// StateClosed indicates teardown has completed.
	StateClosed
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnconnected:
		return "Unconnected"
	case StateConnected:
		return "Connected"
	case StateClosing:
		return "Closing"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}
