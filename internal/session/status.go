package session

// Status is the pairing lifecycle state of a session.
type Status int

const (
	// StatusNone means no session exists.
	StatusNone Status = iota
	// StatusWaiting means a code was issued and the peer has not connected yet.
	StatusWaiting
	// StatusPaired means the peer connected with the code.
	StatusPaired
	// StatusDisconnected means the peer ended a previously paired session.
	StatusDisconnected
)

func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusPaired:
		return "paired"
	case StatusDisconnected:
		return "disconnected"
	default:
		return "none"
	}
}

// ParseStatus converts a backend status string into a Status.
// Unrecognized values (including empty) map to StatusNone so a backend
// speaking a newer protocol can never put the controller in an invalid state.
func ParseStatus(v string) Status {
	switch v {
	case "paired":
		return StatusPaired
	case "waiting":
		return StatusWaiting
	case "disconnected":
		return StatusDisconnected
	default:
		return StatusNone
	}
}

// Session is a snapshot of the controller's session state.
// Code is non-empty exactly when Status is Waiting, Paired, or Disconnected.
type Session struct {
	Code   string
	Status Status
}
