package protocol

// RPC method names accepted by the gateway.
const (
	MethodConnect           = "connect"
	MethodSessionCreate     = "session.create"
	MethodSessionStatus     = "session.status"
	MethodSessionDisconnect = "session.disconnect"
)

// WebSocket event names pushed from the gateway to clients.
const (
	EventSessionPaired       = "session.paired"
	EventSessionDisconnected = "session.disconnected"
	EventHeartbeat           = "heartbeat"
	EventShutdown            = "shutdown"
)

// Session status values carried in session.status responses.
// Clients must treat any other value as "no session".
const (
	StatusPaired       = "paired"
	StatusWaiting      = "waiting"
	StatusDisconnected = "disconnected"
)
