// Package session implements the client-side pairing session lifecycle.
//
// A Controller owns the pairing status, the active code, and the
// subscription to backend status events. It is driven by three things only:
// explicit Create/Disconnect calls, backend-pushed paired/disconnected
// events, and a one-time Restore at startup.
//
// The backend delivers results and events asynchronously, so they can
// outlive the controller. Every asynchronous result and every subscription
// callback is checked against the disposed flag before it is applied; a
// stale delivery is discarded, never applied. Close both sets the flag and
// releases the subscription — either one alone is insufficient because a
// response may already be in flight when disposal begins.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Backend is the session backend collaborator. HasSession and SessionCode
// are synchronous reads of locally persisted state; the rest are requests
// to the remote gateway.
//
// ListenStatus registers a live subscription and returns its release
// function. Delivery continues until the release function is called.
type Backend interface {
	HasSession() bool
	SessionCode() string
	SessionStatus(ctx context.Context) (string, error)
	CreateSession(ctx context.Context) (string, error)
	DisconnectSession(ctx context.Context) error
	ListenStatus(onPaired, onDisconnected func()) (unsubscribe func())
}

// Callbacks are fired by the controller on state transitions.
// OnSessionCreated fires whenever the session becomes usable (waiting or
// paired) via Create, Restore, or a paired event; it may fire more than
// once per session. OnDisconnected fires only when Disconnect completes.
type Callbacks struct {
	OnSessionCreated func()
	OnDisconnected   func()
}

// ErrCreateInProgress is returned by Create while a previous Create has not
// resolved yet.
var ErrCreateInProgress = errors.New("session: create already in progress")

// Controller drives the pairing session state machine:
//
//	None --Create--> Waiting --paired--> Paired --disconnected--> Disconnected
//
// Disconnect returns any live state to None. Create from Paired or
// Disconnected starts a fresh cycle; the gateway invalidates the old code.
//
// The controller applies no timeouts of its own: a CreateSession or
// SessionStatus call that never resolves leaves the controller in its
// pre-call state indefinitely. Callers that need a bound pass a context
// with a deadline.
type Controller struct {
	backend Backend
	cb      Callbacks

	mu          sync.Mutex
	status      Status
	code        string
	creating    bool
	disposed    bool
	collapsed   bool
	unsubscribe func()
}

// NewController creates a controller around the given backend.
// The backend reference is injected so tests can substitute a double.
func NewController(backend Backend, cb Callbacks) *Controller {
	return &Controller{backend: backend, cb: cb}
}

// Restore recovers a previously persisted session, once at startup.
// If the backend has no persisted session the controller stays at None.
// Otherwise the persisted code is kept and the gateway is queried for the
// live status; an unrecognized status resets to None. A result arriving
// after Close is discarded.
func (c *Controller) Restore(ctx context.Context) error {
	if !c.backend.HasSession() {
		return nil
	}
	code := c.backend.SessionCode()

	raw, err := c.backend.SessionStatus(ctx)

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.status = StatusNone
		c.code = ""
		c.mu.Unlock()
		return fmt.Errorf("restore session: %w", err)
	}

	fire := false
	subscribe := false
	switch ParseStatus(raw) {
	case StatusPaired:
		c.status = StatusPaired
		c.code = code
		fire = true
	case StatusWaiting:
		c.status = StatusWaiting
		c.code = code
		subscribe = true
		fire = true
	case StatusDisconnected:
		c.status = StatusDisconnected
		c.code = code
	default:
		c.status = StatusNone
		c.code = ""
	}
	c.mu.Unlock()

	if subscribe {
		c.listen()
	}
	if fire {
		c.fireSessionCreated()
	}
	return nil
}

// Create requests a new session code from the gateway. While a Create is in
// flight further calls return ErrCreateInProgress. On failure the prior
// status is kept and no code is surfaced. On success the controller moves
// to Waiting, subscribes for status events, and fires OnSessionCreated.
func (c *Controller) Create(ctx context.Context) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	if c.creating {
		c.mu.Unlock()
		return ErrCreateInProgress
	}
	c.creating = true
	c.mu.Unlock()

	code, err := c.backend.CreateSession(ctx)

	c.mu.Lock()
	c.creating = false
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("create session: %w", err)
	}
	c.status = StatusWaiting
	c.code = code
	c.mu.Unlock()

	c.listen()
	c.fireSessionCreated()
	return nil
}

// Disconnect tears down the active session. The local transition to None is
// authoritative: it happens and OnDisconnected fires even when the gateway
// teardown fails, trading strict consistency for responsiveness. After
// Close, Disconnect does nothing, not even the gateway call.
func (c *Controller) Disconnect(ctx context.Context) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if err := c.backend.DisconnectSession(ctx); err != nil {
		slog.Warn("session disconnect: backend teardown failed", "error", err)
	}

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	unsub := c.unsubscribe
	c.unsubscribe = nil
	c.status = StatusNone
	c.code = ""
	c.collapsed = false
	cb := c.cb.OnDisconnected
	c.mu.Unlock()

	// Released without c.mu held: the backend serializes release against
	// event delivery, and a delivery in flight takes c.mu.
	if unsub != nil {
		unsub()
	}
	if cb != nil {
		cb()
	}
}

// Close marks the controller disposed and releases the backend
// subscription. In-flight Restore/Create results and queued status events
// delivered after Close do not mutate state and fire no callbacks.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	unsub := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// listen subscribes to backend status events, keeping at most one live
// subscription. ListenStatus is never called with c.mu held: the backend
// serializes subscription changes against event delivery, and a delivery in
// flight takes c.mu. A subscription raced by Close or Disconnect is
// released immediately.
func (c *Controller) listen() {
	c.mu.Lock()
	if c.disposed || c.unsubscribe != nil {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	unsub := c.backend.ListenStatus(c.handlePaired, c.handleDisconnected)

	c.mu.Lock()
	stale := c.disposed || c.unsubscribe != nil ||
		(c.status != StatusWaiting && c.status != StatusPaired)
	if !stale {
		c.unsubscribe = unsub
	}
	c.mu.Unlock()

	if stale {
		unsub()
	}
}

func (c *Controller) handlePaired() {
	c.mu.Lock()
	// No backend event transitions out of None or Disconnected; an event
	// racing a completed Disconnect is stale and ignored.
	if c.disposed || (c.status != StatusWaiting && c.status != StatusPaired) {
		c.mu.Unlock()
		return
	}
	c.status = StatusPaired
	c.mu.Unlock()

	// Fired again even when already paired: it signals "connection
	// usable now".
	c.fireSessionCreated()
}

func (c *Controller) handleDisconnected() {
	c.mu.Lock()
	if !c.disposed && (c.status == StatusWaiting || c.status == StatusPaired) {
		// Code is retained so it stays visible until a new session
		// is created or the controller is reset.
		c.status = StatusDisconnected
	}
	c.mu.Unlock()
}

func (c *Controller) fireSessionCreated() {
	c.mu.Lock()
	cb := c.cb.OnSessionCreated
	disposed := c.disposed
	c.mu.Unlock()
	if !disposed && cb != nil {
		cb()
	}
}

// Session returns a snapshot of the current session state.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Session{Code: c.code, Status: c.status}
}

// Status returns the current pairing status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Code returns the active session code, or "" when none exists.
func (c *Controller) Code() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.code
}

// CanCollapse reports whether the session view may be collapsed.
// Collapsing is allowed only while paired.
func (c *Controller) CanCollapse() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status == StatusPaired
}

// ToggleCollapse flips the collapsed flag when collapsing is allowed and
// returns the resulting state.
func (c *Controller) ToggleCollapse() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == StatusPaired {
		c.collapsed = !c.collapsed
	}
	return c.collapsed
}

// Collapsed reports whether the session view is collapsed.
func (c *Controller) Collapsed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collapsed
}
