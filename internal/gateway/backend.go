package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/pairlink/internal/bus"
	"github.com/nextlevelbuilder/pairlink/internal/store"
	"github.com/nextlevelbuilder/pairlink/pkg/protocol"
)

// rpc is the slice of Client the backend needs; tests substitute a double.
type rpc interface {
	Call(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error)
	Bus() *bus.StatusBus
}

// Backend implements the session backend contract over the gateway RPC
// client and a local session store. The store provides the synchronous
// HasSession/SessionCode reads; everything else goes to the gateway.
type Backend struct {
	client   rpc
	sessions store.SessionStore
	throttle *CreateThrottle
}

// NewBackend creates a session backend. createsPerMinute throttles
// CreateSession requests (<= 0 disables the throttle).
func NewBackend(client *Client, sessions store.SessionStore, createsPerMinute int) *Backend {
	return newBackend(client, sessions, createsPerMinute)
}

func newBackend(client rpc, sessions store.SessionStore, createsPerMinute int) *Backend {
	return &Backend{
		client:   client,
		sessions: sessions,
		throttle: NewCreateThrottle(createsPerMinute),
	}
}

// HasSession reports whether a session was previously persisted.
func (b *Backend) HasSession() bool {
	_, ok := b.sessions.Load()
	return ok
}

// SessionCode returns the persisted session code, or "".
func (b *Backend) SessionCode() string {
	data, _ := b.sessions.Load()
	return data.Code
}

// SessionStatus queries the gateway for the live status of the persisted
// session. A gateway that no longer knows the code yields "", which
// callers treat as "no session".
func (b *Backend) SessionStatus(ctx context.Context) (string, error) {
	data, ok := b.sessions.Load()
	if !ok {
		return "", nil
	}

	params, _ := json.Marshal(map[string]string{"code": data.Code})
	payload, err := b.client.Call(ctx, protocol.MethodSessionStatus, params)
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) && rpcErr.Code == protocol.ErrNotFound {
			return "", nil
		}
		return "", err
	}

	var result struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(payload, &result); err != nil {
		return "", fmt.Errorf("parse session status: %w", err)
	}
	return result.Status, nil
}

// CreateSession requests a new session code from the gateway and persists
// it locally.
func (b *Backend) CreateSession(ctx context.Context) (string, error) {
	if !b.throttle.Allow() {
		return "", errors.New("session create throttled, retry shortly")
	}

	payload, err := b.client.Call(ctx, protocol.MethodSessionCreate, nil)
	if err != nil {
		return "", err
	}

	var result struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(payload, &result); err != nil {
		return "", fmt.Errorf("parse created session: %w", err)
	}
	if err := store.ValidateSessionCode(result.Code); err != nil {
		return "", fmt.Errorf("gateway issued malformed code: %w", err)
	}

	if err := b.sessions.Save(store.SessionData{
		Code:      result.Code,
		Status:    protocol.StatusWaiting,
		UpdatedAt: time.Now(),
	}); err != nil {
		slog.Warn("persist session failed", "error", err)
	}
	return result.Code, nil
}

// DisconnectSession tears down the session on the gateway, best-effort,
// and clears the local record either way: the local view is authoritative.
func (b *Backend) DisconnectSession(ctx context.Context) error {
	data, ok := b.sessions.Load()

	if err := b.sessions.Clear(); err != nil {
		slog.Warn("clear session store failed", "error", err)
	}
	if !ok {
		return nil
	}

	params, _ := json.Marshal(map[string]string{"code": data.Code})
	if _, err := b.client.Call(ctx, protocol.MethodSessionDisconnect, params); err != nil {
		return err
	}
	return nil
}

// ListenStatus subscribes to pushed status events and returns the release
// function for the subscription. Events also update the persisted status
// so a later restore sees what this client last observed.
func (b *Backend) ListenStatus(onPaired, onDisconnected func()) func() {
	id := uuid.NewString()
	b.client.Bus().Subscribe(id, func(e bus.Event) {
		switch e.Name {
		case protocol.EventSessionPaired:
			b.persistStatus(protocol.StatusPaired)
			onPaired()
		case protocol.EventSessionDisconnected:
			b.persistStatus(protocol.StatusDisconnected)
			onDisconnected()
		}
	})
	return func() { b.client.Bus().Unsubscribe(id) }
}

func (b *Backend) persistStatus(status string) {
	data, ok := b.sessions.Load()
	if !ok {
		return
	}
	data.Status = status
	data.UpdatedAt = time.Now()
	if err := b.sessions.Save(data); err != nil {
		slog.Warn("persist session status failed", "status", status, "error", err)
	}
}
