package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nextlevelbuilder/pairlink/internal/bus"
	"github.com/nextlevelbuilder/pairlink/internal/store"
	"github.com/nextlevelbuilder/pairlink/pkg/protocol"
)

type memSessions struct {
	data store.SessionData
	ok   bool
}

func (m *memSessions) Load() (store.SessionData, bool) { return m.data, m.ok }

func (m *memSessions) Save(d store.SessionData) error {
	m.data, m.ok = d, true
	return nil
}

func (m *memSessions) Clear() error {
	m.data, m.ok = store.SessionData{}, false
	return nil
}

type fakeRPC struct {
	events  *bus.StatusBus
	calls   []string
	handler func(method string, params json.RawMessage) (json.RawMessage, error)
}

func (f *fakeRPC) Call(_ context.Context, method string, params json.RawMessage) (json.RawMessage, error) {
	f.calls = append(f.calls, method)
	if f.handler == nil {
		return nil, errors.New("no handler")
	}
	return f.handler(method, params)
}

func (f *fakeRPC) Bus() *bus.StatusBus { return f.events }

func newTestBackend(handler func(method string, params json.RawMessage) (json.RawMessage, error)) (*Backend, *fakeRPC, *memSessions) {
	rpc := &fakeRPC{events: bus.New(), handler: handler}
	sessions := &memSessions{}
	return newBackend(rpc, sessions, 0), rpc, sessions
}

func TestBackend_NoPersistedSession(t *testing.T) {
	b, rpc, _ := newTestBackend(nil)

	if b.HasSession() {
		t.Error("HasSession = true with empty store")
	}
	if code := b.SessionCode(); code != "" {
		t.Errorf("SessionCode = %q, want empty", code)
	}

	// Status query short-circuits without a persisted code.
	status, err := b.SessionStatus(context.Background())
	if err != nil || status != "" {
		t.Errorf("SessionStatus = (%q, %v), want (\"\", nil)", status, err)
	}
	if len(rpc.calls) != 0 {
		t.Errorf("rpc calls = %v, want none", rpc.calls)
	}
}

func TestBackend_SessionStatus(t *testing.T) {
	b, _, sessions := newTestBackend(func(method string, params json.RawMessage) (json.RawMessage, error) {
		if method != protocol.MethodSessionStatus {
			t.Errorf("method = %q, want session.status", method)
		}
		var p struct {
			Code string `json:"code"`
		}
		json.Unmarshal(params, &p)
		if p.Code != "AB23XY99" {
			t.Errorf("queried code = %q, want AB23XY99", p.Code)
		}
		return json.RawMessage(`{"status":"waiting"}`), nil
	})
	sessions.Save(store.SessionData{Code: "AB23XY99", Status: "waiting"})

	status, err := b.SessionStatus(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status != "waiting" {
		t.Errorf("status = %q, want waiting", status)
	}
}

func TestBackend_SessionStatus_UnknownCode(t *testing.T) {
	b, _, sessions := newTestBackend(func(string, json.RawMessage) (json.RawMessage, error) {
		return nil, &RPCError{Code: protocol.ErrNotFound, Message: "no such session"}
	})
	sessions.Save(store.SessionData{Code: "AB23XY99"})

	// A gateway that forgot the code is "no session", not an error.
	status, err := b.SessionStatus(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status != "" {
		t.Errorf("status = %q, want empty", status)
	}
}

func TestBackend_CreateSession(t *testing.T) {
	b, _, sessions := newTestBackend(func(method string, _ json.RawMessage) (json.RawMessage, error) {
		if method != protocol.MethodSessionCreate {
			t.Errorf("method = %q, want session.create", method)
		}
		return json.RawMessage(`{"code":"AB23XY99"}`), nil
	})

	code, err := b.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if code != "AB23XY99" {
		t.Errorf("code = %q, want AB23XY99", code)
	}

	data, ok := sessions.Load()
	if !ok || data.Code != "AB23XY99" || data.Status != protocol.StatusWaiting {
		t.Errorf("persisted %+v, want {AB23XY99 waiting}", data)
	}
}

func TestBackend_CreateSession_MalformedCode(t *testing.T) {
	b, _, sessions := newTestBackend(func(string, json.RawMessage) (json.RawMessage, error) {
		return json.RawMessage(`{"code":"bad"}`), nil
	})

	if _, err := b.CreateSession(context.Background()); err == nil {
		t.Fatal("create with malformed code: want error")
	}
	if sessions.ok {
		t.Error("malformed code was persisted")
	}
}

func TestBackend_CreateSession_Throttled(t *testing.T) {
	rpc := &fakeRPC{events: bus.New(), handler: func(string, json.RawMessage) (json.RawMessage, error) {
		return json.RawMessage(`{"code":"AB23XY99"}`), nil
	}}
	b := newBackend(rpc, &memSessions{}, 1) // 1/min, burst 2

	for i := 0; i < 2; i++ {
		if _, err := b.CreateSession(context.Background()); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	if _, err := b.CreateSession(context.Background()); err == nil {
		t.Error("third immediate create: want throttle error")
	}
	if len(rpc.calls) != 2 {
		t.Errorf("rpc calls = %d, want 2 (throttled call must not reach gateway)", len(rpc.calls))
	}
}

func TestBackend_DisconnectSession(t *testing.T) {
	b, rpc, sessions := newTestBackend(func(method string, _ json.RawMessage) (json.RawMessage, error) {
		return json.RawMessage(`{}`), nil
	})
	sessions.Save(store.SessionData{Code: "AB23XY99", Status: "paired"})

	if err := b.DisconnectSession(context.Background()); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	if sessions.ok {
		t.Error("session store not cleared")
	}
	if len(rpc.calls) != 1 || rpc.calls[0] != protocol.MethodSessionDisconnect {
		t.Errorf("rpc calls = %v, want [session.disconnect]", rpc.calls)
	}
}

func TestBackend_DisconnectSession_GatewayFailureStillClears(t *testing.T) {
	b, _, sessions := newTestBackend(func(string, json.RawMessage) (json.RawMessage, error) {
		return nil, &RPCError{Code: protocol.ErrUnavailable, Message: "shutting down"}
	})
	sessions.Save(store.SessionData{Code: "AB23XY99", Status: "paired"})

	err := b.DisconnectSession(context.Background())
	if err == nil {
		t.Fatal("disconnect: want gateway error")
	}
	if sessions.ok {
		t.Error("local session must be cleared even when gateway teardown fails")
	}
}

func TestBackend_ListenStatus(t *testing.T) {
	b, rpc, sessions := newTestBackend(nil)
	sessions.Save(store.SessionData{Code: "AB23XY99", Status: "waiting"})

	paired, disconnected := 0, 0
	unsubscribe := b.ListenStatus(func() { paired++ }, func() { disconnected++ })

	rpc.events.Broadcast(bus.Event{Name: protocol.EventSessionPaired, Seq: 1})
	if paired != 1 || disconnected != 0 {
		t.Errorf("after paired event: paired=%d disconnected=%d", paired, disconnected)
	}
	if data, _ := sessions.Load(); data.Status != protocol.StatusPaired {
		t.Errorf("persisted status = %q, want paired", data.Status)
	}

	rpc.events.Broadcast(bus.Event{Name: protocol.EventSessionDisconnected, Seq: 2})
	if disconnected != 1 {
		t.Errorf("disconnected fired %d times, want 1", disconnected)
	}
	if data, _ := sessions.Load(); data.Status != protocol.StatusDisconnected {
		t.Errorf("persisted status = %q, want disconnected", data.Status)
	}

	unsubscribe()
	rpc.events.Broadcast(bus.Event{Name: protocol.EventSessionPaired, Seq: 3})
	if paired != 1 {
		t.Errorf("event delivered after unsubscribe: paired=%d", paired)
	}
}
