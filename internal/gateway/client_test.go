package gateway

import (
	"testing"
	"time"

	"github.com/nextlevelbuilder/pairlink/internal/bus"
	"github.com/nextlevelbuilder/pairlink/pkg/protocol"
)

// newLoopbackClient builds a client without a connection, enough to
// exercise frame dispatch.
func newLoopbackClient() *Client {
	return &Client{
		send:    make(chan []byte, 8),
		bus:     bus.New(),
		dedupe:  bus.NewDedupeCache(time.Minute, 16),
		pending: make(map[string]chan *protocol.ResponseFrame),
		done:    make(chan struct{}),
	}
}

func TestHandleFrame_ResponseDelivery(t *testing.T) {
	c := newLoopbackClient()

	ch := make(chan *protocol.ResponseFrame, 1)
	c.pending["req-1"] = ch

	c.handleFrame([]byte(`{"type":"res","id":"req-1","ok":true,"payload":{"code":"AB23XY99"}}`))

	select {
	case resp := <-ch:
		if !resp.OK {
			t.Error("response not OK")
		}
		if string(resp.Payload) != `{"code":"AB23XY99"}` {
			t.Errorf("payload = %s", resp.Payload)
		}
	default:
		t.Fatal("response not delivered to pending call")
	}
}

func TestHandleFrame_UnknownResponseIgnored(t *testing.T) {
	c := newLoopbackClient()
	// Must not panic or block.
	c.handleFrame([]byte(`{"type":"res","id":"late-reply","ok":true}`))
}

func TestHandleFrame_EventBroadcast(t *testing.T) {
	c := newLoopbackClient()

	var got []bus.Event
	c.bus.Subscribe("test", func(e bus.Event) { got = append(got, e) })

	c.handleFrame([]byte(`{"type":"event","event":"session.paired","seq":7}`))

	if len(got) != 1 || got[0].Name != protocol.EventSessionPaired || got[0].Seq != 7 {
		t.Fatalf("broadcast = %v, want one session.paired seq=7", got)
	}

	// Redelivery of the same seq is dropped.
	c.handleFrame([]byte(`{"type":"event","event":"session.paired","seq":7}`))
	if len(got) != 1 {
		t.Errorf("duplicate event delivered, got %d events", len(got))
	}

	// A new seq goes through.
	c.handleFrame([]byte(`{"type":"event","event":"session.disconnected","seq":8}`))
	if len(got) != 2 {
		t.Errorf("got %d events, want 2", len(got))
	}
}

func TestHandleFrame_NonStatusEventFiltered(t *testing.T) {
	c := newLoopbackClient()

	delivered := 0
	c.bus.Subscribe("test", func(bus.Event) { delivered++ })

	c.handleFrame([]byte(`{"type":"event","event":"heartbeat","seq":1}`))
	c.handleFrame([]byte(`{"type":"event","event":"shutdown","seq":2}`))

	if delivered != 0 {
		t.Errorf("non-status events delivered: %d", delivered)
	}
}

func TestHandleFrame_Garbage(t *testing.T) {
	c := newLoopbackClient()
	c.handleFrame([]byte(`not json`))
	c.handleFrame([]byte(`{"type":"req"}`))
	c.handleFrame([]byte(`{}`))
}

func TestCreateThrottle(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		th := NewCreateThrottle(0)
		for i := 0; i < 10; i++ {
			if !th.Allow() {
				t.Fatal("disabled throttle denied a request")
			}
		}
	})

	t.Run("burst_then_deny", func(t *testing.T) {
		th := NewCreateThrottle(1)
		if !th.Allow() || !th.Allow() {
			t.Fatal("burst of 2 not allowed")
		}
		if th.Allow() {
			t.Error("third immediate request allowed, want denied")
		}
	})
}
