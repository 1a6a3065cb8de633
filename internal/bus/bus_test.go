package bus

import (
	"testing"
	"time"

	"github.com/nextlevelbuilder/pairlink/pkg/protocol"
)

func TestStatusBus_SubscribeBroadcastUnsubscribe(t *testing.T) {
	b := New()

	var got []Event
	b.Subscribe("sub-1", func(e Event) { got = append(got, e) })

	b.Broadcast(Event{Name: protocol.EventSessionPaired, Seq: 1})
	b.Broadcast(Event{Name: protocol.EventSessionDisconnected, Seq: 2})

	if len(got) != 2 {
		t.Fatalf("delivered %d events, want 2", len(got))
	}
	if got[0].Name != protocol.EventSessionPaired || got[1].Name != protocol.EventSessionDisconnected {
		t.Errorf("delivery order wrong: %v", got)
	}

	b.Unsubscribe("sub-1")
	b.Broadcast(Event{Name: protocol.EventSessionPaired, Seq: 3})

	if len(got) != 2 {
		t.Errorf("delivered %d events after unsubscribe, want 2", len(got))
	}
	if b.Len() != 0 {
		t.Errorf("Len = %d, want 0", b.Len())
	}
}

func TestStatusBus_ResubscribeReplaces(t *testing.T) {
	b := New()

	first, second := 0, 0
	b.Subscribe("sub", func(Event) { first++ })
	b.Subscribe("sub", func(Event) { second++ })

	b.Broadcast(Event{Name: protocol.EventSessionPaired})

	if first != 0 || second != 1 {
		t.Errorf("first=%d second=%d, want 0/1", first, second)
	}
}

func TestIsStatusEvent(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{protocol.EventSessionPaired, true},
		{protocol.EventSessionDisconnected, true},
		{protocol.EventHeartbeat, false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsStatusEvent(tt.name); got != tt.want {
			t.Errorf("IsStatusEvent(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDedupeCache(t *testing.T) {
	d := NewDedupeCache(time.Minute, 10)

	if d.IsDuplicate("session.paired/1") {
		t.Error("first delivery reported as duplicate")
	}
	if !d.IsDuplicate("session.paired/1") {
		t.Error("redelivery not reported as duplicate")
	}
	if d.IsDuplicate("session.paired/2") {
		t.Error("distinct seq reported as duplicate")
	}
}

func TestDedupeCache_TTLExpiry(t *testing.T) {
	d := NewDedupeCache(20*time.Millisecond, 10)

	d.IsDuplicate("k")
	time.Sleep(50 * time.Millisecond)

	if d.IsDuplicate("k") {
		t.Error("expired entry still reported as duplicate")
	}
}
