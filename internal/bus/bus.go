// Package bus fans session status events out from the gateway connection
// to in-process subscribers.
package bus

import (
	"sync"

	"github.com/nextlevelbuilder/pairlink/pkg/protocol"
)

// Event is a status event delivered by the gateway.
type Event struct {
	Name string // protocol event name, e.g. "session.paired"
	Seq  int64  // gateway ordering sequence number
}

// EventHandler receives broadcast events. Handlers must not block.
type EventHandler func(Event)

// StatusBus routes gateway status events to subscribers.
// Events are delivered to each subscriber in broadcast order.
type StatusBus struct {
	mu          sync.RWMutex
	subscribers map[string]EventHandler
}

func New() *StatusBus {
	return &StatusBus{
		subscribers: make(map[string]EventHandler),
	}
}

// Subscribe registers an event subscriber under id. Subscribing an id twice
// replaces the previous handler.
func (b *StatusBus) Subscribe(id string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[id] = handler
}

// Unsubscribe removes an event subscriber. Unknown ids are a no-op.
func (b *StatusBus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, id)
}

// Broadcast sends an event to all subscribers.
func (b *StatusBus) Broadcast(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, handler := range b.subscribers {
		handler(event)
	}
}

// Len returns the number of active subscribers.
func (b *StatusBus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// IsStatusEvent reports whether name is a session status event the bus
// should carry.
func IsStatusEvent(name string) bool {
	return name == protocol.EventSessionPaired || name == protocol.EventSessionDisconnected
}
