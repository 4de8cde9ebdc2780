// Package events provides typed system events and their fan-out to subscribers.
package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType represents different event types
type EventType string

const (
	RunStarted    EventType = "RUN_STARTED"
	RunIteration  EventType = "RUN_ITERATION"
	RunCompleted  EventType = "RUN_COMPLETED"
	RunFailed     EventType = "RUN_FAILED"
	ErrorOccurred EventType = "ERROR_OCCURRED"
)

// Event represents a system event
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
	Module    string      `json:"module"`
}

// Bus fans events out to subscribers (SSE stream, tests).
// Slow subscribers are skipped rather than blocking emitters.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[chan Event]struct{}),
	}
}

// Subscribe registers a new subscriber channel
func (b *Bus) Subscribe() chan Event {
	ch := make(chan Event, 64)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber channel
func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Publish delivers an event to all subscribers without blocking
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber buffer full, drop
		}
	}
}

// Manager handles event emission and logging
type Manager struct {
	log zerolog.Logger
	bus *Bus
}

// NewManager creates a new event manager
func NewManager(bus *Bus, log zerolog.Logger) *Manager {
	return &Manager{
		log: log.With().Str("service", "events").Logger(),
		bus: bus,
	}
}

// EmitTyped emits an event with type-safe data
func (m *Manager) EmitTyped(module string, data EventData) {
	event := Event{
		Type:      data.EventType(),
		Timestamp: time.Now(),
		Data:      data,
		Module:    module,
	}

	eventJSON, _ := json.Marshal(event)
	m.log.Debug().
		Str("event_type", string(event.Type)).
		Str("module", module).
		RawJSON("event", eventJSON).
		Msg("Event emitted")

	if m.bus != nil {
		m.bus.Publish(event)
	}
}

// EmitError emits an error event
func (m *Manager) EmitError(module string, err error) {
	event := Event{
		Type:      ErrorOccurred,
		Timestamp: time.Now(),
		Data:      map[string]interface{}{"error": err.Error()},
		Module:    module,
	}

	m.log.Error().
		Err(err).
		Str("module", module).
		Msg("Error event emitted")

	if m.bus != nil {
		m.bus.Publish(event)
	}
}
