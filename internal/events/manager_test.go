package events

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusPublishAndSubscribe(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	bus.Publish(Event{Type: RunStarted, Module: "qaoa"})

	event := <-ch
	assert.Equal(t, RunStarted, event.Type)
	assert.Equal(t, "qaoa", event.Module)
}

func TestBusFanOut(t *testing.T) {
	bus := NewBus()
	a := bus.Subscribe()
	b := bus.Subscribe()
	defer bus.Unsubscribe(a)
	defer bus.Unsubscribe(b)

	bus.Publish(Event{Type: RunCompleted})

	assert.Equal(t, RunCompleted, (<-a).Type)
	assert.Equal(t, RunCompleted, (<-b).Type)
}

func TestBusDropsWhenSubscriberIsFull(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	// Publish must never block, even against a saturated subscriber
	for i := 0; i < 200; i++ {
		bus.Publish(Event{Type: RunIteration})
	}

	assert.Len(t, ch, cap(ch))
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe()
	bus.Unsubscribe(ch)

	_, open := <-ch
	assert.False(t, open)

	// Publishing after unsubscribe must not panic
	bus.Publish(Event{Type: RunStarted})
}

func TestManagerEmitTyped(t *testing.T) {
	bus := NewBus()
	manager := NewManager(bus, zerolog.Nop())

	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	manager.EmitTyped("qaoa", &RunCompletedData{
		RunID:       "run-1",
		OptimalCost: -3.5,
		Iterations:  42,
		Converged:   true,
	})

	event := <-ch
	assert.Equal(t, RunCompleted, event.Type)
	assert.Equal(t, "qaoa", event.Module)
	assert.False(t, event.Timestamp.IsZero())

	data, ok := event.Data.(*RunCompletedData)
	require.True(t, ok)
	assert.Equal(t, "run-1", data.RunID)
	assert.Equal(t, 42, data.Iterations)
}

func TestManagerEmitError(t *testing.T) {
	bus := NewBus()
	manager := NewManager(bus, zerolog.Nop())

	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	manager.EmitError("simulator", errors.New("circuit too large"))

	event := <-ch
	assert.Equal(t, ErrorOccurred, event.Type)
	assert.Equal(t, "simulator", event.Module)
}

func TestEventDataTypes(t *testing.T) {
	assert.Equal(t, RunStarted, (&RunStartedData{}).EventType())
	assert.Equal(t, RunIteration, (&RunIterationData{}).EventType())
	assert.Equal(t, RunCompleted, (&RunCompletedData{}).EventType())
	assert.Equal(t, RunFailed, (&RunFailedData{}).EventType())
}
