package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type testEvent struct {
	value int
}

// TestEventEmitter will test subscription and publishing of events through an EventEmitter.
func TestEventEmitter(t *testing.T) {
	emitter := EventEmitter[testEvent]{}

	// Subscribe two handlers which record the values they observe.
	observed := make([]int, 0)
	emitter.Subscribe(func(e testEvent) error {
		observed = append(observed, e.value)
		return nil
	})
	emitter.Subscribe(func(e testEvent) error {
		observed = append(observed, e.value*10)
		return nil
	})

	// Publish an event and ensure both handlers fired in order.
	err := emitter.Publish(testEvent{value: 7})
	assert.NoError(t, err)
	assert.Equal(t, []int{7, 70}, observed)
}

// TestEventEmitterHandlerError will test that a handler error aborts publishing and is surfaced.
func TestEventEmitterHandlerError(t *testing.T) {
	emitter := EventEmitter[testEvent]{}
	handlerErr := errors.New("handler failure")

	// The first handler errors, the second must never run.
	secondRan := false
	emitter.Subscribe(func(e testEvent) error {
		return handlerErr
	})
	emitter.Subscribe(func(e testEvent) error {
		secondRan = true
		return nil
	})

	err := emitter.Publish(testEvent{value: 1})
	assert.ErrorIs(t, err, handlerErr)
	assert.False(t, secondRan)
}
