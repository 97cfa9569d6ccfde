package service

import (
	"time"

	"github.com/M-LunaFarm/NationSystem/internal/domain"
)

// Events is a buffered fan-in of domain events for WebSocket broadcasting.
type Events struct {
	ch chan domain.Event
}

// NewEvents creates an event sink.
func NewEvents() *Events {
	return &Events{ch: make(chan domain.Event, 100)}
}

// C returns the consumer side of the event stream.
func (e *Events) C() <-chan domain.Event {
	return e.ch
}

// Emit publishes an event. Drops when the consumer falls behind.
func (e *Events) Emit(eventType string, nationID int64, data interface{}) {
	if e == nil {
		return
	}
	select {
	case e.ch <- domain.Event{
		Type:      eventType,
		NationID:  nationID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}:
	default:
		// Channel full, drop event
	}
}
