// Package pubsub fans values from background producers out to Bubble Tea
// listeners. The logger uses it to feed the log overlay.
package pubsub

import (
	"context"
	"time"
)

// EventType names what an event announces.
type EventType string

// AppendedEvent announces a new entry, e.g. a log line.
const AppendedEvent EventType = "appended"

// Event is one published value.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber hands out event channels scoped to a context.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}
