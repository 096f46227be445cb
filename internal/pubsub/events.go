// Package pubsub fans build notifications out to subscribers.
package pubsub

import (
	"context"
	"time"
)

// EventType names what happened to a build.
type EventType string

const (
	BuildSucceeded EventType = "build.succeeded"
	BuildFailed    EventType = "build.failed"
)

// Event is a published notification with a typed payload. Seq starts at 1
// and increases with every Publish on the same broker, delivered or not, so
// a subscriber can tell when it missed events.
type Event[T any] struct {
	Seq       uint64
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher publishes events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T) int
}
