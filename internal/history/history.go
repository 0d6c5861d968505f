package history

import (
	"context"
	"time"
)

// EventType defines the kind of lifecycle event.
type EventType string

const (
	EventStart EventType = "start"
	EventStop  EventType = "stop"
)

// Record statuses.
const (
	StatusSpawned    = "spawned"
	StatusTerminated = "terminated"
	StatusFailed     = "failed"
)

// Record describes the mock server process an event refers to.
// Name and Port are empty for stop events since only pids are persisted.
type Record struct {
	Name   string `json:"name"`
	PID    int    `json:"pid"`
	Port   int    `json:"port"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Event represents a lifecycle event to be exported to external systems.
type Event struct {
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Record     Record    `json:"record"`
}

// NewEvent stamps a record with the current UTC time.
func NewEvent(t EventType, rec Record) Event {
	return Event{Type: t, OccurredAt: time.Now().UTC(), Record: rec}
}

// Sink is a destination for history events.
// Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
}
