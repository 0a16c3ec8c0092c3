package history

import (
	"context"
	"time"
)

// EventType defines the kind of launch event.
type EventType string

const (
	EventInstanceSpawned EventType = "instance_spawned"
	EventLaunchSucceeded EventType = "launch_succeeded"
	EventLaunchFailed    EventType = "launch_failed"
)

// Event records one step of a launch. Events of the same launch share LaunchID.
// Instance is 1-based and zero for launch-level events.
type Event struct {
	LaunchID    string    `json:"launch_id" db:"launch_id"`
	Type        EventType `json:"type" db:"event"`
	OccurredAt  time.Time `json:"occurred_at" db:"occurred_at"`
	InstallPath string    `json:"game_path" db:"game_path"`
	PayloadFile string    `json:"file" db:"payload_file"`
	Instance    int       `json:"instance,omitempty" db:"instance"`
	PID         int       `json:"pid,omitempty" db:"pid"`
	Requested   int       `json:"requested" db:"requested"`
	Launched    int       `json:"launched" db:"launched"`
	Error       string    `json:"error,omitempty" db:"error"`
}

// Sink is a destination for launch events.
// Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
}

// Reader is implemented by sinks that can return stored events, newest first.
type Reader interface {
	Recent(ctx context.Context, limit int) ([]Event, error)
}

// DefaultLimit caps Recent when the caller passes a non-positive limit.
const DefaultLimit = 50

// Discard drops every event.
type Discard struct{}

func (Discard) Send(context.Context, Event) error { return nil }
