package events

import (
	"time"
)

// Event is the base interface for all lifecycle events.
type Event interface {
	EventType() string
	TaskID() string
}

// Event type constants
const (
	EventTypeTaskQueued    = "task.queued"
	EventTypeTaskStarted   = "task.started"
	EventTypeTaskCompleted = "task.completed"
	EventTypeTaskFailed    = "task.failed"
	EventTypeTaskBlocked   = "task.blocked"
)

// TaskQueuedEvent is published when a task enters the pending queue.
type TaskQueuedEvent struct {
	ID        string
	Type      string
	Priority  string
	Timestamp time.Time
}

func (e TaskQueuedEvent) EventType() string { return EventTypeTaskQueued }
func (e TaskQueuedEvent) TaskID() string    { return e.ID }

// TaskStartedEvent is published when a task is dispatched and begins execution.
type TaskStartedEvent struct {
	ID        string
	Type      string
	AgentID   string
	Timestamp time.Time
}

func (e TaskStartedEvent) EventType() string { return EventTypeTaskStarted }
func (e TaskStartedEvent) TaskID() string    { return e.ID }

// TaskCompletedEvent is published when a task's delegate reports success.
type TaskCompletedEvent struct {
	ID        string
	AgentID   string
	Duration  time.Duration
	Timestamp time.Time
}

func (e TaskCompletedEvent) EventType() string { return EventTypeTaskCompleted }
func (e TaskCompletedEvent) TaskID() string    { return e.ID }

// TaskFailedEvent is published when a task's delegate reports failure or
// raises an error.
type TaskFailedEvent struct {
	ID        string
	AgentID   string
	Issues    []string
	Duration  time.Duration
	Timestamp time.Time
}

func (e TaskFailedEvent) EventType() string { return EventTypeTaskFailed }
func (e TaskFailedEvent) TaskID() string    { return e.ID }

// TaskBlockedEvent is published when no agent had free capacity for a task.
type TaskBlockedEvent struct {
	ID        string
	Type      string
	Timestamp time.Time
}

func (e TaskBlockedEvent) EventType() string { return EventTypeTaskBlocked }
func (e TaskBlockedEvent) TaskID() string    { return e.ID }
