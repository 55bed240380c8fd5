// Package farm implements the task orchestration core: a priority queue of
// tasks dispatched to capability-tagged agents under bounded parallelism.
package farm

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Priority orders tasks within the pending queue. Higher values run first.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
)

// String returns the serialized form of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityLow:
		return "low"
	default:
		return "normal"
	}
}

// ParsePriority converts a serialized priority into a Priority.
// Unknown values default to PriorityNormal.
func ParsePriority(s string) Priority {
	switch s {
	case "high":
		return PriorityHigh
	case "low":
		return PriorityLow
	default:
		return PriorityNormal
	}
}

// Task represents a unit of work submitted for execution by a capable agent.
type Task struct {
	ID              string        `json:"id"`
	Type            string        `json:"type"`             // Capability tag matched against agent capabilities
	Description     string        `json:"description"`
	SuccessCriteria string        `json:"success_criteria,omitempty"`
	Context         []string      `json:"context,omitempty"`     // Reference strings, order preserved
	Constraints     []string      `json:"constraints,omitempty"` // Constraints, order preserved
	Priority        Priority      `json:"priority"`
	Timeout         time.Duration `json:"timeout,omitempty"` // Advisory only; the core never enforces it
}

// NewTask creates a task with a generated ID and normal priority.
func NewTask(taskType, description string) *Task {
	return &Task{
		ID:          uuid.New().String()[:8],
		Type:        taskType,
		Description: description,
		Priority:    PriorityNormal,
	}
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}

	cp := *t
	if t.Context != nil {
		cp.Context = append([]string(nil), t.Context...)
	}
	if t.Constraints != nil {
		cp.Constraints = append([]string(nil), t.Constraints...)
	}
	return &cp
}

// Validate checks that the task is well-formed enough to queue.
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("task has no ID")
	}
	if t.Type == "" {
		return fmt.Errorf("task %q has no type", t.ID)
	}
	return nil
}
