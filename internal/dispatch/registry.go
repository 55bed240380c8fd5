package dispatch

import (
	"fmt"
	"sync"
	"time"
)

// TaskState represents the execution state tracked for a dispatched task.
type TaskState int

const (
	StateQueued TaskState = iota
	StateRunning
	StateComplete
	StateFailed
)

// String returns the serialized form of the state.
func (s TaskState) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StateRunning:
		return "running"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// AgentStatus records one task's execution status on one agent.
type AgentStatus struct {
	AgentID    string
	TaskID     string
	OutputFile string
	State      TaskState
	Progress   int // 0-100
	StartTime  time.Time
	EndTime    time.Time // Zero until the task reaches a terminal state
}

// Registry is a keyed store of per-task execution status.
// Each task ID maps to at most one in-flight status; tracking a task that is
// already in flight is rejected.
//
// Terminal statuses are retained so completed and failed tasks stay
// inspectable after the batch. The registry grows with the number of tasks
// executed; callers that run unbounded streams of tasks should Drop statuses
// once they have folded them into results.
type Registry struct {
	mu      sync.RWMutex
	byTask  map[string]*AgentStatus
	byAgent map[string][]string // agentID -> task IDs, oldest first
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byTask:  make(map[string]*AgentStatus),
		byAgent: make(map[string][]string),
	}
}

// Track records a newly dispatched task as queued on the given agent.
func (r *Registry) Track(agentID, taskID, outputFile string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if st, ok := r.byTask[taskID]; ok && st.State != StateComplete && st.State != StateFailed {
		return fmt.Errorf("task %q already in flight on agent %q", taskID, st.AgentID)
	}

	r.byTask[taskID] = &AgentStatus{
		AgentID:    agentID,
		TaskID:     taskID,
		OutputFile: outputFile,
		State:      StateQueued,
		StartTime:  time.Now(),
	}
	r.byAgent[agentID] = append(r.byAgent[agentID], taskID)
	return nil
}

// MarkRunning transitions a tracked task to running.
func (r *Registry) MarkRunning(taskID string) error {
	return r.transition(taskID, StateRunning, 0)
}

// MarkComplete transitions a tracked task to complete and stamps EndTime.
func (r *Registry) MarkComplete(taskID string) error {
	return r.transition(taskID, StateComplete, 100)
}

// MarkFailed transitions a tracked task to failed and stamps EndTime.
func (r *Registry) MarkFailed(taskID string) error {
	return r.transition(taskID, StateFailed, 0)
}

func (r *Registry) transition(taskID string, state TaskState, progress int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.byTask[taskID]
	if !ok {
		return fmt.Errorf("task %q not tracked", taskID)
	}

	st.State = state
	if progress > 0 {
		st.Progress = progress
	}
	if state == StateComplete || state == StateFailed {
		st.EndTime = time.Now()
	}
	return nil
}

// SetProgress updates the progress percentage for a tracked task.
// Values are clamped to [0, 100].
func (r *Registry) SetProgress(taskID string, progress int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.byTask[taskID]
	if !ok {
		return fmt.Errorf("task %q not tracked", taskID)
	}

	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	st.Progress = progress
	return nil
}

// ByTask returns a copy of the status for the given task ID.
func (r *Registry) ByTask(taskID string) (AgentStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.byTask[taskID]
	if !ok {
		return AgentStatus{}, false
	}
	return *st, true
}

// ByAgent returns copies of all statuses recorded for the given agent ID,
// oldest first.
func (r *Registry) ByAgent(agentID string) []AgentStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byAgent[agentID]
	statuses := make([]AgentStatus, 0, len(ids))
	for _, id := range ids {
		if st, ok := r.byTask[id]; ok {
			statuses = append(statuses, *st)
		}
	}
	return statuses
}

// Drop removes the status record for a task. Used when a finished status has
// been folded into a result and no longer needs introspection.
func (r *Registry) Drop(taskID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.byTask[taskID]
	if !ok {
		return
	}
	delete(r.byTask, taskID)

	ids := r.byAgent[st.AgentID]
	for i, id := range ids {
		if id == taskID {
			r.byAgent[st.AgentID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
}
