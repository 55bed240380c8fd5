package farm

import "sort"

// State is a plain-data snapshot of the orchestrator's pending and active
// tasks. It carries no behavior; serialization format is the caller's choice.
type State struct {
	PendingQueue []*Task          `json:"pending_queue"`
	ActiveTasks  map[string]*Task `json:"active_tasks"`
}

// GetState returns a deep-copied snapshot of the pending queue and the
// currently active tasks.
func (o *Orchestrator) GetState() *State {
	o.mu.Lock()
	defer o.mu.Unlock()

	state := &State{
		PendingQueue: make([]*Task, 0, len(o.pending)),
		ActiveTasks:  make(map[string]*Task, len(o.active)),
	}
	for _, task := range o.pending {
		state.PendingQueue = append(state.PendingQueue, task.Clone())
	}
	for id, task := range o.active {
		state.ActiveTasks[id] = task.Clone()
	}
	return state
}

// RestoreState loads a snapshot into this orchestrator, reproducing the
// snapshot's pending-task view. Tasks whose IDs are already present are
// skipped rather than duplicated; callers should restore into a clean
// instance. Active tasks from the snapshot re-enter the pending queue after
// the snapshot's pending tasks, since their executions did not survive.
func (o *Orchestrator) RestoreState(state *State) {
	if state == nil {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	for _, task := range state.PendingQueue {
		o.restoreTask(task)
	}
	// Sort active IDs so the rebuilt queue is deterministic.
	activeIDs := make([]string, 0, len(state.ActiveTasks))
	for id := range state.ActiveTasks {
		activeIDs = append(activeIDs, id)
	}
	sort.Strings(activeIDs)
	for _, id := range activeIDs {
		o.restoreTask(state.ActiveTasks[id])
	}
}

// restoreTask re-queues one snapshot task. Caller must hold o.mu.
func (o *Orchestrator) restoreTask(task *Task) {
	if task == nil || task.ID == "" {
		return
	}
	if _, exists := o.tasks[task.ID]; exists {
		return
	}

	cp := task.Clone()
	o.tasks[cp.ID] = cp
	o.pending = append(o.pending, cp)
	o.seq[cp.ID] = o.nextSeq
	o.nextSeq++
}
