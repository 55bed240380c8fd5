package farm

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agentfarm/orchestrator/internal/dispatch"
	"github.com/agentfarm/orchestrator/internal/events"
)

// Executor is the delegate that performs a task's actual work and reports
// its outcome. Implementations may suspend (subprocess spawn, I/O, remote
// call); the orchestrator only requires that the call eventually resolves to
// a result or an error.
type Executor interface {
	Execute(ctx context.Context, task *Task, agentID, outputFile string) (*Result, error)
}

// ExecutorFunc adapts a plain function to the Executor interface.
type ExecutorFunc func(ctx context.Context, task *Task, agentID, outputFile string) (*Result, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, task *Task, agentID, outputFile string) (*Result, error) {
	return f(ctx, task, agentID, outputFile)
}

// Config configures an Orchestrator.
type Config struct {
	Executor   Executor                // Required: the delegate that performs task work
	OutputFile dispatch.OutputFileFunc // Optional: where dispatch output capture paths come from
}

// Orchestrator queues tasks, orders them by priority, drives the dispatcher,
// delegates execution, and emits lifecycle events. Each instance owns its
// dispatcher, status registry, and emitter, so independent instances never
// interfere with each other.
type Orchestrator struct {
	cfg        Config
	dispatcher *dispatch.Dispatcher
	registry   *dispatch.Registry
	emitter    *events.Emitter

	mu      sync.Mutex
	pending []*Task          // Enqueue order preserved within the queue
	tasks   map[string]*Task // All queued or active tasks by ID
	active  map[string]*Task // Dispatched, not yet finished
	seq     map[string]int   // Task ID -> enqueue sequence, for stable priority sort
	nextSeq int
}

// New creates an orchestrator with an empty agent pool and queue.
func New(cfg Config) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		dispatcher: dispatch.NewDispatcher(cfg.OutputFile),
		registry:   dispatch.NewRegistry(),
		emitter:    events.NewEmitter(),
		tasks:      make(map[string]*Task),
		active:     make(map[string]*Task),
		seq:        make(map[string]int),
	}
}

// RegisterAgent adds an agent to the pool. Misconfigured agents are rejected
// eagerly; see dispatch.Dispatcher.Register.
func (o *Orchestrator) RegisterAgent(a dispatch.Agent) error {
	return o.dispatcher.Register(a)
}

// QueueTask appends a task to the pending queue and returns its ID.
func (o *Orchestrator) QueueTask(task *Task) (string, error) {
	if err := task.Validate(); err != nil {
		return "", err
	}

	o.mu.Lock()
	if _, exists := o.tasks[task.ID]; exists {
		o.mu.Unlock()
		return "", fmt.Errorf("task %q already queued", task.ID)
	}
	o.tasks[task.ID] = task
	o.pending = append(o.pending, task)
	o.seq[task.ID] = o.nextSeq
	o.nextSeq++
	o.mu.Unlock()

	o.emitter.Emit(events.TaskQueuedEvent{
		ID:        task.ID,
		Type:      task.Type,
		Priority:  task.Priority.String(),
		Timestamp: time.Now(),
	})
	return task.ID, nil
}

// QueueBatch enqueues many tasks and returns their IDs in submission order.
// Stops at the first invalid task, returning the IDs queued so far.
func (o *Orchestrator) QueueBatch(tasks []*Task) ([]string, error) {
	ids := make([]string, 0, len(tasks))
	for _, task := range tasks {
		id, err := o.QueueTask(task)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ExecuteTask executes one queued task and returns exactly one result.
// Expected conditions never surface as errors: an unknown ID yields a failure
// result, insufficient capacity yields a blocked result (the task stays
// queued), and a delegate error or panic yields a failure result.
func (o *Orchestrator) ExecuteTask(ctx context.Context, taskID string) *Result {
	o.mu.Lock()
	task, ok := o.tasks[taskID]
	o.mu.Unlock()
	if !ok {
		return FailureResult(taskID, "", fmt.Sprintf("unknown task ID %q", taskID))
	}

	handle, ok := o.dispatcher.Dispatch(task.ID, task.Type)
	if !ok {
		o.emitter.Emit(events.TaskBlockedEvent{
			ID:        task.ID,
			Type:      task.Type,
			Timestamp: time.Now(),
		})
		return BlockedResult(task.ID, task.Type)
	}

	// Dispatch succeeded: the task moves from pending to active, and the
	// agent is released exactly once on every path below.
	o.markActive(task)
	if err := o.registry.Track(handle.AgentID, task.ID, handle.OutputFile); err != nil {
		o.dispatcher.Release(handle.AgentID)
		o.finish(task)
		return FailureResult(task.ID, handle.AgentID, err.Error())
	}
	_ = o.registry.MarkRunning(task.ID)

	o.emitter.Emit(events.TaskStartedEvent{
		ID:        task.ID,
		Type:      task.Type,
		AgentID:   handle.AgentID,
		Timestamp: time.Now(),
	})

	start := time.Now()
	result, err := o.runDelegate(ctx, task, handle)
	o.dispatcher.Release(handle.AgentID)

	if err != nil {
		result = FailureResult(task.ID, handle.AgentID, err.Error())
	} else if result == nil {
		result = FailureResult(task.ID, handle.AgentID, "executor returned no result")
	}
	if result.TaskID == "" {
		result.TaskID = task.ID
	}
	if result.AgentID == "" {
		result.AgentID = handle.AgentID
	}
	if result.Duration == 0 {
		result.Duration = time.Since(start)
	}

	o.finish(task)

	if result.Status == StatusSuccess {
		_ = o.registry.MarkComplete(task.ID)
		o.emitter.Emit(events.TaskCompletedEvent{
			ID:        task.ID,
			AgentID:   handle.AgentID,
			Duration:  result.Duration,
			Timestamp: time.Now(),
		})
	} else {
		_ = o.registry.MarkFailed(task.ID)
		o.emitter.Emit(events.TaskFailedEvent{
			ID:        task.ID,
			AgentID:   handle.AgentID,
			Issues:    append([]string(nil), result.Issues...),
			Duration:  result.Duration,
			Timestamp: time.Now(),
		})
	}

	return result
}

// runDelegate invokes the executor delegate, converting a panic into an
// error so one misbehaving execution cannot abort a batch.
func (o *Orchestrator) runDelegate(ctx context.Context, task *Task, handle dispatch.Handle) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("executor panic: %v", r)
		}
	}()

	if o.cfg.Executor == nil {
		return nil, fmt.Errorf("no executor configured")
	}
	return o.cfg.Executor.Execute(ctx, task, handle.AgentID, handle.OutputFile)
}

// ExecuteBatch resolves the given IDs to queued tasks, sorts the ready set
// by priority (stable: ties keep enqueue order), and drains it through a
// worker pool of width parallel. parallel <= 0 means unbounded (the size of
// the resolved set). Every requested ID contributes exactly one result.
func (o *Orchestrator) ExecuteBatch(ctx context.Context, taskIDs []string, parallel int) *BatchSummary {
	agg := NewAggregator()

	// Resolve IDs; unknown IDs fail immediately without occupying a worker.
	o.mu.Lock()
	ready := make([]*Task, 0, len(taskIDs))
	for _, id := range taskIDs {
		if task, ok := o.tasks[id]; ok {
			ready = append(ready, task)
		} else {
			agg.Add(FailureResult(id, "", fmt.Sprintf("unknown task ID %q", id)))
		}
	}
	// Stable sort: high before normal before low, enqueue order within a tier.
	sort.SliceStable(ready, func(i, j int) bool {
		if ready[i].Priority != ready[j].Priority {
			return ready[i].Priority > ready[j].Priority
		}
		return o.seq[ready[i].ID] < o.seq[ready[j].ID]
	})
	o.mu.Unlock()

	if parallel <= 0 {
		parallel = len(ready)
	}
	if parallel < 1 {
		parallel = 1
	}

	// Bounded worker pool: launches follow the sorted order, and each slot
	// freed by a completion goes to the next highest-priority remaining task.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for _, task := range ready {
		t := task
		g.Go(func() error {
			agg.Add(o.ExecuteTask(gctx, t.ID))
			return nil
		})
	}
	_ = g.Wait()

	return agg.Summary()
}

// GetPendingTasks returns a snapshot of the pending queue in enqueue order.
func (o *Orchestrator) GetPendingTasks() []*Task {
	o.mu.Lock()
	defer o.mu.Unlock()

	tasks := make([]*Task, 0, len(o.pending))
	for _, task := range o.pending {
		tasks = append(tasks, task.Clone())
	}
	return tasks
}

// GetAllAgents returns a read-only snapshot of all registered agents.
func (o *Orchestrator) GetAllAgents() []dispatch.Agent {
	return o.dispatcher.Agents()
}

// GetTotalCapacity returns the summed concurrency ceiling and current load
// across all registered agents.
func (o *Orchestrator) GetTotalCapacity() (maxConcurrent, currentLoad int) {
	return o.dispatcher.TotalCapacity()
}

// Status returns the tracked execution status for a task, if any. Statuses
// are kept after a task reaches a terminal state so finished work remains
// inspectable between batches.
func (o *Orchestrator) Status(taskID string) (dispatch.AgentStatus, bool) {
	return o.registry.ByTask(taskID)
}

// On subscribes a handler to lifecycle events.
func (o *Orchestrator) On(h events.Handler) {
	o.emitter.Subscribe(h)
}

// Off removes a previously subscribed handler.
func (o *Orchestrator) Off(h events.Handler) {
	o.emitter.Unsubscribe(h)
}

// markActive moves a task from the pending queue to the active set.
func (o *Orchestrator) markActive(task *Task) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i, p := range o.pending {
		if p.ID == task.ID {
			o.pending = append(o.pending[:i], o.pending[i+1:]...)
			break
		}
	}
	o.active[task.ID] = task
}

// finish removes a task from all bookkeeping once it reaches a terminal state.
func (o *Orchestrator) finish(task *Task) {
	o.mu.Lock()
	defer o.mu.Unlock()

	delete(o.active, task.ID)
	delete(o.tasks, task.ID)
	delete(o.seq, task.ID)
}
