// Package dispatch assigns tasks to capability-tagged agents and tracks
// per-agent load against concurrency ceilings.
package dispatch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Agent describes a logical worker: a capability set and a concurrency limit.
type Agent struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Capabilities  []string `json:"capabilities"` // Serialized form; membership tests use a set internally
	MaxConcurrent int      `json:"max_concurrent"`
	CurrentLoad   int      `json:"current_load"`
}

// Handle identifies a successful dispatch: the chosen agent and the file
// where execution output is captured.
type Handle struct {
	AgentID    string
	OutputFile string
}

// OutputFileFunc allocates the output capture path for a dispatch.
type OutputFileFunc func(agentID, taskID string) string

// agentState is the dispatcher's mutable record for one registered agent.
type agentState struct {
	agent Agent
	caps  map[string]struct{} // Capability set for O(1) membership
	order int                 // Registration order, used for tie-breaking
}

// Dispatcher owns a fixed set of agents and binds tasks to them.
// All load accounting happens under a single mutex so the invariant
// 0 <= CurrentLoad <= MaxConcurrent holds at every observation point.
type Dispatcher struct {
	mu         sync.Mutex
	agents     map[string]*agentState
	nextOrder  int
	outputFile OutputFileFunc
}

// NewDispatcher creates an empty dispatcher.
// If outputFile is nil, output paths are allocated under the OS temp dir.
func NewDispatcher(outputFile OutputFileFunc) *Dispatcher {
	if outputFile == nil {
		outputFile = func(agentID, taskID string) string {
			return filepath.Join(os.TempDir(), fmt.Sprintf("farm-%s-%s.log", agentID, taskID))
		}
	}
	return &Dispatcher{
		agents:     make(map[string]*agentState),
		outputFile: outputFile,
	}
}

// Register adds or overwrites an agent entry.
// Misconfiguration is a setup mistake, not a runtime condition: an empty
// capability set or a non-positive concurrency limit is rejected eagerly.
func (d *Dispatcher) Register(a Agent) error {
	if a.ID == "" {
		return fmt.Errorf("agent has no ID")
	}
	if len(a.Capabilities) == 0 {
		return fmt.Errorf("agent %q has no capabilities", a.ID)
	}
	if a.MaxConcurrent <= 0 {
		return fmt.Errorf("agent %q has non-positive max concurrency %d", a.ID, a.MaxConcurrent)
	}

	caps := make(map[string]struct{}, len(a.Capabilities))
	for _, c := range a.Capabilities {
		caps[c] = struct{}{}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	order := d.nextOrder
	if existing, ok := d.agents[a.ID]; ok {
		// Overwriting keeps the original registration order
		order = existing.order
	} else {
		d.nextOrder++
	}

	a.CurrentLoad = 0
	d.agents[a.ID] = &agentState{agent: a, caps: caps, order: order}
	return nil
}

// selectAgent returns the registered agent that can accept the given task
// type: capability match with free capacity, ties broken by lowest current
// load then by registration order. Returns nil if no agent qualifies.
// Caller must hold d.mu.
func (d *Dispatcher) selectAgent(taskType string) *agentState {
	var best *agentState
	for _, st := range d.agents {
		if _, ok := st.caps[taskType]; !ok {
			continue
		}
		if st.agent.CurrentLoad >= st.agent.MaxConcurrent {
			continue
		}
		if best == nil ||
			st.agent.CurrentLoad < best.agent.CurrentLoad ||
			(st.agent.CurrentLoad == best.agent.CurrentLoad && st.order < best.order) {
			best = st
		}
	}
	return best
}

// Dispatch binds a task to an available agent, incrementing that agent's
// load. Returns false without mutating any state when no agent qualifies:
// a partial dispatch is never observable.
func (d *Dispatcher) Dispatch(taskID, taskType string) (Handle, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	st := d.selectAgent(taskType)
	if st == nil {
		return Handle{}, false
	}

	st.agent.CurrentLoad++
	return Handle{
		AgentID:    st.agent.ID,
		OutputFile: d.outputFile(st.agent.ID, taskID),
	}, true
}

// Release decrements an agent's load, floored at zero.
// Idempotent: releasing an already-idle agent is a no-op, not an error.
func (d *Dispatcher) Release(agentID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	st, ok := d.agents[agentID]
	if !ok {
		return
	}
	if st.agent.CurrentLoad > 0 {
		st.agent.CurrentLoad--
	}
}

// TotalCapacity returns the summed concurrency ceiling and the summed
// current load across all registered agents.
func (d *Dispatcher) TotalCapacity() (maxConcurrent, currentLoad int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, st := range d.agents {
		maxConcurrent += st.agent.MaxConcurrent
		currentLoad += st.agent.CurrentLoad
	}
	return maxConcurrent, currentLoad
}

// Agents returns a snapshot of all registered agents in registration order.
func (d *Dispatcher) Agents() []Agent {
	d.mu.Lock()
	defer d.mu.Unlock()

	agents := make([]Agent, 0, len(d.agents))
	for _, st := range d.agents {
		agents = append(agents, st.agent)
	}
	// Registration order keeps snapshots deterministic
	sort.Slice(agents, func(i, j int) bool {
		return d.agents[agents[i].ID].order < d.agents[agents[j].ID].order
	})
	return agents
}

// Load returns the current load for one agent. Used by tests and the TUI.
func (d *Dispatcher) Load(agentID string) (int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	st, ok := d.agents[agentID]
	if !ok {
		return 0, false
	}
	return st.agent.CurrentLoad, true
}
