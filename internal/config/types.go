package config

// AgentConfig defines one agent in the pool: the task types it accepts and
// its concurrency ceiling.
type AgentConfig struct {
	Name          string   `json:"name,omitempty"`
	Capabilities  []string `json:"capabilities"`
	MaxConcurrent int      `json:"max_concurrent"`
}

// ExecutorConfig defines the subprocess executor: the command run per task.
type ExecutorConfig struct {
	Command string   `json:"command"`         // Binary invoked for every task
	Args    []string `json:"args,omitempty"`  // Default args prepended to the task description
	Retry   bool     `json:"retry,omitempty"` // Wrap with backoff retry + circuit breaker
}

// FarmConfig is the top-level configuration.
type FarmConfig struct {
	Agents       map[string]AgentConfig `json:"agents"`
	Executor     ExecutorConfig         `json:"executor"`
	WorkspaceDir string                 `json:"workspace_dir,omitempty"` // Output capture directory
	SnapshotPath string                 `json:"snapshot_path,omitempty"` // SQLite snapshot database
	Parallel     int                    `json:"parallel,omitempty"`      // Default batch pool width; 0 means unbounded
}
