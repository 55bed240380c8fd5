package config

// DefaultConfig returns the default configuration with a built-in agent pool.
func DefaultConfig() *FarmConfig {
	return &FarmConfig{
		Agents: map[string]AgentConfig{
			"coder": {
				Name:          "Coder",
				Capabilities:  []string{"code", "refactor"},
				MaxConcurrent: 2,
			},
			"reviewer": {
				Name:          "Reviewer",
				Capabilities:  []string{"review"},
				MaxConcurrent: 2,
			},
			"tester": {
				Name:          "Tester",
				Capabilities:  []string{"test"},
				MaxConcurrent: 1,
			},
		},
		Executor: ExecutorConfig{
			Command: "claude",
		},
		WorkspaceDir: ".farm-output",
		Parallel:     4,
	}
}
