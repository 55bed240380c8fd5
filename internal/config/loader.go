package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Load reads and merges configuration from global and project paths.
// Order of precedence (highest to lowest): project config, global config,
// defaults. Missing files are not errors; malformed JSON returns an error.
func Load(globalPath, projectPath string) (*FarmConfig, error) {
	cfg := DefaultConfig()

	if globalPath != "" {
		if err := mergeConfigFile(cfg, globalPath); err != nil {
			return nil, fmt.Errorf("loading global config: %w", err)
		}
	}

	if projectPath != "" {
		if err := mergeConfigFile(cfg, projectPath); err != nil {
			return nil, fmt.Errorf("loading project config: %w", err)
		}
	}

	return cfg, nil
}

// LoadDefault loads configuration from conventional paths.
// Global: ~/.agentfarm/config.json
// Project: .agentfarm/config.json (relative to cwd)
func LoadDefault() (*FarmConfig, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home directory: %w", err)
	}

	globalPath := filepath.Join(homeDir, ".agentfarm", "config.json")
	projectPath := filepath.Join(".agentfarm", "config.json")

	return Load(globalPath, projectPath)
}

// mergeConfigFile reads a JSON config file and merges it into the base
// config. Missing files are silently skipped.
func mergeConfigFile(base *FarmConfig, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var loaded FarmConfig
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	for key, agent := range loaded.Agents {
		base.Agents[key] = agent
	}
	if loaded.Executor.Command != "" {
		base.Executor = loaded.Executor
	}
	if loaded.WorkspaceDir != "" {
		base.WorkspaceDir = loaded.WorkspaceDir
	}
	if loaded.SnapshotPath != "" {
		base.SnapshotPath = loaded.SnapshotPath
	}
	if loaded.Parallel != 0 {
		base.Parallel = loaded.Parallel
	}

	return nil
}
