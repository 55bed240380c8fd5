package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s) error = %v", name, err)
	}
	return path
}

// TestLoadDefaultsOnly verifies missing files fall back to defaults.
func TestLoadDefaultsOnly(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, "missing.json"), filepath.Join(dir, "also-missing.json"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Agents) != 3 {
		t.Errorf("len(Agents) = %d, want 3 defaults", len(cfg.Agents))
	}
	if cfg.Executor.Command != "claude" {
		t.Errorf("Executor.Command = %q, want claude", cfg.Executor.Command)
	}
	if cfg.WorkspaceDir != ".farm-output" {
		t.Errorf("WorkspaceDir = %q, want .farm-output", cfg.WorkspaceDir)
	}
	if cfg.Parallel != 4 {
		t.Errorf("Parallel = %d, want 4", cfg.Parallel)
	}
}

// TestLoadGlobalOverridesDefaults verifies global config merges over the
// defaults field by field.
func TestLoadGlobalOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	global := writeConfig(t, dir, "global.json", `{
		"agents": {
			"deployer": {"capabilities": ["deploy"], "max_concurrent": 1}
		},
		"parallel": 8
	}`)

	cfg, err := Load(global, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Default agents survive; the new one is added
	if len(cfg.Agents) != 4 {
		t.Errorf("len(Agents) = %d, want 4", len(cfg.Agents))
	}
	if _, ok := cfg.Agents["deployer"]; !ok {
		t.Error("deployer agent missing after merge")
	}
	if cfg.Parallel != 8 {
		t.Errorf("Parallel = %d, want 8", cfg.Parallel)
	}
	// Untouched fields keep their defaults
	if cfg.Executor.Command != "claude" {
		t.Errorf("Executor.Command = %q, want default", cfg.Executor.Command)
	}
}

// TestLoadProjectOverridesGlobal verifies project config wins over global.
func TestLoadProjectOverridesGlobal(t *testing.T) {
	dir := t.TempDir()
	global := writeConfig(t, dir, "global.json", `{
		"agents": {"coder": {"capabilities": ["code"], "max_concurrent": 5}},
		"workspace_dir": "global-out"
	}`)
	project := writeConfig(t, dir, "project.json", `{
		"agents": {"coder": {"capabilities": ["code", "refactor"], "max_concurrent": 1}},
		"workspace_dir": "project-out"
	}`)

	cfg, err := Load(global, project)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Agents["coder"].MaxConcurrent != 1 {
		t.Errorf("coder MaxConcurrent = %d, want 1 from project config", cfg.Agents["coder"].MaxConcurrent)
	}
	if cfg.WorkspaceDir != "project-out" {
		t.Errorf("WorkspaceDir = %q, want project-out", cfg.WorkspaceDir)
	}
}

// TestLoadMalformedJSON verifies malformed config is an error, not silently
// ignored.
func TestLoadMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	bad := writeConfig(t, dir, "bad.json", `{not json`)

	if _, err := Load(bad, ""); err == nil {
		t.Error("Load() of malformed global config succeeded, want error")
	}
	if _, err := Load("", bad); err == nil {
		t.Error("Load() of malformed project config succeeded, want error")
	}
}

// TestSaveRoundTrip verifies a saved config loads back identically enough
// to use.
func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.json")

	cfg := DefaultConfig()
	cfg.Parallel = 7
	cfg.SnapshotPath = "farm.db"
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Parallel != 7 {
		t.Errorf("Parallel = %d, want 7", loaded.Parallel)
	}
	if loaded.SnapshotPath != "farm.db" {
		t.Errorf("SnapshotPath = %q, want farm.db", loaded.SnapshotPath)
	}
}
