package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// setupRun prepares an isolated working directory with a project config
// pointing the executor at the given command, plus a one-task plan. It
// returns the plan path.
func setupRun(t *testing.T, command string) string {
	t.Helper()

	t.Setenv("HOME", t.TempDir()) // keep the real global config out
	t.Chdir(t.TempDir())

	if err := os.MkdirAll(".agentfarm", 0755); err != nil {
		t.Fatal(err)
	}
	cfgJSON := `{"executor": {"command": "` + command + `"}}`
	if err := os.WriteFile(filepath.Join(".agentfarm", "config.json"), []byte(cfgJSON), 0644); err != nil {
		t.Fatal(err)
	}

	planPath := "plan.json"
	plan := `[{"type": "code", "description": "add feature"}]`
	if err := os.WriteFile(planPath, []byte(plan), 0644); err != nil {
		t.Fatal(err)
	}
	return planPath
}

// TestRunSuccess verifies a clean batch returns nil.
func TestRunSuccess(t *testing.T) {
	planPath := setupRun(t, "true")

	if err := run(planPath, 1, false, "", false); err != nil {
		t.Fatalf("run() = %v, want nil", err)
	}
}

// TestRunBatchFailure verifies a failed batch surfaces as errBatchFailed
// rather than exiting from inside run, so deferred cleanup still executes.
func TestRunBatchFailure(t *testing.T) {
	planPath := setupRun(t, "false")

	err := run(planPath, 1, false, "", false)
	if !errors.Is(err, errBatchFailed) {
		t.Fatalf("run() = %v, want errBatchFailed", err)
	}
}

// TestRunMissingPlan verifies a bad plan path is reported as an ordinary
// error, not a batch failure.
func TestRunMissingPlan(t *testing.T) {
	setupRun(t, "true")

	err := run("no-such-plan.json", 1, false, "", false)
	if err == nil {
		t.Fatal("run() = nil, want error for missing plan")
	}
	if errors.Is(err, errBatchFailed) {
		t.Fatal("missing plan reported as batch failure")
	}
}
