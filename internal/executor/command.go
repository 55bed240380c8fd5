// Package executor provides concrete task executor delegates: an in-process
// function adapter lives in the farm package; here are the subprocess-backed
// executor and a resilience decorator.
package executor

import (
	"context"
	"strings"
	"time"

	"github.com/agentfarm/orchestrator/internal/farm"
)

// CommandConfig configures a subprocess-backed executor.
type CommandConfig struct {
	Command string   // Binary to run for every task
	Args    []string // Base args; the task description is appended
}

// CommandExecutor runs a configured command per task, capturing stdout to
// the dispatch output file. The task's advisory timeout is enforced here as
// a per-invocation deadline: a subprocess delegate is exactly where the
// embedding application owns timeout enforcement.
type CommandExecutor struct {
	cfg CommandConfig
	pm  *ProcessManager
}

// NewCommandExecutor creates a subprocess executor.
// pm may be nil if shutdown tracking is not needed.
func NewCommandExecutor(cfg CommandConfig, pm *ProcessManager) *CommandExecutor {
	return &CommandExecutor{cfg: cfg, pm: pm}
}

// Execute runs the configured command for one task and reports its outcome.
// A non-zero exit is an execution failure, reported as a failure result
// rather than an error so the orchestrator's accounting stays uniform.
func (e *CommandExecutor) Execute(ctx context.Context, task *farm.Task, agentID, outputFile string) (*farm.Result, error) {
	if task.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, task.Timeout)
		defer cancel()
	}

	args := append(append([]string(nil), e.cfg.Args...), task.Description)
	cmd := newCommand(ctx, e.cfg.Command, args...)

	var onStart func()
	if e.pm != nil {
		onStart = func() { e.pm.Track(cmd) }
		defer e.pm.Untrack(cmd)
	}

	start := time.Now()
	stdout, _, err := runCommand(cmd, outputFile, onStart)
	duration := time.Since(start)

	if err != nil {
		return &farm.Result{
			TaskID:   task.ID,
			AgentID:  agentID,
			Status:   farm.StatusFailure,
			Output:   string(stdout),
			Issues:   []string{err.Error()},
			Duration: duration,
		}, nil
	}

	result := &farm.Result{
		TaskID:   task.ID,
		AgentID:  agentID,
		Status:   farm.StatusSuccess,
		Output:   strings.TrimSpace(string(stdout)),
		Duration: duration,
	}
	if outputFile != "" {
		result.Artifacts = []string{outputFile}
	}
	return result, nil
}
