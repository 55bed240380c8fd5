// Command agentfarm runs a plan of tasks across a pool of agents.
//
// Usage:
//
//	agentfarm [flags] plan.json
//
// The plan file is a JSON array of tasks. Agents, the executor command, and
// default parallelism come from ~/.agentfarm/config.json merged with
// .agentfarm/config.json in the working directory.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/agentfarm/orchestrator/internal/config"
	"github.com/agentfarm/orchestrator/internal/dispatch"
	"github.com/agentfarm/orchestrator/internal/events"
	"github.com/agentfarm/orchestrator/internal/executor"
	"github.com/agentfarm/orchestrator/internal/farm"
	"github.com/agentfarm/orchestrator/internal/persistence"
	"github.com/agentfarm/orchestrator/internal/report"
	"github.com/agentfarm/orchestrator/internal/tui"
	"github.com/agentfarm/orchestrator/internal/workspace"
)

// errBatchFailed signals a non-zero exit without an error message: the
// per-task failures are already in the printed report.
var errBatchFailed = errors.New("batch finished with failures")

func main() {
	var (
		parallel   = flag.Int("parallel", 0, "max tasks in flight (0 = config default)")
		watch      = flag.Bool("watch", false, "show the live watch view while the batch runs")
		reportPath = flag.String("report", "", "write a Markdown report to this path")
		resume     = flag.Bool("resume", false, "restore the queue from the snapshot before queueing the plan")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: agentfarm [flags] plan.json")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *parallel, *watch, *reportPath, *resume); err != nil {
		if !errors.Is(err, errBatchFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(planPath string, parallel int, watch bool, reportPath string, resume bool) error {
	// Signal-aware context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadDefault()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if parallel == 0 {
		parallel = cfg.Parallel
	}

	ws, err := workspace.NewManager(cfg.WorkspaceDir)
	if err != nil {
		return fmt.Errorf("preparing workspace: %w", err)
	}

	pm := executor.NewProcessManager()
	var exec farm.Executor = executor.NewCommandExecutor(executor.CommandConfig{
		Command: cfg.Executor.Command,
		Args:    cfg.Executor.Args,
	}, pm)
	if cfg.Executor.Retry {
		exec = executor.NewResilient(exec, executor.DefaultRetryConfig())
	}

	orch := farm.New(farm.Config{
		Executor:   exec,
		OutputFile: ws.Allocate,
	})

	if err := registerAgents(orch, cfg); err != nil {
		return err
	}

	// Optional snapshot store for queue recovery across runs
	var store persistence.Store
	if cfg.SnapshotPath != "" {
		s, err := persistence.NewSQLiteStore(ctx, cfg.SnapshotPath)
		if err != nil {
			return fmt.Errorf("opening snapshot store: %w", err)
		}
		defer s.Close()
		store = s

		if resume {
			state, err := store.LoadState(ctx)
			if err != nil {
				return fmt.Errorf("loading snapshot: %w", err)
			}
			orch.RestoreState(state)
		}
	}

	tasks, err := config.LoadPlan(planPath)
	if err != nil {
		return err
	}
	if _, err := orch.QueueBatch(tasks); err != nil {
		return fmt.Errorf("queueing plan: %w", err)
	}

	taskIDs := make([]string, 0, len(tasks))
	for _, task := range orch.GetPendingTasks() {
		taskIDs = append(taskIDs, task.ID)
	}

	var summary *farm.BatchSummary
	if watch {
		summary, err = runWatched(ctx, orch, taskIDs, parallel)
	} else {
		summary, err = runLogged(ctx, orch, taskIDs, parallel)
	}

	// Kill stragglers before reporting; on clean completion this is a no-op
	if killErr := pm.KillAll(); killErr != nil {
		log.Printf("WARNING: killing subprocesses: %v", killErr)
	}
	if err != nil {
		return err
	}

	fmt.Print(report.Terminal(summary, "Batch Results"))

	if reportPath != "" {
		md := report.Markdown(summary, "Batch Results")
		if err := os.WriteFile(reportPath, []byte(md), 0644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}

	if store != nil {
		// Blocked tasks stay pending; snapshot them for a later -resume run
		if err := store.SaveState(ctx, orch.GetState()); err != nil {
			return fmt.Errorf("saving snapshot: %w", err)
		}
		for _, r := range summary.Results {
			if err := store.SaveResult(ctx, r); err != nil {
				return fmt.Errorf("saving result: %w", err)
			}
		}
	}

	if !farm.IsOverallSuccess(summary.Results) {
		// Return instead of exiting here so the deferred store close and
		// signal cleanup still run
		return errBatchFailed
	}
	return nil
}

// registerAgents adds the configured agent pool in name order so agent
// selection tie-breaks are stable across runs.
func registerAgents(orch *farm.Orchestrator, cfg *config.FarmConfig) error {
	ids := make([]string, 0, len(cfg.Agents))
	for id := range cfg.Agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		agent := cfg.Agents[id]
		name := agent.Name
		if name == "" {
			name = id
		}
		err := orch.RegisterAgent(dispatch.Agent{
			ID:            id,
			Name:          name,
			Capabilities:  agent.Capabilities,
			MaxConcurrent: agent.MaxConcurrent,
		})
		if err != nil {
			return fmt.Errorf("registering agent %s: %w", id, err)
		}
	}
	return nil
}

// runLogged executes the batch while printing lifecycle events to the log.
func runLogged(ctx context.Context, orch *farm.Orchestrator, taskIDs []string, parallel int) (*farm.BatchSummary, error) {
	handler := events.HandlerFunc(func(event events.Event) {
		log.Printf("%s %s", event.EventType(), event.TaskID())
	})
	orch.On(&handler)
	defer orch.Off(&handler)

	summary := orch.ExecuteBatch(ctx, taskIDs, parallel)
	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("batch interrupted: %w", err)
	}
	return summary, nil
}

// runWatched executes the batch behind the live watch view. The batch runs
// in a goroutine; the TUI owns the terminal until the batch finishes or the
// user quits.
func runWatched(ctx context.Context, orch *farm.Orchestrator, taskIDs []string, parallel int) (*farm.BatchSummary, error) {
	bridge := events.NewChannelHandler(256)
	orch.On(bridge)
	defer orch.Off(bridge)

	p := tea.NewProgram(tui.New(bridge.Events()), tea.WithAltScreen())

	summaryChan := make(chan *farm.BatchSummary, 1)
	go func() {
		summaryChan <- orch.ExecuteBatch(ctx, taskIDs, parallel)
		// Give the view a beat to drain the last events, then release it
		time.Sleep(100 * time.Millisecond)
		bridge.Close()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		return nil, fmt.Errorf("watch view: %w", err)
	}

	summary := <-summaryChan
	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("batch interrupted: %w", err)
	}
	return summary, nil
}
