package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/agentfarm/orchestrator/internal/farm"
)

// PlanTask is the JSON shape of one task in a plan file.
type PlanTask struct {
	Type            string   `json:"type"`
	Description     string   `json:"description"`
	SuccessCriteria string   `json:"success_criteria,omitempty"`
	Context         []string `json:"context,omitempty"`
	Constraints     []string `json:"constraints,omitempty"`
	Priority        string   `json:"priority,omitempty"`        // "high", "normal" (default), "low"
	TimeoutSeconds  int      `json:"timeout_seconds,omitempty"` // Advisory
}

// LoadPlan reads a plan file and converts its entries into tasks, in file
// order. Each task gets a fresh generated ID.
func LoadPlan(path string) ([]*farm.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan %s: %w", path, err)
	}

	var entries []PlanTask
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing plan %s: %w", path, err)
	}

	tasks := make([]*farm.Task, 0, len(entries))
	for i, entry := range entries {
		if entry.Type == "" {
			return nil, fmt.Errorf("plan %s: entry %d has no type", path, i)
		}

		task := farm.NewTask(entry.Type, entry.Description)
		task.SuccessCriteria = entry.SuccessCriteria
		task.Context = entry.Context
		task.Constraints = entry.Constraints
		task.Priority = farm.ParsePriority(entry.Priority)
		if entry.TimeoutSeconds > 0 {
			task.Timeout = time.Duration(entry.TimeoutSeconds) * time.Second
		}
		tasks = append(tasks, task)
	}

	return tasks, nil
}
