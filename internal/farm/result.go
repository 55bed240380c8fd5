package farm

import (
	"fmt"
	"time"
)

// ResultStatus classifies the outcome of a single task execution.
type ResultStatus string

const (
	StatusSuccess ResultStatus = "success"
	StatusFailure ResultStatus = "failure"
	StatusBlocked ResultStatus = "blocked" // No agent had free capacity; retryable by the caller
)

// Result represents the outcome of one task execution.
// Expected conditions (unknown task, no capacity, delegate failure) are all
// encoded here rather than as errors, so batch execution always produces
// exactly one result per requested task ID.
type Result struct {
	TaskID    string        `json:"task_id"`
	AgentID   string        `json:"agent_id,omitempty"`
	Status    ResultStatus  `json:"status"`
	Output    string        `json:"output,omitempty"`
	Artifacts []string      `json:"artifacts,omitempty"` // Paths/identifiers, order preserved
	Issues    []string      `json:"issues,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// FailureResult builds a failure result carrying an explanatory issue.
func FailureResult(taskID, agentID, issue string) *Result {
	return &Result{
		TaskID:  taskID,
		AgentID: agentID,
		Status:  StatusFailure,
		Issues:  []string{issue},
	}
}

// BlockedResult builds a blocked result for a task that could not be dispatched.
func BlockedResult(taskID, taskType string) *Result {
	return &Result{
		TaskID: taskID,
		Status: StatusBlocked,
		Issues: []string{fmt.Sprintf("no agent with free capacity for type %q", taskType)},
	}
}
