package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/agentfarm/orchestrator/internal/farm"
)

// encodeList stores an ordered string list as a JSON array so entries may
// contain any characters, including newlines. Empty lists store as "".
func encodeList(list []string) (string, error) {
	if len(list) == 0 {
		return "", nil
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(data), nil
}

func decodeList(encoded string) ([]string, error) {
	if encoded == "" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(encoded), &list); err != nil {
		return nil, fmt.Errorf("failed to decode list: %w", err)
	}
	return list, nil
}

// SaveState replaces the stored snapshot with the given state.
// Pending tasks keep their queue positions; active tasks are stored after
// them so a load reconstructs the same ordering the orchestrator would use
// on restore.
func (s *SQLiteStore) SaveState(ctx context.Context, state *farm.State) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_tasks`); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}

	position := 0
	for _, task := range state.PendingQueue {
		if err := insertSnapshotTask(ctx, tx, task, false, position); err != nil {
			return err
		}
		position++
	}

	// Deterministic order for active tasks
	activeIDs := make([]string, 0, len(state.ActiveTasks))
	for id := range state.ActiveTasks {
		activeIDs = append(activeIDs, id)
	}
	sort.Strings(activeIDs)
	for _, id := range activeIDs {
		if err := insertSnapshotTask(ctx, tx, state.ActiveTasks[id], true, position); err != nil {
			return err
		}
		position++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertSnapshotTask(ctx context.Context, tx *sql.Tx, task *farm.Task, active bool, position int) error {
	activeInt := 0
	if active {
		activeInt = 1
	}

	contextStr, err := encodeList(task.Context)
	if err != nil {
		return err
	}
	constraintsStr, err := encodeList(task.Constraints)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshot_tasks (id, type, description, success_criteria, context, constraints, priority, timeout_ms, active, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, task.ID, task.Type, task.Description, task.SuccessCriteria,
		contextStr, constraintsStr,
		task.Priority.String(), task.Timeout.Milliseconds(), activeInt, position)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot task %s: %w", task.ID, err)
	}
	return nil
}

// LoadState reads the stored snapshot. An empty table yields an empty state,
// not an error.
func (s *SQLiteStore) LoadState(ctx context.Context) (*farm.State, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, description, success_criteria, context, constraints, priority, timeout_ms, active
		FROM snapshot_tasks
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	defer rows.Close()

	state := &farm.State{
		PendingQueue: []*farm.Task{},
		ActiveTasks:  make(map[string]*farm.Task),
	}

	for rows.Next() {
		task := &farm.Task{}
		var contextStr, constraintsStr, priorityStr string
		var timeoutMs int64
		var active int

		err := rows.Scan(&task.ID, &task.Type, &task.Description, &task.SuccessCriteria,
			&contextStr, &constraintsStr, &priorityStr, &timeoutMs, &active)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot task: %w", err)
		}

		if task.Context, err = decodeList(contextStr); err != nil {
			return nil, err
		}
		if task.Constraints, err = decodeList(constraintsStr); err != nil {
			return nil, err
		}
		task.Priority = farm.ParsePriority(priorityStr)
		task.Timeout = time.Duration(timeoutMs) * time.Millisecond

		if active == 1 {
			state.ActiveTasks[task.ID] = task
		} else {
			state.PendingQueue = append(state.PendingQueue, task)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot: %w", err)
	}
	return state, nil
}
