package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/agentfarm/orchestrator/internal/farm"
)

// SaveResult appends one result to the result log.
func (s *SQLiteStore) SaveResult(ctx context.Context, result *farm.Result) error {
	artifactsStr, err := encodeList(result.Artifacts)
	if err != nil {
		return err
	}
	issuesStr, err := encodeList(result.Issues)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO results (task_id, agent_id, status, output, artifacts, issues, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, result.TaskID, result.AgentID, string(result.Status), result.Output,
		artifactsStr, issuesStr,
		result.Duration.Milliseconds())

	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

// ListResults returns all logged results, oldest first.
func (s *SQLiteStore) ListResults(ctx context.Context) ([]*farm.Result, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, agent_id, status, output, artifacts, issues, duration_ms
		FROM results
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []*farm.Result
	for rows.Next() {
		result := &farm.Result{}
		var statusStr, artifactsStr, issuesStr string
		var durationMs int64

		err := rows.Scan(&result.TaskID, &result.AgentID, &statusStr, &result.Output,
			&artifactsStr, &issuesStr, &durationMs)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}

		result.Status = farm.ResultStatus(statusStr)
		if result.Artifacts, err = decodeList(artifactsStr); err != nil {
			return nil, err
		}
		if result.Issues, err = decodeList(issuesStr); err != nil {
			return nil, err
		}
		result.Duration = time.Duration(durationMs) * time.Millisecond

		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}
	return results, nil
}
