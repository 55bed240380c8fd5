// Package report renders batch summaries for humans: a Markdown document
// suitable for writing to a file and a styled terminal rendering.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentfarm/orchestrator/internal/farm"
)

// Markdown renders a batch summary as a Markdown document.
func Markdown(summary *farm.BatchSummary, title string) string {
	now := time.Now().Format("2006-01-02 15:04 MST")
	lines := []string{
		fmt.Sprintf("# %s", title),
		fmt.Sprintf("*Generated: %s*", now),
		"",
	}

	if len(summary.Results) == 0 {
		lines = append(lines, "No tasks executed.")
		return strings.Join(lines, "\n")
	}

	agg := summary.Aggregate
	lines = append(lines,
		"| Succeeded | Failed | Blocked | Total |",
		"|----------:|-------:|--------:|------:|",
		fmt.Sprintf("| %d | %d | %d | %d |",
			agg.SuccessCount, agg.FailureCount, agg.BlockedCount, len(summary.Results)),
		"",
	)

	lines = append(lines, "## Tasks", "")
	for _, r := range summary.Results {
		lines = append(lines, resultSection(r)...)
	}

	return strings.Join(lines, "\n")
}

func resultSection(r *farm.Result) []string {
	lines := []string{
		fmt.Sprintf("### %s %s", statusMarker(r.Status), r.TaskID),
		"",
	}

	if r.AgentID != "" {
		lines = append(lines, fmt.Sprintf("**Agent:** %s  ", r.AgentID))
	}
	if r.Duration > 0 {
		lines = append(lines, fmt.Sprintf("**Duration:** %s  ", r.Duration.Round(time.Millisecond)))
	}

	if len(r.Issues) > 0 {
		lines = append(lines, "", "**Issues:**")
		for _, issue := range r.Issues {
			lines = append(lines, fmt.Sprintf("- %s", issue))
		}
	}

	if len(r.Artifacts) > 0 {
		lines = append(lines, "", "**Artifacts:**")
		for _, a := range r.Artifacts {
			lines = append(lines, fmt.Sprintf("- `%s`", a))
		}
	}

	lines = append(lines, "")
	return lines
}

func statusMarker(status farm.ResultStatus) string {
	switch status {
	case farm.StatusSuccess:
		return "✓"
	case farm.StatusFailure:
		return "✗"
	case farm.StatusBlocked:
		return "⊘"
	}
	return "?"
}
