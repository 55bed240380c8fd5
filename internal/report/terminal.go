package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/agentfarm/orchestrator/internal/farm"
)

var (
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	styleSuccess = lipgloss.NewStyle().
			Foreground(lipgloss.Color("green")).
			Bold(true)

	styleFailure = lipgloss.NewStyle().
			Foreground(lipgloss.Color("red")).
			Bold(true)

	styleBlocked = lipgloss.NewStyle().
			Foreground(lipgloss.Color("yellow"))

	styleDim = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// Terminal renders a batch summary as a styled terminal block.
func Terminal(summary *farm.BatchSummary, title string) string {
	var b strings.Builder

	b.WriteString(styleTitle.Render(title))
	b.WriteString("\n\n")

	if len(summary.Results) == 0 {
		b.WriteString(styleDim.Render("No tasks executed."))
		b.WriteString("\n")
		return b.String()
	}

	agg := summary.Aggregate
	b.WriteString(fmt.Sprintf("  %s  %s  %s\n\n",
		styleSuccess.Render(fmt.Sprintf("%d succeeded", agg.SuccessCount)),
		styleFailure.Render(fmt.Sprintf("%d failed", agg.FailureCount)),
		styleBlocked.Render(fmt.Sprintf("%d blocked", agg.BlockedCount)),
	))

	for _, r := range summary.Results {
		b.WriteString(terminalLine(r))
	}

	if len(agg.Issues) > 0 {
		b.WriteString("\n")
		b.WriteString(styleFailure.Render("Issues:"))
		b.WriteString("\n")
		for _, issue := range agg.Issues {
			b.WriteString(fmt.Sprintf("  - %s\n", issue))
		}
	}

	return b.String()
}

func terminalLine(r *farm.Result) string {
	marker := statusStyle(r.Status).Render(statusMarker(r.Status))

	detail := r.AgentID
	if r.Duration > 0 {
		detail = fmt.Sprintf("%s  %s", detail, r.Duration.Round(time.Millisecond))
	}
	if detail != "" {
		detail = styleDim.Render(detail)
	}

	return fmt.Sprintf("  %s %s  %s\n", marker, r.TaskID, detail)
}

func statusStyle(status farm.ResultStatus) lipgloss.Style {
	switch status {
	case farm.StatusSuccess:
		return styleSuccess
	case farm.StatusFailure:
		return styleFailure
	case farm.StatusBlocked:
		return styleBlocked
	}
	return styleDim
}
