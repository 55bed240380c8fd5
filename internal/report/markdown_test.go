package report

import (
	"strings"
	"testing"
	"time"

	"github.com/agentfarm/orchestrator/internal/farm"
)

func sampleSummary() *farm.BatchSummary {
	results := []*farm.Result{
		{
			TaskID:    "t1",
			AgentID:   "coder",
			Status:    farm.StatusSuccess,
			Artifacts: []string{".farm-output/coder-t1.log"},
			Duration:  1200 * time.Millisecond,
		},
		farm.FailureResult("t2", "tester", "tests failed"),
		farm.BlockedResult("t3", "deploy"),
	}

	agg := farm.NewAggregator()
	for _, r := range results {
		agg.Add(r)
	}
	return agg.Summary()
}

// TestMarkdownSections verifies the counts table and per-task sections.
func TestMarkdownSections(t *testing.T) {
	md := Markdown(sampleSummary(), "Nightly Batch")

	for _, want := range []string{
		"# Nightly Batch",
		"| Succeeded | Failed | Blocked | Total |",
		"| 1 | 1 | 1 | 3 |",
		"### ✓ t1",
		"### ✗ t2",
		"### ⊘ t3",
		"**Agent:** coder",
		"- tests failed",
		"- `.farm-output/coder-t1.log`",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q\n%s", want, md)
		}
	}
}

// TestMarkdownEmpty verifies the no-results rendering.
func TestMarkdownEmpty(t *testing.T) {
	summary := farm.NewAggregator().Summary()
	md := Markdown(summary, "Empty Batch")

	if !strings.Contains(md, "No tasks executed.") {
		t.Errorf("markdown missing empty notice:\n%s", md)
	}
	if strings.Contains(md, "| Succeeded") {
		t.Error("empty report should not render the counts table")
	}
}

// TestMarkdownAllFailed verifies a fully failing batch still renders.
func TestMarkdownAllFailed(t *testing.T) {
	agg := farm.NewAggregator()
	agg.Add(farm.FailureResult("t1", "a1", "boom"))
	agg.Add(farm.FailureResult("t2", "a1", "bang"))

	md := Markdown(agg.Summary(), "Bad Night")
	if !strings.Contains(md, "| 0 | 2 | 0 | 2 |") {
		t.Errorf("markdown counts wrong:\n%s", md)
	}
}

// TestTerminalSummary verifies the styled rendering carries counts and the
// aggregate issue list.
func TestTerminalSummary(t *testing.T) {
	out := Terminal(sampleSummary(), "Batch Results")

	for _, want := range []string{
		"Batch Results",
		"1 succeeded",
		"1 failed",
		"1 blocked",
		"t1",
		"tests failed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("terminal output missing %q\n%s", want, out)
		}
	}
}

// TestTerminalEmpty verifies the no-results rendering.
func TestTerminalEmpty(t *testing.T) {
	out := Terminal(farm.NewAggregator().Summary(), "Batch Results")
	if !strings.Contains(out, "No tasks executed.") {
		t.Errorf("terminal output missing empty notice:\n%s", out)
	}
}
