// Package tui implements the live watch view for a running batch: a task
// list with per-task status plus a scrollable event log, fed from the
// emitter through a channel bridge.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/agentfarm/orchestrator/internal/events"
)

// taskRow tracks the displayed state of one task.
type taskRow struct {
	ID       string
	Type     string
	AgentID  string
	Status   string // "queued", "running", "done", "failed", "blocked"
	Duration time.Duration
}

// Model is the root Bubble Tea model for the watch view.
type Model struct {
	tasks     map[string]*taskRow
	taskOrder []string // insertion order for display
	logLines  []string
	viewport  viewport.Model
	eventSub  <-chan events.Event
	width     int
	height    int
	quitting  bool
}

// New creates a watch model reading from the given event channel.
// Callers typically pass events.NewChannelHandler's receive side after
// subscribing the handler to the emitter.
func New(eventSub <-chan events.Event) Model {
	return Model{
		tasks:    make(map[string]*taskRow),
		viewport: viewport.New(0, 0),
		eventSub: eventSub,
	}
}

// Init initializes the model and returns the initial command.
func (m Model) Init() tea.Cmd {
	return waitForEvent(m.eventSub)
}

// waitForEvent returns a command that waits for the next event from the
// channel bridge.
func waitForEvent(sub <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-sub
		if !ok {
			return nil // bridge closed
		}
		return event
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case KeyQuit, KeyCtrlC:
			m.quitting = true
			return m, tea.Quit

		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewport()

	case events.Event:
		m.applyEvent(msg)
		cmds = append(cmds, waitForEvent(m.eventSub))
	}

	return m, tea.Batch(cmds...)
}

// applyEvent updates the task table and appends a log line.
func (m *Model) applyEvent(event events.Event) {
	switch e := event.(type) {
	case events.TaskQueuedEvent:
		m.row(e.ID).Type = e.Type
		m.row(e.ID).Status = "queued"
		m.logf("%s queued %s (%s, %s)", stamp(e.Timestamp), e.ID, e.Type, e.Priority)

	case events.TaskStartedEvent:
		row := m.row(e.ID)
		row.Type = e.Type
		row.AgentID = e.AgentID
		row.Status = "running"
		m.logf("%s started %s on %s", stamp(e.Timestamp), e.ID, e.AgentID)

	case events.TaskCompletedEvent:
		row := m.row(e.ID)
		row.Status = "done"
		row.Duration = e.Duration
		m.logf("%s completed %s in %s", stamp(e.Timestamp), e.ID, e.Duration.Round(time.Millisecond))

	case events.TaskFailedEvent:
		row := m.row(e.ID)
		row.Status = "failed"
		row.Duration = e.Duration
		issue := ""
		if len(e.Issues) > 0 {
			issue = ": " + e.Issues[0]
		}
		m.logf("%s failed %s%s", stamp(e.Timestamp), e.ID, issue)

	case events.TaskBlockedEvent:
		m.row(e.ID).Status = "blocked"
		m.logf("%s blocked %s (no capacity for %s)", stamp(e.Timestamp), e.ID, e.Type)
	}
}

// row returns the display row for a task, creating it on first sight.
func (m *Model) row(taskID string) *taskRow {
	if row, ok := m.tasks[taskID]; ok {
		return row
	}
	row := &taskRow{ID: taskID}
	m.tasks[taskID] = row
	m.taskOrder = append(m.taskOrder, taskID)
	return row
}

func (m *Model) logf(format string, args ...any) {
	m.logLines = append(m.logLines, fmt.Sprintf(format, args...))
	m.viewport.SetContent(strings.Join(m.logLines, "\n"))
	m.viewport.GotoBottom()
}

func stamp(t time.Time) string {
	return t.Format("15:04:05")
}

// View renders the watch view.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	title := StyleTitle.Render("Agent Farm")
	counts := m.countsLine()
	taskList := m.taskListView()

	logPane := StyleUnfocusedBorder.
		Width(m.width - 2).
		Render(m.viewport.View())

	helpBar := HelpView()

	return lipgloss.JoinVertical(lipgloss.Left, title, counts, taskList, logPane, helpBar)
}

func (m Model) countsLine() string {
	var running, done, failed, blocked int
	for _, row := range m.tasks {
		switch row.Status {
		case "running":
			running++
		case "done":
			done++
		case "failed":
			failed++
		case "blocked":
			blocked++
		}
	}
	return fmt.Sprintf(" %s  %s  %s  %s",
		StyleStatusRunning.Render(fmt.Sprintf("%d running", running)),
		StyleStatusComplete.Render(fmt.Sprintf("%d done", done)),
		StyleStatusFailed.Render(fmt.Sprintf("%d failed", failed)),
		StyleStatusBlocked.Render(fmt.Sprintf("%d blocked", blocked)),
	)
}

func (m Model) taskListView() string {
	if len(m.taskOrder) == 0 {
		return StyleStatusQueued.Render(" Waiting for tasks...")
	}

	var lines []string
	for _, id := range m.taskOrder {
		row := m.tasks[id]
		status := statusLabel(row.Status)
		detail := row.AgentID
		if row.Duration > 0 {
			detail = fmt.Sprintf("%s %s", detail, row.Duration.Round(time.Millisecond))
		}
		lines = append(lines, fmt.Sprintf(" %s %-10s %-12s %s", status, row.ID, row.Type, detail))
	}
	return strings.Join(lines, "\n")
}

func statusLabel(status string) string {
	switch status {
	case "running":
		return StyleStatusRunning.Render("●")
	case "done":
		return StyleStatusComplete.Render("✓")
	case "failed":
		return StyleStatusFailed.Render("✗")
	case "blocked":
		return StyleStatusBlocked.Render("⊘")
	}
	return StyleStatusQueued.Render("○")
}

// resizeViewport sizes the log pane to the remaining space below the task
// list, keeping a minimum usable height.
func (m *Model) resizeViewport() {
	listHeight := len(m.taskOrder) + 3 // title + counts + help bar
	logHeight := m.height - listHeight - 3
	if logHeight < 5 {
		logHeight = 5
	}

	logWidth := m.width - 4
	if logWidth < 10 {
		logWidth = 10
	}

	m.viewport.Width = logWidth
	m.viewport.Height = logHeight
}
