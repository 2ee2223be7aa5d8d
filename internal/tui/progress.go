// internal/tui/progress.go
// Package tui renders live benchmark progress with Bubble Tea. It wraps a
// workload function: the workload runs in a goroutine and streams progress
// events into the program, and the program exits when the workload returns.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/browserbench/browserbench/internal/harness"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229"))
)

// progressMsg carries one runner event into the update loop.
type progressMsg harness.Progress

// doneMsg signals that the workload returned.
type doneMsg struct{ err error }

// approachState tracks run outcomes for one approach row.
type approachState struct {
	approach Approach
	done     int
	failed   int
	total    int
	active   bool
}

// Approach mirrors the harness approach label for display.
type Approach = harness.Approach

type model struct {
	title    string
	spinner  spinner.Model
	rows     []approachState
	current  string
	finished bool
	err      error
}

func initialModel(title string, approaches []Approach) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	rows := make([]approachState, len(approaches))
	for i, a := range approaches {
		rows[i] = approachState{approach: a}
	}
	return model{title: title, spinner: s, rows: rows}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m, nil

	case progressMsg:
		for i := range m.rows {
			m.rows[i].active = m.rows[i].approach == msg.Approach
		}
		row := m.row(msg.Approach)
		if row != nil {
			row.total = msg.Total
			switch msg.Phase {
			case "done":
				row.done++
			case "failed":
				row.failed++
			}
		}
		m.current = fmt.Sprintf("%s run %d/%d", msg.Approach, msg.Run, msg.Total)
		return m, nil

	case doneMsg:
		m.finished = true
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) row(a Approach) *approachState {
	for i := range m.rows {
		if m.rows[i].approach == a {
			return &m.rows[i]
		}
	}
	return nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	for _, row := range m.rows {
		marker := "  "
		if row.active && !m.finished {
			marker = m.spinner.View()
		}
		line := fmt.Sprintf("%s %-12s %s", marker, row.approach, renderCounts(row))
		if row.active && !m.finished {
			line = activeStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.finished {
		if m.err != nil {
			b.WriteString(failStyle.Render(fmt.Sprintf("benchmark failed: %v", m.err)))
		} else {
			b.WriteString(okStyle.Render("benchmark complete"))
		}
	} else if m.current != "" {
		b.WriteString(labelStyle.Render(m.current))
	}
	b.WriteString("\n")
	return b.String()
}

func renderCounts(row approachState) string {
	if row.total == 0 {
		return labelStyle.Render("waiting")
	}
	parts := []string{okStyle.Render(fmt.Sprintf("%d ok", row.done))}
	if row.failed > 0 {
		parts = append(parts, failStyle.Render(fmt.Sprintf("%d failed", row.failed)))
	}
	return fmt.Sprintf("%s of %d", strings.Join(parts, ", "), row.total)
}

// Run drives the workload under a live progress display. The workload
// receives a progress sink to wire into the runner; Run returns the
// workload's error once the display has shut down.
func Run(title string, approaches []Approach, workload func(onProgress func(harness.Progress)) error) error {
	program := tea.NewProgram(initialModel(title, approaches))

	errCh := make(chan error, 1)
	go func() {
		err := workload(func(p harness.Progress) {
			program.Send(progressMsg(p))
		})
		errCh <- err
		program.Send(doneMsg{err: err})
	}()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("progress display: %w", err)
	}
	return <-errCh
}
