package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// StageMsg reports that the run reached step Done of Total
type StageMsg struct {
	Stage string
	Done  int
	Total int
}

// FinishedMsg ends the progress view
type FinishedMsg struct {
	Err     error
	Summary string
}

// ProgressModel shows a bar for a multi-stage run fed by StageMsg values
// sent from another goroutine through tea.Program.Send.
type ProgressModel struct {
	progress      progress.Model
	total         int
	current       int
	operationName string
	status        string
	width         int
	finished      bool
	err           error
	summary       string
}

func NewProgressModel(operationName string, total int) ProgressModel {
	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return ProgressModel{
		progress:      p,
		total:         total,
		operationName: operationName,
		status:        "Starting...",
		width:         80,
	}
}

// SetProgress moves the bar to value, clamped to the total
func (m *ProgressModel) SetProgress(value int, status string) {
	m.current = value
	if m.current > m.total {
		m.current = m.total
	}
	if m.current < 0 {
		m.current = 0
	}
	m.status = status
}

func (m ProgressModel) Err() error { return m.err }

func (m ProgressModel) Finished() bool { return m.finished }

func (m ProgressModel) Init() tea.Cmd {
	return nil
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.err = fmt.Errorf("interrupted")
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > 30 {
			m.progress.Width = msg.Width - 20
		}
	case StageMsg:
		if msg.Total > 0 {
			m.total = msg.Total
		}
		m.SetProgress(msg.Done, msg.Stage)
		return m, nil
	case FinishedMsg:
		m.finished = true
		m.err = msg.Err
		m.summary = msg.Summary
		if msg.Err == nil {
			m.current = m.total
		}
		return m, tea.Quit
	}

	progressModel, cmd := m.progress.Update(msg)
	m.progress = progressModel.(progress.Model)
	return m, cmd
}

func (m ProgressModel) View() string {
	percent := 0.0
	if m.total > 0 {
		percent = float64(m.current) / float64(m.total)
	}

	pad := strings.Repeat(" ", 2)
	title := HighlightStyle.Render(m.operationName)
	bar := m.progress.ViewAs(percent)
	stats := InfoStyle.Render(fmt.Sprintf("%d/%d", m.current, m.total))

	status := InfoStyle.Render(m.status)
	switch {
	case m.finished && m.err != nil:
		status = ErrorStyle.Render("✗ " + m.err.Error())
	case m.finished:
		status = SuccessStyle.Render("✓ " + m.summary)
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, bar, pad+stats, pad+status) + "\n"
}
