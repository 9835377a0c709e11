package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/pixperk/spssprep/internal/config"
	"github.com/pixperk/spssprep/internal/detect"
	"github.com/pixperk/spssprep/internal/encoding"
)

// ColumnState pairs what was detected in a column with how it will be encoded
type ColumnState struct {
	Meta   detect.Metadata
	Config config.ResolvedColumnConfig
}

// SaveFunc persists the edited column settings
type SaveFunc func(columns []config.ResolvedColumnConfig) error

var kindCycle = []encoding.Kind{encoding.Ordinal, encoding.Nominal, encoding.Scale, encoding.Ignore}

type configureKeys struct {
	Up        key.Binding
	Down      key.Binding
	MoveUp    key.Binding
	MoveDown  key.Binding
	Open      key.Binding
	Back      key.Binding
	Kind      key.Binding
	Direction key.Binding
	Inc       key.Binding
	Dec       key.Binding
	Reset     key.Binding
	Save      key.Binding
	Quit      key.Binding
}

func newConfigureKeys() configureKeys {
	return configureKeys{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		MoveUp:    key.NewBinding(key.WithKeys("shift+up", "K"), key.WithHelp("K", "move value up")),
		MoveDown:  key.NewBinding(key.WithKeys("shift+down", "J"), key.WithHelp("J", "move value down")),
		Open:      key.NewBinding(key.WithKeys("enter", "right", "l"), key.WithHelp("enter", "edit column")),
		Back:      key.NewBinding(key.WithKeys("esc", "left", "h"), key.WithHelp("esc", "back")),
		Kind:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "kind")),
		Direction: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "direction")),
		Inc:       key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "start value")),
		Dec:       key.NewBinding(key.WithKeys("-")),
		Reset:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset order")),
		Save:      key.NewBinding(key.WithKeys("s", "ctrl+s"), key.WithHelp("s", "save")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k configureKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.Back, k.Kind, k.Direction, k.Inc, k.MoveUp, k.MoveDown, k.Reset, k.Save, k.Quit}
}

func (k configureKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open, k.Back},
		{k.Kind, k.Direction, k.Inc, k.Reset},
		{k.MoveUp, k.MoveDown, k.Save, k.Quit},
	}
}

type savedMsg struct{ err error }

// ConfigureModel lets the user pick a kind, start value, direction and value
// order for every column, then hands the result to a SaveFunc.
type ConfigureModel struct {
	Width  int
	Height int

	columns     []ColumnState
	cursor      int
	editing     bool
	valueCursor int

	keys    configureKeys
	help    help.Model
	spinner spinner.Model
	save    SaveFunc

	saving bool
	saved  bool
	status string
	err    error
}

func NewConfigureModel(columns []ColumnState, save SaveFunc) ConfigureModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(PrimaryColor)

	cols := make([]ColumnState, len(columns))
	for i, c := range columns {
		c.Config.Order = append([]string(nil), c.Config.Order...)
		cols[i] = c
	}

	return ConfigureModel{
		columns: cols,
		keys:    newConfigureKeys(),
		help:    help.New(),
		spinner: s,
		save:    save,
		status:  "Ready",
	}
}

// Columns returns the current settings in column order
func (m ConfigureModel) Columns() []config.ResolvedColumnConfig {
	out := make([]config.ResolvedColumnConfig, len(m.columns))
	for i, c := range m.columns {
		out[i] = c.Config
	}
	return out
}

func (m ConfigureModel) Saved() bool { return m.saved }

func (m ConfigureModel) Err() error { return m.err }

func (m ConfigureModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m ConfigureModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case savedMsg:
		m.saving = false
		if msg.err != nil {
			m.err = msg.err
			m.status = "Save failed"
			return m, nil
		}
		m.err = nil
		m.saved = true
		m.status = "Saved"
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.saving {
			return m, nil
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m ConfigureModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if len(m.columns) == 0 {
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	}
	col := &m.columns[m.cursor]

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Save):
		m.saving = true
		m.status = "Saving..."
		return m, tea.Batch(m.spinner.Tick, m.saveCmd())

	case key.Matches(msg, m.keys.Kind):
		col.Config.Kind = nextKind(col.Config.Kind)

	case key.Matches(msg, m.keys.Direction):
		if col.Config.Direction == encoding.Descending {
			col.Config.Direction = encoding.Ascending
		} else {
			col.Config.Direction = encoding.Descending
		}

	case key.Matches(msg, m.keys.Inc):
		col.Config.StartValue++

	case key.Matches(msg, m.keys.Dec):
		if col.Config.StartValue > 0 {
			col.Config.StartValue--
		}

	case key.Matches(msg, m.keys.Reset):
		col.Config.Order = append([]string(nil), col.Meta.Values...)
		m.valueCursor = 0

	case key.Matches(msg, m.keys.MoveUp):
		if m.editing && m.valueCursor > 0 {
			col.Config.Order = swapped(col.Config.Order, m.valueCursor, m.valueCursor-1)
			m.valueCursor--
		}

	case key.Matches(msg, m.keys.MoveDown):
		if m.editing && m.valueCursor < len(col.Config.Order)-1 {
			col.Config.Order = swapped(col.Config.Order, m.valueCursor, m.valueCursor+1)
			m.valueCursor++
		}

	case key.Matches(msg, m.keys.Up):
		if m.editing {
			if m.valueCursor > 0 {
				m.valueCursor--
			}
		} else if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.editing {
			if m.valueCursor < len(col.Config.Order)-1 {
				m.valueCursor++
			}
		} else if m.cursor < len(m.columns)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Open):
		m.editing = true
		m.valueCursor = 0

	case key.Matches(msg, m.keys.Back):
		m.editing = false
	}
	return m, nil
}

func (m ConfigureModel) saveCmd() tea.Cmd {
	columns := m.Columns()
	save := m.save
	return func() tea.Msg {
		if save == nil {
			return savedMsg{}
		}
		return savedMsg{err: save(columns)}
	}
}

// swapped returns a copy of order with i and j exchanged
func swapped(order []string, i, j int) []string {
	out := append([]string(nil), order...)
	out[i], out[j] = out[j], out[i]
	return out
}

func nextKind(k encoding.Kind) encoding.Kind {
	for i, c := range kindCycle {
		if c == k {
			return kindCycle[(i+1)%len(kindCycle)]
		}
	}
	return kindCycle[0]
}

func (m ConfigureModel) View() string {
	title := TitleStyle.Render("Configure encoding")

	var body string
	switch {
	case len(m.columns) == 0:
		body = DimStyle.Render("No columns to configure")
	case m.editing:
		body = m.renderColumn(m.columns[m.cursor])
	default:
		body = m.renderList()
	}

	var status string
	switch {
	case m.saving:
		status = fmt.Sprintf("%s %s", m.spinner.View(), m.status)
	case m.err != nil:
		status = ErrorStyle.Render(fmt.Sprintf("Error: %s", m.err.Error()))
	default:
		status = InfoStyle.Render(m.status)
	}

	footer := FooterStyle.Render(m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, title, body, "", status, footer)
}

func (m ConfigureModel) renderList() string {
	headers := []string{"", "Column", "Kind", "Values", "Missing", "Start", "Direction"}
	rows := make([][]string, len(m.columns))
	for i, c := range m.columns {
		marker := " "
		if i == m.cursor {
			marker = "›"
		}
		rows[i] = []string{
			marker,
			Truncate(c.Meta.Name, 32),
			KindBadge(string(c.Config.Kind)),
			humanize.Comma(int64(c.Meta.Distinct)),
			humanize.Comma(int64(c.Meta.Missing)),
			fmt.Sprint(c.Config.StartValue),
			string(c.Config.Direction),
		}
	}
	return RenderTable(headers, rows)
}

func (m ConfigureModel) renderColumn(c ColumnState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s  start %d  %s\n\n",
		HighlightStyle.Render(c.Meta.Name),
		KindBadge(string(c.Config.Kind)),
		c.Config.StartValue,
		c.Config.Direction,
	)

	mapping := c.Config.EncodingConfig("").Mapping()
	for i, v := range c.Config.Order {
		code := "-"
		if n, ok := mapping[v]; ok {
			code = fmt.Sprint(n)
		}
		line := fmt.Sprintf("%4s  %s  (%s)", code, Truncate(v, 48), humanize.Comma(int64(c.Meta.Counts[v])))
		if i == m.valueCursor {
			line = SelectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	if c.Meta.MultiResponse {
		b.WriteString("\n" + WarningStyle.Render("! looks like a multi-response column"))
	}
	return BoxStyle.Render(b.String())
}
