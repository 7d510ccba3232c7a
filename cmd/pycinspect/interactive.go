package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/pycmarshal/marshal"
	"github.com/wippyai/pycmarshal/render"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	summaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding
	Toggle key.Binding
	Follow key.Binding
	Search key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.Follow, k.Search, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.Toggle, k.Follow, k.Search},
		{k.Help, k.Quit},
	}
}

var keys = keyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Top:    key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
	Bottom: key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
	Toggle: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "expand/collapse")),
	Follow: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "follow ref")),
	Search: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "find path")),
	Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// browserModel shows the decoded tree as a collapsible outline.
type browserModel struct {
	file      *marshal.File
	dec       *marshal.Decoder
	collapsed map[string]bool
	filename  string
	status    string
	statusErr bool
	rows      []render.Row
	help      help.Model
	search    textinput.Model
	selected  int
	top       int
	height    int
	searching bool
}

func newBrowserModel(filename string, f *marshal.File, d *marshal.Decoder) *browserModel {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "path fragment"
	ti.Width = 40

	m := &browserModel{
		file:      f,
		dec:       d,
		filename:  filename,
		collapsed: make(map[string]bool),
		help:      help.New(),
		search:    ti,
		height:    20,
	}
	m.rows = render.Outline(f.Root, m.collapsed)
	return m
}

func (m *browserModel) Init() tea.Cmd {
	return nil
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		// title, header line, blank, status, help
		m.height = max(msg.Height-6, 1)
		m.scroll()
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		m.status = ""
		m.statusErr = false

		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			if m.selected > 0 {
				m.selected--
			}
		case key.Matches(msg, keys.Down):
			if m.selected < len(m.rows)-1 {
				m.selected++
			}
		case key.Matches(msg, keys.Top):
			m.selected = 0
		case key.Matches(msg, keys.Bottom):
			m.selected = len(m.rows) - 1
		case key.Matches(msg, keys.Toggle):
			m.toggle()
		case key.Matches(msg, keys.Follow):
			m.follow()
		case key.Matches(msg, keys.Search):
			m.searching = true
			m.search.SetValue("")
			return m, m.search.Focus()
		case key.Matches(msg, keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		m.scroll()
	}
	return m, nil
}

func (m *browserModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		return m, nil
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		m.find(m.search.Value())
		m.scroll()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

// toggle collapses or expands the selected row.
func (m *browserModel) toggle() {
	row := m.rows[m.selected]
	if !row.Expandable {
		return
	}
	if m.collapsed[row.Path] {
		delete(m.collapsed, row.Path)
	} else {
		m.collapsed[row.Path] = true
	}
	m.rows = render.Outline(m.file.Root, m.collapsed)
}

// follow reports where the selected Ref points.
func (m *browserModel) follow() {
	ref, ok := m.rows[m.selected].Value.(marshal.Ref)
	if !ok {
		m.status = "not a reference"
		m.statusErr = true
		return
	}
	v, ok := m.dec.Resolve(ref)
	if !ok {
		m.status = fmt.Sprintf("Ref(%d) has no table entry", uint32(ref))
		m.statusErr = true
		return
	}
	m.status = fmt.Sprintf("Ref(%d) => %s", uint32(ref), render.Summary(v))
}

// find selects the next row after the cursor whose path contains query,
// wrapping around.
func (m *browserModel) find(query string) {
	if query == "" {
		return
	}
	n := len(m.rows)
	for i := 1; i <= n; i++ {
		idx := (m.selected + i) % n
		if strings.Contains(m.rows[idx].Path, query) {
			m.selected = idx
			return
		}
	}
	m.status = fmt.Sprintf("no path matches %q", query)
	m.statusErr = true
}

// scroll keeps the selection inside the visible window.
func (m *browserModel) scroll() {
	if m.selected < m.top {
		m.top = m.selected
	}
	if m.selected >= m.top+m.height {
		m.top = m.selected - m.height + 1
	}
}

func (m *browserModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("pycinspect"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n")

	h := m.file.Header
	fmt.Fprintf(&b, "magic %s (%d)", h.MagicHex(), h.MagicNo)
	if v, ok := h.PythonVersion(); ok {
		fmt.Fprintf(&b, " python %s", v)
	}
	fmt.Fprintf(&b, ", %s, %d refs\n\n", h.FormatTimestamp(), m.dec.Refs())

	end := min(m.top+m.height, len(m.rows))
	for i := m.top; i < end; i++ {
		line := m.formatRow(m.rows[i])
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.searching:
		b.WriteString(m.search.View())
	case m.statusErr:
		b.WriteString(errorStyle.Render(m.status))
	default:
		b.WriteString(statusStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(keys))
	return b.String()
}

func (m *browserModel) formatRow(r render.Row) string {
	marker := "  "
	if r.Expandable {
		marker = "▾ "
		if r.Collapsed {
			marker = "▸ "
		}
	}
	return strings.Repeat("  ", r.Depth) + marker + nameStyle.Render(r.Name) + " " + summaryStyle.Render(r.Summary)
}

func runInteractive(filename string, f *marshal.File, d *marshal.Decoder) error {
	p := tea.NewProgram(newBrowserModel(filename, f, d), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
