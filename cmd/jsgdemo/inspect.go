package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	jsg "github.com/jerbob92/wazero-jsg"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	collectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))
)

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Alloc  key.Binding
	Wrap   key.Binding
	Clone  key.Binding
	Drop   key.Binding
	Pin    key.Binding
	Revive key.Binding
	GC     key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Alloc, k.Wrap, k.Drop, k.GC, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Alloc, k.Wrap, k.Clone, k.Drop},
		{k.Pin, k.Revive, k.GC},
		{k.Help, k.Quit},
	}
}

var keys = keyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Alloc:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "allocate")),
	Wrap:   key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "wrap")),
	Clone:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clone ref")),
	Drop:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "drop ref")),
	Pin:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pin/unpin wrapper")),
	Revive: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "ref from wrapper")),
	GC:     key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "collect")),
	Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type inspectModel struct {
	session  *session
	help     help.Model
	selected int
	status   string
	err      error
}

func newInspectModel(s *session) *inspectModel {
	return &inspectModel{
		session: s,
		help:    help.New(),
	}
}

func (m *inspectModel) Init() tea.Cmd {
	return nil
}

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case tea.KeyMsg:
		m.err = nil
		m.status = ""

		switch {
		case key.Matches(msg, keys.Quit):
			m.session.close()
			return m, tea.Quit

		case key.Matches(msg, keys.Help):
			m.help.ShowAll = !m.help.ShowAll

		case key.Matches(msg, keys.Up):
			if m.selected > 0 {
				m.selected--
			}

		case key.Matches(msg, keys.Down):
			if m.selected < len(m.session.entries)-1 {
				m.selected++
			}

		case key.Matches(msg, keys.Alloc):
			m.apply("allocated", func(int) error { return m.session.alloc() })
			if m.err == nil {
				m.selected = len(m.session.entries) - 1
			}

		case key.Matches(msg, keys.Wrap):
			m.apply("wrapped", m.session.wrap)

		case key.Matches(msg, keys.Clone):
			m.apply("cloned", m.session.clone)

		case key.Matches(msg, keys.Drop):
			m.apply("dropped a ref", m.session.drop)

		case key.Matches(msg, keys.Pin):
			m.apply("toggled pin", m.session.pin)

		case key.Matches(msg, keys.Revive):
			m.apply("took a ref from the wrapper", m.session.revive)

		case key.Matches(msg, keys.GC):
			before := m.session.log.total
			m.session.gc()
			m.status = fmt.Sprintf("collected, %d probe(s) finalized", m.session.log.total-before)
		}
	}

	return m, nil
}

func (m *inspectModel) apply(status string, op func(int) error) {
	if err := op(m.selected); err != nil {
		m.err = err
		return
	}
	m.status = status
}

func (m *inspectModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("jsg inspector"))
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render(fmt.Sprintf("  %-8s %-16s %6s %6s %s", "probe", "state", "count", "held", "wrapper")))
	b.WriteString("\n")

	if len(m.session.entries) == 0 {
		b.WriteString("  nothing allocated yet\n")
	}
	for i, e := range m.session.entries {
		line := fmt.Sprintf("%-8d %-16s %6d %6d %s", e.id, e.state(), e.first.Count(), len(e.held), wrapperLabel(e))
		switch {
		case i == m.selected:
			b.WriteString(selectedStyle.Render("> " + line))
		case e.state() == jsg.StateCollected:
			b.WriteString(collectedStyle.Render("  " + line))
		default:
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	stats := m.session.iso.Stats()
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("objects %d • weak handles %d • collections %d • finalized %d • live wrapper states %d • destroyed %d\n",
		stats.Objects, stats.WeakHandles, stats.Collections, stats.Finalized, jsg.LiveWrapperStates(), m.session.log.total))

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
	case m.status != "":
		b.WriteString(statusStyle.Render(m.status))
	}
	b.WriteString("\n\n")
	b.WriteString(m.help.View(keys))

	return b.String()
}

func wrapperLabel(e *entry) string {
	switch {
	case e.wrapper == nil:
		return "-"
	case e.pinned:
		return "pinned as " + e.globalName()
	default:
		return "unpinned"
	}
}

func runInspect(s *session) error {
	p := tea.NewProgram(newInspectModel(s), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
