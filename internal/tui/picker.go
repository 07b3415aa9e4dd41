// Package tui provides interactive terminal pickers built on bubbletea.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const defaultPageSize = 10

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")).MarginBottom(1)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4ECDC4"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#737373"))
)

// PickerModel is a filterable single-choice list.
type PickerModel struct {
	filter   textinput.Model
	keymap   KeyMap
	title    string
	choice   string
	options  []string
	visible  []int
	cursor   int
	offset   int
	pageSize int
	chosen   bool
	quitting bool
}

// NewPickerModel creates a picker over options.
func NewPickerModel(title string, options []string) PickerModel {
	ti := textinput.New()
	ti.Placeholder = "검색"
	ti.Prompt = "/ "
	ti.Focus()

	m := PickerModel{
		filter:   ti,
		keymap:   DefaultKeyMap(),
		title:    title,
		options:  options,
		pageSize: defaultPageSize,
	}
	m.applyFilter()
	return m
}

// Init implements tea.Model.
func (m PickerModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Title, filter, help and margins take six lines.
		m.pageSize = max(1, msg.Height-6)
		m.clampOffset()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keymap.Select):
			if len(m.visible) == 0 {
				return m, nil
			}
			m.choice = m.options[m.visible[m.cursor]]
			m.chosen = true
			return m, tea.Quit
		case key.Matches(msg, m.keymap.Up):
			m.move(-1)
			return m, nil
		case key.Matches(msg, m.keymap.Down):
			m.move(1)
			return m, nil
		case key.Matches(msg, m.keymap.PageUp):
			m.move(-m.pageSize)
			return m, nil
		case key.Matches(msg, m.keymap.PageDown):
			m.move(m.pageSize)
			return m, nil
		case key.Matches(msg, m.keymap.Clear):
			m.filter.SetValue("")
			m.applyFilter()
			return m, nil
		}
	}

	before := m.filter.Value()
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	if m.filter.Value() != before {
		m.applyFilter()
	}
	return m, cmd
}

func (m *PickerModel) move(delta int) {
	if len(m.visible) == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), len(m.visible)-1)
	m.clampOffset()
}

func (m *PickerModel) clampOffset() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.pageSize {
		m.offset = m.cursor - m.pageSize + 1
	}
}

// applyFilter keeps options containing every space-separated term, ignoring case.
func (m *PickerModel) applyFilter() {
	terms := strings.Fields(strings.ToLower(m.filter.Value()))
	visible := make([]int, 0, len(m.options))
	for i, opt := range m.options {
		lower := strings.ToLower(opt)
		match := true
		for _, term := range terms {
			if !strings.Contains(lower, term) {
				match = false
				break
			}
		}
		if match {
			visible = append(visible, i)
		}
	}
	m.visible = visible
	m.cursor = 0
	m.offset = 0
}

// View implements tea.Model.
func (m PickerModel) View() string {
	if m.quitting || m.chosen {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.filter.View())
	b.WriteString("\n\n")

	if len(m.visible) == 0 {
		b.WriteString(mutedStyle.Render("  일치하는 항목이 없습니다"))
		b.WriteString("\n")
	}

	end := min(m.offset+m.pageSize, len(m.visible))
	for i := m.offset; i < end; i++ {
		label := m.options[m.visible[i]]
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + label))
		} else {
			b.WriteString("  " + label)
		}
		b.WriteString("\n")
	}

	help := make([]string, 0, 4)
	for _, binding := range m.keymap.ShortHelp() {
		h := binding.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(strings.Join(help, " • ")))
	return b.String()
}

// Choice returns the selected option and whether one was chosen.
func (m PickerModel) Choice() (string, bool) {
	return m.choice, m.chosen
}
