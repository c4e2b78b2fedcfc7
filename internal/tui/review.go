// Package tui provides the interactive review screen for learned rule
// candidates. The learner proposes, a human disposes: nothing reaches the
// rule store without passing through this screen (or --yes).
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/petgully/tally/internal/cli"
	"github.com/petgully/tally/internal/model"
)

// ReviewResult is the outcome of a review session.
type ReviewResult struct {
	Approved []model.CandidateRule
	Aborted  bool
}

// KeyMap defines the review screen's keyboard shortcuts.
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Toggle    key.Binding
	AcceptAll key.Binding
	RejectAll key.Binding
	Confirm   key.Binding
	Quit      key.Binding
	Help      key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "x"),
			key.WithHelp("space", "toggle"),
		),
		AcceptAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "accept all"),
		),
		RejectAll: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "reject all"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "commit selection"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "abort"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.Confirm, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle},
		{k.AcceptAll, k.RejectAll, k.Confirm, k.Quit},
	}
}

// Model holds the review screen state.
type Model struct {
	keymap     KeyMap
	help       help.Model
	candidates []model.CandidateRule
	accepted   []bool
	cursor     int
	width      int
	height     int
	confirmed  bool
	aborted    bool
}

// newModel creates a review model with every candidate pre-accepted.
func newModel(candidates []model.CandidateRule) Model {
	accepted := make([]bool, len(candidates))
	for i := range accepted {
		accepted[i] = true
	}
	return Model{
		keymap:     DefaultKeyMap(),
		help:       help.New(),
		candidates: candidates,
		accepted:   accepted,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keymap.Down):
			if m.cursor < len(m.candidates)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keymap.Toggle):
			if len(m.accepted) > 0 {
				m.accepted[m.cursor] = !m.accepted[m.cursor]
			}
		case key.Matches(msg, m.keymap.AcceptAll):
			for i := range m.accepted {
				m.accepted[i] = true
			}
		case key.Matches(msg, m.keymap.RejectAll):
			for i := range m.accepted {
				m.accepted[i] = false
			}
		case key.Matches(msg, m.keymap.Confirm):
			m.confirmed = true
			return m, tea.Quit
		case key.Matches(msg, m.keymap.Quit):
			m.aborted = true
			return m, tea.Quit
		case key.Matches(msg, m.keymap.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.confirmed || m.aborted {
		return ""
	}

	var b strings.Builder
	b.WriteString(cli.TitleStyle.Render("Review learned rules"))
	b.WriteString("\n")
	b.WriteString(cli.SubtitleStyle.Render(
		fmt.Sprintf("%d candidates, %d selected", len(m.candidates), m.selectedCount())))
	b.WriteString("\n\n")

	for i := range m.candidates {
		b.WriteString(m.renderCandidate(i))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keymap))
	return b.String()
}

func (m Model) renderCandidate(i int) string {
	c := &m.candidates[i]

	mark := cli.ErrorStyle.Render("✗")
	if m.accepted[i] {
		mark = cli.SuccessStyle.Render("✓")
	}

	cursor := "  "
	if i == m.cursor {
		cursor = cli.BoldStyle.Render("> ")
	}

	target := fmt.Sprintf("%s / %s", c.MainCategory, c.SubCategory)
	detail := fmt.Sprintf("keywords=[%s] freq=%d conf=%.2f prio=%d",
		strings.Join(c.Any, ", "), c.Frequency, c.Confidence, c.Priority)
	if c.IsSalary() {
		detail = fmt.Sprintf("employee=%s", c.EmployeeName)
	}

	line := lipgloss.JoinHorizontal(lipgloss.Top,
		cursor, mark, " ",
		cli.BoldStyle.Render(c.Name), "  ",
		target)
	sub := "      " + cli.SubtleStyle.Render(detail)

	if len(c.SampleDescriptions) > 0 && i == m.cursor {
		sample := c.SampleDescriptions[0]
		if m.width > 12 && len(sample) > m.width-12 {
			sample = sample[:m.width-12]
		}
		sub += "\n      " + cli.SubtleStyle.Render("e.g. "+sample)
	}

	return line + "\n" + sub
}

func (m Model) selectedCount() int {
	n := 0
	for _, ok := range m.accepted {
		if ok {
			n++
		}
	}
	return n
}

// Review runs the interactive review and returns the approved candidates.
// An empty candidate list returns immediately without starting the program.
func Review(ctx context.Context, candidates []model.CandidateRule) (ReviewResult, error) {
	if len(candidates) == 0 {
		return ReviewResult{}, nil
	}

	program := tea.NewProgram(newModel(candidates), tea.WithContext(ctx))
	final, err := program.Run()
	if err != nil {
		return ReviewResult{}, fmt.Errorf("review screen failed: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return ReviewResult{}, fmt.Errorf("unexpected model type %T", final)
	}
	if m.aborted {
		return ReviewResult{Aborted: true}, nil
	}

	result := ReviewResult{}
	for i := range m.candidates {
		if m.accepted[i] {
			result.Approved = append(result.Approved, m.candidates[i])
		}
	}
	return result, nil
}
