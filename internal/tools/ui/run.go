package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type actionMsg struct {
	details []string
	err     error
}

// actionModel shows a one-shot action: a running caption, then OK/FAILED
// with detail lines.
type actionModel struct {
	ctx     context.Context
	title   string
	caption string
	details []string
	err     error
	done    bool
	action  func(context.Context) ([]string, error)
}

func (m actionModel) Init() tea.Cmd {
	ctx, action := m.ctx, m.action
	return func() tea.Msg {
		details, err := action(ctx)
		return actionMsg{details: details, err: err}
	}
}

func (m actionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case actionMsg:
		m.details = msg.details
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m actionModel) View() string {
	title := titleStyle.Render(m.title)
	if !m.done {
		caption := m.caption
		if caption == "" {
			caption = "Running..."
		}
		return fmt.Sprintf("%s\n\n%s\n", title, caption)
	}
	var b strings.Builder
	if m.err != nil {
		fmt.Fprintf(&b, "%s\n%s: %v\n", title, errorStyle.Render("FAILED"), m.err)
	} else {
		ok := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("OK")
		fmt.Fprintf(&b, "%s\n%s\n", title, ok)
	}
	for _, d := range m.details {
		b.WriteString("- " + d + "\n")
	}
	return b.String()
}

// Run executes action under a small progress view and returns its result.
func Run(ctx context.Context, title, caption string, action func(context.Context) ([]string, error)) ([]string, error) {
	m := actionModel{ctx: ctx, title: title, caption: caption, action: action}
	p := tea.NewProgram(m, tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	res := final.(actionModel)
	if !res.done {
		return res.details, fmt.Errorf("%s: interrupted", title)
	}
	return res.details, res.err
}
