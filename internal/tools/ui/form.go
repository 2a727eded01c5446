package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sandeepkv93/loginform/internal/form"
	"github.com/sandeepkv93/loginform/internal/login"
	"github.com/sandeepkv93/loginform/internal/validation"
)

const (
	buttonLabel         = "Login"
	buttonInFlightLabel = "Logging in..."
	defaultToastTTL     = 2 * time.Second
	defaultWidth        = 64
)

type focusTarget int

const (
	focusEmail focusTarget = iota
	focusPassword
	focusButton
	focusCount
)

type statusMsg login.Snapshot

type submitDoneMsg struct {
	outcome login.Outcome
	err     error
}

type toastMsg struct{ text string }

type toastExpiredMsg struct{ seq int }

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	cardStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(52)
	toastStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("42")).Padding(0, 2)
	buttonStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("33")).Padding(0, 3)
	focusedButton = buttonStyle.Background(lipgloss.Color("27")).Underline(true)
	disabledBtn   = buttonStyle.Foreground(lipgloss.Color("250")).Background(lipgloss.Color("238"))
)

// Notifier delivers success notices to a running form as toasts. It is safe
// to hand to login.NewController before the program starts.
type Notifier struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func NewNotifier() *Notifier { return &Notifier{} }

func (n *Notifier) LoggedIn(_ context.Context, email string) {
	n.mu.Lock()
	send := n.send
	n.mu.Unlock()
	if send != nil {
		send(toastMsg{text: login.SuccessMessage(email)})
	}
}

func (n *Notifier) attach(send func(tea.Msg)) {
	n.mu.Lock()
	n.send = send
	n.mu.Unlock()
}

type FormDeps struct {
	Controller    *login.Controller
	Notifier      *Notifier
	ToastDuration time.Duration
	Endpoint      string
}

type formModel struct {
	ctx      context.Context
	ctrl     *login.Controller
	endpoint string

	inputs [2]textinput.Model
	focus  focusTarget

	snap       login.Snapshot
	submitting bool
	hint       string

	toast    string
	toastSeq int
	toastTTL time.Duration
	width    int
}

func newFormModel(ctx context.Context, deps FormDeps) formModel {
	email := textinput.New()
	email.Placeholder = "Email"
	email.Prompt = "› "
	email.CharLimit = 254
	email.Width = 32

	password := textinput.New()
	password.Placeholder = "Password"
	password.Prompt = "› "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 64
	password.Width = 32

	creds := deps.Controller.Form().Credentials()
	email.SetValue(creds.Email)
	password.SetValue(creds.Password)
	email.Focus()

	ttl := deps.ToastDuration
	if ttl <= 0 {
		ttl = defaultToastTTL
	}
	return formModel{
		ctx:      ctx,
		ctrl:     deps.Controller,
		endpoint: deps.Endpoint,
		inputs:   [2]textinput.Model{email, password},
		snap:     deps.Controller.Snapshot(),
		toastTTL: ttl,
		width:    defaultWidth,
	}
}

func (m formModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m formModel) disabled() bool {
	return m.submitting || m.snap.Status.InFlight
}

func (m formModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case statusMsg:
		m.snap = login.Snapshot(msg)
		return m, nil
	case submitDoneMsg:
		if errors.Is(msg.err, login.ErrSubmissionInFlight) {
			return m, nil
		}
		m.submitting = false
		m.snap = m.ctrl.Snapshot()
		m.syncInputs()
		return m, nil
	case toastMsg:
		m.toast = msg.text
		m.toastSeq++
		seq := m.toastSeq
		return m, tea.Tick(m.toastTTL, func(time.Time) tea.Msg { return toastExpiredMsg{seq: seq} })
	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.toast = ""
		}
		return m, nil
	}
	return m.updateFocusedInput(msg)
}

func (m formModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "tab", "down":
		cmd := m.setFocus((m.focus + 1) % focusCount)
		return m, cmd
	case "shift+tab", "up":
		cmd := m.setFocus((m.focus + focusCount - 1) % focusCount)
		return m, cmd
	case "enter":
		return m.submit()
	}
	return m.updateFocusedInput(msg)
}

func (m *formModel) setFocus(f focusTarget) tea.Cmd {
	m.focus = f
	var cmd tea.Cmd
	for i := range m.inputs {
		if focusTarget(i) == f {
			cmd = m.inputs[i].Focus()
			continue
		}
		m.inputs[i].Blur()
	}
	return cmd
}

func (m formModel) updateFocusedInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	field, ok := fieldFor(m.focus)
	if !ok {
		return m, nil
	}
	i := int(m.focus)
	var cmd tea.Cmd
	before := m.inputs[i].Value()
	m.inputs[i], cmd = m.inputs[i].Update(msg)
	if value := m.inputs[i].Value(); value != before {
		m.hint = ""
		if err := m.ctrl.Form().UpdateField(field, value); err != nil {
			m.hint = err.Error()
		}
	}
	return m, cmd
}

func fieldFor(f focusTarget) (form.Field, bool) {
	switch f {
	case focusEmail:
		return form.FieldEmail, true
	case focusPassword:
		return form.FieldPassword, true
	default:
		return "", false
	}
}

func (m formModel) submit() (tea.Model, tea.Cmd) {
	if m.disabled() {
		return m, nil
	}
	creds := m.ctrl.Form().Credentials()
	if email := validation.NormalizeEmail(creds.Email); email != creds.Email {
		if err := m.ctrl.Form().UpdateField(form.FieldEmail, email); err != nil {
			m.hint = err.Error()
			return m, nil
		}
		m.inputs[0].SetValue(email)
		creds.Email = email
	}
	if err := validation.CheckRequired(creds.Email, creds.Password); err != nil {
		m.hint = requiredHint(err)
		target := focusEmail
		if errors.Is(err, validation.ErrPasswordRequired) {
			target = focusPassword
		}
		cmd := m.setFocus(target)
		return m, cmd
	}
	m.hint = ""
	m.submitting = true
	ctx, ctrl := m.ctx, m.ctrl
	return m, func() tea.Msg {
		outcome, err := ctrl.Submit(ctx)
		return submitDoneMsg{outcome: outcome, err: err}
	}
}

// syncInputs re-renders the inputs from form state, which changes behind the
// model's back when a successful login resets it.
func (m *formModel) syncInputs() {
	creds := m.ctrl.Form().Credentials()
	if m.inputs[0].Value() != creds.Email {
		m.inputs[0].SetValue(creds.Email)
	}
	if m.inputs[1].Value() != creds.Password {
		m.inputs[1].SetValue(creds.Password)
	}
}

func requiredHint(err error) string {
	switch {
	case errors.Is(err, validation.ErrEmailRequired), errors.Is(err, validation.ErrPasswordRequired):
		return "Please fill out this field."
	case errors.Is(err, validation.ErrEmailFormat):
		return "Please enter an email address."
	default:
		return err.Error()
	}
}

func (m formModel) buttonView() string {
	if m.disabled() {
		return disabledBtn.Render(buttonInFlightLabel)
	}
	if m.focus == focusButton {
		return focusedButton.Render(buttonLabel)
	}
	return buttonStyle.Render(buttonLabel)
}

func (m formModel) View() string {
	var card strings.Builder
	card.WriteString(titleStyle.Render("Login Page"))
	card.WriteString("\n\n")
	if m.snap.Status.ErrorMessage != "" {
		card.WriteString(errorStyle.Render(m.snap.Status.ErrorMessage))
		card.WriteString("\n\n")
	}
	card.WriteString(labelStyle.Render("Email"))
	card.WriteString("\n")
	card.WriteString(m.inputs[0].View())
	card.WriteString("\n\n")
	card.WriteString(labelStyle.Render("Password"))
	card.WriteString("\n")
	card.WriteString(m.inputs[1].View())
	card.WriteString("\n\n")
	if m.hint != "" {
		card.WriteString(hintStyle.Render(m.hint))
		card.WriteString("\n\n")
	}
	card.WriteString(m.buttonView())

	width := m.width
	if width <= 0 {
		width = defaultWidth
	}
	toast := ""
	if m.toast != "" {
		toast = toastStyle.Render(m.toast)
	}
	footer := footerStyle.Render("tab: next • enter: submit • esc: quit")
	if m.endpoint != "" {
		footer = footerStyle.Render("POST "+m.endpoint) + "\n" + footer
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.PlaceHorizontal(width, lipgloss.Center, toast),
		"",
		lipgloss.PlaceHorizontal(width, lipgloss.Center, cardStyle.Render(card.String())),
		"",
		footer,
	)
}

// RunForm shows the interactive login form until the user quits.
func RunForm(ctx context.Context, deps FormDeps) error {
	if deps.Controller == nil {
		return errors.New("ui: login controller is required")
	}
	p := tea.NewProgram(newFormModel(ctx, deps), tea.WithAltScreen(), tea.WithContext(ctx))
	if deps.Notifier != nil {
		deps.Notifier.attach(p.Send)
		defer deps.Notifier.attach(nil)
	}
	deps.Controller.OnStatus(func(s login.Snapshot) { p.Send(statusMsg(s)) })
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
