package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/loginform/internal/form"
	"github.com/sandeepkv93/loginform/internal/login"
)

type fakeAuthenticator struct {
	mu    sync.Mutex
	calls []form.Credentials
	err   error
}

func (f *fakeAuthenticator) Login(_ context.Context, creds form.Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, creds)
	return f.err
}

type testHarness struct {
	model formModel
	auth  *fakeAuthenticator
	sent  []tea.Msg
}

func newHarness(t *testing.T, authErr error) *testHarness {
	t.Helper()
	h := &testHarness{auth: &fakeAuthenticator{err: authErr}}
	notifier := NewNotifier()
	notifier.attach(func(msg tea.Msg) { h.sent = append(h.sent, msg) })
	ctrl := login.NewController(form.NewState(), h.auth, notifier)
	h.model = newFormModel(context.Background(), FormDeps{Controller: ctrl, Notifier: notifier, ToastDuration: time.Second})
	return h
}

func (h *testHarness) send(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := h.model.Update(msg)
	m, ok := next.(formModel)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	h.model = m
	return cmd
}

func (h *testHarness) typeText(t *testing.T, s string) {
	t.Helper()
	h.send(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func (h *testHarness) fill(t *testing.T, email, password string) {
	t.Helper()
	h.typeText(t, email)
	h.send(t, tea.KeyMsg{Type: tea.KeyTab})
	h.typeText(t, password)
}

// submit presses enter and runs the resulting submission synchronously.
func (h *testHarness) submit(t *testing.T) {
	t.Helper()
	cmd := h.send(t, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a submission command")
	}
	if !h.model.submitting {
		t.Fatal("expected submitting while the command runs")
	}
	if !strings.Contains(h.model.View(), buttonInFlightLabel) {
		t.Fatal("expected in-flight caption while submitting")
	}
	h.send(t, cmd())
}

func TestTypingUpdatesFormState(t *testing.T) {
	h := newHarness(t, nil)
	h.fill(t, "a@b.com", "abc123!")

	got := h.model.ctrl.Form().Credentials()
	if got != (form.Credentials{Email: "a@b.com", Password: "abc123!"}) {
		t.Fatalf("unexpected credentials %+v", got)
	}
	if strings.Contains(h.model.View(), "abc123!") {
		t.Fatal("password must be masked in the view")
	}
}

func TestSubmitTrimsEmailBeforeSending(t *testing.T) {
	h := newHarness(t, nil)
	h.fill(t, "  a@b.com ", "abc123!")
	h.submit(t)

	if len(h.auth.calls) != 1 || h.auth.calls[0].Email != "a@b.com" {
		t.Fatalf("expected trimmed email on the wire, got %+v", h.auth.calls)
	}
	if len(h.sent) != 1 || h.sent[0] != (toastMsg{text: "Logged in as: a@b.com"}) {
		t.Fatalf("expected toast with trimmed email, got %v", h.sent)
	}
}

func TestBadEmailReportedBeforeMissingPassword(t *testing.T) {
	h := newHarness(t, nil)
	h.typeText(t, "nope")
	h.send(t, tea.KeyMsg{Type: tea.KeyEnter})

	if h.model.hint != "Please enter an email address." || h.model.focus != focusEmail {
		t.Fatalf("expected email format hint on the email field, got %q focus=%d", h.model.hint, h.model.focus)
	}
	if len(h.auth.calls) != 0 {
		t.Fatal("expected no request")
	}
}

func TestFieldForMapsInputsOnly(t *testing.T) {
	if f, ok := fieldFor(focusEmail); !ok || f != form.FieldEmail {
		t.Fatalf("unexpected email mapping %q %v", f, ok)
	}
	if f, ok := fieldFor(focusPassword); !ok || f != form.FieldPassword {
		t.Fatalf("unexpected password mapping %q %v", f, ok)
	}
	if _, ok := fieldFor(focusButton); ok {
		t.Fatal("button must not map to a form field")
	}
}

func TestEnterWithEmptyFieldsShowsHintWithoutSubmitting(t *testing.T) {
	h := newHarness(t, nil)
	h.send(t, tea.KeyMsg{Type: tea.KeyEnter})

	if h.model.submitting {
		t.Fatal("expected no submission for empty form")
	}
	if h.model.hint == "" || !strings.Contains(h.model.View(), h.model.hint) {
		t.Fatalf("expected required hint, got %q", h.model.hint)
	}
	if len(h.auth.calls) != 0 {
		t.Fatalf("expected no request, got %d", len(h.auth.calls))
	}
	if h.model.snap.Status.ErrorMessage != "" {
		t.Fatal("required hint must not use the inline error channel")
	}
}

func TestValidationErrorRenderedInline(t *testing.T) {
	h := newHarness(t, nil)
	h.fill(t, "a@b.com", "abcdef!")
	h.submit(t)

	want := "Password must include at least one number."
	if h.model.snap.Status.ErrorMessage != want {
		t.Fatalf("expected %q, got %q", want, h.model.snap.Status.ErrorMessage)
	}
	if !strings.Contains(h.model.View(), want) {
		t.Fatal("expected error line in view")
	}
	if len(h.auth.calls) != 0 {
		t.Fatal("validation failure must not issue a request")
	}
	if h.model.submitting || strings.Contains(h.model.View(), buttonInFlightLabel) {
		t.Fatal("expected form back to idle")
	}
}

func TestSuccessfulLoginShowsToastAndClearsInputs(t *testing.T) {
	h := newHarness(t, nil)
	h.fill(t, "a@b.com", "abc123!")
	h.submit(t)

	if len(h.auth.calls) != 1 {
		t.Fatalf("expected one request, got %d", len(h.auth.calls))
	}
	if len(h.sent) != 1 {
		t.Fatalf("expected one toast message, got %d", len(h.sent))
	}
	cmd := h.send(t, h.sent[0])
	if cmd == nil {
		t.Fatal("expected toast expiry tick")
	}
	view := h.model.View()
	if !strings.Contains(view, "Logged in as: a@b.com") {
		t.Fatalf("expected toast in view:\n%s", view)
	}
	if h.model.inputs[0].Value() != "" || h.model.inputs[1].Value() != "" {
		t.Fatal("expected inputs cleared after success")
	}

	h.send(t, toastExpiredMsg{seq: h.model.toastSeq})
	if strings.Contains(h.model.View(), "Logged in as:") {
		t.Fatal("expected toast dismissed")
	}
}

func TestStaleToastExpiryIsIgnored(t *testing.T) {
	h := newHarness(t, nil)
	h.send(t, toastMsg{text: "Logged in as: first@b.com"})
	h.send(t, toastMsg{text: "Logged in as: second@b.com"})
	h.send(t, toastExpiredMsg{seq: 1})
	if h.model.toast != "Logged in as: second@b.com" {
		t.Fatalf("expected newest toast kept, got %q", h.model.toast)
	}
}

func TestFailedLoginKeepsInputs(t *testing.T) {
	h := newHarness(t, errors.New("status 500"))
	h.fill(t, "a@b.com", "abc123!")
	h.submit(t)

	if !strings.Contains(h.model.View(), login.FailureMessage) {
		t.Fatal("expected failure message in view")
	}
	if h.model.inputs[0].Value() != "a@b.com" || h.model.inputs[1].Value() != "abc123!" {
		t.Fatal("expected inputs retained after failure")
	}
	if len(h.sent) != 0 {
		t.Fatal("expected no toast on failure")
	}
}

func TestEnterIgnoredWhileInFlight(t *testing.T) {
	h := newHarness(t, nil)
	h.fill(t, "a@b.com", "abc123!")
	h.model.submitting = true

	if cmd := h.send(t, tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Fatal("expected enter to be ignored while in flight")
	}
	h.model.submitting = false
	h.send(t, statusMsg(login.Snapshot{Phase: login.PhaseSubmitting, Status: login.Status{InFlight: true}}))
	if cmd := h.send(t, tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Fatal("expected enter to be ignored while controller reports in flight")
	}
	if !strings.Contains(h.model.View(), buttonInFlightLabel) {
		t.Fatal("expected in-flight caption")
	}
}

func TestFocusCycles(t *testing.T) {
	h := newHarness(t, nil)
	for _, want := range []focusTarget{focusPassword, focusButton, focusEmail} {
		h.send(t, tea.KeyMsg{Type: tea.KeyTab})
		if h.model.focus != want {
			t.Fatalf("expected focus %d, got %d", want, h.model.focus)
		}
	}
	h.send(t, tea.KeyMsg{Type: tea.KeyShiftTab})
	if h.model.focus != focusButton {
		t.Fatalf("expected focus to wrap backwards, got %d", h.model.focus)
	}
}
