package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestActionModelRendersResult(t *testing.T) {
	m := actionModel{
		ctx:     context.Background(),
		title:   "loginform submit",
		caption: "Submitting...",
		action: func(context.Context) ([]string, error) {
			return []string{"outcome=failed"}, errors.New("Login failed. Please try again.")
		},
	}
	if !strings.Contains(m.View(), "Submitting...") {
		t.Fatalf("expected caption while running, got %q", m.View())
	}

	msg := m.Init()()
	next, _ := m.Update(msg)
	done := next.(actionModel)
	view := done.View()
	if !done.done || !strings.Contains(view, "FAILED") || !strings.Contains(view, "- outcome=failed") {
		t.Fatalf("unexpected final view %q", view)
	}
}
