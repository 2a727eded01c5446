package form

import (
	"errors"
	"fmt"
	"sync"
)

type Field string

const (
	FieldEmail    Field = "email"
	FieldPassword Field = "password"
)

var ErrUnknownField = errors.New("unknown form field")

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// State is the single source of truth for the values shown in the form.
// Inputs render from it and write back through UpdateField.
type State struct {
	mu    sync.RWMutex
	creds Credentials
}

func NewState() *State {
	return &State{}
}

func (s *State) Credentials() Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds
}

func (s *State) UpdateField(name Field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch name {
	case FieldEmail:
		s.creds.Email = value
	case FieldPassword:
		s.creds.Password = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return nil
}

func (s *State) Reset() {
	s.mu.Lock()
	s.creds = Credentials{}
	s.mu.Unlock()
}
