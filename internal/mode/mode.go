// Package mode holds the process-wide activity mode and shutdown flag shared
// by every stage loop.
package mode

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Mode is the activity mode gating which stages may run.
type Mode int

const (
	// Planning lets the document stages regenerate stale artifacts.
	Planning Mode = iota
	// Developing lets the development stage implement tasks.
	Developing
	// ErrorNeedsHuman halts development until an operator picks a new mode.
	ErrorNeedsHuman
)

var (
	// ErrInvalidMode is returned when a mode name is not recognised.
	ErrInvalidMode = errors.New("invalid mode")
	// ErrNotSettable is returned when a caller tries to enter the error mode directly.
	ErrNotSettable = errors.New("mode can only be entered by escalation")
)

// String returns the wire name of the mode.
func (m Mode) String() string {
	switch m {
	case Planning:
		return "planning"
	case Developing:
		return "developing"
	case ErrorNeedsHuman:
		return "error"
	default:
		return "unknown"
	}
}

// Parse converts a wire name into a Mode. It accepts "error" so that mode
// files written by the core can be read back.
func Parse(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "planning":
		return Planning, nil
	case "developing":
		return Developing, nil
	case "error":
		return ErrorNeedsHuman, nil
	default:
		return 0, fmt.Errorf("%w: %q (must be planning or developing)", ErrInvalidMode, name)
	}
}

// ParseRequest parses a mode requested by an operator. Only planning and
// developing may be requested.
func ParseRequest(name string) (Mode, error) {
	m, err := Parse(name)
	if err != nil {
		return 0, err
	}
	if m == ErrorNeedsHuman {
		return 0, ErrNotSettable
	}
	return m, nil
}

// State is the shared activity mode. The zero value is in Planning mode.
type State struct {
	mu      sync.Mutex
	current Mode
}

// NewState returns a State in Planning mode.
func NewState() *State {
	return &State{current: Planning}
}

// Get returns a snapshot of the current mode.
func (s *State) Get() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Is reports whether the current mode equals m.
func (s *State) Is(m Mode) bool {
	return s.Get() == m
}

// Set applies an operator request by name and returns the previous mode.
func (s *State) Set(name string) (Mode, error) {
	m, err := ParseRequest(name)
	if err != nil {
		return s.Get(), err
	}
	return s.swap(m), nil
}

// Escalate forces ErrorNeedsHuman and returns the previous mode.
func (s *State) Escalate() Mode {
	return s.swap(ErrorNeedsHuman)
}

func (s *State) swap(m Mode) Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.current
	s.current = m
	return prev
}

// Shutdown is a write-once flag observed by every stage loop.
type Shutdown struct {
	mu        sync.Mutex
	requested bool
}

// Trigger requests shutdown. Calling it more than once has no further effect.
func (s *Shutdown) Trigger() {
	s.mu.Lock()
	s.requested = true
	s.mu.Unlock()
}

// Requested reports whether shutdown was triggered.
func (s *Shutdown) Requested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requested
}
