// Package session implements the registry of live evaluation sessions and
// the one-shot host-runtime boot gate.
package session

import (
	"time"

	"github.com/akodkod/konsol/internal/evaluator"
)

// State is a session's lifecycle state.
type State int

const (
	// StateIdle means no evaluation is running against the session.
	StateIdle State = iota
	// StateBusy means an evaluation is in flight.
	StateBusy
	// StateInterrupted means an interrupt was registered while the session
	// was busy; the session passes through this state back to idle when the
	// evaluation completes.
	StateInterrupted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBusy:
		return "busy"
	case StateInterrupted:
		return "interrupted"
	}
	return "unknown"
}

// Session is a persistent evaluation context plus its lifecycle state. At
// most one evaluation executes against a session at a time. Sessions are
// owned by the server loop's goroutine; state transitions are not locked.
type Session struct {
	ID        string
	Context   *evaluator.Context
	CreatedAt time.Time

	state State
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// BeginEval transitions the session to busy. It reports false when the
// session is not idle, in which case the caller must refuse to enter.
func (s *Session) BeginEval() bool {
	if s.state != StateIdle {
		return false
	}
	s.state = StateBusy
	return true
}

// Interrupt registers an interrupt against a busy session and reports
// whether it did. Interrupting an idle session is a no-op.
func (s *Session) Interrupt() bool {
	if s.state != StateBusy {
		return false
	}
	s.state = StateInterrupted
	return true
}

// EndEval returns the session to idle. When an interrupt was registered
// mid-flight the session transitions through interrupted and then to idle
// here; either way the guarantee is that EndEval always lands on idle.
func (s *Session) EndEval() {
	s.state = StateIdle
}
