// Package service implements the handler layer: the lifecycle family
// (initialize, shutdown, cancel, exit) and the workload family (session
// create, eval, interrupt). Each handler is a function from its parameter
// shape plus the session store and lifecycle flags to a result shape or a
// protocol error.
package service

import (
	stdErrors "errors"
	"log"
	"sync/atomic"

	"github.com/akodkod/konsol/internal/errors"
	"github.com/akodkod/konsol/internal/evaluator"
	"github.com/akodkod/konsol/internal/protocol"
	"github.com/akodkod/konsol/internal/session"
)

// Lifecycle holds the server's lifecycle flags. The flags are atomic
// because OS signals flip shutdown_requested from a different goroutine
// than the server loop.
type Lifecycle struct {
	initialized       atomic.Bool
	shutdownRequested atomic.Bool
	exitRequested     atomic.Bool
}

// NewLifecycle creates a Lifecycle with all flags clear.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{}
}

// Initialized reports whether the first initialize request succeeded.
func (l *Lifecycle) Initialized() bool { return l.initialized.Load() }

// ShutdownRequested reports whether shutdown was requested, via the
// shutdown request or an OS signal.
func (l *Lifecycle) ShutdownRequested() bool { return l.shutdownRequested.Load() }

// ExitRequested reports whether the exit notification arrived.
func (l *Lifecycle) ExitRequested() bool { return l.exitRequested.Load() }

// Service wires the handlers to the session store, the evaluator, and the
// lifecycle flags.
type Service struct {
	store *session.Store
	eval  *evaluator.Evaluator
	life  *Lifecycle
	info  protocol.ServerInfo
}

// New creates a Service.
func New(store *session.Store, eval *evaluator.Evaluator, life *Lifecycle, info protocol.ServerInfo) *Service {
	return &Service{store: store, eval: eval, life: life, info: info}
}

// Lifecycle returns the service's lifecycle flags.
func (s *Service) Lifecycle() *Lifecycle {
	return s.life
}

// Initialize records the client handshake and reports the server's
// capabilities. Idempotent with respect to the capabilities it returns.
func (s *Service) Initialize(params *protocol.InitializeParams) (*protocol.InitializeResult, *errors.RPCError) {
	if s.life.ShutdownRequested() {
		return nil, errors.NewShuttingDownError()
	}
	if params.ClientInfo != nil {
		log.Printf("initialize: client=%s version=%q", params.ClientInfo.Name, params.ClientInfo.Version)
	}
	s.life.initialized.Store(true)
	return &protocol.InitializeResult{
		ServerInfo: s.info,
		Capabilities: protocol.Capabilities{
			SupportsInterrupt: false,
		},
	}, nil
}

// Shutdown sets shutdown_requested and destroys every session. The result
// is null. Requests after shutdown, other than the exit notification, are
// answered with the server-shutting-down error.
func (s *Service) Shutdown() *errors.RPCError {
	if s.life.ShutdownRequested() {
		return errors.NewShuttingDownError()
	}
	s.RequestShutdown()
	return nil
}

// RequestShutdown flips the shutdown flag and invalidates the session
// registry. It is the common path for the shutdown request and OS signals.
func (s *Service) RequestShutdown() {
	if s.life.shutdownRequested.CompareAndSwap(false, true) {
		log.Printf("shutdown requested, destroying %d session(s)", s.store.Count())
		s.store.InvalidateAll()
	}
}

// Cancel acknowledges a $/cancelRequest. Cancellation is accepted and
// logged but not acted upon in this version; clients must not rely on it
// aborting a running evaluation.
func (s *Service) Cancel(params *protocol.CancelParams) *errors.RPCError {
	if s.life.ShutdownRequested() {
		return errors.NewShuttingDownError()
	}
	log.Printf("cancel requested for id %v (ignored)", params.ID)
	return nil
}

// Exit flags loop termination. The loop derives the process exit code from
// whether a shutdown handshake preceded it.
func (s *Service) Exit() {
	s.life.exitRequested.Store(true)
}

// CreateSession registers a new session, booting the host runtime on the
// first call.
func (s *Service) CreateSession() (*protocol.SessionCreateResult, *errors.RPCError) {
	if s.life.ShutdownRequested() {
		return nil, errors.NewShuttingDownError()
	}
	if !s.life.Initialized() {
		log.Printf("session.create before initialize; serving anyway")
	}

	sess, err := s.store.Create()
	if err != nil {
		var bootErr *session.BootError
		if stdErrors.As(err, &bootErr) {
			return nil, errors.NewBootFailedError(bootErr.Err)
		}
		return nil, errors.NewInternalError(err)
	}
	log.Printf("session %s created (%d live)", sess.ID, s.store.Count())
	return &protocol.SessionCreateResult{SessionID: sess.ID}, nil
}

// Eval resolves the session, takes its busy state for the duration of the
// evaluation, and returns the structured result. The busy state is released
// on every exit path, including evaluator failures.
func (s *Service) Eval(params *protocol.EvalParams) (*protocol.EvalResult, *errors.RPCError) {
	if s.life.ShutdownRequested() {
		return nil, errors.NewShuttingDownError()
	}

	sess, err := s.store.Require(params.SessionID)
	if err != nil {
		return nil, errors.NewSessionNotFoundError(params.SessionID)
	}
	if !sess.BeginEval() {
		return nil, errors.NewSessionBusyError(params.SessionID)
	}
	defer sess.EndEval()

	res, err := s.eval.Evaluate(sess.Context, params.Code)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if sess.State() == session.StateInterrupted {
		log.Printf("session %s: evaluation completed after interrupt", sess.ID)
	}

	out := &protocol.EvalResult{
		Value:     res.Value,
		ValueType: res.ValueType,
		Stdout:    res.Stdout,
		Stderr:    res.Stderr,
	}
	if res.Exception != nil {
		out.Exception = &protocol.ExceptionInfo{
			Class:     res.Exception.Class,
			Message:   res.Exception.Message,
			Backtrace: res.Exception.Backtrace,
		}
	}
	return out, nil
}

// Interrupt registers an interrupt against a busy session. It reports
// success for any live session, busy or idle, and session-not-found for an
// unknown id; the in-flight evaluation is not aborted.
func (s *Service) Interrupt(params *protocol.InterruptParams) (*protocol.InterruptResult, *errors.RPCError) {
	if s.life.ShutdownRequested() {
		return nil, errors.NewShuttingDownError()
	}

	sess, err := s.store.Require(params.SessionID)
	if err != nil {
		return nil, errors.NewSessionNotFoundError(params.SessionID)
	}
	if sess.Interrupt() {
		log.Printf("session %s marked interrupted", sess.ID)
	}
	return &protocol.InterruptResult{Success: true}, nil
}
