package service

import (
	"testing"

	"github.com/akodkod/konsol/internal/errors"
	"github.com/akodkod/konsol/internal/evaluator"
	"github.com/akodkod/konsol/internal/protocol"
	"github.com/akodkod/konsol/internal/session"
)

func newTestService(t *testing.T) (*Service, *session.Store) {
	t.Helper()
	store := session.NewStore(nil, 0)
	t.Cleanup(store.Close)
	svc := New(store, evaluator.New(nil), NewLifecycle(), protocol.ServerInfo{
		Name:    "konsol",
		Version: "test",
	})
	return svc, store
}

func createSession(t *testing.T, svc *Service) string {
	t.Helper()
	result, rpcErr := svc.CreateSession()
	if rpcErr != nil {
		t.Fatalf("CreateSession failed: %v", rpcErr)
	}
	return result.SessionID
}

func TestInitialize(t *testing.T) {
	svc, _ := newTestService(t)

	result, rpcErr := svc.Initialize(&protocol.InitializeParams{
		ClientInfo: &protocol.ClientInfo{Name: "test"},
	})
	if rpcErr != nil {
		t.Fatalf("Initialize failed: %v", rpcErr)
	}
	if result.ServerInfo.Name != "konsol" {
		t.Errorf("server name = %q", result.ServerInfo.Name)
	}
	if result.Capabilities.SupportsInterrupt {
		t.Errorf("supportsInterrupt must be false in this version")
	}
	if !svc.Lifecycle().Initialized() {
		t.Errorf("initialized flag not set")
	}

	// Idempotent with respect to capabilities.
	again, rpcErr := svc.Initialize(&protocol.InitializeParams{})
	if rpcErr != nil {
		t.Fatalf("second Initialize failed: %v", rpcErr)
	}
	if again.Capabilities != result.Capabilities {
		t.Errorf("capabilities changed across initialize calls")
	}
}

func TestEval_PersistsAcrossCalls(t *testing.T) {
	svc, _ := newTestService(t)
	id := createSession(t, svc)

	result, rpcErr := svc.Eval(&protocol.EvalParams{SessionID: id, Code: "x = 123"})
	if rpcErr != nil {
		t.Fatalf("first eval failed: %v", rpcErr)
	}
	if result.Value != "123" || result.ValueType != "Integer" {
		t.Errorf("first eval: value=%q type=%q", result.Value, result.ValueType)
	}

	result, rpcErr = svc.Eval(&protocol.EvalParams{SessionID: id, Code: "x + 1"})
	if rpcErr != nil {
		t.Fatalf("second eval failed: %v", rpcErr)
	}
	if result.Value != "124" {
		t.Errorf("second eval: value=%q, want 124", result.Value)
	}
}

func TestEval_UnknownSession(t *testing.T) {
	svc, _ := newTestService(t)

	_, rpcErr := svc.Eval(&protocol.EvalParams{
		SessionID: "00000000-0000-0000-0000-000000000000",
		Code:      "1",
	})
	if rpcErr == nil || rpcErr.Code != errors.CodeSessionNotFound {
		t.Errorf("expected session-not-found, got %v", rpcErr)
	}
}

func TestEval_BusySessionRefused(t *testing.T) {
	svc, store := newTestService(t)
	id := createSession(t, svc)

	// Pin the session busy, as if an evaluation were blocked externally.
	sess := store.Get(id)
	if sess == nil || !sess.BeginEval() {
		t.Fatalf("could not pin session busy")
	}

	_, rpcErr := svc.Eval(&protocol.EvalParams{SessionID: id, Code: "1"})
	if rpcErr == nil || rpcErr.Code != errors.CodeSessionBusy {
		t.Errorf("expected session-busy, got %v", rpcErr)
	}

	// Once released, evaluation proceeds.
	sess.EndEval()
	if _, rpcErr := svc.Eval(&protocol.EvalParams{SessionID: id, Code: "1"}); rpcErr != nil {
		t.Errorf("eval after release failed: %v", rpcErr)
	}
}

func TestEval_SessionIdleAfterException(t *testing.T) {
	svc, store := newTestService(t)
	id := createSession(t, svc)

	result, rpcErr := svc.Eval(&protocol.EvalParams{SessionID: id, Code: `raise("boom")`})
	if rpcErr != nil {
		t.Fatalf("eval failed: %v", rpcErr)
	}
	if result.Exception == nil || result.Exception.Message != "boom" {
		t.Errorf("exception = %#v", result.Exception)
	}
	if store.Get(id).State() != session.StateIdle {
		t.Errorf("session must return to idle after a raising evaluation")
	}
}

func TestInterrupt(t *testing.T) {
	svc, store := newTestService(t)
	id := createSession(t, svc)

	// Interrupting an idle session still reports success.
	result, rpcErr := svc.Interrupt(&protocol.InterruptParams{SessionID: id})
	if rpcErr != nil || !result.Success {
		t.Errorf("interrupt on idle session: result=%#v err=%v", result, rpcErr)
	}

	sess := store.Get(id)
	sess.BeginEval()
	result, rpcErr = svc.Interrupt(&protocol.InterruptParams{SessionID: id})
	if rpcErr != nil || !result.Success {
		t.Errorf("interrupt on busy session: result=%#v err=%v", result, rpcErr)
	}
	if sess.State() != session.StateInterrupted {
		t.Errorf("state = %v, want interrupted", sess.State())
	}
	sess.EndEval()
	if sess.State() != session.StateIdle {
		t.Errorf("state = %v after EndEval, want idle", sess.State())
	}
}

func TestInterrupt_UnknownSession(t *testing.T) {
	svc, _ := newTestService(t)

	_, rpcErr := svc.Interrupt(&protocol.InterruptParams{SessionID: "nope"})
	if rpcErr == nil || rpcErr.Code != errors.CodeSessionNotFound {
		t.Errorf("expected session-not-found, got %v", rpcErr)
	}
}

func TestShutdown(t *testing.T) {
	svc, store := newTestService(t)
	id := createSession(t, svc)

	if rpcErr := svc.Shutdown(); rpcErr != nil {
		t.Fatalf("Shutdown failed: %v", rpcErr)
	}
	if !svc.Lifecycle().ShutdownRequested() {
		t.Errorf("shutdown flag not set")
	}
	if store.Count() != 0 {
		t.Errorf("sessions must be destroyed on shutdown")
	}

	// One consistent policy: every request after shutdown, other than the
	// exit notification, is answered with server-shutting-down.
	if _, rpcErr := svc.Eval(&protocol.EvalParams{SessionID: id, Code: "1"}); rpcErr == nil || rpcErr.Code != errors.CodeShuttingDown {
		t.Errorf("eval after shutdown: %v", rpcErr)
	}
	if _, rpcErr := svc.CreateSession(); rpcErr == nil || rpcErr.Code != errors.CodeShuttingDown {
		t.Errorf("session.create after shutdown: %v", rpcErr)
	}
	if _, rpcErr := svc.Initialize(&protocol.InitializeParams{}); rpcErr == nil || rpcErr.Code != errors.CodeShuttingDown {
		t.Errorf("initialize after shutdown: %v", rpcErr)
	}
	if rpcErr := svc.Shutdown(); rpcErr == nil || rpcErr.Code != errors.CodeShuttingDown {
		t.Errorf("second shutdown: %v", rpcErr)
	}
}

func TestCancelIsAcceptedAndIgnored(t *testing.T) {
	svc, _ := newTestService(t)
	if rpcErr := svc.Cancel(&protocol.CancelParams{ID: "req-1"}); rpcErr != nil {
		t.Errorf("Cancel failed: %v", rpcErr)
	}
}

func TestExitSetsLoopTermination(t *testing.T) {
	svc, _ := newTestService(t)
	svc.Exit()
	if !svc.Lifecycle().ExitRequested() {
		t.Errorf("exit flag not set")
	}
}

func TestRequestShutdownIsIdempotent(t *testing.T) {
	svc, store := newTestService(t)
	createSession(t, svc)

	svc.RequestShutdown()
	svc.RequestShutdown()
	if store.Count() != 0 {
		t.Errorf("sessions survived shutdown")
	}
}
