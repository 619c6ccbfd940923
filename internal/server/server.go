// Package server drives the read → dispatch → write cycle over a framed
// byte stream. The loop is single-threaded: it reads exactly one message,
// processes it to completion, writes at most one response, then returns to
// reading. That keeps response ordering deterministic and removes any need
// to serialize concurrent writes.
package server

import (
	stdErrors "errors"
	"io"
	"log"

	"github.com/akodkod/konsol/internal/errors"
	"github.com/akodkod/konsol/internal/protocol"
	"github.com/akodkod/konsol/internal/service"
	"github.com/akodkod/konsol/internal/transport"
)

// Exit codes. Clean means the shutdown request preceded the exit
// notification; anything else is abnormal.
const (
	ExitClean    = 0
	ExitAbnormal = 1
)

// Server owns one paired client connection.
type Server struct {
	codec *transport.Codec
	svc   *service.Service
}

// New creates a Server over the given stream halves.
func New(r io.Reader, w io.Writer, svc *service.Service) *Server {
	return &Server{
		codec: transport.NewCodec(r, w),
		svc:   svc,
	}
}

// Run drives the loop until the exit notification or stream closure and
// returns the process exit code: 0 for a clean shutdown-then-exit
// handshake, 1 for exit without prior shutdown, a framing failure, or
// abrupt stream closure.
func (s *Server) Run() int {
	life := s.svc.Lifecycle()
	for {
		msg, err := s.codec.Read()
		if err != nil {
			var payloadErr *transport.PayloadError
			if stdErrors.As(err, &payloadErr) {
				// The frame was intact, so the boundary is preserved:
				// answer with a parse error (no identifier is recoverable)
				// and keep reading.
				s.writeError(nil, errors.NewParseError(payloadErr.Err.Error()))
				continue
			}
			return classifyReadFailure(err)
		}

		s.dispatch(msg)

		if life.ExitRequested() {
			if life.ShutdownRequested() {
				return ExitClean
			}
			return ExitAbnormal
		}
	}
}

func classifyReadFailure(err error) int {
	if err == io.EOF {
		// Stream closed at a frame boundary without an exit notification.
		log.Printf("client stream closed")
		return ExitAbnormal
	}

	var framingErr *transport.FramingError
	if stdErrors.As(err, &framingErr) {
		// The message boundary is lost; the stream cannot be resynchronized.
		log.Printf("fatal framing failure: %v", framingErr)
		return ExitAbnormal
	}

	log.Printf("read failure: %v", err)
	return ExitAbnormal
}

// dispatch classifies one decoded message and routes it. Requests produce
// exactly one response; notifications produce none, and their failures are
// dropped silently.
func (s *Server) dispatch(raw any) {
	env, rpcErr := protocol.ParseEnvelope(protocol.CamelToSnakeKeys(raw))
	if rpcErr != nil {
		var id any
		if env != nil && env.HasID {
			id = env.ID
		}
		s.writeError(id, rpcErr)
		return
	}

	method, known := protocol.LookupMethod(env.Method)
	if !known {
		if env.HasID {
			s.writeError(env.ID, errors.NewMethodNotFoundError(env.Method))
		} else {
			log.Printf("dropping notification for unknown method %q", env.Method)
		}
		return
	}

	if method.Notification() {
		s.handleNotification(method)
		return
	}

	result, rpcErr := s.handleRequest(method, env.Params)
	if !env.HasID {
		// A request method sent without an identifier is a notification:
		// the handler ran for its side effects, the outcome is dropped.
		return
	}
	if rpcErr != nil {
		s.writeError(env.ID, rpcErr)
		return
	}
	s.writeResult(env.ID, result)
}

func (s *Server) handleNotification(method protocol.Method) {
	switch method {
	case protocol.MethodExit:
		s.svc.Exit()
	case protocol.MethodStdout, protocol.MethodStderr, protocol.MethodStatus:
		// Server-to-client stream names; a client has no business sending
		// them, and notifications have no response channel.
		log.Printf("ignoring client-sent %s notification", method)
	}
}

// handleRequest switches exhaustively over the request methods of the
// closed set, constructs the parameter shape, and invokes the handler.
func (s *Server) handleRequest(method protocol.Method, params map[string]any) (map[string]any, *errors.RPCError) {
	switch method {
	case protocol.MethodInitialize:
		p, rpcErr := protocol.InitializeParamsFromWire(params)
		if rpcErr != nil {
			return nil, rpcErr
		}
		result, rpcErr := s.svc.Initialize(p)
		if rpcErr != nil {
			return nil, rpcErr
		}
		return result.ToWire(), nil

	case protocol.MethodShutdown:
		return nil, s.svc.Shutdown()

	case protocol.MethodCancelRequest:
		p, rpcErr := protocol.CancelParamsFromWire(params)
		if rpcErr != nil {
			return nil, rpcErr
		}
		return nil, s.svc.Cancel(p)

	case protocol.MethodSessionCreate:
		result, rpcErr := s.svc.CreateSession()
		if rpcErr != nil {
			return nil, rpcErr
		}
		return result.ToWire(), nil

	case protocol.MethodEval:
		p, rpcErr := protocol.EvalParamsFromWire(params)
		if rpcErr != nil {
			return nil, rpcErr
		}
		result, rpcErr := s.svc.Eval(p)
		if rpcErr != nil {
			return nil, rpcErr
		}
		return result.ToWire(), nil

	case protocol.MethodInterrupt:
		p, rpcErr := protocol.InterruptParamsFromWire(params)
		if rpcErr != nil {
			return nil, rpcErr
		}
		result, rpcErr := s.svc.Interrupt(p)
		if rpcErr != nil {
			return nil, rpcErr
		}
		return result.ToWire(), nil
	}

	// Unreachable: notifications are routed before this switch.
	return nil, errors.NewMethodNotFoundError(string(method))
}

// writeResult emits a success response. A nil result serializes as an
// explicit null, which shutdown and cancel rely on.
func (s *Server) writeResult(id any, result map[string]any) {
	s.write(protocol.NewResponse(id, resultValue(result)))
}

func (s *Server) writeError(id any, rpcErr *errors.RPCError) {
	s.write(protocol.NewErrorResponse(id, rpcErr))
}

func (s *Server) write(envelope map[string]any) {
	if err := s.codec.Write(protocol.SnakeToCamelKeys(envelope)); err != nil {
		log.Printf("write response: %v", err)
	}
}

// resultValue keeps a typed-nil map from serializing as {}.
func resultValue(result map[string]any) any {
	if result == nil {
		return nil
	}
	return result
}
