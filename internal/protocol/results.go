package protocol

// ServerInfo identifies this server in the initialize response.
type ServerInfo struct {
	Name    string
	Version string
}

// Capabilities advertises what the server supports. SupportsInterrupt stays
// false until interruption is actually enforced.
type Capabilities struct {
	SupportsInterrupt bool
}

// InitializeResult is the result shape for the initialize request.
type InitializeResult struct {
	ServerInfo   ServerInfo
	Capabilities Capabilities
}

// ToWire renders the result with internal keys.
func (r *InitializeResult) ToWire() map[string]any {
	return map[string]any{
		"server_info": map[string]any{
			"name":    r.ServerInfo.Name,
			"version": r.ServerInfo.Version,
		},
		"capabilities": map[string]any{
			"supports_interrupt": r.Capabilities.SupportsInterrupt,
		},
	}
}

// SessionCreateResult is the result shape for konsol/session.create.
type SessionCreateResult struct {
	SessionID string
}

// ToWire renders the result with internal keys.
func (r *SessionCreateResult) ToWire() map[string]any {
	return map[string]any{"session_id": r.SessionID}
}

// ExceptionInfo describes an exception raised by evaluated code.
type ExceptionInfo struct {
	// Class is the exception's printable class name (not fully qualified).
	Class     string
	Message   string
	Backtrace []string
}

// EvalResult is the result shape for konsol/eval.
//
// Exception is present iff the evaluation raised; Value and ValueType are
// unspecified in that case but still serialize (as empty strings). Stdout
// and Stderr are always present, possibly empty.
type EvalResult struct {
	Value     string
	ValueType string
	Stdout    string
	Stderr    string
	Exception *ExceptionInfo
}

// ToWire renders the result with internal keys. ValueType is omitted when
// an exception was raised.
func (r *EvalResult) ToWire() map[string]any {
	obj := map[string]any{
		"value":  r.Value,
		"stdout": r.Stdout,
		"stderr": r.Stderr,
	}
	if r.ValueType != "" {
		obj["value_type"] = r.ValueType
	}
	if r.Exception != nil {
		backtrace := make([]any, len(r.Exception.Backtrace))
		for i, frame := range r.Exception.Backtrace {
			backtrace[i] = frame
		}
		obj["exception"] = map[string]any{
			"class":     r.Exception.Class,
			"message":   r.Exception.Message,
			"backtrace": backtrace,
		}
	}
	return obj
}

// InterruptResult is the result shape for konsol/interrupt.
type InterruptResult struct {
	Success bool
}

// ToWire renders the result with internal keys.
func (r *InterruptResult) ToWire() map[string]any {
	return map[string]any{"success": r.Success}
}

// OutputChunkParams is the parameter shape for the reserved konsol/stdout
// and konsol/stderr server-to-client notifications.
type OutputChunkParams struct {
	SessionID string
	Chunk     string
}

// ToWire renders the params with internal keys.
func (p *OutputChunkParams) ToWire() map[string]any {
	return map[string]any{
		"session_id": p.SessionID,
		"chunk":      p.Chunk,
	}
}

// StatusParams is the parameter shape for the reserved konsol/status
// server-to-client notification.
type StatusParams struct {
	SessionID string
	Busy      bool
}

// ToWire renders the params with internal keys.
func (p *StatusParams) ToWire() map[string]any {
	return map[string]any{
		"session_id": p.SessionID,
		"busy":       p.Busy,
	}
}
