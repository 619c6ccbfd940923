package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/akodkod/konsol/internal/errors"
)

// ClientInfo identifies the connecting client.
type ClientInfo struct {
	Name    string
	Version string
}

// InitializeParams is the parameter shape for the initialize request.
// Both fields are optional.
type InitializeParams struct {
	ProcessID  *int64
	ClientInfo *ClientInfo
}

// InitializeParamsFromWire validates and constructs InitializeParams from a
// translated params object.
func InitializeParamsFromWire(m map[string]any) (*InitializeParams, *errors.RPCError) {
	p := &InitializeParams{}
	if m == nil {
		return p, nil
	}

	if raw, present := m["process_id"]; present && raw != nil {
		num, ok := raw.(json.Number)
		if !ok {
			return nil, errors.NewInvalidParamsError("processId must be an integer or null")
		}
		pid, err := num.Int64()
		if err != nil {
			return nil, errors.NewInvalidParamsError("processId must be an integer or null")
		}
		p.ProcessID = &pid
	}

	if raw, present := m["client_info"]; present && raw != nil {
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, errors.NewInvalidParamsError("clientInfo must be an object")
		}
		info := &ClientInfo{}
		name, ok := obj["name"].(string)
		if !ok || name == "" {
			return nil, errors.NewInvalidParamsError("clientInfo.name is required")
		}
		info.Name = name
		if ver, present := obj["version"]; present && ver != nil {
			verStr, ok := ver.(string)
			if !ok {
				return nil, errors.NewInvalidParamsError("clientInfo.version must be a string")
			}
			info.Version = verStr
		}
		p.ClientInfo = info
	}

	return p, nil
}

// CancelParams is the parameter shape for the $/cancelRequest request.
type CancelParams struct {
	// ID is the correlation identifier of the request to cancel, a string
	// or a json.Number.
	ID any
}

// CancelParamsFromWire validates and constructs CancelParams.
func CancelParamsFromWire(m map[string]any) (*CancelParams, *errors.RPCError) {
	if m == nil {
		return nil, errors.NewInvalidParamsError("id is required")
	}
	raw, present := m["id"]
	if !present || raw == nil {
		return nil, errors.NewInvalidParamsError("id is required")
	}
	switch raw.(type) {
	case string, json.Number:
		return &CancelParams{ID: raw}, nil
	}
	return nil, errors.NewInvalidParamsError("id must be a string or an integer")
}

// EvalParams is the parameter shape for the konsol/eval request.
type EvalParams struct {
	SessionID string
	Code      string
}

// EvalParamsFromWire validates and constructs EvalParams.
func EvalParamsFromWire(m map[string]any) (*EvalParams, *errors.RPCError) {
	if m == nil {
		return nil, errors.NewInvalidParamsError("sessionId and code are required")
	}
	sessionID, err := requiredString(m, "session_id", "sessionId")
	if err != nil {
		return nil, err
	}
	code, ok := m["code"].(string)
	if !ok {
		return nil, errors.NewInvalidParamsError("code is required")
	}
	return &EvalParams{SessionID: sessionID, Code: code}, nil
}

// InterruptParams is the parameter shape for the konsol/interrupt request.
type InterruptParams struct {
	SessionID string
}

// InterruptParamsFromWire validates and constructs InterruptParams.
func InterruptParamsFromWire(m map[string]any) (*InterruptParams, *errors.RPCError) {
	if m == nil {
		return nil, errors.NewInvalidParamsError("sessionId is required")
	}
	sessionID, err := requiredString(m, "session_id", "sessionId")
	if err != nil {
		return nil, err
	}
	return &InterruptParams{SessionID: sessionID}, nil
}

func requiredString(m map[string]any, key, wireName string) (string, *errors.RPCError) {
	val, ok := m[key].(string)
	if !ok || val == "" {
		return "", errors.NewInvalidParamsError(fmt.Sprintf("%s is required", wireName))
	}
	return val, nil
}
