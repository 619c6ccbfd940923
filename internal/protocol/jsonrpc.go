// Package protocol holds the wire model: the JSON-RPC envelope, the closed
// method set, the parameter and result shapes for each method, and the case
// translation applied at the protocol boundary.
//
// Handlers and the session store speak snake_case exclusively; the wire
// speaks camelCase. Translation happens once on ingress and once on egress,
// so everything in this package below the casing layer uses internal keys.
package protocol

import (
	"encoding/json"

	"github.com/akodkod/konsol/internal/errors"
)

// Version is the JSON-RPC protocol version. It must be "2.0".
const Version = "2.0"

// Envelope is a parsed request or notification envelope.
//
// ID is the correlation identifier established by the client. It is a
// string, a json.Number, or nil, and the server must echo it verbatim in
// any response, preserving its numeric-vs-string type. HasID distinguishes
// a request (key present, possibly null) from a notification (key absent).
type Envelope struct {
	ID     any
	HasID  bool
	Method string
	Params map[string]any
}

// ParseEnvelope validates a decoded JSON value (already translated to
// snake_case keys) as a request envelope. The returned error carries the
// invalid-request code; the caller decides whether an identifier was
// recoverable enough to echo.
func ParseEnvelope(v any) (*Envelope, *errors.RPCError) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errors.NewInvalidRequestError("request must be a JSON object")
	}

	env := &Envelope{}
	if id, present := obj["id"]; present {
		switch id.(type) {
		case string, json.Number, nil:
			env.ID = id
			env.HasID = true
		default:
			return nil, errors.NewInvalidRequestError("id must be a string, a number, or null")
		}
	}

	ver, ok := obj["jsonrpc"].(string)
	if !ok || ver != Version {
		return env, errors.NewInvalidRequestError("jsonrpc version must be \"2.0\"")
	}

	method, ok := obj["method"].(string)
	if !ok || method == "" {
		return env, errors.NewInvalidRequestError("method is required")
	}
	env.Method = method

	if params, present := obj["params"]; present && params != nil {
		paramsObj, ok := params.(map[string]any)
		if !ok {
			return env, errors.NewInvalidRequestError("params must be an object")
		}
		env.Params = paramsObj
	}

	return env, nil
}

// NewResponse builds a success response envelope with internal keys.
// The result may be nil, which serializes as an explicit null result.
func NewResponse(id any, result any) map[string]any {
	return map[string]any{
		"jsonrpc": Version,
		"id":      id,
		"result":  result,
	}
}

// NewErrorResponse builds an error response envelope with internal keys.
func NewErrorResponse(id any, rpcErr *errors.RPCError) map[string]any {
	return map[string]any{
		"jsonrpc": Version,
		"id":      id,
		"error":   rpcErr.ToWire(),
	}
}

// NewNotification builds a server-to-client notification envelope with
// internal keys. Notifications carry no correlation identifier.
func NewNotification(method Method, params map[string]any) map[string]any {
	return map[string]any{
		"jsonrpc": Version,
		"method":  string(method),
		"params":  params,
	}
}
