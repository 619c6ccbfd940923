package evaluator

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dop251/goja"

	"github.com/akodkod/konsol/internal/hostruntime"
)

// Exception describes an exception raised by evaluated code. Class is the
// exception's printable class name; the backtrace is captured at catch time
// and may legitimately be empty.
type Exception struct {
	Class     string
	Message   string
	Backtrace []string
}

// Result is the outcome of one evaluation. Exception is present iff the
// code raised; Value and ValueType are unspecified in that case. Stdout and
// Stderr are always present, possibly empty.
type Result struct {
	Value     string
	ValueType string
	Stdout    string
	Stderr    string
	Exception *Exception
}

// Evaluator runs code strings against evaluation contexts, wrapped by the
// host runtime's combinators when it provides them. It is re-entrant across
// sessions but not within one; the session's busy state gates that.
type Evaluator struct {
	runtime hostruntime.Runtime
}

// New creates an Evaluator backed by the given host runtime. A nil runtime
// runs evaluations bare.
func New(rt hostruntime.Runtime) *Evaluator {
	return &Evaluator{runtime: rt}
}

// Evaluate runs one code string against the context. It returns exactly one
// result and never surfaces a failure of the evaluated code as a Go error;
// the returned error covers only the evaluator's own plumbing (stream swap,
// host combinator failure) and maps to an internal error upstream.
func (e *Evaluator) Evaluate(ctx *Context, code string) (*Result, error) {
	capt, err := startCapture()
	if err != nil {
		return nil, fmt.Errorf("install stream capture: %w", err)
	}
	stopped := false
	defer func() {
		// Restores the global streams even when the interpreter panics.
		if !stopped {
			capt.stop()
		}
	}()

	res := &Result{}
	var val goja.Value
	var runErr error
	wrapErr := hostruntime.Wrap(e.runtime, func() error {
		val, runErr = ctx.run(code)
		return nil
	})
	res.Stdout, res.Stderr = capt.stop()
	stopped = true

	if wrapErr != nil {
		return nil, fmt.Errorf("host runtime wrapper: %w", wrapErr)
	}

	if runErr != nil {
		res.Exception = describeException(runErr)
		return res, nil
	}

	res.Value, res.ValueType = render(val)
	return res, nil
}

// render produces the printable form of a value and the name of its dynamic
// type, using the interpreter's own conventions: bare integers, quoted
// strings, JSON for arrays and plain objects.
func render(val goja.Value) (rendering, typeName string) {
	if val == nil || goja.IsUndefined(val) {
		return "undefined", "Undefined"
	}
	if goja.IsNull(val) {
		return "null", "Null"
	}

	exported := val.Export()
	switch v := exported.(type) {
	case int64:
		return strconv.FormatInt(v, 10), "Integer"
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), "Float"
	case string:
		return strconv.Quote(v), "String"
	case bool:
		return strconv.FormatBool(v), "Boolean"
	}

	if obj, ok := val.(*goja.Object); ok {
		class := obj.ClassName()
		if class != "Function" {
			if data, err := json.Marshal(exported); err == nil {
				return string(data), class
			}
		}
		return obj.String(), class
	}

	return fmt.Sprintf("%v", exported), "Object"
}

// describeException translates a goja evaluation error into a structured
// descriptor. Syntax errors surfaced at evaluation time are captured the
// same way as runtime exceptions.
func describeException(err error) *Exception {
	switch ex := err.(type) {
	case *goja.Exception:
		return describeThrown(ex)
	case *goja.CompilerSyntaxError:
		return &Exception{
			Class:     "SyntaxError",
			Message:   strings.TrimSpace(ex.Error()),
			Backtrace: []string{strings.TrimSpace(ex.Error())},
		}
	case *goja.InterruptedError:
		return &Exception{
			Class:     "InterruptedError",
			Message:   strings.TrimSpace(ex.Error()),
			Backtrace: stackLines(ex.String()),
		}
	default:
		return &Exception{
			Class:   "Error",
			Message: err.Error(),
		}
	}
}

func describeThrown(ex *goja.Exception) *Exception {
	desc := &Exception{Class: "Error"}

	obj, ok := ex.Value().(*goja.Object)
	if !ok {
		// A thrown primitive, e.g. `throw "boom"`.
		_, desc.Class = render(ex.Value())
		desc.Message = ex.Value().String()
		desc.Backtrace = stackLines(ex.String())
		return desc
	}

	if name := obj.Get("name"); name != nil && !goja.IsUndefined(name) {
		desc.Class = name.String()
	} else {
		desc.Class = obj.ClassName()
	}
	if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) {
		desc.Message = msg.String()
	}
	if stack := obj.Get("stack"); stack != nil && !goja.IsUndefined(stack) {
		desc.Backtrace = stackLines(stack.String())
	}
	if len(desc.Backtrace) == 0 {
		desc.Backtrace = stackLines(ex.String())
	}
	return desc
}

// stackLines extracts the frame lines ("at <eval>:1:7(4)") from a rendered
// stack, dropping the leading message line.
func stackLines(stack string) []string {
	var frames []string
	for _, line := range strings.Split(stack, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "at ") {
			frames = append(frames, line)
		}
	}
	return frames
}
