// Package evaluator executes code snippets against a session's persistent
// evaluation context, capturing the process-global output streams and
// translating raised exceptions into structured descriptors. All failures of
// the evaluated code are returned inside the result; the evaluator itself
// only errors on its own plumbing.
package evaluator

import (
	"fmt"
	"os"
	"strings"

	"github.com/dop251/goja"
)

// bootstrap defines the raise helper inside the interpreter so that a thrown
// value is a genuine Error with a class name, message, and stack.
const bootstrap = `
function raise(message) { throw new Error(message); }
`

// Context is a session's persistent evaluation context: a single interpreter
// runtime whose global bindings survive between evaluations. Assignments in
// call N are visible to call N+1 on the same session.
type Context struct {
	vm *goja.Runtime
}

// NewContext creates a fresh evaluation context with the console builtins
// installed.
func NewContext() (*Context, error) {
	vm := goja.New()
	c := &Context{vm: vm}

	// The builtins resolve os.Stdout / os.Stderr at call time, so the
	// evaluator's stream capture sees everything they write.
	puts := func(call goja.FunctionCall) goja.Value {
		fmt.Fprintln(os.Stdout, joinArgs(call.Arguments))
		return goja.Null()
	}
	print := func(call goja.FunctionCall) goja.Value {
		fmt.Fprint(os.Stdout, joinArgs(call.Arguments))
		return goja.Null()
	}
	warn := func(call goja.FunctionCall) goja.Value {
		fmt.Fprintln(os.Stderr, joinArgs(call.Arguments))
		return goja.Null()
	}

	if err := vm.Set("puts", puts); err != nil {
		return nil, fmt.Errorf("install puts: %w", err)
	}
	if err := vm.Set("print", print); err != nil {
		return nil, fmt.Errorf("install print: %w", err)
	}
	if err := vm.Set("warn", warn); err != nil {
		return nil, fmt.Errorf("install warn: %w", err)
	}

	console := vm.NewObject()
	if err := console.Set("log", puts); err != nil {
		return nil, fmt.Errorf("install console.log: %w", err)
	}
	if err := console.Set("error", warn); err != nil {
		return nil, fmt.Errorf("install console.error: %w", err)
	}
	if err := vm.Set("console", console); err != nil {
		return nil, fmt.Errorf("install console: %w", err)
	}

	if _, err := vm.RunString(bootstrap); err != nil {
		return nil, fmt.Errorf("install bootstrap helpers: %w", err)
	}

	return c, nil
}

// run evaluates a snippet against the context's runtime.
func (c *Context) run(code string) (goja.Value, error) {
	return c.vm.RunString(code)
}

func joinArgs(args []goja.Value) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = arg.String()
	}
	return strings.Join(parts, " ")
}
