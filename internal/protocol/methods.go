package protocol

// Method is one of the protocol's recognized method names. The set is
// closed; adding a member is a protocol change. The dispatcher switches
// exhaustively over these constants rather than consulting a name-to-handler
// map, so a missing case shows up in review instead of at runtime.
type Method string

const (
	// Lifecycle family.
	MethodInitialize    Method = "initialize"
	MethodShutdown      Method = "shutdown"
	MethodExit          Method = "exit"
	MethodCancelRequest Method = "$/cancelRequest"

	// Workload family.
	MethodSessionCreate Method = "konsol/session.create"
	MethodEval          Method = "konsol/eval"
	MethodInterrupt     Method = "konsol/interrupt"

	// Server-to-client stream notifications. Reserved: the core buffers
	// output and returns it with the result, so these are never emitted in
	// this version.
	MethodStdout Method = "konsol/stdout"
	MethodStderr Method = "konsol/stderr"
	MethodStatus Method = "konsol/status"
)

var methods = map[string]Method{
	string(MethodInitialize):    MethodInitialize,
	string(MethodShutdown):      MethodShutdown,
	string(MethodExit):          MethodExit,
	string(MethodCancelRequest): MethodCancelRequest,
	string(MethodSessionCreate): MethodSessionCreate,
	string(MethodEval):          MethodEval,
	string(MethodInterrupt):     MethodInterrupt,
	string(MethodStdout):        MethodStdout,
	string(MethodStderr):        MethodStderr,
	string(MethodStatus):        MethodStatus,
}

// LookupMethod resolves a wire method name against the closed set.
func LookupMethod(name string) (Method, bool) {
	m, ok := methods[name]
	return m, ok
}

// Notification reports whether the method is classified as a notification:
// exit and the server-to-client stream methods. All other recognized names
// are request methods.
func (m Method) Notification() bool {
	switch m {
	case MethodExit, MethodStdout, MethodStderr, MethodStatus:
		return true
	}
	return false
}
