package evaluator

import (
	"io"
	"os"
	"strings"
)

// capture temporarily redirects the process-global stdout and stderr into
// in-memory buffers. Redirecting the globals is inherently process-wide
// state; the server is single-threaded during evaluation, which is what
// makes this safe.
type capture struct {
	origStdout *os.File
	origStderr *os.File
	stdoutW    *os.File
	stderrW    *os.File
	stdoutC    chan string
	stderrC    chan string
}

// startCapture swaps the global streams for pipe write-ends and starts
// draining the read-ends. A failure here is a failure of the evaluator
// itself, not of evaluated code, and propagates to the caller.
func startCapture() (*capture, error) {
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		stdoutR.Close()
		stdoutW.Close()
		return nil, err
	}

	c := &capture{
		origStdout: os.Stdout,
		origStderr: os.Stderr,
		stdoutW:    stdoutW,
		stderrW:    stderrW,
		stdoutC:    make(chan string, 1),
		stderrC:    make(chan string, 1),
	}
	os.Stdout = stdoutW
	os.Stderr = stderrW

	go drain(stdoutR, c.stdoutC)
	go drain(stderrR, c.stderrC)
	return c, nil
}

// stop restores the original streams and returns the captured bytes. It is
// idempotent-unsafe by design: call exactly once. Evaluate calls it directly
// and backs that call with a deferred one, so the globals are restored on
// every exit path.
func (c *capture) stop() (stdout, stderr string) {
	os.Stdout = c.origStdout
	os.Stderr = c.origStderr
	c.stdoutW.Close()
	c.stderrW.Close()
	return <-c.stdoutC, <-c.stderrC
}

func drain(r *os.File, out chan<- string) {
	var b strings.Builder
	io.Copy(&b, r)
	r.Close()
	out <- b.String()
}
