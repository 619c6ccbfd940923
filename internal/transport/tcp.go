package transport

import (
	"fmt"
	"net"
)

// TCPListener accepts a single paired client over a TCP socket. The framed
// protocol on the connection is byte-for-byte the same as on stdio.
type TCPListener struct {
	ln net.Listener
}

// ListenTCP binds the given address (host:port).
func ListenTCP(addr string) (*TCPListener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	return &TCPListener{ln: ln}, nil
}

// Addr returns the bound address, useful when the port was chosen by the OS.
func (l *TCPListener) Addr() string {
	return l.ln.Addr().String()
}

// AcceptOne blocks until a client connects and returns the connection. The
// server assumes a single paired client per process, so the caller runs one
// loop over the returned connection and exits with it.
func (l *TCPListener) AcceptOne() (net.Conn, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, fmt.Errorf("accept: %w", err)
	}
	return conn, nil
}

// Close stops listening.
func (l *TCPListener) Close() error {
	return l.ln.Close()
}
