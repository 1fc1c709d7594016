// Package transport opens raw byte streams to resolved socket addresses.
package transport

import (
	"context"
	"net"
	"net/netip"
	"time"

	"github.com/HKHOP/Project-PixelDust-sub000/pkg/neterr"
)

// Transport opens a connection to a single resolved address.
type Transport interface {
	Connect(ctx context.Context, addr netip.AddrPort, timeout time.Duration) (net.Conn, error)
}

// TCP dials directly with the standard dialer.
type TCP struct {
	KeepAlive time.Duration // TCP keep-alive period; zero uses the system default
}

// Connect implements Transport. The returned stream enforces timeout on every
// read and write.
func (t TCP) Connect(ctx context.Context, addr netip.AddrPort, timeout time.Duration) (net.Conn, error) {
	dialer := net.Dialer{Timeout: timeout, KeepAlive: t.KeepAlive}

	conn, err := dialer.DialContext(ctx, "tcp", addr.String())
	if err != nil {
		return nil, neterr.Wrap("net.transport.connect_failed", "failed to connect to "+addr.String(), err)
	}

	if tcp, ok := conn.(*net.TCPConn); ok {
		if err := tcp.SetNoDelay(true); err != nil {
			_ = conn.Close()
			return nil, neterr.Wrap("net.transport.nodelay_failed", "failed to enable TCP_NODELAY for "+addr.String(), err)
		}
	}

	return WithTimeout(conn, timeout), nil
}

// timeoutConn pushes the deadline forward before each I/O call so the
// timeout bounds every individual read and write.
type timeoutConn struct {
	net.Conn
	timeout time.Duration
}

// WithTimeout wraps conn so each Read and Write must finish within timeout.
// A non-positive timeout returns conn unchanged.
func WithTimeout(conn net.Conn, timeout time.Duration) net.Conn {
	if timeout <= 0 {
		return conn
	}

	return &timeoutConn{Conn: conn, timeout: timeout}
}

func (c *timeoutConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}

	return c.Conn.Read(p)
}

func (c *timeoutConn) Write(p []byte) (int, error) {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}

	return c.Conn.Write(p)
}
