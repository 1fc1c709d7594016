// Package socks4 implements a SOCKS4 and SOCKS4a CONNECT dialer and registers
// the "socks4" and "socks4a" schemes with golang.org/x/net/proxy.
package socks4

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"net/netip"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
)

const (
	version    = 0x04
	cmdConnect = 0x01

	replyGranted       = 0x5a
	replyRejected      = 0x5b
	replyIdentRequired = 0x5c
	replyIdentFailed   = 0x5d
)

// Ident is sent as the USERID field of every request.
var Ident = "nobody@0.0.0.0"

func init() {
	proxy.RegisterDialerType("socks4", fromURL)
	proxy.RegisterDialerType("socks4a", fromURL)
}

func fromURL(u *url.URL, forward proxy.Dialer) (proxy.Dialer, error) { return New(u, forward) }

// Dialer tunnels TCP connections through a SOCKS4 proxy.
type Dialer struct {
	proxyAddr string
	remoteDNS bool // socks4a: let the proxy resolve host names
	forward   proxy.Dialer
}

// New returns a dialer for the proxy described by u. forward opens the
// connection to the proxy itself; nil means proxy.Direct.
func New(u *url.URL, forward proxy.Dialer) (*Dialer, error) {
	if u == nil || u.Host == "" {
		return nil, &Error{Op: "config", Err: errMissingHost}
	}

	if forward == nil {
		forward = proxy.Direct
	}

	return &Dialer{proxyAddr: u.Host, remoteDNS: u.Scheme == "socks4a", forward: forward}, nil
}

// Dial implements proxy.Dialer.
func (d *Dialer) Dial(network, addr string) (net.Conn, error) {
	return d.DialContext(context.Background(), network, addr)
}

// DialContext implements proxy.ContextDialer.
func (d *Dialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	if network != "tcp" && network != "tcp4" {
		return nil, &Error{Op: "dial", Err: ErrWrongNetwork}
	}

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, &Error{Op: "parse address", Err: err}
	}

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, &Error{Op: "parse address", Err: err}
	}

	req, err := d.request(ctx, host, uint16(port))
	if err != nil {
		return nil, err
	}

	var conn net.Conn
	if cd, ok := d.forward.(proxy.ContextDialer); ok {
		conn, err = cd.DialContext(ctx, "tcp", d.proxyAddr)
	} else {
		conn, err = d.forward.Dial("tcp", d.proxyAddr)
	}

	if err != nil {
		return nil, &Error{Op: "dial proxy", Err: err}
	}

	if err := handshake(ctx, conn, req); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return conn, nil
}

func (d *Dialer) request(ctx context.Context, host string, port uint16) ([]byte, error) {
	if ip, err := netip.ParseAddr(host); err == nil {
		if !ip.Unmap().Is4() {
			return nil, &Error{Op: "encode request", Err: errIPv6}
		}

		return encode(ip.Unmap(), port, ""), nil
	}

	if d.remoteDNS {
		return encode(netip.AddrFrom4([4]byte{0, 0, 0, 1}), port, host), nil
	}

	ips, err := net.DefaultResolver.LookupNetIP(ctx, "ip4", host)
	if err != nil || len(ips) == 0 {
		return nil, &Error{Op: "resolve " + host, Err: err}
	}

	return encode(ips[0].Unmap(), port, ""), nil
}

// encode builds a CONNECT request. A non-empty host selects the 4a form.
func encode(ip netip.Addr, port uint16, host string) []byte {
	b := make([]byte, 0, 9+len(Ident)+len(host)+1)
	b = append(b, version, cmdConnect)
	b = binary.BigEndian.AppendUint16(b, port)
	v4 := ip.As4()
	b = append(b, v4[:]...)
	b = append(b, Ident...)
	b = append(b, 0)

	if host != "" {
		b = append(b, host...)
		b = append(b, 0)
	}

	return b
}

func handshake(ctx context.Context, conn net.Conn, req []byte) error {
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
		defer conn.SetDeadline(time.Time{})
	}

	if _, err := conn.Write(req); err != nil {
		return &Error{Op: "write request", Err: err}
	}

	var reply [8]byte
	if _, err := io.ReadFull(conn, reply[:]); err != nil {
		return &Error{Op: "read reply", Err: err}
	}

	switch reply[1] {
	case replyGranted:
		return nil
	case replyRejected:
		return &Error{Op: "connect", Err: ErrRejected}
	case replyIdentRequired, replyIdentFailed:
		return &Error{Op: "connect", Err: ErrIdentRequired}
	default:
		return &Error{Op: "connect", Err: ReplyError(reply[1])}
	}
}
