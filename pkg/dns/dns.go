// Package dns resolves host names to socket addresses for the transport layer.
package dns

import (
	"context"
	"net"
	"net/netip"
	"strconv"

	"github.com/HKHOP/Project-PixelDust-sub000/pkg/neterr"
)

// Resolver maps a host and port to candidate socket addresses, in preference order.
type Resolver interface {
	Resolve(ctx context.Context, host string, port uint16) ([]netip.AddrPort, error)
}

// System resolves through a net.Resolver.
type System struct {
	resolver *net.Resolver
}

// NewSystem returns a resolver backed by the operating system configuration.
func NewSystem() *System { return &System{resolver: net.DefaultResolver} }

// NewServer returns a resolver that sends every query to the DNS server at
// addr ("host:port") over UDP using the pure Go resolver.
func NewServer(addr string) (*System, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, neterr.Wrap("config.dns_invalid", "invalid DNS address "+strconv.Quote(addr), err)
	}

	if host == "" {
		return nil, neterr.Newf("config.dns_invalid", "invalid DNS address %q: empty host", addr)
	}

	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return nil, neterr.Newf("config.dns_invalid", "invalid DNS address %q: port out of range", addr)
	}

	return &System{
		resolver: &net.Resolver{
			PreferGo: true,
			Dial: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var dialer net.Dialer
				return dialer.DialContext(ctx, "udp", addr)
			},
		},
	}, nil
}

// Resolve implements Resolver. IP literals are returned without a lookup.
func (s *System) Resolve(ctx context.Context, host string, port uint16) ([]netip.AddrPort, error) {
	query := net.JoinHostPort(host, strconv.Itoa(int(port)))

	if addr, err := netip.ParseAddr(host); err == nil {
		return []netip.AddrPort{netip.AddrPortFrom(addr.Unmap(), port)}, nil
	}

	addrs, err := s.resolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return nil, neterr.Wrap("net.dns.resolve_failed", "failed to resolve "+strconv.Quote(query), err)
	}

	if len(addrs) == 0 {
		return nil, neterr.Newf("net.dns.no_results", "resolver returned no addresses for %q", query)
	}

	out := make([]netip.AddrPort, 0, len(addrs))
	for _, addr := range addrs {
		out = append(out, netip.AddrPortFrom(addr.Unmap(), port))
	}

	return out, nil
}

// Static is a fixed host table, useful for tests and pinned deployments.
type Static map[string][]netip.Addr

// Resolve implements Resolver.
func (s Static) Resolve(_ context.Context, host string, port uint16) ([]netip.AddrPort, error) {
	addrs, ok := s[host]
	if !ok {
		return nil, neterr.Newf("net.dns.resolve_failed", "no static entry for %q", host)
	}

	if len(addrs) == 0 {
		return nil, neterr.Newf("net.dns.no_results", "static entry for %q is empty", host)
	}

	out := make([]netip.AddrPort, 0, len(addrs))
	for _, addr := range addrs {
		out = append(out, netip.AddrPortFrom(addr, port))
	}

	return out, nil
}
