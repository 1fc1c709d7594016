package transport

import (
	"context"
	"net"
	"net/netip"
	"net/url"
	"time"

	"github.com/HKHOP/Project-PixelDust-sub000/pkg/neterr"
	_ "github.com/HKHOP/Project-PixelDust-sub000/pkg/socks4"
	"github.com/wzshiming/socks5"
	"golang.org/x/net/proxy"
)

// Proxy tunnels every connection through a SOCKS proxy. Targets are resolved
// locally before they reach the proxy.
type Proxy struct {
	dialer proxy.ContextDialer
	url    string
}

// NewProxy returns a transport for a socks5, socks5h, socks4 or socks4a proxy URL.
func NewProxy(rawURL string) (*Proxy, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, neterr.Wrap("net.transport.proxy_invalid", "invalid proxy URL", err)
	}

	if u.Host == "" {
		return nil, neterr.Newf("net.transport.proxy_invalid", "proxy URL %q has no host", rawURL)
	}

	var dialer proxy.ContextDialer

	switch u.Scheme {
	case "socks5", "socks5h":
		d, err := socks5.NewDialer(u.String())
		if err != nil {
			return nil, neterr.Wrap("net.transport.proxy_invalid", "socks5 new dialer", err)
		}
		dialer = d
	case "socks4", "socks4a":
		d, err := proxy.FromURL(u, proxy.Direct)
		if err != nil {
			return nil, neterr.Wrap("net.transport.proxy_invalid", "socks4 new dialer", err)
		}

		cd, ok := d.(proxy.ContextDialer)
		if !ok {
			return nil, neterr.New("net.transport.proxy_invalid", "socks4 dialer does not support contexts")
		}
		dialer = cd
	default:
		return nil, neterr.Newf("net.transport.proxy_invalid", "unsupported proxy scheme %q", u.Scheme)
	}

	return &Proxy{dialer: dialer, url: u.Redacted()}, nil
}

// Connect implements Transport.
func (p *Proxy) Connect(ctx context.Context, addr netip.AddrPort, timeout time.Duration) (net.Conn, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	conn, err := p.dialer.DialContext(ctx, "tcp", addr.String())
	if err != nil {
		return nil, neterr.Wrap("net.transport.connect_failed", "failed to connect to "+addr.String()+" via "+p.url, err)
	}

	return WithTimeout(conn, timeout), nil
}

func (p *Proxy) String() string { return p.url }
