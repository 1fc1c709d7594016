// Package pixeldust is the network-fetch core of the PixelDust browser: an
// HTTP/1.1 client with a strict TLS policy, connection reuse, a freshness
// cache with conditional revalidation, and a cookie jar.
package pixeldust

import (
	"context"
	"io"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/enetx/g"
	"github.com/rs/zerolog"

	"github.com/HKHOP/Project-PixelDust-sub000/header"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/browserurl"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/dns"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/http1"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/neterr"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/pool"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/tlsbackend"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/tlspolicy"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/transport"
)

// Prepared is a request together with the TLS requirements it must be sent
// under. TLS is None exactly when the URL is plain http.
type Prepared struct {
	Request *http1.Request
	TLS     g.Option[tlspolicy.Handshake]
	Policy  tlspolicy.Policy
}

func (p *Prepared) validate() error {
	secure := p.Request.URL.IsSecure()

	if secure && p.TLS.IsNone() {
		return neterr.New("net.http.tls_missing", "HTTPS request is missing TLS handshake configuration")
	}

	if !secure && p.TLS.IsSome() {
		return neterr.New("net.http.tls_unexpected", "non-HTTPS request must not include TLS handshake configuration")
	}

	return nil
}

// Client executes HTTP/1.1 requests over pooled connections. Pool access is
// serialized internally; no I/O happens under that lock.
type Client struct {
	resolver       dns.Resolver
	transport      transport.Transport
	tls            tlsbackend.Adapter
	pool           pool.Pool
	poolMu         sync.Mutex
	connectTimeout time.Duration
	codec          http1.Options
	doNotTrack     bool
	log            zerolog.Logger
}

// NewClient returns a client using the system resolver, direct TCP, the uTLS
// backend and an in-memory pool.
func NewClient() *Client {
	return &Client{
		resolver:       dns.NewSystem(),
		transport:      transport.TCP{KeepAlive: _TCPKeepAlive},
		tls:            tlsbackend.New(),
		pool:           pool.NewMemory(pool.DefaultMaxIdlePerKey),
		connectTimeout: _connectTimeout,
		codec:          http1.Options{MaxBodyBytes: _maxBodyBytes},
		log:            zerolog.Nop(),
	}
}

// Prepare builds a request for u with the browser default headers and derives
// its TLS handshake from policy.
func (c *Client) Prepare(method http1.Method, u *browserurl.URL, policy tlspolicy.Policy) (*Prepared, error) {
	hs, err := policy.HandshakeFor(u)
	if err != nil {
		return nil, err
	}

	b := http1.NewBuilder(method, u).
		Header(header.USER_AGENT, _userAgent).
		Header(header.ACCEPT, _accept).
		Header(header.ACCEPT_LANGUAGE, _acceptLanguage).
		Header(header.ACCEPT_ENCODING, _acceptEncoding).
		Header(header.UPGRADE_INSECURE_REQUESTS, "1").
		Header(header.SEC_FETCH_SITE, "none").
		Header(header.SEC_FETCH_MODE, "navigate").
		Header(header.SEC_FETCH_USER, "?1").
		Header(header.SEC_FETCH_DEST, "document")

	if c.doNotTrack {
		b.Header(header.DNT, "1")
	}

	req, err := b.Build()
	if err != nil {
		return nil, err
	}

	return &Prepared{Request: req, TLS: hs, Policy: policy}, nil
}

// Execute sends p and reads the response. A pooled stream that fails before
// yielding a single response byte is dropped and an idempotent request is
// sent once more on a fresh connection.
func (c *Client) Execute(ctx context.Context, p *Prepared) (*http1.Response, error) {
	if err := p.Policy.Validate(); err != nil {
		return nil, err
	}

	if err := p.validate(); err != nil {
		return nil, err
	}

	key := pool.KeyFor(p.Request.URL)

	if conn := c.checkout(key); conn.IsSome() {
		resp, untouched, err := c.roundTrip(key, conn.Some(), p.Request)
		if err == nil {
			return resp, nil
		}

		if !untouched || !idempotent(p.Request.Method) {
			return nil, err
		}

		c.log.Debug().Err(err).Str("key", key.String()).Msg("pooled connection went stale, redialing")
	}

	conn, err := c.open(ctx, p)
	if err != nil {
		return nil, err
	}

	resp, _, err := c.roundTrip(key, conn, p.Request)

	return resp, err
}

// PoolStats reports idle pooled connections.
func (c *Client) PoolStats() pool.Stats {
	c.poolMu.Lock()
	defer c.poolMu.Unlock()

	return c.pool.Stats()
}

// Close drops every pooled connection. The client stays usable.
func (c *Client) Close() error {
	c.poolMu.Lock()
	defer c.poolMu.Unlock()

	c.pool.Clear()

	return nil
}

func (c *Client) checkout(key pool.Key) g.Option[net.Conn] {
	c.poolMu.Lock()
	defer c.poolMu.Unlock()

	return c.pool.Checkout(key)
}

func (c *Client) checkin(key pool.Key, conn net.Conn) {
	c.poolMu.Lock()
	defer c.poolMu.Unlock()

	c.pool.Checkin(key, conn)
}

// roundTrip writes req and reads its response on conn. untouched reports
// that no response byte arrived, which makes a retry safe.
func (c *Client) roundTrip(key pool.Key, conn net.Conn, req *http1.Request) (*http1.Response, bool, error) {
	if err := http1.Write(conn, req); err != nil {
		_ = conn.Close()
		return nil, true, err
	}

	cr := &countingReader{r: conn}

	res, err := http1.Read(cr, req, c.codec)
	if err != nil {
		_ = conn.Close()
		return nil, cr.n == 0, err
	}

	if res.Reusable {
		c.checkin(key, conn)
	} else {
		_ = conn.Close()
	}

	return res.Response, false, nil
}

func (c *Client) open(ctx context.Context, p *Prepared) (net.Conn, error) {
	u := p.Request.URL

	addrs, err := c.resolver.Resolve(ctx, u.Host(), u.Port())
	if err != nil {
		return nil, err
	}

	conn, err := c.connectFirstAvailable(ctx, addrs)
	if err != nil {
		return nil, err
	}

	if p.TLS.IsNone() {
		return conn, nil
	}

	return c.tls.Connect(ctx, conn, p.TLS.Some(), p.Policy)
}

// connectFirstAvailable tries addrs in order and returns the last error when
// none connects.
func (c *Client) connectFirstAvailable(ctx context.Context, addrs []netip.AddrPort) (net.Conn, error) {
	var last error

	for _, addr := range addrs {
		conn, err := c.transport.Connect(ctx, addr, c.connectTimeout)
		if err == nil {
			return conn, nil
		}

		c.log.Debug().Err(err).Str("addr", addr.String()).Msg("connect failed")
		last = err
	}

	if last == nil {
		return nil, neterr.New("net.transport.no_addresses", "no addresses available to open a connection")
	}

	return nil, last
}

func idempotent(m http1.Method) bool {
	switch m {
	case http1.GET, http1.HEAD, http1.OPTIONS, http1.PUT, http1.DELETE:
		return true
	}

	return false
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)

	return n, err
}
