// Package browserurl parses and canonicalizes the absolute http(s) URLs the
// network core is allowed to fetch.
package browserurl

import (
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/HKHOP/Project-PixelDust-sub000/pkg/neterr"
	"golang.org/x/net/idna"
)

// Scheme is a supported URL scheme.
type Scheme string

const (
	HTTP  Scheme = "http"
	HTTPS Scheme = "https"
)

// DefaultPort returns 80 for http and 443 for https.
func (s Scheme) DefaultPort() uint16 {
	if s == HTTPS {
		return 443
	}

	return 80
}

// IsSecure reports whether the scheme requires TLS.
func (s Scheme) IsSecure() bool { return s == HTTPS }

func (s Scheme) String() string { return string(s) }

// URL is an immutable, validated absolute URL without userinfo or fragment.
type URL struct {
	scheme Scheme
	host   string // lowercase ASCII, IPv6 without brackets
	port   uint16
	path   string // escaped, never empty
	query  string // raw query without '?'
	hasQ   bool
}

var profile = idna.Lookup

// Parse validates input and returns its canonical form.
func Parse(input string) (*URL, error) {
	u, err := url.Parse(strings.TrimSpace(input))
	if err != nil {
		return nil, neterr.Wrap("net.url.invalid", "failed to parse URL "+strconv.Quote(input), err)
	}

	if u.Scheme == "" {
		return nil, neterr.Newf("net.url.invalid", "failed to parse URL %q: relative URL without a base", input)
	}

	if u.Opaque != "" {
		return nil, neterr.New("net.url.invalid_base", "URL cannot be used for network navigation")
	}

	if u.User != nil {
		return nil, neterr.New("net.url.credentials_disallowed", "URL userinfo (username:password@) is not allowed")
	}

	var scheme Scheme

	switch strings.ToLower(u.Scheme) {
	case "http":
		scheme = HTTP
	case "https":
		scheme = HTTPS
	default:
		return nil, neterr.Newf("net.url.scheme_unsupported", "unsupported scheme %q", u.Scheme)
	}

	host, err := canonicalHost(u.Hostname())
	if err != nil {
		return nil, err
	}

	port := scheme.DefaultPort()
	if p := u.Port(); p != "" {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return nil, neterr.Wrap("net.url.port_missing", "unable to determine effective port for URL", err)
		}
		port = uint16(n)
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	return &URL{
		scheme: scheme,
		host:   host,
		port:   port,
		path:   path,
		query:  u.RawQuery,
		hasQ:   u.RawQuery != "" || u.ForceQuery,
	}, nil
}

func canonicalHost(raw string) (string, error) {
	host := strings.TrimSuffix(strings.ToLower(raw), ".")
	if host == "" {
		return "", neterr.New("net.url.host_missing", "URL must include a host")
	}

	if net.ParseIP(host) != nil || isASCII(host) {
		return host, nil
	}

	ascii, err := profile.ToASCII(host)
	if err != nil {
		return "", neterr.Wrap("net.url.invalid", "invalid host "+strconv.Quote(raw), err)
	}

	return ascii, nil
}

func isASCII(s string) bool {
	for i := range len(s) {
		if s[i] >= 0x80 {
			return false
		}
	}

	return true
}

// Scheme returns the URL scheme.
func (u *URL) Scheme() Scheme { return u.scheme }

// Host returns the lowercase host. IPv6 literals are returned without brackets.
func (u *URL) Host() string { return u.host }

// Port returns the effective port.
func (u *URL) Port() uint16 { return u.port }

// IsSecure reports whether the URL is https.
func (u *URL) IsSecure() bool { return u.scheme.IsSecure() }

// IsIP reports whether the host is a literal IP address.
func (u *URL) IsIP() bool { return net.ParseIP(u.host) != nil }

// HostPort returns "host:port" suitable for dialing.
func (u *URL) HostPort() string { return net.JoinHostPort(u.host, strconv.Itoa(int(u.port))) }

// Authority returns host[:port], omitting the port when it is the scheme default.
func (u *URL) Authority() string {
	if u.port == u.scheme.DefaultPort() {
		if strings.Contains(u.host, ":") {
			return "[" + u.host + "]"
		}
		return u.host
	}

	return u.HostPort()
}

// Origin returns scheme://authority.
func (u *URL) Origin() string { return string(u.scheme) + "://" + u.Authority() }

// PathAndQuery returns the request target; never empty.
func (u *URL) PathAndQuery() string {
	if u.hasQ {
		return u.path + "?" + u.query
	}

	return u.path
}

func (u *URL) String() string { return u.Origin() + u.PathAndQuery() }

// SameOrigin reports whether u and other share scheme, host and port.
func (u *URL) SameOrigin(other *URL) bool {
	return other != nil && u.scheme == other.scheme && u.host == other.host && u.port == other.port
}

// Resolve joins ref against u and validates the result.
func (u *URL) Resolve(ref string) (*URL, error) {
	base, err := url.Parse(u.String())
	if err != nil {
		return nil, neterr.Wrap("net.url.invalid", "invalid base URL", err)
	}

	joined, err := base.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil, neterr.Wrap("net.url.invalid", "failed to resolve "+strconv.Quote(ref), err)
	}

	return Parse(joined.String())
}
