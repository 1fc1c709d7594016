// Package tlspolicy turns a strict TLS configuration and a request URL into a
// handshake requirement, or rejects the request.
package tlspolicy

import (
	"net/netip"
	"strings"

	"github.com/HKHOP/Project-PixelDust-sub000/pkg/browserurl"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/neterr"
	"github.com/enetx/g"
)

// Version is a TLS protocol version supported by the policy.
type Version uint8

const (
	VersionTLS12 Version = iota + 1
	VersionTLS13
)

func (v Version) String() string {
	switch v {
	case VersionTLS12:
		return "TLS1.2"
	case VersionTLS13:
		return "TLS1.3"
	default:
		return "TLS?"
	}
}

// TrustStoreMode selects the trust anchors used for certificate verification.
type TrustStoreMode uint8

const (
	// WebPKIOnly uses only the embedded public root set.
	WebPKIOnly TrustStoreMode = iota
	// WebPKIAndOS merges the operating-system roots into the embedded set.
	WebPKIAndOS
)

func (m TrustStoreMode) String() string {
	if m == WebPKIAndOS {
		return "webpki+os"
	}

	return "webpki"
}

// Handshake describes the TLS requirements for one HTTPS request.
type Handshake struct {
	ServerName  string
	MinVersion  Version
	MaxVersion  Version
	ALPN        []string
	RequireSNI  bool
	RequireOCSP bool
}

// Policy is the global strict TLS configuration. It is a value type: copies
// are independent, and per-request adjustments never touch the original.
type Policy struct {
	MinVersion               Version        // Lowest acceptable version
	MaxVersion               Version        // Highest acceptable version
	RequireSNI               bool           // Refuse IP-literal https hosts
	RequireOCSPStapling      bool           // Demand a stapled OCSP response
	AllowInvalidCertificates bool           // Must stay false; setting it fails validation
	AllowLegacyCipherSuites  bool           // Must stay false; setting it fails validation
	HTTPSOnly                bool           // Reject plain http URLs
	TrustStore               TrustStoreMode // Root selection
}

// Default returns the strict default: TLS 1.2..1.3, SNI and OCSP stapling
// required, embedded roots only, plain HTTP allowed.
func Default() Policy {
	return Policy{
		MinVersion:          VersionTLS12,
		MaxVersion:          VersionTLS13,
		RequireSNI:          true,
		RequireOCSPStapling: true,
		TrustStore:          WebPKIOnly,
	}
}

// ForSecurityMode returns Default with HTTPS-only set to strict.
func ForSecurityMode(strict bool) Policy {
	p := Default()
	p.HTTPSOnly = strict

	return p
}

// WithTrustStoreMode returns a copy using mode.
func (p Policy) WithTrustStoreMode(mode TrustStoreMode) Policy {
	p.TrustStore = mode
	return p
}

// WithOCSPRequired returns a copy with OCSP stapling set to required.
func (p Policy) WithOCSPRequired(required bool) Policy {
	p.RequireOCSPStapling = required
	return p
}

// Validate checks internal consistency. Allowing invalid certificates or
// legacy ciphers is a validation failure, not a toggle.
func (p Policy) Validate() error {
	if p.MinVersion > p.MaxVersion {
		return neterr.New("net.tls.invalid_version_range", "minimum TLS version cannot be greater than maximum version")
	}

	if p.AllowInvalidCertificates {
		return neterr.New("net.tls.invalid_certificate_mode", "strict TLS policy forbids invalid certificates")
	}

	if p.AllowLegacyCipherSuites {
		return neterr.New("net.tls.legacy_cipher_mode", "strict TLS policy forbids legacy cipher suites")
	}

	return nil
}

// HandshakeFor returns the handshake requirement for u, None for plain HTTP,
// or an error when the policy rejects the request.
func (p Policy) HandshakeFor(u *browserurl.URL) (g.Option[Handshake], error) {
	if err := p.Validate(); err != nil {
		return g.None[Handshake](), err
	}

	if !u.IsSecure() {
		if p.HTTPSOnly {
			return g.None[Handshake](), neterr.New("net.tls.https_only", "HTTPS-only mode blocks plain HTTP navigation")
		}

		return g.None[Handshake](), nil
	}

	if p.RequireSNI && u.IsIP() {
		return g.None[Handshake](), neterr.New("net.tls.sni_host_invalid", "SNI requires a DNS host, not a raw IP address")
	}

	return g.Some(Handshake{
		ServerName:  u.Host(),
		MinVersion:  p.MinVersion,
		MaxVersion:  p.MaxVersion,
		ALPN:        []string{"http/1.1"},
		RequireSNI:  p.RequireSNI,
		RequireOCSP: p.RequireOCSPStapling,
	}), nil
}

// RelaxedFor returns the effective policy for a request to host. Local
// development endpoints get HTTPS-only, OCSP and SNI disabled; every other
// host gets p unchanged.
func (p Policy) RelaxedFor(host string) Policy {
	if IsLocalNetworkHost(host) {
		p.HTTPSOnly = false
		p.RequireOCSPStapling = false
		p.RequireSNI = false
	}

	return p
}

// IsLocalNetworkHost reports whether host is localhost, a .localhost or
// .local name, or a loopback, private, link-local or unspecified address.
func IsLocalNetworkHost(host string) bool {
	h := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(host), "."))
	h = strings.TrimSuffix(strings.TrimPrefix(h, "["), "]")

	if h == "" {
		return false
	}

	if h == "localhost" || strings.HasSuffix(h, ".localhost") || strings.HasSuffix(h, ".local") {
		return true
	}

	addr, err := netip.ParseAddr(h)
	if err != nil {
		return false
	}

	addr = addr.Unmap()

	return addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsUnspecified()
}
