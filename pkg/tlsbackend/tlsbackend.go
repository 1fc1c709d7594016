// Package tlsbackend upgrades raw streams to TLS according to a handshake
// requirement and the strict TLS policy.
package tlsbackend

import (
	"context"
	"crypto/x509"
	"errors"
	"net"
	"sync"

	"github.com/HKHOP/Project-PixelDust-sub000/pkg/neterr"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/tlspolicy"
	"github.com/certifi/gocertifi"
	utls "github.com/enetx/utls"
)

// Adapter performs the TLS handshake over an established stream.
type Adapter interface {
	Connect(ctx context.Context, conn net.Conn, hs tlspolicy.Handshake, policy tlspolicy.Policy) (net.Conn, error)
}

// UTLS is the default Adapter built on uTLS with the Go client hello.
// Certificate verification is done here rather than by the TLS stack so the
// trust-store and OCSP rules of the policy apply exactly.
type UTLS struct {
	// ExtraRoots are trusted in addition to the policy's trust store.
	ExtraRoots *x509.CertPool

	sessions utls.ClientSessionCache

	webpkiOnce sync.Once
	webpki     *x509.CertPool
	webpkiErr  error

	osOnce sync.Once
	os     *x509.CertPool
	osErr  error
}

// New returns an adapter with TLS session resumption enabled.
func New() *UTLS { return &UTLS{sessions: utls.NewLRUClientSessionCache(64)} }

var errOCSPMissing = neterr.New("net.tls.ocsp_missing", "missing required OCSP stapling response")

// Connect implements Adapter. conn is closed when the handshake fails.
func (a *UTLS) Connect(ctx context.Context, conn net.Conn, hs tlspolicy.Handshake, policy tlspolicy.Policy) (net.Conn, error) {
	minV, maxV, err := versions(hs)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if hs.ServerName == "" {
		_ = conn.Close()
		return nil, neterr.New("net.tls.server_name_invalid", "TLS server name is empty")
	}

	roots, err := a.roots(policy.TrustStore)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	config := &utls.Config{
		InsecureSkipVerify: true,
		MinVersion:         minV,
		MaxVersion:         maxV,
		NextProtos:         hs.ALPN,
		ClientSessionCache: a.sessions,
		VerifyConnection:   verifier(hs, roots),
	}

	// An empty ServerName suppresses the SNI extension; verification still
	// checks the certificate against hs.ServerName.
	if hs.RequireSNI {
		config.ServerName = hs.ServerName
	}

	uconn := utls.UClient(conn, config, utls.HelloGolang)
	if err := uconn.HandshakeContext(ctx); err != nil {
		_ = uconn.Close()
		return nil, neterr.Wrap("net.tls.handshake_failed", "TLS handshake failed for "+hs.ServerName, err)
	}

	return uconn, nil
}

func verifier(hs tlspolicy.Handshake, roots []*x509.CertPool) func(utls.ConnectionState) error {
	return func(cs utls.ConnectionState) error {
		if len(cs.PeerCertificates) == 0 {
			return errors.New("server presented no certificates")
		}

		intermediates := x509.NewCertPool()
		for _, cert := range cs.PeerCertificates[1:] {
			intermediates.AddCert(cert)
		}

		var verifyErr error

		for _, pool := range roots {
			_, verifyErr = cs.PeerCertificates[0].Verify(x509.VerifyOptions{
				DNSName:       hs.ServerName,
				Roots:         pool,
				Intermediates: intermediates,
			})
			if verifyErr == nil {
				break
			}
		}

		if verifyErr != nil {
			return verifyErr
		}

		if hs.RequireOCSP && len(cs.OCSPResponse) == 0 {
			return errOCSPMissing
		}

		return nil
	}
}

// roots returns the candidate trust pools for mode. A chain is accepted when
// it verifies against any of them.
func (a *UTLS) roots(mode tlspolicy.TrustStoreMode) ([]*x509.CertPool, error) {
	a.webpkiOnce.Do(func() { a.webpki, a.webpkiErr = gocertifi.CACerts() })

	var pools []*x509.CertPool

	if a.webpkiErr == nil && a.webpki != nil {
		pools = append(pools, a.webpki)
	}

	if mode == tlspolicy.WebPKIAndOS {
		a.osOnce.Do(func() { a.os, a.osErr = x509.SystemCertPool() })

		if a.osErr != nil {
			return nil, neterr.Wrap("net.tls.os_roots_load_failed", "failed to load operating-system roots", a.osErr)
		}

		pools = append(pools, a.os)
	}

	if a.ExtraRoots != nil {
		pools = append(pools, a.ExtraRoots)
	}

	if len(pools) == 0 {
		if a.webpkiErr != nil {
			return nil, neterr.Wrap("net.tls.verifier_build_failed", "failed to load embedded roots", a.webpkiErr)
		}

		return nil, neterr.New("net.tls.root_store_empty", "no trust anchors available for TLS verification")
	}

	return pools, nil
}

func versions(hs tlspolicy.Handshake) (uint16, uint16, error) {
	minV, okMin := wireVersion(hs.MinVersion)
	maxV, okMax := wireVersion(hs.MaxVersion)

	if !okMin || !okMax || minV > maxV {
		return 0, 0, neterr.New("net.tls.version_set_empty", "no supported TLS versions match the requested policy")
	}

	return minV, maxV, nil
}

func wireVersion(v tlspolicy.Version) (uint16, bool) {
	switch v {
	case tlspolicy.VersionTLS12:
		return utls.VersionTLS12, true
	case tlspolicy.VersionTLS13:
		return utls.VersionTLS13, true
	default:
		return 0, false
	}
}
