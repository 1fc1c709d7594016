package tlsbackend_test

import (
	"bufio"
	"context"
	"crypto/tls"
	"crypto/x509"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/HKHOP/Project-PixelDust-sub000/pkg/neterr"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/tlsbackend"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/tlspolicy"
)

func tlsServer(t *testing.T, staple []byte) *httptest.Server {
	t.Helper()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "secure")
	})

	ts := httptest.NewUnstartedServer(handler)

	if staple != nil {
		probe := httptest.NewTLSServer(handler)
		cert := probe.TLS.Certificates[0]
		probe.Close()

		cert.OCSPStaple = staple
		ts.TLS = &tls.Config{Certificates: []tls.Certificate{cert}}
	}

	ts.StartTLS()
	t.Cleanup(ts.Close)

	return ts
}

func dial(t *testing.T, ts *httptest.Server) net.Conn {
	t.Helper()

	conn, err := net.DialTimeout("tcp", ts.Listener.Addr().String(), time.Second)
	if err != nil {
		t.Fatal(err)
	}

	return conn
}

func handshake(requireOCSP bool) tlspolicy.Handshake {
	return tlspolicy.Handshake{
		ServerName:  "example.com",
		MinVersion:  tlspolicy.VersionTLS12,
		MaxVersion:  tlspolicy.VersionTLS13,
		ALPN:        []string{"http/1.1"},
		RequireSNI:  true,
		RequireOCSP: requireOCSP,
	}
}

func trusting(ts *httptest.Server) *tlsbackend.UTLS {
	a := tlsbackend.New()
	a.ExtraRoots = x509.NewCertPool()
	a.ExtraRoots.AddCert(ts.Certificate())

	return a
}

func TestConnectTrustedServer(t *testing.T) {
	t.Parallel()

	ts := tlsServer(t, nil)
	a := trusting(ts)

	conn, err := a.Connect(context.Background(), dial(t, ts), handshake(false), tlspolicy.Default())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	io.WriteString(conn, "GET / HTTP/1.1\r\nHost: example.com\r\nConnection: close\r\n\r\n")

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(line, "HTTP/1.1 200") {
		t.Errorf("status line = %q", line)
	}
}

func TestConnectRequiresOCSPStaple(t *testing.T) {
	t.Parallel()

	ts := tlsServer(t, nil)
	a := trusting(ts)

	_, err := a.Connect(context.Background(), dial(t, ts), handshake(true), tlspolicy.Default())
	if neterr.CodeOf(err) != "net.tls.handshake_failed" {
		t.Fatalf("expected handshake_failed, got %v", err)
	}

	if !neterr.HasCode(err, "net.tls.ocsp_missing") {
		t.Errorf("expected ocsp_missing cause, got %v", err)
	}
}

func TestConnectWithOCSPStaple(t *testing.T) {
	t.Parallel()

	ts := tlsServer(t, []byte{0x30, 0x03, 0x0a, 0x01, 0x00})
	a := trusting(ts)

	conn, err := a.Connect(context.Background(), dial(t, ts), handshake(true), tlspolicy.Default())
	if err != nil {
		t.Fatal(err)
	}
	conn.Close()
}

func TestConnectUntrustedServer(t *testing.T) {
	t.Parallel()

	ts := tlsServer(t, nil)

	_, err := tlsbackend.New().Connect(context.Background(), dial(t, ts), handshake(false), tlspolicy.Default())
	if neterr.CodeOf(err) != "net.tls.handshake_failed" {
		t.Errorf("expected handshake_failed, got %v", err)
	}
}

func TestConnectConfigErrors(t *testing.T) {
	t.Parallel()

	ts := tlsServer(t, nil)
	a := trusting(ts)

	inverted := handshake(false)
	inverted.MinVersion, inverted.MaxVersion = tlspolicy.VersionTLS13, tlspolicy.VersionTLS12

	if _, err := a.Connect(context.Background(), dial(t, ts), inverted, tlspolicy.Default()); neterr.CodeOf(err) != "net.tls.version_set_empty" {
		t.Errorf("expected version_set_empty, got %v", err)
	}

	unnamed := handshake(false)
	unnamed.ServerName = ""

	if _, err := a.Connect(context.Background(), dial(t, ts), unnamed, tlspolicy.Default()); neterr.CodeOf(err) != "net.tls.server_name_invalid" {
		t.Errorf("expected server_name_invalid, got %v", err)
	}
}
