package dns_test

import (
	"context"
	"net/netip"
	"testing"

	"github.com/HKHOP/Project-PixelDust-sub000/pkg/dns"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/neterr"
)

func TestSystemResolvesLiterals(t *testing.T) {
	t.Parallel()

	addrs, err := dns.NewSystem().Resolve(context.Background(), "127.0.0.1", 8080)
	if err != nil {
		t.Fatal(err)
	}

	if len(addrs) != 1 || addrs[0].String() != "127.0.0.1:8080" {
		t.Errorf("got %v", addrs)
	}

	addrs, err = dns.NewSystem().Resolve(context.Background(), "::1", 443)
	if err != nil {
		t.Fatal(err)
	}

	if addrs[0].String() != "[::1]:443" {
		t.Errorf("got %v", addrs)
	}
}

func TestSystemResolvesLocalhost(t *testing.T) {
	t.Parallel()

	addrs, err := dns.NewSystem().Resolve(context.Background(), "localhost", 80)
	if err != nil {
		t.Skipf("localhost lookup unavailable: %v", err)
	}

	for _, a := range addrs {
		if !a.Addr().IsLoopback() {
			t.Errorf("unexpected non-loopback address %v", a)
		}
	}
}

func TestNewServerValidation(t *testing.T) {
	t.Parallel()

	for _, addr := range []string{"", "1.1.1.1", ":53", "1.1.1.1:0", "1.1.1.1:70000", "1.1.1.1:dns"} {
		if _, err := dns.NewServer(addr); !neterr.HasCode(err, "config.dns_invalid") {
			t.Errorf("%q: err = %v, want config.dns_invalid", addr, err)
		}
	}

	if _, err := dns.NewServer("1.1.1.1:53"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestStatic(t *testing.T) {
	t.Parallel()

	table := dns.Static{
		"example.test": {netip.MustParseAddr("10.0.0.1"), netip.MustParseAddr("10.0.0.2")},
		"empty.test":   {},
	}

	addrs, err := table.Resolve(context.Background(), "example.test", 443)
	if err != nil {
		t.Fatal(err)
	}

	if len(addrs) != 2 || addrs[1].String() != "10.0.0.2:443" {
		t.Errorf("got %v", addrs)
	}

	if _, err := table.Resolve(context.Background(), "empty.test", 80); neterr.CodeOf(err) != "net.dns.no_results" {
		t.Errorf("expected no_results, got %v", err)
	}

	if _, err := table.Resolve(context.Background(), "missing.test", 80); neterr.CodeOf(err) != "net.dns.resolve_failed" {
		t.Errorf("expected resolve_failed, got %v", err)
	}
}
