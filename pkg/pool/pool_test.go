package pool_test

import (
	"net"
	"testing"

	"github.com/HKHOP/Project-PixelDust-sub000/pkg/browserurl"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/pool"
)

type fakeConn struct {
	net.Conn
	id     int
	closed bool
}

func (c *fakeConn) Close() error { c.closed = true; return nil }

func key(t *testing.T, raw string) pool.Key {
	t.Helper()

	u, err := browserurl.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}

	return pool.KeyFor(u)
}

func TestCheckoutIsFIFO(t *testing.T) {
	t.Parallel()

	p := pool.NewMemory(4)
	k := key(t, "https://example.com/")

	for i := 1; i <= 3; i++ {
		p.Checkin(k, &fakeConn{id: i})
	}

	for want := 1; want <= 3; want++ {
		got := p.Checkout(k)
		if got.IsNone() {
			t.Fatalf("expected connection %d", want)
		}

		if id := got.Some().(*fakeConn).id; id != want {
			t.Errorf("checkout order: got %d, want %d", id, want)
		}
	}

	if p.Checkout(k).IsSome() {
		t.Error("expected empty pool")
	}

	if s := p.Stats(); s.Keys != 0 || s.IdleConnections != 0 {
		t.Errorf("stats after drain = %+v", s)
	}
}

func TestCheckinDropsPastCap(t *testing.T) {
	t.Parallel()

	p := pool.NewMemory(2)
	k := key(t, "http://example.com/")

	conns := []*fakeConn{{id: 1}, {id: 2}, {id: 3}}
	for _, c := range conns {
		p.Checkin(k, c)
	}

	if s := p.Stats(); s.IdleConnections != 2 || s.Keys != 1 {
		t.Errorf("stats = %+v", s)
	}

	if !conns[2].closed {
		t.Error("overflow connection must be closed")
	}

	if conns[0].closed || conns[1].closed {
		t.Error("pooled connections must stay open")
	}
}

func TestKeysSeparateOrigins(t *testing.T) {
	t.Parallel()

	p := pool.NewMemory(0)

	a := key(t, "https://example.com/")
	b := key(t, "http://example.com/")
	c := key(t, "https://example.com:8443/")

	if a == b || a == c {
		t.Fatal("scheme and port must be part of the key")
	}

	if a != key(t, "https://EXAMPLE.com:443/other") {
		t.Error("equivalent URLs must share a key")
	}

	p.Checkin(a, &fakeConn{})
	p.Checkin(b, &fakeConn{})
	p.Checkin(c, &fakeConn{})
	p.Checkin(c, &fakeConn{})

	if s := p.Stats(); s.Keys != 3 || s.IdleConnections != 4 {
		t.Errorf("stats = %+v", s)
	}

	if a.String() != "https://example.com:443" {
		t.Errorf("key string = %q", a.String())
	}
}

func TestClearClosesConnections(t *testing.T) {
	t.Parallel()

	p := pool.NewMemory(8)
	k := key(t, "https://example.com/")

	conn := &fakeConn{}
	p.Checkin(k, conn)
	p.Clear()

	if !conn.closed {
		t.Error("Clear must close idle connections")
	}

	if s := p.Stats(); s.Keys != 0 {
		t.Errorf("stats after clear = %+v", s)
	}
}
