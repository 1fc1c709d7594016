package socks4_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/url"
	"testing"

	"github.com/HKHOP/Project-PixelDust-sub000/pkg/socks4"
	"golang.org/x/net/proxy"
)

// fakeProxy accepts one connection, records the request and answers with reply.
func fakeProxy(t *testing.T, reply byte) (string, <-chan []byte) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() { ln.Close() })

	got := make(chan []byte, 1)

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		buf := make([]byte, 512)
		n, _ := conn.Read(buf)
		got <- buf[:n]

		conn.Write([]byte{0, reply, 0, 0, 0, 0, 0, 0})
		if reply == 0x5a {
			io.Copy(conn, conn)
		}
	}()

	return ln.Addr().String(), got
}

func TestConnectGranted(t *testing.T) {
	t.Parallel()

	addr, got := fakeProxy(t, 0x5a)

	d, err := proxy.FromURL(&url.URL{Scheme: "socks4", Host: addr}, proxy.Direct)
	if err != nil {
		t.Fatal(err)
	}

	conn, err := d.(proxy.ContextDialer).DialContext(context.Background(), "tcp", "10.1.2.3:8080")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	req := <-got
	want := append([]byte{4, 1, 0x1f, 0x90, 10, 1, 2, 3}, append([]byte(socks4.Ident), 0)...)
	if !bytes.Equal(req, want) {
		t.Errorf("request = %v, want %v", req, want)
	}

	if _, err := conn.Write([]byte("ping")); err != nil {
		t.Fatal(err)
	}

	echo := make([]byte, 4)
	if _, err := io.ReadFull(conn, echo); err != nil || string(echo) != "ping" {
		t.Errorf("echo = %q, %v", echo, err)
	}
}

func TestConnect4aSendsHostName(t *testing.T) {
	t.Parallel()

	addr, got := fakeProxy(t, 0x5a)

	d, err := socks4.New(&url.URL{Scheme: "socks4a", Host: addr}, nil)
	if err != nil {
		t.Fatal(err)
	}

	conn, err := d.Dial("tcp", "example.test:80")
	if err != nil {
		t.Fatal(err)
	}
	conn.Close()

	req := <-got
	if req[4] != 0 || req[5] != 0 || req[6] != 0 || req[7] != 1 {
		t.Errorf("expected 0.0.0.1 marker, got %v", req[4:8])
	}

	if !bytes.HasSuffix(req, []byte("example.test\x00")) {
		t.Errorf("request does not carry host name: %q", req)
	}
}

func TestConnectRejected(t *testing.T) {
	t.Parallel()

	addr, _ := fakeProxy(t, 0x5b)

	d, err := socks4.New(&url.URL{Scheme: "socks4", Host: addr}, nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = d.Dial("tcp", "10.0.0.1:80")
	if !errors.Is(err, socks4.ErrRejected) {
		t.Errorf("expected ErrRejected, got %v", err)
	}
}

func TestDialValidation(t *testing.T) {
	t.Parallel()

	if _, err := socks4.New(&url.URL{Scheme: "socks4"}, nil); err == nil {
		t.Error("expected error for missing host")
	}

	d, err := socks4.New(&url.URL{Scheme: "socks4", Host: "127.0.0.1:1"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := d.Dial("udp", "10.0.0.1:53"); !errors.Is(err, socks4.ErrWrongNetwork) {
		t.Errorf("expected ErrWrongNetwork, got %v", err)
	}

	if _, err := d.Dial("tcp", "[::1]:80"); err == nil {
		t.Error("expected IPv6 target to be rejected")
	}
}
