package socks4

import (
	"errors"
	"fmt"
)

var (
	// ErrWrongNetwork is returned for networks other than tcp and tcp4.
	ErrWrongNetwork = errors.New("network should be tcp or tcp4")
	// ErrRejected means the proxy refused the connection.
	ErrRejected = errors.New("connection to remote host was rejected")
	// ErrIdentRequired means the proxy wants a valid identd answer.
	ErrIdentRequired = errors.New("valid ident required")

	errMissingHost = errors.New("proxy URL has no host")
	errIPv6        = errors.New("socks4 cannot address IPv6 targets")
)

// ReplyError is an unknown reply code from the proxy.
type ReplyError byte

func (e ReplyError) Error() string { return fmt.Sprintf("unknown socks4 reply 0x%02x", byte(e)) }

// Error records the failing step of a SOCKS4 exchange.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("socks4 %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }
