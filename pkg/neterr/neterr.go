// Package neterr defines the coded error type shared by the network core.
// Codes follow the "domain.area.reason" form, e.g. "net.http.chunk_size_invalid".
package neterr

import (
	"errors"
	"fmt"
)

// Error is a failure carrying a stable machine-readable code and a human message.
type Error struct {
	Code string // Stable identifier, e.g. "net.tls.https_only"
	Msg  string // Human readable description
	Err  error  // Underlying cause, if any
}

// New returns an error with the given code and message.
func New(code, msg string) *Error { return &Error{Code: code, Msg: msg} }

// Newf is like New but formats the message.
func Newf(code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Wrap returns an error with the given code whose message is suffixed by the cause.
func Wrap(code, msg string, err error) *Error { return &Error{Code: code, Msg: msg, Err: err} }

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	return t.Code == e.Code
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ""
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code string) bool { return errors.Is(err, &Error{Code: code}) }
