// Package drainbody reads a stream to EOF into memory behind an optional cap.
package drainbody

import (
	"bytes"
	"errors"
	"io"
	"sync"
)

// ErrTooLarge is returned when the stream exceeds the cap.
var ErrTooLarge = errors.New("drainbody: body exceeds limit")

var bufferPool = sync.Pool{New: func() any { return new(bytes.Buffer) }}

// Drain returns prefix followed by everything read from r until EOF.
// A positive limit bounds the total length; zero means unbounded.
func Drain(prefix []byte, r io.Reader, limit int64) ([]byte, error) {
	if limit > 0 && int64(len(prefix)) > limit {
		return nil, ErrTooLarge
	}

	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	buf.Write(prefix)

	src := r
	if limit > 0 {
		// one extra byte distinguishes "exactly limit" from "over limit"
		src = io.LimitReader(r, limit-int64(len(prefix))+1)
	}

	if _, err := buf.ReadFrom(src); err != nil {
		return nil, err
	}

	if limit > 0 && int64(buf.Len()) > limit {
		return nil, ErrTooLarge
	}

	return bytes.Clone(buf.Bytes()), nil
}
