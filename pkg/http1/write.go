package http1

import (
	"bytes"
	"io"
	"sync"

	"github.com/HKHOP/Project-PixelDust-sub000/pkg/neterr"
)

var writeBufferPool = sync.Pool{New: func() any { return new(bytes.Buffer) }}

type flusher interface{ Flush() error }

// Write serializes req onto w with a single write, then flushes w when it
// buffers.
func Write(w io.Writer, req *Request) error {
	buf := writeBufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer writeBufferPool.Put(buf)

	buf.WriteString(string(req.Method))
	buf.WriteByte(' ')
	buf.WriteString(req.Target())
	buf.WriteByte(' ')
	buf.WriteString(req.Version.String())
	buf.WriteString("\r\n")

	for _, h := range req.Headers {
		buf.WriteString(h.Name)
		buf.WriteString(": ")
		buf.WriteString(h.Value)
		buf.WriteString("\r\n")
	}

	buf.WriteString("\r\n")
	buf.Write(req.Body)

	if _, err := w.Write(buf.Bytes()); err != nil {
		return neterr.Wrap("net.http.write_failed", "failed to write HTTP request bytes", err)
	}

	if f, ok := w.(flusher); ok {
		if err := f.Flush(); err != nil {
			return neterr.Wrap("net.http.flush_failed", "failed to flush HTTP request bytes", err)
		}
	}

	return nil
}
