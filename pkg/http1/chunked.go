package http1

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/HKHOP/Project-PixelDust-sub000/pkg/neterr"
)

const lineReadSize = 512

// prefixedReader serves bytes buffered while reading the head before
// touching the stream.
type prefixedReader struct {
	prefix []byte
	r      io.Reader
}

func (p *prefixedReader) Read(b []byte) (int, error) {
	if len(p.prefix) > 0 {
		n := copy(b, p.prefix)
		p.prefix = p.prefix[n:]
		return n, nil
	}

	return p.r.Read(b)
}

func (p *prefixedReader) readFull(b []byte, what string) error {
	if _, err := io.ReadFull(p, b); err != nil {
		return neterr.Wrap("net.http.read_body_failed", "failed while reading "+what, err)
	}

	return nil
}

// readChunked decodes a chunked body. Bytes read past a metadata line stay in
// the prefix, so anything past the final CRLF marks the stream as dirty.
func readChunked(p *prefixedReader, opts Options) ([]byte, error) {
	var body bytes.Buffer

	for {
		line, err := readCRLFLine(p, opts.MaxChunkLineBytes)
		if err != nil {
			return nil, err
		}

		if line == "" {
			continue
		}

		token, _, _ := strings.Cut(line, ";")
		token = strings.TrimSpace(token)

		size, err := strconv.ParseUint(token, 16, 63)
		if err != nil {
			return nil, neterr.Wrap("net.http.chunk_size_invalid", "invalid chunk size "+strconv.Quote(token), err)
		}

		if size == 0 {
			return body.Bytes(), drainTrailers(p, opts.MaxChunkLineBytes)
		}

		if opts.MaxBodyBytes > 0 && int64(body.Len())+int64(size) > opts.MaxBodyBytes {
			return nil, neterr.Newf("net.http.body_too_large", "chunked body exceeds %d bytes", opts.MaxBodyBytes)
		}

		if _, err := io.CopyN(&body, p, int64(size)); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, neterr.Wrap("net.http.read_body_failed", "failed while reading chunked HTTP body bytes", err)
		}

		var crlf [2]byte
		if err := p.readFull(crlf[:], "chunk terminator"); err != nil {
			return nil, err
		}

		if crlf != [2]byte{'\r', '\n'} {
			return nil, neterr.New("net.http.chunk_terminator_invalid", "chunk data is missing trailing CRLF")
		}
	}
}

func drainTrailers(p *prefixedReader, limit int) error {
	for {
		line, err := readCRLFLine(p, limit)
		if err != nil {
			return err
		}

		if line == "" {
			return nil
		}

		if !strings.Contains(line, ":") {
			return neterr.Newf("net.http.chunk_trailer_invalid", "invalid chunk trailer line %q", line)
		}
	}
}

// readCRLFLine returns the next CRLF-terminated line. It reads the stream in
// small batches and keeps whatever follows the line in p.prefix.
func readCRLFLine(p *prefixedReader, limit int) (string, error) {
	var line []byte

	for {
		if i := bytes.IndexByte(p.prefix, '\n'); i >= 0 {
			line = append(line, p.prefix[:i+1]...)
			p.prefix = p.prefix[i+1:]
		} else {
			line = append(line, p.prefix...)
			p.prefix = nil
		}

		if len(line) > limit {
			return "", neterr.Newf("net.http.chunk_line_too_large", "chunk metadata line exceeds %d bytes", limit)
		}

		if n := len(line); n >= 2 && line[n-2] == '\r' && line[n-1] == '\n' {
			line = line[:n-2]
			if !utf8.Valid(line) {
				return "", neterr.New("net.http.chunk_line_invalid_utf8", "chunk metadata line is not valid UTF-8")
			}

			return string(line), nil
		}

		if len(p.prefix) > 0 {
			continue
		}

		if err := p.fill(); err != nil {
			return "", err
		}
	}
}

// fill reads one batch from the stream into the empty prefix.
func (p *prefixedReader) fill() error {
	buf := make([]byte, lineReadSize)

	for {
		n, err := p.r.Read(buf)
		if n > 0 {
			p.prefix = buf[:n]
			return nil
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return neterr.Wrap("net.http.read_body_failed", "failed while reading chunked transfer line", err)
		}
	}
}
