package http1

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/HKHOP/Project-PixelDust-sub000/header"
	"github.com/HKHOP/Project-PixelDust-sub000/internal/drainbody"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/neterr"
)

const (
	DefaultMaxHeadBytes      = 128 * 1024
	DefaultMaxChunkLineBytes = 8 * 1024

	readChunkSize = 4096
)

var headTerminator = []byte("\r\n\r\n")

// Options bounds what Read accepts. Zero fields take the defaults;
// MaxBodyBytes zero means unbounded.
type Options struct {
	MaxHeadBytes      int
	MaxChunkLineBytes int
	MaxBodyBytes      int64
}

func (o Options) withDefaults() Options {
	if o.MaxHeadBytes <= 0 {
		o.MaxHeadBytes = DefaultMaxHeadBytes
	}

	if o.MaxChunkLineBytes <= 0 {
		o.MaxChunkLineBytes = DefaultMaxChunkLineBytes
	}

	return o
}

// Read parses one response to req from r and reports whether the
// connection is left at a message boundary and may be reused.
func Read(r io.Reader, req *Request, opts Options) (Result, error) {
	opts = opts.withDefaults()

	head, rest, err := readHead(r, opts.MaxHeadBytes)
	if err != nil {
		return Result{}, err
	}

	resp, err := parseHead(head)
	if err != nil {
		return Result{}, err
	}

	chunked, err := isChunked(resp.Headers)
	if err != nil {
		return Result{}, err
	}

	if req.Method == HEAD || !resp.Status.AllowsBody() {
		return Result{
			Response: resp,
			Reusable: len(rest) == 0 && keepAlive(req, resp),
		}, nil
	}

	body := &prefixedReader{prefix: rest, r: r}
	framed := true

	var raw []byte

	switch {
	case chunked:
		if raw, err = readChunked(body, opts); err != nil {
			return Result{}, err
		}
	default:
		length, err := contentLength(resp.Headers)
		if err != nil {
			return Result{}, err
		}

		switch {
		case length.IsSome():
			if raw, err = readExact(body, length.Some(), opts.MaxBodyBytes); err != nil {
				return Result{}, err
			}
		case resp.Headers.HasToken(header.CONNECTION, "close"):
			framed = false
			if raw, err = drainbody.Drain(nil, body, opts.MaxBodyBytes); err != nil {
				if errors.Is(err, drainbody.ErrTooLarge) {
					return Result{}, neterr.Wrap("net.http.body_too_large", "connection-close body exceeds the configured limit", err)
				}
				return Result{}, neterr.Wrap("net.http.read_body_failed", "failed while draining connection-close response body", err)
			}
		default:
			return Result{}, neterr.New("net.http.body_length_unknown",
				"response body length is unknown without Content-Length or Connection: close")
		}
	}

	if resp.Body, err = Decode(resp.Headers, raw, opts.MaxBodyBytes); err != nil {
		return Result{}, err
	}

	return Result{
		Response: resp,
		Reusable: framed && len(body.prefix) == 0 && keepAlive(req, resp),
	}, nil
}

// readHead reads until the blank line ending the head and returns the head
// without its terminator plus any bytes read past it.
func readHead(r io.Reader, limit int) ([]byte, []byte, error) {
	var (
		buf   []byte
		chunk = make([]byte, readChunkSize)
	)

	for {
		n, err := r.Read(chunk)
		if n > 0 {
			// rescan the tail of the previous read for a split terminator
			from := max(len(buf)-len(headTerminator)+1, 0)
			buf = append(buf, chunk[:n]...)

			if i := bytes.Index(buf[from:], headTerminator); i >= 0 {
				end := from + i
				if end+len(headTerminator) > limit {
					return nil, nil, headTooLarge(limit)
				}

				return buf[:end], bytes.Clone(buf[end+len(headTerminator):]), nil
			}

			if len(buf) > limit {
				return nil, nil, headTooLarge(limit)
			}
		}

		switch {
		case errors.Is(err, io.EOF):
			return nil, nil, neterr.New("net.http.unexpected_eof", "unexpected EOF before response head completed")
		case err != nil:
			return nil, nil, neterr.Wrap("net.http.read_head_failed", "failed while reading HTTP response head", err)
		}
	}
}

func headTooLarge(limit int) error {
	return neterr.Newf("net.http.head_too_large", "HTTP response head exceeds %d bytes", limit)
}

func parseHead(head []byte) (*Response, error) {
	if !utf8.Valid(head) {
		return nil, neterr.New("net.http.head_invalid_utf8", "HTTP response head is not valid UTF-8 text")
	}

	statusLine, fields, _ := strings.Cut(string(head), "\r\n")

	resp, err := parseStatusLine(statusLine)
	if err != nil {
		return nil, err
	}

	for line := range strings.SplitSeq(fields, "\r\n") {
		if line == "" {
			continue
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, neterr.Newf("net.http.header_invalid", "invalid HTTP header line %q", line)
		}

		h, err := header.New(strings.TrimSpace(name), strings.TrimSpace(value))
		if err != nil {
			return nil, err
		}

		resp.Headers = append(resp.Headers, h)
	}

	return resp, nil
}

func parseStatusLine(line string) (*Response, error) {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 {
		return nil, neterr.Newf("net.http.status_line_invalid", "malformed status line %q", line)
	}

	version, ok := ParseVersion(parts[0])
	if !ok {
		return nil, neterr.Newf("net.http.version_unsupported", "unsupported response version %q", parts[0])
	}

	code, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return nil, neterr.Wrap("net.http.status_line_invalid", "invalid status code "+strconv.Quote(parts[1]), err)
	}

	status, err := NewStatus(int(code))
	if err != nil {
		return nil, err
	}

	resp := &Response{Version: version, Status: status}
	if len(parts) == 3 {
		resp.Reason = parts[2]
	}

	return resp, nil
}

// isChunked accepts only "chunked" as a transfer coding.
func isChunked(headers header.Headers) (bool, error) {
	values := headers.Values(header.TRANSFER_ENCODING)
	if len(values) == 0 {
		return false, nil
	}

	for _, value := range values {
		for token := range strings.SplitSeq(value, ",") {
			if token = strings.TrimSpace(token); token != "" && !strings.EqualFold(token, "chunked") {
				return false, neterr.Newf("net.http.transfer_encoding_unsupported",
					"only chunked transfer encoding is supported, got %q", value)
			}
		}
	}

	return true, nil
}

// readExact grows the body as bytes arrive, so a hostile Content-Length
// costs nothing until the peer actually sends data.
func readExact(p *prefixedReader, length int64, limit int64) ([]byte, error) {
	if limit > 0 && length > limit {
		return nil, neterr.Newf("net.http.body_too_large", "Content-Length %d exceeds %d bytes", length, limit)
	}

	if int64(len(p.prefix)) >= length {
		body := bytes.Clone(p.prefix[:length])
		p.prefix = p.prefix[length:]

		return body, nil
	}

	var body bytes.Buffer
	if _, err := io.CopyN(&body, p, length); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, neterr.Wrap("net.http.read_body_failed", "failed while reading HTTP body bytes", err)
	}

	return body.Bytes(), nil
}

func keepAlive(req *Request, resp *Response) bool {
	if req.Headers.HasToken(header.CONNECTION, "close") || resp.Headers.HasToken(header.CONNECTION, "close") {
		return false
	}

	if resp.Version == HTTP10 {
		return resp.Headers.HasToken(header.CONNECTION, "keep-alive")
	}

	return true
}
