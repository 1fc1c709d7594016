// Package http1 is the HTTP/1.1 wire codec: the request model and its
// serializer, and the response reader with chunked transfer decoding,
// content decoding and keep-alive detection.
package http1

import (
	"strconv"

	"github.com/HKHOP/Project-PixelDust-sub000/header"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/browserurl"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/neterr"
)

// Method is an outbound request method.
type Method string

const (
	GET     Method = "GET"
	HEAD    Method = "HEAD"
	POST    Method = "POST"
	PUT     Method = "PUT"
	PATCH   Method = "PATCH"
	DELETE  Method = "DELETE"
	OPTIONS Method = "OPTIONS"
)

// Version is an HTTP protocol version token.
type Version uint8

const (
	HTTP10 Version = iota + 1
	HTTP11
	HTTP2 // only ever seen as a status-line token
)

func (v Version) String() string {
	switch v {
	case HTTP10:
		return "HTTP/1.0"
	case HTTP11:
		return "HTTP/1.1"
	case HTTP2:
		return "HTTP/2"
	default:
		return "HTTP/?"
	}
}

// ParseVersion recognizes HTTP/1.0, HTTP/1.1 and HTTP/2.
func ParseVersion(s string) (Version, bool) {
	switch s {
	case "HTTP/1.0":
		return HTTP10, true
	case "HTTP/1.1":
		return HTTP11, true
	case "HTTP/2":
		return HTTP2, true
	default:
		return 0, false
	}
}

// Request is an immutable outgoing request. Use NewBuilder to create one.
type Request struct {
	Method  Method
	URL     *browserurl.URL
	Version Version
	Headers header.Headers
	Body    []byte
}

// Target returns the request-target written on the request line.
func (r *Request) Target() string { return r.URL.PathAndQuery() }

// Header returns the first value of the named header, or "".
func (r *Request) Header(name string) string { return r.Headers.Value(name) }

// Replace returns a copy of r in which every header named name is replaced
// by a single header with value.
func (r *Request) Replace(name, value string) (*Request, error) {
	h, err := header.New(name, value)
	if err != nil {
		return nil, err
	}

	out := *r
	out.Headers = append(r.Headers.Del(name), h)

	return &out, nil
}

// Add returns a copy of r with one more header.
func (r *Request) Add(name, value string) (*Request, error) {
	h, err := header.New(name, value)
	if err != nil {
		return nil, err
	}

	out := *r
	out.Headers = append(r.Headers.Clone(), h)

	return &out, nil
}

// Builder assembles a Request. The first error is kept and reported by Build.
type Builder struct {
	method  Method
	url     *browserurl.URL
	version Version
	headers header.Headers
	body    []byte
	err     error
}

// NewBuilder starts an HTTP/1.1 request.
func NewBuilder(method Method, u *browserurl.URL) *Builder {
	return &Builder{method: method, url: u, version: HTTP11}
}

// Version sets the protocol version.
func (b *Builder) Version(v Version) *Builder {
	b.version = v
	return b
}

// Header appends a validated header.
func (b *Builder) Header(name, value string) *Builder {
	if b.err != nil {
		return b
	}

	h, err := header.New(name, value)
	if err != nil {
		b.err = err
		return b
	}

	b.headers = append(b.headers, h)

	return b
}

// Body sets the request body.
func (b *Builder) Body(body []byte) *Builder {
	b.body = body
	return b
}

// Build validates the request and inserts Host and Content-Length when missing.
func (b *Builder) Build() (*Request, error) {
	if b.err != nil {
		return nil, b.err
	}

	if (b.method == GET || b.method == HEAD) && len(b.body) > 0 {
		return nil, neterr.Newf("net.http.body_disallowed", "%s requests must not include a body", b.method)
	}

	for _, name := range []string{header.HOST, header.CONTENT_LENGTH} {
		if b.headers.Count(name) > 1 {
			return nil, neterr.Newf("net.http.duplicate_header", "header %q must not appear more than once", name)
		}
	}

	headers := b.headers.Clone()

	if !headers.Has(header.HOST) {
		h, err := header.New(header.HOST, b.url.Authority())
		if err != nil {
			return nil, err
		}
		headers = append(headers, h)
	}

	if len(b.body) > 0 && !headers.Has(header.CONTENT_LENGTH) {
		headers = append(headers, header.Header{Name: header.CONTENT_LENGTH, Value: strconv.Itoa(len(b.body))})
	}

	return &Request{
		Method:  b.method,
		URL:     b.url,
		Version: b.version,
		Headers: headers,
		Body:    b.body,
	}, nil
}
