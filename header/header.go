// Package header holds HTTP header names used by the network core together
// with the validated Header pair and the ordered Headers list.
package header

import (
	"strings"

	"github.com/HKHOP/Project-PixelDust-sub000/pkg/neterr"
	"github.com/enetx/g"
)

// Header names as they are written on the wire. Lookups are case-insensitive.
const (
	ACCEPT                    = "Accept"
	ACCEPT_ENCODING           = "Accept-Encoding"
	ACCEPT_LANGUAGE           = "Accept-Language"
	CACHE_CONTROL             = "Cache-Control"
	CONNECTION                = "Connection"
	CONTENT_ENCODING          = "Content-Encoding"
	CONTENT_LENGTH            = "Content-Length"
	CONTENT_TYPE              = "Content-Type"
	COOKIE                    = "Cookie"
	DNT                       = "DNT"
	ETAG                      = "ETag"
	HOST                      = "Host"
	IF_MODIFIED_SINCE         = "If-Modified-Since"
	IF_NONE_MATCH             = "If-None-Match"
	LAST_MODIFIED             = "Last-Modified"
	LOCATION                  = "Location"
	SEC_FETCH_DEST            = "Sec-Fetch-Dest"
	SEC_FETCH_MODE            = "Sec-Fetch-Mode"
	SEC_FETCH_SITE            = "Sec-Fetch-Site"
	SEC_FETCH_USER            = "Sec-Fetch-User"
	SET_COOKIE                = "Set-Cookie"
	TRANSFER_ENCODING         = "Transfer-Encoding"
	UPGRADE_INSECURE_REQUESTS = "Upgrade-Insecure-Requests"
	USER_AGENT                = "User-Agent"
)

// Header is a single name/value pair that is safe to serialize.
type Header struct {
	Name  string
	Value string
}

// New validates name and value and returns the pair.
// The name must be an RFC 7230 token; the value must not contain CR, LF or NUL.
func New(name, value string) (Header, error) {
	if !ValidName(name) {
		return Header{}, neterr.Newf("net.http.header_name_invalid", "invalid HTTP header name %q", name)
	}

	if !ValidValue(value) {
		return Header{}, neterr.Newf("net.http.header_value_invalid", "invalid characters found in HTTP header %q", name)
	}

	return Header{Name: name, Value: value}, nil
}

// ValidName reports whether name is a non-empty HTTP token.
func ValidName(name string) bool {
	if name == "" {
		return false
	}

	for i := range len(name) {
		if !isTokenByte(name[i]) {
			return false
		}
	}

	return true
}

// ValidValue reports whether value is free of CR, LF and NUL.
func ValidValue(value string) bool { return !strings.ContainsAny(value, "\r\n\x00") }

func isTokenByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}

	return strings.IndexByte("!#$%&'*+-.^_`|~", c) >= 0
}

// Headers is an ordered header list. Duplicates are allowed and order is preserved.
type Headers []Header

// Get returns the first value for name.
func (hs Headers) Get(name string) g.Option[string] {
	for _, h := range hs {
		if strings.EqualFold(h.Name, name) {
			return g.Some(h.Value)
		}
	}

	return g.None[string]()
}

// Value returns the first value for name or "" when absent.
func (hs Headers) Value(name string) string { return hs.Get(name).UnwrapOr("") }

// Values returns every value for name in order.
func (hs Headers) Values(name string) []string {
	var out []string

	for _, h := range hs {
		if strings.EqualFold(h.Name, name) {
			out = append(out, h.Value)
		}
	}

	return out
}

// Has reports whether at least one header named name is present.
func (hs Headers) Has(name string) bool { return hs.Count(name) > 0 }

// Count returns the number of headers named name.
func (hs Headers) Count(name string) int {
	n := 0

	for _, h := range hs {
		if strings.EqualFold(h.Name, name) {
			n++
		}
	}

	return n
}

// HasToken reports whether any header named name lists token in its
// comma-separated value, compared case-insensitively.
func (hs Headers) HasToken(name, token string) bool {
	for _, h := range hs {
		if !strings.EqualFold(h.Name, name) {
			continue
		}

		for part := range strings.SplitSeq(h.Value, ",") {
			if strings.EqualFold(strings.TrimSpace(part), token) {
				return true
			}
		}
	}

	return false
}

// Del returns the list without any header named name.
func (hs Headers) Del(name string) Headers {
	out := hs[:0:0]

	for _, h := range hs {
		if !strings.EqualFold(h.Name, name) {
			out = append(out, h)
		}
	}

	return out
}

// Clone returns a copy that does not share storage with hs.
func (hs Headers) Clone() Headers {
	if hs == nil {
		return nil
	}

	return append(Headers(nil), hs...)
}
