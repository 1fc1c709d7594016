package pixeldust

import (
	"github.com/HKHOP/Project-PixelDust-sub000/header"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/browserurl"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/http1"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/httpcache"
)

// Hop is one request of a redirect chain, handed to the request middleware
// before it is sent.
type Hop struct {
	ID      string // shared by every hop of one fetch
	URL     *browserurl.URL
	Request *http1.Request
	Cached  httpcache.Lookup[*FetchedResponse]
	session *Session
}

// SetHeader replaces every header named name with a single value.
func (h *Hop) SetHeader(name, value string) error {
	req, err := h.Request.Replace(name, value)
	if err != nil {
		return err
	}

	h.Request = req

	return nil
}

// AddHeader appends a header.
func (h *Hop) AddHeader(name, value string) error {
	req, err := h.Request.Add(name, value)
	if err != nil {
		return err
	}

	h.Request = req

	return nil
}

// cookieMW replaces any Cookie header with the jar's cookies for the hop's
// host, so a header from an earlier origin never leaks across a redirect.
func cookieMW(h *Hop) error {
	value := h.session.CookieHeader(h.URL.Host())

	if !h.Request.Headers.Has(header.COOKIE) && value == "" {
		return nil
	}

	out := *h.Request
	out.Headers = h.Request.Headers.Del(header.COOKIE)
	h.Request = &out

	if value == "" {
		return nil
	}

	return h.AddHeader(header.COOKIE, value)
}

// conditionalMW attaches the validators of a stale cache entry.
func conditionalMW(h *Hop) error {
	if h.Cached.Kind != httpcache.Stale {
		return nil
	}

	if etag := h.Cached.ETag; etag.IsSome() {
		if err := h.AddHeader(header.IF_NONE_MATCH, etag.Some()); err != nil {
			return err
		}
	}

	if lm := h.Cached.LastModified; lm.IsSome() {
		if err := h.AddHeader(header.IF_MODIFIED_SINCE, lm.Some()); err != nil {
			return err
		}
	}

	return nil
}
