// Package httpcache is a bounded in-memory freshness cache keyed by final
// URL, with the validators needed for conditional revalidation.
package httpcache

import (
	"time"

	"github.com/enetx/g"

	"github.com/HKHOP/Project-PixelDust-sub000/header"
)

// DefaultCapacity bounds the number of cached URLs.
const DefaultCapacity = 256

// Kind classifies a lookup.
type Kind uint8

const (
	Miss Kind = iota
	Fresh
	Stale
)

func (k Kind) String() string {
	switch k {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "miss"
	}
}

// Entry is one cached response and its freshness metadata.
type Entry[R any] struct {
	Response     R
	ETag         g.Option[string]
	LastModified g.Option[string]
	MaxAge       g.Option[time.Duration]
	StoredAt     time.Time
}

// Lookup is the outcome of Cache.Lookup. ETag and LastModified are set only
// for Stale.
type Lookup[R any] struct {
	Kind         Kind
	Response     R
	ETag         g.Option[string]
	LastModified g.Option[string]
}

// Cache is not safe for concurrent use; callers hold their own lock.
type Cache[R any] struct {
	entries  map[string]*Entry[R]
	capacity int
	now      func() time.Time
}

// New returns a cache holding at most capacity entries. A nil now uses
// time.Now.
func New[R any](capacity int, now func() time.Time) *Cache[R] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	if now == nil {
		now = time.Now
	}

	return &Cache[R]{entries: make(map[string]*Entry[R]), capacity: capacity, now: now}
}

// Len returns the number of entries.
func (c *Cache[R]) Len() int { return len(c.entries) }

// Lookup is Fresh while the entry is younger than its max-age, Stale when it
// has expired but carries a validator, and Miss otherwise.
func (c *Cache[R]) Lookup(url string) Lookup[R] {
	entry, ok := c.entries[url]
	if !ok {
		return Lookup[R]{Kind: Miss}
	}

	if entry.MaxAge.IsSome() && c.now().Sub(entry.StoredAt) < entry.MaxAge.Some() {
		return Lookup[R]{Kind: Fresh, Response: entry.Response}
	}

	if entry.ETag.IsSome() || entry.LastModified.IsSome() {
		return Lookup[R]{
			Kind:         Stale,
			Response:     entry.Response,
			ETag:         entry.ETag,
			LastModified: entry.LastModified,
		}
	}

	return Lookup[R]{Kind: Miss}
}

// Store caches resp under url when status is 2xx, Cache-Control lacks
// no-store, and the response carries max-age, ETag or Last-Modified.
// It reports whether the response was stored.
func (c *Cache[R]) Store(url string, status int, headers header.Headers, resp R) bool {
	if status < 200 || status > 299 {
		return false
	}

	cc := ParseCacheControl(headers.Value(header.CACHE_CONTROL))
	if cc.Has("no-store") {
		return false
	}

	entry := &Entry[R]{
		Response:     resp,
		ETag:         headers.Get(header.ETAG),
		LastModified: headers.Get(header.LAST_MODIFIED),
		MaxAge:       cc.MaxAge(),
		StoredAt:     c.now(),
	}

	if entry.MaxAge.IsNone() && entry.ETag.IsNone() && entry.LastModified.IsNone() {
		return false
	}

	if _, ok := c.entries[url]; !ok && len(c.entries) >= c.capacity {
		c.evictOldest()
	}

	c.entries[url] = entry

	return true
}

// RefreshMetadata applies the headers of a 304 to the entry for url: no-store
// drops it, otherwise max-age, ETag and Last-Modified are updated when
// present and the entry is restamped.
func (c *Cache[R]) RefreshMetadata(url string, headers header.Headers) {
	cc := ParseCacheControl(headers.Value(header.CACHE_CONTROL))
	if cc.Has("no-store") {
		delete(c.entries, url)
		return
	}

	entry, ok := c.entries[url]
	if !ok {
		return
	}

	if maxAge := cc.MaxAge(); maxAge.IsSome() {
		entry.MaxAge = maxAge
	}

	if etag := headers.Get(header.ETAG); etag.IsSome() {
		entry.ETag = etag
	}

	if lm := headers.Get(header.LAST_MODIFIED); lm.IsSome() {
		entry.LastModified = lm
	}

	entry.StoredAt = c.now()
}

// Remove drops the entry for url.
func (c *Cache[R]) Remove(url string) { delete(c.entries, url) }

func (c *Cache[R]) evictOldest() {
	var (
		oldest string
		at     time.Time
		found  bool
	)

	for url, entry := range c.entries {
		if !found || entry.StoredAt.Before(at) {
			oldest, at, found = url, entry.StoredAt, true
		}
	}

	if found {
		delete(c.entries, oldest)
	}
}
