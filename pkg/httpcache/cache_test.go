package httpcache_test

import (
	"testing"
	"time"

	"github.com/HKHOP/Project-PixelDust-sub000/header"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/httpcache"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newCache(capacity int) (*httpcache.Cache[string], *clock) {
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return httpcache.New[string](capacity, c.now), c
}

func hdrs(kv ...string) header.Headers {
	var hs header.Headers
	for i := 0; i+1 < len(kv); i += 2 {
		hs = append(hs, header.Header{Name: kv[i], Value: kv[i+1]})
	}
	return hs
}

func TestFreshThenStale(t *testing.T) {
	t.Parallel()

	cache, clk := newCache(0)

	if !cache.Store("https://a.test/", 200, hdrs("Cache-Control", "max-age=60", "ETag", `"v1"`), "body") {
		t.Fatal("expected store")
	}

	l := cache.Lookup("https://a.test/")
	if l.Kind != httpcache.Fresh || l.Response != "body" {
		t.Fatalf("lookup = %v %q, want fresh", l.Kind, l.Response)
	}

	clk.advance(61 * time.Second)

	l = cache.Lookup("https://a.test/")
	if l.Kind != httpcache.Stale {
		t.Fatalf("lookup = %v, want stale", l.Kind)
	}

	if l.ETag.UnwrapOr("") != `"v1"` || l.LastModified.IsSome() {
		t.Errorf("validators = %v %v", l.ETag, l.LastModified)
	}
}

func TestExpiredWithoutValidatorIsMiss(t *testing.T) {
	t.Parallel()

	cache, clk := newCache(0)
	cache.Store("u", 200, hdrs("Cache-Control", "max-age=1"), "x")

	clk.advance(time.Second)

	if kind := cache.Lookup("u").Kind; kind != httpcache.Miss {
		t.Errorf("kind = %v, want miss", kind)
	}
}

func TestStoreRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		headers header.Headers
		stored  bool
	}{
		{"max-age", 200, hdrs("Cache-Control", "public, MAX-AGE=\"30\""), true},
		{"etag only", 200, hdrs("ETag", `"e"`), true},
		{"last-modified only", 204, hdrs("Last-Modified", "Mon, 01 Jan 2024 00:00:00 GMT"), true},
		{"no validators", 200, hdrs("Content-Type", "text/html"), false},
		{"no-store", 200, hdrs("Cache-Control", "max-age=60, No-Store"), false},
		{"not success", 404, hdrs("Cache-Control", "max-age=60"), false},
		{"redirect", 301, hdrs("ETag", `"e"`), false},
		{"bad max-age", 200, hdrs("Cache-Control", "max-age=-5"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cache, _ := newCache(0)
			if got := cache.Store("u", tt.status, tt.headers, "x"); got != tt.stored {
				t.Errorf("Store = %v, want %v", got, tt.stored)
			}

			if (cache.Len() == 1) != tt.stored {
				t.Errorf("Len = %d", cache.Len())
			}
		})
	}
}

func TestEvictsOldest(t *testing.T) {
	t.Parallel()

	cache, clk := newCache(2)

	cache.Store("a", 200, hdrs("ETag", "1"), "a")
	clk.advance(time.Second)
	cache.Store("b", 200, hdrs("ETag", "2"), "b")
	clk.advance(time.Second)
	cache.Store("c", 200, hdrs("ETag", "3"), "c")

	if cache.Len() != 2 {
		t.Fatalf("Len = %d, want 2", cache.Len())
	}

	if cache.Lookup("a").Kind != httpcache.Miss {
		t.Error("oldest entry should have been evicted")
	}

	if cache.Lookup("c").Kind != httpcache.Stale {
		t.Error("newest entry should be present")
	}
}

func TestRefreshMetadata(t *testing.T) {
	t.Parallel()

	cache, clk := newCache(0)
	cache.Store("u", 200, hdrs("Cache-Control", "max-age=10", "ETag", `"v1"`), "cached")

	clk.advance(20 * time.Second)
	cache.RefreshMetadata("u", hdrs("Cache-Control", "max-age=100", "ETag", `"v2"`, "Last-Modified", "yesterday"))

	l := cache.Lookup("u")
	if l.Kind != httpcache.Fresh || l.Response != "cached" {
		t.Fatalf("lookup = %v %q, want fresh cached", l.Kind, l.Response)
	}

	clk.advance(200 * time.Second)

	l = cache.Lookup("u")
	if l.ETag.UnwrapOr("") != `"v2"` || l.LastModified.UnwrapOr("") != "yesterday" {
		t.Errorf("validators = %v %v", l.ETag, l.LastModified)
	}

	cache.RefreshMetadata("u", hdrs("Cache-Control", "no-store"))
	if cache.Len() != 0 {
		t.Error("no-store on revalidation should drop the entry")
	}
}

func TestCacheControlHelpers(t *testing.T) {
	t.Parallel()

	if !httpcache.HasDirective("private, no-cache", "NO-CACHE") {
		t.Error("HasDirective should match case-insensitively")
	}

	if httpcache.HasDirective("no-cache-ish", "no-cache") {
		t.Error("HasDirective must match whole tokens")
	}

	if d := httpcache.MaxAge(`max-age="120"`); d.UnwrapOr(0) != 2*time.Minute {
		t.Errorf("MaxAge = %v", d)
	}

	if httpcache.MaxAge("max-age=abc").IsSome() {
		t.Error("non-numeric max-age should be ignored")
	}
}
