package pixeldust

import (
	"sync"
	"time"

	"github.com/HKHOP/Project-PixelDust-sub000/header"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/cookies"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/httpcache"
)

// Session is the cache and cookie jar shared by every navigation of a
// Fetcher, guarded by one mutex. Critical sections never perform I/O and
// never nest. A panic inside one still releases the lock through the
// deferred unlock; whatever state it left behind is kept, since cache and
// cookie contents are best-effort.
type Session struct {
	mu    sync.Mutex
	cache *httpcache.Cache[*FetchedResponse]
	jar   *cookies.Jar
}

// NewSession returns an empty session. A nil now uses time.Now.
func NewSession(cacheCapacity, maxCookieDomains, maxCookiesPerDomain int, now func() time.Time) *Session {
	return &Session{
		cache: httpcache.New[*FetchedResponse](cacheCapacity, now),
		jar:   cookies.NewJar(maxCookieDomains, maxCookiesPerDomain),
	}
}

func (s *Session) lookup(url string) httpcache.Lookup[*FetchedResponse] {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cache.Lookup(url)
}

func (s *Session) store(resp *FetchedResponse) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cache.Store(resp.FinalURL, resp.Status, resp.Headers, resp)
}

func (s *Session) refresh(url string, headers header.Headers) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.RefreshMetadata(url, headers)
}

func (s *Session) storeCookies(host string, headers header.Headers) {
	if !headers.Has(header.SET_COOKIE) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.jar.StoreFromResponse(host, headers)
}

// CookieHeader returns the Cookie header value the jar would send to host.
func (s *Session) CookieHeader(host string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.jar.HeaderFor(host)
}

// MergeCookies folds a document.cookie snapshot taken on host into the jar.
func (s *Session) MergeCookies(host, snapshot string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jar.MergeSnapshot(host, snapshot)
}

// SetCookie stores one cookie directly.
func (s *Session) SetCookie(domain, name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jar.Set(domain, name, value)
}

// CacheLen returns the number of cached responses.
func (s *Session) CacheLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cache.Len()
}

// CookieLen returns the number of stored cookies.
func (s *Session) CookieLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.jar.Len()
}
