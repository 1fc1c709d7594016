package pixeldust

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/HKHOP/Project-PixelDust-sub000/header"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/browserurl"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/http1"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/httpcache"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/neterr"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/policy"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/tlspolicy"
)

// Fetcher follows redirect chains through the cache, the cookie jar and the
// client. It is safe for concurrent use.
type Fetcher struct {
	client   *Client
	session  *Session
	tls      tlspolicy.Policy
	privacy  policy.Privacy
	security policy.Security
	hopMWs   *middleware[*Hop]
	flight   singleflight.Group
	log      zerolog.Logger

	maxRedirects            int
	maxSubresourceRedirects int
}

// Fetch loads rawURL, following at most maxRedirects redirects. Concurrent
// calls for the same URL and budget share one network fetch. Cancelling ctx
// abandons the wait; the shared fetch keeps running for the other callers.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, maxRedirects int) (*FetchedResponse, error) {
	key := strconv.Itoa(maxRedirects) + " " + rawURL
	detached := context.WithoutCancel(ctx)

	ch := f.flight.DoChan(key, func() (any, error) {
		return f.fetch(detached, rawURL, maxRedirects)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}

		if res.Shared {
			f.log.Debug().Str("url", rawURL).Msg("joined in-flight fetch")
		}

		return res.Val.(*FetchedResponse), nil
	}
}

// Navigate loads a top-level document with the default redirect budget.
func (f *Fetcher) Navigate(ctx context.Context, rawURL string) (*FetchedResponse, error) {
	return f.Fetch(ctx, rawURL, f.maxRedirects)
}

// FetchSubresource loads rawURL on behalf of the document at documentURL.
// Tracker hosts and https-to-http downgrades are refused with
// net.policy.subresource_blocked.
func (f *Fetcher) FetchSubresource(ctx context.Context, documentURL, rawURL string) (*FetchedResponse, error) {
	if !policy.AllowSubresource(f.privacy, f.security, documentURL, rawURL) {
		f.log.Debug().Str("document", documentURL).Str("url", rawURL).Msg("subresource blocked")
		return nil, neterr.Newf("net.policy.subresource_blocked", "%s may not load %s", documentURL, rawURL)
	}

	return f.Fetch(ctx, rawURL, f.maxSubresourceRedirects)
}

// CookieHeader returns the Cookie header the jar holds for the host of
// pageURL, or "" when pageURL does not parse.
func (f *Fetcher) CookieHeader(pageURL string) string {
	u, err := browserurl.Parse(pageURL)
	if err != nil {
		return ""
	}

	return f.session.CookieHeader(u.Host())
}

// MergeDocumentCookies folds a script-side document.cookie snapshot back
// into the jar under the host of pageURL.
func (f *Fetcher) MergeDocumentCookies(pageURL, snapshot string) {
	u, err := browserurl.Parse(pageURL)
	if err != nil {
		return
	}

	f.session.MergeCookies(u.Host(), snapshot)
}

// Session returns the shared cache and cookie state.
func (f *Fetcher) Session() *Session { return f.session }

// Client returns the underlying HTTP client.
func (f *Fetcher) Client() *Client { return f.client }

// TLSPolicy returns the base TLS policy before per-host relaxation.
func (f *Fetcher) TLSPolicy() tlspolicy.Policy { return f.tls }

// Close releases pooled connections.
func (f *Fetcher) Close() error { return f.client.Close() }

func (f *Fetcher) fetch(ctx context.Context, rawURL string, maxRedirects int) (*FetchedResponse, error) {
	current, err := browserurl.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	log := f.log.With().Str("fetch_id", id).Logger()

	for redirects := 0; ; {
		url := current.String()

		cached := f.session.lookup(url)
		if cached.Kind == httpcache.Fresh {
			log.Debug().Str("url", url).Msg("served from cache")
			return cached.Response, nil
		}

		prepared, err := f.client.Prepare(http1.GET, current, f.tls.RelaxedFor(current.Host()))
		if err != nil {
			return nil, err
		}

		hop := &Hop{ID: id, URL: current, Request: prepared.Request, Cached: cached, session: f.session}
		if err := f.hopMWs.run(hop); err != nil {
			return nil, err
		}

		prepared.Request = hop.Request

		resp, err := f.client.Execute(ctx, prepared)
		if err != nil {
			log.Debug().Err(err).Str("url", url).Msg("hop failed")
			return nil, err
		}

		log.Debug().Str("url", url).Int("status", resp.Status.Code()).Str("cache", cached.Kind.String()).Msg("hop")

		f.session.storeCookies(current.Host(), resp.Headers)

		if resp.Status == 304 && cached.Kind == httpcache.Stale {
			f.session.refresh(url, resp.Headers)
			return cached.Response, nil
		}

		if location := resp.Headers.Get(header.LOCATION); resp.Status.IsRedirect() && location.IsSome() {
			if redirects >= maxRedirects {
				return nil, neterr.Newf("net.fetch.too_many_redirects",
					"Too many redirects (>%d) while loading %s", maxRedirects, rawURL)
			}

			if current, err = resolveRedirect(current, location.Some()); err != nil {
				return nil, err
			}

			redirects++

			continue
		}

		fetched := newFetchedResponse(url, resp)
		f.session.store(fetched)

		return fetched, nil
	}
}

// resolveRedirect takes an absolute http(s) Location as is and joins
// anything else against base.
func resolveRedirect(base *browserurl.URL, location string) (*browserurl.URL, error) {
	var (
		next *browserurl.URL
		err  error
	)

	lower := strings.ToLower(strings.TrimSpace(location))
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		next, err = browserurl.Parse(location)
	} else {
		next, err = base.Resolve(location)
	}

	// opaque targets such as mailto: or javascript: fail as invalid_base
	// before their scheme is looked at
	if neterr.HasCode(err, "net.url.scheme_unsupported") ||
		neterr.HasCode(err, "net.url.invalid_base") && !httpScheme(location) {
		return nil, neterr.Wrap("net.fetch.redirect_scheme_unsupported", "unsupported redirect target scheme", err)
	}

	return next, err
}

func httpScheme(location string) bool {
	scheme, _, ok := strings.Cut(strings.TrimSpace(location), ":")
	if !ok {
		return false
	}

	scheme = strings.ToLower(scheme)

	return scheme == "http" || scheme == "https"
}
