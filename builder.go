package pixeldust

import (
	"crypto/x509"
	"time"

	"github.com/enetx/g"
	"github.com/rs/zerolog"

	"github.com/HKHOP/Project-PixelDust-sub000/pkg/dns"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/neterr"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/policy"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/pool"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/tlsbackend"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/tlspolicy"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/transport"
)

// Option priorities. Policies run first so later options can adjust the TLS
// policy they derive.
const (
	_prioPolicy = -20
	_prioTLS    = -10
	_prioOption = 0
	_prioTweak  = 10
)

// Builder configures a Fetcher. Options are recorded and applied in
// priority order by Build; the first failing option aborts the build.
type Builder struct {
	cliMWs *middleware[*Fetcher]
	hopMWs *middleware[*Hop]
	cache  struct {
		capacity  int
		domains   int
		perDomain int
		now       func() time.Time
	}
}

// NewBuilder starts a configuration with the default privacy and security
// policies.
func NewBuilder() *Builder {
	b := &Builder{
		cliMWs: newMiddleware[*Fetcher](),
		hopMWs: newMiddleware[*Hop](),
	}

	b.hopMWs.add(_prioOption, cookieMW)
	b.hopMWs.add(_prioOption, conditionalMW)

	return b
}

// Logger sets the structured logger used by the fetcher and client.
func (b *Builder) Logger(log zerolog.Logger) *Builder {
	b.cliMWs.add(_prioOption, func(f *Fetcher) error {
		f.log = log
		f.client.log = log
		return nil
	})

	return b
}

// Policy applies a privacy and security configuration. The base TLS policy
// follows Security.EnforceStrictTLS unless TLSPolicy overrides it.
func (b *Builder) Policy(cfg policy.Config) *Builder {
	b.cliMWs.add(_prioPolicy, func(f *Fetcher) error {
		f.privacy = cfg.Privacy
		f.security = cfg.Security
		f.tls = tlspolicy.ForSecurityMode(cfg.Security.EnforceStrictTLS).WithTrustStoreMode(f.tls.TrustStore)
		f.client.doNotTrack = cfg.Privacy.BlockKnownTrackers
		return nil
	})

	return b
}

// TLSPolicy replaces the base TLS policy.
func (b *Builder) TLSPolicy(p tlspolicy.Policy) *Builder {
	b.cliMWs.add(_prioTLS, func(f *Fetcher) error {
		f.tls = p
		return nil
	})

	return b
}

// TrustStore selects which root certificates verify servers.
func (b *Builder) TrustStore(mode tlspolicy.TrustStoreMode) *Builder {
	b.cliMWs.add(_prioTweak, func(f *Fetcher) error {
		f.tls = f.tls.WithTrustStoreMode(mode)
		return nil
	})

	return b
}

// OCSP sets whether a stapled OCSP response is required.
func (b *Builder) OCSP(required bool) *Builder {
	b.cliMWs.add(_prioTweak, func(f *Fetcher) error {
		f.tls = f.tls.WithOCSPRequired(required)
		return nil
	})

	return b
}

// ExtraRoots trusts pool in addition to the configured store. It only
// applies to the default uTLS backend.
func (b *Builder) ExtraRoots(roots *x509.CertPool) *Builder {
	b.cliMWs.add(_prioOption, func(f *Fetcher) error {
		backend, ok := f.client.tls.(*tlsbackend.UTLS)
		if !ok {
			return neterr.New("config.extra_roots_unsupported", "extra roots require the default TLS backend")
		}

		backend.ExtraRoots = roots

		return nil
	})

	return b
}

// TLSAdapter replaces the TLS backend.
func (b *Builder) TLSAdapter(adapter tlsbackend.Adapter) *Builder {
	b.cliMWs.add(_prioPolicy, func(f *Fetcher) error {
		f.client.tls = adapter
		return nil
	})

	return b
}

// DNS routes lookups to the DNS server at addr ("host:port").
func (b *Builder) DNS(addr g.String) *Builder {
	b.cliMWs.add(_prioOption, func(f *Fetcher) error {
		resolver, err := dns.NewServer(addr.Std())
		if err != nil {
			return err
		}

		f.client.resolver = resolver

		return nil
	})

	return b
}

// Resolver replaces the name resolver.
func (b *Builder) Resolver(r dns.Resolver) *Builder {
	b.cliMWs.add(_prioOption, func(f *Fetcher) error {
		f.client.resolver = r
		return nil
	})

	return b
}

// Proxy tunnels every connection through a socks4, socks4a, socks5 or
// socks5h proxy URL.
func (b *Builder) Proxy(rawURL g.String) *Builder {
	b.cliMWs.add(_prioOption, func(f *Fetcher) error {
		if rawURL.Trim().Empty() {
			return nil
		}

		p, err := transport.NewProxy(rawURL.Trim().Std())
		if err != nil {
			return err
		}

		f.client.transport = p

		return nil
	})

	return b
}

// Transport replaces the stream transport.
func (b *Builder) Transport(t transport.Transport) *Builder {
	b.cliMWs.add(_prioOption, func(f *Fetcher) error {
		f.client.transport = t
		return nil
	})

	return b
}

// ConnectTimeout bounds connecting and every read and write.
func (b *Builder) ConnectTimeout(timeout time.Duration) *Builder {
	b.cliMWs.add(_prioOption, func(f *Fetcher) error {
		if timeout <= 0 {
			return neterr.Newf("config.timeout_invalid", "connect timeout must be positive, got %s", timeout)
		}

		f.client.connectTimeout = timeout

		return nil
	})

	return b
}

// MaxIdlePerHost caps idle pooled connections per origin.
func (b *Builder) MaxIdlePerHost(n int) *Builder {
	b.cliMWs.add(_prioOption, func(f *Fetcher) error {
		f.client.pool = pool.NewMemory(n)
		return nil
	})

	return b
}

// MaxHeadBytes caps a response head.
func (b *Builder) MaxHeadBytes(n int) *Builder {
	b.cliMWs.add(_prioOption, func(f *Fetcher) error {
		f.client.codec.MaxHeadBytes = n
		return nil
	})

	return b
}

// MaxBodyBytes caps a decoded response body. Zero means unbounded; the
// default is 256 MiB.
func (b *Builder) MaxBodyBytes(n int64) *Builder {
	b.cliMWs.add(_prioOption, func(f *Fetcher) error {
		f.client.codec.MaxBodyBytes = n
		return nil
	})

	return b
}

// MaxRedirects sets the redirect budget for navigations and subresources.
func (b *Builder) MaxRedirects(navigation, subresource int) *Builder {
	b.cliMWs.add(_prioOption, func(f *Fetcher) error {
		if navigation < 0 || subresource < 0 {
			return neterr.New("config.redirects_invalid", "redirect budgets must not be negative")
		}

		f.maxRedirects = navigation
		f.maxSubresourceRedirects = subresource

		return nil
	})

	return b
}

// CacheCapacity bounds the number of cached responses.
func (b *Builder) CacheCapacity(n int) *Builder {
	b.cache.capacity = n
	return b
}

// CookieLimits bounds the cookie jar.
func (b *Builder) CookieLimits(maxDomains, maxPerDomain int) *Builder {
	b.cache.domains, b.cache.perDomain = maxDomains, maxPerDomain
	return b
}

// Clock replaces the time source used for cache freshness.
func (b *Builder) Clock(now func() time.Time) *Builder {
	b.cache.now = now
	return b
}

// With registers a request middleware run on every hop before it is sent.
// Lower priorities run earlier; the cookie and conditional-request
// middlewares run at priority 0.
func (b *Builder) With(fn func(*Hop) error, priority ...int) *Builder {
	prio := _prioOption
	if len(priority) > 0 {
		prio = priority[0]
	}

	b.hopMWs.add(prio, fn)

	return b
}

// Build applies every option and validates the resulting policies.
func (b *Builder) Build() g.Result[*Fetcher] {
	f := &Fetcher{
		client:                  NewClient(),
		session:                 NewSession(b.cache.capacity, b.cache.domains, b.cache.perDomain, b.cache.now),
		privacy:                 policy.DefaultPrivacy(),
		security:                policy.DefaultSecurity(),
		hopMWs:                  b.hopMWs,
		log:                     zerolog.Nop(),
		maxRedirects:            _maxRedirects,
		maxSubresourceRedirects: _maxSubresourceRedirects,
	}

	f.tls = tlspolicy.ForSecurityMode(f.security.EnforceStrictTLS)
	f.client.doNotTrack = f.privacy.BlockKnownTrackers

	if err := b.cliMWs.run(f); err != nil {
		return g.Err[*Fetcher](err)
	}

	if err := f.security.Validate(); err != nil {
		return g.Err[*Fetcher](err)
	}

	if err := f.tls.Validate(); err != nil {
		return g.Err[*Fetcher](err)
	}

	return g.Ok(f)
}
