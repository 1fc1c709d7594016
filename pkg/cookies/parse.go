package cookies

import (
	"net"
	"strconv"
	"strings"
	"unicode"

	"github.com/enetx/g"
	"golang.org/x/net/publicsuffix"
)

// Parsed is one Set-Cookie header reduced to what the jar stores.
type Parsed struct {
	Domain string
	Name   string
	Value  string
	Delete bool
}

// ParseSetCookie parses raw against defaultDomain. The leading name=value
// pair is required; Domain overrides the default when it normalizes, and an
// empty value or Max-Age <= 0 marks the cookie for deletion.
func ParseSetCookie(raw, defaultDomain string) g.Option[Parsed] {
	first, attrs, _ := strings.Cut(raw, ";")

	name, value, ok := strings.Cut(strings.TrimSpace(first), "=")
	if !ok {
		return g.None[Parsed]()
	}

	if name = strings.TrimSpace(name); name == "" {
		return g.None[Parsed]()
	}

	value = strings.TrimSpace(value)

	c := Parsed{
		Domain: defaultDomain,
		Name:   name,
		Value:  value,
		Delete: value == "",
	}

	for attr := range strings.SplitSeq(attrs, ";") {
		attr = strings.TrimSpace(attr)
		if attr == "" {
			continue
		}

		key, val, _ := strings.Cut(attr, "=")
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)

		switch {
		case strings.EqualFold(key, "domain"):
			if d, ok := NormalizeDomain(val); ok {
				c.Domain = d
			}
		case strings.EqualFold(key, "max-age"):
			if n, err := strconv.ParseInt(val, 10, 64); err == nil && n <= 0 {
				c.Delete = true
			}
		}
	}

	return g.Some(c)
}

// NormalizeDomain trims, strips a leading dot and lowercases. Empty input
// or input containing whitespace is rejected.
func NormalizeDomain(domain string) (string, bool) {
	d := strings.ToLower(strings.TrimLeft(strings.TrimSpace(domain), "."))
	if d == "" || strings.ContainsFunc(d, unicode.IsSpace) {
		return "", false
	}

	return d, true
}

// DomainMatches reports whether host equals domain or is a dot-separated
// subdomain of it.
func DomainMatches(host, domain string) bool {
	if host == domain {
		return true
	}

	return len(host) > len(domain) &&
		strings.HasSuffix(host, domain) &&
		host[len(host)-len(domain)-1] == '.'
}

// allowedDomain guards a Domain attribute received from host: it must cover
// host, must not be a public suffix, and IP hosts only accept themselves.
func allowedDomain(host, domain string) bool {
	if net.ParseIP(host) != nil || !DomainMatches(host, domain) {
		return false
	}

	suffix, _ := publicsuffix.PublicSuffix(domain)

	return suffix != domain
}
