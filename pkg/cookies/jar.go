// Package cookies is an in-memory cookie jar keyed by domain and name.
// Only the Domain and Max-Age attributes are interpreted.
package cookies

import (
	"slices"
	"strings"

	"github.com/HKHOP/Project-PixelDust-sub000/header"
)

const (
	DefaultMaxDomains          = 256
	DefaultMaxCookiesPerDomain = 64
)

// bucket keeps cookie names in insertion order so eviction is stable.
type bucket struct {
	values map[string]string
	names  []string
}

// Jar is not safe for concurrent use; callers hold their own lock.
type Jar struct {
	buckets    map[string]*bucket
	domains    []string
	maxDomains int
	maxPerDom  int
}

// NewJar returns a jar bounded by maxDomains domains of maxPerDomain cookies.
// Non-positive bounds take the defaults.
func NewJar(maxDomains, maxPerDomain int) *Jar {
	if maxDomains <= 0 {
		maxDomains = DefaultMaxDomains
	}

	if maxPerDomain <= 0 {
		maxPerDomain = DefaultMaxCookiesPerDomain
	}

	return &Jar{
		buckets:    make(map[string]*bucket),
		maxDomains: maxDomains,
		maxPerDom:  maxPerDomain,
	}
}

// Len returns the number of stored cookies across all domains.
func (j *Jar) Len() int {
	n := 0
	for _, b := range j.buckets {
		n += len(b.values)
	}

	return n
}

// Set upserts a cookie. At capacity the earliest inserted domain or name is
// evicted first.
func (j *Jar) Set(domain, name, value string) {
	b, ok := j.buckets[domain]
	if !ok {
		if len(j.domains) >= j.maxDomains {
			delete(j.buckets, j.domains[0])
			j.domains = j.domains[1:]
		}

		b = &bucket{values: make(map[string]string)}
		j.buckets[domain] = b
		j.domains = append(j.domains, domain)
	}

	if _, ok := b.values[name]; !ok {
		if len(b.names) >= j.maxPerDom {
			delete(b.values, b.names[0])
			b.names = b.names[1:]
		}

		b.names = append(b.names, name)
	}

	b.values[name] = value
}

// Delete removes a cookie and drops its domain once empty.
func (j *Jar) Delete(domain, name string) {
	b, ok := j.buckets[domain]
	if !ok {
		return
	}

	if _, ok := b.values[name]; ok {
		delete(b.values, name)
		b.names = slices.DeleteFunc(b.names, func(n string) bool { return n == name })
	}

	if len(b.values) == 0 {
		delete(j.buckets, domain)
		j.domains = slices.DeleteFunc(j.domains, func(d string) bool { return d == domain })
	}
}

// Get returns the value stored for domain and name.
func (j *Jar) Get(domain, name string) (string, bool) {
	b, ok := j.buckets[domain]
	if !ok {
		return "", false
	}

	v, ok := b.values[name]

	return v, ok
}

// HeaderFor builds the Cookie header value for host: cookies from every
// matching domain, the most specific domain winning a name collision,
// sorted by name and joined with "; ".
func (j *Jar) HeaderFor(host string) string {
	host = strings.ToLower(host)

	var matched []string
	for domain := range j.buckets {
		if DomainMatches(host, domain) {
			matched = append(matched, domain)
		}
	}

	slices.SortFunc(matched, func(a, b string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		return strings.Compare(a, b)
	})

	selected := make(map[string]string)
	for _, domain := range matched {
		for name, value := range j.buckets[domain].values {
			if _, ok := selected[name]; !ok {
				selected[name] = value
			}
		}
	}

	names := make([]string, 0, len(selected))
	for name := range selected {
		names = append(names, name)
	}

	slices.Sort(names)

	var sb strings.Builder
	for i, name := range names {
		if i > 0 {
			sb.WriteString("; ")
		}

		sb.WriteString(name)
		sb.WriteByte('=')
		sb.WriteString(selected[name])
	}

	return sb.String()
}

// StoreFromResponse applies every Set-Cookie header received from host.
// A Domain attribute that is a public suffix or does not cover host falls
// back to host itself.
func (j *Jar) StoreFromResponse(host string, headers header.Headers) {
	def, ok := NormalizeDomain(host)
	if !ok {
		return
	}

	for _, raw := range headers.Values(header.SET_COOKIE) {
		parsed := ParseSetCookie(raw, def)
		if parsed.IsNone() {
			continue
		}

		c := parsed.Some()
		if c.Domain != def && !allowedDomain(def, c.Domain) {
			c.Domain = def
		}

		if c.Delete {
			j.Delete(c.Domain, c.Name)
			continue
		}

		j.Set(c.Domain, c.Name, c.Value)
	}
}

// MergeSnapshot folds a document.cookie style "a=1; b=2" string into the
// jar under host.
func (j *Jar) MergeSnapshot(host, snapshot string) {
	domain, ok := NormalizeDomain(host)
	if !ok || strings.TrimSpace(snapshot) == "" {
		return
	}

	for entry := range strings.SplitSeq(snapshot, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(entry), "=")
		if !ok {
			continue
		}

		if name = strings.TrimSpace(name); name == "" {
			continue
		}

		j.Set(domain, name, strings.TrimSpace(value))
	}
}
