package httpcache

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/enetx/g"
)

// CacheControl is a parsed Cache-Control header. Directive names are
// lowercased; values keep their original text without surrounding quotes.
type CacheControl struct {
	m map[string]string
}

// ParseCacheControl splits a Cache-Control value into its directives.
func ParseCacheControl(value string) CacheControl {
	m := make(map[string]string)

	for directive := range strings.SplitSeq(value, ",") {
		name, val, _ := strings.Cut(strings.TrimSpace(directive), "=")
		if name = strings.ToLower(strings.TrimSpace(name)); name == "" {
			continue
		}

		if _, ok := m[name]; !ok {
			m[name] = strings.Trim(strings.TrimSpace(val), `"`)
		}
	}

	return CacheControl{m}
}

// Has reports whether directive is present, case-insensitively.
func (c CacheControl) Has(directive string) bool {
	_, ok := c.m[strings.ToLower(directive)]
	return ok
}

// MaxAge returns the max-age directive when it holds a whole number of seconds.
func (c CacheControl) MaxAge() g.Option[time.Duration] {
	val, ok := c.m["max-age"]
	if !ok {
		return g.None[time.Duration]()
	}

	secs, err := strconv.ParseUint(val, 10, 63)
	if err != nil || secs > math.MaxInt64/uint64(time.Second) {
		return g.None[time.Duration]()
	}

	return g.Some(time.Duration(secs) * time.Second)
}

// HasDirective reports whether the comma-separated value lists directive.
func HasDirective(value, directive string) bool { return ParseCacheControl(value).Has(directive) }

// MaxAge parses the max-age directive out of a Cache-Control value.
func MaxAge(value string) g.Option[time.Duration] { return ParseCacheControl(value).MaxAge() }
