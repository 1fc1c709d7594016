// Package policy holds the privacy and security switches that gate what the
// fetcher may load.
package policy

import (
	"slices"
	"strings"

	"github.com/HKHOP/Project-PixelDust-sub000/pkg/browserurl"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/neterr"
)

// KnownTrackers are blocked together with their subdomains.
var KnownTrackers = []string{
	"doubleclick.net",
	"googlesyndication.com",
	"google-analytics.com",
	"googletagmanager.com",
	"facebook.net",
	"facebook.com",
}

// Privacy is the anti-tracking configuration.
type Privacy struct {
	BlockThirdPartyCookies   bool     `yaml:"block_third_party_cookies"`
	StripReferrerCrossOrigin bool     `yaml:"strip_referrer_cross_origin"`
	BlockKnownTrackers       bool     `yaml:"block_known_trackers"`
	FingerprintingResistance bool     `yaml:"fingerprinting_resistance"`
	ExtraTrackers            []string `yaml:"extra_trackers,omitempty"`
}

// DefaultPrivacy enables every protection.
func DefaultPrivacy() Privacy {
	return Privacy{
		BlockThirdPartyCookies:   true,
		StripReferrerCrossOrigin: true,
		BlockKnownTrackers:       true,
		FingerprintingResistance: true,
	}
}

// ShouldBlockHost reports whether host is, or is under, a tracker domain.
func (p Privacy) ShouldBlockHost(host string) bool {
	if !p.BlockKnownTrackers {
		return false
	}

	host = strings.ToLower(strings.TrimRight(strings.TrimSpace(host), "."))
	if host == "" {
		return false
	}

	match := func(suffix string) bool {
		suffix = strings.ToLower(suffix)
		return host == suffix || strings.HasSuffix(host, "."+suffix)
	}

	return slices.ContainsFunc(KnownTrackers, match) || slices.ContainsFunc(p.ExtraTrackers, match)
}

// Security is the process and network hardening configuration.
type Security struct {
	EnforceSiteIsolation bool `yaml:"enforce_site_isolation"`
	EnforceStrictTLS     bool `yaml:"enforce_strict_tls"`
	SandboxRenderer      bool `yaml:"sandbox_renderer"`
}

// DefaultSecurity enables every protection.
func DefaultSecurity() Security {
	return Security{
		EnforceSiteIsolation: true,
		EnforceStrictTLS:     true,
		SandboxRenderer:      true,
	}
}

// Validate rejects a configuration with the renderer sandbox disabled.
func (s Security) Validate() error {
	if !s.SandboxRenderer {
		return neterr.New("security.invalid_policy", "renderer sandbox must stay enabled")
	}

	return nil
}

// AllowSubresource decides whether a document may load candidate. Tracker
// hosts are always refused; with site isolation on, cross-origin loads are
// allowed unless they downgrade an https document to http.
func AllowSubresource(privacy Privacy, security Security, documentURL, candidateURL string) bool {
	candidate, err := browserurl.Parse(candidateURL)
	if err != nil {
		return false
	}

	if privacy.ShouldBlockHost(candidate.Host()) {
		return false
	}

	if !security.EnforceSiteIsolation {
		return true
	}

	document, err := browserurl.Parse(documentURL)
	if err != nil {
		return false
	}

	if document.SameOrigin(candidate) {
		return true
	}

	return !document.IsSecure() || candidate.IsSecure()
}
