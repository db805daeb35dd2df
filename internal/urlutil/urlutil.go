// Package urlutil provides URL normalization, validation and classification
// helpers shared by the crawler and the downloader.
package urlutil

import (
	"net/url"
	"strings"
)

// nonContentMarkers lists path fragments that identify endpoints which are
// never worth following: API surfaces, auth flows and static assets.
var nonContentMarkers = []string{
	"/api/",
	"/ajax/",
	"/search?",
	"/login",
	"/logout",
	"/admin",
}

// nonContentSuffixes lists resource extensions that are fetched by browsers
// but carry no crawlable content.
var nonContentSuffixes = []string{
	".json",
	".xml",
	".css",
	".js",
}

// Normalize canonicalizes a URL: the fragment is stripped while scheme, host,
// path and query are preserved. The operation is idempotent, so normalized
// URLs can be used directly as set members. An unparseable URL normalizes to
// the empty string.
func Normalize(rawURL string) string {
	if rawURL == "" {
		return ""
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	normalized := u.Scheme + "://" + u.Host + u.Path
	if u.RawQuery != "" {
		normalized += "?" + u.RawQuery
	}
	return normalized
}

// Resolve resolves href against base and returns the normalized absolute URL.
func Resolve(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return Normalize(base.ResolveReference(ref).String())
}

// IsValid reports whether a URL is an absolute http(s) URL with a host.
func IsValid(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Domain extracts the lowercased host from a URL.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

// IsExternal reports whether a URL points outside the given base domain.
func IsExternal(rawURL, baseDomain string) bool {
	d := Domain(rawURL)
	if d == "" {
		return true
	}
	return d != strings.ToLower(baseDomain)
}

// LikelyContent applies a heuristic that rejects URLs unlikely to lead to
// downloadable content, such as API endpoints, auth pages and static assets.
func LikelyContent(rawURL string) bool {
	lower := strings.ToLower(rawURL)

	for _, marker := range nonContentMarkers {
		if strings.Contains(lower, marker) {
			return false
		}
	}

	for _, suffix := range nonContentSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return false
		}
	}

	return true
}

// RobotsURL returns the robots.txt location for the URL's host.
func RobotsURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/robots.txt"
}
