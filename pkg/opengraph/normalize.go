package opengraph

import (
	"net/url"
	"strings"
)

// NormalizeURL returns the canonical form of an absolute URL with a single
// trailing slash removed, so "https://x.com/p" and "https://x.com/p/" share a
// cache entry.
//
// Input that does not parse as an absolute URL is returned unchanged and is
// used verbatim as the cache key.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return rawURL
	}
	u.Host = strings.ToLower(u.Host)
	return strings.TrimSuffix(u.String(), "/")
}

// DomainName returns the host of a URL without a leading "www.", or the input
// itself when it cannot be parsed.
func DomainName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return rawURL
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// resolveURL resolves ref against base. On failure ref is returned as is.
func resolveURL(ref, base string) string {
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	if r.IsAbs() {
		return r.String()
	}
	b, err := url.Parse(base)
	if err != nil || !b.IsAbs() {
		return ref
	}
	return b.ResolveReference(r).String()
}

// origin returns scheme://host for an absolute URL
func origin(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return "", false
	}
	return u.Scheme + "://" + u.Host, true
}

// IsValidURL checks if a URL is valid
func IsValidURL(urlStr string) bool {
	u, err := url.Parse(urlStr)
	return err == nil && u.Scheme != "" && u.Host != ""
}
