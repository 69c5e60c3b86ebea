// Package scope implements URL normalization and the crawl-scope
// predicate that gates frontier enqueues.
package scope

import (
	"net/url"
	"strings"
)

// Normalize returns the canonical form of a URL used for visited-set
// deduplication: scheme and host lowercased, trailing slash stripped
// from the path, query preserved verbatim, fragment dropped.
// Normalization is idempotent. Unparseable URLs are returned as-is.
func Normalize(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	path := strings.TrimRight(u.EscapedPath(), "/")

	normalized := scheme + "://" + host + path
	if u.RawQuery != "" {
		normalized += "?" + u.RawQuery
	}
	return normalized
}

// RootDomain returns the last two dotted labels of a hostname, the
// coarse registrable-domain approximation used for internal/external
// link partitioning ("blog.example.com" -> "example.com").
func RootDomain(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	parts := strings.Split(host, ".")
	if len(parts) <= 2 {
		return host
	}
	return strings.Join(parts[len(parts)-2:], ".")
}
