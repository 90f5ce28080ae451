package scraper

import (
	"net/url"
	"strings"
)

// Domain is a normalized lowercase hostname with any leading "www." removed.
// Equality of the underlying string is the unit of deduplication.
type Domain string

const (
	minDomainLen = 4
	maxDomainLen = 99
)

// NormalizeDomain lowercases a hostname, strips a leading "www." and any
// port, and rejects strings that cannot be a public hostname. The second
// return is false when the input should be discarded.
func NormalizeDomain(host string) (Domain, bool) {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	host = strings.TrimPrefix(host, "www.")
	if len(host) < minDomainLen || len(host) > maxDomainLen {
		return "", false
	}
	if !strings.Contains(host, ".") || strings.ContainsAny(host, "/ ") {
		return "", false
	}
	return Domain(host), true
}

// DomainFromURL extracts and normalizes the hostname of a raw URL.
func DomainFromURL(raw string) (Domain, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}
	return NormalizeDomain(u.Hostname())
}

// String implements fmt.Stringer.
func (d Domain) String() string { return string(d) }
