// Package sitecheck normalises URLs to registrable domains for credential
// lookup and flags URLs that look like phishing attempts against a saved site.
package sitecheck

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// Host extracts the canonical host of a URL or bare host string.
//
// Args:
//
//	raw: URL such as "https://mail.example.com/x", or a bare "example.com:8443".
//
// Returns:
//
//	string: lowercase host with port and trailing dot removed; "" when raw has no host.
//
// Behavior:
//  1. Prepends https:// when raw carries no scheme so url.Parse sees a host.
//  2. Lowercases the hostname and strips a single trailing dot.
func Host(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
}

// ETLDPlusOne resolves the registrable domain of host, converting IDNs to ASCII first.
func ETLDPlusOne(host string) (string, error) {
	ascii := host
	if converted, err := idna.Lookup.ToASCII(host); err == nil && converted != "" {
		ascii = converted
	}
	site, err := publicsuffix.EffectiveTLDPlusOne(ascii)
	if err != nil {
		return "", err
	}
	return strings.ToLower(site), nil
}

// Site maps host to the key credentials are matched on: its eTLD+1, or the host
// itself for IP addresses and names without a public suffix.
func Site(host string) string {
	if net.ParseIP(host) != nil {
		return host
	}
	site, err := ETLDPlusOne(host)
	if err != nil {
		return host
	}
	return site
}

// SameSite reports whether two URLs share a registrable domain.
func SameSite(a, b string) bool {
	ha, hb := Host(a), Host(b)
	if ha == "" || hb == "" {
		return false
	}
	return Site(ha) == Site(hb)
}
