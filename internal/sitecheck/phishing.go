package sitecheck

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/mtibben/confusables"
	"golang.org/x/net/idna"
)

// Reasons reported by Check.
const (
	ReasonParse       = "URL_PARSE_ERROR"
	ReasonHTTP        = "HTTP"
	ReasonETLDInvalid = "ETLD_INVALID"
	ReasonMismatch    = "ETLD_MISMATCH"
	ReasonPunycode    = "PUNYCODE"
	ReasonMixedScript = "MIXED_SCRIPT"
	ReasonConfusable  = "CONFUSABLE"
)

// Verdict is the outcome of Check. OK is true only when Reasons is empty.
type Verdict struct {
	OK      bool
	Reasons []string
	ETLD1   string
}

// Check inspects rawURL before credentials saved for savedSite are used on it.
//
// Args:
//
//	rawURL: URL of the page asking for credentials.
//	savedSite: eTLD+1 of the stored entry; empty skips the comparison checks.
//
// Returns:
//
//	Verdict: allow/deny decision with every reason that applied.
//
// Behavior:
//  1. Treats a bare host as https and rejects unparsable URLs outright.
//  2. Flags plain HTTP, unresolvable domains, punycode labels and mixed scripts.
//  3. Flags a different eTLD+1, and additionally a lookalike one.
func Check(rawURL, savedSite string) Verdict {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL != "" && !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return Verdict{Reasons: []string{ReasonParse}}
	}

	var reasons []string
	if !strings.EqualFold(parsed.Scheme, "https") {
		reasons = append(reasons, ReasonHTTP)
	}

	host := strings.ToLower(strings.TrimSuffix(parsed.Hostname(), "."))
	unicodeHost := host
	if converted, err := idna.Lookup.ToUnicode(host); err == nil && converted != "" {
		unicodeHost = converted
	}

	etld1, err := ETLDPlusOne(host)
	if err != nil {
		reasons = append(reasons, ReasonETLDInvalid)
	}

	saved := strings.ToLower(strings.TrimSpace(savedSite))
	if saved != "" && etld1 != "" && saved != etld1 {
		reasons = append(reasons, ReasonMismatch)
	}
	if strings.Contains(host, "xn--") {
		reasons = append(reasons, ReasonPunycode)
	}
	if hasMixedScript(unicodeHost) {
		reasons = append(reasons, ReasonMixedScript)
	}
	if saved != "" && etld1 != "" && looksConfusable(saved, unicodeSite(etld1)) {
		reasons = append(reasons, ReasonConfusable)
	}

	return Verdict{OK: len(reasons) == 0, Reasons: reasons, ETLD1: etld1}
}

func unicodeSite(site string) string {
	if converted, err := idna.Lookup.ToUnicode(site); err == nil && converted != "" {
		return converted
	}
	return site
}

// looksConfusable reports whether two different domains share a UTS #39 skeleton.
func looksConfusable(target, candidate string) bool {
	if target == "" || candidate == "" || target == candidate {
		return false
	}
	return confusables.Skeleton(strings.ToLower(target)) == confusables.Skeleton(strings.ToLower(candidate))
}

// hasMixedScript reports whether host mixes letters from two or more scripts.
func hasMixedScript(host string) bool {
	scripts := make(map[string]struct{})
	for _, r := range host {
		script := detectScript(r)
		if script == "" {
			continue
		}
		scripts[script] = struct{}{}
		if len(scripts) >= 2 {
			return true
		}
	}
	return false
}

func detectScript(r rune) string {
	switch {
	case unicode.In(r, unicode.Latin):
		return "latin"
	case unicode.In(r, unicode.Cyrillic):
		return "cyrillic"
	case unicode.In(r, unicode.Greek):
		return "greek"
	case unicode.In(r, unicode.Hiragana):
		return "hiragana"
	case unicode.In(r, unicode.Katakana):
		return "katakana"
	case unicode.In(r, unicode.Han):
		return "han"
	default:
		return ""
	}
}
