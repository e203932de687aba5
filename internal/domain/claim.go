package domain

import (
	"net/url"
	"regexp"
	"strings"
)

var schemeRe = regexp.MustCompile(`(?i)^https?://`)

// OwnershipClaim is one "caller X says they own the gift at URL" request.
type OwnershipClaim struct {
	URL            string
	ClaimedOwnerID int64
}

// NormalizeURL prefixes raw with https:// when it carries no http(s) scheme.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if schemeRe.MatchString(raw) {
		return raw
	}
	return "https://" + raw
}

// SlugFromURL returns the final path segment of a normalized gift URL.
func SlugFromURL(normalized string) (string, error) {
	u, err := url.Parse(normalized)
	if err != nil || u.Host == "" {
		return "", NewError(KindInvalidURL, "invalid URL format")
	}
	p := u.Path
	slug := p[strings.LastIndex(p, "/")+1:]
	if slug == "" {
		return "", NewError(KindInvalidURL, "invalid URL format")
	}
	return slug, nil
}

// HostAllowed reports whether the host of normalized matches one of allowed,
// either exactly or as a subdomain. An empty allow-list allows every host.
func HostAllowed(normalized string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	u, err := url.Parse(normalized)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())

	for _, domain := range allowed {
		domain = strings.ToLower(domain)
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}
