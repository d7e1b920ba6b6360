package scrape

import (
	"net/url"
	"strings"
)

// Review platforms recognized from a URL.
const (
	SourceReddit       = "reddit"
	SourceG2           = "g2"
	SourceCapterra     = "capterra"
	SourceTrustpilot   = "trustpilot"
	SourceYelp         = "yelp"
	SourceHealthgrades = "healthgrades"
	SourceZocdoc       = "zocdoc"
	SourceWebMD        = "webmd"
	SourceGoogle       = "google"
	SourceOther        = "other"
)

var sourceDomains = []struct {
	domain string
	source string
}{
	{"reddit.com", SourceReddit},
	{"g2.com", SourceG2},
	{"capterra.com", SourceCapterra},
	{"trustpilot.com", SourceTrustpilot},
	{"yelp.com", SourceYelp},
	{"healthgrades.com", SourceHealthgrades},
	{"zocdoc.com", SourceZocdoc},
	{"webmd.com", SourceWebMD},
}

// DetectSource names the review platform a URL belongs to, or "other".
func DetectSource(rawURL string) string {
	host, path := splitURL(rawURL)
	for _, d := range sourceDomains {
		if host == d.domain || strings.HasSuffix(host, "."+d.domain) {
			return d.source
		}
	}
	if isGoogleMaps(host, path) {
		return SourceGoogle
	}
	return SourceOther
}

func isGoogleMaps(host, path string) bool {
	switch {
	case host == "maps.app.goo.gl", host == "maps.google.com":
		return true
	case host == "goo.gl" && strings.HasPrefix(path, "/maps"):
		return true
	case (host == "google.com" || strings.HasSuffix(host, ".google.com")) && strings.HasPrefix(path, "/maps"):
		return true
	}
	return false
}

func splitURL(rawURL string) (host, path string) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		u, err = url.Parse("https://" + strings.TrimSpace(rawURL))
		if err != nil {
			return "", ""
		}
	}
	return strings.ToLower(u.Hostname()), u.Path
}
