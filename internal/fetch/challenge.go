package fetch

import (
	"net/url"
	"strings"
)

// sorryPathPrefix is where the site redirects clients it suspects of scraping.
const sorryPathPrefix = "/sorry/"

// challengeMarkers are body fragments only present on challenge pages.
var challengeMarkers = []struct {
	marker string
	reason string
}{
	{"gs_captcha_f", "captcha form"},
	{"g-recaptcha", "recaptcha widget"},
	{"unusual traffic from your computer network", "unusual traffic notice"},
}

// detectChallenge classifies a response as an anti-bot page. final is the
// URL after redirects.
func detectChallenge(final *url.URL, body string) (string, bool) {
	if final != nil && strings.HasPrefix(final.Path, sorryPathPrefix) {
		return "redirected to " + sorryPathPrefix, true
	}
	lower := strings.ToLower(body)
	for _, m := range challengeMarkers {
		if strings.Contains(lower, m.marker) {
			return m.reason, true
		}
	}
	return "", false
}
