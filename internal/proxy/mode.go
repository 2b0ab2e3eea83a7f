package proxy

import "fmt"

// Mode selects how requests leave this machine.
type Mode string

const (
	// ModeDirect sends requests without a proxy.
	ModeDirect Mode = "direct"

	// ModeFreeProxies rotates over validated public proxies.
	ModeFreeProxies Mode = "free-proxies"

	// ModeTor routes requests through a Tor SOCKS5 proxy.
	ModeTor Mode = "tor"

	// ModeScraperAPI routes requests through the ZenRows unblocking proxy.
	ModeScraperAPI Mode = "scraper-api"
)

// Modes lists every supported mode.
var Modes = []Mode{ModeDirect, ModeFreeProxies, ModeTor, ModeScraperAPI}

// ParseMode converts a configuration value to a Mode.
// The empty string selects ModeDirect.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ModeDirect, nil
	}
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// String implements fmt.Stringer.
func (m Mode) String() string {
	return string(m)
}
