package proxy

import (
	"maps"
	"net/http"
	"net/url"
)

// Config maps a URL scheme ("http", "https") to the proxy URI used for it.
// An empty Config means direct connections. A Config never changes after
// construction; switching modes replaces it.
type Config struct {
	proxies map[string]string
}

// NewConfig creates a Config from a scheme to proxy URI mapping.
func NewConfig(proxies map[string]string) Config {
	return Config{proxies: maps.Clone(proxies)}
}

// SameProxy creates a Config that sends both schemes through uri.
func SameProxy(uri string) Config {
	return NewConfig(map[string]string{"http": uri, "https": uri})
}

// Get returns the proxy URI for scheme.
func (c Config) Get(scheme string) (string, bool) {
	uri, ok := c.proxies[scheme]
	return uri, ok
}

// Map returns a copy of the mapping.
func (c Config) Map() map[string]string {
	if c.proxies == nil {
		return map[string]string{}
	}
	return maps.Clone(c.proxies)
}

// IsDirect reports whether no proxy is configured.
func (c Config) IsDirect() bool {
	return len(c.proxies) == 0
}

// ProxyFunc returns a function suitable for http.Transport.Proxy that picks
// the proxy by the request scheme.
func (c Config) ProxyFunc() func(*http.Request) (*url.URL, error) {
	parsed := make(map[string]*url.URL, len(c.proxies))
	var firstErr error
	for scheme, raw := range c.proxies {
		u, err := url.Parse(raw)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		parsed[scheme] = u
	}
	return func(req *http.Request) (*url.URL, error) {
		if firstErr != nil {
			return nil, firstErr
		}
		return parsed[req.URL.Scheme], nil
	}
}
