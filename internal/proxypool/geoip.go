package proxypool

import (
	"fmt"
	"net"
	"slices"
	"strings"

	"github.com/oschwald/geoip2-golang"

	"github.com/nao1215/scholarnav/internal/model"
)

// GeoIP resolves proxy hosts to ISO country codes using a MaxMind database.
// A nil *GeoIP is valid and resolves nothing.
type GeoIP struct {
	db *geoip2.Reader
}

// OpenGeoIP opens a GeoLite2/GeoIP2 Country or City database.
func OpenGeoIP(path string) (*GeoIP, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open geoip db: %w", err)
	}
	return &GeoIP{db: db}, nil
}

// Close releases the database.
func (g *GeoIP) Close() error {
	if g == nil {
		return nil
	}
	return g.db.Close()
}

// Lookup returns the ISO country code of host.
// Host names that are not IP literals are not resolved.
func (g *GeoIP) Lookup(host string) (string, error) {
	if g == nil {
		return "", nil
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return "", fmt.Errorf("invalid IP address: %s", host)
	}
	record, err := g.db.Country(ip)
	if err != nil {
		return "", fmt.Errorf("geoip lookup failed: %w", err)
	}
	return record.Country.IsoCode, nil
}

// Annotate sets Country on every proxy it can resolve.
func (g *GeoIP) Annotate(proxies []model.Proxy) {
	if g == nil {
		return
	}
	for i := range proxies {
		if iso, err := g.Lookup(proxies[i].Host); err == nil && iso != "" {
			proxies[i].Country = iso
		}
	}
}

// FilterCountries keeps the proxies whose country is in countries.
// Codes are compared case-insensitively; an empty list keeps everything.
func FilterCountries(proxies []model.Proxy, countries []string) []model.Proxy {
	if len(countries) == 0 {
		return proxies
	}
	want := make([]string, len(countries))
	for i, c := range countries {
		want[i] = strings.ToUpper(strings.TrimSpace(c))
	}
	return slices.DeleteFunc(slices.Clone(proxies), func(p model.Proxy) bool {
		return !slices.Contains(want, strings.ToUpper(p.Country))
	})
}
