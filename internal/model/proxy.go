package model

import (
	"net"
	"strconv"
	"strings"
	"time"
)

// Proxy protocols understood by the free-proxy pool.
const (
	ProtocolHTTP   = "http"
	ProtocolHTTPS  = "https"
	ProtocolSOCKS5 = "socks5"
)

// Proxy is a candidate or validated exit point from a free-proxy list.
type Proxy struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Protocol string `json:"protocol"`

	// Country is the ISO 3166 code of the exit, when a GeoIP database is configured.
	Country string `json:"country,omitempty"`

	// Source names the list the proxy was gathered from.
	Source string `json:"source,omitempty"`

	// Latency is the round trip measured by the last successful check.
	Latency   time.Duration `json:"latency"`
	CheckedAt time.Time     `json:"checked_at"`
}

// Address returns "host:port".
func (p Proxy) Address() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// URL returns the proxy URI, defaulting to http.
func (p Proxy) URL() string {
	proto := p.Protocol
	if proto == "" {
		proto = ProtocolHTTP
	}
	return proto + "://" + p.Address()
}

// ParseProxy parses a "host:port" line. Blank lines, comments and lines
// without a valid port return ok=false.
func ParseProxy(line, protocol string) (Proxy, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Proxy{}, false
	}
	// Some lists append metadata after whitespace.
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		line = line[:i]
	}

	host, portStr, err := net.SplitHostPort(line)
	if err != nil || host == "" {
		return Proxy{}, false
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return Proxy{}, false
	}
	return Proxy{Host: host, Port: port, Protocol: protocol}, true
}
