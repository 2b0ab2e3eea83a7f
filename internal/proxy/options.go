package proxy

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/nao1215/scholarnav/internal/proxypool"
)

// Transport retry policy defaults. A request is attempted at most
// DefaultRetryCount+1 times.
const (
	DefaultRetryCount   = 3
	DefaultRetryWait    = 2 * time.Second
	DefaultRetryMaxWait = 60 * time.Second
)

// DefaultMaxFailures is the number of consecutive failures reported for an
// exit before ReportFailure declares it burned.
const DefaultMaxFailures = 3

// DefaultTorDialTimeout bounds a single dial through a Tor circuit.
const DefaultTorDialTimeout = 30 * time.Second

// DefaultUserAgent is sent when Options.UserAgent is empty.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// zenRowsAddress is the ZenRows proxy endpoint.
const zenRowsAddress = "proxy.zenrows.com:8001"

// RetryStatuses are the HTTP statuses retried by the transport.
var RetryStatuses = []int{429, 500, 502, 503, 504}

// RetryPolicy configures transport-level retries with exponential backoff.
type RetryPolicy struct {
	// Count is the number of retries after the first attempt.
	Count int

	// Wait is the base backoff; it doubles on every retry.
	Wait time.Duration

	// MaxWait caps a single backoff sleep.
	MaxWait time.Duration
}

// DefaultRetryPolicy returns 3 retries starting at 2s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Count:   DefaultRetryCount,
		Wait:    DefaultRetryWait,
		MaxWait: DefaultRetryMaxWait,
	}
}

// TorOptions configures ModeTor.
type TorOptions struct {
	// Address is the SOCKS5 endpoint of an external Tor. Ignored when Embedded.
	Address string

	// ControlAddress and Password reach the control port for circuit renewal.
	// Leaving ControlAddress empty disables NEWNYM on Refresh.
	ControlAddress string
	Password       string

	// Embedded starts a private Tor daemon owned by the Provider.
	Embedded       bool
	StartupTimeout time.Duration

	// DialTimeout bounds a single dial through the circuit.
	DialTimeout time.Duration
}

// FreeProxyOptions configures ModeFreeProxies.
type FreeProxyOptions struct {
	// Harvester gathers and validates candidates.
	Harvester *proxypool.Harvester

	// PoolMaxFailures is the number of refreshes a proxy survives before it
	// is dropped from the pool. Zero uses proxypool.DefaultMaxFailures.
	PoolMaxFailures int
}

// Options configures a Provider for one mode. Fields that do not apply to
// the selected mode are ignored.
type Options struct {
	// APIKey and Premium configure ModeScraperAPI.
	APIKey  string
	Premium bool

	Tor         TorOptions
	FreeProxies FreeProxyOptions

	// UserAgent is sent on every request. Empty uses DefaultUserAgent.
	UserAgent string

	// Retry overrides the transport retry policy. Nil uses DefaultRetryPolicy.
	Retry *RetryPolicy

	// MaxFailures is the ReportFailure threshold. Zero uses DefaultMaxFailures.
	MaxFailures int
}

// withDefaults fills unset fields.
func (o Options) withDefaults() Options {
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Retry == nil {
		policy := DefaultRetryPolicy()
		o.Retry = &policy
	}
	if o.MaxFailures <= 0 {
		o.MaxFailures = DefaultMaxFailures
	}
	if o.Tor.DialTimeout <= 0 {
		o.Tor.DialTimeout = DefaultTorDialTimeout
	}
	return o
}

// validate checks the options required by mode.
func (o Options) validate(mode Mode) error {
	if o.Retry != nil && (o.Retry.Count < 0 || o.Retry.Wait < 0 || o.Retry.MaxWait < 0) {
		return fmt.Errorf("%w: count=%d wait=%s max_wait=%s", ErrInvalidRetryPolicy, o.Retry.Count, o.Retry.Wait, o.Retry.MaxWait)
	}

	switch mode {
	case ModeDirect:
		return nil
	case ModeScraperAPI:
		if o.APIKey == "" {
			return ErrMissingAPIKey
		}
		return nil
	case ModeFreeProxies:
		if o.FreeProxies.Harvester == nil || len(o.FreeProxies.Harvester.Sources) == 0 {
			return ErrNoProxySources
		}
		if o.FreeProxies.Harvester.Checker == nil {
			return fmt.Errorf("%w: no proxy checker", ErrNoProxySources)
		}
		return nil
	case ModeTor:
		if o.Tor.Embedded {
			return nil
		}
		if !validHostPort(o.Tor.Address) {
			return fmt.Errorf("%w: %q", ErrInvalidTorAddress, o.Tor.Address)
		}
		if o.Tor.ControlAddress != "" && !validHostPort(o.Tor.ControlAddress) {
			return fmt.Errorf("%w: control address %q", ErrInvalidTorAddress, o.Tor.ControlAddress)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, string(mode))
	}
}

func validHostPort(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}

// ScraperAPIProxyURI returns the ZenRows proxy URI for apiKey.
// The API key travels as the proxy username; premium proxies are requested
// through the password field.
func ScraperAPIProxyURI(apiKey string, premium bool) string {
	if premium {
		return "http://" + apiKey + ":premium_proxy=true@" + zenRowsAddress
	}
	return "http://" + apiKey + ":@" + zenRowsAddress
}
