package config

import (
	"net/url"
	"path/filepath"
	"slices"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "scholarnav"

	// DefaultBaseURL is the origin every relative listing path is resolved against.
	DefaultBaseURL = "https://scholar.google.com"

	// DefaultTimeout bounds a single page request. Scholar answers quickly
	// when it answers at all; long waits usually mean a dead proxy.
	DefaultTimeout = 5 * time.Second

	// DefaultRetryCount is the number of transport retries after the first
	// attempt, so a request is tried at most DefaultRetryCount+1 times.
	DefaultRetryCount = 3

	// DefaultRetryWait is the base of the exponential backoff between retries.
	DefaultRetryWait = 2 * time.Second

	// DefaultRetryMaxWait caps a single backoff sleep.
	DefaultRetryMaxWait = 60 * time.Second

	// DefaultRateLimit is the number of page requests allowed per second.
	// Scholar bans bursts quickly, so one request per second is the ceiling.
	DefaultRateLimit = 1.0

	// DefaultUserAgent mimics a desktop browser. Scholar serves a degraded
	// page or a challenge to unknown agents.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

	// DefaultProxyMode routes requests without any proxy.
	DefaultProxyMode = "direct"

	// DefaultTorProxyAddress is the standard Tor SOCKS5 proxy address.
	DefaultTorProxyAddress = "127.0.0.1:9050"

	// DefaultTorControlAddress is the standard Tor control port.
	DefaultTorControlAddress = "127.0.0.1:9051"

	// DefaultTorStartupTimeout is the maximum time to wait for the embedded
	// Tor daemon to bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute

	// DefaultProxyCheckURL is requested through every free proxy candidate.
	DefaultProxyCheckURL = "https://scholar.google.com/"

	// DefaultProxyCheckTimeout bounds a single candidate check.
	DefaultProxyCheckTimeout = 10 * time.Second

	// DefaultProxyCheckConcurrency is the number of candidates checked at once.
	DefaultProxyCheckConcurrency = 20

	// DefaultMaxFailures is the number of consecutive failed fetches after
	// which the active exit is considered burned.
	DefaultMaxFailures = 3

	// DefaultMaxRecoveries is the number of times the CLI refreshes the
	// exit and resumes a traversal before giving up.
	DefaultMaxRecoveries = 3

	// DefaultSortBy orders an author's publications by citation count.
	DefaultSortBy = "citedby"
)

// ProxyModes lists the accepted values of Config.ProxyMode.
var ProxyModes = []string{"direct", "free-proxies", "tor", "scraper-api"}

// DefaultProxySources are plain host:port lists of free HTTP proxies.
var DefaultProxySources = []string{
	"https://raw.githubusercontent.com/TheSpeedX/PROXY-List/master/http.txt",
	"https://raw.githubusercontent.com/monosans/proxy-list/main/proxies/http.txt",
}

// DefaultProxyTableSources are HTML pages listing free proxies in a table.
var DefaultProxyTableSources = []string{
	"https://free-proxy-list.net/",
}

// Config holds all configuration options for scholarnav.
// It is populated from defaults, the YAML config file, the environment and
// CLI flags (in that order) and passed down explicitly; nothing reads it
// from global state.
type Config struct {
	// BaseURL is the site origin. Tests point it at a local server.
	BaseURL string

	// Timeout is the per-request timeout. Zero disables the deadline.
	Timeout time.Duration

	// RetryCount is the number of transport retries on transient statuses.
	RetryCount int

	// RetryWait is the base backoff between retries.
	RetryWait time.Duration

	// RetryMaxWait caps a single backoff sleep.
	RetryMaxWait time.Duration

	// RateLimit is the number of requests per second. Zero disables limiting.
	RateLimit float64

	// UserAgent is sent with every request.
	UserAgent string

	// ProxyMode selects the exit strategy; one of ProxyModes.
	ProxyMode string

	// APIKey is the third-party unblocking API key (scraper-api mode).
	APIKey string

	// Premium requests premium residential proxies from the unblocking API.
	Premium bool

	// TorProxyAddress is the Tor SOCKS5 address used when the embedded
	// daemon is disabled.
	TorProxyAddress string

	// TorControlAddress is the control port used to request new circuits.
	TorControlAddress string

	// TorPassword authenticates against the control port.
	TorPassword string

	// UseEmbeddedTor starts a private Tor daemon instead of using TorProxyAddress.
	UseEmbeddedTor bool

	// TorStartupTimeout bounds the embedded daemon bootstrap.
	TorStartupTimeout time.Duration

	// ProxySources are URLs of plain host:port free proxy lists.
	ProxySources []string

	// ProxyTableSources are URLs of HTML pages listing free proxies.
	ProxyTableSources []string

	// ProxyCheckURL is requested through each free proxy candidate.
	ProxyCheckURL string

	// ProxyCheckTimeout bounds a single candidate check.
	ProxyCheckTimeout time.Duration

	// ProxyCheckConcurrency is the number of candidates checked at once.
	ProxyCheckConcurrency int

	// ProxyCountries restricts free proxies to these ISO country codes.
	// Requires GeoIPDatabase.
	ProxyCountries []string

	// GeoIPDatabase is the path to a MaxMind country or city database.
	GeoIPDatabase string

	// MaxFailures is the number of consecutive failures that burn an exit.
	MaxFailures int

	// MaxRecoveries is the number of refresh-and-resume cycles per traversal.
	MaxRecoveries int

	// MaxRecords stops a traversal after this many records. Zero means no limit.
	MaxRecords int

	// SortBy orders author publications: "citedby" or "year".
	SortBy string

	// Sections restricts which parts of an author profile are filled.
	Sections []string

	// PublicationLimit caps the number of author publications filled. Zero means no limit.
	PublicationLimit int

	// Verbose enables debug logging.
	Verbose bool

	// Quiet limits logging to errors.
	Quiet bool

	// JSONReport writes records as JSON. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport writes records as Markdown tables.
	MarkdownReport bool

	// ReportFile is the output path; empty means stdout.
	ReportFile string

	// ConfigFilePath is the explicit configuration file path, if any.
	ConfigFilePath string

	// DBDir is the directory holding the validated proxy database.
	// Defaults to the XDG data directory.
	DBDir string

	// TraceEndpoint is the OTLP/HTTP URL fetch spans are exported to,
	// e.g. http://localhost:4318/v1/traces. Empty disables tracing.
	TraceEndpoint string

	// TraceHeaders are sent with every trace export request.
	TraceHeaders map[string]string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		BaseURL:               DefaultBaseURL,
		Timeout:               DefaultTimeout,
		RetryCount:            DefaultRetryCount,
		RetryWait:             DefaultRetryWait,
		RetryMaxWait:          DefaultRetryMaxWait,
		RateLimit:             DefaultRateLimit,
		UserAgent:             DefaultUserAgent,
		ProxyMode:             DefaultProxyMode,
		TorProxyAddress:       DefaultTorProxyAddress,
		TorControlAddress:     DefaultTorControlAddress,
		TorStartupTimeout:     DefaultTorStartupTimeout,
		ProxySources:          slices.Clone(DefaultProxySources),
		ProxyTableSources:     slices.Clone(DefaultProxyTableSources),
		ProxyCheckURL:         DefaultProxyCheckURL,
		ProxyCheckTimeout:     DefaultProxyCheckTimeout,
		ProxyCheckConcurrency: DefaultProxyCheckConcurrency,
		MaxFailures:           DefaultMaxFailures,
		MaxRecoveries:         DefaultMaxRecoveries,
		SortBy:                DefaultSortBy,
		DBDir:                 XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for scholarnav.
// On Linux: ~/.local/share/scholarnav
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for scholarnav.
// On Linux: ~/.config/scholarnav
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as one of the sentinel errors in errors.go.
// Mode-specific requirements (an API key for scraper-api, a reachable Tor
// proxy) are checked by the proxy provider when the mode is configured.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrInvalidBaseURL
	}

	// Zero is allowed and means "no deadline"
	if c.Timeout < 0 {
		return ErrInvalidTimeout
	}

	if c.RetryCount < 0 {
		return ErrInvalidRetryCount
	}

	if c.RetryWait < 0 || c.RetryMaxWait < 0 {
		return ErrInvalidRetryWait
	}

	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}

	if !slices.Contains(ProxyModes, c.ProxyMode) {
		return ErrUnknownProxyMode
	}

	if c.MaxRecords < 0 {
		return ErrInvalidMaxRecords
	}

	if c.SortBy != "citedby" && c.SortBy != "year" {
		return ErrInvalidSortBy
	}

	if len(c.ProxyCountries) > 0 && c.GeoIPDatabase == "" {
		return ErrCountryFilterNeedsGeoIP
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.TraceEndpoint != "" {
		if u, err := url.Parse(c.TraceEndpoint); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return ErrInvalidTraceEndpoint
		}
	}

	return nil
}
