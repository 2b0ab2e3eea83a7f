package config

import "time"

// File represents the structure of the .scholarnav configuration file.
// Zero values mean "not set" and leave the corresponding Config field alone;
// booleans are pointers so that an explicit false can override a default.
type File struct {
	// BaseURL overrides the site origin.
	BaseURL string `yaml:"baseURL,omitempty"`

	// Timeout is the per-request timeout, e.g. "5s".
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// RateLimit is the number of requests per second.
	RateLimit float64 `yaml:"rateLimit,omitempty"`

	// UserAgent overrides the browser User-Agent.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Retry tunes the transport retry policy.
	Retry RetryFile `yaml:"retry,omitempty"`

	// Proxy selects and configures the exit strategy.
	Proxy ProxyFile `yaml:"proxy,omitempty"`

	// Output selects the default report format.
	Output OutputFile `yaml:"output,omitempty"`

	// Telemetry configures span export.
	Telemetry TelemetryFile `yaml:"telemetry,omitempty"`
}

// TelemetryFile holds the telemetry section of the configuration file.
type TelemetryFile struct {
	// Endpoint is the OTLP/HTTP traces URL.
	Endpoint string            `yaml:"endpoint,omitempty"`
	Headers  map[string]string `yaml:"headers,omitempty"`
}

// RetryFile holds the retry section of the configuration file.
type RetryFile struct {
	Count   *int          `yaml:"count,omitempty"`
	Wait    time.Duration `yaml:"wait,omitempty"`
	MaxWait time.Duration `yaml:"maxWait,omitempty"`
}

// ProxyFile holds the proxy section of the configuration file.
type ProxyFile struct {
	// Mode is one of direct, free-proxies, tor, scraper-api.
	Mode string `yaml:"mode,omitempty"`

	// APIKey is the unblocking API key. Prefer SCHOLARNAV_API_KEY in .env.
	APIKey string `yaml:"apiKey,omitempty"`

	// Premium requests premium proxies from the unblocking API.
	Premium *bool `yaml:"premium,omitempty"`

	// MaxFailures burns the active exit after this many consecutive failures.
	MaxFailures int `yaml:"maxFailures,omitempty"`

	// MaxRecoveries is the number of refresh-and-resume cycles per traversal.
	MaxRecoveries *int `yaml:"maxRecoveries,omitempty"`

	Tor  TorFile  `yaml:"tor,omitempty"`
	Free FreeFile `yaml:"free,omitempty"`
}

// TorFile holds the proxy.tor section of the configuration file.
type TorFile struct {
	Address        string        `yaml:"address,omitempty"`
	ControlAddress string        `yaml:"controlAddress,omitempty"`
	Password       string        `yaml:"password,omitempty"`
	Embedded       *bool         `yaml:"embedded,omitempty"`
	StartupTimeout time.Duration `yaml:"startupTimeout,omitempty"`
}

// FreeFile holds the proxy.free section of the configuration file.
type FreeFile struct {
	Sources          []string      `yaml:"sources,omitempty"`
	TableSources     []string      `yaml:"tableSources,omitempty"`
	CheckURL         string        `yaml:"checkURL,omitempty"`
	CheckTimeout     time.Duration `yaml:"checkTimeout,omitempty"`
	CheckConcurrency int           `yaml:"checkConcurrency,omitempty"`
	Countries        []string      `yaml:"countries,omitempty"`
	GeoIPDatabase    string        `yaml:"geoipDatabase,omitempty"`
}

// OutputFile holds the output section of the configuration file.
type OutputFile struct {
	// Format is one of text, json, markdown.
	Format string `yaml:"format,omitempty"`
}

// Apply copies every value set in the file onto cfg.
func (f *File) Apply(cfg *Config) {
	setString(&cfg.BaseURL, f.BaseURL)
	setDuration(&cfg.Timeout, f.Timeout)
	if f.RateLimit != 0 {
		cfg.RateLimit = f.RateLimit
	}
	setString(&cfg.UserAgent, f.UserAgent)

	if f.Retry.Count != nil {
		cfg.RetryCount = *f.Retry.Count
	}
	setDuration(&cfg.RetryWait, f.Retry.Wait)
	setDuration(&cfg.RetryMaxWait, f.Retry.MaxWait)

	p := f.Proxy
	setString(&cfg.ProxyMode, p.Mode)
	setString(&cfg.APIKey, p.APIKey)
	if p.Premium != nil {
		cfg.Premium = *p.Premium
	}
	if p.MaxFailures != 0 {
		cfg.MaxFailures = p.MaxFailures
	}
	if p.MaxRecoveries != nil {
		cfg.MaxRecoveries = *p.MaxRecoveries
	}

	setString(&cfg.TorProxyAddress, p.Tor.Address)
	setString(&cfg.TorControlAddress, p.Tor.ControlAddress)
	setString(&cfg.TorPassword, p.Tor.Password)
	if p.Tor.Embedded != nil {
		cfg.UseEmbeddedTor = *p.Tor.Embedded
	}
	setDuration(&cfg.TorStartupTimeout, p.Tor.StartupTimeout)

	if len(p.Free.Sources) > 0 {
		cfg.ProxySources = p.Free.Sources
	}
	if len(p.Free.TableSources) > 0 {
		cfg.ProxyTableSources = p.Free.TableSources
	}
	setString(&cfg.ProxyCheckURL, p.Free.CheckURL)
	setDuration(&cfg.ProxyCheckTimeout, p.Free.CheckTimeout)
	if p.Free.CheckConcurrency != 0 {
		cfg.ProxyCheckConcurrency = p.Free.CheckConcurrency
	}
	if len(p.Free.Countries) > 0 {
		cfg.ProxyCountries = p.Free.Countries
	}
	setString(&cfg.GeoIPDatabase, p.Free.GeoIPDatabase)

	setString(&cfg.TraceEndpoint, f.Telemetry.Endpoint)
	if len(f.Telemetry.Headers) > 0 {
		cfg.TraceHeaders = f.Telemetry.Headers
	}

	switch f.Output.Format {
	case "json":
		cfg.JSONReport, cfg.MarkdownReport = true, false
	case "markdown":
		cfg.JSONReport, cfg.MarkdownReport = false, true
	case "text":
		cfg.JSONReport, cfg.MarkdownReport = false, false
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}
