package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// Callers use errors.Is to react to a specific problem.
var (
	// ErrInvalidBaseURL is returned when the base URL is not an absolute URL.
	ErrInvalidBaseURL = errors.New("invalid base URL: must be absolute (e.g. https://scholar.google.com)")

	// ErrInvalidTimeout is returned when the timeout is negative.
	// Zero is valid and disables the per-request deadline.
	ErrInvalidTimeout = errors.New("invalid timeout: must be non-negative")

	// ErrInvalidRetryCount is returned when the retry count is negative.
	ErrInvalidRetryCount = errors.New("invalid retry count: must be non-negative")

	// ErrInvalidRetryWait is returned when a retry backoff duration is negative.
	ErrInvalidRetryWait = errors.New("invalid retry wait: must be non-negative")

	// ErrInvalidRateLimit is returned when the rate limit is negative.
	ErrInvalidRateLimit = errors.New("invalid rate limit: must be non-negative")

	// ErrUnknownProxyMode is returned when the proxy mode is not one of ProxyModes.
	ErrUnknownProxyMode = errors.New("unknown proxy mode: must be one of direct, free-proxies, tor, scraper-api")

	// ErrInvalidMaxRecords is returned when the record limit is negative.
	ErrInvalidMaxRecords = errors.New("invalid max records: must be non-negative")

	// ErrInvalidSortBy is returned when the publication order is neither "citedby" nor "year".
	ErrInvalidSortBy = errors.New("invalid sort order: must be citedby or year")

	// ErrCountryFilterNeedsGeoIP is returned when a country filter is set without a GeoIP database.
	ErrCountryFilterNeedsGeoIP = errors.New("proxy country filter requires a GeoIP database")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidTraceEndpoint is returned when the trace endpoint is not an http(s) URL.
	ErrInvalidTraceEndpoint = errors.New("invalid trace endpoint: must be an http or https URL")
)
