package proxy

import (
	"errors"
	"fmt"
)

// Sentinel errors wrapped by ConfigurationError.
var (
	// ErrUnknownMode is returned for a mode outside Modes.
	ErrUnknownMode = errors.New("unknown proxy mode")

	// ErrMissingAPIKey is returned when scraper-api mode has no API key.
	ErrMissingAPIKey = errors.New("scraper-api mode requires an API key")

	// ErrNoProxySources is returned when free-proxies mode has nothing to harvest.
	ErrNoProxySources = errors.New("free-proxies mode requires at least one proxy source")

	// ErrInvalidTorAddress is returned when a Tor address is not host:port.
	ErrInvalidTorAddress = errors.New("invalid Tor address")

	// ErrInvalidRetryPolicy is returned for negative retry settings.
	ErrInvalidRetryPolicy = errors.New("invalid retry policy")
)

// ConfigurationError reports options that are invalid for the requested mode.
// The provider keeps its previous state when Configure fails this way.
type ConfigurationError struct {
	Mode Mode
	Err  error
}

// Error implements error.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s proxy configuration: %v", e.Mode, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ProviderUnavailableError reports that an exit could not be set up or
// failed its probe: the Tor proxy is unreachable, no free proxy is alive,
// and so on.
type ProviderUnavailableError struct {
	Mode   Mode
	Reason string
	Err    error
}

// Error implements error.
func (e *ProviderUnavailableError) Error() string {
	msg := fmt.Sprintf("%s proxy unavailable: %s", e.Mode, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ProviderUnavailableError) Unwrap() error {
	return e.Err
}
