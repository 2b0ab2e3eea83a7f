package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidURL is returned for URLs that cannot be fetched at all: empty,
// unparsable, relative or with a scheme other than http and https.
// It signals a programming error, not a classified fetch failure.
var ErrInvalidURL = errors.New("invalid URL")

// TransportError reports a request that never produced an HTTP response,
// after the transport retries were spent.
type TransportError struct {
	URL string

	// Timeout is true when the per-request deadline expired.
	Timeout bool

	Err error
}

// Error implements error.
func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("fetch %s: timed out: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPStatusError reports a final status other than 200.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

// Error implements error.
func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// ChallengeError reports an anti-bot page: a CAPTCHA form or a redirect to
// the "sorry" interstitial. Retrying from the same exit does not help.
type ChallengeError struct {
	URL        string
	StatusCode int
	Reason     string
}

// Error implements error.
func (e *ChallengeError) Error() string {
	return fmt.Sprintf("fetch %s: anti-bot challenge (%s, status %d)", e.URL, e.Reason, e.StatusCode)
}

// IsBlocked reports whether err means the current exit is being blocked:
// a challenge page or a 403/429 status. Callers use it to decide whether to
// refresh the proxy provider.
func IsBlocked(err error) bool {
	var challenge *ChallengeError
	if errors.As(err, &challenge) {
		return true
	}
	var status *HTTPStatusError
	if errors.As(err, &status) {
		return status.StatusCode == http.StatusForbidden || status.StatusCode == http.StatusTooManyRequests
	}
	return false
}
