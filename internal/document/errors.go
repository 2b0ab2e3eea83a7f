package document

import (
	"errors"
	"fmt"
)

// ErrEmptyResultSet is returned by Normalize when the page says the query
// matched nothing. The fetch succeeded; there is simply no content, so
// callers should not retry or rotate proxies because of it.
var ErrEmptyResultSet = errors.New("search did not match any articles")

// MalformedPageError reports that a page lacks a structural marker the
// caller depends on, or carries one that cannot be decoded.
type MalformedPageError struct {
	// Marker is the selector or attribute that was missing or broken.
	Marker string

	// Reason describes what was wrong with it.
	Reason string

	// Err is the underlying decoding error, if any.
	Err error
}

// Error implements error.
func (e *MalformedPageError) Error() string {
	msg := fmt.Sprintf("malformed page: %s: %s", e.Marker, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying decoding error.
func (e *MalformedPageError) Unwrap() error {
	return e.Err
}
