package proxypool

import "errors"

var (
	// ErrUnexpectedStatus is returned when a proxy list responds with a non-200 status.
	ErrUnexpectedStatus = errors.New("unexpected status from proxy source")

	// ErrNoAliveProxies is returned when no candidate passed validation.
	ErrNoAliveProxies = errors.New("no alive proxies")

	// ErrPoolExhausted is returned by Pool.Next when every proxy has been removed.
	ErrPoolExhausted = errors.New("proxy pool exhausted")

	// ErrNoSources is returned when a harvest is requested without sources.
	ErrNoSources = errors.New("no proxy sources configured")
)
