// Package proxy owns the exit strategy used for every request to Scholar.
//
// A Provider is configured for one Mode at a time:
//   - ModeDirect: no proxy.
//   - ModeFreeProxies: a rotating pool of public proxies from proxypool.
//   - ModeTor: a SOCKS5 circuit, external or embedded, probed at setup.
//   - ModeScraperAPI: the ZenRows unblocking proxy, authenticated by API key.
//
// Configure validates the options, builds a Session (a resty client with the
// transport retry policy) and a Config (scheme to proxy URI), and publishes
// both in one atomic store. Current returns the published Snapshot without
// locking. Traversals keep the Session they captured, so a later Configure
// or Refresh never changes requests already in flight.
//
// The provider does not retry failed fetches. Callers report outcomes with
// ReportFailure and ReportSuccess and call Refresh when an exit is burned.
package proxy
