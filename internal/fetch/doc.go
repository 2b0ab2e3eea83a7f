// Package fetch performs single page requests and classifies their failures.
//
// A Fetcher sends a GET through a proxy.Session, which owns the transport
// retry policy (429 and 5xx statuses, transport errors). What is left after
// those retries is reported as one of:
//   - *TransportError: no response, including per-request timeouts.
//   - *HTTPStatusError: a final status other than 200.
//   - *ChallengeError: a CAPTCHA or "sorry" page, whatever its status.
//
// Every fetch produces one log entry and one OpenTelemetry span. Fetchers
// created for the same navigator share a rate limiter.
package fetch
