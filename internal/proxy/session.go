package proxy

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

// Session is an HTTP client bound to one exit and the transport retry
// policy. It is shared read-only by every fetcher created from it and is
// never mutated after construction.
type Session struct {
	mode   Mode
	config Config
	exit   string
	client *resty.Client
}

// sessionParams carries what a Session needs besides its transport.
type sessionParams struct {
	mode      Mode
	config    Config
	exit      string
	userAgent string
	retry     RetryPolicy
	insecure  bool
	logger    *slog.Logger
}

func newSession(transport *http.Transport, p sessionParams) *Session {
	rt := cloudflarebp.AddCloudFlareByPass(transport)
	// The bypass installs its own TLS settings, so verification is relaxed
	// afterwards for exits that intercept TLS.
	if p.insecure {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		transport.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec // the unblocking API re-signs TLS
	}

	client := resty.New().
		SetTransport(&attemptTransport{next: rt}).
		SetLogger(restyLogger{logger: p.logger.With("component", "resty")}).
		SetHeader("User-Agent", p.userAgent).
		SetHeader("Accept-Language", "en-US,en;q=0.9").
		SetRetryCount(p.retry.Count).
		SetRetryWaitTime(p.retry.Wait).
		SetRetryMaxWaitTime(p.retry.MaxWait).
		AddRetryCondition(retryCondition)

	client.AddRetryHook(func(resp *resty.Response, err error) {
		logger := p.logger
		attrs := []any{"mode", p.mode, "exit", p.exit}
		if resp != nil && resp.Request != nil {
			if l := requestLogger(resp.Request.Context()); l != nil {
				logger = l
			}
			attrs = append(attrs, "attempt", resp.Request.Attempt, "url", resp.Request.URL)
		}
		if resp != nil && resp.RawResponse != nil {
			attrs = append(attrs, "status", resp.StatusCode())
		}
		if err != nil {
			attrs = append(attrs, "error", err)
		}
		logger.Debug("retrying request", attrs...)
	})

	return &Session{
		mode:   p.mode,
		config: p.config,
		exit:   p.exit,
		client: client,
	}
}

// retryCondition retries transport errors and the statuses in RetryStatuses.
func retryCondition(resp *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	return resp != nil && resp.RawResponse != nil && slices.Contains(RetryStatuses, resp.StatusCode())
}

// Mode returns the mode the session was built for.
func (s *Session) Mode() Mode {
	return s.mode
}

// Config returns the proxy mapping of the session.
func (s *Session) Config() Config {
	return s.config
}

// Exit describes where requests leave, without credentials.
func (s *Session) Exit() string {
	return s.exit
}

// Client returns the underlying resty client.
func (s *Session) Client() *resty.Client {
	return s.client
}

// R starts a request bound to ctx. A logger attached with
// WithRequestLogger replaces the session's logger for that request.
func (s *Session) R(ctx context.Context) *resty.Request {
	req := s.client.R().SetContext(ctx)
	if l := requestLogger(ctx); l != nil {
		req.SetLogger(restyLogger{logger: l.With("component", "resty")})
	}
	return req
}

type requestLoggerKey struct{}

// WithRequestLogger returns a context whose requests report retries and
// client messages to l.
func WithRequestLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, requestLoggerKey{}, l)
}

func requestLogger(ctx context.Context) *slog.Logger {
	l, _ := ctx.Value(requestLoggerKey{}).(*slog.Logger)
	return l
}

// newTransport builds the base transport for cfg. Direct configs use no
// proxy at all, not even the environment's.
func newTransport(cfg Config) *http.Transport {
	tr := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
	}
	if !cfg.IsDirect() {
		tr.Proxy = cfg.ProxyFunc()
	}
	return tr
}

type attemptTimeoutKey struct{}

// WithAttemptTimeout returns a context that bounds every transport attempt
// made with it by d. Backoff sleeps between attempts are not counted.
// A zero d leaves attempts unbounded.
func WithAttemptTimeout(ctx context.Context, d time.Duration) context.Context {
	return context.WithValue(ctx, attemptTimeoutKey{}, d)
}

func attemptTimeout(ctx context.Context) time.Duration {
	d, _ := ctx.Value(attemptTimeoutKey{}).(time.Duration)
	return d
}

// attemptTransport applies the per-attempt timeout carried by the request
// context. The deadline stays active until the body is closed.
type attemptTransport struct {
	next http.RoundTripper
}

func (t *attemptTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	d := attemptTimeout(req.Context())
	if d <= 0 {
		return t.next.RoundTrip(req)
	}

	ctx, cancel := context.WithTimeout(req.Context(), d)
	resp, err := t.next.RoundTrip(req.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// restyLogger forwards resty's internal messages to slog at debug level;
// the fetcher reports outcomes itself.
type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.logger.Debug(fmt.Sprintf(format, v...), "resty_level", "error")
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.logger.Debug(fmt.Sprintf(format, v...), "resty_level", "warn")
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}
