package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/semconv/v1.13.0/httpconv"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/nao1215/scholarnav/internal/proxy"
)

// DefaultTimeout bounds each request attempt.
const DefaultTimeout = 5 * time.Second

// tracerName identifies spans created by this package.
const tracerName = "github.com/nao1215/scholarnav/internal/fetch"

// Fetcher performs single page GETs through one proxy.Session.
// It does not retry beyond the session's transport retry policy.
type Fetcher struct {
	session *proxy.Session
	timeout atomic.Int64
	limiter *rate.Limiter
	logger  *slog.Logger
	tracer  trace.Tracer
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-request timeout. Negative values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.SetTimeout(d)
	}
}

// WithLimiter shares a rate limiter between fetchers. Nil disables limiting.
func WithLimiter(l *rate.Limiter) Option {
	return func(f *Fetcher) {
		f.limiter = l
	}
}

// WithLogger sets the logger used for the per-request log entry.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithTracer sets the tracer used for fetch spans.
func WithTracer(t trace.Tracer) Option {
	return func(f *Fetcher) {
		if t != nil {
			f.tracer = t
		}
	}
}

// New creates a Fetcher bound to session.
func New(session *proxy.Session, opts ...Option) *Fetcher {
	f := &Fetcher{
		session: session,
		logger:  slog.Default(),
		tracer:  otel.Tracer(tracerName),
	}
	f.timeout.Store(int64(DefaultTimeout))
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewLimiter returns a limiter allowing perSecond requests per second with
// a burst of one. Zero or less returns nil, which disables limiting.
func NewLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

// SetTimeout changes the per-request timeout. Zero disables the deadline;
// negative values are ignored and leave the previous timeout in place.
func (f *Fetcher) SetTimeout(d time.Duration) {
	if d < 0 {
		return
	}
	f.timeout.Store(int64(d))
}

// Timeout returns the per-request timeout.
func (f *Fetcher) Timeout() time.Duration {
	return time.Duration(f.timeout.Load())
}

// Session returns the session the fetcher sends requests through.
func (f *Fetcher) Session() *proxy.Session {
	return f.session
}

// Fetch GETs rawURL and returns the decoded body of a 200 response.
// Failures are classified as *TransportError, *HTTPStatusError or
// *ChallengeError. An unusable URL returns ErrInvalidURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if err := validateURL(rawURL); err != nil {
		return "", err
	}

	ctx, span := f.tracer.Start(ctx, "fetch.page",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.url", rawURL),
			attribute.String("proxy.mode", f.session.Mode().String()),
		),
	)
	defer span.End()

	start := time.Now()
	body, status, attempts, err := f.fetch(ctx, rawURL, span)

	attrs := []any{
		"url", rawURL,
		"mode", f.session.Mode(),
		"exit", f.session.Exit(),
		"attempts", attempts,
		"elapsed", time.Since(start).Round(time.Millisecond),
	}
	if status != 0 {
		attrs = append(attrs, "status", status)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		f.logger.WarnContext(ctx, "fetch failed", append(attrs, "error", err)...)
		return "", err
	}
	span.SetStatus(codes.Ok, "")
	f.logger.InfoContext(ctx, "fetched page", attrs...)
	return body, nil
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string, span trace.Span) (string, int, int, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", 0, 0, &TransportError{URL: rawURL, Err: fmt.Errorf("rate limiter: %w", err)}
		}
	}

	reqCtx := proxy.WithRequestLogger(proxy.WithAttemptTimeout(ctx, f.Timeout()), f.logger)
	resp, err := f.session.R(reqCtx).Get(rawURL)
	attempts := 1
	if resp != nil && resp.Request != nil && resp.Request.Attempt > 0 {
		attempts = resp.Request.Attempt
	}
	span.SetAttributes(attribute.Int("fetch.attempts", attempts))
	if err != nil {
		return "", 0, attempts, &TransportError{URL: rawURL, Timeout: isTimeout(err), Err: err}
	}
	if resp.RawResponse == nil {
		return "", 0, attempts, &TransportError{URL: rawURL, Err: errors.New("no response")}
	}
	span.SetAttributes(httpconv.ClientResponse(resp.RawResponse)...)

	status := resp.StatusCode()
	body := decodeBody(resp.Body(), resp.Header().Get("Content-Type"))

	var final *url.URL
	if resp.RawResponse.Request != nil {
		final = resp.RawResponse.Request.URL
	}
	if reason, ok := detectChallenge(final, body); ok {
		return "", status, attempts, &ChallengeError{URL: rawURL, StatusCode: status, Reason: reason}
	}
	if status != http.StatusOK {
		return "", status, attempts, &HTTPStatusError{URL: rawURL, StatusCode: status}
	}
	return body, status, attempts, nil
}

func validateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %q is not an http(s) URL", ErrInvalidURL, rawURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: %q has no host", ErrInvalidURL, rawURL)
	}
	return nil
}

// decodeBody converts body to UTF-8 using the declared or sniffed charset.
func decodeBody(body []byte, contentType string) string {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return string(body)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
