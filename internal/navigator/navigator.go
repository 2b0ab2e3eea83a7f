package navigator

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/nao1215/scholarnav/internal/fetch"
	"github.com/nao1215/scholarnav/internal/log"
	"github.com/nao1215/scholarnav/internal/proxy"
)

// DefaultBaseURL is the origin every relative path is resolved against.
const DefaultBaseURL = "https://scholar.google.com"

// Navigator is the entry point for Scholar queries. It binds a Provider to
// the fetch options shared by every traversal it starts. Each operation
// captures the Provider's current Session when it starts.
type Navigator struct {
	provider  *proxy.Provider
	baseURL   *url.URL
	logger    *slog.Logger
	logSwitch *log.Switch
	limiter   *rate.Limiter
	tracer    trace.Tracer
	timeout   atomic.Int64
}

// Option configures a Navigator.
type Option func(*Navigator) error

// WithBaseURL replaces DefaultBaseURL. It is mostly useful in tests.
func WithBaseURL(raw string) Option {
	return func(n *Navigator) error {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid base URL %q: %w", raw, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
			return fmt.Errorf("invalid base URL %q: want an absolute http(s) URL", raw)
		}
		u.Path = strings.TrimSuffix(u.Path, "/")
		n.baseURL = u
		return nil
	}
}

// WithLogger sets the logger. Fetch entries go through the logging switch.
func WithLogger(l *slog.Logger) Option {
	return func(n *Navigator) error {
		if l != nil {
			n.logger = l
		}
		return nil
	}
}

// WithRateLimit caps the request rate of every traversal started by the
// Navigator. Zero or less disables the limit.
func WithRateLimit(perSecond float64) Option {
	return func(n *Navigator) error {
		n.limiter = fetch.NewLimiter(perSecond)
		return nil
	}
}

// WithTracer sets the tracer used for fetch spans.
func WithTracer(t trace.Tracer) Option {
	return func(n *Navigator) error {
		n.tracer = t
		return nil
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(n *Navigator) error {
		n.SetTimeout(d)
		return nil
	}
}

// New returns a Navigator sending requests through provider.
func New(provider *proxy.Provider, opts ...Option) (*Navigator, error) {
	if provider == nil {
		return nil, errors.New("navigator: nil proxy provider")
	}
	base, _ := url.Parse(DefaultBaseURL)
	n := &Navigator{
		provider:  provider,
		baseURL:   base,
		logger:    slog.Default(),
		logSwitch: log.NewSwitch(true),
	}
	n.timeout.Store(int64(fetch.DefaultTimeout))
	for _, opt := range opts {
		if err := opt(n); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// Provider returns the proxy provider the Navigator draws sessions from.
func (n *Navigator) Provider() *proxy.Provider {
	return n.provider
}

// BaseURL returns the origin paths are resolved against.
func (n *Navigator) BaseURL() string {
	return n.baseURL.String()
}

// SetTimeout changes the per-request timeout of traversals started after
// the call. Negative values are ignored.
func (n *Navigator) SetTimeout(d time.Duration) {
	if d < 0 {
		return
	}
	n.timeout.Store(int64(d))
}

// Timeout returns the per-request timeout.
func (n *Navigator) Timeout() time.Duration {
	return time.Duration(n.timeout.Load())
}

// SetLogger turns request logging on or off, including for traversals
// already in progress.
func (n *Navigator) SetLogger(enabled bool) {
	n.logSwitch.Set(enabled)
}

func (n *Navigator) log() *slog.Logger {
	return n.logSwitch.Logger(n.logger)
}

// fetcher returns a fetcher bound to the provider's current session.
func (n *Navigator) fetcher() *fetch.Fetcher {
	return n.fetcherFor(n.provider.Current().Session, n.log())
}

func (n *Navigator) fetcherFor(session *proxy.Session, logger *slog.Logger) *fetch.Fetcher {
	return fetch.New(session,
		fetch.WithTimeout(n.Timeout()),
		fetch.WithLimiter(n.limiter),
		fetch.WithLogger(logger),
		fetch.WithTracer(n.tracer),
	)
}

// resolve turns a path into an absolute URL on the base origin. Absolute
// URLs are accepted only when they point at the same host.
func (n *Navigator) resolve(path string) (*url.URL, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPath, path, err)
	}
	if ref.IsAbs() || ref.Host != "" {
		if ref.Host != n.baseURL.Host {
			return nil, fmt.Errorf("%w: %q is not on %s", ErrInvalidPath, path, n.baseURL.Host)
		}
		ref.Scheme = n.baseURL.Scheme
		return ref, nil
	}
	if !strings.HasPrefix(ref.Path, "/") {
		return nil, fmt.Errorf("%w: %q must start with /", ErrInvalidPath, path)
	}
	return n.baseURL.ResolveReference(&url.URL{
		Path:     n.baseURL.Path + ref.Path,
		RawQuery: ref.RawQuery,
	}), nil
}

// AuthorSearchPath returns the listing path of an author name search.
func AuthorSearchPath(name string) string {
	return "/citations?hl=en&view_op=search_authors&mauthors=" + url.QueryEscape(name)
}

// AuthorIDPath returns the profile path of a Scholar ID.
func AuthorIDPath(id string) string {
	return "/citations?hl=en&user=" + url.QueryEscape(id)
}

// PublicationSearchPath returns the listing path of a keyword search.
func PublicationSearchPath(query string) string {
	return "/scholar?hl=en&q=" + url.QueryEscape(query)
}

// OrganizationSearchPath returns the listing path for an institution name.
// Institution rows are shown above the author rows of a name search.
func OrganizationSearchPath(name string) string {
	return AuthorSearchPath(name)
}

// OrganizationAuthorsPath returns the author listing of an organization ID.
func OrganizationAuthorsPath(orgID string) string {
	return "/citations?view_op=view_org&hl=en&org=" + url.QueryEscape(orgID)
}

// CitationDetailPath returns the detail page of a profile publication.
func CitationDetailPath(authorPubID string) string {
	return "/citations?view_op=view_citation&hl=en&citation_for_view=" + url.QueryEscape(authorPubID)
}
