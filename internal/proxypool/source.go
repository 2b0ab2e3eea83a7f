package proxypool

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gocolly/colly/v2"

	"github.com/nao1215/scholarnav/internal/model"
)

// DefaultUserAgent is sent by sources that scrape public proxy lists.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// defaultSourceTimeout bounds a single list download.
const defaultSourceTimeout = 20 * time.Second

// Source is a public list of candidate proxies.
type Source interface {
	// Name identifies the source in logs and stored records.
	Name() string

	// Fetch downloads the current candidates. Candidates are unchecked.
	Fetch(ctx context.Context) ([]model.Proxy, error)
}

// ListSource reads a plain text list with one host:port per line.
type ListSource struct {
	name     string
	url      string
	protocol string
	client   *resty.Client
}

// NewListSource creates a source for a raw host:port list.
// When protocol is empty it is inferred from the URL: lists whose URL
// mentions socks5 are treated as SOCKS5, everything else as HTTP.
func NewListSource(rawURL, protocol string) *ListSource {
	if protocol == "" {
		protocol = inferProtocol(rawURL)
	}
	client := resty.New().
		SetTimeout(defaultSourceTimeout).
		SetHeader("User-Agent", DefaultUserAgent)

	return &ListSource{
		name:     sourceName(rawURL),
		url:      rawURL,
		protocol: protocol,
		client:   client,
	}
}

// Name implements Source.
func (s *ListSource) Name() string {
	return s.name
}

// Fetch implements Source.
func (s *ListSource) Fetch(ctx context.Context) ([]model.Proxy, error) {
	resp, err := s.client.R().SetContext(ctx).Get(s.url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", s.name, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, s.name, resp.StatusCode())
	}

	var proxies []model.Proxy
	scanner := bufio.NewScanner(strings.NewReader(resp.String()))
	for scanner.Scan() {
		p, ok := model.ParseProxy(scanner.Text(), s.protocol)
		if !ok {
			continue
		}
		p.Source = s.name
		proxies = append(proxies, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.name, err)
	}
	return proxies, nil
}

// TableSource scrapes an HTML table of proxies in the layout used by
// free-proxy-list.net: IP in the first column, port in the second and an
// "https" yes/no flag in the seventh. Only rows flagged as supporting HTTPS
// targets are kept, since every Scholar page is served over TLS.
type TableSource struct {
	name      string
	url       string
	userAgent string
	timeout   time.Duration
}

// NewTableSource creates a source for an HTML proxy table.
func NewTableSource(rawURL string) *TableSource {
	return &TableSource{
		name:      sourceName(rawURL),
		url:       rawURL,
		userAgent: DefaultUserAgent,
		timeout:   defaultSourceTimeout,
	}
}

// Name implements Source.
func (s *TableSource) Name() string {
	return s.name
}

// Fetch implements Source.
func (s *TableSource) Fetch(ctx context.Context) ([]model.Proxy, error) {
	c := colly.NewCollector(
		colly.UserAgent(s.userAgent),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(s.timeout)

	var (
		mu        sync.Mutex
		proxies   []model.Proxy
		scrapeErr error
	)

	c.OnHTML("table tbody tr", func(e *colly.HTMLElement) {
		host := strings.TrimSpace(e.ChildText("td:nth-child(1)"))
		port := strings.TrimSpace(e.ChildText("td:nth-child(2)"))
		if host == "" || port == "" {
			return
		}
		if !strings.EqualFold(strings.TrimSpace(e.ChildText("td:nth-child(7)")), "yes") {
			return
		}

		p, ok := model.ParseProxy(net.JoinHostPort(host, port), model.ProtocolHTTP)
		if !ok {
			return
		}
		p.Source = s.name

		mu.Lock()
		proxies = append(proxies, p)
		mu.Unlock()
	})

	c.OnError(func(r *colly.Response, err error) {
		mu.Lock()
		scrapeErr = fmt.Errorf("failed to scrape %s (status %d): %w", s.name, r.StatusCode, err)
		mu.Unlock()
	})

	if err := c.Visit(s.url); err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", s.name, err)
	}
	c.Wait()

	if scrapeErr != nil {
		return nil, scrapeErr
	}
	return proxies, nil
}

// NewSources builds list and table sources from URLs.
func NewSources(listURLs, tableURLs []string) []Source {
	sources := make([]Source, 0, len(listURLs)+len(tableURLs))
	for _, u := range listURLs {
		sources = append(sources, NewListSource(u, ""))
	}
	for _, u := range tableURLs {
		sources = append(sources, NewTableSource(u))
	}
	return sources
}

func inferProtocol(rawURL string) string {
	lower := strings.ToLower(rawURL)
	switch {
	case strings.Contains(lower, "socks5"):
		return model.ProtocolSOCKS5
	default:
		return model.ProtocolHTTP
	}
}

// sourceName derives a short name from a list URL: the host plus the last
// path element.
func sourceName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	path := strings.TrimSuffix(u.Path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 && i < len(path)-1 {
		return u.Host + "/" + path[i+1:]
	}
	return u.Host
}
