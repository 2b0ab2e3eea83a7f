package proxypool

import (
	"cmp"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/scholarnav/internal/model"
)

// DefaultConcurrency is the number of proxies checked in parallel.
const DefaultConcurrency = 20

// Checker validates proxies by sending a HEAD request through each of them.
type Checker struct {
	// TargetURL is requested through every candidate.
	TargetURL string

	// Timeout bounds a single check.
	Timeout time.Duration

	// Concurrency limits parallel checks. Zero means DefaultConcurrency.
	Concurrency int
}

// NewChecker creates a Checker.
func NewChecker(targetURL string, timeout time.Duration, concurrency int) *Checker {
	return &Checker{
		TargetURL:   targetURL,
		Timeout:     timeout,
		Concurrency: concurrency,
	}
}

// Check reports whether p can reach the target and returns it with the
// measured latency. A dead proxy is not an error; err is only returned
// when the check itself cannot be built.
func (c *Checker) Check(ctx context.Context, p model.Proxy) (model.Proxy, bool, error) {
	proxyURL, err := url.Parse(p.URL())
	if err != nil {
		return p, false, fmt.Errorf("invalid proxy url: %w", err)
	}

	client := &http.Client{
		Transport: &http.Transport{
			Proxy:             http.ProxyURL(proxyURL),
			DisableKeepAlives: true,
		},
		Timeout: c.Timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, c.TargetURL, nil)
	if err != nil {
		return p, false, fmt.Errorf("bad request: %w", err)
	}
	req.Header.Set("User-Agent", DefaultUserAgent)

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return p, false, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return p, false, nil
	}
	p.Latency = time.Since(start)
	p.CheckedAt = time.Now()
	return p, true, nil
}

// CheckAll validates candidates concurrently and returns the alive ones,
// fastest first. Cancelling ctx stops scheduling new checks.
func (c *Checker) CheckAll(ctx context.Context, candidates []model.Proxy) ([]model.Proxy, error) {
	limit := c.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var (
		mu    sync.Mutex
		alive []model.Proxy
	)
	for _, candidate := range candidates {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			p, ok, err := c.Check(gctx, candidate)
			if err != nil || !ok {
				return nil
			}
			mu.Lock()
			alive = append(alive, p)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(alive, func(a, b model.Proxy) int {
		return cmp.Compare(a.Latency, b.Latency)
	})
	return alive, nil
}
