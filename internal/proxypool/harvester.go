package proxypool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/scholarnav/internal/model"
)

// DefaultStoreMaxAge is how old a stored proxy check may be before the
// store entry is ignored.
const DefaultStoreMaxAge = 6 * time.Hour

// Store persists validated proxies between runs.
type Store interface {
	SaveProxies(ctx context.Context, proxies []model.Proxy) error
	ListProxies(ctx context.Context, maxAge time.Duration) ([]model.Proxy, error)
	RecordFailure(ctx context.Context, address string, maxFailures int) (bool, error)
}

// Harvester gathers candidates from sources, validates them and builds pools.
type Harvester struct {
	Sources   []Source
	Checker   *Checker
	GeoIP     *GeoIP
	Store     Store
	Countries []string

	// StoreMaxAge limits which stored proxies are re-checked. Zero means DefaultStoreMaxAge.
	StoreMaxAge time.Duration

	Logger *slog.Logger
}

func (h *Harvester) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

// Gather downloads every source concurrently and returns the de-duplicated
// candidates. Failing sources are logged and skipped; an error is returned
// only when every source failed.
func (h *Harvester) Gather(ctx context.Context) ([]model.Proxy, error) {
	if len(h.Sources) == 0 {
		return nil, ErrNoSources
	}

	var (
		mu       sync.Mutex
		all      []model.Proxy
		failures []error
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, src := range h.Sources {
		g.Go(func() error {
			proxies, err := src.Fetch(gctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				h.logger().Warn("proxy source failed", "source", src.Name(), "error", err)
				failures = append(failures, err)
				return nil
			}
			h.logger().Debug("proxy source fetched", "source", src.Name(), "count", len(proxies))
			all = append(all, proxies...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(failures) == len(h.Sources) {
		return nil, fmt.Errorf("all proxy sources failed: %w", errors.Join(failures...))
	}

	seen := make(map[string]bool, len(all))
	unique := all[:0]
	for _, p := range all {
		if seen[p.Address()] {
			continue
		}
		seen[p.Address()] = true
		unique = append(unique, p)
	}
	return unique, nil
}

// Harvest gathers, validates, annotates and filters candidates, then saves
// the alive ones to the store. The result is ordered fastest first.
func (h *Harvester) Harvest(ctx context.Context) ([]model.Proxy, error) {
	candidates, err := h.Gather(ctx)
	if err != nil {
		return nil, err
	}
	h.logger().Info("checking proxy candidates", "count", len(candidates))

	alive, err := h.validate(ctx, candidates)
	if err != nil {
		return nil, err
	}
	if h.Store != nil && len(alive) > 0 {
		if err := h.Store.SaveProxies(ctx, alive); err != nil {
			h.logger().Warn("failed to save proxies", "error", err)
		}
	}
	return alive, nil
}

// Cached re-checks the proxies remembered by the store.
func (h *Harvester) Cached(ctx context.Context) ([]model.Proxy, error) {
	if h.Store == nil {
		return nil, nil
	}
	maxAge := h.StoreMaxAge
	if maxAge == 0 {
		maxAge = DefaultStoreMaxAge
	}
	stored, err := h.Store.ListProxies(ctx, maxAge)
	if err != nil {
		return nil, fmt.Errorf("failed to load stored proxies: %w", err)
	}
	if len(stored) == 0 {
		return nil, nil
	}
	return h.validate(ctx, stored)
}

// Pool builds a pool, preferring stored proxies that are still alive and
// harvesting the sources when none are.
func (h *Harvester) Pool(ctx context.Context, maxFailures int) (*Pool, error) {
	alive, err := h.Cached(ctx)
	if err != nil {
		h.logger().Warn("ignoring proxy store", "error", err)
	}
	if len(alive) == 0 {
		alive, err = h.Harvest(ctx)
		if err != nil {
			return nil, err
		}
	}
	if len(alive) == 0 {
		return nil, ErrNoAliveProxies
	}
	return NewPool(alive, maxFailures), nil
}

// RecordFailure forwards a proxy failure to the store, if any.
func (h *Harvester) RecordFailure(ctx context.Context, address string, maxFailures int) {
	if h.Store == nil {
		return
	}
	if _, err := h.Store.RecordFailure(ctx, address, maxFailures); err != nil {
		h.logger().Warn("failed to record proxy failure", "proxy", address, "error", err)
	}
}

func (h *Harvester) validate(ctx context.Context, candidates []model.Proxy) ([]model.Proxy, error) {
	alive, err := h.Checker.CheckAll(ctx, candidates)
	if err != nil {
		return nil, err
	}
	h.GeoIP.Annotate(alive)
	return FilterCountries(alive, h.Countries), nil
}
