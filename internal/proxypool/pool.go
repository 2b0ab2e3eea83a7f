package proxypool

import (
	"sync"

	"github.com/nao1215/scholarnav/internal/model"
)

// DefaultMaxFailures is the number of consecutive failures after which a
// proxy is dropped from the pool.
const DefaultMaxFailures = 7

type entry struct {
	proxy    model.Proxy
	failures int
}

// Pool rotates over alive proxies. It is safe for concurrent use.
type Pool struct {
	mu          sync.Mutex
	entries     []*entry
	cursor      int
	maxFailures int
}

// NewPool creates a pool from validated proxies, keeping their order.
// maxFailures <= 0 selects DefaultMaxFailures.
func NewPool(proxies []model.Proxy, maxFailures int) *Pool {
	if maxFailures <= 0 {
		maxFailures = DefaultMaxFailures
	}
	entries := make([]*entry, 0, len(proxies))
	seen := make(map[string]bool, len(proxies))
	for _, p := range proxies {
		if seen[p.Address()] {
			continue
		}
		seen[p.Address()] = true
		entries = append(entries, &entry{proxy: p})
	}
	return &Pool{entries: entries, maxFailures: maxFailures}
}

// Next returns the next proxy in round-robin order.
func (p *Pool) Next() (model.Proxy, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.entries) == 0 {
		return model.Proxy{}, ErrPoolExhausted
	}
	if p.cursor >= len(p.entries) {
		p.cursor = 0
	}
	e := p.entries[p.cursor]
	p.cursor++
	return e.proxy, nil
}

// MarkFailed records a failure for address and removes the proxy once it
// reaches the failure limit. It reports whether the proxy was removed.
func (p *Pool) MarkFailed(address string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, e := range p.entries {
		if e.proxy.Address() != address {
			continue
		}
		e.failures++
		if e.failures < p.maxFailures {
			return false
		}
		p.entries = append(p.entries[:i], p.entries[i+1:]...)
		if p.cursor > i {
			p.cursor--
		}
		return true
	}
	return false
}

// MarkOK resets the failure count of address.
func (p *Pool) MarkOK(address string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, e := range p.entries {
		if e.proxy.Address() == address {
			e.failures = 0
			return
		}
	}
}

// Len returns the number of proxies in the pool.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// MaxFailures returns the removal threshold.
func (p *Pool) MaxFailures() int {
	return p.maxFailures
}

// Proxies returns a snapshot of the pool contents.
func (p *Pool) Proxies() []model.Proxy {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]model.Proxy, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.proxy
	}
	return out
}
