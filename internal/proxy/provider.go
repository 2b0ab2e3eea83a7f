package proxy

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/nao1215/scholarnav/internal/model"
	"github.com/nao1215/scholarnav/internal/proxypool"
	"github.com/nao1215/scholarnav/internal/tor"
)

// Snapshot is the provider state visible to fetchers: the active mode and
// the session and proxy mapping built for it. A Snapshot is immutable.
type Snapshot struct {
	Mode    Mode
	Session *Session
	Config  Config

	// Exit describes the active exit point without credentials.
	Exit string

	maxFailures int
	pool        *proxypool.Pool
	proxy       model.Proxy
}

// Provider owns the active exit strategy. Configure and Refresh replace the
// whole Snapshot in one atomic store, so Current never blocks and a
// traversal that captured a Session keeps using it unchanged.
type Provider struct {
	state    atomic.Pointer[Snapshot]
	failures atomic.Int64

	// mu serializes Configure, Refresh and Close.
	mu        sync.Mutex
	opts      Options
	embedded  *tor.EmbeddedTor
	torClient *tor.Client

	logger *slog.Logger
}

// NewProvider returns a Provider in ModeDirect with default options.
func NewProvider(logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Provider{logger: logger}
	p.opts = Options{}.withDefaults()
	p.state.Store(p.directSnapshot(ModeDirect, p.opts))
	return p
}

// Current returns the active snapshot.
func (p *Provider) Current() Snapshot {
	return *p.state.Load()
}

// Configure switches to mode. Invalid options fail with a
// ConfigurationError and a failed probe with a ProviderUnavailableError;
// in both cases the previous state stays active.
func (p *Provider) Configure(ctx context.Context, mode Mode, opts Options) error {
	parsed, err := ParseMode(string(mode))
	if err != nil {
		return &ConfigurationError{Mode: mode, Err: err}
	}
	mode = parsed
	if err := opts.validate(mode); err != nil {
		return &ConfigurationError{Mode: mode, Err: err}
	}
	opts = opts.withDefaults()

	p.mu.Lock()
	defer p.mu.Unlock()

	var (
		snap      *Snapshot
		embedded  *tor.EmbeddedTor
		torClient *tor.Client
	)
	switch mode {
	case ModeDirect:
		snap = p.directSnapshot(mode, opts)
	case ModeScraperAPI:
		snap = p.scraperAPISnapshot(opts)
	case ModeFreeProxies:
		snap, err = p.freeProxySnapshot(ctx, opts)
	case ModeTor:
		snap, embedded, torClient, err = p.torSnapshot(ctx, opts)
	}
	if err != nil {
		return err
	}

	previous := p.embedded
	p.opts = opts
	p.embedded = embedded
	p.torClient = torClient
	p.failures.Store(0)
	p.state.Store(snap)

	if previous != nil && previous != embedded {
		if err := previous.Stop(); err != nil {
			p.logger.Warn("failed to stop embedded Tor", "error", err)
		}
	}

	p.logger.Info("proxy configured", "mode", snap.Mode, "exit", snap.Exit)
	return nil
}

// ReportFailure records a failed fetch through the active exit and reports
// whether the exit has reached the failure limit and should be refreshed.
// The provider never retries fetches itself.
func (p *Provider) ReportFailure() bool {
	n := p.failures.Add(1)
	return n >= int64(p.state.Load().maxFailures)
}

// ReportSuccess clears the failure count of the active exit.
func (p *Provider) ReportSuccess() {
	p.failures.Store(0)
	snap := p.state.Load()
	if snap.pool != nil {
		snap.pool.MarkOK(snap.proxy.Address())
	}
}

// Failures returns the current consecutive failure count.
func (p *Provider) Failures() int {
	return int(p.failures.Load())
}

// Refresh switches to a new exit point in the active mode: the next free
// proxy, a new Tor circuit, or a fresh connection pool.
func (p *Provider) Refresh(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	cur := p.state.Load()
	var (
		snap *Snapshot
		err  error
	)
	switch cur.Mode {
	case ModeFreeProxies:
		snap, err = p.rotateFreeProxy(ctx, cur)
	case ModeTor:
		snap, err = p.renewCircuit(ctx, cur)
	case ModeScraperAPI:
		snap = p.scraperAPISnapshot(p.opts)
	default:
		snap = p.directSnapshot(cur.Mode, p.opts)
	}
	if err != nil {
		return err
	}

	p.failures.Store(0)
	p.state.Store(snap)
	p.logger.Info("proxy refreshed", "mode", snap.Mode, "exit", snap.Exit)
	return nil
}

// Close stops an embedded Tor daemon owned by the provider.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.embedded == nil {
		return nil
	}
	err := p.embedded.Stop()
	p.embedded = nil
	return err
}

func (p *Provider) params(mode Mode, cfg Config, exit string, opts Options) sessionParams {
	return sessionParams{
		mode:      mode,
		config:    cfg,
		exit:      exit,
		userAgent: opts.UserAgent,
		retry:     *opts.Retry,
		logger:    p.logger,
	}
}

func (p *Provider) directSnapshot(mode Mode, opts Options) *Snapshot {
	cfg := Config{}
	return &Snapshot{
		Mode:        mode,
		Config:      cfg,
		Exit:        "direct",
		Session:     newSession(newTransport(cfg), p.params(mode, cfg, "direct", opts)),
		maxFailures: opts.MaxFailures,
	}
}

func (p *Provider) scraperAPISnapshot(opts Options) *Snapshot {
	cfg := SameProxy(ScraperAPIProxyURI(opts.APIKey, opts.Premium))
	params := p.params(ModeScraperAPI, cfg, zenRowsAddress, opts)
	params.insecure = true
	return &Snapshot{
		Mode:        ModeScraperAPI,
		Config:      cfg,
		Exit:        zenRowsAddress,
		Session:     newSession(newTransport(cfg), params),
		maxFailures: opts.MaxFailures,
	}
}

func (p *Provider) freeProxySnapshot(ctx context.Context, opts Options) (*Snapshot, error) {
	pool, err := opts.FreeProxies.Harvester.Pool(ctx, opts.FreeProxies.PoolMaxFailures)
	if err != nil {
		return nil, &ProviderUnavailableError{Mode: ModeFreeProxies, Reason: "no working proxy found", Err: err}
	}
	next, err := pool.Next()
	if err != nil {
		return nil, &ProviderUnavailableError{Mode: ModeFreeProxies, Reason: "no working proxy found", Err: err}
	}
	return p.freeProxyExit(pool, next, opts), nil
}

func (p *Provider) freeProxyExit(pool *proxypool.Pool, exit model.Proxy, opts Options) *Snapshot {
	cfg := SameProxy(exit.URL())
	return &Snapshot{
		Mode:        ModeFreeProxies,
		Config:      cfg,
		Exit:        exit.Address(),
		Session:     newSession(newTransport(cfg), p.params(ModeFreeProxies, cfg, exit.Address(), opts)),
		maxFailures: opts.MaxFailures,
		pool:        pool,
		proxy:       exit,
	}
}

func (p *Provider) rotateFreeProxy(ctx context.Context, cur *Snapshot) (*Snapshot, error) {
	harvester := p.opts.FreeProxies.Harvester
	pool := cur.pool
	if pool.MarkFailed(cur.proxy.Address()) {
		p.logger.Info("dropped failing proxy", "proxy", cur.proxy.Address())
	}
	harvester.RecordFailure(ctx, cur.proxy.Address(), pool.MaxFailures())

	next, err := pool.Next()
	if errors.Is(err, proxypool.ErrPoolExhausted) {
		p.logger.Info("proxy pool exhausted, harvesting again")
		pool, err = harvester.Pool(ctx, p.opts.FreeProxies.PoolMaxFailures)
		if err == nil {
			next, err = pool.Next()
		}
	}
	if err != nil {
		return nil, &ProviderUnavailableError{Mode: ModeFreeProxies, Reason: "no working proxy left", Err: err}
	}
	return p.freeProxyExit(pool, next, p.opts), nil
}

func (p *Provider) torSnapshot(ctx context.Context, opts Options) (*Snapshot, *tor.EmbeddedTor, *tor.Client, error) {
	var (
		embedded *tor.EmbeddedTor
		client   *tor.Client
		err      error
	)
	if opts.Tor.Embedded {
		embedded = tor.NewEmbeddedTor(tor.WithStartupTimeout(opts.Tor.StartupTimeout))
		if err := embedded.Start(ctx); err != nil {
			return nil, nil, nil, &ProviderUnavailableError{Mode: ModeTor, Reason: "embedded Tor failed to start", Err: err}
		}
		client, err = embedded.NewClient(opts.Tor.DialTimeout)
	} else {
		client, err = tor.NewClient(opts.Tor.Address, opts.Tor.DialTimeout)
	}
	if err != nil {
		stopEmbedded(embedded)
		return nil, nil, nil, &ConfigurationError{Mode: ModeTor, Err: errors.Join(ErrInvalidTorAddress, err)}
	}

	if status := client.CheckConnection(ctx); status != tor.ProxyStatusOK {
		stopEmbedded(embedded)
		return nil, nil, nil, &ProviderUnavailableError{
			Mode:   ModeTor,
			Reason: "SOCKS probe of " + client.ProxyAddress() + " failed (" + status.String() + ")",
			Err:    status.Err(),
		}
	}

	return p.torExit(client, opts), embedded, client, nil
}

func (p *Provider) torExit(client *tor.Client, opts Options) *Snapshot {
	cfg := SameProxy(client.ProxyURL())
	return &Snapshot{
		Mode:        ModeTor,
		Config:      cfg,
		Exit:        client.ProxyAddress(),
		Session:     newSession(client.Transport(), p.params(ModeTor, cfg, client.ProxyAddress(), opts)),
		maxFailures: opts.MaxFailures,
	}
}

func (p *Provider) renewCircuit(ctx context.Context, _ *Snapshot) (*Snapshot, error) {
	switch {
	case p.embedded != nil:
		ctrl, err := p.embedded.Controller()
		if err == nil {
			err = ctrl.NewNym(ctx)
		}
		if err == nil {
			break
		}
		p.logger.Warn("circuit renewal on embedded Tor failed, restarting daemon", "error", err)
		if err := p.embedded.Restart(ctx); err != nil {
			return nil, &ProviderUnavailableError{Mode: ModeTor, Reason: "embedded Tor failed to restart", Err: err}
		}
		client, err := p.embedded.NewClient(p.opts.Tor.DialTimeout)
		if err != nil {
			return nil, &ProviderUnavailableError{Mode: ModeTor, Reason: "embedded Tor not running", Err: err}
		}
		p.torClient = client
	case p.opts.Tor.ControlAddress != "":
		ctrl, err := tor.NewController(p.opts.Tor.ControlAddress, p.opts.Tor.Password)
		if err != nil {
			return nil, &ProviderUnavailableError{Mode: ModeTor, Reason: "invalid control address", Err: err}
		}
		if err := ctrl.NewNym(ctx); err != nil {
			return nil, &ProviderUnavailableError{Mode: ModeTor, Reason: "circuit renewal failed", Err: err}
		}
	default:
		p.logger.Warn("no Tor control port configured, reusing current circuit")
	}

	// A new transport drops keep-alive connections pinned to the old circuit.
	return p.torExit(p.torClient, p.opts), nil
}

func stopEmbedded(e *tor.EmbeddedTor) {
	if e != nil {
		_ = e.Stop() //nolint:errcheck // best effort cleanup after a failed setup
	}
}
