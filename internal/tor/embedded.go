package tor

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/nao1215/tornago"
)

// EmbeddedTor manages a private Tor daemon started through tornago.
// The daemon listens on random local ports, so it never collides with a
// system Tor, and it is owned by whoever called Start.
type EmbeddedTor struct {
	mu sync.Mutex

	process *tornago.TorProcess

	socksAddr   string
	controlAddr string
	dataDir     string

	startupTimeout time.Duration
}

// EmbeddedTorOption configures an EmbeddedTor.
type EmbeddedTorOption func(*EmbeddedTor)

// WithStartupTimeout sets the maximum time to wait for the daemon to bootstrap.
func WithStartupTimeout(timeout time.Duration) EmbeddedTorOption {
	return func(e *EmbeddedTor) {
		e.startupTimeout = timeout
	}
}

// NewEmbeddedTor creates an EmbeddedTor. The daemon is not started.
func NewEmbeddedTor(opts ...EmbeddedTorOption) *EmbeddedTor {
	e := &EmbeddedTor{
		startupTimeout: 3 * time.Minute,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches the daemon and waits until it has bootstrapped.
func (e *EmbeddedTor) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.start(ctx)
}

func (e *EmbeddedTor) start(ctx context.Context) error {
	launchCfg, err := tornago.NewTorLaunchConfig(
		tornago.WithTorSocksAddr(":0"),
		tornago.WithTorControlAddr(":0"),
		tornago.WithTorStartupTimeout(e.startupTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create Tor launch config: %w", err)
	}

	process, err := tornago.StartTorDaemon(launchCfg)
	if err != nil {
		return fmt.Errorf("failed to start embedded Tor daemon: %w", err)
	}

	// StartTorDaemon does not take a context; honor cancellation that
	// happened while it was bootstrapping.
	if err := ctx.Err(); err != nil {
		_ = process.Stop() //nolint:errcheck // Best effort cleanup
		return err
	}

	e.process = process
	e.socksAddr = process.SocksAddr()
	e.controlAddr = process.ControlAddr()
	e.dataDir = process.DataDir()
	return nil
}

// Restart replaces the daemon with a fresh one. A new daemon builds new
// circuits, which is how an embedded exit is rotated.
func (e *EmbeddedTor) Restart(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.stop(); err != nil {
		return err
	}
	return e.start(ctx)
}

// Stop terminates the daemon. It is safe to call on a stopped instance.
func (e *EmbeddedTor) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stop()
}

func (e *EmbeddedTor) stop() error {
	if e.process == nil {
		return nil
	}
	err := e.process.Stop()
	e.process = nil
	e.socksAddr = ""
	e.controlAddr = ""
	e.dataDir = ""
	return err
}

// SocksAddr returns the SOCKS5 address of the running daemon.
func (e *EmbeddedTor) SocksAddr() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.socksAddr
}

// ControlAddr returns the control port address of the running daemon.
func (e *EmbeddedTor) ControlAddr() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.controlAddr
}

// IsRunning reports whether the daemon has been started and not stopped.
func (e *EmbeddedTor) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.process != nil
}

// Controller returns a Controller for the daemon's control port,
// authenticated with the cookie the daemon wrote to its data directory.
func (e *EmbeddedTor) Controller() (*Controller, error) {
	e.mu.Lock()
	addr, dir := e.controlAddr, e.dataDir
	e.mu.Unlock()
	if addr == "" {
		return nil, ErrNotRunning
	}
	return NewCookieController(addr, filepath.Join(dir, cookieFile))
}

// NewClient returns a Client bound to the running daemon.
func (e *EmbeddedTor) NewClient(timeout time.Duration) (*Client, error) {
	addr := e.SocksAddr()
	if addr == "" {
		return nil, ErrNotRunning
	}
	return NewClient(addr, timeout)
}
