package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel"

	"github.com/nao1215/scholarnav/internal/config"
	"github.com/nao1215/scholarnav/internal/database"
	"github.com/nao1215/scholarnav/internal/log"
	"github.com/nao1215/scholarnav/internal/navigator"
	"github.com/nao1215/scholarnav/internal/proxy"
	"github.com/nao1215/scholarnav/internal/proxypool"
	"github.com/nao1215/scholarnav/internal/telemetry"
)

// tracerName identifies fetch spans emitted by the CLI.
const tracerName = "github.com/nao1215/scholarnav"

// traceFlushTimeout bounds the span flush when the app closes.
const traceFlushTimeout = 5 * time.Second

// app holds what a query command needs: the resolved configuration, the
// logger, the proxy provider and the navigator built on top of it.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	provider *proxy.Provider
	nav      *navigator.Navigator

	closers []func() error
}

// buildConfig resolves the configuration of cmd.
// Precedence: defaults < config file < environment (.env included) < flags.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	if err := config.LoadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	flags := cmd.Flags()
	explicit, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicitly requested file must exist; otherwise a missing file
	// just means defaults.
	switch path := config.FindConfigFile(explicit); {
	case path != "":
		file, err := config.LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		file.Apply(cfg)
		cfg.ConfigFilePath = path
	case explicit != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, explicit)
	}

	config.ApplyEnv(cfg)

	if err := applyFlags(flags, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags copies every flag the user set onto cfg. Flags left at their
// default do not override the file or the environment.
func applyFlags(flags *pflag.FlagSet, cfg *config.Config) error {
	var err error
	changed := func(name string) bool {
		return err == nil && flags.Lookup(name) != nil && flags.Changed(name)
	}

	if changed("verbose") {
		cfg.Verbose, err = flags.GetBool("verbose")
	}
	if changed("quiet") {
		cfg.Quiet, err = flags.GetBool("quiet")
	}
	if changed("base-url") {
		cfg.BaseURL, err = flags.GetString("base-url")
	}
	if changed("timeout") {
		cfg.Timeout, err = flags.GetDuration("timeout")
	}
	if changed("rate-limit") {
		cfg.RateLimit, err = flags.GetFloat64("rate-limit")
	}
	if changed("retries") {
		cfg.RetryCount, err = flags.GetInt("retries")
	}
	if changed("proxy-mode") {
		cfg.ProxyMode, err = flags.GetString("proxy-mode")
	}
	if changed("tor-address") {
		cfg.TorProxyAddress, err = flags.GetString("tor-address")
	}
	if changed("tor-control") {
		cfg.TorControlAddress, err = flags.GetString("tor-control")
	}
	if changed("embedded-tor") {
		cfg.UseEmbeddedTor, err = flags.GetBool("embedded-tor")
	}
	if changed("premium") {
		cfg.Premium, err = flags.GetBool("premium")
	}
	if changed("max-recoveries") {
		cfg.MaxRecoveries, err = flags.GetInt("max-recoveries")
	}
	if changed("data-dir") {
		cfg.DBDir, err = flags.GetString("data-dir")
	}
	if changed("trace-endpoint") {
		cfg.TraceEndpoint, err = flags.GetString("trace-endpoint")
	}
	if changed("json") {
		cfg.JSONReport, err = flags.GetBool("json")
		if err == nil && cfg.JSONReport && !flags.Changed("markdown") {
			cfg.MarkdownReport = false
		}
	}
	if changed("markdown") {
		cfg.MarkdownReport, err = flags.GetBool("markdown")
		if err == nil && cfg.MarkdownReport && !flags.Changed("json") {
			cfg.JSONReport = false
		}
	}
	if changed("output") {
		cfg.ReportFile, err = flags.GetString("output")
	}
	if changed("limit") {
		cfg.MaxRecords, err = flags.GetInt("limit")
	}
	if changed("sort-by") {
		cfg.SortBy, err = flags.GetString("sort-by")
	}
	if changed("sections") {
		cfg.Sections, err = flags.GetStringSlice("sections")
	}
	if changed("publication-limit") {
		cfg.PublicationLimit, err = flags.GetInt("publication-limit")
	}
	return err
}

// setupLogger creates the structured logger for cfg. Secrets such as API
// keys and proxy credentials are redacted by the secure handler.
func setupLogger(cfg *config.Config, jsonLogs bool, w io.Writer) *slog.Logger {
	level := log.Level(cfg.Verbose, cfg.Quiet)
	if jsonLogs {
		return log.NewSecureJSONLogger(w, level)
	}
	return log.NewSecureLogger(w, level)
}

// prepare resolves and validates the configuration of cmd and builds its logger.
func prepare(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("configuration error: %w", err)
	}
	jsonLogs, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		jsonLogs = false
	}
	return cfg, setupLogger(cfg, jsonLogs, cmd.ErrOrStderr()), nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// newApp configures the proxy provider for cfg.ProxyMode and builds the
// navigator. The caller must Close the app.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{
		cfg:      cfg,
		logger:   logger,
		provider: proxy.NewProvider(logger),
	}

	tracer := otel.Tracer(tracerName)
	if cfg.TraceEndpoint != "" {
		tp, err := telemetry.Setup(ctx, config.AppName, getVersion(), telemetry.Config{
			Endpoint: cfg.TraceEndpoint,
			Headers:  cfg.TraceHeaders,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to set up tracing: %w", err)
		}
		// Registered first so that it runs last and flushes every span.
		a.closers = append(a.closers, func() error { return telemetry.Shutdown(tp, traceFlushTimeout) })
		tracer = tp.Tracer(tracerName)
	}
	a.closers = append(a.closers, a.provider.Close)

	opts, err := a.proxyOptions()
	if err != nil {
		return nil, errors.Join(err, a.Close())
	}
	mode := proxy.Mode(cfg.ProxyMode)
	if err := a.provider.Configure(ctx, mode, opts); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to configure %s proxy: %w", mode, err), a.Close())
	}

	a.nav, err = navigator.New(a.provider,
		navigator.WithBaseURL(cfg.BaseURL),
		navigator.WithLogger(logger),
		navigator.WithRateLimit(cfg.RateLimit),
		navigator.WithTimeout(cfg.Timeout),
		navigator.WithTracer(tracer),
	)
	if err != nil {
		return nil, errors.Join(err, a.Close())
	}
	return a, nil
}

// proxyOptions translates the configuration into provider options. The
// free-proxy harvester, its store and GeoIP database are only opened in
// free-proxies mode.
func (a *app) proxyOptions() (proxy.Options, error) {
	cfg := a.cfg
	opts := proxy.Options{
		APIKey:    cfg.APIKey,
		Premium:   cfg.Premium,
		UserAgent: cfg.UserAgent,
		Retry: &proxy.RetryPolicy{
			Count:   cfg.RetryCount,
			Wait:    cfg.RetryWait,
			MaxWait: cfg.RetryMaxWait,
		},
		MaxFailures: cfg.MaxFailures,
		Tor: proxy.TorOptions{
			Address:        cfg.TorProxyAddress,
			ControlAddress: cfg.TorControlAddress,
			Password:       cfg.TorPassword,
			Embedded:       cfg.UseEmbeddedTor,
			StartupTimeout: cfg.TorStartupTimeout,
		},
	}
	if proxy.Mode(cfg.ProxyMode) == proxy.ModeFreeProxies {
		h, err := a.harvester()
		if err != nil {
			return opts, err
		}
		opts.FreeProxies.Harvester = h
	}
	return opts, nil
}

// harvester builds the free-proxy harvester: configured sources, the
// checker, the GeoIP country filter and the sqlite store of known-good
// proxies in cfg.DBDir.
func (a *app) harvester() (*proxypool.Harvester, error) {
	cfg := a.cfg
	h := &proxypool.Harvester{
		Sources:   proxypool.NewSources(cfg.ProxySources, cfg.ProxyTableSources),
		Checker:   proxypool.NewChecker(cfg.ProxyCheckURL, cfg.ProxyCheckTimeout, cfg.ProxyCheckConcurrency),
		Countries: cfg.ProxyCountries,
		Logger:    a.logger,
	}

	if cfg.GeoIPDatabase != "" {
		geo, err := proxypool.OpenGeoIP(cfg.GeoIPDatabase)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, geo.Close)
		h.GeoIP = geo
	}

	if cfg.DBDir != "" {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			// The store only speeds up startup; harvesting works without it.
			a.logger.Warn("proxy store unavailable", "dir", cfg.DBDir, "error", err)
		} else {
			a.closers = append(a.closers, db.Close)
			h.Store = db
		}
	}
	return h, nil
}

// Close releases everything the app opened, last opened first.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
