package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nao1215/scholarnav/internal/fetch"
	"github.com/nao1215/scholarnav/internal/model"
)

// NewProxyCmd creates the proxy command group.
func NewProxyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Inspect and maintain proxy exits",
		Long: `Proxy groups commands that verify the configured exit strategy and
maintain the store of validated free proxies.`,
	}
	cmd.AddCommand(NewProxyCheckCmd())
	cmd.AddCommand(NewProxyRefreshPoolCmd())
	return cmd
}

// NewProxyCheckCmd creates the proxy check command.
func NewProxyCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Configure the proxy mode and fetch the site once through it",
		Long: `Check configures the selected proxy mode exactly as a query would
(probing Tor, validating free proxies, ...) and requests the site origin
once through the resulting exit.

Examples:
  scholarnav proxy check
  scholarnav proxy check --proxy-mode tor --tor-address 127.0.0.1:9150`,
		Args: cobra.NoArgs,
		RunE: runProxyCheckCmd,
	}
}

func runProxyCheckCmd(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := prepare(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	snap := a.provider.Current()
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "mode:   %s\n", snap.Mode)
	fmt.Fprintf(w, "exit:   %s\n", snap.Exit)

	f := fetch.New(snap.Session,
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithLogger(logger),
	)
	start := time.Now()
	_, err = f.Fetch(ctx, cfg.BaseURL)
	elapsed := time.Since(start).Round(time.Millisecond)

	switch {
	case err == nil:
		fmt.Fprintf(w, "status: ok (%s)\n", elapsed)
		return nil
	case fetch.IsBlocked(err):
		fmt.Fprintf(w, "status: blocked (%s)\n", elapsed)
	default:
		fmt.Fprintf(w, "status: unreachable (%s)\n", elapsed)
	}
	return fmt.Errorf("proxy check failed: %w", err)
}

// NewProxyRefreshPoolCmd creates the proxy refresh-pool command.
func NewProxyRefreshPoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh-pool",
		Short: "Harvest and validate free proxies into the local store",
		Long: `Refresh-pool downloads the configured free proxy lists, checks every
candidate against the site and saves the working ones to the proxy
database in the data directory. Free-proxies mode starts from this store.

Examples:
  scholarnav proxy refresh-pool
  scholarnav proxy refresh-pool --show 20`,
		Args: cobra.NoArgs,
		RunE: runProxyRefreshPoolCmd,
	}
	cmd.Flags().Int("show", 10, "Number of the fastest proxies to print (0 prints none)")
	return cmd
}

func runProxyRefreshPoolCmd(cmd *cobra.Command, _ []string) error {
	show, err := cmd.Flags().GetInt("show")
	if err != nil {
		return err
	}
	cfg, logger, err := prepare(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	a := &app{cfg: cfg, logger: logger}
	defer a.Close()

	h, err := a.harvester()
	if err != nil {
		return err
	}
	if h.Store == nil {
		return errors.New("proxy store unavailable (check --data-dir)")
	}

	alive, err := h.Harvest(ctx)
	if err != nil {
		return fmt.Errorf("failed to harvest proxies: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%d working proxies saved to %s\n", len(alive), cfg.DBDir)
	if show > 0 && len(alive) > 0 {
		writeProxyTable(w, alive[:min(show, len(alive))])
	}
	return nil
}

// writeProxyTable prints proxies, fastest first.
func writeProxyTable(w io.Writer, proxies []model.Proxy) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Proxy", "Protocol", "Country", "Latency", "Source"})
	for i, p := range proxies {
		country := p.Country
		if country == "" {
			country = "-"
		}
		t.AppendRow(table.Row{
			strconv.Itoa(i + 1),
			p.Address(),
			p.Protocol,
			country,
			p.Latency.Round(time.Millisecond).String(),
			p.Source,
		})
	}
	t.Render()
}
