package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/scholarnav/internal/config"
)

// NewRootCmd creates the root command for scholarnav.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scholarnav",
		Short: "Search Google Scholar from the command line",
		Long: `scholarnav retrieves Google Scholar listings page by page and turns them
into typed records: authors, publications and organizations.

Pages are fetched lazily, one at a time, with transport retries on
transient failures. Anti-bot pages and bans are detected and, when a
rotating exit is configured (free proxies or Tor), the exit is replaced and
the listing resumes where it stopped.

Examples:
  # Search authors
  scholarnav authors "marie curie"

  # Fill an author profile with its 20 most cited publications
  scholarnav author -n 20 EmD_lTEAAAAJ

  # Search publications through Tor and write JSON
  scholarnav publications --proxy-mode tor --json "graph neural networks"

  # Create a configuration file
  scholarnav init`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Enable verbose (debug) logging")
	flags.BoolP("quiet", "q", false, "Only log errors")
	flags.Bool("log-json", false, "Write logs as JSON")
	flags.StringP("config", "c", "",
		"Configuration file path (default: .scholarnav in current or home directory)")

	flags.String("base-url", config.DefaultBaseURL, "Site origin listing paths are resolved against")
	flags.DurationP("timeout", "t", config.DefaultTimeout, "Timeout for each page request (0 disables)")
	flags.Float64("rate-limit", config.DefaultRateLimit, "Page requests per second (0 disables)")
	flags.Int("retries", config.DefaultRetryCount, "Transport retries on transient failures")

	flags.StringP("proxy-mode", "P", config.DefaultProxyMode,
		"Exit strategy: direct, free-proxies, tor or scraper-api")
	flags.String("tor-address", config.DefaultTorProxyAddress, "Tor SOCKS5 proxy address")
	flags.String("tor-control", config.DefaultTorControlAddress, "Tor control port used for new circuits")
	flags.Bool("embedded-tor", false, "Start a private Tor daemon for tor mode")
	flags.Bool("premium", false, "Request premium proxies from the unblocking API")
	flags.Int("max-recoveries", config.DefaultMaxRecoveries,
		"Exit refreshes per query after a ban or challenge page")
	flags.String("data-dir", config.XDGDataDir(), "Directory holding the validated proxy database")
	flags.String("trace-endpoint", "", "Export fetch spans to this OTLP/HTTP traces URL")

	cmd.AddCommand(NewAuthorsCmd())
	cmd.AddCommand(NewAuthorCmd())
	cmd.AddCommand(NewPublicationsCmd())
	cmd.AddCommand(NewPublicationCmd())
	cmd.AddCommand(NewCitedByCmd())
	cmd.AddCommand(NewOrgCmd())
	cmd.AddCommand(NewProxyCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
