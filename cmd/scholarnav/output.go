package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/scholarnav/internal/config"
	"github.com/nao1215/scholarnav/internal/report"
)

// addReportFlags registers the output flags shared by every query command.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write the report to the specified file path (creates directories if needed)")
	cmd.Flags().Bool("records-only", false,
		"With --json, print only the records without the result envelope")
	cmd.Flags().Bool("tee", false,
		"With --output, also print the text report to stdout")
}

// addLimitFlag registers --limit for listing commands.
func addLimitFlag(cmd *cobra.Command) {
	cmd.Flags().IntP("limit", "n", 0, "Stop after this many records (0 means all)")
}

// runQuery runs one query command: it resolves the configuration, builds
// the app, lets run fill the result and writes the report. A query that
// fails after collecting records still writes them, marked partial.
func runQuery(cmd *cobra.Command, kind report.Kind, query string, run func(ctx context.Context, a *app, result *report.Result) error) error {
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
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("failed to release resources", "error", err)
		}
	}()

	logger.Info("starting query", "kind", kind, "query", query, "proxy_mode", cfg.ProxyMode)

	result := report.NewResult(kind, query)
	result.ProxyMode = a.provider.Current().Mode.String()

	runErr := run(ctx, a, result)
	if runErr != nil && result.Count() == 0 {
		return runErr
	}
	result.Fail(runErr)

	recordsOnly, _ := cmd.Flags().GetBool("records-only") //nolint:errcheck // flag is optional
	tee, _ := cmd.Flags().GetBool("tee")                  //nolint:errcheck // flag is optional
	if err := outputReport(cmd.OutOrStdout(), cfg, result, reportOptions{recordsOnly: recordsOnly, tee: tee}); err != nil {
		return errors.Join(runErr, fmt.Errorf("report failed: %w", err))
	}
	return runErr
}

// reportOptions carries the per-command output flags.
type reportOptions struct {
	recordsOnly bool
	tee         bool
}

// outputReport writes result to cfg.ReportFile, or to stdout when empty,
// in the configured format. With tee, a text rendering also goes to stdout.
func outputReport(stdout io.Writer, cfg *config.Config, result *report.Result, opts reportOptions) error {
	if cfg.ReportFile == "" {
		_, err := newWriter(cfg, stdout, opts.recordsOnly).Write(result)
		return err
	}

	if dir := filepath.Dir(cfg.ReportFile); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	var w report.Writer = newWriter(cfg, f, opts.recordsOnly)
	if opts.tee {
		w = report.NewMultiWriter(w, report.NewSimpleWriter(stdout, report.WithVerbose(cfg.Verbose)))
	}
	_, err = w.Write(result)
	return err
}

func newWriter(cfg *config.Config, w io.Writer, recordsOnly bool) report.Writer {
	switch {
	case cfg.JSONReport:
		opts := []report.JSONWriterOption{report.WithPrettyPrint()}
		if recordsOnly {
			opts = append(opts, report.WithRecordsOnly())
		}
		return report.NewJSONWriter(w, opts...)
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w, report.WithVerbose(cfg.Verbose))
	}
}
