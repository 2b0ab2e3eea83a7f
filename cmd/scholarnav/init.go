package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/scholarnav/internal/config"
)

//go:embed templates/scholarnav.yaml
var configTemplate embed.FS

const templatePath = "templates/scholarnav.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a scholarnav configuration file",
		Long: `Init writes a commented .scholarnav configuration file.

The file documents every setting: timeouts, rate limit, retry policy, the
proxy mode and its options, and the default output format. Secrets belong
in a .env file (SCHOLARNAV_API_KEY, SCHOLARNAV_TOR_PASSWORD), not here.

Examples:
  # Create .scholarnav in the current directory
  scholarnav init

  # Write to the XDG config directory
  scholarnav init -o ~/.config/scholarnav/config.yaml

  # Overwrite an existing file
  scholarnav init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(w, "\nPut secrets in .env instead of this file:")
	fmt.Fprintf(w, "  %s=...\n", config.EnvAPIKey)
	fmt.Fprintf(w, "  %s=...\n", config.EnvTorPassword)
	return nil
}
