// Package config provides configuration structures and utilities for scholarnav.
// It defines the request, retry and proxy settings used by the fetcher and the
// proxy provider, and the report preferences used by the CLI.
//
// Values are layered: NewConfig defaults, then the YAML file found by
// FindConfigFile, then SCHOLARNAV_* variables (optionally loaded from .env),
// then CLI flags.
package config
