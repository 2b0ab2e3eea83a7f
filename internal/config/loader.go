package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".scholarnav"

// Environment variables consulted by ApplyEnv.
const (
	EnvAPIKey      = "SCHOLARNAV_API_KEY"
	EnvPremium     = "SCHOLARNAV_PREMIUM"
	EnvProxyMode   = "SCHOLARNAV_PROXY_MODE"
	EnvTorPassword = "SCHOLARNAV_TOR_PASSWORD"
	EnvGeoIP       = "SCHOLARNAV_GEOIP_DB"
	EnvTraceURL    = "SCHOLARNAV_TRACE_ENDPOINT"
)

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile loads a YAML configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
//  1. If configPath is specified, use it directly
//  2. .scholarnav in the current directory
//  3. .scholarnav in the user's home directory
//  4. config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// LoadEnv reads KEY=VALUE pairs from the given .env files into the process
// environment without overriding variables that are already set.
// Missing files are ignored; with no arguments ".env" in the current directory is tried.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return err
		}
	}
	return nil
}

// ApplyEnv copies the SCHOLARNAV_* environment variables onto cfg.
// Secrets are expected to arrive this way rather than through flags,
// where they would end up in shell history.
func ApplyEnv(cfg *Config) {
	setString(&cfg.APIKey, os.Getenv(EnvAPIKey))
	setString(&cfg.ProxyMode, os.Getenv(EnvProxyMode))
	setString(&cfg.TorPassword, os.Getenv(EnvTorPassword))
	setString(&cfg.GeoIPDatabase, os.Getenv(EnvGeoIP))
	setString(&cfg.TraceEndpoint, os.Getenv(EnvTraceURL))
	if v, err := strconv.ParseBool(os.Getenv(EnvPremium)); err == nil {
		cfg.Premium = v
	}
}
