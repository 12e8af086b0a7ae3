// Package config loads the elits configuration.
//
// Configuration lives in a single YAML file under os.UserConfigDir()/elits/:
//
//	~/Library/Application Support/elits/config.yaml   (macOS)
//	~/.config/elits/config.yaml                       (Linux)
//	%AppData%/elits/config.yaml                       (Windows)
//
// A missing file is not an error; defaults apply and the API key may come
// from the GEMINI_API_KEY environment variable.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
)

const (
	// appDir is the directory name under os.UserConfigDir().
	appDir = "elits"

	configFile = "config.yaml"

	// EnvAPIKey overrides Config.APIKey when the file leaves it empty.
	EnvAPIKey = "GEMINI_API_KEY"
)

// Config holds every runtime setting of the CLI.
type Config struct {
	// APIKey authenticates against the generative language API. Falls back
	// to the GEMINI_API_KEY environment variable.
	APIKey string `yaml:"api_key"`

	// Models is the live-call fallback chain, tried in order.
	Models []string `yaml:"models"`

	// HandshakeTimeout bounds each per-model connection attempt.
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`

	// Voice is the prebuilt voice name for audio responses.
	Voice string `yaml:"voice"`

	// Language is the BCP-47 speech language code.
	Language string `yaml:"language"`

	// LedgerEndpoint is the JSON-RPC endpoint of the agent ledger.
	LedgerEndpoint string `yaml:"ledger_endpoint"`

	// DataDir holds the conversation store. Defaults under the user
	// config directory.
	DataDir string `yaml:"data_dir"`
}

// Load reads the configuration from the default location.
func Load() (*Config, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine config directory: %w", err)
	}
	return LoadFrom(filepath.Join(base, appDir, configFile))
}

// LoadFrom reads the configuration from a specific file. A missing file
// yields the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg.applyDefaults(filepath.Dir(path))
	return cfg, nil
}

// Save writes the configuration to the given file, creating directories as
// needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyDefaults(dir string) {
	if c.APIKey == "" {
		c.APIKey = os.Getenv(EnvAPIKey)
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 8 * time.Second
	}
	if c.Voice == "" {
		c.Voice = "Aoede"
	}
	if c.Language == "" {
		c.Language = "en-US"
	}
	if c.LedgerEndpoint == "" {
		c.LedgerEndpoint = "https://api.devnet.solana.com"
	}
	if c.DataDir == "" {
		c.DataDir = filepath.Join(dir, "data")
	}
}

// RequireAPIKey returns the API key or a setup hint when none is configured.
func (c *Config) RequireAPIKey() (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("no API key configured; set api_key in the config file or export %s", EnvAPIKey)
	}
	return c.APIKey, nil
}
