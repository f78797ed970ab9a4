package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"glade/pkg/driver"
)

// Config is the content of settings.toml.
type Config struct {
	// BaseDir is where databases are stored
	BaseDir string `toml:"base_dir"`
	// Catalog optionally points at a YAML catalog replacing the embedded one
	Catalog string `toml:"catalog"`
	// Timeout bounds each HTTP request, as a Go duration
	Timeout string `toml:"timeout"`
	// UserAgent is sent on every request
	UserAgent string `toml:"user_agent"`
	// History enables the sqlite run log
	History *bool `toml:"history"`
	// Drivers overrides driver weights by provider ID
	Drivers map[string]int `toml:"drivers"`

	timeout time.Duration
}

const (
	defaultTimeout = time.Hour
	envConfig      = "GLADE_CONFIG"
	envBaseDir     = "GLADE_BASE_DIR"
)

// Path returns the settings file location: $GLADE_CONFIG or ~/.config/glade/settings.toml.
func Path() (string, error) {
	if p := os.Getenv(envConfig); p != "" {
		return ExpandPath(p), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "glade", "settings.toml"), nil
}

// Load reads the settings file from the default location.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads settings from path. A missing file yields defaults.
func LoadFile(path string) (*Config, error) {
	out := &Config{}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, out); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	if err := out.normalize(); err != nil {
		return nil, fmt.Errorf("invalid settings in %s: %w", path, err)
	}
	return out, nil
}

func (c *Config) normalize() error {
	c.BaseDir = strings.TrimSpace(c.BaseDir)
	if env := os.Getenv(envBaseDir); env != "" {
		c.BaseDir = env
	}
	if c.BaseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("could not determine home directory: %w", err)
		}
		c.BaseDir = filepath.Join(home, ".glade", "databases")
	}
	c.BaseDir = ExpandPath(c.BaseDir)

	c.Catalog = strings.TrimSpace(c.Catalog)
	if c.Catalog != "" {
		c.Catalog = ExpandPath(c.Catalog)
	}

	c.timeout = defaultTimeout
	if s := strings.TrimSpace(c.Timeout); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %s", s)
		}
		c.timeout = d
	}

	c.UserAgent = strings.TrimSpace(c.UserAgent)
	return nil
}

// RequestTimeout returns the parsed request timeout.
func (c *Config) RequestTimeout() time.Duration {
	if c.timeout == 0 {
		return defaultTimeout
	}
	return c.timeout
}

// HistoryEnabled reports whether runs are recorded. Defaults to true.
func (c *Config) HistoryEnabled() bool {
	return c.History == nil || *c.History
}

// HistoryPath is the sqlite file of the run log.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.BaseDir, "history.db")
}

// ApplyDriverWeights forwards the [drivers] table to the driver registry.
func (c *Config) ApplyDriverWeights() {
	for id, weight := range c.Drivers {
		driver.SetWeight(strings.TrimSpace(id), weight)
	}
}

// ExpandPath expands ~ to the home directory and environment variables in a path.
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			if len(path) == 1 {
				return home
			}
			if path[1] == '/' {
				return filepath.Join(home, path[2:])
			}
		}
	}
	return os.ExpandEnv(path)
}
