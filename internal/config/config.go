// Package config loads the pairlink client configuration.
//
// The config file lives at ~/.pairlink/config.json5 by default and may be
// written in JSON5 or YAML (picked by file extension). A missing file
// yields the defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/titanous/json5"
	"gopkg.in/yaml.v3"
)

// Config is the full client configuration.
type Config struct {
	Gateway GatewayConfig `json:"gateway" yaml:"gateway"`
	Store   StoreConfig   `json:"store" yaml:"store"`
	Log     LogConfig     `json:"log" yaml:"log"`
}

// GatewayConfig configures the connection to the pairing gateway.
type GatewayConfig struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`

	// Token authenticates the connect handshake. When empty the token is
	// read from the OS keyring instead.
	Token string `json:"token" yaml:"token"`

	// CreatesPerMinute throttles session.create requests. 0 disables the
	// throttle.
	CreatesPerMinute int `json:"createsPerMinute" yaml:"createsPerMinute"`
}

// StoreConfig configures local persistence paths.
type StoreConfig struct {
	// SessionPath is the JSON file holding the active session.
	SessionPath string `json:"sessionPath" yaml:"sessionPath"`
	// HistoryPath is the SQLite database logging session transitions.
	HistoryPath string `json:"historyPath" yaml:"historyPath"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `json:"level" yaml:"level"` // debug, info, warn, error
}

// DefaultDir returns the pairlink data directory (~/.pairlink).
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pairlink"
	}
	return filepath.Join(home, ".pairlink")
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.json5")
}

// Default returns the built-in configuration.
func Default() *Config {
	dir := DefaultDir()
	return &Config{
		Gateway: GatewayConfig{
			Host:             "127.0.0.1",
			Port:             4817,
			CreatesPerMinute: 6,
		},
		Store: StoreConfig{
			SessionPath: filepath.Join(dir, "session.json"),
			HistoryPath: filepath.Join(dir, "history.db"),
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the config file at path, falling back to defaults when the
// file does not exist. Unset fields keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		if err := json5.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Gateway.Host == "" {
		c.Gateway.Host = def.Gateway.Host
	}
	if c.Gateway.Port == 0 {
		c.Gateway.Port = def.Gateway.Port
	}
	if c.Store.SessionPath == "" {
		c.Store.SessionPath = def.Store.SessionPath
	}
	if c.Store.HistoryPath == "" {
		c.Store.HistoryPath = def.Store.HistoryPath
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}

// Redacted returns a copy safe for printing: the token is masked.
func (c *Config) Redacted() Config {
	out := *c
	if out.Gateway.Token != "" {
		out.Gateway.Token = "********"
	}
	return out
}
