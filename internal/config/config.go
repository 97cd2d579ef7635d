// internal/config/config.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Daemon DaemonConfig `yaml:"yealinkd"`
}

type DaemonConfig struct {
	API    APIConfig    `yaml:"api"`
	Device DeviceConfig `yaml:"device"`
	Log    LogConfig    `yaml:"log"`
}

// ---- API ----

type APIConfig struct {
	Listen string `yaml:"listen"`
}

// ---- DEVICE ----

type DeviceConfig struct {
	PollIntervalMs    int `yaml:"poll_interval_ms"`
	ExchangeTimeoutMs int `yaml:"exchange_timeout_ms"`

	// ForceModel pins the variant instead of classifying it from the
	// firmware version (optional).
	ForceModel string `yaml:"force_model"`

	// Ringtone is the melody programmed on attach, as a hex string:
	// volume byte, then (frequency, duration) pairs, then the 00 00
	// terminator. Whitespace is ignored. Empty selects the built-in
	// melody.
	Ringtone string `yaml:"ringtone"`
}

// ---- LOG ----

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads and decodes a configuration file. The result still needs
// Validate and Normalize.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
