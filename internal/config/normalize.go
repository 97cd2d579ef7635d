// internal/config/normalize.go
package config

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Defaults applied by Normalize.
const (
	DefaultListen            = "127.0.0.1:8743"
	DefaultPollIntervalMs    = 100
	DefaultExchangeTimeoutMs = 1000
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	d := &cfg.Daemon

	if d.API.Listen == "" {
		d.API.Listen = DefaultListen
	}
	if d.Device.PollIntervalMs == 0 {
		d.Device.PollIntervalMs = DefaultPollIntervalMs
	}
	if d.Device.ExchangeTimeoutMs == 0 {
		d.Device.ExchangeTimeoutMs = DefaultExchangeTimeoutMs
	}
	if d.Log.Level == "" {
		d.Log.Level = "info"
	}

	// Canonical whitespace-free lowercase hex. Decoding is left to the
	// consumer; validation already proved it decodes.
	d.Device.Ringtone = canonicalHex(d.Device.Ringtone)
}

// DecodeRingtone turns the configured hex string into the raw note
// buffer handed to the device.
func DecodeRingtone(s string) ([]byte, error) {
	s = canonicalHex(s)
	if s == "" {
		return nil, nil
	}
	buf, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("not a hex byte string: %w", err)
	}
	return buf, nil
}

func canonicalHex(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\n' {
			return -1
		}
		return r
	}, s)
	return strings.ToLower(s)
}
