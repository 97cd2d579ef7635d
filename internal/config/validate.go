// internal/config/validate.go
package config

import (
	"fmt"
	"net"

	"github.com/treitmayr/yealink-module/internal/model"
)

// maxRingtoneBytes bounds the decoded melody, volume byte and
// terminator included.
const maxRingtoneBytes = 256

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	d := &cfg.Daemon

	// ------------------------------------------------------------
	// API SURFACE
	// ------------------------------------------------------------

	if d.API.Listen != "" {
		if _, _, err := net.SplitHostPort(d.API.Listen); err != nil {
			return fmt.Errorf("api.listen %q: %w", d.API.Listen, err)
		}
	}

	// ------------------------------------------------------------
	// DEVICE CONVERSATION
	// ------------------------------------------------------------

	if d.Device.PollIntervalMs < 0 || d.Device.PollIntervalMs > 10000 {
		return fmt.Errorf("device.poll_interval_ms %d out of range [0, 10000]",
			d.Device.PollIntervalMs)
	}
	if d.Device.ExchangeTimeoutMs < 0 || d.Device.ExchangeTimeoutMs > 30000 {
		return fmt.Errorf("device.exchange_timeout_ms %d out of range [0, 30000]",
			d.Device.ExchangeTimeoutMs)
	}

	if d.Device.ForceModel != "" {
		if _, err := model.ByName(d.Device.ForceModel); err != nil {
			return fmt.Errorf("device.force_model: %w", err)
		}
	}

	// ------------------------------------------------------------
	// RINGTONE (OPT-IN)
	// ------------------------------------------------------------

	if d.Device.Ringtone != "" {
		buf, err := DecodeRingtone(d.Device.Ringtone)
		if err != nil {
			return fmt.Errorf("device.ringtone: %w", err)
		}
		if len(buf) > maxRingtoneBytes {
			return fmt.Errorf("device.ringtone: %d bytes exceeds limit %d",
				len(buf), maxRingtoneBytes)
		}
	}

	// ------------------------------------------------------------
	// LOGGING
	// ------------------------------------------------------------

	switch d.Log.Level {
	case "", "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q unknown", d.Log.Level)
	}

	return nil
}
