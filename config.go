package sessionkit

import (
	"errors"
	"time"
)

// Config is the full orchestrator configuration. Instances are set up during
// initialization and treated as immutable afterwards.
type Config struct {
	Phone       PhoneConfig
	Persistence PersistenceConfig
	Audit       AuditConfig
	Metrics     MetricsConfig
}

/*
====================================
PHONE CONFIG
====================================
*/

// PhoneConfig controls the phone challenge sub-flow.
type PhoneConfig struct {
	// AnchorID is the UI anchor the human-verification widget binds to.
	// One live widget per anchor is a provider-level constraint.
	AnchorID string
	// ReuseHandleOnInvalidCode keeps the pending challenge intact after the
	// provider rejects a code, so the caller may retry against the same
	// handle. Disable when the provider consumes the handle on failure.
	ReuseHandleOnInvalidCode bool
	Widget                   WidgetConfig
}

// WidgetConfig is passed through to the widget factory.
type WidgetConfig struct {
	// Size is a rendering hint, "normal" or "invisible".
	Size string
}

/*
====================================
PERSISTENCE CONFIG
====================================
*/

// PersistenceConfig controls session snapshot persistence. When enabled, the
// last identity snapshot is written to Redis on every push and restored by
// Start, so a restarted process resumes in its derived state instead of
// flashing signed-out. The first real push remains authoritative.
type PersistenceConfig struct {
	Enabled     bool
	RedisPrefix string
	// SnapshotTTL bounds how long a restored snapshot is trusted. Zero means
	// no expiry.
	SnapshotTTL time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of blocking when the buffer is full.
	// Dropped counts are visible via Orchestrator.AuditDropped.
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		Phone: PhoneConfig{
			AnchorID:                 "challenge-widget",
			ReuseHandleOnInvalidCode: true,
			Widget:                   WidgetConfig{Size: "normal"},
		},
		Persistence: PersistenceConfig{
			Enabled:     false,
			RedisPrefix: "sk",
			SnapshotTTL: 0,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// DefaultConfig returns the baseline configuration used by [New].
func DefaultConfig() Config {
	return defaultConfig()
}

func cloneConfig(cfg Config) Config {
	// All fields are value types today; kept as a seam so deep fields added
	// later get copied in one place.
	return cfg
}

func validateConfig(cfg Config) error {
	if cfg.Phone.AnchorID == "" {
		return errors.New("config: phone anchor id must not be empty")
	}
	if cfg.Persistence.Enabled && cfg.Persistence.RedisPrefix == "" {
		return errors.New("config: persistence redis prefix must not be empty")
	}
	if cfg.Persistence.SnapshotTTL < 0 {
		return errors.New("config: snapshot ttl must not be negative")
	}
	if cfg.Audit.Enabled && cfg.Audit.BufferSize < 0 {
		return errors.New("config: audit buffer size must not be negative")
	}
	return nil
}
