// Package config defines service configuration structures and loading hooks.
package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/okian/ironflow/internal/domain/model"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendBolt     = "bolt"
	BackendPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`
	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreBackend is one of memory, bolt, postgres.
	StoreBackend string `koanf:"store_backend"`
	// BoltPath is the bbolt database file used by the bolt backend.
	BoltPath string `koanf:"bolt_path"`
	// PostgresDSN is the connection string used by the postgres backend.
	PostgresDSN string `koanf:"postgres_dsn"`
	// PostgresConnectTimeoutMS bounds the initial ping.
	PostgresConnectTimeoutMS int `koanf:"postgres_connect_timeout_ms"`

	// DefaultFormula is applied to snapshots that name no formula.
	DefaultFormula string `koanf:"default_formula"`
	// DefaultEventType is applied to snapshots that name no event type.
	DefaultEventType string `koanf:"default_event_type"`
	// MaxRequestBytes caps request bodies.
	MaxRequestBytes int64 `koanf:"max_request_bytes"`

	// RecordsReconcileCron schedules a rescan of finished tournaments into the
	// records vault, e.g. "0 3 * * *". Empty disables it.
	RecordsReconcileCron string `koanf:"records_reconcile_cron"`
}

// New returns a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:                 "info",
		LogFormat:                "text",
		Addr:                     ":9080",
		StoreBackend:             BackendMemory,
		BoltPath:                 "data/ironflow.db",
		PostgresConnectTimeoutMS: 5000,
		DefaultFormula:           model.FormulaTotal.String(),
		DefaultEventType:         string(model.EventSBD),
		MaxRequestBytes:          1 << 20,
	}
}

// Formula returns the parsed default formula.
func (c *Config) Formula() model.Formula {
	f, _ := model.ParseFormula(c.DefaultFormula)
	return f
}

// EventType returns the parsed default event type.
func (c *Config) EventType() model.EventType {
	return model.EventType(strings.ToUpper(strings.TrimSpace(c.DefaultEventType)))
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	case c.MaxRequestBytes <= 0:
		return fmt.Errorf("%w: max_request_bytes must be positive", ErrInvalidConfig)
	case !c.EventType().Valid():
		return fmt.Errorf("%w: unknown default_event_type %q", ErrInvalidConfig, c.DefaultEventType)
	}
	if _, ok := model.ParseFormula(c.DefaultFormula); !ok {
		return fmt.Errorf("%w: unknown default_formula %q", ErrInvalidConfig, c.DefaultFormula)
	}
	if c.RecordsReconcileCron != "" {
		if _, err := cron.ParseStandard(c.RecordsReconcileCron); err != nil {
			return fmt.Errorf("%w: records_reconcile_cron: %w", ErrInvalidConfig, err)
		}
	}

	switch c.StoreBackend {
	case BackendMemory:
	case BackendBolt:
		if strings.TrimSpace(c.BoltPath) == "" {
			return fmt.Errorf("%w: bolt_path must not be empty", ErrInvalidConfig)
		}
	case BackendPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return fmt.Errorf("%w: postgres_dsn must not be empty", ErrInvalidConfig)
		}
		if c.PostgresConnectTimeoutMS <= 0 {
			return fmt.Errorf("%w: postgres_connect_timeout_ms must be positive", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store_backend %q", ErrInvalidConfig, c.StoreBackend)
	}
	return nil
}
