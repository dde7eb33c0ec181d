package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// ListenAddr is the binary protocol address.
	ListenAddr      string `json:"listenAddr"`
	Workers         int    `json:"workers"`
	AckTimeoutMs    int64  `json:"ackTimeoutMs"`
	SweepIntervalMs int64  `json:"sweepIntervalMs"`
	ReadTimeoutMs   int64  `json:"readTimeoutMs"`
	PayloadMaxBytes int    `json:"payloadMaxBytes"`
	// HTTPAddr and GRPCAddr enable the admin API and health service when set.
	HTTPAddr string        `json:"httpAddr"`
	GRPCAddr string        `json:"grpcAddr"`
	History  HistoryConfig `json:"history"`
	Log      LogConfig     `json:"log"`
}

// HistoryConfig controls the transition audit trail.
type HistoryConfig struct {
	Enabled    bool `json:"enabled"`
	MaxEntries int  `json:"maxEntries"`
	Buffer     int  `json:"buffer"`

	// DataDir keeps the history store on disk for inspection. Empty keeps it
	// in memory.
	DataDir string `json:"dataDir"`

	// Fsync is the WAL sync policy for an on-disk store: always, interval or
	// never.
	Fsync string `json:"fsync"`
}

// LogConfig selects the process logger.
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		ListenAddr:      "127.0.0.1:8294",
		Workers:         32,
		AckTimeoutMs:    30000,
		SweepIntervalMs: 30000,
		ReadTimeoutMs:   5000,
		PayloadMaxBytes: 1 << 20,
		History: HistoryConfig{
			Enabled:    true,
			MaxEntries: 10000,
			Buffer:     1024,
			Fsync:      "never",
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// AckTimeout returns AckTimeoutMs as a duration.
func (c Config) AckTimeout() time.Duration { return time.Duration(c.AckTimeoutMs) * time.Millisecond }

// SweepInterval returns SweepIntervalMs as a duration.
func (c Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMs) * time.Millisecond
}

// ReadTimeout returns ReadTimeoutMs as a duration.
func (c Config) ReadTimeout() time.Duration { return time.Duration(c.ReadTimeoutMs) * time.Millisecond }

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.ListenAddr == "":
		return errors.New("config: listenAddr is required")
	case c.Workers <= 0:
		return fmt.Errorf("config: workers must be positive, got %d", c.Workers)
	case c.AckTimeoutMs <= 0:
		return fmt.Errorf("config: ackTimeoutMs must be positive, got %d", c.AckTimeoutMs)
	case c.SweepIntervalMs <= 0:
		return fmt.Errorf("config: sweepIntervalMs must be positive, got %d", c.SweepIntervalMs)
	case c.ReadTimeoutMs <= 0:
		return fmt.Errorf("config: readTimeoutMs must be positive, got %d", c.ReadTimeoutMs)
	case c.PayloadMaxBytes <= 0 || uint64(c.PayloadMaxBytes) > math.MaxUint32:
		return fmt.Errorf("config: payloadMaxBytes out of range: %d", c.PayloadMaxBytes)
	case c.History.Enabled && c.History.MaxEntries <= 0:
		return fmt.Errorf("config: history.maxEntries must be positive, got %d", c.History.MaxEntries)
	}
	switch c.History.Fsync {
	case "", "always", "interval", "never":
	default:
		return fmt.Errorf("config: history.fsync must be always, interval or never, got %q", c.History.Fsync)
	}
	return nil
}

// Load reads configuration from a JSON file. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return Config{}, errors.New("yaml config not supported; use JSON")
	}
	cfg := Default()
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
