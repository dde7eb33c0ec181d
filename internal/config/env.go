package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by FromEnv.
const EnvPrefix = "TAXIWAY_"

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding ones already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// FromEnv overlays TAXIWAY_* environment variables onto cfg. Unparseable
// values are ignored.
func FromEnv(cfg *Config) {
	envString("LISTEN_ADDR", &cfg.ListenAddr)
	envInt("WORKERS", &cfg.Workers)
	envInt64("ACK_TIMEOUT_MS", &cfg.AckTimeoutMs)
	envInt64("SWEEP_INTERVAL_MS", &cfg.SweepIntervalMs)
	envInt64("READ_TIMEOUT_MS", &cfg.ReadTimeoutMs)
	envInt("PAYLOAD_MAX_BYTES", &cfg.PayloadMaxBytes)
	envString("HTTP_ADDR", &cfg.HTTPAddr)
	envString("GRPC_ADDR", &cfg.GRPCAddr)
	envBool("HISTORY_ENABLED", &cfg.History.Enabled)
	envInt("HISTORY_MAX_ENTRIES", &cfg.History.MaxEntries)
	envInt("HISTORY_BUFFER", &cfg.History.Buffer)
	envString("HISTORY_DATA_DIR", &cfg.History.DataDir)
	envString("HISTORY_FSYNC", &cfg.History.Fsync)
	envString("LOG_LEVEL", &cfg.Log.Level)
	envString("LOG_FORMAT", &cfg.Log.Format)
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func envString(name string, dst *string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}

func envInt(name string, dst *int) {
	if v, ok := lookup(name); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envInt64(name string, dst *int64) {
	if v, ok := lookup(name); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func envBool(name string, dst *bool) {
	if v, ok := lookup(name); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
