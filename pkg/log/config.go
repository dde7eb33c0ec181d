package log

import (
	"fmt"
	"os"
	"strings"
)

// Config declares a logger: level, format (text|json) and output
// (stderr|stdout|null).
type Config struct {
	Level         string `json:"level"`
	Format        string `json:"format"`
	Output        string `json:"output"`
	DisableCaller bool   `json:"disableCaller"`
}

// ApplyConfig builds a Logger from cfg.
func ApplyConfig(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var formatter Formatter
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		formatter = &TextFormatter{DisableCaller: cfg.DisableCaller}
	case "json":
		formatter = &JSONFormatter{DisableCaller: cfg.DisableCaller}
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	var output Output
	switch strings.ToLower(cfg.Output) {
	case "", "stderr":
		output = NewConsoleOutput()
	case "stdout":
		output = NewWriterOutput(os.Stdout)
	case "null", "none":
		output = NullOutput{}
	default:
		return nil, fmt.Errorf("unknown log output %q", cfg.Output)
	}

	return NewLogger(WithLevel(level), WithFormatter(formatter), WithOutput(output)), nil
}
