package log

import (
	"bytes"
	"encoding/json"
	"errors"
	stdlog "log"
	"strings"
	"testing"
)

func newBufferLogger(level Level, f Formatter) (Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := NewLogger(WithLevel(level), WithFormatter(f), WithOutput(NewWriterOutput(&buf)))
	return l, &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{"warning", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"loud", InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) err = %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTextFormatterFieldsAndComponent(t *testing.T) {
	l, buf := newBufferLogger(InfoLevel, &TextFormatter{DisableTimestamp: true})
	l.With(Component("tcp")).Info("job requeued", Uint64("job_id", 7), Str("reason", "ack timeout"))

	line := buf.String()
	if !strings.HasPrefix(line, "INFO  [tcp] job requeued") {
		t.Fatalf("unexpected prefix: %q", line)
	}
	if !strings.Contains(line, "job_id=7") {
		t.Fatalf("missing job_id: %q", line)
	}
	if !strings.Contains(line, `reason="ack timeout"`) {
		t.Fatalf("missing quoted reason: %q", line)
	}
	if !strings.Contains(line, "logger_test.go:") {
		t.Fatalf("caller should point at the test file: %q", line)
	}
}

func TestLevelGate(t *testing.T) {
	l, buf := newBufferLogger(WarnLevel, &TextFormatter{DisableTimestamp: true})
	l.Info("hidden")
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected nothing below warn, got %q", buf.String())
	}
	child := l.WithComponent("sweeper")
	l.SetLevel(DebugLevel)
	child.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("SetLevel should apply to derived loggers")
	}
}

func TestJSONFormatter(t *testing.T) {
	l, buf := newBufferLogger(DebugLevel, &JSONFormatter{})
	l.WithError(errors.New("boom")).Error("write failed", Int("n", 3))

	var got map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v (%q)", err, buf.String())
	}
	if got["msg"] != "write failed" || got["level"] != "error" || got["error"] != "boom" {
		t.Fatalf("unexpected entry: %v", got)
	}
	if got["n"].(float64) != 3 {
		t.Fatalf("n = %v", got["n"])
	}
}

func TestApplyConfig(t *testing.T) {
	if _, err := ApplyConfig(&Config{Level: "info", Format: "yaml"}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
	l, err := ApplyConfig(&Config{Level: "error", Format: "json", Output: "null"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if l.GetLevel() != ErrorLevel {
		t.Fatalf("level = %v", l.GetLevel())
	}
}

func TestToStdLogger(t *testing.T) {
	l, buf := newBufferLogger(InfoLevel, &TextFormatter{DisableTimestamp: true, DisableCaller: true})
	std := ToStdLogger(l, WarnLevel)
	std.Printf("pebble: %s", "compaction")
	if got := buf.String(); got != "WARN  pebble: compaction\n" {
		t.Fatalf("got %q", got)
	}
	var _ *stdlog.Logger = std
}
