package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

// TextFormatter renders entries as single human-readable lines:
//
//	2025-01-02T15:04:05.000Z INFO  [tcp] listening addr=127.0.0.1:8294 (server.go:42)
type TextFormatter struct {
	DisableTimestamp bool
	DisableCaller    bool
}

// Format implements Formatter.
func (f *TextFormatter) Format(entry *Entry) ([]byte, error) {
	var b bytes.Buffer
	if !f.DisableTimestamp {
		b.WriteString(entry.Timestamp.Format(timestampFormat))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s ", entry.Level.String())
	if c, ok := entry.Fields[ComponentKey]; ok {
		fmt.Fprintf(&b, "[%v] ", c)
	}
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		if k == ComponentKey {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(textValue(entry.Fields[k]))
	}
	if !f.DisableCaller && entry.Caller != "" {
		b.WriteString(" (")
		b.WriteString(entry.Caller)
		b.WriteByte(')')
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func textValue(v interface{}) string {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case time.Time:
		s = t.Format(timestampFormat)
	case []byte:
		s = string(t)
	default:
		s = fmt.Sprint(t)
	}
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

// JSONFormatter renders entries as one JSON object per line.
type JSONFormatter struct {
	DisableCaller bool
}

// Format implements Formatter.
func (f *JSONFormatter) Format(entry *Entry) ([]byte, error) {
	out := make(map[string]interface{}, len(entry.Fields)+4)
	for k, v := range entry.Fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		out[k] = v
	}
	out["time"] = entry.Timestamp.Format(timestampFormat)
	out["level"] = strings.ToLower(entry.Level.String())
	out["msg"] = entry.Message
	if !f.DisableCaller && entry.Caller != "" {
		out["caller"] = entry.Caller
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
