package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "debug", FormatJSON)

	l.Debug().Str("key", "page:home").Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "hello" {
		t.Errorf("Expected message 'hello', got %v", entry["message"])
	}
	if entry["key"] != "page:home" {
		t.Errorf("Expected key field, got %v", entry["key"])
	}
	if entry["service"] != "autosave" {
		t.Errorf("Expected service field, got %v", entry["service"])
	}
	if _, ok := entry["pid"]; !ok {
		t.Error("Expected pid field")
	}
}

func TestNewWithWriterLevels(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tc := range tests {
		t.Run(tc.level, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewWithWriter(&buf, tc.level, FormatJSON)
			if l.GetLevel() != tc.want {
				t.Errorf("Expected level %v, got %v", tc.want, l.GetLevel())
			}
		})
	}
}

func TestNewWithWriterConsole(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "info", FormatConsole)
	l.Info().Msg("console line")

	if !bytes.Contains(buf.Bytes(), []byte("console line")) {
		t.Errorf("Expected console output to contain message, got %q", buf.String())
	}
	if json.Valid(bytes.TrimSpace(buf.Bytes())) {
		t.Error("Expected console output not to be JSON")
	}
}
