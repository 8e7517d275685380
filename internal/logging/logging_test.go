package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/FocuswithJustin/changescheme/core/events"
)

// captureLogOutput captures log output for testing by temporarily
// redirecting the logger to write to a buffer
func captureLogOutput(f func()) string {
	var buf bytes.Buffer

	oldLogger := defaultLogger
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	defaultLogger = slog.New(handler)

	f()

	defaultLogger = oldLogger
	return buf.String()
}

func TestInitLoggerTo(t *testing.T) {
	tests := []struct {
		name     string
		level    Level
		format   Format
		wantInfo bool
		wantJSON bool
	}{
		{"Debug level JSON format", LevelDebug, FormatJSON, true, true},
		{"Info level Text format", LevelInfo, FormatText, true, false},
		{"Warn level Text format", LevelWarn, FormatText, false, false},
		{"Error level JSON format", LevelError, FormatJSON, false, true},
		{"Default level (invalid value)", Level(999), FormatJSON, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			InitLoggerTo(&buf, tt.level, tt.format)
			defer InitLogger(LevelWarn, FormatText)

			InfoContext(context.Background(), "info message", "key", "value")
			out := buf.String()
			if got := out != ""; got != tt.wantInfo {
				t.Fatalf("info logged = %v, want %v (%q)", got, tt.wantInfo, out)
			}
			if !tt.wantInfo {
				return
			}
			if got := json.Valid(bytes.TrimSpace(buf.Bytes())); got != tt.wantJSON {
				t.Errorf("JSON output = %v, want %v: %q", got, tt.wantJSON, out)
			}
		})
	}
}

func TestInitLoggerTo_TimeFormat(t *testing.T) {
	var buf bytes.Buffer
	InitLoggerTo(&buf, LevelInfo, FormatJSON)
	defer InitLogger(LevelWarn, FormatText)

	InfoContext(context.Background(), "hello")
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid JSON log line: %v", err)
	}
	ts, _ := rec["time"].(string)
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("time %q is not RFC3339: %v", ts, err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{" error ", LevelError, false},
		{"loud", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"text", FormatText, false},
		{"", FormatText, false},
		{"xml", FormatText, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestGetRunID(t *testing.T) {
	tests := []struct {
		name     string
		ctx      context.Context
		expected string
	}{
		{
			name:     "Context with run ID",
			ctx:      WithRunID(context.Background(), "run-1"),
			expected: "run-1",
		},
		{
			name:     "Context without run ID",
			ctx:      context.Background(),
			expected: "",
		},
		{
			name:     "Context with wrong type value",
			ctx:      context.WithValue(context.Background(), RunIDKey, 12345),
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetRunID(tt.ctx); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestContextLoggingFunctions(t *testing.T) {
	ctx := WithRunID(context.Background(), "test-run-id")

	tests := []struct {
		name string
		fn   func()
	}{
		{"DebugContext", func() { DebugContext(ctx, "debug message") }},
		{"InfoContext", func() { InfoContext(ctx, "info message") }},
		{"WarnContext", func() { WarnContext(ctx, "warning message") }},
		{"ErrorContext", func() { ErrorContext(ctx, "error message") }},
		{"RunStarted", func() { RunStarted(ctx, "scheme.csv", 3, 2) }},
		{"FileConverted", func() { FileConverted(ctx, "a.TextGrid", 10, 9, time.Millisecond) }},
		{"FileFailed", func() { FileFailed(ctx, "a.TextGrid", errors.New("boom")) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := captureLogOutput(tt.fn)
			if !strings.Contains(output, "test-run-id") {
				t.Errorf("Expected output to contain run ID, got %q", output)
			}
		})
	}
}

func TestFileConverted(t *testing.T) {
	output := captureLogOutput(func() {
		FileConverted(context.Background(), "x.TextGrid", 12, 10, 250*time.Millisecond, "unknown", 2)
	})

	for _, want := range []string{"file_converted", "x.TextGrid", `"words":12`, `"duration_ms":250`, `"unknown":2`} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %s, got %q", want, output)
		}
	}
}

func TestReporter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r := NewReporter(logger)

	r.Report(events.Event{
		Severity:  events.SeverityWarn,
		Kind:      events.KindMismatch,
		File:      "a.TextGrid",
		Word:      "si1",
		WordIndex: 3,
		Observed:  []string{"s", "i"},
		Expected:  []string{"s", "ii"},
		Message:   "scheme mismatch",
	})
	r.Report(events.Event{Severity: events.SeverityInfo, Kind: events.KindAlreadyConverted, Word: "x"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want 2: %q", len(lines), buf.String())
	}

	var warn map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &warn); err != nil {
		t.Fatal(err)
	}
	if warn["level"] != "WARN" || warn["msg"] != "scheme mismatch" || warn["kind"] != "mismatch" {
		t.Errorf("warn record = %v", warn)
	}
	if warn["file"] != "a.TextGrid" || warn["word"] != "si1" {
		t.Errorf("warn record = %v", warn)
	}

	var info map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &info); err != nil {
		t.Fatal(err)
	}
	if info["level"] != "INFO" || info["msg"] != "already_converted" {
		t.Errorf("info record = %v", info)
	}
}

func TestReporterFromContext(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-xyz")
	output := captureLogOutput(func() {
		ReporterFromContext(ctx).Report(events.Event{Severity: events.SeverityWarn, Kind: events.KindUnknownWord, Word: "w"})
	})
	if !strings.Contains(output, "run-xyz") || !strings.Contains(output, "unknown_word") {
		t.Errorf("output = %q", output)
	}
}

func TestReporter_NilLoggerUsesDefault(t *testing.T) {
	output := captureLogOutput(func() {
		NewReporter(nil).Report(events.Event{Severity: events.SeverityWarn, Kind: events.KindHeader, Message: "bad header"})
	})
	if !strings.Contains(output, "bad header") {
		t.Errorf("output = %q", output)
	}
}
