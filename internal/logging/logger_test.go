package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"soundcheck/internal/services"
)

func TestConsoleHandlerRendersComponentPrefix(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	NewComponentLogger(logger, "pipeline").Info("run complete", Int("percent", 100))

	line := buf.String()
	if !strings.Contains(line, "INFO pipeline: run complete") {
		t.Fatalf("unexpected console line: %q", line)
	}
	if !strings.Contains(line, "percent=100") {
		t.Fatalf("missing attr in console line: %q", line)
	}
}

func TestConsoleHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	logger.Warn("stage degraded", String("reason", "engine too slow"))

	if !strings.Contains(buf.String(), `reason="engine too slow"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestWithContextAddsCorrelationFields(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	ctx := services.WithJobID(context.Background(), 7)
	ctx = services.WithPhase(ctx, "loudness")
	ctx = services.WithRequestID(ctx, "req-1")

	WithContext(ctx, logger).Info("stage started")

	line := buf.String()
	for _, want := range []string{"job_id=7", "phase=loudness", "correlation_id=req-1"} {
		if !strings.Contains(line, want) {
			t.Errorf("missing %q in %q", want, line)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
