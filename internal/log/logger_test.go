package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
)

func newBufferLogger(level slog.Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(Config{Level: level, Format: "json", Component: ComponentApp, Output: &buf}), &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid json line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLogger_StampsComponent(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)

	logger.WithComponent(ComponentStorage).Info("opened", FieldBackend, "sqlite")
	logger.Debug("hidden")

	lines := decodeLines(t, buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0][FieldComponent] != ComponentStorage || lines[0][FieldBackend] != "sqlite" {
		t.Errorf("unexpected record %v", lines[0])
	}
}

func TestContextLogger(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)
	ctx := IntoContext(context.Background(), logger.With(FieldRequestID, "req_1"))

	FromContext(ctx).InfoContext(ctx, "hello")

	lines := decodeLines(t, buf)
	if len(lines) != 1 || lines[0][FieldRequestID] != "req_1" {
		t.Fatalf("unexpected output %v", lines)
	}
	if FromContext(context.Background()).Component() != "unknown" {
		t.Error("fallback logger should report unknown component")
	}
}

func TestStructuredLogger_HTTPLevels(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)
	sl := NewStructuredLogger(logger)
	req := httptest.NewRequest("GET", "/dashboard/stats?year=2025", nil)

	sl.LogHTTPEnd(context.Background(), req, 200, 3, "10.0.0.1", "req_a")
	sl.LogHTTPEnd(context.Background(), req, 404, 1, "10.0.0.1", "req_b")
	sl.LogHTTPEnd(context.Background(), req, 500, 9, "10.0.0.1", "req_c")

	lines := decodeLines(t, buf)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	for i, want := range []string{"INFO", "WARN", "ERROR"} {
		if lines[i]["level"] != want {
			t.Errorf("line %d level = %v, want %s", i, lines[i]["level"], want)
		}
		if lines[i][FieldComponent] != ComponentHTTP {
			t.Errorf("line %d component = %v", i, lines[i][FieldComponent])
		}
	}
	if lines[0][FieldQuery] != "year=2025" || lines[0][FieldSuccess] != true {
		t.Errorf("unexpected fields %v", lines[0])
	}
}

func TestStructuredLogger_AggregationFailed(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)

	NewStructuredLogger(logger).LogAggregationFailed(context.Background(), OpSupportByType, 2025, 0, errors.New("locked"))

	lines := decodeLines(t, buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	rec := lines[0]
	if rec[FieldComponent] != ComponentDashboard || rec[FieldOperation] != OpSupportByType {
		t.Errorf("unexpected record %v", rec)
	}
	if rec[FieldError] != "locked" || rec[FieldErrorType] != ErrorTypeDatabase {
		t.Errorf("unexpected error fields %v", rec)
	}
	if _, ok := rec[FieldMonth]; ok {
		t.Error("zero month should be omitted")
	}
}

func TestStructuredLogger_AggregationTimeout(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)

	err := fmt.Errorf("count members: %w", context.DeadlineExceeded)
	NewStructuredLogger(logger).LogAggregationFailed(context.Background(), OpCountMembers, 0, 0, err)

	lines := decodeLines(t, buf)
	if len(lines) != 1 || lines[0][FieldErrorType] != ErrorTypeTimeout {
		t.Errorf("expected timeout error type, got %v", lines)
	}
}
