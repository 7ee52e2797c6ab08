package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http/httptest"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
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

func newJSONLogger(buf *bytes.Buffer) *Logger {
	return New(Config{Level: slog.LevelDebug, Format: "json", Component: ComponentApp, Output: buf})
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	return m
}

func TestLogger_Component(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(&buf).WithComponent(ComponentStorage)

	logger.Info("opened", FieldUserID, 7)

	m := decode(t, &buf)
	if m[FieldComponent] != ComponentStorage {
		t.Errorf("component = %v, want %s", m[FieldComponent], ComponentStorage)
	}
	if m[FieldUserID] != float64(7) {
		t.Errorf("user_id = %v, want 7", m[FieldUserID])
	}
}

func TestStructuredLogger_HTTPEndLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{200, "INFO"},
		{404, "WARN"},
		{500, "ERROR"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		sl := NewStructuredLogger(newJSONLogger(&buf))
		r := httptest.NewRequest("GET", "/users/1/dashboard", nil)

		sl.LogHTTPEnd(context.Background(), r, tt.status, 12, "10.0.0.1")

		m := decode(t, &buf)
		if m["level"] != tt.level {
			t.Errorf("status %d logged at %v, want %s", tt.status, m["level"], tt.level)
		}
		if m[FieldSuccess] != (tt.status < 400) {
			t.Errorf("status %d success = %v", tt.status, m[FieldSuccess])
		}
	}
}

func TestStructuredLogger_LogError(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newJSONLogger(&buf))

	sl.LogError(context.Background(), "save failed", errors.New("disk full"), ComponentStorage, OpCreate, nil)

	m := decode(t, &buf)
	if m[FieldError] != "disk full" || m[FieldOperation] != OpCreate {
		t.Errorf("unexpected fields: %v", m)
	}
}

func TestFromContext(t *testing.T) {
	if got := FromContext(context.Background()); got.Component() != "unknown" {
		t.Errorf("fallback component = %q", got.Component())
	}

	logger := New(DefaultConfig()).WithComponent(ComponentHTTP)
	if got := FromContext(NewContext(context.Background(), logger)); got != logger {
		t.Error("FromContext did not return the stored logger")
	}
}
