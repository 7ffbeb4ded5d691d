package logger

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONWritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelInfo, Format: FormatJSON, Writer: &buf})

	log.Info("user registered", "user_id", "user-abc")

	assert.Contains(t, buf.String(), "user registered")
	assert.Contains(t, buf.String(), `"level":"INFO"`)
	assert.Contains(t, buf.String(), `"user_id":"user-abc"`)
}

func TestNew_FormatAutoDetection(t *testing.T) {
	tests := []struct {
		environment string
		wantJSON    bool
	}{
		{"production", true},
		{"development", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(Config{Environment: tt.environment, Writer: &buf})
			log.Info("hello")

			if tt.wantJSON {
				assert.Contains(t, buf.String(), `"msg":"hello"`)
			} else {
				assert.Contains(t, buf.String(), "INF")
				assert.NotContains(t, buf.String(), `"msg"`)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}

	for input, want := range tests {
		assert.Equal(t, want, ParseLevel(input), "input %q", input)
	}
}

func TestRedactsSensitiveKeys(t *testing.T) {
	for _, format := range []string{FormatJSON, FormatPretty} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(Config{Format: format, Writer: &buf})

			log.Info("login attempt", "email", "a@b.c", "password", "hunter2", "token", "v4.local.xyz")

			out := buf.String()
			assert.NotContains(t, out, "hunter2")
			assert.NotContains(t, out, "v4.local.xyz")
			assert.Contains(t, out, redacted)
			assert.Contains(t, out, "a@b.c")
		})
	}
}

func TestPrettyHandler_Enabled(t *testing.T) {
	h := NewPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})

	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))

	noOpts := NewPrettyHandler(&bytes.Buffer{}, nil)
	assert.False(t, noOpts.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, noOpts.Enabled(context.Background(), slog.LevelInfo))
}

func TestPrettyHandler_Groups(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, nil))

	log.WithGroup("http").With("method", "POST").Info("request", "status", 200)

	out := buf.String()
	assert.Contains(t, out, "http.method=POST")
	assert.Contains(t, out, "http.status=200")
}

func TestPrettyHandler_QuotesStringsWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, nil))

	log.Info("saved", "title", "The Hobbit")

	assert.Contains(t, buf.String(), `title="The Hobbit"`)
}

func TestFormatLevel(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, "DBG"},
		{slog.LevelInfo, "INF"},
		{slog.LevelWarn, "WRN"},
		{slog.LevelError, "ERR"},
	}
	for _, tt := range tests {
		got, _ := formatLevel(tt.level)
		assert.Equal(t, tt.want, got)
	}
}

func TestFormatValue(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	assert.Equal(t, "2026-01-02T03:04:05Z", formatValue(slog.TimeValue(ts)))
	assert.Equal(t, "1.5s", formatValue(slog.DurationValue(1500*time.Millisecond)))
	assert.Equal(t, "42", formatValue(slog.IntValue(42)))
	assert.Equal(t, "true", formatValue(slog.BoolValue(true)))
}

func TestLogger_Helpers(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Format: FormatJSON, Writer: &buf})

	log.WithComponent("graphql").
		WithField("operation", "saveBook").
		WithError(errors.New("store unavailable")).
		Error("resolver failed")

	out := buf.String()
	assert.Contains(t, out, `"component":"graphql"`)
	assert.Contains(t, out, `"operation":"saveBook"`)
	assert.Contains(t, out, `"error":"store unavailable"`)
}

func TestLogger_WithNilError(t *testing.T) {
	log := New(Config{Writer: io.Discard})
	require.Same(t, log, log.WithError(nil))
}

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Format: FormatJSON, Writer: &buf})

	log.WithFields(map[string]any{"book_id": "B1", "count": 2}).Info("book saved")

	assert.Contains(t, buf.String(), `"book_id":"B1"`)
	assert.Contains(t, buf.String(), `"count":2`)
}
