package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger("skyscraper-test", "1.0.0", InfoLevel)
	logger.SetOutput(&buf)

	ctx := WithRequestID(context.Background(), "req-42")
	logger.Debug(ctx, "[TEST] hidden", nil)
	logger.Info(ctx, "[TEST] city loaded", Fields{"city": "Dubai", "towers": 3})
	logger.Error(context.Background(), "[TEST] failed", Fields{"city": "Paris"}, errors.New("boom"))

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)

	info := entries[0]
	assert.Equal(t, "info", info["level"])
	assert.Equal(t, "[TEST] city loaded", info["message"])
	assert.Equal(t, "skyscraper-test", info["service"])
	assert.Equal(t, "1.0.0", info["version"])
	assert.Equal(t, "Dubai", info["city"])
	assert.Equal(t, float64(3), info["towers"])
	assert.Equal(t, "req-42", info["request_id"])

	failed := entries[1]
	assert.Equal(t, "error", failed["level"])
	assert.Equal(t, "boom", failed["error"])
	assert.NotEmpty(t, failed["file"])
	assert.NotContains(t, failed, "request_id")
}

func TestStructuredLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger("svc", "v", ErrorLevel)
	logger.SetOutput(&buf)

	logger.Warn(context.Background(), "skipped", nil)
	assert.Zero(t, buf.Len())

	logger.SetLevel(DebugLevel)
	logger.Debug(context.Background(), "shown", nil)
	assert.Len(t, decodeLines(t, &buf), 1)
}

func TestContextLogger_MergesFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger("svc", "v", DebugLevel)
	logger.SetOutput(&buf)

	scoped := logger.WithFields(Fields{"component": "scraper", "city": "default"})
	scoped.Info(context.Background(), "merged", Fields{"city": "Tokyo"})

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "scraper", entries[0]["component"])
	assert.Equal(t, "Tokyo", entries[0]["city"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
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
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_FileOutput(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(Options{Service: "skyscraper", Version: "v", Level: "info", FilePath: dir, RotationSize: 1, RetentionDays: 1})
	require.NoError(t, err)
	logger.Info(context.Background(), "[TEST] to file", nil)
	assert.FileExists(t, dir+"/skyscraper.log")

	_, err = New(Options{Level: "loud"})
	assert.Error(t, err)
}
