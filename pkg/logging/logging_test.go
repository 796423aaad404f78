package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	logger := NewLogger(LevelInfo)
	if logger.level != LevelInfo {
		t.Errorf("expected level %s, got %s", LevelInfo, logger.level)
	}
}

func TestLogger_Debug(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelDebug)
	logger.SetOutput(&buf)

	logger.Debug("walk entered", map[string]any{"dir": "/tmp/a"})

	output := buf.String()
	if !strings.Contains(output, `"level":"debug"`) {
		t.Errorf("expected debug level in output, got: %s", output)
	}
	if !strings.Contains(output, `"message":"walk entered"`) {
		t.Errorf("expected message in output, got: %s", output)
	}
}

func TestLogger_DebugFiltered(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelInfo)
	logger.SetOutput(&buf)

	logger.Debug("test message")

	if buf.Len() > 0 {
		t.Errorf("expected no output for debug when level is info, got: %s", buf.String())
	}
}

func TestLogger_InfoFilteredAtWarn(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelWarn)
	logger.SetOutput(&buf)

	logger.Info("quiet")
	logger.Warn("loud")

	output := buf.String()
	assert.NotContains(t, output, "quiet")
	assert.Contains(t, output, `"level":"warn"`)
}

func TestLogger_Error(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelError)
	logger.SetOutput(&buf)

	logger.Warn("skipped")
	logger.Error("error message")

	output := buf.String()
	assert.NotContains(t, output, "skipped")
	assert.Contains(t, output, `"level":"error"`)
}

func TestLogger_ErrorErr(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelError)
	logger.SetOutput(&buf)

	logger.ErrorErr("capture failed", errors.New("permission denied"), map[string]any{"root": "/srv"})

	output := buf.String()
	assert.Contains(t, output, `"error":"permission denied"`)
	assert.Contains(t, output, `"root":"/srv"`)
}

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelInfo)
	logger.SetOutput(&buf)

	scoped := logger.WithFields(map[string]any{"component": "capture"})
	scoped.Info("done")
	logger.Info("plain")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"component":"capture"`)
	assert.NotContains(t, lines[1], "component")
}

func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelInfo)
	logger.SetOutput(&buf)

	logger.Info("snapshot recorded", map[string]any{"files": 42})

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "snapshot recorded", entry.Message)
	assert.Equal(t, float64(42), entry.Fields["files"])
	assert.NotEmpty(t, entry.Timestamp)
}

func TestLogger_NoFieldsOmitted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelInfo)
	logger.SetOutput(&buf)

	logger.Info("bare")
	assert.NotContains(t, buf.String(), `"fields"`)
}

func TestLogger_SetLevel(t *testing.T) {
	logger := NewLogger(LevelError)
	logger.SetLevel(LevelDebug)

	assert.True(t, logger.Enabled(LevelDebug))
	assert.Equal(t, LevelDebug, logger.level)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{" warn ", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"trace", "", true},
		{"", "", true},
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

func TestGlobalLogger(t *testing.T) {
	prev := Global()
	t.Cleanup(func() { SetGlobal(prev) })

	var buf bytes.Buffer
	testLogger := NewLogger(LevelDebug)
	testLogger.SetOutput(&buf)
	SetGlobal(testLogger)

	Debug("global debug message")
	Info("global info message")
	Warn("global warn message")
	Error("global error message")
	ErrorErr("global error err", errors.New("boom"))

	output := buf.String()
	assert.Contains(t, output, `"message":"global debug message"`)
	assert.Contains(t, output, `"message":"global info message"`)
	assert.Contains(t, output, `"message":"global warn message"`)
	assert.Contains(t, output, `"message":"global error message"`)
	assert.Contains(t, output, `"error":"boom"`)
}

func TestWithFields_Global(t *testing.T) {
	prev := Global()
	t.Cleanup(func() { SetGlobal(prev) })

	var buf bytes.Buffer
	testLogger := NewLogger(LevelInfo)
	testLogger.SetOutput(&buf)
	SetGlobal(testLogger)

	WithFields(map[string]any{"component": "watch"}).Info("component message")

	assert.Contains(t, buf.String(), `"component":"watch"`)
}
