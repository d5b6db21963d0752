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

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
		wantErr  bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestLoggerJSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelDebug, Format: "json", Output: &buf})

	logger.WithComponent("styles").
		With("file", "main.scss").
		Error(context.Background(), errors.New("boom"), "compile failed", "line", 3)

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "compile failed", record["msg"])
	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, "styles", record["component"])
	assert.Equal(t, "boom", record["error"])
	assert.Equal(t, "main.scss", record["file"])
	assert.Equal(t, float64(3), record["line"])
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelWarn, Output: &buf})

	logger.Debug(context.Background(), "hidden debug")
	logger.Info(context.Background(), "hidden info")
	logger.Warn(context.Background(), nil, "shown warning")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown warning")
}

func TestWithDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLogger(&LoggerConfig{Level: LevelInfo, Output: &buf})
	_ = parent.With("child", true)

	parent.Info(context.Background(), "parent line")
	assert.NotContains(t, buf.String(), "child=")
}

func TestStartOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelInfo, Output: &buf})

	op := StartOperation(logger, "fonts")
	d := op.End(context.Background())

	assert.GreaterOrEqual(t, int64(d), int64(0))
	assert.True(t, strings.Contains(buf.String(), "Finished 'fonts'"))
	assert.Contains(t, buf.String(), "operation=fonts")
}
