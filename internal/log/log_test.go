package log

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := output
	prevLevel := currentLevel.Load()
	output = &buf
	updateHandler()
	t.Cleanup(func() {
		output = prev
		currentLevel.Store(prevLevel)
		updateHandler()
	})
	return &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "", want: slog.LevelInfo},
		{in: "debug", want: slog.LevelDebug},
		{in: "WARNING", want: slog.LevelWarn},
		{in: " trace ", want: LevelTrace},
		{in: "error", want: slog.LevelError},
		{in: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetLogLevel(t *testing.T) {
	captureOutput(t)

	require.NoError(t, SetLogLevel("debug"))
	assert.Equal(t, "debug", GetLogLevel())

	assert.Error(t, SetLogLevel("nope"))
	assert.Equal(t, "debug", GetLogLevel())
}

func TestLogCtx_IncludesRequestID(t *testing.T) {
	buf := captureOutput(t)

	ctx := WithRequestID(context.Background(), "req-123")
	LogCtx(ctx, slog.LevelInfo, "gateway", "forwarded", map[string]any{"status": 200})

	line := buf.String()
	assert.Contains(t, line, "request_id=req-123")
	assert.Contains(t, line, "component=gateway")
	assert.Contains(t, line, "status=200")
}

func TestRequestID_Missing(t *testing.T) {
	assert.Equal(t, "", RequestID(context.Background()))
	assert.Equal(t, "", RequestID(nil)) //nolint:staticcheck
}
