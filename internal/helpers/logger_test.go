package helpers

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	t.Parallel()

	t.Run("nil handler falls back to default", func(t *testing.T) {
		handler, logger := SetupLogger(nil, "bridge", "Bridge")
		require.NotNil(t, handler)
		require.NotNil(t, logger)
	})

	t.Run("custom handler is kept and grouped", func(t *testing.T) {
		var buf bytes.Buffer
		custom := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})

		handler, logger := SetupLogger(custom, "bridge", "Consumer")
		assert.Equal(t, custom, handler)

		logger.Debug("dequeued", "kind", "comment")
		assert.Contains(t, buf.String(), "Consumer.kind=comment")
	})

	t.Run("empty group name", func(t *testing.T) {
		var buf bytes.Buffer
		custom := slog.NewTextHandler(&buf, nil)

		_, logger := SetupLogger(custom, "bridge", "")
		logger.Info("started", "args", 1)
		assert.Contains(t, buf.String(), " args=1")
	})
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "INFO", want: slog.LevelInfo},
		{input: "", want: slog.LevelInfo},
		{input: "warn", want: slog.LevelWarn},
		{input: " warning ", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "verbose", want: slog.LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
