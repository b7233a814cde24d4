package cli

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogConfig_NewLogger(t *testing.T) {
	tests := []struct {
		name   string
		config LogConfig
	}{
		{name: "defaults", config: LogConfig{}},
		{name: "text", config: LogConfig{Level: "debug", Format: "text"}},
		{name: "color", config: LogConfig{Level: "warn", Format: "color"}},
		{name: "json", config: LogConfig{Level: "error", Format: "json"}},
		{name: "quiet", config: LogConfig{Quiet: true}},
		{name: "mixed case", config: LogConfig{Level: "INFO", Format: " Text "}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			logger, err := test.config.NewLogger()
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestLogConfig_NewLogger_Invalid(t *testing.T) {
	_, err := LogConfig{Level: "verbose"}.NewLogger()
	assert.Error(t, err)

	_, err = LogConfig{Format: "yaml"}.NewLogger()
	assert.Error(t, err)
}

func TestLogConfig_Level(t *testing.T) {
	tests := []struct {
		value string
		want  slog.Level
	}{
		{value: "", want: slog.LevelInfo},
		{value: "debug", want: slog.LevelDebug},
		{value: "info", want: slog.LevelInfo},
		{value: "warn", want: slog.LevelWarn},
		{value: "error", want: slog.LevelError},
	}

	for _, test := range tests {
		level, err := LogConfig{Level: test.value}.level()
		require.NoError(t, err)
		assert.Equal(t, test.want, level)
	}
}
