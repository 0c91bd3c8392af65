package config

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "downloads", cfg.WorkDir)
	assert.Equal(t, "yt-dlp", cfg.YtdlpPath)
	assert.Equal(t, 3, cfg.MaxParallel)
	assert.Equal(t, 15*time.Minute, cfg.JobTimeout)
	assert.False(t, cfg.Web.Enabled)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoadConfig_RequiresBotToken(t *testing.T) {
	// t.Setenv registers the restore; the variable must be entirely
	// unset because envconfig accepts a present-but-empty value.
	t.Setenv("BOT_TOKEN", "placeholder")
	require.NoError(t, os.Unsetenv("BOT_TOKEN"))

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{in: "DEBUG", want: slog.LevelDebug},
		{in: "info", want: slog.LevelInfo},
		{in: "WARN", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "bogus", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.in}
			assert.Equal(t, tt.want, cfg.SlogLevel())
		})
	}
}
