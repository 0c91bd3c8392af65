package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config struct for environment variables.
type Config struct {
	BotToken string `envconfig:"BOT_TOKEN" required:"true"`

	WorkDir   string `envconfig:"WORK_DIR" default:"downloads"`
	YtdlpPath string `envconfig:"YTDLP_PATH" default:"yt-dlp"`

	// Process-wide Instagram cookie material used when a user has not
	// stored their own override.
	InstagramCookies string `envconfig:"INSTAGRAM_COOKIES"`

	MaxParallel int           `envconfig:"MAX_PARALLEL" default:"3"`
	JobTimeout  time.Duration `envconfig:"JOB_TIMEOUT" default:"15m"`
	PollTimeout time.Duration `envconfig:"POLL_TIMEOUT" default:"30s"`

	LogLevel          string `envconfig:"LOG_LEVEL" default:"INFO"`
	DiscordWebhookURL string `envconfig:"DISCORD_WEBHOOK_URL"`

	Telemetry struct {
		Enabled        bool   `split_words:"true" default:"false"`
		ServiceName    string `split_words:"true" default:"mediagrab"`
		ServiceVersion string `split_words:"true" default:"dev"`
	}

	Web struct {
		Enabled         bool          `split_words:"true" default:"false"`
		BindAddress     string        `split_words:"true" default:"0.0.0.0:9092"`
		ReadTimeout     time.Duration `split_words:"true" default:"30s"`
		WriteTimeout    time.Duration `split_words:"true" default:"30s"`
		IdleTimeout     time.Duration `split_words:"true" default:"5s"`
		ShutdownTimeout time.Duration `split_words:"true" default:"30s"`
	}
}

// LoadConfig reads environment variables and populates the Config struct.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env: %w", err)
	}

	return &cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
