package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mediagrab/mediagrab/internal/bot"
	"github.com/mediagrab/mediagrab/internal/config"
	"github.com/mediagrab/mediagrab/internal/creds"
	"github.com/mediagrab/mediagrab/internal/delivery"
	"github.com/mediagrab/mediagrab/internal/extract"
	"github.com/mediagrab/mediagrab/internal/http/rest"
	"github.com/mediagrab/mediagrab/internal/janitor"
	"github.com/mediagrab/mediagrab/internal/logctx"
	"github.com/mediagrab/mediagrab/internal/notifier"
	"github.com/mediagrab/mediagrab/internal/session"
	"github.com/mediagrab/mediagrab/internal/telegram"
	"github.com/mediagrab/mediagrab/internal/telemetry"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	logger := slog.New(logctx.NewTraceHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}),
	))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Info("mediagrab starting...", "log_level", cfg.LogLevel)

	if err := run(logctx.WithLogger(ctx, logger), cfg); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("fatal error", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := logctx.LoggerFromContext(ctx)

	// =========================================================================
	// Working storage: sweep artifacts orphaned by a previous crash.
	if err := janitor.Sweep(ctx, cfg.WorkDir); err != nil {
		return fmt.Errorf("failed to sweep working storage: %w", err)
	}

	// =========================================================================
	// Start Telemetry
	tel, err := telemetry.New(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Telemetry.ServiceVersion,
	})
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}

	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown telemetry", "err", err)
		}
	}()

	// =========================================================================
	// Start Notification
	var notif notifier.Notifier
	if cfg.DiscordWebhookURL != "" {
		notif = &notifier.DiscordNotifier{WebhookURL: cfg.DiscordWebhookURL}
	}

	// =========================================================================
	// Start Chat Transport
	transport, err := telegram.NewTransport(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("failed to build chat transport: %w", err)
	}

	logger.Info("authorized on telegram", "username", transport.Username())

	handler := bot.NewHandler(
		session.NewStore(),
		creds.NewResolver(cfg.InstagramCookies),
		extract.NewYtdlpEngine(cfg.YtdlpPath),
		delivery.NewRouter(transport),
		transport,
		notif,
		tel,
		cfg.WorkDir,
		cfg.JobTimeout,
		cfg.MaxParallel,
	)

	// =========================================================================
	// Start Ops Server

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	var server *http.Server

	if cfg.Web.Enabled {
		server = &http.Server{
			Addr:         cfg.Web.BindAddress,
			ReadTimeout:  cfg.Web.ReadTimeout,
			WriteTimeout: cfg.Web.WriteTimeout,
			IdleTimeout:  cfg.Web.IdleTimeout,
			Handler:      rest.NewOpsHandler(tel).Routes(),
			BaseContext: func(net.Listener) context.Context {
				return ctx
			},
		}

		go func() {
			logger.Info("initializing ops endpoints", "host", cfg.Web.BindAddress)
			serverErrors <- server.ListenAndServe()
		}()
	}

	// =========================================================================
	// Start Update Loop
	listenDone := make(chan struct{})

	go func() {
		transport.Listen(ctx, handler, cfg.PollTimeout)
		close(listenDone)
	}()

	logger.Info("waiting for requests...",
		"work_dir", cfg.WorkDir,
		"max_parallel", cfg.MaxParallel,
		"job_timeout", cfg.JobTimeout.String(),
	)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("start shutdown")

		if server != nil {
			// Give outstanding requests a deadline for completion.
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
			defer shutdownCancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Error("failed to gracefully shutdown the server", "err", err)

				if err = server.Close(); err != nil {
					return fmt.Errorf("could not stop server gracefully: %w", err)
				}
			}
		}

		<-listenDone

		return ctx.Err()
	}
}
