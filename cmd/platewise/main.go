package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	slacklib "github.com/slack-go/slack"

	"github.com/platewise/platewise/internal/auth"
	"github.com/platewise/platewise/internal/config"
	"github.com/platewise/platewise/internal/identity"
	"github.com/platewise/platewise/internal/notify"
	"github.com/platewise/platewise/internal/provision"
	"github.com/platewise/platewise/internal/server"
	"github.com/platewise/platewise/internal/setuplink"
	"github.com/platewise/platewise/internal/store/postgres"
	redisstore "github.com/platewise/platewise/internal/store/redis"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// Local development convenience; absence of a .env file is fine.
	_ = godotenv.Load()

	// Initialize structured logging from environment.
	logLevel := os.Getenv("PLATEWISE_LOG_LEVEL")
	level, parseErr := zerolog.ParseLevel(logLevel)
	if parseErr != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logFormat := os.Getenv("PLATEWISE_LOG_FORMAT")
	if logFormat == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	ctx := context.Background()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	// Connect to PostgreSQL.
	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	// Connect to Redis for the issuance rate limiter.
	limiter, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer func() { _ = limiter.Close() }()

	// Identity provider admin client.
	idp := identity.NewClient(
		cfg.Identity.BaseURL,
		cfg.Identity.TokenURL,
		cfg.Identity.ClientID,
		cfg.Identity.ClientSecret,
		cfg.Identity.Timeout,
	)

	// Ops alerts go to Slack when configured.
	var alerter provision.Alerter
	if cfg.Slack.BotToken != "" && cfg.Slack.OpsChannel != "" {
		alerter = notify.NewSlackAlerter(slacklib.New(cfg.Slack.BotToken), cfg.Slack.OpsChannel, log.Logger)
		log.Info().Str("channel", cfg.Slack.OpsChannel).Msg("Slack ops alerts enabled")
	}

	// Setup-link emails go through the delivery provider when configured.
	var email notify.EmailSender = notify.NopEmailSender{}
	if cfg.Email.ProviderURL != "" {
		email = notify.NewHTTPEmailSender(cfg.Email.ProviderURL, cfg.Email.APIKey, cfg.Email.From, 10*time.Second)
	}

	authSvc := auth.NewService(store.Admins(), cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	provisioner := provision.NewService(store.Tenants(), store.Provisioning(), idp, alerter, log.Logger)
	links := setuplink.NewService(store.Tenants(), store.SetupLinks(), limiter, email, cfg.Links, log.Logger)

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Create HTTP server with all routes wired.
	srv := server.New(ctx, cfg, store, authSvc, provisioner, links, log.Logger)

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}
