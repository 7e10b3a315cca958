package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Zenithi77/sain-league/internal/broker"
	"github.com/Zenithi77/sain-league/internal/config"
	"github.com/Zenithi77/sain-league/internal/db"
	"github.com/Zenithi77/sain-league/internal/service"
	"github.com/Zenithi77/sain-league/pkg/infra"
	"github.com/Zenithi77/sain-league/pkg/metrics"
	"github.com/google/uuid"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()
	logger := infra.SetupLogger(cfg).With("run_id", uuid.NewString())
	slog.SetDefault(logger)
	defer infra.CloseLogger()

	defer func() {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Warn("Failed to write metrics textfile", "path", cfg.MetricsTextfile, "error", err)
		}
	}()

	// Canceled on SIGINT (Ctrl+C) or SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("🔧 Initializing season migration...", "path", cfg.DataPath)

	// A broken data file fails before any connection attempt
	archive, err := service.LoadSeason(cfg.DataPath)
	if err != nil {
		logger.Error("FATAL: data file is not importable", "error", err)
		return 1
	}

	repo, err := connectPostgres(ctx, cfg, logger)
	if err != nil {
		logger.Error("FATAL: Failed to connect to Postgres", "error", err)
		return 1
	}
	defer repo.Close()

	var publisher service.EventPublisher
	if cfg.RabbitMQURL != "" {
		rabbit, err := connectRabbitMQ(ctx, cfg, logger)
		if err != nil {
			logger.Error("FATAL: Failed to connect to RabbitMQ", "error", err)
			return 1
		}
		defer rabbit.Close()
		publisher = rabbit
	}

	migrator := service.NewMigrator(repo, publisher, logger)
	res, err := migrator.Migrate(ctx, cfg.DataPath, archive)
	if err != nil {
		if errors.Is(err, service.ErrPublish) {
			logger.Error("Season committed but the announcement was not delivered", "error", err)
		} else {
			logger.Error("FATAL: season migration failed", "error", err)
		}
		return 1
	}

	fmt.Printf("Migrated season %s: %d teams, %d players, %d games, %d boxscores.\n",
		res.SeasonID, res.Teams, res.Players, res.Games, res.Boxscores)
	return 0
}

func connectPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*db.PostgresRepository, error) {
	var repo *db.PostgresRepository
	backoff := infra.NewBackoff(1*time.Second, 15*time.Second, 2.0)

	err := infra.Retry(ctx, backoff, cfg.ConnectAttempts, func(ctx context.Context) error {
		var err error
		repo, err = db.NewPostgresRepository(ctx, cfg.DatabaseURL, logger)
		return err
	}, func(attempt int, wait time.Duration, err error) {
		logger.Warn("Postgres connection failed, retrying...", "attempt", attempt, "wait", wait, "error", err)
	})
	return repo, err
}

func connectRabbitMQ(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*broker.RabbitMQClient, error) {
	var client *broker.RabbitMQClient
	backoff := infra.NewBackoff(1*time.Second, 15*time.Second, 2.0)

	err := infra.Retry(ctx, backoff, cfg.ConnectAttempts, func(context.Context) error {
		var err error
		client, err = broker.NewRabbitMQClient(cfg.RabbitMQURL, logger)
		return err
	}, func(attempt int, wait time.Duration, err error) {
		logger.Warn("RabbitMQ connection failed, retrying...", "attempt", attempt, "wait", wait, "error", err)
	})
	return client, err
}
