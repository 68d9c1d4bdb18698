package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"velora/internal/config"
	"velora/internal/database"
	"velora/internal/domain"
	"velora/internal/models"
	"velora/internal/repository"

	"github.com/rs/zerolog"
)

// Moves the persisted reservation set between storage backends, e.g. when
// switching a deployment from sqlite to redis.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		configPath = flag.String("config", "configs/config.yaml", "path to config.yaml")
		from       = flag.String("from", "sqlite", "source backend: redis or sqlite")
		to         = flag.String("to", "redis", "target backend: redis or sqlite")
	)
	flag.Parse()

	if *from == *to {
		return fmt.Errorf("source and target backends are the same")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	source, closeSource, err := openStore(*from, cfg, &logger)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer closeSource()

	target, closeTarget, err := openStore(*to, cfg, &logger)
	if err != nil {
		return fmt.Errorf("open target: %w", err)
	}
	defer closeTarget()

	payload, err := source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load from %s: %w", *from, err)
	}
	if len(payload) == 0 {
		logger.Info().Str("from", *from).Msg("source is empty, nothing to migrate")
		return nil
	}

	var bookings []models.Booking
	if err := json.Unmarshal(payload, &bookings); err != nil {
		return fmt.Errorf("source payload is not a valid reservation set: %w", err)
	}

	if err := target.Save(ctx, payload); err != nil {
		return fmt.Errorf("save to %s: %w", *to, err)
	}

	logger.Info().
		Str("from", *from).
		Str("to", *to).
		Int("bookings", len(bookings)).
		Msg("reservation set migrated")
	return nil
}

func openStore(backend string, cfg *config.Config, logger *zerolog.Logger) (domain.PersistenceStore, func(), error) {
	switch backend {
	case "redis":
		client := repository.NewRedisClient(cfg.Redis)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := repository.Ping(pingCtx, client); err != nil {
			_ = repository.Close(client)
			return nil, nil, err
		}
		return repository.NewRedisStore(client, cfg.Storage.Key), func() { _ = repository.Close(client) }, nil

	case "sqlite":
		kv, err := database.NewKVStore(cfg.Database.Path, cfg.Storage.Key, logger)
		if err != nil {
			return nil, nil, err
		}
		return kv, func() { _ = kv.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q", backend)
	}
}
