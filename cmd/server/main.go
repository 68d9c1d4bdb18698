package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"velora/internal/api"
	"velora/internal/catalog"
	"velora/internal/config"
	"velora/internal/database"
	"velora/internal/domain"
	"velora/internal/events"
	"velora/internal/export"
	"velora/internal/httpapi"
	"velora/internal/logging"
	"velora/internal/metrics"
	"velora/internal/models"
	"velora/internal/notify"
	"velora/internal/repository"
	"velora/internal/schedule"
	"velora/internal/service"
	"velora/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	persistence, cleanup, err := initPersistence(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go serveMetrics(cfg.Monitoring.PrometheusPort, logger)
	}

	clock := schedule.SystemClock{}
	eventBus := events.NewEventBus()

	cat := catalog.New(cfg.Services, cfg.Booking.HorizonDays, clock, logger)
	store := service.NewBookingStore(ctx, persistence, eventBus, logger)
	builder := service.NewBookingBuilder(clock, logger)
	center := notify.NewCenter(time.Duration(cfg.Booking.NotificationSeconds)*time.Second, logger)
	bookingClient := api.NewClient(cfg.BookingAPI, logger)
	coord := service.NewConfirmationCoordinator(store, clock, bookingClient, center, eventBus, logger)

	var exporter domain.ExportWorker
	if cfg.Exports.Enabled {
		writer := export.NewWriter(cfg.Exports.Path, logger)
		exportWorker := worker.NewExportWorker(writer, models.DefaultExportQueueSize, worker.DefaultRetryPolicy(), logger)
		go exportWorker.Start(ctx)
		exporter = exportWorker
	}

	if cfg.Storage.Backend == "sqlite" && cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, logger)
		go backupService.Start(ctx)
	}

	if !cfg.API.Enabled {
		logger.Warn().Msg("HTTP API is disabled, nothing to serve")
		<-ctx.Done()
		return nil
	}

	server := httpapi.NewServer(cfg.API, cat, store, builder, coord, center, exporter, logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("API server error")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := baseLogger.With().Str("component", "server").Logger()

	if err := config.ValidateServices(cfg.Services); err != nil {
		logger.Error().Err(err).Msg("services validation failed")
		return nil, nil, closer, err
	}

	return cfg, &logger, closer, nil
}

// initPersistence selects the storage backend. Redis gets an in-memory
// fallback so a broken connection degrades instead of failing bookings.
func initPersistence(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (domain.PersistenceStore, func(), error) {
	switch cfg.Storage.Backend {
	case "redis":
		client := repository.NewRedisClient(cfg.Redis)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := repository.Ping(pingCtx, client); err != nil {
			logger.Warn().Err(err).Msg("redis unreachable at startup, failover will retry")
		}

		primary := repository.NewRedisStore(client, cfg.Storage.Key)
		store := repository.NewFailoverStore(primary, repository.NewMemoryStore(), logger)
		return store, func() { _ = repository.Close(client) }, nil

	case "sqlite":
		kv, err := database.NewKVStore(cfg.Database.Path, cfg.Storage.Key, logger)
		if err != nil {
			return nil, nil, err
		}
		return kv, func() { _ = kv.Close() }, nil

	case "memory":
		return repository.NewMemoryStore(), nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func serveMetrics(port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info().Str("addr", addr).Msg("metrics endpoint listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
