// Package cli provides common CLI initialization utilities shared by
// cmd/spenny and cmd/spenny-auditor.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"spenny/internal/amqp"
	"spenny/internal/config"
	spennylog "spenny/internal/log"
	"spenny/internal/storage"
)

// SetupLogger initializes structured logging at the given LOG_LEVEL and
// sets it as the default logger.
func SetupLogger(level string) *slog.Logger {
	lvl := spennylog.ParseLevel(level)
	logger := spennylog.New(spennylog.Config{
		Level:     lvl,
		Component: spennylog.ComponentApp,
		Handler:   slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}),
	})
	spennylog.SetDefault(logger)
	return logger.Logger
}

// LoadAndValidateConfig loads .env and the environment, then validates.
// Exits the process on validation failure.
func LoadAndValidateConfig() *config.Config {
	config.LoadEnvFile()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", spennylog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenStore connects to the configured SQL backend and runs migrations.
// Exits the process on failure.
func OpenStore(ctx context.Context, logger *slog.Logger, cfg *config.Config) *storage.Repository {
	repo, err := storage.Open(ctx, storage.Options{
		Driver:      storage.Driver(cfg.DatabaseDriver),
		SQLitePath:  cfg.SQLiteDBPath,
		DatabaseURL: cfg.DatabaseURL,
	})
	if err != nil {
		logger.Error("Failed to open entity store", spennylog.FieldError, err, "driver", cfg.DatabaseDriver)
		os.Exit(1)
	}
	return repo
}

// ConnectAMQP dials the broker. A queue name binds a consumer queue to keys.
func ConnectAMQP(logger *slog.Logger, cfg *config.Config, queue string, keys ...string) (*amqp.Client, error) {
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, queue, keys...)
	if err != nil {
		return nil, err
	}
	logger.Info("AMQP client connected", "exchange", cfg.AMQPExchange, "queue", queue)
	return client, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
