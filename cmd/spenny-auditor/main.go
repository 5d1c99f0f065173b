package main

import (
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"spenny/internal/cli"
	"spenny/internal/core"
	spennylog "spenny/internal/log"
	"spenny/internal/worker"
)

func main() {
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.LogLevel)

	if !cfg.EventsEnabled() {
		logger.Error("AMQP_URL is required for the auditor")
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	repo := cli.OpenStore(ctx, logger, cfg)
	defer repo.Close()

	client, err := cli.ConnectAMQP(logger, cfg, cfg.AMQPQueue,
		core.EventType(core.ResourceBudget, core.ActionDefaultChanged))
	if err != nil {
		logger.Error("Failed to initialize AMQP client", spennylog.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	auditor := worker.NewAuditor(repo, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.Consume(gctx, auditor.HandleEvent)
	})
	g.Go(func() error {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				stats := auditor.Stats()
				logger.Info("Auditor stats",
					"processed", stats.Processed,
					"ignored", stats.Ignored,
					"violations", stats.Violations,
					"non_atomic", stats.NonAtomic)
			}
		}
	})

	logger.Info("Starting spenny-auditor", "queue", cfg.AMQPQueue, spennylog.FieldOperation, spennylog.OpStartup)
	if err := g.Wait(); err != nil {
		logger.Error("Auditor stopped with error", spennylog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Auditor shutdown complete")
}
