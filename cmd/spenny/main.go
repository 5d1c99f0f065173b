package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"spenny/internal/access"
	"spenny/internal/auth"
	"spenny/internal/cache"
	"spenny/internal/cli"
	apphttp "spenny/internal/http"
	spennylog "spenny/internal/log"
	"spenny/internal/services"
)

func main() {
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.LogLevel)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	repo := cli.OpenStore(ctx, logger, cfg)
	defer repo.Close()

	tokens, err := auth.NewTokens(cfg.JWTSecretKey, cfg.JWTAlgorithm, cfg.AccessTokenExpires)
	if err != nil {
		logger.Error("Failed to initialize token issuer", spennylog.FieldError, err)
		os.Exit(1)
	}

	// Entity events are optional; without a broker writes simply aren't announced.
	var events services.Publisher
	if cfg.EventsEnabled() {
		client, err := cli.ConnectAMQP(logger, cfg, "")
		if err != nil {
			logger.Warn("AMQP unavailable, entity events disabled", spennylog.FieldError, err)
		} else {
			defer client.Close()
			events = client
		}
	} else {
		logger.Info("Entity events disabled - no AMQP_URL provided")
	}

	var resolverOpts []access.ResolverOption
	janitor := cache.NewJanitor(time.Minute, logger.With(spennylog.FieldComponent, spennylog.ComponentCache))
	if cfg.OwnerCacheTTL > 0 {
		owners := cache.NewLRU[string](cfg.OwnerCacheSize, cfg.OwnerCacheTTL)
		janitor.Register(owners)
		resolverOpts = append(resolverOpts, access.WithOwnerCache(owners))
	}

	deps := services.NewDeps(repo, events, logger, resolverOpts...)
	svc := apphttp.Services{
		Users:        services.NewUserService(repo, tokens, auth.NewPasswords(cfg.BcryptCost), logger),
		Budgets:      services.NewBudgetService(deps),
		Accounts:     services.NewAccountService(deps),
		Categories:   services.NewCategoryService(deps),
		Transactions: services.NewTransactionService(deps),
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		CORSOrigins:        cfg.CORSOrigins,
		RequestTimeout:     cfg.RequestTimeout,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	}, svc, auth.NewVerifier(tokens, repo), repo)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting spenny server", "port", cfg.Port, "driver", cfg.DatabaseDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return janitor.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		logger.Info("Shutting down server", spennylog.FieldOperation, spennylog.OpShutdown)
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", spennylog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
