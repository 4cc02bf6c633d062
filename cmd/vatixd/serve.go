package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Vatix-Protocol/vatix-backend/internal/api"
	"github.com/Vatix-Protocol/vatix-backend/internal/auditlog"
	"github.com/Vatix-Protocol/vatix-backend/internal/config"
	"github.com/Vatix-Protocol/vatix-backend/internal/locks"
	"github.com/Vatix-Protocol/vatix-backend/internal/logging"
	"github.com/Vatix-Protocol/vatix-backend/internal/matching"
	"github.com/Vatix-Protocol/vatix-backend/internal/persistence"
	"github.com/Vatix-Protocol/vatix-backend/internal/service"
	"github.com/Vatix-Protocol/vatix-backend/internal/signer"
	"github.com/Vatix-Protocol/vatix-backend/internal/validation"
)

// newServeCmd is the process entrypoint: load config, build the logger,
// open Postgres and Redis, run migrations, construct the matching
// registry, locks, signer, service and HTTP server, then block on an
// OS-signal-driven graceful shutdown.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logging.NewLoggerFromEnv(os.Getenv("APP_ENV"), cfg.LogLevel)
	defer log.AtExit()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gw, err := persistence.Open(ctx, cfg.Persistence, log.Named("persistence"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer gw.Close()

	if err := gw.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	registry := matching.NewRegistry(log.Named("matching"))
	if err := warmRegistry(ctx, registry, gw, log); err != nil {
		return fmt.Errorf("warm order books: %w", err)
	}

	admissionLocker := locks.NewAdmissionLocker(rdb, cfg.AdmissionLockTTL)
	matchingLocker := locks.NewMatchingLocker()
	audit := auditlog.New(rdb, cfg.AuditLog, log.Named("auditlog"))

	rs, err := signer.FromPrivateKeyHex(cfg.SigningPrivateKey)
	if err != nil {
		return fmt.Errorf("load signing key: %w", err)
	}

	validator := validation.NewValidator(gw, time.Now)
	svc := service.New(validator, registry, admissionLocker, matchingLocker, gw, audit, rs, nil, nil, log)

	httpAPI := api.New(log, svc)

	serverErr := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
		if err := httpAPI.Start(addr); err != nil {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	case sig := <-waitSig():
		log.Info("received shutdown signal", logging.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpAPI.Stop(shutdownCtx); err != nil {
		log.Error("error stopping HTTP server", logging.Error(err))
	}

	return nil
}

// warmRegistry rebuilds every persisted (market,outcome) book from durable
// OPEN/PARTIALLY_FILLED orders before the server accepts traffic, so
// in-memory depth matches the database exactly at startup.
func warmRegistry(ctx context.Context, registry *matching.Registry, gw *persistence.Gateway, log *logging.Logger) error {
	outcomes, err := gw.DistinctLiveMarketOutcomes(ctx)
	if err != nil {
		return err
	}
	for _, mo := range outcomes {
		rows, err := gw.GetLiveOrders(ctx, mo.MarketID, mo.Outcome)
		if err != nil {
			return err
		}
		book := matching.RebuildFromOrders(mo.MarketID, mo.Outcome, rows, log)
		registry.ReplaceBook(book)
		log.Info("warmed order book",
			logging.String("marketId", mo.MarketID),
			logging.String("outcome", string(mo.Outcome)),
			logging.Int64("orders", int64(len(rows))))
	}
	return nil
}

func waitSig() <-chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
	return ch
}
