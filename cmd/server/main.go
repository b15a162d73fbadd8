// Command server runs the wallet tracker API, the sync scheduler and the
// balance tracker.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/wallet-tracker/internal/api"
	"github.com/wallet-tracker/internal/config"
	"github.com/wallet-tracker/internal/logging"
	"github.com/wallet-tracker/internal/provider"
	"github.com/wallet-tracker/internal/service"
	"github.com/wallet-tracker/internal/storage"
	"github.com/wallet-tracker/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.GetGlobalLogger().WithError(err).Fatal("failed to load configuration")
	}

	logging.InitGlobalLogger(cfg.Logging.Level, cfg.Logging.Format)
	logger := logging.GetGlobalLogger()
	defer logger.Sync() // nolint:errcheck // flush on exit

	logger.Info("starting wallet tracker")

	if err := storage.RunMigrations(&cfg.Database.Postgres); err != nil {
		logger.WithError(err).Fatal("failed to run migrations")
	}

	db, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to Postgres")
	}
	defer db.Close()

	cache, err := storage.NewRedisCache(&cfg.Database.Redis)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}
	defer cache.Close() // nolint:errcheck // closing on exit

	ctx := context.Background()

	walletRepo := storage.NewWalletRepository(db)
	stateRepo := storage.NewSyncStateRepository(db)
	txRepo := storage.NewTransactionRepository(db)
	balanceRepo := storage.NewBalanceRepository(db)
	whitelistRepo, err := storage.NewWhitelistRepository(ctx, db)
	if err != nil {
		logger.WithError(err).Fatal("failed to load whitelist")
	}

	providerClient, err := provider.NewClient(cfg.Provider, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to create provider client")
	}

	walletService, err := service.NewWalletService(walletRepo, stateRepo, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to create wallet service")
	}
	whitelistService, err := service.NewWhitelistService(whitelistRepo, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to create whitelist service")
	}
	historyService, err := service.NewHistoryService(walletRepo, txRepo, cache, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to create history service")
	}
	reportService, err := service.NewReportService(walletRepo, balanceRepo, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to create report service")
	}

	coordinator, err := worker.NewSyncCoordinator(worker.CoordinatorConfig{
		Provider:     providerClient,
		States:       stateRepo,
		Transactions: txRepo,
		Whitelist:    whitelistRepo,
		StatsCache:   historyService,
		Sync:         cfg.Sync,
		Logger:       logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create sync coordinator")
	}

	tracker, err := worker.NewBalanceTracker(worker.TrackerConfig{
		Provider:  providerClient,
		Wallets:   walletRepo,
		Balances:  balanceRepo,
		Whitelist: whitelistRepo,
		Tracker:   cfg.Tracker,
		Logger:    logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create balance tracker")
	}

	scheduler, err := worker.NewSyncScheduler(coordinator, stateRepo, cfg.Sync, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to create sync scheduler")
	}

	server, err := api.NewServer(cfg.Server, api.ServerDeps{
		Wallets:   walletService,
		Whitelist: whitelistService,
		History:   historyService,
		Reports:   reportService,
		Sync:      coordinator,
		Refresher: tracker,
		Logger:    logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create API server")
	}

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	if cfg.Sync.Enabled {
		scheduler.Start(workerCtx)
	}
	if cfg.Tracker.Enabled {
		tracker.Start(workerCtx)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.WithField("signal", sig.String()).Info("shutdown signal received")
	case err := <-serverErr:
		logger.WithError(err).Error("API server failed")
	}

	cancelWorkers()
	if cfg.Sync.Enabled {
		scheduler.Stop()
	}
	if cfg.Tracker.Enabled {
		tracker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("server shutdown failed")
	}

	logger.Info("wallet tracker stopped")
}
