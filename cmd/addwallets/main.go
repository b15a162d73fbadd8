// Package main provides a bulk wallet loader. It reads a JSON file of wallet
// definitions and registers each one, skipping addresses already tracked.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/wallet-tracker/internal/config"
	apperrors "github.com/wallet-tracker/internal/errors"
	"github.com/wallet-tracker/internal/logging"
	"github.com/wallet-tracker/internal/models"
	"github.com/wallet-tracker/internal/service"
	"github.com/wallet-tracker/internal/storage"
	"github.com/wallet-tracker/internal/types"
)

type walletEntry struct {
	Address     string          `json:"address"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Networks    []types.Network `json:"networks,omitempty"`
}

func main() {
	file := flag.String("file", "wallets.json", "Path to the wallet definitions file")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logging.InitGlobalLogger(cfg.Logging.Level, "text")
	logger := logging.GetGlobalLogger()

	data, err := os.ReadFile(*file)
	if err != nil {
		logger.WithError(err).Fatal("failed to read wallet file")
	}

	var entries []walletEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.WithError(err).Fatal("failed to parse wallet file")
	}

	db, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to Postgres")
	}
	defer db.Close()

	walletRepo := storage.NewWalletRepository(db)
	stateRepo := storage.NewSyncStateRepository(db)

	walletService, err := service.NewWalletService(walletRepo, stateRepo, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to create wallet service")
	}

	ctx := context.Background()
	var added, skipped, failed int

	for _, entry := range entries {
		wallet, err := walletService.Register(ctx, &models.CreateWalletRequest{
			Address:     entry.Address,
			Name:        entry.Name,
			Description: entry.Description,
			Networks:    entry.Networks,
		})
		if err != nil {
			if apperrors.IsConflict(err) {
				skipped++
				logger.WithField("address", entry.Address).Info("wallet already registered, skipping")
				continue
			}
			failed++
			logger.WithError(err).WithField("address", entry.Address).Error("failed to register wallet")
			continue
		}
		added++
		logger.WithFields(map[string]interface{}{
			"wallet_id": wallet.ID,
			"address":   wallet.Address,
		}).Info("wallet registered")
	}

	logger.WithFields(map[string]interface{}{
		"added":   added,
		"skipped": skipped,
		"failed":  failed,
	}).Info("wallet import finished")

	if failed > 0 {
		os.Exit(1)
	}
}
