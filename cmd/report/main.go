// Package main generates a balance report over whitelisted, non-spam
// balances and writes it to the reports directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/wallet-tracker/internal/config"
	"github.com/wallet-tracker/internal/logging"
	"github.com/wallet-tracker/internal/service"
	"github.com/wallet-tracker/internal/storage"
)

func main() {
	format := flag.String("format", "csv", "Report format: csv or json")
	out := flag.String("out", "", "Output file path (defaults to a timestamped file in the reports directory)")
	flag.Parse()

	if *format != "csv" && *format != "json" {
		log.Fatalf("Unknown format %q: must be csv or json", *format)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logging.InitGlobalLogger(cfg.Logging.Level, "text")
	logger := logging.GetGlobalLogger()

	db, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to Postgres")
	}
	defer db.Close()

	walletRepo := storage.NewWalletRepository(db)
	balanceRepo := storage.NewBalanceRepository(db)

	reportService, err := service.NewReportService(walletRepo, balanceRepo, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to create report service")
	}

	ctx := context.Background()

	report, err := reportService.Report(ctx)
	if err != nil {
		logger.WithError(err).Fatal("failed to build balance report")
	}

	var body []byte
	switch *format {
	case "csv":
		body, err = reportService.RenderCSV(report)
	case "json":
		body, err = reportService.RenderJSON(report)
	}
	if err != nil {
		logger.WithError(err).Fatal("failed to render balance report")
	}

	path := *out
	if path == "" {
		if err := os.MkdirAll(cfg.Tracker.ReportsDir, 0o755); err != nil {
			logger.WithError(err).Fatal("failed to create reports directory")
		}
		name := fmt.Sprintf("balance-report-%s.%s", time.Now().Format("20060102-150405"), *format)
		path = filepath.Join(cfg.Tracker.ReportsDir, name)
	}

	if err := os.WriteFile(path, body, 0o644); err != nil {
		logger.WithError(err).Fatal("failed to write balance report")
	}

	logger.WithFields(map[string]interface{}{
		"path":      path,
		"rows":      len(report.Rows),
		"total_usd": report.TotalUSD.String(),
	}).Info("balance report written")
}
