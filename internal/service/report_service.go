package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wallet-tracker/internal/logging"
	"github.com/wallet-tracker/internal/models"
)

// WalletCounter counts wallets for tracking stats
type WalletCounter interface {
	Counts(ctx context.Context) (total int, active int, err error)
}

// BalanceReader is the balance query surface the report service needs
type BalanceReader interface {
	ListByWallet(ctx context.Context, walletID uuid.UUID, filter *models.BalanceFilter) ([]*models.WalletBalance, error)
	CountStats(ctx context.Context) (balances, whitelisted, spam int, totalUSD decimal.Decimal, err error)
	ListReportRows(ctx context.Context) ([]*models.BalanceReportRow, error)
}

// ReportService serves tracking stats, balance listings and the balance report
type ReportService struct {
	wallets  WalletCounter
	balances BalanceReader
	logger   *logging.Logger
}

// NewReportService creates a new report service
func NewReportService(wallets WalletCounter, balances BalanceReader, logger *logging.Logger) (*ReportService, error) {
	if wallets == nil {
		return nil, fmt.Errorf("wallet counter is required")
	}
	if balances == nil {
		return nil, fmt.Errorf("balance reader is required")
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	return &ReportService{
		wallets:  wallets,
		balances: balances,
		logger:   logger.WithField("component", "report_service"),
	}, nil
}

// TrackingStats aggregates wallet and balance counts
func (s *ReportService) TrackingStats(ctx context.Context) (*models.TrackingStats, error) {
	total, active, err := s.wallets.Counts(ctx)
	if err != nil {
		return nil, err
	}

	balances, whitelisted, spam, totalUSD, err := s.balances.CountStats(ctx)
	if err != nil {
		return nil, err
	}

	return &models.TrackingStats{
		Wallets:       total,
		ActiveWallets: active,
		Balances:      balances,
		Whitelisted:   whitelisted,
		Spam:          spam,
		TotalUSD:      totalUSD,
	}, nil
}

// Balances lists balance snapshots for one wallet
func (s *ReportService) Balances(ctx context.Context, walletID uuid.UUID, filter *models.BalanceFilter) ([]*models.WalletBalance, error) {
	return s.balances.ListByWallet(ctx, walletID, filter)
}

// BalanceReport holds the rows and USD total of one report
type BalanceReport struct {
	Rows     []*models.BalanceReportRow `json:"rows"`
	TotalUSD decimal.Decimal            `json:"totalUsd"`
}

// Report builds the balance report over whitelisted, non-spam balances
func (s *ReportService) Report(ctx context.Context) (*BalanceReport, error) {
	rows, err := s.balances.ListReportRows(ctx)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, row := range rows {
		if row.USDValue != nil {
			total = total.Add(*row.USDValue)
		}
	}

	return &BalanceReport{Rows: rows, TotalUSD: total}, nil
}

// RenderCSV renders the balance report as CSV
func (s *ReportService) RenderCSV(report *BalanceReport) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"wallet", "address", "network", "symbol", "token_address", "balance", "usd_value"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("writing csv header: %w", err)
	}

	for _, row := range report.Rows {
		usd := ""
		if row.USDValue != nil {
			usd = row.USDValue.String()
		}
		record := []string{
			row.WalletName,
			row.Address,
			string(row.Network),
			row.TokenSymbol,
			row.TokenAddress,
			row.Balance,
			usd,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("writing csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing csv: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderJSON renders the balance report as indented JSON
func (s *ReportService) RenderJSON(report *BalanceReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}
