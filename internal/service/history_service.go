package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/wallet-tracker/internal/errors"
	"github.com/wallet-tracker/internal/logging"
	"github.com/wallet-tracker/internal/models"
	"github.com/wallet-tracker/internal/storage"
	"github.com/wallet-tracker/internal/types"
)

const (
	statsCacheTTL   = 5 * time.Minute
	maxHistoryLimit = 1000
)

// TransactionReader is the ledger query surface the service needs
type TransactionReader interface {
	ListByWallet(ctx context.Context, walletID uuid.UUID, filter *models.HistoryFilter) (*models.HistoryPage, error)
	CountStats(ctx context.Context, walletID uuid.UUID) (*models.TransactionStats, error)
}

// StatsCache caches transaction aggregates between syncs
type StatsCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// HistoryService serves transaction history queries and cached aggregates
type HistoryService struct {
	wallets      WalletStore
	transactions TransactionReader
	cache        StatsCache // optional
	logger       *logging.Logger
}

// NewHistoryService creates a new history service. The cache is optional;
// without it every stats call hits the database.
func NewHistoryService(wallets WalletStore, transactions TransactionReader, cache StatsCache, logger *logging.Logger) (*HistoryService, error) {
	if wallets == nil {
		return nil, fmt.Errorf("wallet store is required")
	}
	if transactions == nil {
		return nil, fmt.Errorf("transaction reader is required")
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	return &HistoryService{
		wallets:      wallets,
		transactions: transactions,
		cache:        cache,
		logger:       logger.WithField("component", "history_service"),
	}, nil
}

// History returns one page of ledger records for an address
func (s *HistoryService) History(ctx context.Context, address string, filter *models.HistoryFilter) (*models.HistoryPage, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}

	wallet, err := s.wallets.GetByAddress(ctx, address)
	if err != nil {
		return nil, err
	}

	return s.transactions.ListByWallet(ctx, wallet.ID, filter)
}

// Stats returns ledger aggregates for a wallet, cached between syncs
func (s *HistoryService) Stats(ctx context.Context, walletID uuid.UUID) (*models.TransactionStats, error) {
	if _, err := s.wallets.GetByID(ctx, walletID); err != nil {
		return nil, err
	}

	key := statsCacheKey(walletID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key); err == nil {
			var stats models.TransactionStats
			if err := json.Unmarshal([]byte(cached), &stats); err == nil {
				return &stats, nil
			}
		} else if !storage.IsMiss(err) {
			s.logger.WithError(err).Warn("stats cache read failed")
		}
	}

	stats, err := s.transactions.CountStats(ctx, walletID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(stats); err == nil {
			if err := s.cache.Set(ctx, key, encoded, statsCacheTTL); err != nil {
				s.logger.WithError(err).Warn("stats cache write failed")
			}
		}
	}

	return stats, nil
}

// InvalidateWallet drops cached aggregates for a wallet. Called by the sync
// coordinator after a run writes new records.
func (s *HistoryService) InvalidateWallet(ctx context.Context, walletID uuid.UUID) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, statsCacheKey(walletID))
}

func statsCacheKey(walletID uuid.UUID) string {
	return "stats:wallet:" + walletID.String()
}

func validateFilter(filter *models.HistoryFilter) error {
	if filter.Network != "" && !types.IsSupportedNetwork(filter.Network) {
		return apperrors.NewUnsupportedNetworkError(string(filter.Network))
	}
	if filter.Category != "" && !types.IsValidCategory(filter.Category) {
		return apperrors.NewInvalidParameterError("category", "unknown transfer category")
	}
	if filter.Direction != "" &&
		filter.Direction != types.DirectionIncoming && filter.Direction != types.DirectionOutgoing {
		return apperrors.NewInvalidParameterError("direction", "must be incoming or outgoing")
	}
	if filter.Limit < 0 || filter.Limit > maxHistoryLimit {
		return apperrors.NewInvalidParameterError("limit", fmt.Sprintf("must be between 0 and %d", maxHistoryLimit))
	}
	if filter.Offset < 0 {
		return apperrors.NewInvalidParameterError("offset", "must not be negative")
	}
	return nil
}
