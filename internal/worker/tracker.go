package worker

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/wallet-tracker/internal/config"
	"github.com/wallet-tracker/internal/logging"
	"github.com/wallet-tracker/internal/models"
	"github.com/wallet-tracker/internal/provider"
	"github.com/wallet-tracker/internal/types"
)

// BalanceFetcher fetches token balances from the data provider
type BalanceFetcher interface {
	FetchBalances(ctx context.Context, addresses []provider.AddressNetworks, opts provider.BalanceFetchOptions) ([]provider.TokenBalance, error)
}

// WalletLister enumerates wallets for balance refresh cycles
type WalletLister interface {
	List(ctx context.Context, activeOnly bool) ([]*models.Wallet, error)
	UpdateLastTracked(ctx context.Context, id uuid.UUID, at time.Time) error
}

// BalanceStore persists balance snapshots
type BalanceStore interface {
	ReplaceForWallet(ctx context.Context, walletID uuid.UUID, balances []*models.WalletBalance) error
}

// TrackerConfig holds balance tracker dependencies
type TrackerConfig struct {
	Provider  BalanceFetcher
	Wallets   WalletLister
	Balances  BalanceStore
	Whitelist WhitelistChecker
	Tracker   config.TrackerConfig
	Logger    *logging.Logger
}

// BalanceTracker refreshes wallet balance snapshots on a fixed interval
type BalanceTracker struct {
	provider  BalanceFetcher
	wallets   WalletLister
	balances  BalanceStore
	whitelist WhitelistChecker
	cfg       config.TrackerConfig
	logger    *logging.Logger

	running atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewBalanceTracker creates a new balance tracker
func NewBalanceTracker(cfg TrackerConfig) (*BalanceTracker, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if cfg.Wallets == nil {
		return nil, fmt.Errorf("wallet store is required")
	}
	if cfg.Balances == nil {
		return nil, fmt.Errorf("balance store is required")
	}
	if cfg.Whitelist == nil {
		return nil, fmt.Errorf("whitelist checker is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.GetGlobalLogger()
	}

	return &BalanceTracker{
		provider:  cfg.Provider,
		wallets:   cfg.Wallets,
		balances:  cfg.Balances,
		whitelist: cfg.Whitelist,
		cfg:       cfg.Tracker,
		logger:    cfg.Logger.WithField("component", "tracker"),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}, nil
}

// Start begins the refresh loop in a background goroutine
func (t *BalanceTracker) Start(ctx context.Context) {
	t.logger.WithField("interval", t.cfg.Interval.String()).Info("starting balance tracker")

	go func() {
		defer close(t.doneCh)

		ticker := time.NewTicker(t.cfg.Interval)
		defer ticker.Stop()

		t.RunCycle(ctx)

		for {
			select {
			case <-t.stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.RunCycle(ctx)
			}
		}
	}()
}

// Stop signals the tracker to stop and waits for the loop to exit
func (t *BalanceTracker) Stop() {
	t.logger.Info("stopping balance tracker")
	close(t.stopCh)
	<-t.doneCh
	t.logger.Info("balance tracker stopped")
}

// RunCycle refreshes every active wallet once, pacing between wallets.
// Per-wallet failures are logged and do not stop the cycle.
func (t *BalanceTracker) RunCycle(ctx context.Context) bool {
	if !t.running.CompareAndSwap(false, true) {
		t.logger.Warn("previous tracking cycle still running, skipping")
		return false
	}
	defer t.running.Store(false)

	started := time.Now()

	wallets, err := t.wallets.List(ctx, true)
	if err != nil {
		t.logger.WithError(err).Error("failed to list wallets")
		return true
	}

	var succeeded, failed int
	limiter := rate.NewLimiter(rate.Every(t.cfg.WalletDelay), 1)

	for _, wallet := range wallets {
		if err := limiter.Wait(ctx); err != nil {
			break
		}

		if err := t.RefreshWallet(ctx, wallet); err != nil {
			failed++
			t.logger.WithError(err).WithFields(map[string]interface{}{
				"wallet_id": wallet.ID,
				"address":   wallet.Address,
			}).Error("balance refresh failed")
			continue
		}
		succeeded++
	}

	t.logger.WithFields(map[string]interface{}{
		"wallets":   len(wallets),
		"succeeded": succeeded,
		"failed":    failed,
		"elapsed":   time.Since(started).String(),
	}).Info("tracking cycle completed")

	return true
}

// RefreshWallet fetches current balances for one wallet across its networks
// and replaces its snapshot. Zero balances are discarded.
func (t *BalanceTracker) RefreshWallet(ctx context.Context, wallet *models.Wallet) error {
	if len(wallet.Networks) == 0 {
		return nil
	}

	fetched, err := t.provider.FetchBalances(ctx,
		[]provider.AddressNetworks{{Address: wallet.Address, Networks: wallet.Networks}},
		provider.BalanceFetchOptions{WithPrices: true, IncludeERC20: true, IncludeNative: true},
	)
	if err != nil {
		return err
	}

	balances := make([]*models.WalletBalance, 0, len(fetched))
	for _, tb := range fetched {
		balance, err := t.convertBalance(wallet.ID, tb)
		if err != nil {
			t.logger.WithError(err).WithFields(map[string]interface{}{
				"wallet_id": wallet.ID,
				"network":   tb.Network,
				"token":     tb.TokenAddress,
			}).Warn("skipping malformed balance")
			continue
		}
		if balance == nil {
			continue
		}
		balances = append(balances, balance)
	}

	if err := t.balances.ReplaceForWallet(ctx, wallet.ID, balances); err != nil {
		return err
	}
	if err := t.wallets.UpdateLastTracked(ctx, wallet.ID, time.Now()); err != nil {
		return err
	}

	t.logger.WithFields(map[string]interface{}{
		"wallet_id": wallet.ID,
		"balances":  len(balances),
	}).Debug("refreshed wallet balances")

	return nil
}

// convertBalance maps a provider token balance onto a snapshot row.
// Returns nil for zero balances.
func (t *BalanceTracker) convertBalance(walletID uuid.UUID, tb provider.TokenBalance) (*models.WalletBalance, error) {
	decimals := 18
	if tb.TokenMetadata.Decimals != nil {
		decimals = *tb.TokenMetadata.Decimals
	}

	amount, err := provider.FormatUnits(tb.TokenBalance, decimals)
	if err != nil {
		return nil, err
	}
	if amount == "0" {
		return nil, nil
	}

	balance := &models.WalletBalance{
		ID:            uuid.New(),
		WalletID:      walletID,
		Network:       tb.Network,
		TokenAddress:  models.NativeTokenAddress,
		TokenName:     tb.TokenMetadata.Name,
		TokenSymbol:   tb.TokenMetadata.Symbol,
		TokenLogo:     tb.TokenMetadata.Logo,
		TokenDecimals: decimals,
		RawBalance:    tb.TokenBalance,
		Balance:       amount,
		IsWhitelisted: t.whitelist.IsWhitelisted(tb.TokenAddress, tb.Network),
	}

	if tb.TokenAddress != nil {
		balance.TokenAddress = strings.ToLower(*tb.TokenAddress)
		balance.IsSpam = provider.IsLikelySpamToken(tb.TokenMetadata.Name, tb.TokenMetadata.Symbol)
	} else if balance.TokenSymbol == "" {
		if info, infoErr := types.GetNetworkInfo(tb.Network); infoErr == nil {
			balance.TokenSymbol = info.NativeSymbol
			balance.TokenName = info.NativeSymbol
		}
	}

	if usd := usdValue(amount, tb.TokenPrices); usd != nil {
		balance.USDValue = usd
	}

	return balance, nil
}

// usdValue multiplies a balance by its USD price point, when one is present
func usdValue(amount string, prices []provider.TokenPrice) *decimal.Decimal {
	for _, p := range prices {
		if !strings.EqualFold(p.Currency, "usd") {
			continue
		}
		price, err := decimal.NewFromString(p.Value)
		if err != nil {
			return nil
		}
		qty, err := decimal.NewFromString(amount)
		if err != nil {
			return nil
		}
		v := qty.Mul(price)
		return &v
	}
	return nil
}
