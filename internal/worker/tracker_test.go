package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallet-tracker/internal/config"
	"github.com/wallet-tracker/internal/models"
	"github.com/wallet-tracker/internal/provider"
	"github.com/wallet-tracker/internal/types"
)

type fakeBalanceFetcher struct {
	balances []provider.TokenBalance
	err      error
}

func (f *fakeBalanceFetcher) FetchBalances(context.Context, []provider.AddressNetworks, provider.BalanceFetchOptions) ([]provider.TokenBalance, error) {
	return f.balances, f.err
}

type fakeWallets struct {
	mu          sync.Mutex
	wallets     []*models.Wallet
	lastTracked map[uuid.UUID]time.Time
}

func (f *fakeWallets) List(context.Context, bool) ([]*models.Wallet, error) {
	return f.wallets, nil
}

func (f *fakeWallets) UpdateLastTracked(_ context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lastTracked == nil {
		f.lastTracked = make(map[uuid.UUID]time.Time)
	}
	f.lastTracked[id] = at
	return nil
}

type fakeBalanceStore struct {
	mu       sync.Mutex
	replaced map[uuid.UUID][]*models.WalletBalance
}

func (f *fakeBalanceStore) ReplaceForWallet(_ context.Context, walletID uuid.UUID, balances []*models.WalletBalance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replaced == nil {
		f.replaced = make(map[uuid.UUID][]*models.WalletBalance)
	}
	f.replaced[walletID] = balances
	return nil
}

// nativeOnlyWhitelist trusts nothing but native assets
type nativeOnlyWhitelist struct{}

func (nativeOnlyWhitelist) IsWhitelisted(tokenAddress *string, _ types.Network) bool {
	return tokenAddress == nil || *tokenAddress == ""
}

func tokenBalance(network types.Network, tokenAddress *string, hexBalance, name, symbol string, decimals int) provider.TokenBalance {
	tb := provider.TokenBalance{
		Network:      network,
		Address:      testAddress,
		TokenAddress: tokenAddress,
		TokenBalance: hexBalance,
	}
	tb.TokenMetadata.Name = name
	tb.TokenMetadata.Symbol = symbol
	tb.TokenMetadata.Decimals = &decimals
	return tb
}

func newTestTracker(t *testing.T, fetcher *fakeBalanceFetcher, wallets *fakeWallets, store *fakeBalanceStore) *BalanceTracker {
	t.Helper()
	tracker, err := NewBalanceTracker(TrackerConfig{
		Provider:  fetcher,
		Wallets:   wallets,
		Balances:  store,
		Whitelist: nativeOnlyWhitelist{},
		Tracker: config.TrackerConfig{
			Interval:    time.Minute,
			WalletDelay: time.Millisecond,
		},
	})
	require.NoError(t, err)
	return tracker
}

func TestRefreshWalletReplacesSnapshot(t *testing.T) {
	walletID := uuid.New()
	wallet := &models.Wallet{
		ID:       walletID,
		Address:  testAddress,
		Networks: []types.Network{types.NetworkEthMainnet},
	}

	usdc := "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
	fetcher := &fakeBalanceFetcher{balances: []provider.TokenBalance{
		tokenBalance(types.NetworkEthMainnet, nil, "0xde0b6b3a7640000", "", "", 18),                 // 1 native
		tokenBalance(types.NetworkEthMainnet, &usdc, "0xbc614e", "USD Coin", "USDC", 6),             // 12.345678 USDC
		tokenBalance(types.NetworkEthMainnet, &usdc, "0x0", "Zero Token", "ZERO", 18),               // discarded
		tokenBalance(types.NetworkEthMainnet, &usdc, "0x1", "Visit scam.xyz to claim", "SCAM", 18), // spam flag
	}}
	// Distinct token addresses for the zero and spam entries
	zero := "0x0000000000000000000000000000000000000001"
	scam := "0x0000000000000000000000000000000000000002"
	fetcher.balances[2].TokenAddress = &zero
	fetcher.balances[3].TokenAddress = &scam
	fetcher.balances[1].TokenMetadata.Logo = "https://static.alchemyapi.io/images/assets/3408.png"

	wallets := &fakeWallets{wallets: []*models.Wallet{wallet}}
	store := &fakeBalanceStore{}

	tracker := newTestTracker(t, fetcher, wallets, store)
	require.NoError(t, tracker.RefreshWallet(context.Background(), wallet))

	snapshot := store.replaced[walletID]
	require.Len(t, snapshot, 3) // zero balance dropped

	native := snapshot[0]
	assert.Equal(t, models.NativeTokenAddress, native.TokenAddress)
	assert.Equal(t, "ETH", native.TokenSymbol)
	assert.Equal(t, "1", native.Balance)
	assert.Equal(t, "0xde0b6b3a7640000", native.RawBalance)
	assert.True(t, native.IsWhitelisted)
	assert.False(t, native.IsSpam)

	token := snapshot[1]
	assert.Equal(t, "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", token.TokenAddress)
	assert.Equal(t, "12.345678", token.Balance)
	assert.Equal(t, "0xbc614e", token.RawBalance)
	assert.Equal(t, "https://static.alchemyapi.io/images/assets/3408.png", token.TokenLogo)
	assert.False(t, token.IsWhitelisted)
	assert.False(t, token.IsSpam)

	spam := snapshot[2]
	assert.True(t, spam.IsSpam)

	_, tracked := wallets.lastTracked[walletID]
	assert.True(t, tracked)
}

func TestRefreshWalletComputesUSDValue(t *testing.T) {
	walletID := uuid.New()
	wallet := &models.Wallet{
		ID:       walletID,
		Address:  testAddress,
		Networks: []types.Network{types.NetworkEthMainnet},
	}

	tb := tokenBalance(types.NetworkEthMainnet, nil, "0x1bc16d674ec80000", "", "", 18) // 2 ETH
	tb.TokenPrices = []provider.TokenPrice{{Currency: "usd", Value: "2500.50"}}

	fetcher := &fakeBalanceFetcher{balances: []provider.TokenBalance{tb}}
	wallets := &fakeWallets{wallets: []*models.Wallet{wallet}}
	store := &fakeBalanceStore{}

	tracker := newTestTracker(t, fetcher, wallets, store)
	require.NoError(t, tracker.RefreshWallet(context.Background(), wallet))

	snapshot := store.replaced[walletID]
	require.Len(t, snapshot, 1)
	require.NotNil(t, snapshot[0].USDValue)
	assert.True(t, snapshot[0].USDValue.Equal(decimal.RequireFromString("5001")))
}

func TestRefreshWalletSkipsWalletWithoutNetworks(t *testing.T) {
	wallet := &models.Wallet{ID: uuid.New(), Address: testAddress}

	fetcher := &fakeBalanceFetcher{}
	wallets := &fakeWallets{wallets: []*models.Wallet{wallet}}
	store := &fakeBalanceStore{}

	tracker := newTestTracker(t, fetcher, wallets, store)
	require.NoError(t, tracker.RefreshWallet(context.Background(), wallet))

	assert.Empty(t, store.replaced)
}

func TestRunCycleRefreshesEveryWallet(t *testing.T) {
	first := &models.Wallet{ID: uuid.New(), Address: testAddress, Networks: []types.Network{types.NetworkEthMainnet}}
	second := &models.Wallet{ID: uuid.New(), Address: testAddress, Networks: []types.Network{types.NetworkEthMainnet}}

	fetcher := &fakeBalanceFetcher{}
	wallets := &fakeWallets{wallets: []*models.Wallet{first, second}}
	store := &fakeBalanceStore{}

	tracker := newTestTracker(t, fetcher, wallets, store)
	assert.True(t, tracker.RunCycle(context.Background()))

	assert.Len(t, store.replaced, 2)
}
