package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/wallet-tracker/internal/errors"
	"github.com/wallet-tracker/internal/models"
	"github.com/wallet-tracker/internal/storage"
	"github.com/wallet-tracker/internal/types"
)

type fakeWalletStore struct {
	wallet *models.Wallet
}

func (f *fakeWalletStore) Create(context.Context, *models.Wallet) error { return nil }

func (f *fakeWalletStore) GetByID(_ context.Context, id uuid.UUID) (*models.Wallet, error) {
	if f.wallet == nil || f.wallet.ID != id {
		return nil, apperrors.NewNotFoundError("wallet", id.String())
	}
	return f.wallet, nil
}

func (f *fakeWalletStore) GetByAddress(_ context.Context, address string) (*models.Wallet, error) {
	if f.wallet == nil || f.wallet.Address != address {
		return nil, apperrors.NewNotFoundError("wallet", address)
	}
	return f.wallet, nil
}

func (f *fakeWalletStore) List(context.Context, bool) ([]*models.Wallet, error) { return nil, nil }

func (f *fakeWalletStore) Update(context.Context, uuid.UUID, *models.UpdateWalletRequest) (*models.Wallet, error) {
	return nil, nil
}

func (f *fakeWalletStore) Delete(context.Context, uuid.UUID) error { return nil }

func (f *fakeWalletStore) SetActive(context.Context, uuid.UUID, bool) error { return nil }

type fakeTransactionReader struct {
	page       *models.HistoryPage
	stats      *models.TransactionStats
	statsCalls int
}

func (f *fakeTransactionReader) ListByWallet(context.Context, uuid.UUID, *models.HistoryFilter) (*models.HistoryPage, error) {
	return f.page, nil
}

func (f *fakeTransactionReader) CountStats(context.Context, uuid.UUID) (*models.TransactionStats, error) {
	f.statsCalls++
	return f.stats, nil
}

func newTestCache(t *testing.T) *storage.RedisCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return storage.NewRedisCacheFromClient(client)
}

func TestHistoryResolvesWalletByAddress(t *testing.T) {
	address := "0x1111111111111111111111111111111111111111"
	wallet := &models.Wallet{ID: uuid.New(), Address: address}
	reader := &fakeTransactionReader{page: &models.HistoryPage{Total: 3}}

	svc, err := NewHistoryService(&fakeWalletStore{wallet: wallet}, reader, nil, nil)
	require.NoError(t, err)

	page, err := svc.History(context.Background(), address, &models.HistoryFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
}

func TestHistoryUnknownAddress(t *testing.T) {
	svc, err := NewHistoryService(&fakeWalletStore{}, &fakeTransactionReader{}, nil, nil)
	require.NoError(t, err)

	_, err = svc.History(context.Background(), "0x2222222222222222222222222222222222222222", &models.HistoryFilter{})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestHistoryRejectsBadFilters(t *testing.T) {
	svc, err := NewHistoryService(&fakeWalletStore{}, &fakeTransactionReader{}, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	addr := "0x1111111111111111111111111111111111111111"

	_, err = svc.History(ctx, addr, &models.HistoryFilter{Network: "unknown-net"})
	assert.Error(t, err)

	_, err = svc.History(ctx, addr, &models.HistoryFilter{Category: "erc9999"})
	assert.Error(t, err)

	_, err = svc.History(ctx, addr, &models.HistoryFilter{Direction: "sideways"})
	assert.Error(t, err)

	_, err = svc.History(ctx, addr, &models.HistoryFilter{Limit: 5000})
	assert.Error(t, err)

	_, err = svc.History(ctx, addr, &models.HistoryFilter{Offset: -1})
	assert.Error(t, err)
}

func TestStatsCachesBetweenSyncs(t *testing.T) {
	wallet := &models.Wallet{ID: uuid.New(), Address: "0x1111111111111111111111111111111111111111"}
	reader := &fakeTransactionReader{stats: &models.TransactionStats{
		Total:       7,
		ByNetwork:   map[types.Network]int{types.NetworkEthMainnet: 7},
		ByCategory:  map[types.TransactionCategory]int{types.CategoryERC20: 7},
		ByDirection: map[string]int{"incoming": 7},
	}}
	cache := newTestCache(t)

	svc, err := NewHistoryService(&fakeWalletStore{wallet: wallet}, reader, cache, nil)
	require.NoError(t, err)

	ctx := context.Background()

	first, err := svc.Stats(ctx, wallet.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, first.Total)
	assert.Equal(t, 1, reader.statsCalls)

	// Second read comes from the cache
	second, err := svc.Stats(ctx, wallet.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, second.Total)
	assert.Equal(t, 7, second.ByNetwork[types.NetworkEthMainnet])
	assert.Equal(t, 1, reader.statsCalls)

	// Invalidation forces the next read back to the database
	require.NoError(t, svc.InvalidateWallet(ctx, wallet.ID))
	third, err := svc.Stats(ctx, wallet.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, third.Total)
	assert.Equal(t, 2, reader.statsCalls)
}
