package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallet-tracker/internal/config"
	apperrors "github.com/wallet-tracker/internal/errors"
	"github.com/wallet-tracker/internal/models"
	"github.com/wallet-tracker/internal/service"
	"github.com/wallet-tracker/internal/types"
)

type stubWalletService struct {
	wallet *models.Wallet
}

func (s *stubWalletService) Register(_ context.Context, req *models.CreateWalletRequest) (*models.Wallet, error) {
	if req.Name == "" {
		return nil, apperrors.NewInvalidParameterError("name", "must not be empty")
	}
	return s.wallet, nil
}

func (s *stubWalletService) Get(_ context.Context, id uuid.UUID) (*models.Wallet, error) {
	if s.wallet == nil || s.wallet.ID != id {
		return nil, apperrors.NewNotFoundError("wallet", id.String())
	}
	return s.wallet, nil
}

func (s *stubWalletService) List(context.Context, bool) ([]*models.Wallet, error) {
	return []*models.Wallet{s.wallet}, nil
}

func (s *stubWalletService) Update(context.Context, uuid.UUID, *models.UpdateWalletRequest) (*models.Wallet, error) {
	return s.wallet, nil
}

func (s *stubWalletService) Delete(context.Context, uuid.UUID) error { return nil }

func (s *stubWalletService) SetActive(context.Context, uuid.UUID, bool) error { return nil }

func (s *stubWalletService) SyncStatus(context.Context, uuid.UUID) ([]*models.SyncState, error) {
	return []*models.SyncState{}, nil
}

func (s *stubWalletService) SetAutoSync(context.Context, uuid.UUID, types.Network, bool) error {
	return nil
}

type stubWhitelistService struct{}

func (stubWhitelistService) Add(_ context.Context, req *models.CreateWhitelistTokenRequest) (*models.WhitelistToken, error) {
	return &models.WhitelistToken{ID: uuid.New(), TokenAddress: req.TokenAddress, Network: req.Network}, nil
}

func (stubWhitelistService) Get(context.Context, uuid.UUID) (*models.WhitelistToken, error) {
	return &models.WhitelistToken{}, nil
}

func (stubWhitelistService) List(context.Context, types.Network) ([]*models.WhitelistToken, error) {
	return nil, nil
}

func (stubWhitelistService) Update(context.Context, uuid.UUID, *models.UpdateWhitelistTokenRequest) (*models.WhitelistToken, error) {
	return &models.WhitelistToken{}, nil
}

func (stubWhitelistService) Remove(context.Context, uuid.UUID) error { return nil }

type stubHistoryService struct {
	lastFilter *models.HistoryFilter
}

func (s *stubHistoryService) History(_ context.Context, _ string, filter *models.HistoryFilter) (*models.HistoryPage, error) {
	s.lastFilter = filter
	return &models.HistoryPage{Records: []*models.TransactionRecord{}, Total: 0}, nil
}

func (s *stubHistoryService) Stats(context.Context, uuid.UUID) (*models.TransactionStats, error) {
	return &models.TransactionStats{Total: 5}, nil
}

type stubReportService struct{}

func (stubReportService) TrackingStats(context.Context) (*models.TrackingStats, error) {
	return &models.TrackingStats{Wallets: 2}, nil
}

func (stubReportService) Balances(context.Context, uuid.UUID, *models.BalanceFilter) ([]*models.WalletBalance, error) {
	return nil, nil
}

func (stubReportService) Report(context.Context) (*service.BalanceReport, error) {
	return &service.BalanceReport{}, nil
}

func (stubReportService) RenderCSV(*service.BalanceReport) ([]byte, error) {
	return []byte("wallet,address\n"), nil
}

func (stubReportService) RenderJSON(*service.BalanceReport) ([]byte, error) {
	return []byte("{}"), nil
}

type stubSyncRunner struct {
	calls    int
	lastOpts models.SyncOptions
}

func (s *stubSyncRunner) RunSync(_ context.Context, _ uuid.UUID, _ string, network types.Network, opts models.SyncOptions) (*models.SyncResult, error) {
	s.calls++
	if !types.IsSupportedNetwork(network) {
		return nil, apperrors.NewUnsupportedNetworkError(string(network))
	}
	s.lastOpts = opts
	return &models.SyncResult{Synced: 4, Skipped: 1, TotalFetched: 5}, nil
}

type stubRefresher struct{}

func (stubRefresher) RefreshWallet(context.Context, *models.Wallet) error { return nil }

func newTestServer(t *testing.T) (*Server, *stubWalletService, *stubSyncRunner, *stubHistoryService) {
	t.Helper()

	wallets := &stubWalletService{wallet: &models.Wallet{
		ID:       uuid.New(),
		Address:  "0x1111111111111111111111111111111111111111",
		Name:     "treasury",
		Networks: []types.Network{types.NetworkEthMainnet},
	}}
	runner := &stubSyncRunner{}
	history := &stubHistoryService{}

	server, err := NewServer(config.ServerConfig{Host: "127.0.0.1", Port: "0"}, ServerDeps{
		Wallets:   wallets,
		Whitelist: stubWhitelistService{},
		History:   history,
		Reports:   stubReportService{},
		Sync:      runner,
		Refresher: stubRefresher{},
	})
	require.NoError(t, err)
	return server, wallets, runner, history
}

func TestHandleHealth(t *testing.T) {
	server, _, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestHandleRegisterWallet(t *testing.T) {
	server, _, _, _ := newTestServer(t)

	body := bytes.NewBufferString(`{"address":"0x1111111111111111111111111111111111111111","name":"treasury"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/wallets", body)
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var wallet models.Wallet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &wallet))
	assert.Equal(t, "treasury", wallet.Name)
}

func TestHandleRegisterWalletInvalidBody(t *testing.T) {
	server, _, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/wallets", bytes.NewBufferString(`{bad json`))
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetWalletInvalidID(t *testing.T) {
	server, _, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/wallets/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetWalletNotFound(t *testing.T) {
	server, _, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/wallets/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleTriggerSyncEmptyBody(t *testing.T) {
	server, wallets, runner, _ := newTestServer(t)

	url := "/api/sync/wallets/" + wallets.wallet.ID.String() + "/networks/eth-mainnet"
	req := httptest.NewRequest(http.MethodPost, url, nil)
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.SyncOptions{}, runner.lastOpts)

	var result models.SyncResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 4, result.Synced)
}

func TestHandleTriggerSyncWithOptions(t *testing.T) {
	server, wallets, runner, _ := newTestServer(t)

	url := "/api/sync/wallets/" + wallets.wallet.ID.String() + "/networks/eth-mainnet"
	body := bytes.NewBufferString(`{"fromBlock":"100","toBlock":"200","fullResync":true}`)
	req := httptest.NewRequest(http.MethodPost, url, body)
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.SyncOptions{FromBlock: "100", ToBlock: "200", FullResync: true}, runner.lastOpts)
}

func TestHandleTriggerSyncUnsupportedNetwork(t *testing.T) {
	server, wallets, _, _ := newTestServer(t)

	url := "/api/sync/wallets/" + wallets.wallet.ID.String() + "/networks/moon-mainnet"
	req := httptest.NewRequest(http.MethodPost, url, nil)
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleTriggerSyncUntrackedNetwork(t *testing.T) {
	server, wallets, runner, _ := newTestServer(t)

	// polygon-mainnet is supported but not in the wallet's tracked set
	url := "/api/sync/wallets/" + wallets.wallet.ID.String() + "/networks/polygon-mainnet"
	req := httptest.NewRequest(http.MethodPost, url, nil)
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "tracked set")
	assert.Equal(t, 0, runner.calls)
}

func TestHandleHistoryParsesFilters(t *testing.T) {
	server, _, _, history := newTestServer(t)

	url := "/api/history/0x1111111111111111111111111111111111111111" +
		"?network=eth-mainnet&category=erc20&direction=incoming&fromBlock=10&toBlock=99&whitelistedOnly=true&limit=25&offset=50"
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, history.lastFilter)
	assert.Equal(t, types.NetworkEthMainnet, history.lastFilter.Network)
	assert.Equal(t, types.CategoryERC20, history.lastFilter.Category)
	assert.Equal(t, types.DirectionIncoming, history.lastFilter.Direction)
	assert.Equal(t, "10", history.lastFilter.FromBlock)
	assert.Equal(t, "99", history.lastFilter.ToBlock)
	assert.True(t, history.lastFilter.WhitelistOnly)
	assert.Equal(t, 25, history.lastFilter.Limit)
	assert.Equal(t, 50, history.lastFilter.Offset)
}

func TestHandleHistoryRejectsBadLimit(t *testing.T) {
	server, _, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/history/0x1111111111111111111111111111111111111111?limit=abc", nil)
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleBalanceReportFormats(t *testing.T) {
	server, _, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/tracker/report?format=csv", nil)
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))

	req = httptest.NewRequest(http.MethodGet, "/api/tracker/report", nil)
	rec = httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	req = httptest.NewRequest(http.MethodGet, "/api/tracker/report?format=xml", nil)
	rec = httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAddWhitelistToken(t *testing.T) {
	server, _, _, _ := newTestServer(t)

	body := bytes.NewBufferString(`{"tokenAddress":"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48","network":"eth-mainnet","symbol":"USDC","decimals":6}`)
	req := httptest.NewRequest(http.MethodPost, "/api/whitelist", body)
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var token models.WhitelistToken
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &token))
	assert.Equal(t, types.NetworkEthMainnet, token.Network)
}

func TestHandleTrackingStats(t *testing.T) {
	server, _, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/tracker/stats", nil)
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var stats models.TrackingStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Wallets)
}
