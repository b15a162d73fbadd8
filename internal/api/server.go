// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/wallet-tracker/internal/config"
	"github.com/wallet-tracker/internal/logging"
	"github.com/wallet-tracker/internal/models"
	"github.com/wallet-tracker/internal/service"
	"github.com/wallet-tracker/internal/types"
)

// Service interfaces for dependency injection and testing

// WalletServiceInterface defines the interface for wallet operations
type WalletServiceInterface interface {
	Register(ctx context.Context, req *models.CreateWalletRequest) (*models.Wallet, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Wallet, error)
	List(ctx context.Context, activeOnly bool) ([]*models.Wallet, error)
	Update(ctx context.Context, id uuid.UUID, req *models.UpdateWalletRequest) (*models.Wallet, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	SyncStatus(ctx context.Context, walletID uuid.UUID) ([]*models.SyncState, error)
	SetAutoSync(ctx context.Context, walletID uuid.UUID, network types.Network, enabled bool) error
}

// WhitelistServiceInterface defines the interface for whitelist operations
type WhitelistServiceInterface interface {
	Add(ctx context.Context, req *models.CreateWhitelistTokenRequest) (*models.WhitelistToken, error)
	Get(ctx context.Context, id uuid.UUID) (*models.WhitelistToken, error)
	List(ctx context.Context, network types.Network) ([]*models.WhitelistToken, error)
	Update(ctx context.Context, id uuid.UUID, req *models.UpdateWhitelistTokenRequest) (*models.WhitelistToken, error)
	Remove(ctx context.Context, id uuid.UUID) error
}

// HistoryServiceInterface defines the interface for history queries
type HistoryServiceInterface interface {
	History(ctx context.Context, address string, filter *models.HistoryFilter) (*models.HistoryPage, error)
	Stats(ctx context.Context, walletID uuid.UUID) (*models.TransactionStats, error)
}

// ReportServiceInterface defines the interface for tracking stats and reports
type ReportServiceInterface interface {
	TrackingStats(ctx context.Context) (*models.TrackingStats, error)
	Balances(ctx context.Context, walletID uuid.UUID, filter *models.BalanceFilter) ([]*models.WalletBalance, error)
	Report(ctx context.Context) (*service.BalanceReport, error)
	RenderCSV(report *service.BalanceReport) ([]byte, error)
	RenderJSON(report *service.BalanceReport) ([]byte, error)
}

// SyncRunner triggers on-demand sync runs
type SyncRunner interface {
	RunSync(ctx context.Context, walletID uuid.UUID, address string, network types.Network, opts models.SyncOptions) (*models.SyncResult, error)
}

// BalanceRefresher triggers on-demand balance refreshes
type BalanceRefresher interface {
	RefreshWallet(ctx context.Context, wallet *models.Wallet) error
}

// Server represents the HTTP API server
type Server struct {
	router           *mux.Router
	httpServer       *http.Server
	walletService    WalletServiceInterface
	whitelistService WhitelistServiceInterface
	historyService   HistoryServiceInterface
	reportService    ReportServiceInterface
	syncRunner       SyncRunner
	refresher        BalanceRefresher
	logger           *logging.Logger
}

// ServerDeps holds the server's service dependencies
type ServerDeps struct {
	Wallets   WalletServiceInterface
	Whitelist WhitelistServiceInterface
	History   HistoryServiceInterface
	Reports   ReportServiceInterface
	Sync      SyncRunner
	Refresher BalanceRefresher
	Logger    *logging.Logger
}

// NewServer creates a new API server instance
func NewServer(cfg config.ServerConfig, deps ServerDeps) (*Server, error) {
	if deps.Wallets == nil || deps.Whitelist == nil || deps.History == nil ||
		deps.Reports == nil || deps.Sync == nil || deps.Refresher == nil {
		return nil, fmt.Errorf("all service dependencies are required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.GetGlobalLogger()
	}

	s := &Server{
		router:           mux.NewRouter(),
		walletService:    deps.Wallets,
		whitelistService: deps.Whitelist,
		historyService:   deps.History,
		reportService:    deps.Reports,
		syncRunner:       deps.Sync,
		refresher:        deps.Refresher,
		logger:           deps.Logger.WithField("component", "api"),
	}

	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.recoveryMiddleware)
	s.router.Use(corsMiddleware)
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s, nil
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// Wallet endpoints
	api.HandleFunc("/wallets", s.handleRegisterWallet).Methods("POST")
	api.HandleFunc("/wallets", s.handleListWallets).Methods("GET")
	api.HandleFunc("/wallets/{id}", s.handleGetWallet).Methods("GET")
	api.HandleFunc("/wallets/{id}", s.handleUpdateWallet).Methods("PUT")
	api.HandleFunc("/wallets/{id}", s.handleDeleteWallet).Methods("DELETE")
	api.HandleFunc("/wallets/{id}/activate", s.handleActivateWallet).Methods("POST")
	api.HandleFunc("/wallets/{id}/deactivate", s.handleDeactivateWallet).Methods("POST")
	api.HandleFunc("/wallets/{id}/stats", s.handleWalletStats).Methods("GET")
	api.HandleFunc("/wallets/{id}/balances", s.handleWalletBalances).Methods("GET")

	// Sync endpoints
	api.HandleFunc("/sync/wallets/{id}/networks/{network}", s.handleTriggerSync).Methods("POST")
	api.HandleFunc("/sync/wallets/{id}/status", s.handleSyncStatus).Methods("GET")
	api.HandleFunc("/sync/wallets/{id}/networks/{network}/autosync", s.handleSetAutoSync).Methods("PUT")

	// History endpoints
	api.HandleFunc("/history/{address}", s.handleHistory).Methods("GET")

	// Whitelist endpoints
	api.HandleFunc("/whitelist", s.handleAddWhitelistToken).Methods("POST")
	api.HandleFunc("/whitelist", s.handleListWhitelistTokens).Methods("GET")
	api.HandleFunc("/whitelist/{id}", s.handleGetWhitelistToken).Methods("GET")
	api.HandleFunc("/whitelist/{id}", s.handleUpdateWhitelistToken).Methods("PUT")
	api.HandleFunc("/whitelist/{id}", s.handleDeleteWhitelistToken).Methods("DELETE")

	// Tracker endpoints
	api.HandleFunc("/tracker/wallets/{id}/refresh", s.handleRefreshWallet).Methods("POST")
	api.HandleFunc("/tracker/stats", s.handleTrackingStats).Methods("GET")
	api.HandleFunc("/tracker/report", s.handleBalanceReport).Methods("GET")
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "wallet-tracker",
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
