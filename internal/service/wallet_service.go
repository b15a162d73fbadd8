// Package service implements the application services between the HTTP API
// and the storage and worker layers.
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	apperrors "github.com/wallet-tracker/internal/errors"
	"github.com/wallet-tracker/internal/logging"
	"github.com/wallet-tracker/internal/models"
	"github.com/wallet-tracker/internal/types"
)

// WalletStore is the wallet persistence surface the service needs
type WalletStore interface {
	Create(ctx context.Context, wallet *models.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error)
	GetByAddress(ctx context.Context, address string) (*models.Wallet, error)
	List(ctx context.Context, activeOnly bool) ([]*models.Wallet, error)
	Update(ctx context.Context, id uuid.UUID, req *models.UpdateWalletRequest) (*models.Wallet, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// SyncStateReader reads sync states for wallet status views
type SyncStateReader interface {
	ListByWallet(ctx context.Context, walletID uuid.UUID) ([]*models.SyncState, error)
	SetAutoSync(ctx context.Context, walletID uuid.UUID, network types.Network, enabled bool) error
}

// WalletService manages wallet registration and lifecycle
type WalletService struct {
	wallets WalletStore
	states  SyncStateReader
	logger  *logging.Logger
}

// NewWalletService creates a new wallet service
func NewWalletService(wallets WalletStore, states SyncStateReader, logger *logging.Logger) (*WalletService, error) {
	if wallets == nil {
		return nil, fmt.Errorf("wallet store is required")
	}
	if states == nil {
		return nil, fmt.Errorf("sync state reader is required")
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	return &WalletService{
		wallets: wallets,
		states:  states,
		logger:  logger.WithField("component", "wallet_service"),
	}, nil
}

// Register creates a new tracked wallet. Networks default to eth-mainnet
// when omitted; unknown networks are rejected.
func (s *WalletService) Register(ctx context.Context, req *models.CreateWalletRequest) (*models.Wallet, error) {
	if req.Name == "" {
		return nil, apperrors.NewInvalidParameterError("name", "must not be empty")
	}

	networks := req.Networks
	if len(networks) == 0 {
		networks = []types.Network{types.NetworkEthMainnet}
	}
	if err := validateNetworks(networks); err != nil {
		return nil, err
	}

	wallet := &models.Wallet{
		Address:     req.Address,
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
		Networks:    networks,
	}

	if err := s.wallets.Create(ctx, wallet); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"wallet_id": wallet.ID,
		"address":   wallet.Address,
		"networks":  len(wallet.Networks),
	}).Info("wallet registered")

	return wallet, nil
}

// Get retrieves a wallet by ID
func (s *WalletService) Get(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	return s.wallets.GetByID(ctx, id)
}

// GetByAddress retrieves a wallet by address
func (s *WalletService) GetByAddress(ctx context.Context, address string) (*models.Wallet, error) {
	return s.wallets.GetByAddress(ctx, address)
}

// List retrieves wallets, optionally only active ones
func (s *WalletService) List(ctx context.Context, activeOnly bool) ([]*models.Wallet, error) {
	return s.wallets.List(ctx, activeOnly)
}

// Update applies a partial update to a wallet
func (s *WalletService) Update(ctx context.Context, id uuid.UUID, req *models.UpdateWalletRequest) (*models.Wallet, error) {
	if req.Networks != nil {
		if len(*req.Networks) == 0 {
			return nil, apperrors.NewInvalidParameterError("networks", "must not be empty")
		}
		if err := validateNetworks(*req.Networks); err != nil {
			return nil, err
		}
	}
	return s.wallets.Update(ctx, id, req)
}

// Delete removes a wallet and its dependent records
func (s *WalletService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.wallets.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.WithField("wallet_id", id).Info("wallet deleted")
	return nil
}

// SetActive toggles a wallet's active flag
func (s *WalletService) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return s.wallets.SetActive(ctx, id, active)
}

// SyncStatus returns all sync states for a wallet
func (s *WalletService) SyncStatus(ctx context.Context, walletID uuid.UUID) ([]*models.SyncState, error) {
	if _, err := s.wallets.GetByID(ctx, walletID); err != nil {
		return nil, err
	}
	return s.states.ListByWallet(ctx, walletID)
}

// SetAutoSync toggles scheduler eligibility for one of a wallet's networks
func (s *WalletService) SetAutoSync(ctx context.Context, walletID uuid.UUID, network types.Network, enabled bool) error {
	if !types.IsSupportedNetwork(network) {
		return apperrors.NewUnsupportedNetworkError(string(network))
	}
	return s.states.SetAutoSync(ctx, walletID, network, enabled)
}

func validateNetworks(networks []types.Network) error {
	for _, n := range networks {
		if !types.IsSupportedNetwork(n) {
			return apperrors.NewUnsupportedNetworkError(string(n))
		}
	}
	return nil
}
