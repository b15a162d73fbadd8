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

// WhitelistStore is the whitelist persistence surface the service needs
type WhitelistStore interface {
	Create(ctx context.Context, token *models.WhitelistToken) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.WhitelistToken, error)
	List(ctx context.Context, network types.Network) ([]*models.WhitelistToken, error)
	Update(ctx context.Context, id uuid.UUID, req *models.UpdateWhitelistTokenRequest) (*models.WhitelistToken, error)
	Delete(ctx context.Context, id uuid.UUID) error
	IsWhitelisted(tokenAddress *string, network types.Network) bool
}

// WhitelistService manages the trusted token list
type WhitelistService struct {
	tokens WhitelistStore
	logger *logging.Logger
}

// NewWhitelistService creates a new whitelist service
func NewWhitelistService(tokens WhitelistStore, logger *logging.Logger) (*WhitelistService, error) {
	if tokens == nil {
		return nil, fmt.Errorf("whitelist store is required")
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	return &WhitelistService{
		tokens: tokens,
		logger: logger.WithField("component", "whitelist_service"),
	}, nil
}

// Add whitelists a token contract on a network
func (s *WhitelistService) Add(ctx context.Context, req *models.CreateWhitelistTokenRequest) (*models.WhitelistToken, error) {
	if !types.IsSupportedNetwork(req.Network) {
		return nil, apperrors.NewUnsupportedNetworkError(string(req.Network))
	}
	if req.Decimals < 0 || req.Decimals > 36 {
		return nil, apperrors.NewInvalidParameterError("decimals", "must be between 0 and 36")
	}

	token := &models.WhitelistToken{
		TokenAddress: req.TokenAddress,
		Network:      req.Network,
		Name:         req.Name,
		Symbol:       req.Symbol,
		Decimals:     req.Decimals,
	}

	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"token":   token.TokenAddress,
		"network": token.Network,
		"symbol":  token.Symbol,
	}).Info("token whitelisted")

	return token, nil
}

// Get retrieves a whitelist entry by ID
func (s *WhitelistService) Get(ctx context.Context, id uuid.UUID) (*models.WhitelistToken, error) {
	return s.tokens.GetByID(ctx, id)
}

// List retrieves whitelist entries, optionally filtered by network
func (s *WhitelistService) List(ctx context.Context, network types.Network) ([]*models.WhitelistToken, error) {
	if network != "" && !types.IsSupportedNetwork(network) {
		return nil, apperrors.NewUnsupportedNetworkError(string(network))
	}
	return s.tokens.List(ctx, network)
}

// Update applies a partial update to a whitelist entry
func (s *WhitelistService) Update(ctx context.Context, id uuid.UUID, req *models.UpdateWhitelistTokenRequest) (*models.WhitelistToken, error) {
	if req.Decimals != nil && (*req.Decimals < 0 || *req.Decimals > 36) {
		return nil, apperrors.NewInvalidParameterError("decimals", "must be between 0 and 36")
	}
	return s.tokens.Update(ctx, id, req)
}

// Remove deletes a whitelist entry
func (s *WhitelistService) Remove(ctx context.Context, id uuid.UUID) error {
	return s.tokens.Delete(ctx, id)
}

// IsTokenWhitelisted reports whether a token is trusted on a network.
// A nil token address means the native asset.
func (s *WhitelistService) IsTokenWhitelisted(tokenAddress *string, network types.Network) bool {
	return s.tokens.IsWhitelisted(tokenAddress, network)
}
