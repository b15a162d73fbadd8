package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/wallet-tracker/internal/types"
)

// WhitelistToken marks a token contract as trusted on a network.
// TokenAddress is lowercase; uniqueness is per (token_address, network).
type WhitelistToken struct {
	ID           uuid.UUID     `json:"id"`
	TokenAddress string        `json:"tokenAddress"`
	Network      types.Network `json:"network"`
	Name         string        `json:"name,omitempty"`
	Symbol       string        `json:"symbol,omitempty"`
	Decimals     int           `json:"decimals"`
	IsActive     bool          `json:"isActive"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// CreateWhitelistTokenRequest is the payload for whitelisting a token
type CreateWhitelistTokenRequest struct {
	TokenAddress string        `json:"tokenAddress"`
	Network      types.Network `json:"network"`
	Name         string        `json:"name,omitempty"`
	Symbol       string        `json:"symbol,omitempty"`
	Decimals     int           `json:"decimals"`
}

// UpdateWhitelistTokenRequest is the payload for updating a whitelist entry.
// Nil fields are left unchanged.
type UpdateWhitelistTokenRequest struct {
	Name     *string `json:"name,omitempty"`
	Symbol   *string `json:"symbol,omitempty"`
	Decimals *int    `json:"decimals,omitempty"`
	IsActive *bool   `json:"isActive,omitempty"`
}
