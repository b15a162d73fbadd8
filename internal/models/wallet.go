// Package models defines persistence entities for the wallet tracker.
package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/wallet-tracker/internal/types"
)

// Wallet represents a tracked wallet address
type Wallet struct {
	ID          uuid.UUID       `json:"id"`
	Address     string          `json:"address"` // lowercase 0x-prefixed hex
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	IsActive    bool            `json:"isActive"`
	Networks    []types.Network `json:"networks"`
	LastTracked *time.Time      `json:"lastTracked,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// CreateWalletRequest is the payload for registering a wallet
type CreateWalletRequest struct {
	Address     string          `json:"address"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Networks    []types.Network `json:"networks,omitempty"`
}

// UpdateWalletRequest is the payload for updating a wallet.
// Nil fields are left unchanged.
type UpdateWalletRequest struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	IsActive    *bool            `json:"isActive,omitempty"`
	Networks    *[]types.Network `json:"networks,omitempty"`
}
