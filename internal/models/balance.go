package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wallet-tracker/internal/types"
)

// WalletBalance is one token balance snapshot for a wallet on a network.
// Snapshots are replaced wholesale on each refresh. Uniqueness is enforced
// per (wallet_id, token_address, network) at the storage layer.
type WalletBalance struct {
	ID            uuid.UUID        `json:"id"`
	WalletID      uuid.UUID        `json:"walletId"`
	Network       types.Network    `json:"network"`
	TokenAddress  string           `json:"tokenAddress"` // "native" for the chain's native asset
	TokenName     string           `json:"tokenName,omitempty"`
	TokenSymbol   string           `json:"tokenSymbol,omitempty"`
	TokenLogo     string           `json:"tokenLogo,omitempty"`
	TokenDecimals int              `json:"tokenDecimals"`
	RawBalance    string           `json:"rawBalance"` // provider-native hex amount
	Balance       string           `json:"balance"`    // human-readable decimal amount
	USDValue      *decimal.Decimal `json:"usdValue,omitempty"`
	IsWhitelisted bool             `json:"isWhitelisted"`
	IsSpam        bool             `json:"isSpam"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// NativeTokenAddress is the sentinel token address for native balances
const NativeTokenAddress = "native"

// BalanceFilter narrows a balance listing
type BalanceFilter struct {
	Network       types.Network
	WhitelistOnly bool
	ExcludeSpam   bool
}

// TrackingStats aggregates the balance snapshots across all wallets
type TrackingStats struct {
	Wallets       int             `json:"wallets"`
	ActiveWallets int             `json:"activeWallets"`
	Balances      int             `json:"balances"`
	Whitelisted   int             `json:"whitelisted"`
	Spam          int             `json:"spam"`
	TotalUSD      decimal.Decimal `json:"totalUsd"`
}

// BalanceReportRow is one line of the balance report
type BalanceReportRow struct {
	WalletName   string           `json:"walletName"`
	Address      string           `json:"address"`
	Network      types.Network    `json:"network"`
	TokenSymbol  string           `json:"tokenSymbol"`
	TokenAddress string           `json:"tokenAddress"`
	Balance      string           `json:"balance"`
	USDValue     *decimal.Decimal `json:"usdValue,omitempty"`
}
