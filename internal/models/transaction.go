package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/wallet-tracker/internal/types"
)

// TransactionRecord is one ledger entry: a transfer touching a tracked wallet.
// Uniqueness is enforced per (hash, network) at the storage layer.
type TransactionRecord struct {
	ID              uuid.UUID                  `json:"id"`
	WalletID        uuid.UUID                  `json:"walletId"`
	Hash            string                     `json:"hash"`
	Network         types.Network              `json:"network"`
	BlockNumberHex  string                     `json:"blockNumberHex"`
	BlockNumber     string                     `json:"blockNumber"` // decimal string
	FromAddress     string                     `json:"fromAddress"`
	ToAddress       string                     `json:"toAddress"`
	Value           string                     `json:"value"` // human-readable decimal amount
	Asset           string                     `json:"asset,omitempty"`
	Category        types.TransactionCategory  `json:"category"`
	Direction       types.TransactionDirection `json:"direction"`
	TokenAddress    *string                    `json:"tokenAddress,omitempty"` // nil for native transfers
	TokenID         string                     `json:"tokenId,omitempty"`         // ERC721/ERC1155
	ERC1155Metadata string                     `json:"erc1155Metadata,omitempty"` // tokenId/value pairs of a batch transfer, JSON
	IsWhitelisted   bool                       `json:"isWhitelisted"`
	BlockTimestamp  *time.Time                 `json:"blockTimestamp,omitempty"`
	RawContractData string                     `json:"rawContractData,omitempty"` // provider raw contract blob, JSON
	CreatedAt       time.Time                  `json:"createdAt"`
}

// HistoryFilter narrows a transaction history query
type HistoryFilter struct {
	Network       types.Network
	Category      types.TransactionCategory
	Direction     types.TransactionDirection
	FromBlock     string // decimal string
	ToBlock       string // decimal string
	FromDate      *time.Time
	ToDate        *time.Time
	WhitelistOnly bool
	Limit         int
	Offset        int
}

// HistoryPage is one page of ledger records plus the unpaginated total
type HistoryPage struct {
	Records []*TransactionRecord `json:"records"`
	Total   int                  `json:"total"`
}

// TransactionStats aggregates the ledger for one wallet
type TransactionStats struct {
	Total       int                               `json:"total"`
	ByNetwork   map[types.Network]int             `json:"byNetwork"`
	ByCategory  map[types.TransactionCategory]int `json:"byCategory"`
	ByDirection map[string]int                    `json:"byDirection"`
	Whitelisted int                               `json:"whitelisted"`
}
