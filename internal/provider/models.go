package provider

import (
	"encoding/json"

	"github.com/wallet-tracker/internal/types"
)

// RawContract carries the provider's raw token contract fields for a transfer
type RawContract struct {
	Value   *string `json:"value"`   // hex amount, nil for some NFT transfers
	Address *string `json:"address"` // token contract, nil for native transfers
	Decimal *string `json:"decimal"` // hex decimals, nil when unknown
}

// TransferMetadata carries block-level metadata for a transfer
type TransferMetadata struct {
	BlockTimestamp string `json:"blockTimestamp"` // ISO-8601
}

// ERC1155Metadata is one tokenId/value pair inside an ERC1155 batch transfer
type ERC1155Metadata struct {
	TokenID string `json:"tokenId"`
	Value   string `json:"value"`
}

// Transfer is one asset transfer returned by the provider
type Transfer struct {
	Hash            string                    `json:"hash"`
	BlockNum        string                    `json:"blockNum"` // hex
	From            string                    `json:"from"`
	To              string                    `json:"to"`
	Value           *float64                  `json:"value"` // nil for NFT transfers
	Asset           string                    `json:"asset"`
	Category        types.TransactionCategory `json:"category"`
	TokenID         string                    `json:"tokenId,omitempty"`
	ERC1155Metadata []ERC1155Metadata         `json:"erc1155Metadata,omitempty"`
	RawContract     RawContract               `json:"rawContract"`
	Metadata        *TransferMetadata         `json:"metadata,omitempty"`
}

// TransferPage is one page of transfers plus the cursor for the next page.
// An empty PageKey means the sweep is exhausted.
type TransferPage struct {
	Transfers []Transfer `json:"transfers"`
	PageKey   string     `json:"pageKey,omitempty"`
}

// TransferQuery parameterizes one page fetch
type TransferQuery struct {
	Network      types.Network
	Address      string
	Direction    types.TransactionDirection
	FromBlockHex string // inclusive, hex with 0x prefix
	ToBlockHex   string // "latest" or hex with 0x prefix
	MaxCount     int
	PageKey      string // opaque cursor from the previous page
}

// TokenPrice is one price point attached to a token balance
type TokenPrice struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
}

// TokenBalance is one token holding returned by the balances endpoint
type TokenBalance struct {
	Network       types.Network `json:"network"`
	Address       string        `json:"address"`
	TokenAddress  *string       `json:"tokenAddress"` // nil for the native asset
	TokenBalance  string        `json:"tokenBalance"` // hex
	TokenMetadata struct {
		Name     string `json:"name"`
		Symbol   string `json:"symbol"`
		Decimals *int   `json:"decimals"`
		Logo     string `json:"logo"`
	} `json:"tokenMetadata"`
	TokenPrices []TokenPrice `json:"tokenPrices,omitempty"`
}

// AddressNetworks pairs one address with the networks to query balances on
type AddressNetworks struct {
	Address  string          `json:"address"`
	Networks []types.Network `json:"networks"`
}

// BalanceFetchOptions controls a balances fetch
type BalanceFetchOptions struct {
	WithPrices    bool
	IncludeERC20  bool
	IncludeNative bool
}

// rpcRequest is a JSON-RPC 2.0 request envelope
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// rpcError is a JSON-RPC 2.0 error object
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// rpcResponse is a JSON-RPC 2.0 response envelope
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}
