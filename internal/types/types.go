// Package types defines shared domain types: supported networks, transfer
// categories and directions, sync run statuses, and service errors.
package types

import "fmt"

// Network identifies a supported blockchain network by its provider slug
// (e.g. "eth-mainnet", "polygon-mainnet")
type Network string

// Supported networks
const (
	NetworkEthMainnet      Network = "eth-mainnet"
	NetworkEthSepolia      Network = "eth-sepolia"
	NetworkPolygonMainnet  Network = "polygon-mainnet"
	NetworkPolygonAmoy     Network = "polygon-amoy"
	NetworkArbitrumMainnet Network = "arbitrum-mainnet"
	NetworkArbitrumSepolia Network = "arbitrum-sepolia"
	NetworkOptimismMainnet Network = "optimism-mainnet"
	NetworkOptimismSepolia Network = "optimism-sepolia"
	NetworkBaseMainnet     Network = "base-mainnet"
	NetworkBaseSepolia     Network = "base-sepolia"
)

// NetworkInfo holds static configuration for a supported network
type NetworkInfo struct {
	Name         Network `json:"name"`
	ChainID      int64   `json:"chainId"`
	RPCHost      string  `json:"rpcHost"` // provider RPC host for transfer queries
	NativeSymbol string  `json:"nativeSymbol"`
}

var supportedNetworks = map[Network]NetworkInfo{
	NetworkEthMainnet:      {Name: NetworkEthMainnet, ChainID: 1, RPCHost: "https://eth-mainnet.g.alchemy.com/v2", NativeSymbol: "ETH"},
	NetworkEthSepolia:      {Name: NetworkEthSepolia, ChainID: 11155111, RPCHost: "https://eth-sepolia.g.alchemy.com/v2", NativeSymbol: "ETH"},
	NetworkPolygonMainnet:  {Name: NetworkPolygonMainnet, ChainID: 137, RPCHost: "https://polygon-mainnet.g.alchemy.com/v2", NativeSymbol: "MATIC"},
	NetworkPolygonAmoy:     {Name: NetworkPolygonAmoy, ChainID: 80002, RPCHost: "https://polygon-amoy.g.alchemy.com/v2", NativeSymbol: "MATIC"},
	NetworkArbitrumMainnet: {Name: NetworkArbitrumMainnet, ChainID: 42161, RPCHost: "https://arb-mainnet.g.alchemy.com/v2", NativeSymbol: "ETH"},
	NetworkArbitrumSepolia: {Name: NetworkArbitrumSepolia, ChainID: 421614, RPCHost: "https://arb-sepolia.g.alchemy.com/v2", NativeSymbol: "ETH"},
	NetworkOptimismMainnet: {Name: NetworkOptimismMainnet, ChainID: 10, RPCHost: "https://opt-mainnet.g.alchemy.com/v2", NativeSymbol: "ETH"},
	NetworkOptimismSepolia: {Name: NetworkOptimismSepolia, ChainID: 11155420, RPCHost: "https://opt-sepolia.g.alchemy.com/v2", NativeSymbol: "ETH"},
	NetworkBaseMainnet:     {Name: NetworkBaseMainnet, ChainID: 8453, RPCHost: "https://base-mainnet.g.alchemy.com/v2", NativeSymbol: "ETH"},
	NetworkBaseSepolia:     {Name: NetworkBaseSepolia, ChainID: 84532, RPCHost: "https://base-sepolia.g.alchemy.com/v2", NativeSymbol: "ETH"},
}

// IsSupportedNetwork reports whether the network slug is known
func IsSupportedNetwork(network Network) bool {
	_, ok := supportedNetworks[network]
	return ok
}

// GetNetworkInfo returns static configuration for a network
func GetNetworkInfo(network Network) (NetworkInfo, error) {
	info, ok := supportedNetworks[network]
	if !ok {
		return NetworkInfo{}, fmt.Errorf("unsupported network: %s", network)
	}
	return info, nil
}

// SupportedNetworks returns all known network slugs
func SupportedNetworks() []Network {
	networks := make([]Network, 0, len(supportedNetworks))
	for name := range supportedNetworks {
		networks = append(networks, name)
	}
	return networks
}

// TransactionCategory classifies a transfer by the standard it was observed under
type TransactionCategory string

const (
	CategoryExternal TransactionCategory = "external" // native transfer
	CategoryInternal TransactionCategory = "internal" // internal (trace-level) transfer
	CategoryERC20    TransactionCategory = "erc20"
	CategoryERC721   TransactionCategory = "erc721"
	CategoryERC1155  TransactionCategory = "erc1155"
)

// AllCategories lists every transfer category requested from the provider
func AllCategories() []TransactionCategory {
	return []TransactionCategory{
		CategoryExternal,
		CategoryInternal,
		CategoryERC20,
		CategoryERC721,
		CategoryERC1155,
	}
}

// IsValidCategory reports whether the category is known
func IsValidCategory(category TransactionCategory) bool {
	switch category {
	case CategoryExternal, CategoryInternal, CategoryERC20, CategoryERC721, CategoryERC1155:
		return true
	}
	return false
}

// TransactionDirection is a transfer's direction relative to the tracked wallet
type TransactionDirection string

const (
	DirectionIncoming TransactionDirection = "incoming"
	DirectionOutgoing TransactionDirection = "outgoing"
)

// SyncRunStatus is the state of a wallet-network sync pair
type SyncRunStatus string

const (
	SyncStatusPending    SyncRunStatus = "pending"
	SyncStatusInProgress SyncRunStatus = "in_progress"
	SyncStatusCompleted  SyncRunStatus = "completed"
	SyncStatusFailed     SyncRunStatus = "failed"
)

// ServiceError represents a service-level error with a stable code
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
