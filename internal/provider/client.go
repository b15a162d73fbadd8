// Package provider implements the blockchain data provider client used for
// transfer history sweeps and token balance lookups.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/wallet-tracker/internal/config"
	"github.com/wallet-tracker/internal/errors"
	"github.com/wallet-tracker/internal/logging"
	"github.com/wallet-tracker/internal/types"
)

const providerName = "alchemy"

// Client talks to the Alchemy-style transfer and balance APIs
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient creates a provider client. Missing credentials are a fatal
// configuration error; nothing downstream can degrade gracefully without them.
func NewClient(cfg config.ProviderConfig, logger *logging.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.NewMissingCredentialsError("PROVIDER_API_KEY")
	}
	if cfg.BaseURL == "" {
		return nil, errors.NewMissingCredentialsError("PROVIDER_BASE_URL")
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		logger: logger.WithField("component", "provider"),
	}, nil
}

// FetchTransferPage fetches one page of asset transfers for an address in one
// direction. The returned page's PageKey is empty when the sweep is exhausted.
func (c *Client) FetchTransferPage(ctx context.Context, query TransferQuery) (*TransferPage, error) {
	info, err := types.GetNetworkInfo(query.Network)
	if err != nil {
		return nil, errors.NewUnsupportedNetworkError(string(query.Network))
	}

	params := map[string]interface{}{
		"fromBlock":        query.FromBlockHex,
		"toBlock":          query.ToBlockHex,
		"category":         types.AllCategories(),
		"withMetadata":     true,
		"excludeZeroValue": false,
		"maxCount":         fmt.Sprintf("0x%x", query.MaxCount),
		"order":            "asc",
	}
	if query.Direction == types.DirectionIncoming {
		params["toAddress"] = query.Address
	} else {
		params["fromAddress"] = query.Address
	}
	if query.PageKey != "" {
		params["pageKey"] = query.PageKey
	}

	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "alchemy_getAssetTransfers",
		Params:  []interface{}{params},
	})
	if err != nil {
		return nil, errors.NewInternalError("marshaling transfer request", err)
	}

	url := fmt.Sprintf("%s/%s", info.RPCHost, c.apiKey)
	respBody, err := c.post(ctx, url, reqBody)
	if err != nil {
		return nil, err
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, errors.NewProviderError(providerName, fmt.Errorf("decoding transfer response: %w", err))
	}
	if rpcResp.Error != nil {
		return nil, errors.NewProviderError(providerName,
			fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message))
	}

	var page TransferPage
	if err := json.Unmarshal(rpcResp.Result, &page); err != nil {
		return nil, errors.NewProviderError(providerName, fmt.Errorf("decoding transfer page: %w", err))
	}

	c.logger.WithFields(map[string]interface{}{
		"network":   query.Network,
		"direction": query.Direction,
		"transfers": len(page.Transfers),
		"has_more":  page.PageKey != "",
	}).Debug("fetched transfer page")

	return &page, nil
}

// FetchBalances fetches token balances for a set of address-network pairs.
// The endpoint paginates internally; all pages are drained before returning.
func (c *Client) FetchBalances(ctx context.Context, addresses []AddressNetworks, opts BalanceFetchOptions) ([]TokenBalance, error) {
	for _, a := range addresses {
		for _, n := range a.Networks {
			if !types.IsSupportedNetwork(n) {
				return nil, errors.NewUnsupportedNetworkError(string(n))
			}
		}
	}

	url := fmt.Sprintf("%s/%s/assets/tokens/by-address", c.baseURL, c.apiKey)

	var balances []TokenBalance
	pageKey := ""
	for {
		body := map[string]interface{}{
			"addresses":           addresses,
			"withMetadata":        true,
			"withPrices":          opts.WithPrices,
			"includeNativeTokens": opts.IncludeNative,
			"includeErc20Tokens":  opts.IncludeERC20,
		}
		if pageKey != "" {
			body["pageKey"] = pageKey
		}

		reqBody, err := json.Marshal(body)
		if err != nil {
			return nil, errors.NewInternalError("marshaling balances request", err)
		}

		respBody, err := c.post(ctx, url, reqBody)
		if err != nil {
			return nil, err
		}

		var resp struct {
			Data struct {
				Tokens  []TokenBalance `json:"tokens"`
				PageKey string         `json:"pageKey"`
			} `json:"data"`
		}
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return nil, errors.NewProviderError(providerName, fmt.Errorf("decoding balances response: %w", err))
		}

		balances = append(balances, resp.Data.Tokens...)
		if resp.Data.PageKey == "" {
			break
		}
		pageKey = resp.Data.PageKey
	}

	c.logger.WithFields(map[string]interface{}{
		"addresses": len(addresses),
		"balances":  len(balances),
	}).Debug("fetched token balances")

	return balances, nil
}

// post issues an HTTP POST and classifies transport and status failures
func (c *Client) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewInternalError("building provider request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, errors.NewProviderTimeoutError(providerName)
		}
		return nil, errors.NewProviderError(providerName, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewProviderError(providerName, fmt.Errorf("reading response body: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errors.NewProviderRateLimitError(providerName)
	case resp.StatusCode >= 400:
		return nil, errors.NewProviderError(providerName,
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(respBody), 200)))
	}

	return respBody, nil
}

func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
