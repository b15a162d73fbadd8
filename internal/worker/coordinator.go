// Package worker implements the sync coordinator, the interval scheduler,
// and the balance tracker.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/wallet-tracker/internal/config"
	apperrors "github.com/wallet-tracker/internal/errors"
	"github.com/wallet-tracker/internal/logging"
	"github.com/wallet-tracker/internal/models"
	"github.com/wallet-tracker/internal/provider"
	"github.com/wallet-tracker/internal/types"
)

// TransferFetcher fetches pages of asset transfers from the data provider
type TransferFetcher interface {
	FetchTransferPage(ctx context.Context, query provider.TransferQuery) (*provider.TransferPage, error)
}

// SyncStateStore persists sync progress for wallet-network pairs
type SyncStateStore interface {
	GetOrCreate(ctx context.Context, walletID uuid.UUID, network types.Network) (*models.SyncState, error)
	TryClaim(ctx context.Context, walletID uuid.UUID, network types.Network, staleTimeout time.Duration) (bool, error)
	Heartbeat(ctx context.Context, walletID uuid.UUID, network types.Network) error
	Complete(ctx context.Context, walletID uuid.UUID, network types.Network, completion models.SyncCompletion) error
	Fail(ctx context.Context, walletID uuid.UUID, network types.Network, message string) error
	ListEligible(ctx context.Context) ([]*models.SyncTarget, error)
}

// TransactionStore persists ledger records
type TransactionStore interface {
	ExistingHashes(ctx context.Context, network types.Network, hashes []string) (map[string]struct{}, error)
	Insert(ctx context.Context, record *models.TransactionRecord) error
	InsertBatch(ctx context.Context, records []*models.TransactionRecord) error
}

// WhitelistChecker answers whitelist lookups on the sync hot path
type WhitelistChecker interface {
	IsWhitelisted(tokenAddress *string, network types.Network) bool
}

// StatsInvalidator drops cached aggregates after a run writes new records
type StatsInvalidator interface {
	InvalidateWallet(ctx context.Context, walletID uuid.UUID) error
}

// CoordinatorConfig holds sync coordinator dependencies
type CoordinatorConfig struct {
	Provider     TransferFetcher
	States       SyncStateStore
	Transactions TransactionStore
	Whitelist    WhitelistChecker
	StatsCache   StatsInvalidator // optional
	Sync         config.SyncConfig
	Logger       *logging.Logger
}

// SyncCoordinator runs incremental transaction syncs for wallet-network pairs
type SyncCoordinator struct {
	provider     TransferFetcher
	states       SyncStateStore
	transactions TransactionStore
	whitelist    WhitelistChecker
	statsCache   StatsInvalidator
	cfg          config.SyncConfig
	logger       *logging.Logger
}

// NewSyncCoordinator creates a new sync coordinator
func NewSyncCoordinator(cfg CoordinatorConfig) (*SyncCoordinator, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if cfg.States == nil {
		return nil, fmt.Errorf("sync state store is required")
	}
	if cfg.Transactions == nil {
		return nil, fmt.Errorf("transaction store is required")
	}
	if cfg.Whitelist == nil {
		return nil, fmt.Errorf("whitelist checker is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.GetGlobalLogger()
	}

	return &SyncCoordinator{
		provider:     cfg.Provider,
		states:       cfg.States,
		transactions: cfg.Transactions,
		whitelist:    cfg.Whitelist,
		statsCache:   cfg.StatsCache,
		cfg:          cfg.Sync,
		logger:       cfg.Logger.WithField("component", "sync"),
	}, nil
}

// RunSync syncs one wallet-network pair. It claims the pair's sync state,
// sweeps incoming then outgoing transfers from the checkpoint, writes each
// page as it arrives, and finalizes the state. If another run holds the pair
// it returns a zero-effect result without error.
func (c *SyncCoordinator) RunSync(ctx context.Context, walletID uuid.UUID, address string, network types.Network, opts models.SyncOptions) (*models.SyncResult, error) {
	result := &models.SyncResult{}

	if !types.IsSupportedNetwork(network) {
		return result, apperrors.NewUnsupportedNetworkError(string(network))
	}
	address = strings.ToLower(address)

	log := c.logger.WithFields(map[string]interface{}{
		"wallet_id": walletID,
		"address":   address,
		"network":   network,
	})

	state, err := c.states.GetOrCreate(ctx, walletID, network)
	if err != nil {
		return result, err
	}

	claimed, err := c.states.TryClaim(ctx, walletID, network, c.cfg.StaleRunTimeout)
	if err != nil {
		return result, err
	}
	if !claimed {
		log.Info("sync already in progress, skipping")
		return result, nil
	}

	fromBlock := startBlock(state, opts)
	toBlockHex := "latest"
	if opts.ToBlock != "" {
		toBlockHex, err = provider.DecimalToHex(opts.ToBlock)
		if err != nil {
			failErr := apperrors.NewInvalidParameterError("toBlock", err.Error())
			c.fail(ctx, walletID, network, failErr)
			return result, failErr
		}
	}
	fromBlockHex, err := provider.DecimalToHex(fromBlock)
	if err != nil {
		failErr := apperrors.NewInvalidParameterError("fromBlock", err.Error())
		c.fail(ctx, walletID, network, failErr)
		return result, failErr
	}

	log.WithFields(map[string]interface{}{
		"from_block":  fromBlock,
		"to_block":    toBlockHex,
		"full_resync": opts.FullResync,
	}).Info("starting sync")

	maxObserved := ""
	for _, direction := range []types.TransactionDirection{types.DirectionIncoming, types.DirectionOutgoing} {
		sweepMax, err := c.sweep(ctx, walletID, address, network, direction, fromBlockHex, toBlockHex, result)
		if provider.CompareDecimal(sweepMax, maxObserved) > 0 {
			maxObserved = sweepMax
		}
		if err != nil {
			c.fail(ctx, walletID, network, err)
			return result, err
		}
	}

	// An explicit upper bound caps what this run has proven synced. A full
	// resync or an open-ended sweep checkpoints at the highest block observed.
	checkpoint := maxObserved
	if opts.ToBlock != "" && !opts.FullResync {
		checkpoint = opts.ToBlock
	}
	checkpointHex := ""
	if checkpoint != "" {
		// checkpoint is either a block decimal we produced from provider hex
		// or the already-validated toBlock option
		checkpointHex, _ = provider.DecimalToHex(checkpoint)
	}

	completion := models.SyncCompletion{
		Checkpoint:    checkpoint,
		CheckpointHex: checkpointHex,
		Synced:        result.Synced,
	}
	if err := c.states.Complete(ctx, walletID, network, completion); err != nil {
		return result, err
	}

	if c.statsCache != nil {
		if err := c.statsCache.InvalidateWallet(ctx, walletID); err != nil {
			log.WithError(err).Warn("failed to invalidate stats cache")
		}
	}

	log.WithFields(map[string]interface{}{
		"synced":        result.Synced,
		"skipped":       result.Skipped,
		"total_fetched": result.TotalFetched,
		"checkpoint":    checkpoint,
	}).Info("sync completed")

	return result, nil
}

// startBlock resolves where a run begins: block zero for full resyncs and
// first runs, an explicit override when given, otherwise checkpoint plus one.
func startBlock(state *models.SyncState, opts models.SyncOptions) string {
	if opts.FullResync {
		return "0"
	}
	if opts.FromBlock != "" {
		return opts.FromBlock
	}
	if state.LastSyncedBlock == "" {
		return "0"
	}
	n, err := strconv.ParseUint(state.LastSyncedBlock, 10, 64)
	if err != nil {
		return "0"
	}
	return strconv.FormatUint(n+1, 10)
}

// sweep drains one direction's transfer pages. Each page is deduplicated and
// written before the next fetch; the checkpoint is only committed once both
// sweeps finish, so a failed run re-covers its window on retry and dedup
// absorbs the rewrites. Returns the highest block number observed across
// written pages.
func (c *SyncCoordinator) sweep(ctx context.Context, walletID uuid.UUID, address string, network types.Network, direction types.TransactionDirection, fromBlockHex, toBlockHex string, result *models.SyncResult) (string, error) {
	log := c.logger.WithFields(map[string]interface{}{
		"wallet_id": walletID,
		"network":   network,
		"direction": direction,
	})

	limiter := rate.NewLimiter(rate.Every(c.cfg.PageDelay), 1)
	maxObserved := ""
	pageKey := ""

	for page := 0; ; page++ {
		if page >= c.cfg.MaxPages {
			log.WithField("max_pages", c.cfg.MaxPages).Warn("page ceiling reached, stopping sweep early")
			break
		}

		if err := limiter.Wait(ctx); err != nil {
			return maxObserved, err
		}

		transferPage, err := c.provider.FetchTransferPage(ctx, provider.TransferQuery{
			Network:      network,
			Address:      address,
			Direction:    direction,
			FromBlockHex: fromBlockHex,
			ToBlockHex:   toBlockHex,
			MaxCount:     c.cfg.MaxCountPerPage,
			PageKey:      pageKey,
		})
		if err != nil {
			return maxObserved, err
		}

		result.TotalFetched += len(transferPage.Transfers)

		synced, skipped, pageMax, err := c.saveBatch(ctx, walletID, address, network, direction, transferPage.Transfers)
		result.Synced += synced
		result.Skipped += skipped
		if provider.CompareDecimal(pageMax, maxObserved) > 0 {
			maxObserved = pageMax
		}
		if err != nil {
			return maxObserved, err
		}

		if err := c.states.Heartbeat(ctx, walletID, network); err != nil {
			return maxObserved, err
		}

		if transferPage.PageKey == "" {
			break
		}
		pageKey = transferPage.PageKey
	}

	return maxObserved, nil
}

// saveBatch deduplicates one page against the ledger and writes the
// remainder. The batch insert falls back to per-record inserts when the
// batch trips the unique constraint; only duplicate-key errors are swallowed
// there, counted as skips.
func (c *SyncCoordinator) saveBatch(ctx context.Context, walletID uuid.UUID, address string, network types.Network, direction types.TransactionDirection, transfers []provider.Transfer) (synced, skipped int, maxBlock string, err error) {
	if len(transfers) == 0 {
		return 0, 0, "", nil
	}

	hashes := make([]string, 0, len(transfers))
	for _, t := range transfers {
		hashes = append(hashes, t.Hash)
	}
	existing, err := c.transactions.ExistingHashes(ctx, network, hashes)
	if err != nil {
		return 0, 0, "", err
	}

	records := make([]*models.TransactionRecord, 0, len(transfers))
	seen := make(map[string]struct{}, len(transfers))
	for _, t := range transfers {
		if _, ok := existing[t.Hash]; ok {
			skipped++
			continue
		}
		if _, ok := seen[t.Hash]; ok {
			skipped++
			continue
		}
		seen[t.Hash] = struct{}{}

		record, convErr := c.convertTransfer(walletID, address, network, direction, t)
		if convErr != nil {
			c.logger.WithError(convErr).WithFields(map[string]interface{}{
				"hash":    t.Hash,
				"network": network,
			}).Warn("skipping malformed transfer")
			skipped++
			continue
		}
		records = append(records, record)
		if provider.CompareDecimal(record.BlockNumber, maxBlock) > 0 {
			maxBlock = record.BlockNumber
		}
	}

	if len(records) == 0 {
		return 0, skipped, maxBlock, nil
	}

	if err := c.transactions.InsertBatch(ctx, records); err != nil {
		if !apperrors.IsDuplicateKey(err) {
			return 0, skipped, maxBlock, err
		}
		// A racing run wrote some of these between the pre-check and the
		// batch. Retry one by one and count its wins as skips.
		for _, record := range records {
			if insErr := c.transactions.Insert(ctx, record); insErr != nil {
				if apperrors.IsDuplicateKey(insErr) {
					skipped++
					continue
				}
				return synced, skipped, maxBlock, insErr
			}
			synced++
		}
		return synced, skipped, maxBlock, nil
	}

	return len(records), skipped, maxBlock, nil
}

// convertTransfer maps a provider transfer onto a ledger record
func (c *SyncCoordinator) convertTransfer(walletID uuid.UUID, address string, network types.Network, direction types.TransactionDirection, t provider.Transfer) (*models.TransactionRecord, error) {
	blockNumber, err := provider.HexToDecimal(t.BlockNum)
	if err != nil {
		return nil, err
	}

	// A wallet sending to itself yields one outgoing record, not two.
	recordDirection := direction
	if strings.EqualFold(t.From, address) && strings.EqualFold(t.To, address) {
		recordDirection = types.DirectionOutgoing
	}

	record := &models.TransactionRecord{
		ID:             uuid.New(),
		WalletID:       walletID,
		Hash:           t.Hash,
		Network:        network,
		BlockNumberHex: t.BlockNum,
		BlockNumber:    blockNumber,
		FromAddress:    strings.ToLower(t.From),
		ToAddress:      strings.ToLower(t.To),
		Asset:          t.Asset,
		Category:       t.Category,
		Direction:      recordDirection,
		TokenID:        t.TokenID,
		IsWhitelisted:  c.whitelist.IsWhitelisted(t.RawContract.Address, network),
	}

	if t.RawContract.Address != nil {
		lower := strings.ToLower(*t.RawContract.Address)
		record.TokenAddress = &lower
	}

	record.Value, err = transferValue(t)
	if err != nil {
		return nil, err
	}

	if t.Metadata != nil && t.Metadata.BlockTimestamp != "" {
		if ts, parseErr := time.Parse(time.RFC3339, t.Metadata.BlockTimestamp); parseErr == nil {
			record.BlockTimestamp = &ts
		}
	}

	if raw, marshalErr := json.Marshal(t.RawContract); marshalErr == nil {
		record.RawContractData = string(raw)
	}
	if len(t.ERC1155Metadata) > 0 {
		if raw, marshalErr := json.Marshal(t.ERC1155Metadata); marshalErr == nil {
			record.ERC1155Metadata = string(raw)
		}
	}

	return record, nil
}

// transferValue renders the transfer amount. Fungible amounts come from the
// raw contract hex when present; NFT transfers carry their tokenId count or
// zero.
func transferValue(t provider.Transfer) (string, error) {
	if t.RawContract.Value != nil && *t.RawContract.Value != "" {
		decimals := 18
		if t.RawContract.Decimal != nil {
			d, err := provider.HexToDecimal(*t.RawContract.Decimal)
			if err != nil {
				return "", err
			}
			parsed, err := strconv.Atoi(d)
			if err != nil {
				return "", err
			}
			decimals = parsed
		}
		return provider.FormatUnits(*t.RawContract.Value, decimals)
	}
	if t.Value != nil {
		return strconv.FormatFloat(*t.Value, 'f', -1, 64), nil
	}
	return "0", nil
}

func (c *SyncCoordinator) fail(ctx context.Context, walletID uuid.UUID, network types.Network, cause error) {
	if err := c.states.Fail(ctx, walletID, network, cause.Error()); err != nil {
		c.logger.WithError(err).WithFields(map[string]interface{}{
			"wallet_id": walletID,
			"network":   network,
		}).Error("failed to mark sync state failed")
	}
}
