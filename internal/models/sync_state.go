package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/wallet-tracker/internal/types"
)

// SyncState tracks incremental sync progress for one wallet on one network.
// A wallet has at most one state row per network.
type SyncState struct {
	ID                 uuid.UUID           `json:"id"`
	WalletID           uuid.UUID           `json:"walletId"`
	Network            types.Network       `json:"network"`
	LastSyncedBlock    string              `json:"lastSyncedBlock"`              // decimal string, "" when never synced
	LastSyncedBlockHex string              `json:"lastSyncedBlockHex,omitempty"` // provider-native 0x encoding of the same block
	Status             types.SyncRunStatus `json:"status"`
	AutoSync           bool                `json:"autoSync"`
	TransactionCount   int64               `json:"transactionCount"` // cumulative records written across runs
	ErrorCount         int                 `json:"errorCount"`       // consecutive failed runs, reset on success
	LastError          string              `json:"lastError,omitempty"`
	LastAttemptAt      *time.Time          `json:"lastAttemptAt,omitempty"` // doubles as the in_progress lease heartbeat
	LastSyncedAt       *time.Time          `json:"lastSyncedAt,omitempty"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
}

// SyncTarget is one wallet-network pair eligible for a scheduled sync
type SyncTarget struct {
	WalletID uuid.UUID
	Address  string
	Network  types.Network
}

// SyncOptions controls a single sync run
type SyncOptions struct {
	FromBlock  string `json:"fromBlock,omitempty"` // decimal string, overrides the checkpoint
	ToBlock    string `json:"toBlock,omitempty"`   // decimal string, caps the sweep
	FullResync bool   `json:"fullResync,omitempty"`
}

// SyncCompletion finalizes a successful run. An empty checkpoint keeps the
// previous one, for runs that observed nothing and had no explicit bound.
type SyncCompletion struct {
	Checkpoint    string // decimal string
	CheckpointHex string // same block, 0x encoded
	Synced        int    // records written by this run
}

// SyncResult summarizes one sync run
type SyncResult struct {
	Synced       int `json:"synced"`
	Skipped      int `json:"skipped"`
	TotalFetched int `json:"totalFetched"`
}
