package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	apperrors "github.com/wallet-tracker/internal/errors"
	"github.com/wallet-tracker/internal/models"
	"github.com/wallet-tracker/internal/types"
)

// SyncStateRepository handles sync state persistence. Status transitions go
// through conditional updates so concurrent workers race on rows affected,
// not on read-then-write.
type SyncStateRepository struct {
	db *PostgresDB
}

// NewSyncStateRepository creates a new sync state repository
func NewSyncStateRepository(db *PostgresDB) *SyncStateRepository {
	return &SyncStateRepository{db: db}
}

const syncStateColumns = `id, wallet_id, network, last_synced_block, last_synced_block_hex,
	status, auto_sync, transaction_count, error_count,
	last_error, last_attempt_at, last_synced_at, created_at, updated_at`

// GetOrCreate returns the sync state for a wallet-network pair, creating a
// pending row with an empty checkpoint on first sight. Creation is idempotent
// under concurrency via ON CONFLICT DO NOTHING.
func (r *SyncStateRepository) GetOrCreate(ctx context.Context, walletID uuid.UUID, network types.Network) (*models.SyncState, error) {
	insert := `
		INSERT INTO sync_states (id, wallet_id, network, last_synced_block, status, auto_sync, created_at, updated_at)
		VALUES ($1, $2, $3, '', 'pending', true, $4, $4)
		ON CONFLICT (wallet_id, network) DO NOTHING
	`
	if _, err := r.db.Pool().Exec(ctx, insert, uuid.New(), walletID, network, time.Now().UTC()); err != nil {
		return nil, apperrors.NewDatabaseError("create sync state", err)
	}

	return r.Get(ctx, walletID, network)
}

// Get retrieves the sync state for a wallet-network pair
func (r *SyncStateRepository) Get(ctx context.Context, walletID uuid.UUID, network types.Network) (*models.SyncState, error) {
	query := `SELECT ` + syncStateColumns + ` FROM sync_states WHERE wallet_id = $1 AND network = $2`

	state, err := scanSyncState(r.db.Pool().QueryRow(ctx, query, walletID, network))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("sync state", walletID.String()+"/"+string(network))
		}
		return nil, err
	}
	return state, nil
}

// TryClaim atomically moves a sync state to in_progress. It succeeds when the
// row is not currently in_progress, or when its lease has gone stale (the
// last_attempt_at heartbeat is older than staleTimeout). Returns false when
// another run holds the pair.
func (r *SyncStateRepository) TryClaim(ctx context.Context, walletID uuid.UUID, network types.Network, staleTimeout time.Duration) (bool, error) {
	query := `
		UPDATE sync_states
		SET status = 'in_progress', last_error = '', last_attempt_at = $3, updated_at = $3
		WHERE wallet_id = $1 AND network = $2
		  AND (status <> 'in_progress'
		       OR last_attempt_at IS NULL
		       OR last_attempt_at < $4)
	`

	now := time.Now().UTC()
	result, err := r.db.Pool().Exec(ctx, query, walletID, network, now, now.Add(-staleTimeout))
	if err != nil {
		return false, apperrors.NewDatabaseError("claim sync state", err)
	}

	return result.RowsAffected() > 0, nil
}

// Heartbeat renews the in_progress lease during a long-running sweep
func (r *SyncStateRepository) Heartbeat(ctx context.Context, walletID uuid.UUID, network types.Network) error {
	query := `
		UPDATE sync_states
		SET last_attempt_at = $3, updated_at = $3
		WHERE wallet_id = $1 AND network = $2 AND status = 'in_progress'
	`
	if _, err := r.db.Pool().Exec(ctx, query, walletID, network, time.Now().UTC()); err != nil {
		return apperrors.NewDatabaseError("heartbeat sync state", err)
	}
	return nil
}

// Complete finalizes a run: records the new checkpoint in both encodings,
// adds the run's writes to the cumulative transaction count, and clears the
// failure streak. An empty checkpoint keeps the previous last_synced_block,
// for sweeps that observed no transfers.
func (r *SyncStateRepository) Complete(ctx context.Context, walletID uuid.UUID, network types.Network, completion models.SyncCompletion) error {
	query := `
		UPDATE sync_states
		SET status = 'completed',
		    last_synced_block = CASE WHEN $3 = '' THEN last_synced_block ELSE $3 END,
		    last_synced_block_hex = CASE WHEN $3 = '' THEN last_synced_block_hex ELSE $4 END,
		    transaction_count = transaction_count + $5,
		    error_count = 0,
		    last_error = '',
		    last_synced_at = $6,
		    updated_at = $6
		WHERE wallet_id = $1 AND network = $2
	`

	result, err := r.db.Pool().Exec(ctx, query, walletID, network,
		completion.Checkpoint, completion.CheckpointHex, completion.Synced, time.Now().UTC())
	if err != nil {
		return apperrors.NewDatabaseError("complete sync state", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("sync state", walletID.String()+"/"+string(network))
	}
	return nil
}

// Fail marks a run failed, records the error and extends the failure streak.
// The checkpoint is left at the last completed run's value, so the retry
// re-covers the failed window and dedup absorbs the rewrites.
func (r *SyncStateRepository) Fail(ctx context.Context, walletID uuid.UUID, network types.Network, message string) error {
	query := `
		UPDATE sync_states
		SET status = 'failed', error_count = error_count + 1, last_error = $3, updated_at = $4
		WHERE wallet_id = $1 AND network = $2
	`

	result, err := r.db.Pool().Exec(ctx, query, walletID, network, message, time.Now().UTC())
	if err != nil {
		return apperrors.NewDatabaseError("fail sync state", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("sync state", walletID.String()+"/"+string(network))
	}
	return nil
}

// SetAutoSync toggles scheduler eligibility for a wallet-network pair
func (r *SyncStateRepository) SetAutoSync(ctx context.Context, walletID uuid.UUID, network types.Network, enabled bool) error {
	query := `
		UPDATE sync_states
		SET auto_sync = $3, updated_at = $4
		WHERE wallet_id = $1 AND network = $2
	`

	result, err := r.db.Pool().Exec(ctx, query, walletID, network, enabled, time.Now().UTC())
	if err != nil {
		return apperrors.NewDatabaseError("set auto sync", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("sync state", walletID.String()+"/"+string(network))
	}
	return nil
}

// ListEligible enumerates the wallet-network pairs a scheduled cycle should
// sync: every network of every active wallet that either has no state row yet
// or has auto_sync enabled and is not currently in_progress.
func (r *SyncStateRepository) ListEligible(ctx context.Context) ([]*models.SyncTarget, error) {
	query := `
		SELECT w.id, w.address, n.network
		FROM wallets w
		CROSS JOIN LATERAL unnest(w.networks) AS n(network)
		LEFT JOIN sync_states s ON s.wallet_id = w.id AND s.network = n.network
		WHERE w.is_active
		  AND (s.id IS NULL OR (s.auto_sync AND s.status <> 'in_progress'))
		ORDER BY w.created_at, n.network
	`

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list eligible sync targets", err)
	}
	defer rows.Close()

	var targets []*models.SyncTarget
	for rows.Next() {
		var target models.SyncTarget
		var network string
		if err := rows.Scan(&target.WalletID, &target.Address, &network); err != nil {
			return nil, apperrors.NewDatabaseError("scan sync target", err)
		}
		target.Network = types.Network(network)
		targets = append(targets, &target)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseError("list eligible sync targets", err)
	}

	return targets, nil
}

// ListByWallet retrieves all sync states for a wallet
func (r *SyncStateRepository) ListByWallet(ctx context.Context, walletID uuid.UUID) ([]*models.SyncState, error) {
	query := `SELECT ` + syncStateColumns + ` FROM sync_states WHERE wallet_id = $1 ORDER BY network`

	rows, err := r.db.Pool().Query(ctx, query, walletID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list sync states", err)
	}
	defer rows.Close()

	var states []*models.SyncState
	for rows.Next() {
		state, err := scanSyncState(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseError("list sync states", err)
	}

	return states, nil
}

type syncStateScanner interface {
	Scan(dest ...any) error
}

func scanSyncState(row syncStateScanner) (*models.SyncState, error) {
	var state models.SyncState
	var network string

	err := row.Scan(
		&state.ID,
		&state.WalletID,
		&network,
		&state.LastSyncedBlock,
		&state.LastSyncedBlockHex,
		&state.Status,
		&state.AutoSync,
		&state.TransactionCount,
		&state.ErrorCount,
		&state.LastError,
		&state.LastAttemptAt,
		&state.LastSyncedAt,
		&state.CreatedAt,
		&state.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.NewDatabaseError("scan sync state", err)
	}

	state.Network = types.Network(network)
	return &state, nil
}
