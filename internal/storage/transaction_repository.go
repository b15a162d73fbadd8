package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/wallet-tracker/internal/errors"
	"github.com/wallet-tracker/internal/models"
	"github.com/wallet-tracker/internal/types"
)

// TransactionRepository handles the transaction ledger. The (hash, network)
// unique constraint is the last line of defense against double-writes;
// duplicate-key errors pass through unwrapped so callers can classify them.
type TransactionRepository struct {
	db *PostgresDB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *PostgresDB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, wallet_id, hash, network, block_number_hex, block_number,
	from_address, to_address, value, asset, category, direction,
	token_address, token_id, erc1155_metadata, is_whitelisted, block_timestamp, raw_contract_data, created_at`

const transactionInsert = `
	INSERT INTO transaction_records (
		id, wallet_id, hash, network, block_number_hex, block_number,
		from_address, to_address, value, asset, category, direction,
		token_address, token_id, erc1155_metadata, is_whitelisted, block_timestamp, raw_contract_data, created_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
`

// ExistingHashes returns which of the given hashes are already stored for a
// network. Used as the dedup pre-check before batch inserts.
func (r *TransactionRepository) ExistingHashes(ctx context.Context, network types.Network, hashes []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(hashes))
	if len(hashes) == 0 {
		return existing, nil
	}

	query := `SELECT hash FROM transaction_records WHERE network = $1 AND hash = ANY($2)`

	rows, err := r.db.Pool().Query(ctx, query, network, hashes)
	if err != nil {
		return nil, apperrors.NewDatabaseError("check existing hashes", err)
	}
	defer rows.Close()

	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, apperrors.NewDatabaseError("scan existing hash", err)
		}
		existing[hash] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseError("check existing hashes", err)
	}

	return existing, nil
}

// Insert stores a single record. Duplicate-key errors are returned unwrapped
// so callers can swallow them during per-record fallback.
func (r *TransactionRepository) Insert(ctx context.Context, record *models.TransactionRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Pool().Exec(ctx, transactionInsert, insertArgs(record)...)
	if err != nil {
		if apperrors.IsDuplicateKey(err) {
			return err
		}
		return apperrors.NewDatabaseError("insert transaction", err)
	}
	return nil
}

// InsertBatch stores records in one transaction. Any failure rolls back the
// whole batch; callers fall back to per-record inserts on duplicate keys.
func (r *TransactionRepository) InsertBatch(ctx context.Context, records []*models.TransactionRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.Pool().Begin(ctx)
	if err != nil {
		return apperrors.NewDatabaseError("begin batch insert", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck // no-op after commit

	now := time.Now().UTC()
	for _, record := range records {
		if record.ID == uuid.Nil {
			record.ID = uuid.New()
		}
		if record.CreatedAt.IsZero() {
			record.CreatedAt = now
		}
		if _, err := tx.Exec(ctx, transactionInsert, insertArgs(record)...); err != nil {
			if apperrors.IsDuplicateKey(err) {
				return err
			}
			return apperrors.NewDatabaseError("batch insert transaction", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewDatabaseError("commit batch insert", err)
	}
	return nil
}

// ListByWallet retrieves one page of ledger records for a wallet plus the
// unpaginated total under the same filters
func (r *TransactionRepository) ListByWallet(ctx context.Context, walletID uuid.UUID, filter *models.HistoryFilter) (*models.HistoryPage, error) {
	where := []string{"wallet_id = $1"}
	args := []interface{}{walletID}

	addArg := func(clause string, value interface{}) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.Network != "" {
		addArg("network = $%d", filter.Network)
	}
	if filter.Category != "" {
		addArg("category = $%d", filter.Category)
	}
	if filter.Direction != "" {
		addArg("direction = $%d", filter.Direction)
	}
	if filter.FromBlock != "" {
		addArg("block_number::numeric >= $%d::numeric", filter.FromBlock)
	}
	if filter.ToBlock != "" {
		addArg("block_number::numeric <= $%d::numeric", filter.ToBlock)
	}
	if filter.FromDate != nil {
		addArg("block_timestamp >= $%d", *filter.FromDate)
	}
	if filter.ToDate != nil {
		addArg("block_timestamp <= $%d", *filter.ToDate)
	}
	if filter.WhitelistOnly {
		where = append(where, "is_whitelisted")
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM transaction_records WHERE ` + whereClause
	if err := r.db.Pool().QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, apperrors.NewDatabaseError("count transactions", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT %s FROM transaction_records
		WHERE %s
		ORDER BY block_number::numeric DESC, hash
		LIMIT $%d OFFSET $%d
	`, transactionColumns, whereClause, len(args)-1, len(args))

	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list transactions", err)
	}
	defer rows.Close()

	records := make([]*models.TransactionRecord, 0, limit)
	for rows.Next() {
		var record models.TransactionRecord
		err := rows.Scan(
			&record.ID,
			&record.WalletID,
			&record.Hash,
			&record.Network,
			&record.BlockNumberHex,
			&record.BlockNumber,
			&record.FromAddress,
			&record.ToAddress,
			&record.Value,
			&record.Asset,
			&record.Category,
			&record.Direction,
			&record.TokenAddress,
			&record.TokenID,
			&record.ERC1155Metadata,
			&record.IsWhitelisted,
			&record.BlockTimestamp,
			&record.RawContractData,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewDatabaseError("scan transaction", err)
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseError("list transactions", err)
	}

	return &models.HistoryPage{Records: records, Total: total}, nil
}

// CountStats aggregates the ledger for one wallet
func (r *TransactionRepository) CountStats(ctx context.Context, walletID uuid.UUID) (*models.TransactionStats, error) {
	stats := &models.TransactionStats{
		ByNetwork:   make(map[types.Network]int),
		ByCategory:  make(map[types.TransactionCategory]int),
		ByDirection: make(map[string]int),
	}

	query := `
		SELECT network, category, direction, COUNT(*), COUNT(*) FILTER (WHERE is_whitelisted)
		FROM transaction_records
		WHERE wallet_id = $1
		GROUP BY network, category, direction
	`

	rows, err := r.db.Pool().Query(ctx, query, walletID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("count transaction stats", err)
	}
	defer rows.Close()

	for rows.Next() {
		var network, category, direction string
		var count, whitelisted int
		if err := rows.Scan(&network, &category, &direction, &count, &whitelisted); err != nil {
			return nil, apperrors.NewDatabaseError("scan transaction stats", err)
		}
		stats.Total += count
		stats.Whitelisted += whitelisted
		stats.ByNetwork[types.Network(network)] += count
		stats.ByCategory[types.TransactionCategory(category)] += count
		stats.ByDirection[direction] += count
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseError("count transaction stats", err)
	}

	return stats, nil
}

func insertArgs(record *models.TransactionRecord) []interface{} {
	return []interface{}{
		record.ID,
		record.WalletID,
		record.Hash,
		record.Network,
		record.BlockNumberHex,
		record.BlockNumber,
		record.FromAddress,
		record.ToAddress,
		record.Value,
		record.Asset,
		record.Category,
		record.Direction,
		record.TokenAddress,
		record.TokenID,
		record.ERC1155Metadata,
		record.IsWhitelisted,
		record.BlockTimestamp,
		record.RawContractData,
		record.CreatedAt,
	}
}
