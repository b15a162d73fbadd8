package storage

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "github.com/wallet-tracker/internal/errors"
	"github.com/wallet-tracker/internal/models"
	"github.com/wallet-tracker/internal/types"
)

// BalanceRepository handles balance snapshot persistence
type BalanceRepository struct {
	db *PostgresDB
}

// NewBalanceRepository creates a new balance repository
func NewBalanceRepository(db *PostgresDB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

const balanceColumns = `id, wallet_id, network, token_address, token_name, token_symbol, token_logo,
	token_decimals, raw_balance, balance, usd_value, is_whitelisted, is_spam, updated_at`

// ReplaceForWallet replaces all balance snapshots for a wallet in one
// transaction. A crashed refresh leaves the previous snapshot intact.
func (r *BalanceRepository) ReplaceForWallet(ctx context.Context, walletID uuid.UUID, balances []*models.WalletBalance) error {
	tx, err := r.db.Pool().Begin(ctx)
	if err != nil {
		return apperrors.NewDatabaseError("begin balance replace", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx, `DELETE FROM wallet_balances WHERE wallet_id = $1`, walletID); err != nil {
		return apperrors.NewDatabaseError("delete balances", err)
	}

	insert := `
		INSERT INTO wallet_balances (
			id, wallet_id, network, token_address, token_name, token_symbol, token_logo,
			token_decimals, raw_balance, balance, usd_value, is_whitelisted, is_spam, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	now := time.Now().UTC()
	for _, balance := range balances {
		if balance.ID == uuid.Nil {
			balance.ID = uuid.New()
		}
		balance.WalletID = walletID
		balance.UpdatedAt = now

		_, err := tx.Exec(ctx, insert,
			balance.ID,
			balance.WalletID,
			balance.Network,
			balance.TokenAddress,
			balance.TokenName,
			balance.TokenSymbol,
			balance.TokenLogo,
			balance.TokenDecimals,
			balance.RawBalance,
			balance.Balance,
			balance.USDValue,
			balance.IsWhitelisted,
			balance.IsSpam,
			balance.UpdatedAt,
		)
		if err != nil {
			return apperrors.NewDatabaseError("insert balance", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewDatabaseError("commit balance replace", err)
	}
	return nil
}

// ListByWallet retrieves balance snapshots for a wallet
func (r *BalanceRepository) ListByWallet(ctx context.Context, walletID uuid.UUID, filter *models.BalanceFilter) ([]*models.WalletBalance, error) {
	where := []string{"wallet_id = $1"}
	args := []interface{}{walletID}

	if filter != nil {
		if filter.Network != "" {
			args = append(args, filter.Network)
			where = append(where, "network = $2")
		}
		if filter.WhitelistOnly {
			where = append(where, "is_whitelisted")
		}
		if filter.ExcludeSpam {
			where = append(where, "NOT is_spam")
		}
	}

	query := `SELECT ` + balanceColumns + ` FROM wallet_balances WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY network, token_symbol`

	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list balances", err)
	}
	defer rows.Close()

	var balances []*models.WalletBalance
	for rows.Next() {
		var balance models.WalletBalance
		var network string
		err := rows.Scan(
			&balance.ID,
			&balance.WalletID,
			&network,
			&balance.TokenAddress,
			&balance.TokenName,
			&balance.TokenSymbol,
			&balance.TokenLogo,
			&balance.TokenDecimals,
			&balance.RawBalance,
			&balance.Balance,
			&balance.USDValue,
			&balance.IsWhitelisted,
			&balance.IsSpam,
			&balance.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewDatabaseError("scan balance", err)
		}
		balance.Network = types.Network(network)
		balances = append(balances, &balance)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseError("list balances", err)
	}

	return balances, nil
}

// CountStats aggregates balance snapshots across all wallets
func (r *BalanceRepository) CountStats(ctx context.Context) (balances, whitelisted, spam int, totalUSD decimal.Decimal, err error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_whitelisted),
		       COUNT(*) FILTER (WHERE is_spam),
		       COALESCE(SUM(usd_value), 0)
		FROM wallet_balances
	`

	if scanErr := r.db.Pool().QueryRow(ctx, query).Scan(&balances, &whitelisted, &spam, &totalUSD); scanErr != nil {
		return 0, 0, 0, decimal.Zero, apperrors.NewDatabaseError("count balance stats", scanErr)
	}
	return balances, whitelisted, spam, totalUSD, nil
}

// ListReportRows builds the balance report: whitelisted, non-spam balances
// joined with their wallets
func (r *BalanceRepository) ListReportRows(ctx context.Context) ([]*models.BalanceReportRow, error) {
	query := `
		SELECT w.name, w.address, b.network, b.token_symbol, b.token_address, b.balance, b.usd_value
		FROM wallet_balances b
		JOIN wallets w ON w.id = b.wallet_id
		WHERE b.is_whitelisted AND NOT b.is_spam
		ORDER BY w.name, b.network, b.token_symbol
	`

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list report rows", err)
	}
	defer rows.Close()

	var report []*models.BalanceReportRow
	for rows.Next() {
		var row models.BalanceReportRow
		var network string
		err := rows.Scan(
			&row.WalletName,
			&row.Address,
			&network,
			&row.TokenSymbol,
			&row.TokenAddress,
			&row.Balance,
			&row.USDValue,
		)
		if err != nil {
			return nil, apperrors.NewDatabaseError("scan report row", err)
		}
		row.Network = types.Network(network)
		report = append(report, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseError("list report rows", err)
	}

	return report, nil
}
