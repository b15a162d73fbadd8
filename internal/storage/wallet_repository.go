package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	apperrors "github.com/wallet-tracker/internal/errors"
	"github.com/wallet-tracker/internal/models"
	"github.com/wallet-tracker/internal/types"
)

// WalletRepository handles wallet persistence
type WalletRepository struct {
	db *PostgresDB
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *PostgresDB) *WalletRepository {
	return &WalletRepository{db: db}
}

const walletColumns = `id, address, name, description, is_active, networks, last_tracked, created_at, updated_at`

// Create registers a new wallet. The address is validated and lowercased;
// a duplicate address is a conflict.
func (r *WalletRepository) Create(ctx context.Context, wallet *models.Wallet) error {
	address, err := NormalizeAddress(wallet.Address)
	if err != nil {
		return err
	}
	wallet.Address = address

	if wallet.ID == uuid.Nil {
		wallet.ID = uuid.New()
	}
	now := time.Now().UTC()
	wallet.CreatedAt = now
	wallet.UpdatedAt = now

	query := `
		INSERT INTO wallets (id, address, name, description, is_active, networks, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.db.Pool().Exec(ctx, query,
		wallet.ID,
		wallet.Address,
		wallet.Name,
		wallet.Description,
		wallet.IsActive,
		networksToStrings(wallet.Networks),
		wallet.CreatedAt,
		wallet.UpdatedAt,
	)

	if err != nil {
		if apperrors.IsDuplicateKey(err) {
			return apperrors.NewConflictError(fmt.Sprintf("wallet already registered: %s", wallet.Address))
		}
		return apperrors.NewDatabaseError("create wallet", err)
	}

	return nil
}

// GetByID retrieves a wallet by its ID
func (r *WalletRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	query := fmt.Sprintf(`SELECT %s FROM wallets WHERE id = $1`, walletColumns)
	return r.scanOne(r.db.Pool().QueryRow(ctx, query, id), id.String())
}

// GetByAddress retrieves a wallet by its lowercase address
func (r *WalletRepository) GetByAddress(ctx context.Context, address string) (*models.Wallet, error) {
	address, err := NormalizeAddress(address)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM wallets WHERE address = $1`, walletColumns)
	return r.scanOne(r.db.Pool().QueryRow(ctx, query, address), address)
}

// List retrieves all wallets, optionally only active ones
func (r *WalletRepository) List(ctx context.Context, activeOnly bool) ([]*models.Wallet, error) {
	query := fmt.Sprintf(`SELECT %s FROM wallets ORDER BY created_at`, walletColumns)
	if activeOnly {
		query = fmt.Sprintf(`SELECT %s FROM wallets WHERE is_active ORDER BY created_at`, walletColumns)
	}

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list wallets", err)
	}
	defer rows.Close()

	var wallets []*models.Wallet
	for rows.Next() {
		wallet, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, wallet)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseError("list wallets", err)
	}

	return wallets, nil
}

// Update applies a partial update to a wallet
func (r *WalletRepository) Update(ctx context.Context, id uuid.UUID, req *models.UpdateWalletRequest) (*models.Wallet, error) {
	wallet, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		wallet.Name = *req.Name
	}
	if req.Description != nil {
		wallet.Description = *req.Description
	}
	if req.IsActive != nil {
		wallet.IsActive = *req.IsActive
	}
	if req.Networks != nil {
		wallet.Networks = *req.Networks
	}
	wallet.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE wallets
		SET name = $2, description = $3, is_active = $4, networks = $5, updated_at = $6
		WHERE id = $1
	`

	_, err = r.db.Pool().Exec(ctx, query,
		wallet.ID,
		wallet.Name,
		wallet.Description,
		wallet.IsActive,
		networksToStrings(wallet.Networks),
		wallet.UpdatedAt,
	)
	if err != nil {
		return nil, apperrors.NewDatabaseError("update wallet", err)
	}

	return wallet, nil
}

// Delete removes a wallet. Dependent sync states, transactions and balances
// are removed by foreign key cascade.
func (r *WalletRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Pool().Exec(ctx, `DELETE FROM wallets WHERE id = $1`, id)
	if err != nil {
		return apperrors.NewDatabaseError("delete wallet", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("wallet", id.String())
	}
	return nil
}

// SetActive toggles a wallet's active flag
func (r *WalletRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result, err := r.db.Pool().Exec(ctx,
		`UPDATE wallets SET is_active = $2, updated_at = $3 WHERE id = $1`,
		id, active, time.Now().UTC(),
	)
	if err != nil {
		return apperrors.NewDatabaseError("set wallet active", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("wallet", id.String())
	}
	return nil
}

// UpdateLastTracked stamps the wallet's last balance refresh time
func (r *WalletRepository) UpdateLastTracked(ctx context.Context, id uuid.UUID, at time.Time) error {
	result, err := r.db.Pool().Exec(ctx,
		`UPDATE wallets SET last_tracked = $2, updated_at = $2 WHERE id = $1`,
		id, at.UTC(),
	)
	if err != nil {
		return apperrors.NewDatabaseError("update last tracked", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("wallet", id.String())
	}
	return nil
}

// Counts returns total and active wallet counts
func (r *WalletRepository) Counts(ctx context.Context) (total int, active int, err error) {
	query := `SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active) FROM wallets`
	if err := r.db.Pool().QueryRow(ctx, query).Scan(&total, &active); err != nil {
		return 0, 0, apperrors.NewDatabaseError("count wallets", err)
	}
	return total, active, nil
}

type walletScanner interface {
	Scan(dest ...any) error
}

func (r *WalletRepository) scanOne(row pgx.Row, id string) (*models.Wallet, error) {
	wallet, err := r.scanRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("wallet", id)
		}
		return nil, err
	}
	return wallet, nil
}

func (r *WalletRepository) scanRow(row walletScanner) (*models.Wallet, error) {
	var wallet models.Wallet
	var networks []string

	err := row.Scan(
		&wallet.ID,
		&wallet.Address,
		&wallet.Name,
		&wallet.Description,
		&wallet.IsActive,
		&networks,
		&wallet.LastTracked,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.NewDatabaseError("scan wallet", err)
	}

	wallet.Networks = stringsToNetworks(networks)
	return &wallet, nil
}

func networksToStrings(networks []types.Network) []string {
	out := make([]string, len(networks))
	for i, n := range networks {
		out[i] = string(n)
	}
	return out
}

func stringsToNetworks(values []string) []types.Network {
	out := make([]types.Network, len(values))
	for i, v := range values {
		out[i] = types.Network(v)
	}
	return out
}
