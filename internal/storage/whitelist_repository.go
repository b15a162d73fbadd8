package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	apperrors "github.com/wallet-tracker/internal/errors"
	"github.com/wallet-tracker/internal/models"
	"github.com/wallet-tracker/internal/types"
)

// WhitelistRepository handles whitelist token persistence with an in-memory
// lookup cache. Whitelist checks run on the sync hot path, once per transfer,
// so lookups must not hit the database.
type WhitelistRepository struct {
	db *PostgresDB

	mu    sync.RWMutex
	cache map[string]bool // key: network + "|" + lowercase token address, active entries only
}

// NewWhitelistRepository creates a new whitelist repository and warms the
// lookup cache
func NewWhitelistRepository(ctx context.Context, db *PostgresDB) (*WhitelistRepository, error) {
	r := &WhitelistRepository{
		db:    db,
		cache: make(map[string]bool),
	}
	if err := r.Reload(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

const whitelistColumns = `id, token_address, network, name, symbol, decimals, is_active, created_at, updated_at`

// Reload rebuilds the lookup cache from the database
func (r *WhitelistRepository) Reload(ctx context.Context) error {
	rows, err := r.db.Pool().Query(ctx,
		`SELECT network, token_address FROM whitelist_tokens WHERE is_active`)
	if err != nil {
		return apperrors.NewDatabaseError("reload whitelist cache", err)
	}
	defer rows.Close()

	cache := make(map[string]bool)
	for rows.Next() {
		var network, tokenAddress string
		if err := rows.Scan(&network, &tokenAddress); err != nil {
			return apperrors.NewDatabaseError("scan whitelist entry", err)
		}
		cache[cacheKey(types.Network(network), tokenAddress)] = true
	}
	if err := rows.Err(); err != nil {
		return apperrors.NewDatabaseError("reload whitelist cache", err)
	}

	r.mu.Lock()
	r.cache = cache
	r.mu.Unlock()
	return nil
}

// IsWhitelisted reports whether a token is whitelisted on a network.
// A nil token address means the chain's native asset, which is always trusted.
func (r *WhitelistRepository) IsWhitelisted(tokenAddress *string, network types.Network) bool {
	if tokenAddress == nil || *tokenAddress == "" {
		return true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cache[cacheKey(network, *tokenAddress)]
}

// Create whitelists a token. A duplicate (token, network) pair is a conflict.
func (r *WhitelistRepository) Create(ctx context.Context, token *models.WhitelistToken) error {
	address, err := NormalizeAddress(token.TokenAddress)
	if err != nil {
		return err
	}
	token.TokenAddress = address

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	now := time.Now().UTC()
	token.CreatedAt = now
	token.UpdatedAt = now
	token.IsActive = true

	query := `
		INSERT INTO whitelist_tokens (id, token_address, network, name, symbol, decimals, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.db.Pool().Exec(ctx, query,
		token.ID,
		token.TokenAddress,
		token.Network,
		token.Name,
		token.Symbol,
		token.Decimals,
		token.IsActive,
		token.CreatedAt,
		token.UpdatedAt,
	)
	if err != nil {
		if apperrors.IsDuplicateKey(err) {
			return apperrors.NewConflictError(
				fmt.Sprintf("token already whitelisted: %s on %s", token.TokenAddress, token.Network))
		}
		return apperrors.NewDatabaseError("create whitelist token", err)
	}

	r.mu.Lock()
	r.cache[cacheKey(token.Network, token.TokenAddress)] = true
	r.mu.Unlock()
	return nil
}

// GetByID retrieves a whitelist entry by ID
func (r *WhitelistRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.WhitelistToken, error) {
	query := `SELECT ` + whitelistColumns + ` FROM whitelist_tokens WHERE id = $1`

	token, err := scanWhitelistToken(r.db.Pool().QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("whitelist token", id.String())
		}
		return nil, err
	}
	return token, nil
}

// List retrieves whitelist entries, optionally filtered by network
func (r *WhitelistRepository) List(ctx context.Context, network types.Network) ([]*models.WhitelistToken, error) {
	query := `SELECT ` + whitelistColumns + ` FROM whitelist_tokens ORDER BY network, symbol`
	args := []interface{}{}
	if network != "" {
		query = `SELECT ` + whitelistColumns + ` FROM whitelist_tokens WHERE network = $1 ORDER BY symbol`
		args = append(args, network)
	}

	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list whitelist tokens", err)
	}
	defer rows.Close()

	var tokens []*models.WhitelistToken
	for rows.Next() {
		token, err := scanWhitelistToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseError("list whitelist tokens", err)
	}

	return tokens, nil
}

// Update applies a partial update to a whitelist entry
func (r *WhitelistRepository) Update(ctx context.Context, id uuid.UUID, req *models.UpdateWhitelistTokenRequest) (*models.WhitelistToken, error) {
	token, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		token.Name = *req.Name
	}
	if req.Symbol != nil {
		token.Symbol = *req.Symbol
	}
	if req.Decimals != nil {
		token.Decimals = *req.Decimals
	}
	if req.IsActive != nil {
		token.IsActive = *req.IsActive
	}
	token.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE whitelist_tokens
		SET name = $2, symbol = $3, decimals = $4, is_active = $5, updated_at = $6
		WHERE id = $1
	`

	_, err = r.db.Pool().Exec(ctx, query,
		token.ID, token.Name, token.Symbol, token.Decimals, token.IsActive, token.UpdatedAt)
	if err != nil {
		return nil, apperrors.NewDatabaseError("update whitelist token", err)
	}

	r.mu.Lock()
	if token.IsActive {
		r.cache[cacheKey(token.Network, token.TokenAddress)] = true
	} else {
		delete(r.cache, cacheKey(token.Network, token.TokenAddress))
	}
	r.mu.Unlock()

	return token, nil
}

// Delete removes a whitelist entry
func (r *WhitelistRepository) Delete(ctx context.Context, id uuid.UUID) error {
	token, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if _, err := r.db.Pool().Exec(ctx, `DELETE FROM whitelist_tokens WHERE id = $1`, id); err != nil {
		return apperrors.NewDatabaseError("delete whitelist token", err)
	}

	r.mu.Lock()
	delete(r.cache, cacheKey(token.Network, token.TokenAddress))
	r.mu.Unlock()
	return nil
}

func cacheKey(network types.Network, tokenAddress string) string {
	return string(network) + "|" + strings.ToLower(tokenAddress)
}

type whitelistScanner interface {
	Scan(dest ...any) error
}

func scanWhitelistToken(row whitelistScanner) (*models.WhitelistToken, error) {
	var token models.WhitelistToken
	var network string

	err := row.Scan(
		&token.ID,
		&token.TokenAddress,
		&network,
		&token.Name,
		&token.Symbol,
		&token.Decimals,
		&token.IsActive,
		&token.CreatedAt,
		&token.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.NewDatabaseError("scan whitelist token", err)
	}

	token.Network = types.Network(network)
	return &token, nil
}
