// internal/repository/postgres/wallet_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintx-engine/internal/domain"
	"fintx-engine/internal/repository"
	"fintx-engine/internal/util"

	"github.com/shopspring/decimal"
)

// WalletRepository implements repository.WalletRepository for PostgreSQL.
type WalletRepository struct {
	q repository.DBExecutor
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(q repository.DBExecutor) repository.WalletRepository {
	return &WalletRepository{q: q}
}

// Create inserts a new wallet into the database.
func (r *WalletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	query := `INSERT INTO wallets (id, user_id, currency, balance, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.ExecContext(ctx, query, wallet.ID, wallet.UserID, wallet.Currency, wallet.Balance, wallet.CreatedAt, wallet.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

// GetByID retrieves a wallet by its ID.
func (r *WalletRepository) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	var wallet domain.Wallet
	query := `SELECT id, user_id, currency, balance, created_at, updated_at FROM wallets WHERE id = $1`
	err := r.q.GetContext(ctx, &wallet, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet by ID %s: %w", id, err)
	}
	return &wallet, nil
}

// UpdateBalance applies a signed delta to the wallet balance in a single
// statement; the WHERE clause rejects updates that would drive the balance
// negative.
func (r *WalletRepository) UpdateBalance(ctx context.Context, id string, delta decimal.Decimal) (*domain.Wallet, error) {
	var wallet domain.Wallet
	query := `UPDATE wallets
              SET balance = balance + $2, updated_at = NOW()
              WHERE id = $1 AND balance + $2 >= 0
              RETURNING id, user_id, currency, balance, created_at, updated_at`
	err := r.q.GetContext(ctx, &wallet, query, id, delta)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Either the wallet is missing or the delta would overdraw it.
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, util.ErrInsufficientBalance
		}
		return nil, fmt.Errorf("failed to update wallet balance: %w", err)
	}
	return &wallet, nil
}
