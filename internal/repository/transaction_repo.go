// internal/repository/transaction_repo.go
package repository

import (
	"context"

	"fintx-engine/internal/domain"
)

// TransactionRepository defines the interface for domain transaction
// persistence.
type TransactionRepository interface {
	// Create adds a new transaction record.
	Create(ctx context.Context, transaction *domain.Transaction) error
	// GetByID retrieves a transaction by its ID.
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	// GetByIdempotencyKey retrieves a transaction by its idempotency key, or
	// util.ErrNotFound when no transaction carries the key.
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error)
	// Update persists status, timestamps and error message changes.
	Update(ctx context.Context, transaction *domain.Transaction) error
	// ListByWallet retrieves all transactions touching a wallet, newest first.
	ListByWallet(ctx context.Context, walletID string) ([]domain.Transaction, error)
}
