// internal/repository/ledger_repo.go
package repository

import (
	"context"

	"fintx-engine/internal/domain"

	"github.com/shopspring/decimal"
)

// LedgerRepository defines the interface for ledger account, entry and
// accounting-transaction persistence.
type LedgerRepository interface {
	// CreateAccount adds a new ledger account.
	CreateAccount(ctx context.Context, account *domain.LedgerAccount) error
	// GetAccountByID retrieves a ledger account by its ID.
	GetAccountByID(ctx context.Context, id string) (*domain.LedgerAccount, error)
	// GetAccountByName retrieves a ledger account by its unique (name, currency) pair.
	GetAccountByName(ctx context.Context, name, currency string) (*domain.LedgerAccount, error)
	// UpdateAccountBalance sets the current balance of an account.
	UpdateAccountBalance(ctx context.Context, id string, balance decimal.Decimal) error
	// SaveLedgerTransaction persists an accounting transaction together with its entries.
	SaveLedgerTransaction(ctx context.Context, tx *domain.LedgerTransaction) error
	// UpdateLedgerTransactionStatus moves an accounting transaction to a new status.
	UpdateLedgerTransactionStatus(ctx context.Context, id string, status domain.LedgerTransactionStatus) error
	// GetLedgerTransactionByID retrieves an accounting transaction, entries included.
	GetLedgerTransactionByID(ctx context.Context, id string) (*domain.LedgerTransaction, error)
	// GetLedgerTransactionByKey retrieves an accounting transaction by idempotency key.
	GetLedgerTransactionByKey(ctx context.Context, idempotencyKey string) (*domain.LedgerTransaction, error)
	// GetEntriesByAccount retrieves all entries posted against an account, oldest first.
	GetEntriesByAccount(ctx context.Context, accountID string) ([]domain.LedgerEntry, error)
	// Atomic runs fn against a view of the repository whose writes commit or
	// roll back as one unit, so a crash mid-posting cannot leave the ledger
	// unbalanced.
	Atomic(ctx context.Context, fn func(LedgerRepository) error) error
}
