// internal/repository/postgres/ledger_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintx-engine/internal/domain"
	"fintx-engine/internal/repository"
	"fintx-engine/internal/util"
	"fintx-engine/pkg/db"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// LedgerRepository implements repository.LedgerRepository for PostgreSQL.
type LedgerRepository struct {
	db *sqlx.DB // nil when this view is bound to an open transaction
	q  repository.DBExecutor
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(database *sqlx.DB) repository.LedgerRepository {
	return &LedgerRepository{db: database, q: database}
}

// Atomic runs fn against a repository view bound to a single SQL transaction,
// committing on success and rolling back on error.
func (r *LedgerRepository) Atomic(ctx context.Context, fn func(repository.LedgerRepository) error) error {
	if r.db == nil {
		// Already inside a transaction; run in the enclosing scope.
		return fn(r)
	}
	tx, err := db.BeginTx(ctx, r.db)
	if err != nil {
		return fmt.Errorf("failed to begin ledger transaction: %w", err)
	}
	if err := fn(&LedgerRepository{q: tx}); err != nil {
		db.RollbackTx(tx)
		return err
	}
	if err := db.CommitTx(tx); err != nil {
		return fmt.Errorf("failed to commit ledger transaction: %w", err)
	}
	return nil
}

// CreateAccount adds a new ledger account.
func (r *LedgerRepository) CreateAccount(ctx context.Context, account *domain.LedgerAccount) error {
	query := `INSERT INTO ledger_accounts (id, name, type, currency, balance, is_locked, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.ExecContext(ctx, query,
		account.ID, account.Name, account.Type, account.Currency,
		account.Balance, account.IsLocked, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create ledger account: %w", err)
	}
	return nil
}

// GetAccountByID retrieves a ledger account by its ID.
func (r *LedgerRepository) GetAccountByID(ctx context.Context, id string) (*domain.LedgerAccount, error) {
	var account domain.LedgerAccount
	query := `SELECT id, name, type, currency, balance, is_locked, created_at, updated_at
              FROM ledger_accounts WHERE id = $1`
	err := r.q.GetContext(ctx, &account, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ledger account %s: %w", id, err)
	}
	return &account, nil
}

// GetAccountByName retrieves a ledger account by its (name, currency) pair.
func (r *LedgerRepository) GetAccountByName(ctx context.Context, name, currency string) (*domain.LedgerAccount, error) {
	var account domain.LedgerAccount
	query := `SELECT id, name, type, currency, balance, is_locked, created_at, updated_at
              FROM ledger_accounts WHERE name = $1 AND currency = $2`
	err := r.q.GetContext(ctx, &account, query, name, currency)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ledger account %s/%s: %w", name, currency, err)
	}
	return &account, nil
}

// UpdateAccountBalance sets the current balance of an account.
func (r *LedgerRepository) UpdateAccountBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	query := `UPDATE ledger_accounts SET balance = $2, updated_at = NOW() WHERE id = $1`
	res, err := r.q.ExecContext(ctx, query, id, balance)
	if err != nil {
		return fmt.Errorf("failed to update ledger account balance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check balance update result: %w", err)
	}
	if affected == 0 {
		return util.ErrNotFound
	}
	return nil
}

// SaveLedgerTransaction persists an accounting transaction and its entries.
// Entries are immutable once written; only the transaction status row is
// ever updated afterwards.
func (r *LedgerRepository) SaveLedgerTransaction(ctx context.Context, tx *domain.LedgerTransaction) error {
	query := `INSERT INTO ledger_transactions (id, idempotency_key, reference, description, total_amount, currency, status, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.ExecContext(ctx, query,
		tx.ID, tx.IdempotencyKey, tx.Reference, tx.Description,
		tx.TotalAmount, tx.Currency, tx.Status, tx.CreatedAt, tx.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save ledger transaction: %w", err)
	}

	entryQuery := `INSERT INTO ledger_entries (id, transaction_id, account_id, type, amount, currency, balance, description, created_at)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for _, entry := range tx.Entries {
		_, err := r.q.ExecContext(ctx, entryQuery,
			entry.ID, entry.TransactionID, entry.AccountID, entry.Type,
			entry.Amount, entry.Currency, entry.Balance, entry.Description, entry.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to save ledger entry: %w", err)
		}
	}
	return nil
}

// UpdateLedgerTransactionStatus moves an accounting transaction to a new status.
func (r *LedgerRepository) UpdateLedgerTransactionStatus(ctx context.Context, id string, status domain.LedgerTransactionStatus) error {
	query := `UPDATE ledger_transactions SET status = $2, updated_at = NOW() WHERE id = $1`
	res, err := r.q.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update ledger transaction status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check status update result: %w", err)
	}
	if affected == 0 {
		return util.ErrNotFound
	}
	return nil
}

// GetLedgerTransactionByID retrieves an accounting transaction with its entries.
func (r *LedgerRepository) GetLedgerTransactionByID(ctx context.Context, id string) (*domain.LedgerTransaction, error) {
	var tx domain.LedgerTransaction
	query := `SELECT id, idempotency_key, reference, description, total_amount, currency, status, created_at, updated_at
              FROM ledger_transactions WHERE id = $1`
	err := r.q.GetContext(ctx, &tx, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ledger transaction %s: %w", id, err)
	}
	if err := r.loadEntries(ctx, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// GetLedgerTransactionByKey retrieves an accounting transaction by idempotency key.
func (r *LedgerRepository) GetLedgerTransactionByKey(ctx context.Context, idempotencyKey string) (*domain.LedgerTransaction, error) {
	var tx domain.LedgerTransaction
	query := `SELECT id, idempotency_key, reference, description, total_amount, currency, status, created_at, updated_at
              FROM ledger_transactions WHERE idempotency_key = $1`
	err := r.q.GetContext(ctx, &tx, query, idempotencyKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ledger transaction by key: %w", err)
	}
	if err := r.loadEntries(ctx, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// GetEntriesByAccount retrieves all entries posted against an account, oldest first.
func (r *LedgerRepository) GetEntriesByAccount(ctx context.Context, accountID string) ([]domain.LedgerEntry, error) {
	var entries []domain.LedgerEntry
	query := `SELECT id, transaction_id, account_id, type, amount, currency, balance, description, created_at
              FROM ledger_entries WHERE account_id = $1 ORDER BY created_at ASC`
	if err := r.q.SelectContext(ctx, &entries, query, accountID); err != nil {
		return nil, fmt.Errorf("failed to get entries for account %s: %w", accountID, err)
	}
	return entries, nil
}

func (r *LedgerRepository) loadEntries(ctx context.Context, tx *domain.LedgerTransaction) error {
	query := `SELECT id, transaction_id, account_id, type, amount, currency, balance, description, created_at
              FROM ledger_entries WHERE transaction_id = $1 ORDER BY created_at ASC`
	if err := r.q.SelectContext(ctx, &tx.Entries, query, tx.ID); err != nil {
		return fmt.Errorf("failed to load entries for ledger transaction %s: %w", tx.ID, err)
	}
	return nil
}
