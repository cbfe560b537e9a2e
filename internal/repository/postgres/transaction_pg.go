// internal/repository/postgres/transaction_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintx-engine/internal/domain"
	"fintx-engine/internal/repository"
	"fintx-engine/internal/util"

	"github.com/lib/pq"
)

// TransactionRepository implements repository.TransactionRepository for PostgreSQL.
type TransactionRepository struct {
	q repository.DBExecutor
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(q repository.DBExecutor) repository.TransactionRepository {
	return &TransactionRepository{q: q}
}

// transactionRow mirrors domain.Transaction with the ledger transaction IDs
// flattened into a text array column.
type transactionRow struct {
	domain.Transaction
	LedgerTxIDs pq.StringArray `db:"ledger_transaction_ids"`
}

const transactionColumns = `id, idempotency_key, user_id, type, asset_type, amount, currency, fee,
       status, from_wallet_id, to_wallet_id, from_address, to_address, description, external_ref,
       error_message, ledger_transaction_ids, created_at, updated_at, completed_at, cancelled_at`

func (row *transactionRow) toDomain() *domain.Transaction {
	tx := row.Transaction
	tx.LedgerTransactionIDs = []string(row.LedgerTxIDs)
	return &tx
}

// Create inserts a new transaction record.
func (r *TransactionRepository) Create(ctx context.Context, transaction *domain.Transaction) error {
	query := `INSERT INTO transactions (` + transactionColumns + `)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`
	_, err := r.q.ExecContext(ctx, query,
		transaction.ID, transaction.IdempotencyKey, transaction.UserID, transaction.Type,
		transaction.AssetType, transaction.Amount, transaction.Currency, transaction.Fee,
		transaction.Status, transaction.FromWalletID, transaction.ToWalletID,
		transaction.FromAddress, transaction.ToAddress, transaction.Description, transaction.ExternalRef,
		transaction.ErrorMessage, pq.StringArray(transaction.LedgerTransactionIDs),
		transaction.CreatedAt, transaction.UpdatedAt, transaction.CompletedAt, transaction.CancelledAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a transaction by its ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	var row transactionRow
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	err := r.q.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction by ID %s: %w", id, err)
	}
	return row.toDomain(), nil
}

// GetByIdempotencyKey retrieves a transaction by its idempotency key.
func (r *TransactionRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	var row transactionRow
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE idempotency_key = $1`
	err := r.q.GetContext(ctx, &row, query, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction by idempotency key: %w", err)
	}
	return row.toDomain(), nil
}

// Update persists status, timestamps and error message changes.
func (r *TransactionRepository) Update(ctx context.Context, transaction *domain.Transaction) error {
	query := `UPDATE transactions
              SET status = $2, error_message = $3, ledger_transaction_ids = $4,
                  updated_at = $5, completed_at = $6, cancelled_at = $7
              WHERE id = $1`
	res, err := r.q.ExecContext(ctx, query,
		transaction.ID, transaction.Status, transaction.ErrorMessage,
		pq.StringArray(transaction.LedgerTransactionIDs),
		transaction.UpdatedAt, transaction.CompletedAt, transaction.CancelledAt)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return util.ErrNotFound
	}
	return nil
}

// ListByWallet retrieves all transactions touching a wallet, newest first.
func (r *TransactionRepository) ListByWallet(ctx context.Context, walletID string) ([]domain.Transaction, error) {
	var rows []transactionRow
	query := `SELECT ` + transactionColumns + ` FROM transactions
              WHERE from_wallet_id = $1 OR to_wallet_id = $1
              ORDER BY created_at DESC`
	if err := r.q.SelectContext(ctx, &rows, query, walletID); err != nil {
		return nil, fmt.Errorf("failed to list transactions for wallet %s: %w", walletID, err)
	}
	transactions := make([]domain.Transaction, 0, len(rows))
	for i := range rows {
		transactions = append(transactions, *rows[i].toDomain())
	}
	return transactions, nil
}
