// internal/repository/memory/transaction_mem.go
package memory

import (
	"context"
	"sort"
	"sync"

	"fintx-engine/internal/domain"
	"fintx-engine/internal/repository"
	"fintx-engine/internal/util"
)

// TransactionRepository is the in-memory reference implementation of
// repository.TransactionRepository.
type TransactionRepository struct {
	mu           sync.RWMutex
	transactions map[string]domain.Transaction // by transaction ID
	byKey        map[string]string             // idempotency key -> transaction ID
}

// NewTransactionRepository creates an empty in-memory transaction store.
func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{
		transactions: make(map[string]domain.Transaction),
		byKey:        make(map[string]string),
	}
}

// Create adds a new transaction record, rejecting duplicate idempotency keys.
func (r *TransactionRepository) Create(ctx context.Context, transaction *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byKey[transaction.IdempotencyKey]; exists {
		return util.ErrDuplicateEntry
	}
	r.transactions[transaction.ID] = copyTransaction(*transaction)
	r.byKey[transaction.IdempotencyKey] = transaction.ID
	return nil
}

// GetByID retrieves a transaction by its ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tx, exists := r.transactions[id]
	if !exists {
		return nil, util.ErrNotFound
	}
	out := copyTransaction(tx)
	return &out, nil
}

// GetByIdempotencyKey retrieves a transaction by its idempotency key.
func (r *TransactionRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byKey[key]
	if !exists {
		return nil, util.ErrNotFound
	}
	tx := r.transactions[id]
	out := copyTransaction(tx)
	return &out, nil
}

// Update persists status, timestamps and error message changes.
func (r *TransactionRepository) Update(ctx context.Context, transaction *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.transactions[transaction.ID]; !exists {
		return util.ErrNotFound
	}
	r.transactions[transaction.ID] = copyTransaction(*transaction)
	return nil
}

// ListByWallet retrieves all transactions touching a wallet, newest first.
func (r *TransactionRepository) ListByWallet(ctx context.Context, walletID string) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Transaction
	for _, tx := range r.transactions {
		for _, id := range tx.WalletIDs() {
			if id == walletID {
				result = append(result, copyTransaction(tx))
				break
			}
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func copyTransaction(tx domain.Transaction) domain.Transaction {
	ids := make([]string, len(tx.LedgerTransactionIDs))
	copy(ids, tx.LedgerTransactionIDs)
	tx.LedgerTransactionIDs = ids
	return tx
}

// Compile-time check: TransactionRepository implements repository.TransactionRepository.
var _ repository.TransactionRepository = (*TransactionRepository)(nil)
