// internal/repository/memory/ledger_mem.go
package memory

import (
	"context"
	"sync"

	"fintx-engine/internal/domain"
	"fintx-engine/internal/repository"
	"fintx-engine/internal/util"

	"github.com/shopspring/decimal"
)

// LedgerRepository is the in-memory reference implementation of
// repository.LedgerRepository. It is thread-safe; copies are returned so
// callers cannot mutate internal state.
type LedgerRepository struct {
	mu           sync.RWMutex
	accounts     map[string]domain.LedgerAccount   // by account ID
	accountNames map[string]string                 // name+"/"+currency -> account ID
	transactions map[string]domain.LedgerTransaction // by transaction ID
	byKey        map[string]string                 // idempotency key -> transaction ID
	entries      []domain.LedgerEntry              // append-only, oldest first
}

// NewLedgerRepository creates an empty in-memory ledger store.
func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{
		accounts:     make(map[string]domain.LedgerAccount),
		accountNames: make(map[string]string),
		transactions: make(map[string]domain.LedgerTransaction),
		byKey:        make(map[string]string),
	}
}

func accountNameKey(name, currency string) string {
	return name + "/" + currency
}

// CreateAccount adds a new ledger account, rejecting duplicate (name, currency) pairs.
func (r *LedgerRepository) CreateAccount(ctx context.Context, account *domain.LedgerAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	nameKey := accountNameKey(account.Name, account.Currency)
	if _, exists := r.accountNames[nameKey]; exists {
		return util.ErrDuplicateEntry
	}
	r.accounts[account.ID] = *account
	r.accountNames[nameKey] = account.ID
	return nil
}

// GetAccountByID retrieves a ledger account by ID.
func (r *LedgerRepository) GetAccountByID(ctx context.Context, id string) (*domain.LedgerAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, exists := r.accounts[id]
	if !exists {
		return nil, util.ErrNotFound
	}
	return &account, nil
}

// GetAccountByName retrieves a ledger account by its (name, currency) pair.
func (r *LedgerRepository) GetAccountByName(ctx context.Context, name, currency string) (*domain.LedgerAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.accountNames[accountNameKey(name, currency)]
	if !exists {
		return nil, util.ErrNotFound
	}
	account := r.accounts[id]
	return &account, nil
}

// UpdateAccountBalance sets the current balance of an account.
func (r *LedgerRepository) UpdateAccountBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, exists := r.accounts[id]
	if !exists {
		return util.ErrNotFound
	}
	account.Balance = balance
	r.accounts[id] = account
	return nil
}

// SaveLedgerTransaction persists an accounting transaction with its entries.
func (r *LedgerRepository) SaveLedgerTransaction(ctx context.Context, tx *domain.LedgerTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.transactions[tx.ID] = *tx
	r.byKey[tx.IdempotencyKey] = tx.ID
	r.entries = append(r.entries, tx.Entries...)
	return nil
}

// UpdateLedgerTransactionStatus moves an accounting transaction to a new status.
func (r *LedgerRepository) UpdateLedgerTransactionStatus(ctx context.Context, id string, status domain.LedgerTransactionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, exists := r.transactions[id]
	if !exists {
		return util.ErrNotFound
	}
	tx.Status = status
	r.transactions[id] = tx
	return nil
}

// GetLedgerTransactionByID retrieves an accounting transaction by ID.
func (r *LedgerRepository) GetLedgerTransactionByID(ctx context.Context, id string) (*domain.LedgerTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tx, exists := r.transactions[id]
	if !exists {
		return nil, util.ErrNotFound
	}
	return copyLedgerTransaction(tx), nil
}

// GetLedgerTransactionByKey retrieves an accounting transaction by idempotency key.
func (r *LedgerRepository) GetLedgerTransactionByKey(ctx context.Context, idempotencyKey string) (*domain.LedgerTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byKey[idempotencyKey]
	if !exists {
		return nil, util.ErrNotFound
	}
	tx := r.transactions[id]
	return copyLedgerTransaction(tx), nil
}

// GetEntriesByAccount retrieves all entries posted against an account, oldest first.
func (r *LedgerRepository) GetEntriesByAccount(ctx context.Context, accountID string) ([]domain.LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.LedgerEntry
	for _, e := range r.entries {
		if e.AccountID == accountID {
			result = append(result, e)
		}
	}
	return result, nil
}

// Atomic runs fn directly: the map stores have no partial-failure mode and
// the ledger service's per-account mutexes already serialize in-process
// postings.
func (r *LedgerRepository) Atomic(ctx context.Context, fn func(repository.LedgerRepository) error) error {
	return fn(r)
}

func copyLedgerTransaction(tx domain.LedgerTransaction) *domain.LedgerTransaction {
	entries := make([]domain.LedgerEntry, len(tx.Entries))
	copy(entries, tx.Entries)
	tx.Entries = entries
	return &tx
}

// Compile-time check: LedgerRepository implements repository.LedgerRepository.
var _ repository.LedgerRepository = (*LedgerRepository)(nil)
