// internal/lock/manager.go
package lock

import (
	"context"
	"sort"
	"sync"
	"time"

	"fintx-engine/internal/domain"
	"fintx-engine/internal/util"

	"github.com/shopspring/decimal"
)

// DefaultTTL is the nominal lifetime of a wallet lock. Expiry is enforced
// lazily: an expired lock is replaced on the next Acquire attempt, never
// swept in the background.
const DefaultTTL = 60 * time.Second

// Manager grants exclusive, time-bounded ownership of a wallet identifier to
// one in-flight transaction at a time. Acquire never blocks; a held wallet
// fails fast with util.ErrResourceLocked.
type Manager interface {
	Acquire(ctx context.Context, transactionID, walletID string, amount decimal.Decimal) (*domain.WalletLock, error)
	Release(ctx context.Context, walletID string) error
	// ReleaseIfOwner releases the wallet only when the lock is held by the
	// given transaction, so cleanup of one transaction cannot free a wallet
	// another transaction is processing.
	ReleaseIfOwner(ctx context.Context, walletID, transactionID string) error
}

// MemoryManager is the in-process Manager implementation backed by a map.
type MemoryManager struct {
	mu    sync.Mutex
	locks map[string]domain.WalletLock
	ttl   time.Duration
	now   func() time.Time // injectable clock for expiry tests
}

// NewMemoryManager creates a MemoryManager with the given TTL; a
// non-positive TTL falls back to DefaultTTL.
func NewMemoryManager(ttl time.Duration) *MemoryManager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryManager{
		locks: make(map[string]domain.WalletLock),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Acquire grants the transaction exclusive ownership of the wallet. A live
// lock held by another transaction fails with util.ErrResourceLocked; an
// expired one is stolen.
func (m *MemoryManager) Acquire(ctx context.Context, transactionID, walletID string, amount decimal.Decimal) (*domain.WalletLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	if existing, held := m.locks[walletID]; held && !existing.Expired(now) {
		return nil, util.ErrResourceLocked
	}

	l := domain.WalletLock{
		TransactionID: transactionID,
		WalletID:      walletID,
		Amount:        amount,
		LockedAt:      now,
		ExpiresAt:     now.Add(m.ttl),
	}
	m.locks[walletID] = l
	return &l, nil
}

// Release destroys the lock on the wallet. Releasing an unheld wallet is a
// no-op so cleanup paths can run unconditionally.
func (m *MemoryManager) Release(ctx context.Context, walletID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, walletID)
	return nil
}

// ReleaseIfOwner releases the wallet only when it is held by the given
// transaction. Expired or foreign locks are left alone.
func (m *MemoryManager) ReleaseIfOwner(ctx context.Context, walletID, transactionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, held := m.locks[walletID]; held && existing.TransactionID == transactionID {
		delete(m.locks, walletID)
	}
	return nil
}

// AcquireAll acquires every wallet in sorted order so two transactions
// touching the same pair cannot deadlock. If any acquisition fails, the
// locks already taken are released before the error is returned.
func AcquireAll(ctx context.Context, m Manager, transactionID string, walletIDs []string, amount decimal.Decimal) ([]*domain.WalletLock, error) {
	sorted := make([]string, len(walletIDs))
	copy(sorted, walletIDs)
	sort.Strings(sorted)

	locks := make([]*domain.WalletLock, 0, len(sorted))
	for _, walletID := range sorted {
		l, err := m.Acquire(ctx, transactionID, walletID, amount)
		if err != nil {
			ReleaseAll(ctx, m, locks)
			return nil, err
		}
		locks = append(locks, l)
	}
	return locks, nil
}

// ReleaseAll releases the given locks through their recorded owner. With
// lazy expiry a stale worker's lock may have been stolen by the time its
// cleanup runs; an owner-checked release cannot free the new holder's lock.
// Individual failures are ignored so one stuck release does not leak the rest.
func ReleaseAll(ctx context.Context, m Manager, locks []*domain.WalletLock) {
	for _, l := range locks {
		_ = m.ReleaseIfOwner(ctx, l.WalletID, l.TransactionID)
	}
}
