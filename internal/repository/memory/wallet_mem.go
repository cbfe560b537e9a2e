// internal/repository/memory/wallet_mem.go
package memory

import (
	"context"
	"sync"
	"time"

	"fintx-engine/internal/domain"
	"fintx-engine/internal/repository"
	"fintx-engine/internal/util"

	"github.com/shopspring/decimal"
)

// WalletRepository is the in-memory reference implementation of
// repository.WalletRepository.
type WalletRepository struct {
	mu      sync.RWMutex
	wallets map[string]domain.Wallet
}

// NewWalletRepository creates an empty in-memory wallet store.
func NewWalletRepository() *WalletRepository {
	return &WalletRepository{
		wallets: make(map[string]domain.Wallet),
	}
}

// Create adds a new wallet.
func (r *WalletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.wallets[wallet.ID]; exists {
		return util.ErrDuplicateEntry
	}
	r.wallets[wallet.ID] = *wallet
	return nil
}

// GetByID retrieves a wallet by its ID.
func (r *WalletRepository) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wallet, exists := r.wallets[id]
	if !exists {
		return nil, util.ErrWalletNotFound
	}
	return &wallet, nil
}

// UpdateBalance applies a signed delta to the wallet balance. The resulting
// balance must not be negative.
func (r *WalletRepository) UpdateBalance(ctx context.Context, id string, delta decimal.Decimal) (*domain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wallet, exists := r.wallets[id]
	if !exists {
		return nil, util.ErrWalletNotFound
	}
	newBalance := wallet.Balance.Add(delta)
	if newBalance.IsNegative() {
		return nil, util.ErrInsufficientBalance
	}
	wallet.Balance = newBalance
	wallet.UpdatedAt = time.Now().UTC()
	r.wallets[id] = wallet
	return &wallet, nil
}

// Compile-time check: WalletRepository implements repository.WalletRepository.
var _ repository.WalletRepository = (*WalletRepository)(nil)
