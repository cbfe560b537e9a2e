// internal/repository/wallet_repo.go
package repository

import (
	"context"

	"fintx-engine/internal/domain"

	"github.com/shopspring/decimal"
)

// WalletRepository defines the interface for wallet data operations.
type WalletRepository interface {
	// Create adds a new wallet.
	Create(ctx context.Context, wallet *domain.Wallet) error
	// GetByID retrieves a wallet by its ID.
	GetByID(ctx context.Context, id string) (*domain.Wallet, error)
	// UpdateBalance applies a signed delta to the wallet balance and returns
	// the updated wallet. It fails with util.ErrInsufficientBalance when the
	// resulting balance would be negative.
	UpdateBalance(ctx context.Context, id string, delta decimal.Decimal) (*domain.Wallet, error)
}
