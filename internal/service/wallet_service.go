// internal/service/wallet_service.go
package service

import (
	"context"
	"fmt"

	"fintx-engine/internal/domain"
	"fintx-engine/internal/repository"

	"github.com/shopspring/decimal"
)

// WalletService exposes the wallet collaborator interface the engine
// requires: balance projection reads and delta updates.
type WalletService interface {
	FindOne(ctx context.Context, id string) (*domain.Wallet, error)
	// UpdateBalance applies a signed delta; it fails with
	// util.ErrInsufficientBalance when the resulting balance would be negative.
	UpdateBalance(ctx context.Context, id string, delta decimal.Decimal) (*domain.Wallet, error)
	CreateWallet(ctx context.Context, userID, currency string) (*domain.Wallet, error)
}

// walletService implements WalletService over a WalletRepository.
type walletService struct {
	repo repository.WalletRepository
}

// NewWalletService creates a new WalletService.
func NewWalletService(repo repository.WalletRepository) WalletService {
	return &walletService{repo: repo}
}

func (s *walletService) FindOne(ctx context.Context, id string) (*domain.Wallet, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *walletService) UpdateBalance(ctx context.Context, id string, delta decimal.Decimal) (*domain.Wallet, error) {
	return s.repo.UpdateBalance(ctx, id, delta)
}

func (s *walletService) CreateWallet(ctx context.Context, userID, currency string) (*domain.Wallet, error) {
	wallet := domain.NewWallet(userID, currency)
	if err := s.repo.Create(ctx, wallet); err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}
	return wallet, nil
}
