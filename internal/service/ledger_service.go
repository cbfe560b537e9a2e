// internal/service/ledger_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"fintx-engine/internal/domain"
	"fintx-engine/internal/metrics"
	"fintx-engine/internal/repository"
	"fintx-engine/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceTolerance is the maximum debit/credit difference a posting group
// may carry and still be considered balanced.
var BalanceTolerance = decimal.NewFromFloat(0.01)

// LedgerService holds accounts and immutable ledger entries and enforces the
// double-entry invariant and account-type balance-sign rules.
type LedgerService interface {
	CreateAccount(ctx context.Context, name string, accountType domain.AccountType, currency string) (*domain.LedgerAccount, error)
	// EnsureAccount returns the account with the given (name, currency),
	// creating it when absent.
	EnsureAccount(ctx context.Context, name string, accountType domain.AccountType, currency string) (*domain.LedgerAccount, error)
	PostTransaction(ctx context.Context, idempotencyKey, reference, description string, entries []domain.EntryInput) (*domain.LedgerTransaction, error)
	Reverse(ctx context.Context, transactionID, reason string) (*domain.LedgerTransaction, error)
	GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error)
	GetTransaction(ctx context.Context, transactionID string) (*domain.LedgerTransaction, error)
}

// ledgerService implements LedgerService over a LedgerRepository, with a
// per-account mutex map serializing concurrent postings that touch the same
// accounts.
type ledgerService struct {
	repo   repository.LedgerRepository
	logger *slog.Logger

	muMap map[string]*sync.Mutex // one mutex per account ID
	mapMu sync.Mutex             // protects muMap itself
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(repo repository.LedgerRepository, logger *slog.Logger) LedgerService {
	return &ledgerService{
		repo:   repo,
		logger: logger,
		muMap:  make(map[string]*sync.Mutex),
	}
}

// CreateAccount adds a new ledger account with a zero balance.
func (s *ledgerService) CreateAccount(ctx context.Context, name string, accountType domain.AccountType, currency string) (*domain.LedgerAccount, error) {
	if name == "" || currency == "" {
		return nil, util.ErrValidation
	}
	switch accountType {
	case domain.AccountTypeAsset, domain.AccountTypeLiability, domain.AccountTypeEquity,
		domain.AccountTypeRevenue, domain.AccountTypeExpense:
	default:
		return nil, fmt.Errorf("%w: unknown account type %q", util.ErrValidation, accountType)
	}

	account := domain.NewLedgerAccount(name, accountType, currency)
	if err := s.repo.CreateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return account, nil
}

// EnsureAccount returns the account with the given (name, currency), creating
// it when absent. Safe to race: a duplicate insert falls back to a re-read.
func (s *ledgerService) EnsureAccount(ctx context.Context, name string, accountType domain.AccountType, currency string) (*domain.LedgerAccount, error) {
	account, err := s.repo.GetAccountByName(ctx, name, currency)
	if err == nil {
		return account, nil
	}
	if !util.IsError(err, util.ErrNotFound) {
		return nil, fmt.Errorf("ensure account: %w", err)
	}

	account, err = s.CreateAccount(ctx, name, accountType, currency)
	if err == nil {
		return account, nil
	}
	if util.IsError(err, util.ErrDuplicateEntry) {
		return s.repo.GetAccountByName(ctx, name, currency)
	}
	return nil, err
}

// PostTransaction applies a balanced group of entries atomically:
// idempotency short-circuit, balance check, exclusive acquisition of every
// touched account, validate-then-apply, unconditional release.
func (s *ledgerService) PostTransaction(ctx context.Context, idempotencyKey, reference, description string, entries []domain.EntryInput) (*domain.LedgerTransaction, error) {
	if idempotencyKey == "" || len(entries) == 0 {
		return nil, util.ErrValidation
	}

	// A key that already posted returns the prior result unchanged; this is
	// what makes postings safe under queue redelivery.
	if existing, err := s.repo.GetLedgerTransactionByKey(ctx, idempotencyKey); err == nil {
		metrics.LedgerPostings.WithLabelValues("idempotent").Inc()
		return existing, nil
	} else if !util.IsError(err, util.ErrNotFound) {
		return nil, fmt.Errorf("post transaction: idempotency lookup: %w", err)
	}

	totalDebits, totalCredits := decimal.Zero, decimal.Zero
	for _, e := range entries {
		if e.Amount.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: entry amount must be positive", util.ErrValidation)
		}
		switch e.Type {
		case domain.EntryTypeDebit:
			totalDebits = totalDebits.Add(e.Amount)
		case domain.EntryTypeCredit:
			totalCredits = totalCredits.Add(e.Amount)
		default:
			return nil, fmt.Errorf("%w: unknown entry type %q", util.ErrValidation, e.Type)
		}
	}
	if totalDebits.Sub(totalCredits).Abs().GreaterThan(BalanceTolerance) {
		metrics.LedgerPostings.WithLabelValues("unbalanced").Inc()
		return nil, fmt.Errorf("%w: debits %s vs credits %s", util.ErrUnbalancedEntries, totalDebits, totalCredits)
	}

	// Lock every distinct account in sorted order before touching any of
	// them, so interleaved postings cannot corrupt the group invariant.
	accountIDs := distinctAccountIDs(entries)
	for _, id := range accountIDs {
		mu := s.accountMutex(id)
		mu.Lock()
		defer mu.Unlock()
	}

	// Phase one: resolve accounts and compute every resulting balance
	// without mutating anything.
	accounts := make(map[string]*domain.LedgerAccount, len(accountIDs))
	balances := make(map[string]decimal.Decimal, len(accountIDs))
	for _, id := range accountIDs {
		account, err := s.repo.GetAccountByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("post transaction: resolve account %s: %w", id, err)
		}
		accounts[id] = account
		balances[id] = account.Balance
	}
	for _, e := range entries {
		account := accounts[e.AccountID]
		if e.Currency != account.Currency {
			return nil, fmt.Errorf("%w: entry currency %s, account %s holds %s", util.ErrCurrencyMismatch, e.Currency, account.Name, account.Currency)
		}
		next := balances[e.AccountID].Add(account.BalanceDelta(e.Type, e.Amount))
		if account.Type == domain.AccountTypeAsset && next.IsNegative() {
			metrics.LedgerPostings.WithLabelValues("insufficient").Inc()
			return nil, fmt.Errorf("%w: account %s would go to %s", util.ErrInsufficientBalance, account.Name, next)
		}
		balances[e.AccountID] = next
	}

	// Phase two: every entry passed, so apply balances and append entries.
	tx := domain.NewLedgerTransaction(idempotencyKey, reference, description)
	tx.TotalAmount = totalDebits
	tx.Currency = entries[0].Currency
	tx.Status = domain.LedgerTransactionStatusCompleted

	running := make(map[string]decimal.Decimal, len(accountIDs))
	for id, account := range accounts {
		running[id] = account.Balance
	}
	for _, e := range entries {
		account := accounts[e.AccountID]
		running[e.AccountID] = running[e.AccountID].Add(account.BalanceDelta(e.Type, e.Amount))
		tx.Entries = append(tx.Entries, domain.LedgerEntry{
			ID:            uuid.New().String(),
			TransactionID: tx.ID,
			AccountID:     e.AccountID,
			Type:          e.Type,
			Amount:        e.Amount,
			Currency:      e.Currency,
			Balance:       running[e.AccountID],
			Description:   e.Description,
			Metadata:      e.Metadata,
			CreatedAt:     tx.CreatedAt,
		})
	}

	// Balance updates and the transaction record commit as one unit; a crash
	// mid-apply must not leave the ledger unbalanced.
	if err := s.repo.Atomic(ctx, func(repo repository.LedgerRepository) error {
		for _, id := range accountIDs {
			if err := repo.UpdateAccountBalance(ctx, id, balances[id]); err != nil {
				return fmt.Errorf("post transaction: update balance of %s: %w", id, err)
			}
		}
		if err := repo.SaveLedgerTransaction(ctx, tx); err != nil {
			return fmt.Errorf("post transaction: save: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	metrics.LedgerPostings.WithLabelValues("posted").Inc()
	s.logger.Info("Posted ledger transaction",
		"ledger_tx_id", tx.ID, "reference", reference, "entries", len(tx.Entries), "total", tx.TotalAmount)
	return tx, nil
}

// Reverse posts a mirror-image entry set under a derived idempotency key and
// marks the original as REVERSED.
func (s *ledgerService) Reverse(ctx context.Context, transactionID, reason string) (*domain.LedgerTransaction, error) {
	original, err := s.repo.GetLedgerTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("reverse: %w", err)
	}
	if original.Status == domain.LedgerTransactionStatusReversed {
		return nil, util.ErrAlreadyReversed
	}

	mirrored := make([]domain.EntryInput, 0, len(original.Entries))
	for _, e := range original.Entries {
		mirrored = append(mirrored, domain.EntryInput{
			AccountID:   e.AccountID,
			Type:        e.Type.Opposite(),
			Amount:      e.Amount,
			Currency:    e.Currency,
			Description: reason,
		})
	}

	reversal, err := s.PostTransaction(ctx, "rev:"+original.ID, original.Reference, reason, mirrored)
	if err != nil {
		return nil, fmt.Errorf("reverse: post mirrored entries: %w", err)
	}
	if err := s.repo.UpdateLedgerTransactionStatus(ctx, original.ID, domain.LedgerTransactionStatusReversed); err != nil {
		return nil, fmt.Errorf("reverse: mark original reversed: %w", err)
	}
	return reversal, nil
}

// GetBalance returns the current balance of a ledger account.
func (s *ledgerService) GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	account, err := s.repo.GetAccountByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get balance: %w", err)
	}
	return account.Balance, nil
}

// GetTransaction retrieves an accounting transaction with its entries.
func (s *ledgerService) GetTransaction(ctx context.Context, transactionID string) (*domain.LedgerTransaction, error) {
	return s.repo.GetLedgerTransactionByID(ctx, transactionID)
}

func (s *ledgerService) accountMutex(accountID string) *sync.Mutex {
	s.mapMu.Lock()
	defer s.mapMu.Unlock()
	if _, exists := s.muMap[accountID]; !exists {
		s.muMap[accountID] = &sync.Mutex{}
	}
	return s.muMap[accountID]
}

func distinctAccountIDs(entries []domain.EntryInput) []string {
	seen := make(map[string]struct{}, len(entries))
	var ids []string
	for _, e := range entries {
		if _, ok := seen[e.AccountID]; !ok {
			seen[e.AccountID] = struct{}{}
			ids = append(ids, e.AccountID)
		}
	}
	sort.Strings(ids)
	return ids
}
