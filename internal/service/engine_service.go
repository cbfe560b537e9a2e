// internal/service/engine_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintx-engine/internal/domain"
	"fintx-engine/internal/events"
	"fintx-engine/internal/lock"
	"fintx-engine/internal/metrics"
	"fintx-engine/internal/queue"
	"fintx-engine/internal/repository"
	"fintx-engine/internal/util"

	"github.com/shopspring/decimal"
)

// System ledger account names. Wallet accounts are LIABILITY (user funds are
// owed to users); the clearing account is the ASSET whose non-negative
// invariant stops the platform from paying out money it never received.
const (
	BankClearingAccount = "bank-clearing"
	FeeRevenueAccount   = "fee-revenue"
)

// CreateTransactionRequest is the DTO the excluded HTTP layer submits.
type CreateTransactionRequest struct {
	IdempotencyKey string                 `json:"idempotencyKey"`
	Type           domain.TransactionType `json:"type"`
	AssetType      string                 `json:"assetType"`
	Amount         decimal.Decimal        `json:"amount"`
	Currency       string                 `json:"currency"`
	Fee            decimal.Decimal        `json:"fee"`
	FromWalletID   *string                `json:"fromWalletId,omitempty"`
	ToWalletID     *string                `json:"toWalletId,omitempty"`
	FromAddress    *string                `json:"fromAddress,omitempty"`
	ToAddress      *string                `json:"toAddress,omitempty"`
	Description    *string                `json:"description,omitempty"`
	ExternalRef    *string                `json:"externalReference,omitempty"`
	Metadata       map[string]string      `json:"metadata,omitempty"`
}

// TransactionStatusInfo is the lightweight status projection for polling.
type TransactionStatusInfo struct {
	ID        string                   `json:"id"`
	Status    domain.TransactionStatus `json:"status"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// EngineService validates, creates and state-transitions transactions,
// orchestrating lock acquisition, ledger postings and wallet balance
// mutation for each transaction type.
type EngineService interface {
	Create(ctx context.Context, req CreateTransactionRequest, userID string) (*domain.Transaction, error)
	Process(ctx context.Context, transactionID string) (*domain.Transaction, error)
	Cancel(ctx context.Context, transactionID, userID string) (*domain.Transaction, error)
	Reverse(ctx context.Context, transactionID, reason string) (*domain.Transaction, error)
	GetStatus(ctx context.Context, transactionID string) (*TransactionStatusInfo, error)
	FindOne(ctx context.Context, transactionID string) (*domain.Transaction, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error)
	FindByWallet(ctx context.Context, walletID string) ([]domain.Transaction, error)
}

// engineService implements EngineService.
type engineService struct {
	transactions repository.TransactionRepository
	idempotency  repository.IdempotencyIndex
	wallets      WalletService
	ledger       LedgerService
	locks        lock.Manager
	jobs         queue.Queue
	publisher    events.Publisher
	audit        Auditor
	logger       *slog.Logger
}

// NewEngineService creates a new EngineService.
func NewEngineService(
	transactions repository.TransactionRepository,
	idempotency repository.IdempotencyIndex,
	wallets WalletService,
	ledger LedgerService,
	locks lock.Manager,
	jobs queue.Queue,
	publisher events.Publisher,
	audit Auditor,
	logger *slog.Logger,
) EngineService {
	return &engineService{
		transactions: transactions,
		idempotency:  idempotency,
		wallets:      wallets,
		ledger:       ledger,
		locks:        locks,
		jobs:         jobs,
		publisher:    publisher,
		audit:        audit,
		logger:       logger,
	}
}

// Create validates the request, persists a PENDING transaction, indexes its
// idempotency key and enqueues a processing job. The caller never blocks on
// ledger work. A duplicate idempotency key returns the existing transaction
// with no side effects.
func (s *engineService) Create(ctx context.Context, req CreateTransactionRequest, userID string) (*domain.Transaction, error) {
	if req.IdempotencyKey == "" {
		return nil, fmt.Errorf("%w: idempotency key is required", util.ErrValidation)
	}

	if existingID, err := s.idempotency.Lookup(ctx, req.IdempotencyKey); err != nil {
		return nil, fmt.Errorf("create: idempotency lookup: %w", err)
	} else if existingID != "" {
		return s.transactions.GetByID(ctx, existingID)
	}

	if err := s.validateCreate(ctx, req, userID); err != nil {
		s.audit.LogFailure("transaction.create", userID, err.Error(), "")
		return nil, err
	}

	tx := domain.NewTransaction(req.IdempotencyKey, userID, req.Type, req.AssetType, req.Amount, req.Fee, req.Currency)
	tx.FromWalletID = req.FromWalletID
	tx.ToWalletID = req.ToWalletID
	tx.FromAddress = req.FromAddress
	tx.ToAddress = req.ToAddress
	tx.Description = req.Description
	tx.ExternalRef = req.ExternalRef
	tx.Metadata = req.Metadata

	if err := s.transactions.Create(ctx, tx); err != nil {
		if util.IsError(err, util.ErrDuplicateEntry) {
			// Lost a race with a concurrent submission of the same key.
			return s.transactions.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		}
		return nil, fmt.Errorf("create: persist transaction: %w", err)
	}
	if err := s.idempotency.Record(ctx, req.IdempotencyKey, tx.ID); err != nil {
		return nil, fmt.Errorf("create: record idempotency key: %w", err)
	}

	if err := s.jobs.Enqueue(ctx, queue.JobTypeProcessTransaction, queue.ProcessTransactionPayload{TransactionID: tx.ID}); err != nil {
		return nil, fmt.Errorf("create: enqueue processing job: %w", err)
	}

	s.audit.LogSuccess("transaction.create", userID, string(tx.Type), tx.ID)
	s.logger.Info("Created transaction", "transaction_id", tx.ID, "type", tx.Type, "amount", tx.Amount, "currency", tx.Currency)
	return tx, nil
}

// validateCreate enforces the synchronous validation rules: amount positive,
// per-type wallet fields, wallet ownership and the advisory balance
// pre-check. The ledger posting remains the authoritative balance guard.
func (s *engineService) validateCreate(ctx context.Context, req CreateTransactionRequest, userID string) error {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: amount must be positive", util.ErrValidation)
	}
	if req.Fee.IsNegative() {
		return fmt.Errorf("%w: fee must not be negative", util.ErrValidation)
	}
	if req.Currency == "" {
		return fmt.Errorf("%w: currency is required", util.ErrValidation)
	}

	switch req.Type {
	case domain.TransactionTypeDeposit:
		if req.ToWalletID == nil {
			return fmt.Errorf("%w: deposit requires a destination wallet", util.ErrValidation)
		}
		// The fee is taken out of the deposited funds; a fee above the
		// principal would overdraw the wallet mid-processing.
		if req.Fee.GreaterThan(req.Amount) {
			return fmt.Errorf("%w: fee must not exceed the deposit amount", util.ErrValidation)
		}
	case domain.TransactionTypeWithdrawal:
		if req.FromWalletID == nil {
			return fmt.Errorf("%w: withdrawal requires a source wallet", util.ErrValidation)
		}
	case domain.TransactionTypeTransfer:
		if req.FromWalletID == nil || req.ToWalletID == nil {
			return fmt.Errorf("%w: transfer requires source and destination wallets", util.ErrValidation)
		}
		if *req.FromWalletID == *req.ToWalletID {
			return fmt.Errorf("%w: same wallet", util.ErrSameWalletTransfer)
		}
	case domain.TransactionTypeTrade:
		if req.FromWalletID == nil {
			return fmt.Errorf("%w: trade requires a source wallet", util.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown transaction type %q", util.ErrValidation, req.Type)
	}

	if req.ToWalletID != nil {
		wallet, err := s.wallets.FindOne(ctx, *req.ToWalletID)
		if err != nil {
			return err
		}
		if wallet.Currency != req.Currency {
			return util.ErrCurrencyMismatch
		}
	}
	if req.FromWalletID != nil {
		wallet, err := s.wallets.FindOne(ctx, *req.FromWalletID)
		if err != nil {
			return err
		}
		if wallet.UserID != userID {
			return fmt.Errorf("%w: source wallet does not belong to user", util.ErrValidation)
		}
		if wallet.Currency != req.Currency {
			return util.ErrCurrencyMismatch
		}
		if wallet.Balance.LessThan(req.Amount.Add(req.Fee)) {
			return util.ErrInsufficientBalance
		}
	}
	return nil
}

// Process is invoked by a queue worker. It is a no-op unless the transaction
// is PENDING, which turns duplicate job deliveries into no-ops. A lock
// conflict reverts the transaction to PENDING and returns
// util.ErrResourceLocked so the queue can retry; any other failure marks the
// transaction FAILED and is not re-thrown past the worker boundary.
func (s *engineService) Process(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	tx, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("process: %w", err)
	}
	if tx.Status != domain.TransactionStatusPending {
		return tx, nil
	}

	if err := s.transition(ctx, tx, domain.TransactionStatusProcessing); err != nil {
		return nil, err
	}

	locks, err := lock.AcquireAll(ctx, s.locks, tx.ID, tx.WalletIDs(), tx.TotalDebit())
	if err != nil {
		if util.IsError(err, util.ErrResourceLocked) {
			metrics.LockConflicts.Inc()
			// Give the transaction back to the queue's retry policy.
			if revertErr := s.transition(ctx, tx, domain.TransactionStatusPending); revertErr != nil {
				return nil, revertErr
			}
			return tx, err
		}
		// A lock backend failure must not strand the transaction in
		// PROCESSING, where every retry would be a no-op.
		tx.ErrorMessage = err.Error()
		if failErr := s.transition(ctx, tx, domain.TransactionStatusFailed); failErr != nil {
			return nil, failErr
		}
		metrics.TransactionsProcessed.WithLabelValues(string(tx.Type), string(tx.Status)).Inc()
		s.audit.LogFailure("transaction.process", tx.UserID, err.Error(), tx.ID)
		return tx, fmt.Errorf("process: acquire wallet locks: %w", err)
	}
	defer lock.ReleaseAll(ctx, s.locks, locks)

	if applyErr := s.apply(ctx, tx); applyErr != nil {
		tx.ErrorMessage = applyErr.Error()
		if err := s.transition(ctx, tx, domain.TransactionStatusFailed); err != nil {
			return nil, err
		}
		metrics.TransactionsProcessed.WithLabelValues(string(tx.Type), string(tx.Status)).Inc()
		s.audit.LogFailure("transaction.process", tx.UserID, applyErr.Error(), tx.ID)
		return tx, applyErr
	}

	now := time.Now().UTC()
	tx.CompletedAt = &now
	if err := s.transition(ctx, tx, domain.TransactionStatusCompleted); err != nil {
		return nil, err
	}
	metrics.TransactionsProcessed.WithLabelValues(string(tx.Type), string(tx.Status)).Inc()
	s.audit.LogSuccess("transaction.process", tx.UserID, string(tx.Type), tx.ID)

	if err := s.publisher.Publish(events.TopicTransactionCompleted, events.TransactionCompleted{
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		Type:          string(tx.Type),
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		OccurredAt:    now,
	}); err != nil {
		// Event delivery is best effort; completion already committed.
		s.logger.Error("Failed to publish completion event", "transaction_id", tx.ID, "error", err)
	}

	s.logger.Info("Completed transaction", "transaction_id", tx.ID, "type", tx.Type)
	return tx, nil
}

// apply dispatches to the per-type handler. The ledger posting runs before
// the wallet projection update: the ledger is the authoritative balance
// guard, re-evaluated here even though Create already pre-checked, because
// concurrent transactions can change balances in between.
func (s *engineService) apply(ctx context.Context, tx *domain.Transaction) error {
	switch tx.Type {
	case domain.TransactionTypeDeposit:
		return s.applyDeposit(ctx, tx)
	case domain.TransactionTypeWithdrawal:
		return s.applyWithdrawal(ctx, tx)
	case domain.TransactionTypeTransfer:
		return s.applyTransfer(ctx, tx)
	case domain.TransactionTypeTrade:
		// Broker-mediated exchange is out of scope; the intent is recorded
		// and the transaction completes without balance movement.
		s.logger.Info("Recorded trade intent", "transaction_id", tx.ID, "asset_type", tx.AssetType)
		return nil
	default:
		return fmt.Errorf("%w: unknown transaction type %q", util.ErrValidation, tx.Type)
	}
}

func (s *engineService) applyDeposit(ctx context.Context, tx *domain.Transaction) error {
	wallet, err := s.wallets.FindOne(ctx, *tx.ToWalletID)
	if err != nil {
		return err
	}
	walletAcct, clearingAcct, feeAcct, err := s.resolveAccounts(ctx, wallet, tx)
	if err != nil {
		return err
	}

	desc := describe(tx, "deposit")
	if err := s.post(ctx, tx, principalKey(tx), desc, []domain.EntryInput{
		{AccountID: clearingAcct.ID, Type: domain.EntryTypeDebit, Amount: tx.Amount, Currency: tx.Currency, Description: desc, Metadata: tx.Metadata},
		{AccountID: walletAcct.ID, Type: domain.EntryTypeCredit, Amount: tx.Amount, Currency: tx.Currency, Description: desc, Metadata: tx.Metadata},
	}); err != nil {
		return err
	}
	if _, err := s.wallets.UpdateBalance(ctx, wallet.ID, tx.Amount); err != nil {
		return fmt.Errorf("deposit: update wallet projection: %w", err)
	}

	if tx.Fee.IsPositive() {
		feeDesc := describe(tx, "deposit fee")
		if err := s.post(ctx, tx, feeKey(tx), feeDesc, []domain.EntryInput{
			{AccountID: walletAcct.ID, Type: domain.EntryTypeDebit, Amount: tx.Fee, Currency: tx.Currency, Description: feeDesc},
			{AccountID: feeAcct.ID, Type: domain.EntryTypeCredit, Amount: tx.Fee, Currency: tx.Currency, Description: feeDesc},
		}); err != nil {
			return err
		}
		if _, err := s.wallets.UpdateBalance(ctx, wallet.ID, tx.Fee.Neg()); err != nil {
			return fmt.Errorf("deposit fee: update wallet projection: %w", err)
		}
	}
	return nil
}

func (s *engineService) applyWithdrawal(ctx context.Context, tx *domain.Transaction) error {
	wallet, err := s.wallets.FindOne(ctx, *tx.FromWalletID)
	if err != nil {
		return err
	}
	walletAcct, clearingAcct, feeAcct, err := s.resolveAccounts(ctx, wallet, tx)
	if err != nil {
		return err
	}

	desc := describe(tx, "withdrawal")
	if err := s.post(ctx, tx, principalKey(tx), desc, []domain.EntryInput{
		{AccountID: walletAcct.ID, Type: domain.EntryTypeDebit, Amount: tx.Amount, Currency: tx.Currency, Description: desc, Metadata: tx.Metadata},
		{AccountID: clearingAcct.ID, Type: domain.EntryTypeCredit, Amount: tx.Amount, Currency: tx.Currency, Description: desc, Metadata: tx.Metadata},
	}); err != nil {
		return err
	}

	if tx.Fee.IsPositive() {
		feeDesc := describe(tx, "withdrawal fee")
		if err := s.post(ctx, tx, feeKey(tx), feeDesc, []domain.EntryInput{
			{AccountID: walletAcct.ID, Type: domain.EntryTypeDebit, Amount: tx.Fee, Currency: tx.Currency, Description: feeDesc},
			{AccountID: feeAcct.ID, Type: domain.EntryTypeCredit, Amount: tx.Fee, Currency: tx.Currency, Description: feeDesc},
		}); err != nil {
			return err
		}
	}

	if _, err := s.wallets.UpdateBalance(ctx, wallet.ID, tx.TotalDebit().Neg()); err != nil {
		return fmt.Errorf("withdrawal: update wallet projection: %w", err)
	}
	return nil
}

func (s *engineService) applyTransfer(ctx context.Context, tx *domain.Transaction) error {
	fromWallet, err := s.wallets.FindOne(ctx, *tx.FromWalletID)
	if err != nil {
		return err
	}
	toWallet, err := s.wallets.FindOne(ctx, *tx.ToWalletID)
	if err != nil {
		return err
	}
	fromAcct, _, feeAcct, err := s.resolveAccounts(ctx, fromWallet, tx)
	if err != nil {
		return err
	}
	toAcct, err := s.ledger.EnsureAccount(ctx, toWallet.LedgerAccountName(), domain.AccountTypeLiability, toWallet.Currency)
	if err != nil {
		return err
	}

	desc := describe(tx, "transfer")
	if err := s.post(ctx, tx, principalKey(tx), desc, []domain.EntryInput{
		{AccountID: fromAcct.ID, Type: domain.EntryTypeDebit, Amount: tx.Amount, Currency: tx.Currency, Description: desc, Metadata: tx.Metadata},
		{AccountID: toAcct.ID, Type: domain.EntryTypeCredit, Amount: tx.Amount, Currency: tx.Currency, Description: desc, Metadata: tx.Metadata},
	}); err != nil {
		return err
	}

	if tx.Fee.IsPositive() {
		feeDesc := describe(tx, "transfer fee")
		if err := s.post(ctx, tx, feeKey(tx), feeDesc, []domain.EntryInput{
			{AccountID: fromAcct.ID, Type: domain.EntryTypeDebit, Amount: tx.Fee, Currency: tx.Currency, Description: feeDesc},
			{AccountID: feeAcct.ID, Type: domain.EntryTypeCredit, Amount: tx.Fee, Currency: tx.Currency, Description: feeDesc},
		}); err != nil {
			return err
		}
	}

	if _, err := s.wallets.UpdateBalance(ctx, fromWallet.ID, tx.TotalDebit().Neg()); err != nil {
		return fmt.Errorf("transfer: update source wallet projection: %w", err)
	}
	if _, err := s.wallets.UpdateBalance(ctx, toWallet.ID, tx.Amount); err != nil {
		return fmt.Errorf("transfer: update destination wallet projection: %w", err)
	}
	return nil
}

// post runs one ledger posting and records the resulting accounting
// transaction ID on the domain transaction for later reversal.
func (s *engineService) post(ctx context.Context, tx *domain.Transaction, key, description string, entries []domain.EntryInput) error {
	ledgerTx, err := s.ledger.PostTransaction(ctx, key, tx.ID, description, entries)
	if err != nil {
		return err
	}
	for _, existing := range tx.LedgerTransactionIDs {
		if existing == ledgerTx.ID {
			return nil
		}
	}
	tx.LedgerTransactionIDs = append(tx.LedgerTransactionIDs, ledgerTx.ID)
	return nil
}

func (s *engineService) resolveAccounts(ctx context.Context, wallet *domain.Wallet, tx *domain.Transaction) (walletAcct, clearingAcct, feeAcct *domain.LedgerAccount, err error) {
	walletAcct, err = s.ledger.EnsureAccount(ctx, wallet.LedgerAccountName(), domain.AccountTypeLiability, wallet.Currency)
	if err != nil {
		return nil, nil, nil, err
	}
	clearingAcct, err = s.ledger.EnsureAccount(ctx, BankClearingAccount, domain.AccountTypeAsset, tx.Currency)
	if err != nil {
		return nil, nil, nil, err
	}
	feeAcct, err = s.ledger.EnsureAccount(ctx, FeeRevenueAccount, domain.AccountTypeRevenue, tx.Currency)
	if err != nil {
		return nil, nil, nil, err
	}
	return walletAcct, clearingAcct, feeAcct, nil
}

// Cancel is permitted only from PENDING status and only by the owning user.
func (s *engineService) Cancel(ctx context.Context, transactionID, userID string) (*domain.Transaction, error) {
	tx, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("cancel: %w", err)
	}
	if tx.UserID != userID {
		return nil, fmt.Errorf("%w: transaction does not belong to user", util.ErrValidation)
	}
	if tx.Status != domain.TransactionStatusPending {
		return nil, fmt.Errorf("%w: cannot cancel a %s transaction", util.ErrInvalidStateTransition, tx.Status)
	}

	now := time.Now().UTC()
	tx.CancelledAt = &now
	if err := s.transition(ctx, tx, domain.TransactionStatusCancelled); err != nil {
		return nil, err
	}

	// Defensive: a PENDING transaction should hold no locks, but any
	// residual ones owned by it are cleared.
	for _, walletID := range tx.WalletIDs() {
		_ = s.locks.ReleaseIfOwner(ctx, walletID, tx.ID)
	}

	s.audit.LogSuccess("transaction.cancel", userID, string(tx.Type), tx.ID)
	return tx, nil
}

// Reverse undoes a COMPLETED transaction: every ledger transaction it
// produced is reversed (fee first, then principal) and the wallet balance
// projections are restored. Only reachable from COMPLETED.
func (s *engineService) Reverse(ctx context.Context, transactionID, reason string) (*domain.Transaction, error) {
	tx, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("reverse: %w", err)
	}
	if tx.Status == domain.TransactionStatusReversed {
		return nil, util.ErrAlreadyReversed
	}
	if tx.Status != domain.TransactionStatusCompleted {
		return nil, fmt.Errorf("%w: cannot reverse a %s transaction", util.ErrInvalidStateTransition, tx.Status)
	}

	locks, err := lock.AcquireAll(ctx, s.locks, tx.ID, tx.WalletIDs(), tx.TotalDebit())
	if err != nil {
		return nil, err
	}
	defer lock.ReleaseAll(ctx, s.locks, locks)

	for i := len(tx.LedgerTransactionIDs) - 1; i >= 0; i-- {
		if _, err := s.ledger.Reverse(ctx, tx.LedgerTransactionIDs[i], reason); err != nil {
			if util.IsError(err, util.ErrAlreadyReversed) {
				// A previous attempt got this far; converge on the rest.
				continue
			}
			return nil, fmt.Errorf("reverse: ledger transaction %s: %w", tx.LedgerTransactionIDs[i], err)
		}
	}

	if err := s.restoreWalletBalances(ctx, tx); err != nil {
		return nil, err
	}

	if err := s.transition(ctx, tx, domain.TransactionStatusReversed); err != nil {
		return nil, err
	}
	s.audit.LogSuccess("transaction.reverse", tx.UserID, reason, tx.ID)
	s.logger.Info("Reversed transaction", "transaction_id", tx.ID, "reason", reason)
	return tx, nil
}

// restoreWalletBalances applies the inverse of the per-type wallet deltas.
func (s *engineService) restoreWalletBalances(ctx context.Context, tx *domain.Transaction) error {
	switch tx.Type {
	case domain.TransactionTypeDeposit:
		// The wallet netted amount - fee.
		if _, err := s.wallets.UpdateBalance(ctx, *tx.ToWalletID, tx.Fee.Sub(tx.Amount)); err != nil {
			return fmt.Errorf("reverse deposit: %w", err)
		}
	case domain.TransactionTypeWithdrawal:
		if _, err := s.wallets.UpdateBalance(ctx, *tx.FromWalletID, tx.TotalDebit()); err != nil {
			return fmt.Errorf("reverse withdrawal: %w", err)
		}
	case domain.TransactionTypeTransfer:
		if _, err := s.wallets.UpdateBalance(ctx, *tx.ToWalletID, tx.Amount.Neg()); err != nil {
			return fmt.Errorf("reverse transfer destination: %w", err)
		}
		if _, err := s.wallets.UpdateBalance(ctx, *tx.FromWalletID, tx.TotalDebit()); err != nil {
			return fmt.Errorf("reverse transfer source: %w", err)
		}
	}
	return nil
}

// GetStatus returns the lightweight status projection for polling.
func (s *engineService) GetStatus(ctx context.Context, transactionID string) (*TransactionStatusInfo, error) {
	tx, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}
	return &TransactionStatusInfo{ID: tx.ID, Status: tx.Status, UpdatedAt: tx.UpdatedAt}, nil
}

// FindOne retrieves a transaction by ID.
func (s *engineService) FindOne(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	return s.transactions.GetByID(ctx, transactionID)
}

// FindByIdempotencyKey retrieves a transaction by its idempotency key, or
// nil when the key has never been seen.
func (s *engineService) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	tx, err := s.transactions.GetByIdempotencyKey(ctx, key)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return tx, nil
}

// FindByWallet retrieves all transactions touching a wallet, newest first.
func (s *engineService) FindByWallet(ctx context.Context, walletID string) ([]domain.Transaction, error) {
	return s.transactions.ListByWallet(ctx, walletID)
}

// transition moves the transaction through the state machine and persists it.
func (s *engineService) transition(ctx context.Context, tx *domain.Transaction, next domain.TransactionStatus) error {
	if !tx.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", util.ErrInvalidStateTransition, tx.Status, next)
	}
	tx.Status = next
	tx.UpdatedAt = time.Now().UTC()
	if err := s.transactions.Update(ctx, tx); err != nil {
		return fmt.Errorf("transition to %s: %w", next, err)
	}
	return nil
}

func principalKey(tx *domain.Transaction) string {
	return tx.IdempotencyKey + ":principal"
}

func feeKey(tx *domain.Transaction) string {
	return tx.IdempotencyKey + ":fee"
}

func describe(tx *domain.Transaction, fallback string) string {
	if tx.Description != nil && *tx.Description != "" {
		return *tx.Description
	}
	return fallback
}
