// internal/service/engine_service_test.go
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"fintx-engine/internal/domain"
	"fintx-engine/internal/events"
	"fintx-engine/internal/lock"
	"fintx-engine/internal/queue"
	"fintx-engine/internal/repository/memory"
	"fintx-engine/internal/util"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engineFixture struct {
	engine  EngineService
	wallets WalletService
	ledger  LedgerService
	locks   lock.Manager
	jobs    *queue.MemoryQueue
}

func newEngineFixture(t *testing.T) *engineFixture {
	return newEngineFixtureWithLocks(t, lock.NewMemoryManager(lock.DefaultTTL))
}

func newEngineFixtureWithLocks(t *testing.T, locks lock.Manager) *engineFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	wallets := NewWalletService(memory.NewWalletRepository())
	ledger := NewLedgerService(memory.NewLedgerRepository(), logger)
	jobs := queue.NewMemoryQueue(64, 3)
	audit := NewSlogAuditor(logger)
	t.Cleanup(audit.Close)

	engine := NewEngineService(
		memory.NewTransactionRepository(),
		memory.NewIdempotencyIndex(),
		wallets,
		ledger,
		locks,
		jobs,
		events.NopPublisher{},
		audit,
		logger,
	)
	return &engineFixture{engine: engine, wallets: wallets, ledger: ledger, locks: locks, jobs: jobs}
}

func (f *engineFixture) newWallet(t *testing.T, userID string) *domain.Wallet {
	t.Helper()
	wallet, err := f.wallets.CreateWallet(context.Background(), userID, "USD")
	require.NoError(t, err)
	return wallet
}

// seed runs a full deposit through the engine so the wallet holds funds and
// its ledger account exists.
func (f *engineFixture) seed(t *testing.T, wallet *domain.Wallet, amount decimal.Decimal, key string) {
	t.Helper()
	ctx := context.Background()
	tx, err := f.engine.Create(ctx, CreateTransactionRequest{
		IdempotencyKey: key,
		Type:           domain.TransactionTypeDeposit,
		Amount:         amount,
		Currency:       wallet.Currency,
		ToWalletID:     &wallet.ID,
	}, wallet.UserID)
	require.NoError(t, err)
	tx, err = f.engine.Process(ctx, tx.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TransactionStatusCompleted, tx.Status)
}

func (f *engineFixture) walletBalance(t *testing.T, walletID string) decimal.Decimal {
	t.Helper()
	wallet, err := f.wallets.FindOne(context.Background(), walletID)
	require.NoError(t, err)
	return wallet.Balance
}

func (f *engineFixture) accountBalance(t *testing.T, name, currency string, accountType domain.AccountType) decimal.Decimal {
	t.Helper()
	account, err := f.ledger.EnsureAccount(context.Background(), name, accountType, currency)
	require.NoError(t, err)
	return account.Balance
}

func strPtr(s string) *string { return &s }

func TestCreateTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("DepositIsAcceptedPendingAndEnqueued", func(t *testing.T) {
		f := newEngineFixture(t)
		wallet := f.newWallet(t, "user-1")

		tx, err := f.engine.Create(ctx, CreateTransactionRequest{
			IdempotencyKey: "dep-1",
			Type:           domain.TransactionTypeDeposit,
			Amount:         decimal.NewFromInt(100),
			Currency:       "USD",
			ToWalletID:     &wallet.ID,
		}, "user-1")
		require.NoError(t, err)
		assert.Equal(t, domain.TransactionStatusPending, tx.Status)
		assert.Equal(t, 1, f.jobs.Len())
	})

	t.Run("DuplicateKeyReturnsSameTransactionWithoutSecondJob", func(t *testing.T) {
		f := newEngineFixture(t)
		wallet := f.newWallet(t, "user-1")

		req := CreateTransactionRequest{
			IdempotencyKey: "dep-1",
			Type:           domain.TransactionTypeDeposit,
			Amount:         decimal.NewFromInt(100),
			Currency:       "USD",
			ToWalletID:     &wallet.ID,
		}
		first, err := f.engine.Create(ctx, req, "user-1")
		require.NoError(t, err)
		second, err := f.engine.Create(ctx, req, "user-1")
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 1, f.jobs.Len())
	})

	t.Run("WithdrawalBeyondBalanceRejectedBeforeEnqueue", func(t *testing.T) {
		f := newEngineFixture(t)
		wallet := f.newWallet(t, "user-1")
		f.seed(t, wallet, decimal.NewFromInt(100), "seed-1")
		queued := f.jobs.Len()

		_, err := f.engine.Create(ctx, CreateTransactionRequest{
			IdempotencyKey: "wd-1",
			Type:           domain.TransactionTypeWithdrawal,
			Amount:         decimal.NewFromInt(500),
			Currency:       "USD",
			FromWalletID:   &wallet.ID,
		}, "user-1")
		assert.ErrorIs(t, err, util.ErrInsufficientBalance)
		assert.Equal(t, queued, f.jobs.Len())
	})

	t.Run("SameWalletTransferRejected", func(t *testing.T) {
		f := newEngineFixture(t)
		wallet := f.newWallet(t, "user-1")

		_, err := f.engine.Create(ctx, CreateTransactionRequest{
			IdempotencyKey: "tr-1",
			Type:           domain.TransactionTypeTransfer,
			Amount:         decimal.NewFromInt(10),
			Currency:       "USD",
			FromWalletID:   &wallet.ID,
			ToWalletID:     &wallet.ID,
		}, "user-1")
		assert.ErrorIs(t, err, util.ErrSameWalletTransfer)
	})

	t.Run("ForeignSourceWalletRejected", func(t *testing.T) {
		f := newEngineFixture(t)
		wallet := f.newWallet(t, "user-1")
		f.seed(t, wallet, decimal.NewFromInt(100), "seed-1")

		_, err := f.engine.Create(ctx, CreateTransactionRequest{
			IdempotencyKey: "wd-1",
			Type:           domain.TransactionTypeWithdrawal,
			Amount:         decimal.NewFromInt(10),
			Currency:       "USD",
			FromWalletID:   &wallet.ID,
		}, "user-2")
		assert.ErrorIs(t, err, util.ErrValidation)
	})

	t.Run("CurrencyMismatchRejected", func(t *testing.T) {
		f := newEngineFixture(t)
		wallet := f.newWallet(t, "user-1")

		_, err := f.engine.Create(ctx, CreateTransactionRequest{
			IdempotencyKey: "dep-1",
			Type:           domain.TransactionTypeDeposit,
			Amount:         decimal.NewFromInt(100),
			Currency:       "EUR",
			ToWalletID:     &wallet.ID,
		}, "user-1")
		assert.ErrorIs(t, err, util.ErrCurrencyMismatch)
	})

	t.Run("DepositFeeAboveAmountRejected", func(t *testing.T) {
		f := newEngineFixture(t)
		wallet := f.newWallet(t, "user-1")

		// The fee comes out of the deposited funds; a larger fee would
		// overdraw the wallet mid-processing.
		_, err := f.engine.Create(ctx, CreateTransactionRequest{
			IdempotencyKey: "dep-1",
			Type:           domain.TransactionTypeDeposit,
			Amount:         decimal.NewFromInt(10),
			Currency:       "USD",
			Fee:            decimal.NewFromInt(25),
			ToWalletID:     &wallet.ID,
		}, "user-1")
		assert.ErrorIs(t, err, util.ErrValidation)
		assert.Equal(t, 0, f.jobs.Len())
	})

	t.Run("MissingFieldsRejected", func(t *testing.T) {
		f := newEngineFixture(t)

		cases := []CreateTransactionRequest{
			{Type: domain.TransactionTypeDeposit, Amount: decimal.NewFromInt(1), Currency: "USD"},                               // no key
			{IdempotencyKey: "k1", Type: domain.TransactionTypeDeposit, Amount: decimal.NewFromInt(-1), Currency: "USD"},        // negative amount
			{IdempotencyKey: "k2", Type: domain.TransactionTypeDeposit, Amount: decimal.NewFromInt(1), Currency: "USD"},         // no destination
			{IdempotencyKey: "k3", Type: domain.TransactionTypeWithdrawal, Amount: decimal.NewFromInt(1), Currency: "USD"},      // no source
			{IdempotencyKey: "k4", Type: domain.TransactionType("WIRE"), Amount: decimal.NewFromInt(1), Currency: "USD"},        // unknown type
			{IdempotencyKey: "k5", Type: domain.TransactionTypeDeposit, Amount: decimal.NewFromInt(1), ToWalletID: strPtr("w")}, // no currency
		}
		for _, req := range cases {
			_, err := f.engine.Create(ctx, req, "user-1")
			assert.ErrorIs(t, err, util.ErrValidation)
		}
	})
}

func TestProcessDeposit(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	wallet := f.newWallet(t, "user-1")

	tx, err := f.engine.Create(ctx, CreateTransactionRequest{
		IdempotencyKey: "dep-1",
		Type:           domain.TransactionTypeDeposit,
		Amount:         decimal.NewFromInt(100),
		Currency:       "USD",
		ToWalletID:     &wallet.ID,
	}, "user-1")
	require.NoError(t, err)

	tx, err = f.engine.Process(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusCompleted, tx.Status)
	require.NotNil(t, tx.CompletedAt)
	require.Len(t, tx.LedgerTransactionIDs, 1)

	assert.True(t, f.walletBalance(t, wallet.ID).Equal(decimal.NewFromInt(100)))
	assert.True(t, f.accountBalance(t, BankClearingAccount, "USD", domain.AccountTypeAsset).Equal(decimal.NewFromInt(100)))
	assert.True(t, f.accountBalance(t, wallet.LedgerAccountName(), "USD", domain.AccountTypeLiability).Equal(decimal.NewFromInt(100)))

	t.Run("RedeliveryIsANoOp", func(t *testing.T) {
		again, err := f.engine.Process(ctx, tx.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TransactionStatusCompleted, again.Status)
		assert.True(t, f.walletBalance(t, wallet.ID).Equal(decimal.NewFromInt(100)))
	})
}

func TestProcessWithdrawalWithFee(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	wallet := f.newWallet(t, "user-1")
	f.seed(t, wallet, decimal.NewFromFloat(502.50), "seed-1")

	tx, err := f.engine.Create(ctx, CreateTransactionRequest{
		IdempotencyKey: "wd-1",
		Type:           domain.TransactionTypeWithdrawal,
		Amount:         decimal.NewFromInt(500),
		Currency:       "USD",
		Fee:            decimal.NewFromFloat(2.50),
		FromWalletID:   &wallet.ID,
	}, "user-1")
	require.NoError(t, err)

	tx, err = f.engine.Process(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusCompleted, tx.Status)
	// Principal and fee post as two separate groups.
	assert.Len(t, tx.LedgerTransactionIDs, 2)

	assert.True(t, f.walletBalance(t, wallet.ID).IsZero())
	assert.True(t, f.accountBalance(t, FeeRevenueAccount, "USD", domain.AccountTypeRevenue).Equal(decimal.NewFromFloat(2.50)))
	// Clearing received 502.50 on deposit and paid out 500.
	assert.True(t, f.accountBalance(t, BankClearingAccount, "USD", domain.AccountTypeAsset).Equal(decimal.NewFromFloat(2.50)))
	assert.True(t, f.accountBalance(t, wallet.LedgerAccountName(), "USD", domain.AccountTypeLiability).IsZero())
}

func TestProcessTransfer(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	from := f.newWallet(t, "user-1")
	to := f.newWallet(t, "user-2")
	f.seed(t, from, decimal.NewFromInt(100), "seed-1")

	tx, err := f.engine.Create(ctx, CreateTransactionRequest{
		IdempotencyKey: "tr-1",
		Type:           domain.TransactionTypeTransfer,
		Amount:         decimal.NewFromInt(40),
		Currency:       "USD",
		Fee:            decimal.NewFromInt(1),
		FromWalletID:   &from.ID,
		ToWalletID:     &to.ID,
	}, "user-1")
	require.NoError(t, err)

	tx, err = f.engine.Process(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusCompleted, tx.Status)

	assert.True(t, f.walletBalance(t, from.ID).Equal(decimal.NewFromInt(59)))
	assert.True(t, f.walletBalance(t, to.ID).Equal(decimal.NewFromInt(40)))
	assert.True(t, f.accountBalance(t, from.LedgerAccountName(), "USD", domain.AccountTypeLiability).Equal(decimal.NewFromInt(59)))
	assert.True(t, f.accountBalance(t, to.LedgerAccountName(), "USD", domain.AccountTypeLiability).Equal(decimal.NewFromInt(40)))
	assert.True(t, f.accountBalance(t, FeeRevenueAccount, "USD", domain.AccountTypeRevenue).Equal(decimal.NewFromInt(1)))
	// The clearing account is untouched by an internal transfer.
	assert.True(t, f.accountBalance(t, BankClearingAccount, "USD", domain.AccountTypeAsset).Equal(decimal.NewFromInt(100)))
}

func TestProcessTradeRecordsIntentOnly(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	wallet := f.newWallet(t, "user-1")
	f.seed(t, wallet, decimal.NewFromInt(50), "seed-1")

	tx, err := f.engine.Create(ctx, CreateTransactionRequest{
		IdempotencyKey: "trade-1",
		Type:           domain.TransactionTypeTrade,
		AssetType:      "BTC",
		Amount:         decimal.NewFromInt(10),
		Currency:       "USD",
		FromWalletID:   &wallet.ID,
	}, "user-1")
	require.NoError(t, err)

	tx, err = f.engine.Process(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusCompleted, tx.Status)
	assert.Empty(t, tx.LedgerTransactionIDs)
	assert.True(t, f.walletBalance(t, wallet.ID).Equal(decimal.NewFromInt(50)))
}

func TestProcessLockConflict(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	wallet := f.newWallet(t, "user-1")
	f.seed(t, wallet, decimal.NewFromInt(100), "seed-1")

	tx, err := f.engine.Create(ctx, CreateTransactionRequest{
		IdempotencyKey: "wd-1",
		Type:           domain.TransactionTypeWithdrawal,
		Amount:         decimal.NewFromInt(10),
		Currency:       "USD",
		FromWalletID:   &wallet.ID,
	}, "user-1")
	require.NoError(t, err)

	// Another in-flight transaction holds the wallet.
	_, err = f.locks.Acquire(ctx, "other-tx", wallet.ID, decimal.NewFromInt(5))
	require.NoError(t, err)

	tx, err = f.engine.Process(ctx, tx.ID)
	assert.ErrorIs(t, err, util.ErrResourceLocked)
	// Reverted so a queue retry can pick it up again.
	assert.Equal(t, domain.TransactionStatusPending, tx.Status)
	assert.True(t, f.walletBalance(t, wallet.ID).Equal(decimal.NewFromInt(100)))

	require.NoError(t, f.locks.Release(ctx, wallet.ID))

	tx, err = f.engine.Process(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusCompleted, tx.Status)
	assert.True(t, f.walletBalance(t, wallet.ID).Equal(decimal.NewFromInt(90)))
}

// failingLockManager simulates an unreachable lock backend.
type failingLockManager struct{}

func (failingLockManager) Acquire(ctx context.Context, transactionID, walletID string, amount decimal.Decimal) (*domain.WalletLock, error) {
	return nil, errors.New("lock backend unavailable")
}

func (failingLockManager) Release(ctx context.Context, walletID string) error { return nil }

func (failingLockManager) ReleaseIfOwner(ctx context.Context, walletID, transactionID string) error {
	return nil
}

func TestProcessLockBackendFailure(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixtureWithLocks(t, failingLockManager{})
	wallet := f.newWallet(t, "user-1")

	tx, err := f.engine.Create(ctx, CreateTransactionRequest{
		IdempotencyKey: "dep-1",
		Type:           domain.TransactionTypeDeposit,
		Amount:         decimal.NewFromInt(100),
		Currency:       "USD",
		ToWalletID:     &wallet.ID,
	}, "user-1")
	require.NoError(t, err)

	// A non-conflict acquisition error must not strand the transaction in
	// PROCESSING, where every redelivery would be a silent no-op.
	tx, err = f.engine.Process(ctx, tx.ID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, util.ErrResourceLocked)
	assert.Equal(t, domain.TransactionStatusFailed, tx.Status)
	assert.NotEmpty(t, tx.ErrorMessage)
	assert.True(t, f.walletBalance(t, wallet.ID).IsZero())

	again, err := f.engine.Process(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusFailed, again.Status)
}

func TestCancelTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("PendingTransactionCancels", func(t *testing.T) {
		f := newEngineFixture(t)
		wallet := f.newWallet(t, "user-1")

		tx, err := f.engine.Create(ctx, CreateTransactionRequest{
			IdempotencyKey: "dep-1",
			Type:           domain.TransactionTypeDeposit,
			Amount:         decimal.NewFromInt(100),
			Currency:       "USD",
			ToWalletID:     &wallet.ID,
		}, "user-1")
		require.NoError(t, err)

		tx, err = f.engine.Cancel(ctx, tx.ID, "user-1")
		require.NoError(t, err)
		assert.Equal(t, domain.TransactionStatusCancelled, tx.Status)
		assert.NotNil(t, tx.CancelledAt)

		// The still-queued job must now be a no-op.
		tx, err = f.engine.Process(ctx, tx.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TransactionStatusCancelled, tx.Status)
		assert.True(t, f.walletBalance(t, wallet.ID).IsZero())
	})

	t.Run("OnlyTheOwnerMayCancel", func(t *testing.T) {
		f := newEngineFixture(t)
		wallet := f.newWallet(t, "user-1")

		tx, err := f.engine.Create(ctx, CreateTransactionRequest{
			IdempotencyKey: "dep-1",
			Type:           domain.TransactionTypeDeposit,
			Amount:         decimal.NewFromInt(100),
			Currency:       "USD",
			ToWalletID:     &wallet.ID,
		}, "user-1")
		require.NoError(t, err)

		_, err = f.engine.Cancel(ctx, tx.ID, "user-2")
		assert.ErrorIs(t, err, util.ErrValidation)
	})

	t.Run("CompletedTransactionCannotBeCancelled", func(t *testing.T) {
		f := newEngineFixture(t)
		wallet := f.newWallet(t, "user-1")
		f.seed(t, wallet, decimal.NewFromInt(100), "dep-1")

		tx, err := f.engine.FindByIdempotencyKey(ctx, "dep-1")
		require.NoError(t, err)
		require.NotNil(t, tx)

		_, err = f.engine.Cancel(ctx, tx.ID, "user-1")
		assert.ErrorIs(t, err, util.ErrInvalidStateTransition)
	})
}

func TestReverseTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("ReversedDepositRestoresEveryBalance", func(t *testing.T) {
		f := newEngineFixture(t)
		wallet := f.newWallet(t, "user-1")
		f.seed(t, wallet, decimal.NewFromInt(100), "dep-1")

		tx, err := f.engine.FindByIdempotencyKey(ctx, "dep-1")
		require.NoError(t, err)

		tx, err = f.engine.Reverse(ctx, tx.ID, "chargeback")
		require.NoError(t, err)
		assert.Equal(t, domain.TransactionStatusReversed, tx.Status)

		assert.True(t, f.walletBalance(t, wallet.ID).IsZero())
		assert.True(t, f.accountBalance(t, BankClearingAccount, "USD", domain.AccountTypeAsset).IsZero())
		assert.True(t, f.accountBalance(t, wallet.LedgerAccountName(), "USD", domain.AccountTypeLiability).IsZero())

		_, err = f.engine.Reverse(ctx, tx.ID, "again")
		assert.ErrorIs(t, err, util.ErrAlreadyReversed)
	})

	t.Run("ReversedTransferRestoresBothWallets", func(t *testing.T) {
		f := newEngineFixture(t)
		from := f.newWallet(t, "user-1")
		to := f.newWallet(t, "user-2")
		f.seed(t, from, decimal.NewFromInt(100), "seed-1")

		tx, err := f.engine.Create(ctx, CreateTransactionRequest{
			IdempotencyKey: "tr-1",
			Type:           domain.TransactionTypeTransfer,
			Amount:         decimal.NewFromInt(40),
			Currency:       "USD",
			Fee:            decimal.NewFromInt(1),
			FromWalletID:   &from.ID,
			ToWalletID:     &to.ID,
		}, "user-1")
		require.NoError(t, err)
		_, err = f.engine.Process(ctx, tx.ID)
		require.NoError(t, err)

		_, err = f.engine.Reverse(ctx, tx.ID, "sent to wrong account")
		require.NoError(t, err)

		assert.True(t, f.walletBalance(t, from.ID).Equal(decimal.NewFromInt(100)))
		assert.True(t, f.walletBalance(t, to.ID).IsZero())
		assert.True(t, f.accountBalance(t, FeeRevenueAccount, "USD", domain.AccountTypeRevenue).IsZero())
	})

	t.Run("RetryConvergesAfterPartialReversal", func(t *testing.T) {
		f := newEngineFixture(t)
		wallet := f.newWallet(t, "user-1")

		tx, err := f.engine.Create(ctx, CreateTransactionRequest{
			IdempotencyKey: "dep-1",
			Type:           domain.TransactionTypeDeposit,
			Amount:         decimal.NewFromInt(100),
			Currency:       "USD",
			Fee:            decimal.NewFromInt(10),
			ToWalletID:     &wallet.ID,
		}, "user-1")
		require.NoError(t, err)
		tx, err = f.engine.Process(ctx, tx.ID)
		require.NoError(t, err)
		require.Len(t, tx.LedgerTransactionIDs, 2)

		// A previous reversal attempt died after undoing the fee posting.
		_, err = f.ledger.Reverse(ctx, tx.LedgerTransactionIDs[1], "chargeback")
		require.NoError(t, err)

		tx, err = f.engine.Reverse(ctx, tx.ID, "chargeback")
		require.NoError(t, err)
		assert.Equal(t, domain.TransactionStatusReversed, tx.Status)

		assert.True(t, f.walletBalance(t, wallet.ID).IsZero())
		assert.True(t, f.accountBalance(t, BankClearingAccount, "USD", domain.AccountTypeAsset).IsZero())
		assert.True(t, f.accountBalance(t, FeeRevenueAccount, "USD", domain.AccountTypeRevenue).IsZero())
		assert.True(t, f.accountBalance(t, wallet.LedgerAccountName(), "USD", domain.AccountTypeLiability).IsZero())
	})

	t.Run("OnlyCompletedTransactionsReverse", func(t *testing.T) {
		f := newEngineFixture(t)
		wallet := f.newWallet(t, "user-1")

		tx, err := f.engine.Create(ctx, CreateTransactionRequest{
			IdempotencyKey: "dep-1",
			Type:           domain.TransactionTypeDeposit,
			Amount:         decimal.NewFromInt(100),
			Currency:       "USD",
			ToWalletID:     &wallet.ID,
		}, "user-1")
		require.NoError(t, err)

		_, err = f.engine.Reverse(ctx, tx.ID, "too early")
		assert.ErrorIs(t, err, util.ErrInvalidStateTransition)
	})
}

func TestStatusAndLookups(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	wallet := f.newWallet(t, "user-1")
	f.seed(t, wallet, decimal.NewFromInt(100), "dep-1")

	tx, err := f.engine.FindByIdempotencyKey(ctx, "dep-1")
	require.NoError(t, err)
	require.NotNil(t, tx)

	t.Run("GetStatusProjectsTheCurrentState", func(t *testing.T) {
		status, err := f.engine.GetStatus(ctx, tx.ID)
		require.NoError(t, err)
		assert.Equal(t, tx.ID, status.ID)
		assert.Equal(t, domain.TransactionStatusCompleted, status.Status)
	})

	t.Run("UnknownKeyYieldsNil", func(t *testing.T) {
		missing, err := f.engine.FindByIdempotencyKey(ctx, "never-seen")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("FindByWalletListsItsTransactions", func(t *testing.T) {
		list, err := f.engine.FindByWallet(ctx, wallet.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, tx.ID, list[0].ID)
	})

	t.Run("UnknownTransactionYieldsNotFound", func(t *testing.T) {
		_, err := f.engine.FindOne(ctx, "no-such-id")
		assert.ErrorIs(t, err, util.ErrNotFound)
	})
}
