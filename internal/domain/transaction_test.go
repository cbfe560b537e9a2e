// internal/domain/transaction_test.go
package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to TransactionStatus
		allowed  bool
	}{
		{TransactionStatusPending, TransactionStatusProcessing, true},
		{TransactionStatusPending, TransactionStatusCancelled, true},
		{TransactionStatusPending, TransactionStatusCompleted, false},
		{TransactionStatusProcessing, TransactionStatusCompleted, true},
		{TransactionStatusProcessing, TransactionStatusFailed, true},
		// Lock-conflict retry edge.
		{TransactionStatusProcessing, TransactionStatusPending, true},
		{TransactionStatusCompleted, TransactionStatusReversed, true},
		{TransactionStatusCompleted, TransactionStatusPending, false},
		// Terminal states have no outgoing edges.
		{TransactionStatusFailed, TransactionStatusPending, false},
		{TransactionStatusCancelled, TransactionStatusProcessing, false},
		{TransactionStatusReversed, TransactionStatusCompleted, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.allowed, c.from.CanTransitionTo(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestWalletIDs(t *testing.T) {
	from, to := "wallet-a", "wallet-b"

	tx := &Transaction{FromWalletID: &from, ToWalletID: &to}
	assert.Equal(t, []string{"wallet-a", "wallet-b"}, tx.WalletIDs())

	tx = &Transaction{ToWalletID: &to}
	assert.Equal(t, []string{"wallet-b"}, tx.WalletIDs())

	same := "wallet-a"
	tx = &Transaction{FromWalletID: &from, ToWalletID: &same}
	assert.Equal(t, []string{"wallet-a"}, tx.WalletIDs())
}

func TestTotalDebit(t *testing.T) {
	tx := &Transaction{Amount: decimal.NewFromInt(500), Fee: decimal.NewFromFloat(2.50)}
	assert.True(t, tx.TotalDebit().Equal(decimal.NewFromFloat(502.50)))
}

func TestBalanceDelta(t *testing.T) {
	amount := decimal.NewFromInt(100)

	cases := []struct {
		accountType AccountType
		entryType   EntryType
		increases   bool
	}{
		{AccountTypeAsset, EntryTypeDebit, true},
		{AccountTypeAsset, EntryTypeCredit, false},
		{AccountTypeExpense, EntryTypeDebit, true},
		{AccountTypeLiability, EntryTypeDebit, false},
		{AccountTypeLiability, EntryTypeCredit, true},
		{AccountTypeEquity, EntryTypeCredit, true},
		{AccountTypeRevenue, EntryTypeCredit, true},
		{AccountTypeRevenue, EntryTypeDebit, false},
	}
	for _, c := range cases {
		account := &LedgerAccount{Type: c.accountType}
		delta := account.BalanceDelta(c.entryType, amount)
		if c.increases {
			assert.True(t, delta.Equal(amount), "%s %s", c.accountType, c.entryType)
		} else {
			assert.True(t, delta.Equal(amount.Neg()), "%s %s", c.accountType, c.entryType)
		}
	}
}
