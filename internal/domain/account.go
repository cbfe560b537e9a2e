// internal/domain/account.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal" // For precise monetary calculations
)

// AccountType defines the fundamental accounting type of a ledger account.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// EntryType indicates whether a ledger entry is a debit or a credit.
type EntryType string

const (
	EntryTypeDebit  EntryType = "DEBIT"
	EntryTypeCredit EntryType = "CREDIT"
)

// Opposite returns the mirrored entry type, used when reversing a posting.
func (t EntryType) Opposite() EntryType {
	if t == EntryTypeDebit {
		return EntryTypeCredit
	}
	return EntryTypeDebit
}

// LedgerAccount represents a named balance bucket used purely for accounting,
// distinct from a user-facing wallet.
type LedgerAccount struct {
	ID        string          `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Type      AccountType     `db:"type" json:"type"`
	Currency  string          `db:"currency" json:"currency"`
	Balance   decimal.Decimal `db:"balance" json:"balance"`
	IsLocked  bool            `db:"is_locked" json:"is_locked"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// NewLedgerAccount creates a new LedgerAccount with a zero balance.
func NewLedgerAccount(name string, accountType AccountType, currency string) *LedgerAccount {
	now := time.Now().UTC()
	return &LedgerAccount{
		ID:        uuid.New().String(),
		Name:      name,
		Type:      accountType,
		Currency:  currency,
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// BalanceDelta returns the signed change a posting of the given type and
// amount applies to this account. A DEBIT increases ASSET and EXPENSE
// accounts and decreases the rest; a CREDIT is the mirror image.
func (a *LedgerAccount) BalanceDelta(entryType EntryType, amount decimal.Decimal) decimal.Decimal {
	debitIncreases := a.Type == AccountTypeAsset || a.Type == AccountTypeExpense
	if (entryType == EntryTypeDebit) == debitIncreases {
		return amount
	}
	return amount.Neg()
}
