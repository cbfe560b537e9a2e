// internal/domain/ledger.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal" // For precise monetary calculations
)

// LedgerTransactionStatus defines the status of an accounting transaction.
type LedgerTransactionStatus string

const (
	LedgerTransactionStatusPending   LedgerTransactionStatus = "PENDING"
	LedgerTransactionStatusCompleted LedgerTransactionStatus = "COMPLETED"
	LedgerTransactionStatusFailed    LedgerTransactionStatus = "FAILED"
	LedgerTransactionStatusReversed  LedgerTransactionStatus = "REVERSED"
)

// LedgerEntry is the immutable record of one posting against an account.
// Entries are never mutated or deleted; a reversal is modeled as new
// offsetting entries.
type LedgerEntry struct {
	ID            string            `db:"id" json:"id"`
	TransactionID string            `db:"transaction_id" json:"transaction_id"`
	AccountID     string            `db:"account_id" json:"account_id"`
	Type          EntryType         `db:"type" json:"type"`
	Amount        decimal.Decimal   `db:"amount" json:"amount"`
	Currency      string            `db:"currency" json:"currency"`
	Balance       decimal.Decimal   `db:"balance" json:"balance"` // Account balance after this entry was applied
	Description   string            `db:"description" json:"description"`
	Metadata      map[string]string `db:"-" json:"metadata,omitempty"`
	CreatedAt     time.Time         `db:"created_at" json:"created_at"`
}

// EntryInput is the caller-supplied description of one posting, before the
// ledger resolves the account and computes the resulting balance.
type EntryInput struct {
	AccountID   string
	Type        EntryType
	Amount      decimal.Decimal
	Currency    string
	Description string
	Metadata    map[string]string
}

// LedgerTransaction is a named, idempotent group of entries whose debits and
// credits must balance.
type LedgerTransaction struct {
	ID             string                  `db:"id" json:"id"`
	IdempotencyKey string                  `db:"idempotency_key" json:"idempotency_key"`
	Reference      string                  `db:"reference" json:"reference"`
	Description    string                  `db:"description" json:"description"`
	TotalAmount    decimal.Decimal         `db:"total_amount" json:"total_amount"`
	Currency       string                  `db:"currency" json:"currency"`
	Entries        []LedgerEntry           `db:"-" json:"entries"`
	Status         LedgerTransactionStatus `db:"status" json:"status"`
	CreatedAt      time.Time               `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time               `db:"updated_at" json:"updated_at"`
}

// NewLedgerTransaction creates a new LedgerTransaction shell; entries are
// appended by the ledger service once the group has been validated.
func NewLedgerTransaction(idempotencyKey, reference, description string) *LedgerTransaction {
	now := time.Now().UTC()
	return &LedgerTransaction{
		ID:             uuid.New().String(),
		IdempotencyKey: idempotencyKey,
		Reference:      reference,
		Description:    description,
		TotalAmount:    decimal.Zero,
		Status:         LedgerTransactionStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
