// internal/domain/transaction.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal" // For precise monetary calculations
)

// TransactionType defines the type of a client money-movement request.
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypeTransfer   TransactionType = "TRANSFER"
	TransactionTypeTrade      TransactionType = "TRADE"
)

// TransactionStatus defines the lifecycle status of a domain transaction.
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "PENDING"
	TransactionStatusProcessing TransactionStatus = "PROCESSING"
	TransactionStatusCompleted  TransactionStatus = "COMPLETED"
	TransactionStatusFailed     TransactionStatus = "FAILED"
	TransactionStatusCancelled  TransactionStatus = "CANCELLED"
	TransactionStatusReversed   TransactionStatus = "REVERSED"
)

// validTransitions encodes the transaction state machine. Terminal states
// (FAILED, CANCELLED, REVERSED) have no outgoing edges.
var validTransitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusPending:    {TransactionStatusProcessing, TransactionStatusCancelled},
	TransactionStatusProcessing: {TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusPending},
	TransactionStatusCompleted:  {TransactionStatusReversed},
}

// CanTransitionTo reports whether the state machine permits moving from s to
// next. PROCESSING back to PENDING is the lock-conflict retry edge.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transaction represents one client money-movement request. It is distinct
// from LedgerTransaction, which is the accounting artifact it produces.
type Transaction struct {
	ID             string            `db:"id" json:"id"`
	IdempotencyKey string            `db:"idempotency_key" json:"idempotency_key"`
	UserID         string            `db:"user_id" json:"user_id"`
	Type           TransactionType   `db:"type" json:"type"`
	AssetType      string            `db:"asset_type" json:"asset_type"`
	Amount         decimal.Decimal   `db:"amount" json:"amount"`
	Currency       string            `db:"currency" json:"currency"`
	Fee            decimal.Decimal   `db:"fee" json:"fee"`
	Status         TransactionStatus `db:"status" json:"status"`
	FromWalletID   *string           `db:"from_wallet_id" json:"from_wallet_id,omitempty"`
	ToWalletID     *string           `db:"to_wallet_id" json:"to_wallet_id,omitempty"`
	FromAddress    *string           `db:"from_address" json:"from_address,omitempty"`
	ToAddress      *string           `db:"to_address" json:"to_address,omitempty"`
	Description    *string           `db:"description" json:"description,omitempty"`
	ExternalRef    *string           `db:"external_ref" json:"external_reference,omitempty"`
	Metadata       map[string]string `db:"-" json:"metadata,omitempty"`
	ErrorMessage   string            `db:"error_message" json:"error_message,omitempty"`
	// IDs of the ledger transactions this request produced (principal first,
	// then fee), needed to reverse the whole request later.
	LedgerTransactionIDs []string   `db:"-" json:"ledger_transaction_ids,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
	CompletedAt          *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CancelledAt          *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
}

// NewTransaction creates a new Transaction in PENDING status.
func NewTransaction(idempotencyKey, userID string, txType TransactionType, assetType string, amount, fee decimal.Decimal, currency string) *Transaction {
	now := time.Now().UTC()
	return &Transaction{
		ID:             uuid.New().String(),
		IdempotencyKey: idempotencyKey,
		UserID:         userID,
		Type:           txType,
		AssetType:      assetType,
		Amount:         amount,
		Currency:       currency,
		Fee:            fee,
		Status:         TransactionStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// TotalDebit returns the amount the source wallet must cover: the principal
// plus the fee.
func (t *Transaction) TotalDebit() decimal.Decimal {
	return t.Amount.Add(t.Fee)
}

// WalletIDs returns the distinct wallet identifiers this transaction touches.
func (t *Transaction) WalletIDs() []string {
	var ids []string
	if t.FromWalletID != nil {
		ids = append(ids, *t.FromWalletID)
	}
	if t.ToWalletID != nil && (t.FromWalletID == nil || *t.ToWalletID != *t.FromWalletID) {
		ids = append(ids, *t.ToWalletID)
	}
	return ids
}
