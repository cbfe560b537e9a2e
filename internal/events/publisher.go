// internal/events/publisher.go
package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Publisher delivers engine events to an external broker. Implementations
// must be safe for concurrent use.
type Publisher interface {
	Publish(topic string, event any) error
}

// TransactionCompleted is emitted after a domain transaction reaches
// COMPLETED status.
type TransactionCompleted struct {
	TransactionID string          `json:"transaction_id"`
	UserID        string          `json:"user_id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// TopicTransactionCompleted is the broker topic for TransactionCompleted events.
const TopicTransactionCompleted = "transaction_completed"

// NopPublisher discards events; used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(topic string, event any) error { return nil }
