// internal/domain/lock.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WalletLock is the ephemeral record of one transaction's exclusive ownership
// of a wallet while it is being processed. It exists only for the duration of
// the processing attempt.
type WalletLock struct {
	TransactionID string          `json:"transaction_id"`
	WalletID      string          `json:"wallet_id"`
	Amount        decimal.Decimal `json:"amount"`
	LockedAt      time.Time       `json:"locked_at"`
	ExpiresAt     time.Time       `json:"expires_at"`
}

// Expired reports whether the lock's TTL has elapsed at the given instant.
// Expiry is checked lazily on the next acquisition attempt; there is no
// background sweep.
func (l *WalletLock) Expired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}
