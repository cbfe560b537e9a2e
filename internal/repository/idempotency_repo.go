// internal/repository/idempotency_repo.go
package repository

import "context"

// IdempotencyIndex maps a caller-supplied idempotency key to the transaction
// it produced, enabling safe retries. The engine and the ledger each keep an
// independent index: a single domain transaction may legitimately produce
// more than one accounting transaction (principal + fee).
type IdempotencyIndex interface {
	// Lookup returns the transaction ID recorded for the key, or "" when the
	// key has not been seen.
	Lookup(ctx context.Context, key string) (string, error)
	// Record associates the key with a transaction ID.
	Record(ctx context.Context, key, transactionID string) error
}
