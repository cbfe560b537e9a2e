// internal/repository/memory/idempotency_mem.go
package memory

import (
	"context"
	"sync"

	"fintx-engine/internal/repository"
)

// IdempotencyIndex is the in-memory reference implementation of
// repository.IdempotencyIndex.
type IdempotencyIndex struct {
	mu   sync.RWMutex
	keys map[string]string
}

// NewIdempotencyIndex creates an empty in-memory idempotency index.
func NewIdempotencyIndex() *IdempotencyIndex {
	return &IdempotencyIndex{keys: make(map[string]string)}
}

// Lookup returns the transaction ID recorded for the key, or "" when absent.
func (i *IdempotencyIndex) Lookup(ctx context.Context, key string) (string, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.keys[key], nil
}

// Record associates the key with a transaction ID.
func (i *IdempotencyIndex) Record(ctx context.Context, key, transactionID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.keys[key] = transactionID
	return nil
}

// Compile-time check: IdempotencyIndex implements repository.IdempotencyIndex.
var _ repository.IdempotencyIndex = (*IdempotencyIndex)(nil)
