// internal/lock/redis.go
package lock

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fintx-engine/internal/domain"
	"fintx-engine/internal/util"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const redisKeyPrefix = "wallet-lock:"

// RedisManager is a Manager backed by Redis SET NX PX, for deployments where
// more than one engine process competes for the same wallets. Redis enforces
// the TTL itself, so a crashed holder cannot block a wallet past expiry.
type RedisManager struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisManager creates a RedisManager with the given TTL; a non-positive
// TTL falls back to DefaultTTL.
func NewRedisManager(client *redis.Client, ttl time.Duration) *RedisManager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisManager{client: client, ttl: ttl}
}

// Acquire grants the transaction exclusive ownership of the wallet via an
// atomic SET NX PX.
func (m *RedisManager) Acquire(ctx context.Context, transactionID, walletID string, amount decimal.Decimal) (*domain.WalletLock, error) {
	now := time.Now().UTC()
	l := domain.WalletLock{
		TransactionID: transactionID,
		WalletID:      walletID,
		Amount:        amount,
		LockedAt:      now,
		ExpiresAt:     now.Add(m.ttl),
	}
	payload, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("failed to encode wallet lock: %w", err)
	}

	ok, err := m.client.SetNX(ctx, redisKeyPrefix+walletID, payload, m.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire redis lock for wallet %s: %w", walletID, err)
	}
	if !ok {
		return nil, util.ErrResourceLocked
	}
	return &l, nil
}

// Release destroys the lock on the wallet.
func (m *RedisManager) Release(ctx context.Context, walletID string) error {
	if err := m.client.Del(ctx, redisKeyPrefix+walletID).Err(); err != nil {
		return fmt.Errorf("failed to release redis lock for wallet %s: %w", walletID, err)
	}
	return nil
}

// releaseIfOwnerScript deletes the lock key only when its payload records
// the given transaction as the holder.
var releaseIfOwnerScript = redis.NewScript(`
local raw = redis.call("GET", KEYS[1])
if not raw then return 0 end
local lock = cjson.decode(raw)
if lock["transaction_id"] == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// ReleaseIfOwner releases the wallet only when it is held by the given
// transaction, atomically via a Lua script.
func (m *RedisManager) ReleaseIfOwner(ctx context.Context, walletID, transactionID string) error {
	if err := releaseIfOwnerScript.Run(ctx, m.client, []string{redisKeyPrefix + walletID}, transactionID).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("failed to conditionally release redis lock for wallet %s: %w", walletID, err)
	}
	return nil
}

// Compile-time check: RedisManager implements Manager.
var _ Manager = (*RedisManager)(nil)
