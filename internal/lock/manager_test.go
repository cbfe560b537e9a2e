// internal/lock/manager_test.go
package lock

import (
	"context"
	"testing"
	"time"

	"fintx-engine/internal/util"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	ctx := context.Background()
	amount := decimal.NewFromFloat(25.00)

	t.Run("AcquireGrantsExclusiveOwnership", func(t *testing.T) {
		m := NewMemoryManager(DefaultTTL)

		l, err := m.Acquire(ctx, "tx-1", "wallet-a", amount)
		require.NoError(t, err)
		assert.Equal(t, "tx-1", l.TransactionID)
		assert.Equal(t, "wallet-a", l.WalletID)
		assert.True(t, l.ExpiresAt.After(l.LockedAt))

		// A second transaction fails fast instead of blocking.
		_, err = m.Acquire(ctx, "tx-2", "wallet-a", amount)
		assert.ErrorIs(t, err, util.ErrResourceLocked)

		// A different wallet is unaffected.
		_, err = m.Acquire(ctx, "tx-2", "wallet-b", amount)
		assert.NoError(t, err)
	})

	t.Run("ReleaseFreesTheWallet", func(t *testing.T) {
		m := NewMemoryManager(DefaultTTL)

		_, err := m.Acquire(ctx, "tx-1", "wallet-a", amount)
		require.NoError(t, err)
		require.NoError(t, m.Release(ctx, "wallet-a"))

		_, err = m.Acquire(ctx, "tx-2", "wallet-a", amount)
		assert.NoError(t, err)
	})

	t.Run("ReleasingUnheldWalletIsNoOp", func(t *testing.T) {
		m := NewMemoryManager(DefaultTTL)
		assert.NoError(t, m.Release(ctx, "wallet-unknown"))
	})

	t.Run("NonReentrant", func(t *testing.T) {
		m := NewMemoryManager(DefaultTTL)

		_, err := m.Acquire(ctx, "tx-1", "wallet-a", amount)
		require.NoError(t, err)
		_, err = m.Acquire(ctx, "tx-1", "wallet-a", amount)
		assert.ErrorIs(t, err, util.ErrResourceLocked)
	})
}

func TestExpiredLockIsStolen(t *testing.T) {
	ctx := context.Background()
	amount := decimal.NewFromFloat(10.00)

	m := NewMemoryManager(100 * time.Millisecond)
	now := time.Now()
	m.now = func() time.Time { return now }

	_, err := m.Acquire(ctx, "tx-crashed", "wallet-a", amount)
	require.NoError(t, err)

	// Still inside the TTL: held.
	_, err = m.Acquire(ctx, "tx-2", "wallet-a", amount)
	assert.ErrorIs(t, err, util.ErrResourceLocked)

	// Past the TTL the stale lock is replaced, not swept.
	now = now.Add(200 * time.Millisecond)
	l, err := m.Acquire(ctx, "tx-2", "wallet-a", amount)
	require.NoError(t, err)
	assert.Equal(t, "tx-2", l.TransactionID)
}

func TestStaleHolderCleanupCannotFreeStolenLock(t *testing.T) {
	ctx := context.Background()
	amount := decimal.NewFromInt(10)

	m := NewMemoryManager(100 * time.Millisecond)
	now := time.Now()
	m.now = func() time.Time { return now }

	staleLocks, err := AcquireAll(ctx, m, "tx-stale", []string{"wallet-a"}, amount)
	require.NoError(t, err)

	// The stale holder's TTL elapses and another transaction steals the lock.
	now = now.Add(200 * time.Millisecond)
	_, err = m.Acquire(ctx, "tx-new", "wallet-a", amount)
	require.NoError(t, err)

	// The stale worker's deferred cleanup finally runs. It must not free the
	// new holder's lock.
	ReleaseAll(ctx, m, staleLocks)

	_, err = m.Acquire(ctx, "tx-third", "wallet-a", amount)
	assert.ErrorIs(t, err, util.ErrResourceLocked)
}

func TestReleaseIfOwner(t *testing.T) {
	ctx := context.Background()
	amount := decimal.NewFromFloat(10.00)
	m := NewMemoryManager(DefaultTTL)

	_, err := m.Acquire(ctx, "tx-1", "wallet-a", amount)
	require.NoError(t, err)

	// A foreign transaction cannot free the wallet.
	require.NoError(t, m.ReleaseIfOwner(ctx, "wallet-a", "tx-2"))
	_, err = m.Acquire(ctx, "tx-3", "wallet-a", amount)
	assert.ErrorIs(t, err, util.ErrResourceLocked)

	// The owner can.
	require.NoError(t, m.ReleaseIfOwner(ctx, "wallet-a", "tx-1"))
	_, err = m.Acquire(ctx, "tx-3", "wallet-a", amount)
	assert.NoError(t, err)
}

func TestAcquireAll(t *testing.T) {
	ctx := context.Background()
	amount := decimal.NewFromFloat(50.00)

	t.Run("AcquiresEveryWallet", func(t *testing.T) {
		m := NewMemoryManager(DefaultTTL)

		locks, err := AcquireAll(ctx, m, "tx-1", []string{"wallet-b", "wallet-a"}, amount)
		require.NoError(t, err)
		require.Len(t, locks, 2)
		// Sorted acquisition order regardless of input order.
		assert.Equal(t, "wallet-a", locks[0].WalletID)
		assert.Equal(t, "wallet-b", locks[1].WalletID)
	})

	t.Run("ReleasesEarlierLocksWhenLaterFails", func(t *testing.T) {
		m := NewMemoryManager(DefaultTTL)

		_, err := m.Acquire(ctx, "tx-other", "wallet-b", amount)
		require.NoError(t, err)

		_, err = AcquireAll(ctx, m, "tx-1", []string{"wallet-a", "wallet-b"}, amount)
		assert.ErrorIs(t, err, util.ErrResourceLocked)

		// wallet-a must not be leaked by the failed group acquisition.
		_, err = m.Acquire(ctx, "tx-2", "wallet-a", amount)
		assert.NoError(t, err)
	})

	t.Run("ReleaseAllFreesEverything", func(t *testing.T) {
		m := NewMemoryManager(DefaultTTL)

		locks, err := AcquireAll(ctx, m, "tx-1", []string{"wallet-a", "wallet-b"}, amount)
		require.NoError(t, err)
		ReleaseAll(ctx, m, locks)

		_, err = AcquireAll(ctx, m, "tx-2", []string{"wallet-a", "wallet-b"}, amount)
		assert.NoError(t, err)
	})
}
