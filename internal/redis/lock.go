package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles locking of balance writers in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireBalanceLock attempts to acquire the balance lock of userID.
// Returns true if the lock was acquired, false if already held.
func (s *LockStore) AcquireBalanceLock(ctx context.Context, userID int, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, balanceLockKey(userID), "1", ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// ReleaseBalanceLock releases the balance lock of userID.
func (s *LockStore) ReleaseBalanceLock(ctx context.Context, userID int) error {
	return s.client.Del(ctx, balanceLockKey(userID)).Err()
}

func balanceLockKey(userID int) string {
	return fmt.Sprintf("lock:balance:%d", userID)
}
