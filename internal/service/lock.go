package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"campuspark/internal/redis"
)

const balanceLockTTL = 30 * time.Second

// balanceLock serialises balance writers across processes sharing the cache.
// Lock store failures fail open: the ledger mutex still serialises writers
// of this process.
type balanceLock struct {
	store  redis.LockStoreInterface
	userID int
	log    *logrus.Entry
}

func (l balanceLock) acquire(ctx context.Context) (func(), error) {
	if l.store == nil {
		return func() {}, nil
	}

	acquired, err := l.store.AcquireBalanceLock(ctx, l.userID, balanceLockTTL)
	if err != nil {
		l.log.WithError(err).Warn("balance lock unavailable, continuing without it")
		return func() {}, nil
	}
	if !acquired {
		return nil, ErrBalanceBusy
	}

	return func() {
		if err := l.store.ReleaseBalanceLock(context.Background(), l.userID); err != nil {
			l.log.WithError(err).Warn("failed to release balance lock")
		}
	}, nil
}
