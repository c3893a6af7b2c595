package balance

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"campuspark/internal/domain"
	"campuspark/internal/fare"
	"campuspark/internal/metrics"
)

// Result describes a balance update.
type Result struct {
	// Balance is the value after the update.
	Balance float64

	// Source is the copy the update was computed from.
	Source domain.PaymentSource

	// Persisted is false when the local cache write failed.
	Persisted bool
}

// Ledger applies balance updates remote-first with a local fallback.
// The in-memory value is authoritative for the running process; the local
// cache is written after every update on a best-effort basis.
type Ledger struct {
	remote Source
	local  Source
	log    *logrus.Entry

	mu      sync.Mutex
	current float64
}

// NewLedger creates a Ledger over the remote and local sources.
func NewLedger(remote, local Source, log *logrus.Entry) *Ledger {
	return &Ledger{remote: remote, local: local, log: log}
}

// Current returns the in-memory balance.
func (l *Ledger) Current() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Load reads the local copy and then overwrites it with the remote copy when
// the wallet service is reachable.
func (l *Ledger) Load(ctx context.Context) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, err := l.local.Get(ctx)
	switch {
	case err == nil:
		l.current = v
	case errors.Is(err, ErrNotFound):
		l.current = 0
	default:
		return Result{}, err
	}

	return l.refreshLocked(ctx), nil
}

// Refresh pulls the remote balance into memory and the local cache.
// When the remote copy is unavailable the current value is kept.
func (l *Ledger) Refresh(ctx context.Context) Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.refreshLocked(ctx)
}

func (l *Ledger) refreshLocked(ctx context.Context) Result {
	v, err := l.remote.Get(ctx)
	if err != nil {
		l.log.WithError(err).Debug("remote balance unavailable, keeping local copy")
		return Result{Balance: l.current, Source: l.local.Name(), Persisted: true}
	}

	l.current = v
	return Result{Balance: v, Source: l.remote.Name(), Persisted: l.persistLocked(ctx)}
}

// Adjust adds delta (negative for debits) to the remote balance and mirrors
// it locally. If the remote copy cannot be read or written, delta is applied
// to the local copy instead. Both paths clamp at zero.
func (l *Ledger) Adjust(ctx context.Context, delta float64) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	next, err := l.adjustRemoteLocked(ctx, delta)
	if err == nil {
		l.current = next
		return Result{Balance: next, Source: l.remote.Name(), Persisted: l.persistLocked(ctx)}
	}

	metrics.BalanceFallbacks.Inc()
	next = fare.Round2(l.current + delta)
	if next < 0 {
		l.log.WithFields(logrus.Fields{
			"balance": l.current,
			"delta":   delta,
		}).Warn("local balance too low for remote-approved debit, clamping at zero")
		next = 0
	}
	l.log.WithError(err).WithFields(logrus.Fields{
		"delta":   delta,
		"balance": next,
	}).Warn("remote balance update failed, applied to local cache only")

	l.current = next
	return Result{Balance: next, Source: l.local.Name(), Persisted: l.persistLocked(ctx)}
}

func (l *Ledger) adjustRemoteLocked(ctx context.Context, delta float64) (float64, error) {
	v, err := l.remote.Get(ctx)
	if errors.Is(err, ErrNotFound) && delta > 0 {
		if creator, ok := l.remote.(Creator); ok {
			next := fare.Round2(l.current + delta)
			if err := creator.Create(ctx, next); err != nil {
				return 0, err
			}
			return next, nil
		}
	}
	if err != nil {
		return 0, err
	}

	next := fare.Round2(v + delta)
	if next < 0 {
		l.log.WithFields(logrus.Fields{
			"balance": v,
			"delta":   delta,
		}).Warn("remote balance too low for approved debit, clamping at zero")
		next = 0
	}
	if err := l.remote.Put(ctx, next); err != nil {
		return 0, err
	}
	return next, nil
}

// DebitLocal subtracts amount from the local copy only. It fails with
// ErrInsufficientFunds, leaving the balance untouched, when the local copy
// does not cover amount.
func (l *Ledger) DebitLocal(ctx context.Context, amount float64) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current < amount {
		return Result{Balance: l.current, Source: l.local.Name(), Persisted: true}, ErrInsufficientFunds
	}

	metrics.BalanceFallbacks.Inc()
	l.current = fare.Round2(l.current - amount)
	return Result{Balance: l.current, Source: l.local.Name(), Persisted: l.persistLocked(ctx)}, nil
}

func (l *Ledger) persistLocked(ctx context.Context) bool {
	if err := l.local.Put(ctx, l.current); err != nil {
		l.log.WithError(err).WithField("balance", l.current).Warn("failed to persist balance to local cache")
		return false
	}
	return true
}
