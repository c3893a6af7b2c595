package session

import (
	"sync"
	"time"
)

// Ticker delivers ticks on C until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a Ticker with the given period.
type TickerFactory func(period time.Duration) Ticker

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// NewRealTicker wraps time.NewTicker.
func NewRealTicker(period time.Duration) Ticker {
	return realTicker{t: time.NewTicker(period)}
}

// Timer runs at most one countdown at a time. Each run is identified by a
// generation number; ticks from a stopped run carry a stale generation and
// must be ignored by the callback owner (see Current).
type Timer struct {
	period    time.Duration
	newTicker TickerFactory

	mu     sync.Mutex
	gen    uint64
	ticker Ticker
	done   chan struct{}
}

// NewTimer creates a Timer. A nil factory uses real wall-clock tickers.
func NewTimer(period time.Duration, factory TickerFactory) *Timer {
	if period <= 0 {
		period = time.Second
	}
	if factory == nil {
		factory = NewRealTicker
	}
	return &Timer{period: period, newTicker: factory}
}

// Start cancels any running countdown and starts a new one that calls
// onTick with its generation on every period. It returns the generation.
func (t *Timer) Start(onTick func(gen uint64)) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()

	t.gen++
	gen := t.gen
	ticker := t.newTicker(t.period)
	done := make(chan struct{})
	t.ticker = ticker
	t.done = done

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C():
				select {
				case <-done:
					return
				default:
				}
				onTick(gen)
			}
		}
	}()

	return gen
}

// Stop cancels the running countdown, if any. It does not wait for an
// in-progress callback to return.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

// Current reports whether gen identifies the running countdown.
func (t *Timer) Current(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ticker != nil && t.gen == gen
}

// Running reports whether a countdown is active.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ticker != nil
}

func (t *Timer) stopLocked() {
	if t.ticker == nil {
		return
	}
	t.ticker.Stop()
	close(t.done)
	t.ticker = nil
	t.done = nil
}
