package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTicker is a Ticker driven manually by tests.
type fakeTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }

func (f *fakeTicker) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeTicker) isStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

type fakeTickerFactory struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

func (f *fakeTickerFactory) New(time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time)}
	f.tickers = append(f.tickers, t)
	return t
}

func (f *fakeTickerFactory) get(i int) *fakeTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tickers[i]
}

func TestTimer_DeliversTicksWithGeneration(t *testing.T) {
	factory := &fakeTickerFactory{}
	timer := NewTimer(time.Second, factory.New)

	got := make(chan uint64, 4)
	gen := timer.Start(func(g uint64) { got <- g })

	ticker := factory.get(0)
	ticker.ch <- time.Now()
	ticker.ch <- time.Now()

	assert.Equal(t, gen, <-got)
	assert.Equal(t, gen, <-got)
	assert.True(t, timer.Current(gen))
	assert.True(t, timer.Running())

	timer.Stop()
}

func TestTimer_StopCancelsCountdown(t *testing.T) {
	factory := &fakeTickerFactory{}
	timer := NewTimer(time.Second, factory.New)

	gen := timer.Start(func(uint64) {})
	timer.Stop()

	assert.True(t, factory.get(0).isStopped())
	assert.False(t, timer.Current(gen))
	assert.False(t, timer.Running())

	// Stopping twice is harmless.
	timer.Stop()
}

func TestTimer_StartReplacesPreviousCountdown(t *testing.T) {
	factory := &fakeTickerFactory{}
	timer := NewTimer(time.Second, factory.New)

	first := timer.Start(func(uint64) {})
	got := make(chan uint64, 1)
	second := timer.Start(func(g uint64) { got <- g })

	require.NotEqual(t, first, second)
	assert.True(t, factory.get(0).isStopped())
	assert.False(t, timer.Current(first))
	assert.True(t, timer.Current(second))

	factory.get(1).ch <- time.Now()
	assert.Equal(t, second, <-got)

	timer.Stop()
}
