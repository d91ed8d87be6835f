package game

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// --- Rand ---

type fixedRand struct {
	v int
}

func (r fixedRand) IntN(n int) int {
	if r.v >= n {
		return n - 1
	}
	return r.v
}

// --- Countdown ---

type fakeCountdown struct {
	run     uint64
	running bool
	starts  []int
	cancels int
}

func (c *fakeCountdown) Start(seconds int) uint64 {
	c.run++
	c.running = true
	c.starts = append(c.starts, seconds)
	return c.run
}

func (c *fakeCountdown) Cancel() bool {
	c.cancels++
	was := c.running
	c.running = false
	return was
}

// --- PeriodicTickerCreator ---

type fakeTicker struct {
	c       chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (f *fakeTicker) C() <-chan time.Time {
	return f.c
}

func (f *fakeTicker) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeTicker) Stopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

type fakeTickers struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

func (f *fakeTickers) Create(d time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTicker{c: make(chan time.Time)}
	f.tickers = append(f.tickers, t)
	return t
}

// nth waits until the n-th ticker (0-based) was created.
func (f *fakeTickers) nth(t *testing.T, n int) *fakeTicker {
	t.Helper()
	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return len(f.tickers) > n
	}, time.Second, time.Millisecond)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tickers[n]
}

func (f *fakeTicker) tick(t *testing.T) bool {
	t.Helper()
	select {
	case f.c <- time.Now():
		return true
	case <-time.After(50 * time.Millisecond):
		return false
	}
}
