package mocks

import (
	"sync"
	"time"

	"github.com/mcoot/codebattle-go/internal/dependencies/clock"
)

// MockClock is a mock implementation of Clock for testing.
// It is safe for concurrent use so it can drive session goroutines.
type MockClock struct {
	mu      sync.Mutex
	current time.Time
	tickers []*MockTicker
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{current: t}
}

// Now returns the mocked current time
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Advance moves the clock forward by the given duration without ticking
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// Set sets the clock to the given time
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}

// NewTicker returns a manually driven ticker registered with the clock
func (c *MockClock) NewTicker(interval time.Duration) clock.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &MockTicker{
		interval: interval,
		ch:       make(chan time.Time),
		done:     make(chan struct{}),
	}
	c.tickers = append(c.tickers, t)
	return t
}

// Tick advances the clock by one second and fires every active ticker.
// The send blocks until the consumer receives, which makes test sequencing
// deterministic: once Tick returns, the tick has been picked up.
func (c *MockClock) Tick() {
	c.mu.Lock()
	c.current = c.current.Add(time.Second)
	now := c.current
	tickers := make([]*MockTicker, len(c.tickers))
	copy(tickers, c.tickers)
	c.mu.Unlock()

	for _, t := range tickers {
		t.fire(now)
	}
}

// TickerCount reports how many tickers have been created. Tests use it to
// wait for a goroutine under test to reach its ticker loop.
func (c *MockClock) TickerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

// TickN fires Tick n times
func (c *MockClock) TickN(n int) {
	for i := 0; i < n; i++ {
		c.Tick()
	}
}

// MockTicker is a manually fired ticker
type MockTicker struct {
	interval time.Duration
	ch       chan time.Time
	done     chan struct{}

	mu      sync.Mutex
	stopped bool
}

// C returns the tick channel
func (t *MockTicker) C() <-chan time.Time {
	return t.ch
}

// Stop marks the ticker stopped; subsequent fires are dropped and any fire
// blocked waiting for this ticker's consumer is released
func (t *MockTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.stopped {
		t.stopped = true
		close(t.done)
	}
}

// Interval returns the interval the ticker was created with
func (t *MockTicker) Interval() time.Duration {
	return t.interval
}

func (t *MockTicker) fire(now time.Time) {
	t.mu.Lock()
	stopped := t.stopped
	t.mu.Unlock()
	if stopped {
		return
	}
	select {
	case t.ch <- now:
	case <-t.done:
	}
}
