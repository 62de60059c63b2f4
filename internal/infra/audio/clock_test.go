package audio

import (
	"sync"
	"time"
)

// manualClock fires pending waits only when the test ticks it.
type manualClock struct {
	mu      sync.Mutex
	elapsed time.Duration
	waits   []chan time.Time
}

func (c *manualClock) After(time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan time.Time, 1)
	c.waits = append(c.waits, ch)
	return ch
}

// Pending returns how many waits are parked on the clock.
func (c *manualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waits)
}

// Tick moves the clock by d and releases every parked wait.
func (c *manualClock) Tick(d time.Duration) {
	c.mu.Lock()
	c.elapsed += d
	waits := c.waits
	c.waits = nil
	at := time.Unix(0, 0).Add(c.elapsed)
	c.mu.Unlock()

	for _, ch := range waits {
		ch <- at
	}
}
