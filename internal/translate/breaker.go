package translate

import (
	"sync"
	"time"
)

// breaker counts consecutive failed provider calls and, once the threshold
// is reached, refuses further calls for a cool-down window. Failures are
// counted per provider call, not per text. State is process-local: in a
// multi-instance deployment each instance trips independently.
type breaker struct {
	mu          sync.Mutex
	threshold   int
	cooldown    time.Duration
	consecutive int
	openUntil   time.Time
	now         func() time.Time // injectable for tests
}

func newBreaker(threshold int, cooldown time.Duration) *breaker {
	if threshold < 1 {
		threshold = 1
	}
	return &breaker{threshold: threshold, cooldown: cooldown, now: time.Now}
}

// allow reports whether a provider call may proceed. While the cool-down is
// active it returns false without touching counters.
func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.now().Before(b.openUntil)
}

// open reports whether the breaker is currently tripped.
func (b *breaker) open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.now().Before(b.openUntil)
}

// recordSuccess resets the consecutive failure count.
func (b *breaker) recordSuccess() {
	b.mu.Lock()
	b.consecutive = 0
	b.mu.Unlock()
}

// recordFailure bumps the failure count and trips the breaker once the
// threshold is hit. The count resets on trip so the next window starts
// clean after the cool-down expires.
func (b *breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutive++
	if b.consecutive >= b.threshold {
		b.openUntil = b.now().Add(b.cooldown)
		b.consecutive = 0
	}
}
