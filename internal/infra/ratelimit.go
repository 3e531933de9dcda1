package infra

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket shared by the upstream fetchers: the
// remote dataset source and the headline feed.
type RateLimiter struct {
	mu       sync.Mutex
	tokens   int
	burst    int
	interval time.Duration // one token is added per interval
	last     time.Time
	now      func() time.Time
}

// NewRateLimiter allows burst requests at once, then one more per
// interval.
func NewRateLimiter(burst int, interval time.Duration) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	rl := &RateLimiter{burst: burst, tokens: burst, interval: interval, now: time.Now}
	rl.last = rl.now()
	return rl
}

// Wait blocks until a token is taken or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		delay, ok := rl.reserve()
		if ok {
			return nil
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// TryAcquire takes a token if one is available without blocking.
func (rl *RateLimiter) TryAcquire() bool {
	_, ok := rl.reserve()
	return ok
}

// reserve takes a token, or reports how long until the next one.
func (rl *RateLimiter) reserve() (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if rl.interval > 0 {
		if n := int(now.Sub(rl.last) / rl.interval); n > 0 {
			rl.tokens = min(rl.burst, rl.tokens+n)
			rl.last = rl.last.Add(time.Duration(n) * rl.interval)
		}
	} else {
		rl.tokens = rl.burst
	}

	if rl.tokens > 0 {
		rl.tokens--
		return 0, true
	}
	return rl.last.Add(rl.interval).Sub(now), false
}
