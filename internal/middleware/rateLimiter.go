package middleware

import (
	"sync/atomic"
	"time"
)

// RateLimiter is a small token bucket shared by nothing: every websocket
// connection owns one, so a flooding client only throttles itself.
type RateLimiter struct {
	tokens   int32
	rate     time.Duration
	burst    int32
	lastTick int64
}

func NewRateLimiter(burst int32, rate time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:   burst,
		rate:     rate,
		burst:    burst,
		lastTick: time.Now().Unix(),
	}
}

// Allow consumes one token if available. Tokens refill at the configured
// rate up to the burst ceiling.
func (l *RateLimiter) Allow() bool {
	now := time.Now().Unix()
	last := atomic.LoadInt64(&l.lastTick)
	elapsed := now - last

	generated := int32(elapsed * int64(time.Second) / int64(l.rate))
	if generated > 0 {
		if atomic.CompareAndSwapInt64(&l.lastTick, last, now) {
			refilled := atomic.LoadInt32(&l.tokens) + generated
			if refilled > l.burst {
				refilled = l.burst
			}
			atomic.StoreInt32(&l.tokens, refilled)
		}
	}

	for {
		current := atomic.LoadInt32(&l.tokens)
		if current <= 0 {
			return false
		}
		if atomic.CompareAndSwapInt32(&l.tokens, current, current-1) {
			return true
		}
	}
}
