package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllowsBurst(t *testing.T) {
	limiter := NewRateLimiter(5, 500*time.Millisecond)

	for i := 0; i < 5; i++ {
		assert.True(t, limiter.Allow(), "burst token %d", i)
	}
	assert.False(t, limiter.Allow(), "bucket must be empty after the burst")
}

func TestRateLimiterRefills(t *testing.T) {
	limiter := NewRateLimiter(2, 500*time.Millisecond)

	assert.True(t, limiter.Allow())
	assert.True(t, limiter.Allow())
	assert.False(t, limiter.Allow())

	time.Sleep(1100 * time.Millisecond)
	assert.True(t, limiter.Allow(), "tokens regenerate over time")
}
