package ratelimiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(limit int, cooldown time.Duration) (*RateLimiter, *[]time.Duration) {
	var slept []time.Duration
	rl := NewRateLimiter(limit, cooldown)
	rl.sleep = func(d time.Duration) { slept = append(slept, d) }
	return rl, &slept
}

func TestRateLimiter_WaitIfNeeded(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		limit         int
		calls         int
		expectedSleep int
	}{
		{"within first batch", 5, 5, 0},
		{"second batch starts after cooldown", 5, 6, 1},
		{"three full batches", 5, 15, 2},
		{"sixteen calls", 5, 16, 3},
		{"disabled limiter", 0, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rl, slept := newTestLimiter(tt.limit, time.Minute)
			for i := 0; i < tt.calls; i++ {
				rl.WaitIfNeeded()
			}

			assert.Len(t, *slept, tt.expectedSleep)
			for _, d := range *slept {
				assert.Equal(t, time.Minute, d)
			}
		})
	}
}

func TestRateLimiter_ZeroCooldown(t *testing.T) {
	t.Parallel()

	rl, slept := newTestLimiter(2, 0)
	for i := 0; i < 10; i++ {
		rl.WaitIfNeeded()
	}

	assert.Empty(t, *slept)
	assert.Equal(t, 2, rl.count)
}
