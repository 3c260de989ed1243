package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChatRateLimiterWindow(t *testing.T) {
	rl := NewChatRateLimiter(2, 10*time.Second)
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))

	// A different participant has its own window.
	assert.True(t, rl.Allow("b"))

	// Old attempts fall out of the window.
	clock = clock.Add(11 * time.Second)
	assert.True(t, rl.Allow("a"))
}

func TestChatRateLimiterForget(t *testing.T) {
	rl := NewChatRateLimiter(1, time.Minute)
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))

	rl.Forget("a")
	assert.True(t, rl.Allow("a"))
}
