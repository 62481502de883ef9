package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	l := NewInMemoryRateLimiter(3, time.Hour)
	for i := 0; i < 3; i++ {
		ok, _ := l.Allow("ip:1.2.3.4")
		assert.True(t, ok)
	}
	ok, retryIn := l.Allow("ip:1.2.3.4")
	assert.False(t, ok)
	assert.Greater(t, retryIn, time.Duration(0))

	// Other keys keep their own windows.
	ok, _ = l.Allow("ip:5.6.7.8")
	assert.True(t, ok)
}

func TestRateLimiterResetsAfterWindow(t *testing.T) {
	l := NewInMemoryRateLimiter(1, 10*time.Millisecond)
	ok, _ := l.Allow("user:7")
	assert.True(t, ok)
	ok, _ = l.Allow("user:7")
	assert.False(t, ok)

	time.Sleep(15 * time.Millisecond)
	ok, _ = l.Allow("user:7")
	assert.True(t, ok)
}
