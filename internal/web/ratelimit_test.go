package web

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_AllowPerClient(t *testing.T) {
	rl := newRateLimiter(2)
	defer rl.Close()

	assert.True(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.1"))
	assert.False(t, rl.allow("10.0.0.1"))

	// Separate bucket per client
	assert.True(t, rl.allow("10.0.0.2"))
}

func TestRateLimiter_RetryAfter(t *testing.T) {
	tests := []struct {
		perMinute int
		want      string
	}{
		{perMinute: 1, want: "60"},
		{perMinute: 20, want: "3"},
		{perMinute: 600, want: "1"},
		{perMinute: 0, want: "60"},
	}

	for _, tt := range tests {
		rl := newRateLimiter(tt.perMinute)
		assert.Equal(t, tt.want, rl.retryAfter, "perMinute=%d", tt.perMinute)
		rl.Close()
	}
}

func TestRateLimiter_Evict(t *testing.T) {
	rl := newRateLimiter(5)
	defer rl.Close()

	rl.allow("10.0.0.1")
	rl.evict(time.Now())
	assert.Len(t, rl.visitors, 1)

	rl.evict(time.Now().Add(visitorTTL + time.Second))
	assert.Empty(t, rl.visitors)
}

func TestRateLimiter_CloseNilSafe(t *testing.T) {
	var rl *rateLimiter
	assert.NotPanics(t, rl.Close)

	rl = newRateLimiter(1)
	rl.Close()
	assert.NotPanics(t, rl.Close)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.5:4321"
	assert.Equal(t, "203.0.113.5", clientIP(req))

	req.RemoteAddr = "203.0.113.5"
	assert.Equal(t, "203.0.113.5", clientIP(req))
}
