package ratelimiter

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowConsumesBurst(t *testing.T) {
	rl := New(Options{MaxRatePerSecond: 1, MaxBurst: 3})

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("client-a"), "request %d within burst", i)
	}
	assert.False(t, rl.Allow("client-a"), "burst exhausted")
}

func TestAllowRefillsOverTime(t *testing.T) {
	rl := New(Options{MaxRatePerSecond: 100, MaxBurst: 1})

	require.True(t, rl.Allow("client-a"))
	require.False(t, rl.Allow("client-a"))

	// 100 tokens/s means one token every 10ms.
	time.Sleep(30 * time.Millisecond)
	assert.True(t, rl.Allow("client-a"))
}

func TestSourcesAreIndependent(t *testing.T) {
	rl := New(Options{MaxRatePerSecond: 1, MaxBurst: 1})

	require.True(t, rl.Allow("client-a"))
	require.False(t, rl.Allow("client-a"))
	assert.True(t, rl.Allow("client-b"))
}

func TestRemaining(t *testing.T) {
	rl := New(Options{MaxRatePerSecond: 1, MaxBurst: 5})

	assert.Equal(t, 5, rl.Remaining("client-a"))
	rl.Allow("client-a")
	assert.Equal(t, 4, rl.Remaining("client-a"))
}

func TestGetSourceKey(t *testing.T) {
	rl := New(Options{MaxRatePerSecond: 1, SourceHeaderKey: "X-Forwarded-For"})

	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "10.0.0.1:1234", rl.GetSourceKey(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.7")
	assert.Equal(t, "203.0.113.7", rl.GetSourceKey(r))
}
