package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(t *testing.T, cfg *Config) (*Limiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)}
	l := newLimiter(cfg, clock.Now)
	t.Cleanup(l.Stop)
	return l, clock
}

func submitConfig(limit, burst int) *Config {
	return &Config{
		Enabled: true,
		Rules:   []Rule{{Method: "POST", Route: "/submit-experience", Limit: limit, Window: time.Minute, Burst: burst}},
	}
}

func TestLimiter_BurstThenDeny(t *testing.T) {
	l, _ := newTestLimiter(t, submitConfig(60, 3))

	for i := 0; i < 3; i++ {
		info := l.Allow("10.0.0.1", "POST", "/submit-experience")
		require.True(t, info.Allowed, "request %d", i+1)
		assert.Equal(t, 60, info.Limit)
		assert.Equal(t, 2-i, info.Remaining)
	}

	info := l.Allow("10.0.0.1", "POST", "/submit-experience")
	assert.False(t, info.Allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.Equal(t, time.Second, info.RetryAfter)
	assert.True(t, info.ResetTime.After(time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)))
}

func TestLimiter_Refill(t *testing.T) {
	l, clock := newTestLimiter(t, submitConfig(60, 1))

	require.True(t, l.Allow("c", "POST", "/submit-experience").Allowed)
	require.False(t, l.Allow("c", "POST", "/submit-experience").Allowed)

	clock.Advance(time.Second)
	assert.True(t, l.Allow("c", "POST", "/submit-experience").Allowed)
	assert.False(t, l.Allow("c", "POST", "/submit-experience").Allowed)
}

func TestLimiter_ClientsAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(t, submitConfig(60, 1))

	assert.True(t, l.Allow("a", "POST", "/submit-experience").Allowed)
	assert.True(t, l.Allow("b", "POST", "/submit-experience").Allowed)
	assert.False(t, l.Allow("a", "POST", "/submit-experience").Allowed)
}

func TestLimiter_UnlimitedRoutes(t *testing.T) {
	l, _ := newTestLimiter(t, submitConfig(60, 1))

	for i := 0; i < 5; i++ {
		info := l.Allow("a", "GET", "/experiences")
		assert.True(t, info.Allowed)
		assert.Zero(t, info.Limit)
	}
}

func TestLimiter_DefaultLimit(t *testing.T) {
	cfg := submitConfig(60, 1)
	cfg.DefaultLimit = 2
	cfg.DefaultWindow = time.Minute
	l, _ := newTestLimiter(t, cfg)

	assert.True(t, l.Allow("a", "GET", "/experiences").Allowed)
	assert.True(t, l.Allow("a", "GET", "/experiences").Allowed)
	assert.False(t, l.Allow("a", "GET", "/experiences").Allowed)
	assert.True(t, l.Allow("a", "GET", "/experiences/stats").Allowed, "routes have separate buckets")
}

func TestLimiter_WhitelistBlacklistDisabled(t *testing.T) {
	cfg := submitConfig(60, 1)
	cfg.Whitelist = map[string]bool{"10.0.0.9": true}
	cfg.Blacklist = map[string]bool{"10.0.0.66": true}
	l, _ := newTestLimiter(t, cfg)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.9", "POST", "/submit-experience").Allowed)
	}
	assert.False(t, l.Allow("10.0.0.66", "GET", "/health").Allowed)

	off, _ := newTestLimiter(t, &Config{Enabled: false})
	assert.True(t, off.Allow("10.0.0.66", "POST", "/submit-experience").Allowed)

	nilCfg := NewLimiter(nil)
	defer nilCfg.Stop()
	assert.True(t, nilCfg.Allow("x", "POST", "/submit-experience").Allowed)
}

func TestLimiter_Cleanup(t *testing.T) {
	cfg := submitConfig(60, 1)
	cfg.IdleTTL = time.Minute
	l, clock := newTestLimiter(t, cfg)

	l.Allow("a", "POST", "/submit-experience")
	clock.Advance(30 * time.Second)
	l.Allow("b", "POST", "/submit-experience")

	clock.Advance(45 * time.Second)
	assert.Equal(t, 1, l.Cleanup())
	assert.Equal(t, 0, l.Cleanup())
}

func TestLimiter_Concurrent(t *testing.T) {
	l, _ := newTestLimiter(t, submitConfig(60, 50))

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("shared", "POST", "/submit-experience").Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_SUBMIT_LIMIT", "5")
	t.Setenv("RATE_LIMIT_SUBMIT_BURST", "2")
	t.Setenv("RATE_LIMIT_WHITELIST", "127.0.0.1, ::1")

	cfg := LoadConfig()
	require.True(t, cfg.Enabled)
	require.Len(t, cfg.Rules, 1)
	assert.Equal(t, 5, cfg.Rules[0].Limit)
	assert.Equal(t, 2, cfg.Rules[0].Burst)
	assert.Equal(t, map[string]bool{"127.0.0.1": true, "::1": true}, cfg.Whitelist)

	t.Setenv("RATE_LIMIT_ENABLED", "false")
	assert.False(t, LoadConfig().Enabled)
}

func TestParseIPList(t *testing.T) {
	for input, want := range map[string]int{"": 0, "1.1.1.1": 1, "1.1.1.1,,2.2.2.2 ": 2} {
		assert.Len(t, parseIPList(input), want, fmt.Sprintf("%q", input))
	}
}
