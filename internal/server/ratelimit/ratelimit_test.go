package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(configs ...EndpointConfig) *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    5,
		DefaultWindow:   time.Minute,
		Whitelist:       make(map[string]bool),
		Blacklist:       make(map[string]bool),
		EndpointConfigs: configs,
	}
}

func TestLimiter_AllowsWithinBurst(t *testing.T) {
	l := NewLimiter(testConfig(EndpointConfig{
		Path: "/sessions", Method: "POST", Limit: 10, Window: time.Minute, Burst: 3,
	}))
	defer l.Stop()

	for i := 0; i < 3; i++ {
		allowed, _ := l.Allow("1.2.3.4", "/sessions", "POST")
		require.True(t, allowed, "request %d should be allowed", i)
	}

	allowed, info := l.Allow("1.2.3.4", "/sessions", "POST")
	assert.False(t, allowed)
	assert.Equal(t, 10, info.Limit)
	assert.Greater(t, info.RetryAfter, time.Duration(0))
}

func TestLimiter_ClientsAreIndependent(t *testing.T) {
	l := NewLimiter(testConfig(EndpointConfig{
		Path: "/sessions", Method: "POST", Limit: 10, Window: time.Minute, Burst: 1,
	}))
	defer l.Stop()

	allowed, _ := l.Allow("1.1.1.1", "/sessions", "POST")
	require.True(t, allowed)
	allowed, _ = l.Allow("1.1.1.1", "/sessions", "POST")
	require.False(t, allowed)

	allowed, _ = l.Allow("2.2.2.2", "/sessions", "POST")
	assert.True(t, allowed)
}

func TestLimiter_WhitelistBypasses(t *testing.T) {
	cfg := testConfig(EndpointConfig{
		Path: "/sessions", Method: "POST", Limit: 1, Window: time.Hour, Burst: 1,
	})
	cfg.Whitelist["10.0.0.1"] = true
	l := NewLimiter(cfg)
	defer l.Stop()

	for i := 0; i < 5; i++ {
		allowed, _ := l.Allow("10.0.0.1", "/sessions", "POST")
		assert.True(t, allowed)
	}
}

func TestLimiter_BlacklistRejects(t *testing.T) {
	cfg := testConfig()
	cfg.Blacklist["6.6.6.6"] = true
	l := NewLimiter(cfg)
	defer l.Stop()

	allowed, _ := l.Allow("6.6.6.6", "/sessions", "GET")
	assert.False(t, allowed)
}

func TestLimiter_DisabledAllowsEverything(t *testing.T) {
	l := NewLimiter(&Config{Enabled: false})
	defer l.Stop()

	for i := 0; i < 100; i++ {
		allowed, _ := l.Allow("1.2.3.4", "/sessions", "POST")
		require.True(t, allowed)
	}
}

func TestMatchEndpoint(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "*/research", Method: "POST", Limit: 10},
		{Path: "/sessions", Method: "POST", Limit: 60},
		{Path: "/sessions/", Method: "POST", Limit: 100},
	}

	tests := []struct {
		name      string
		path      string
		method    string
		wantLimit int
		wantNil   bool
	}{
		{name: "exact match", path: "/sessions", method: "POST", wantLimit: 60},
		{name: "suffix match wins over prefix", path: "/sessions/abc/research", method: "POST", wantLimit: 10},
		{name: "prefix match", path: "/sessions/abc/brief", method: "POST", wantLimit: 100},
		{name: "no match for reads", path: "/sessions/abc", method: "GET", wantNil: true},
		{name: "health is unlimited", path: "/health", method: "GET", wantLimit: 0},
		{name: "event stream is unlimited", path: "/jobs/abc/events", method: "GET", wantLimit: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantLimit, got.Limit)
		})
	}
}

func TestTokenBucket_Refills(t *testing.T) {
	// 100 tokens/sec so a short sleep restores capacity
	b := newBucket(1, 100)

	require.True(t, b.take())
	require.False(t, b.take())

	time.Sleep(20 * time.Millisecond)
	assert.True(t, b.take())
}
