// ratelimit_test.go: Tests for fixed-window rate limiting
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goconnectors

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_AdmitsUnderLimit(t *testing.T) {
	rl := NewRateLimiter()
	rl.Configure("thai_news", RateLimitConfig{RequestsPerMinute: 5})

	for i := 0; i < 5; i++ {
		assert.True(t, rl.TryAdmit("thai_news"), "request %d should be admitted", i+1)
	}
}

func TestRateLimiter_DeniesOverLimit(t *testing.T) {
	rl := NewRateLimiter()
	rl.Configure("thai_news", RateLimitConfig{RequestsPerMinute: 3})

	for i := 0; i < 3; i++ {
		require.True(t, rl.TryAdmit("thai_news"))
	}
	assert.False(t, rl.TryAdmit("thai_news"), "request N+1 within the window must be denied")
	assert.False(t, rl.TryAdmit("thai_news"), "denials repeat until the window resets")
}

func TestRateLimiter_DenialMutatesNothing(t *testing.T) {
	rl := NewRateLimiter()
	rl.Configure("thai_news", RateLimitConfig{RequestsPerMinute: 2})

	require.True(t, rl.TryAdmit("thai_news"))
	require.True(t, rl.TryAdmit("thai_news"))

	for i := 0; i < 10; i++ {
		rl.TryAdmit("thai_news")
	}

	usage, ok := rl.Usage("thai_news")
	require.True(t, ok)
	assert.Equal(t, 2, usage.MinuteCount, "denied attempts must not count against the limit")
}

func TestRateLimiter_UnconfiguredPluginAlwaysAdmitted(t *testing.T) {
	rl := NewRateLimiter()

	for i := 0; i < 100; i++ {
		assert.True(t, rl.TryAdmit("unlimited_plugin"))
	}
}

func TestRateLimiter_UnlimitedConfigRemovesWindows(t *testing.T) {
	rl := NewRateLimiter()
	rl.Configure("thai_news", RateLimitConfig{RequestsPerMinute: 1})
	require.True(t, rl.TryAdmit("thai_news"))
	require.False(t, rl.TryAdmit("thai_news"))

	rl.Configure("thai_news", RateLimitConfig{})

	assert.True(t, rl.TryAdmit("thai_news"), "reconfiguring to unlimited lifts the ceiling")
	_, ok := rl.Usage("thai_news")
	assert.False(t, ok)
}

func TestRateLimiter_AllWindowsMustBeUnderLimit(t *testing.T) {
	rl := NewRateLimiter()
	rl.Configure("thai_news", RateLimitConfig{
		RequestsPerMinute: 100,
		RequestsPerHour:   2,
	})

	require.True(t, rl.TryAdmit("thai_news"))
	require.True(t, rl.TryAdmit("thai_news"))
	assert.False(t, rl.TryAdmit("thai_news"), "the tightest window governs admission")
}

func TestRateLimiter_AdmissionIncrementsAllWindows(t *testing.T) {
	rl := NewRateLimiter()
	rl.Configure("thai_news", RateLimitConfig{
		RequestsPerMinute: 10,
		RequestsPerHour:   10,
		RequestsPerDay:    10,
	})

	require.True(t, rl.TryAdmit("thai_news"))

	usage, ok := rl.Usage("thai_news")
	require.True(t, ok)
	assert.Equal(t, 1, usage.MinuteCount)
	assert.Equal(t, 1, usage.HourCount)
	assert.Equal(t, 1, usage.DayCount)
}

func TestRateLimiter_IndependentPlugins(t *testing.T) {
	rl := NewRateLimiter()
	rl.Configure("a", RateLimitConfig{RequestsPerMinute: 1})
	rl.Configure("b", RateLimitConfig{RequestsPerMinute: 1})

	require.True(t, rl.TryAdmit("a"))
	assert.False(t, rl.TryAdmit("a"))
	assert.True(t, rl.TryAdmit("b"), "one plugin's exhaustion must not affect another")
}

func TestRateLimiter_Remove(t *testing.T) {
	rl := NewRateLimiter()
	rl.Configure("thai_news", RateLimitConfig{RequestsPerMinute: 1})
	require.True(t, rl.TryAdmit("thai_news"))
	require.False(t, rl.TryAdmit("thai_news"))

	rl.Remove("thai_news")

	assert.True(t, rl.TryAdmit("thai_news"), "removed plugin has no ceilings")
}

func TestRateLimiter_ConcurrentAdmissionNeverOvershoots(t *testing.T) {
	const limit = 50
	const attempts = 200

	rl := NewRateLimiter()
	rl.Configure("thai_news", RateLimitConfig{RequestsPerMinute: limit})

	var admitted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.TryAdmit("thai_news") {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(limit), admitted.Load(),
		"exactly the ceiling may be admitted under concurrency")
}
