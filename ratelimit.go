// ratelimit.go: Fixed-window rate limiting for plugin admission
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goconnectors

import (
	"sync"
	"time"

	"github.com/agilira/go-timecache"
)

// rateWindow is a single fixed window: a counter plus the instant it next
// resets. When now >= resetAt the counter drops to zero and resetAt advances
// by the window's fixed duration (repeatedly, if the window sat idle across
// several periods).
type rateWindow struct {
	limit    int
	interval time.Duration
	count    int
	resetAt  time.Time
}

func (w *rateWindow) rollLocked(now time.Time) {
	if w.limit <= 0 {
		return
	}
	if now.Before(w.resetAt) {
		return
	}
	for !now.Before(w.resetAt) {
		w.resetAt = w.resetAt.Add(w.interval)
	}
	w.count = 0
}

func (w *rateWindow) underLimitLocked() bool {
	return w.limit <= 0 || w.count < w.limit
}

// pluginWindows bundles the three independent windows for one plugin.
type pluginWindows struct {
	minute rateWindow
	hour   rateWindow
	day    rateWindow
}

// RateUsage is a snapshot of a plugin's current window counters, exposed to
// admin tooling.
type RateUsage struct {
	MinuteCount int       `json:"minute_count"`
	MinuteLimit int       `json:"minute_limit"`
	MinuteReset time.Time `json:"minute_reset"`
	HourCount   int       `json:"hour_count"`
	HourLimit   int       `json:"hour_limit"`
	HourReset   time.Time `json:"hour_reset"`
	DayCount    int       `json:"day_count"`
	DayLimit    int       `json:"day_limit"`
	DayReset    time.Time `json:"day_reset"`
}

// RateLimiter enforces per-plugin fixed-window request ceilings.
//
// Admission semantics: TryAdmit returns true only when every configured
// window is under its ceiling, and in that case increments all three
// atomically (under one lock). A denied attempt mutates nothing, so failed
// attempts never count against the limit.
//
// All state is in-memory; calls never block on I/O.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*pluginWindows
}

// NewRateLimiter creates an empty rate limiter.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*pluginWindows),
	}
}

// Configure installs (or replaces) the ceilings for a plugin. An unlimited
// config removes any existing bookkeeping so TryAdmit stays O(1) for
// plugins without limits.
func (rl *RateLimiter) Configure(plugin string, cfg RateLimitConfig) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if cfg.Unlimited() {
		delete(rl.windows, plugin)
		return
	}

	now := timecache.CachedTime()
	rl.windows[plugin] = &pluginWindows{
		minute: rateWindow{limit: cfg.RequestsPerMinute, interval: time.Minute, resetAt: now.Add(time.Minute)},
		hour:   rateWindow{limit: cfg.RequestsPerHour, interval: time.Hour, resetAt: now.Add(time.Hour)},
		day:    rateWindow{limit: cfg.RequestsPerDay, interval: 24 * time.Hour, resetAt: now.Add(24 * time.Hour)},
	}
}

// Remove drops a plugin's windows entirely. Called on unregister.
func (rl *RateLimiter) Remove(plugin string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.windows, plugin)
}

// TryAdmit evaluates the plugin's current minute/hour/day counts against the
// configured ceilings. Plugins with no configured ceilings are always
// admitted.
func (rl *RateLimiter) TryAdmit(plugin string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[plugin]
	if !ok {
		return true
	}

	now := timecache.CachedTime()
	w.minute.rollLocked(now)
	w.hour.rollLocked(now)
	w.day.rollLocked(now)

	if !w.minute.underLimitLocked() || !w.hour.underLimitLocked() || !w.day.underLimitLocked() {
		return false
	}

	w.minute.count++
	w.hour.count++
	w.day.count++
	return true
}

// Usage returns the current counters for a plugin. The second return is
// false when the plugin carries no ceilings.
func (rl *RateLimiter) Usage(plugin string) (RateUsage, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[plugin]
	if !ok {
		return RateUsage{}, false
	}

	now := timecache.CachedTime()
	w.minute.rollLocked(now)
	w.hour.rollLocked(now)
	w.day.rollLocked(now)

	return RateUsage{
		MinuteCount: w.minute.count,
		MinuteLimit: w.minute.limit,
		MinuteReset: w.minute.resetAt,
		HourCount:   w.hour.count,
		HourLimit:   w.hour.limit,
		HourReset:   w.hour.resetAt,
		DayCount:    w.day.count,
		DayLimit:    w.day.limit,
		DayReset:    w.day.resetAt,
	}, true
}
