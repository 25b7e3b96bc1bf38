// cache.go: TTL response cache with deterministic parameter canonicalization
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goconnectors

import (
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/agilira/go-timecache"
)

// CanonicalizeParams renders a parameter set in a deterministic,
// order-independent form: keys sorted, joined as k=v pairs. Semantically
// identical calls always canonicalize identically regardless of map
// iteration order.
func CanonicalizeParams(params Params) string {
	if len(params) == 0 {
		return ""
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	return b.String()
}

// cacheKey hashes the canonicalized parameter set and scopes it by plugin
// name, so per-plugin invalidation stays possible.
func cacheKey(plugin string, params Params) string {
	h := fnv.New64a()
	h.Write([]byte(CanonicalizeParams(params)))
	return plugin + ":" + strconv.FormatUint(h.Sum64(), 16)
}

type cacheEntry struct {
	plugin    string
	payload   []byte
	storedAt  time.Time
	expiresAt time.Time
}

// Cache is an in-memory TTL store for raw connector responses, shared across
// all concurrent dispatches.
//
// Entries expire strictly after their TTL and are evicted lazily on read; a
// hit never refreshes the TTL (no sliding expiration). An optional
// background sweep can be started for long-running processes so that
// never-reread entries don't accumulate.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry

	sweepStop chan struct{}
	sweepOnce sync.Once
}

// NewCache creates an empty response cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached payload for (plugin, params), or nil and false if
// absent or expired. Expired entries are removed on the spot.
func (c *Cache) Get(plugin string, params Params) ([]byte, bool) {
	key := cacheKey(plugin, params)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if !timecache.CachedTime().Before(entry.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Put may have refreshed it.
		if current, still := c.entries[key]; still && current.expiresAt.Equal(entry.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return entry.payload, true
}

// Put stores a payload for (plugin, params), overwriting any prior entry for
// the same key and timestamping it now. A non-positive TTL stores nothing.
func (c *Cache) Put(plugin string, params Params, payload []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	now := timecache.CachedTime()
	entry := cacheEntry{
		plugin:    plugin,
		payload:   payload,
		storedAt:  now,
		expiresAt: now.Add(ttl),
	}

	c.mu.Lock()
	c.entries[cacheKey(plugin, params)] = entry
	c.mu.Unlock()
}

// InvalidatePlugin removes every entry belonging to a plugin. Called on
// unregister so a later re-registration under the same name starts clean.
// Disable does NOT invalidate; cached entries survive for inspection and
// re-enable.
func (c *Cache) InvalidatePlugin(plugin string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if entry.plugin == plugin {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Sweep removes all expired entries and returns how many were evicted.
func (c *Cache) Sweep() int {
	now := timecache.CachedTime()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// StartSweeper launches a background goroutine sweeping expired entries at
// the given interval. Safe to call once; subsequent calls are no-ops.
func (c *Cache) StartSweeper(interval time.Duration) {
	if interval <= 0 {
		return
	}
	c.sweepOnce.Do(func() {
		c.sweepStop = make(chan struct{})
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					c.Sweep()
				case <-c.sweepStop:
					return
				}
			}
		}()
	})
}

// StopSweeper halts the background sweeper if one was started.
func (c *Cache) StopSweeper() {
	c.mu.Lock()
	stop := c.sweepStop
	c.sweepStop = nil
	c.mu.Unlock()

	if stop != nil {
		close(stop)
	}
}

// Len returns the number of entries currently held, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
