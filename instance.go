// instance.go: Runtime plugin instance with status, stats, and failure window
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goconnectors

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/agilira/go-timecache"
)

// resultWindow is a fixed-size ring of recent fetch outcomes used for
// degraded detection.
type resultWindow struct {
	mu      sync.Mutex
	results []bool
	next    int
	filled  int
}

func newResultWindow(size int) *resultWindow {
	if size <= 0 {
		size = 10
	}
	return &resultWindow{results: make([]bool, size)}
}

func (w *resultWindow) record(ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.results[w.next] = ok
	w.next = (w.next + 1) % len(w.results)
	if w.filled < len(w.results) {
		w.filled++
	}
}

// failureRate returns the failure fraction over the observed samples and
// whether the window is full enough to act on.
func (w *resultWindow) failureRate() (float64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.filled == 0 {
		return 0, false
	}
	failures := 0
	for i := 0; i < w.filled; i++ {
		if !w.results[i] {
			failures++
		}
	}
	return float64(failures) / float64(w.filled), w.filled == len(w.results)
}

// PluginInstance is the mutable runtime wrapper around one registered
// plugin: its immutable config snapshot, the live connector handle, the
// administrative enabled flag, operational status, and accumulated
// statistics.
//
// The registry exclusively owns the instance. Status is mutated only by the
// dispatcher (on fetch success/failure), the health monitor (on probe
// results), and the admin enable/disable operations. Statistics survive
// disable/enable cycles and are destroyed only on unregister.
type PluginInstance struct {
	config    PluginConfig
	connector Connector

	enabled atomic.Bool
	status  atomic.Int32 // PluginStatus

	requestCount atomic.Int64
	errorCount   atomic.Int64
	lastLatency  atomic.Int64 // nanoseconds
	lastSuccess  atomic.Int64 // unix nanoseconds, 0 = never

	mu        sync.Mutex
	lastError string

	window *resultWindow
	policy DegradedPolicy
}

func newPluginInstance(cfg PluginConfig, connector Connector, policy DegradedPolicy) *PluginInstance {
	pi := &PluginInstance{
		config:    cfg,
		connector: connector,
		window:    newResultWindow(policy.WindowSize),
		policy:    policy,
	}
	pi.enabled.Store(cfg.Enabled)
	if cfg.Enabled {
		pi.status.Store(int32(StatusReady))
	} else {
		pi.status.Store(int32(StatusDisabled))
	}
	return pi
}

// Config returns the immutable configuration snapshot taken at registration.
func (pi *PluginInstance) Config() PluginConfig {
	return pi.config
}

// Connector returns the live connector handle.
func (pi *PluginInstance) Connector() Connector {
	return pi.connector
}

// Name returns the plugin's unique name.
func (pi *PluginInstance) Name() string {
	return pi.config.Name
}

// Status returns the current operational status.
func (pi *PluginInstance) Status() PluginStatus {
	return PluginStatus(pi.status.Load())
}

// Enabled reports the administrative enabled flag.
func (pi *PluginInstance) Enabled() bool {
	return pi.enabled.Load()
}

// Selectable reports whether the classifier may select and the dispatcher
// may execute this plugin: enabled and not administratively disabled.
func (pi *PluginInstance) Selectable() bool {
	return pi.enabled.Load() && pi.Status() != StatusDisabled
}

// setEnabled flips the administrative state. Idempotent: enabling an
// already-enabled plugin (or disabling a disabled one) is a no-op. Enabling
// restores StatusReady; accumulated stats are untouched either way.
func (pi *PluginInstance) setEnabled(enabled bool) {
	if !pi.enabled.CompareAndSwap(!enabled, enabled) {
		return
	}
	if enabled {
		pi.status.Store(int32(StatusReady))
	} else {
		pi.status.Store(int32(StatusDisabled))
	}
}

// setStatus sets the operational status unless the plugin is
// administratively disabled; disable wins over concurrent probe results.
func (pi *PluginInstance) setStatus(s PluginStatus) {
	if !pi.enabled.Load() {
		return
	}
	pi.status.Store(int32(s))
}

// RecordSuccess updates statistics after a successful fetch and restores
// StatusReady.
func (pi *PluginInstance) RecordSuccess(latency time.Duration) {
	pi.requestCount.Add(1)
	pi.lastLatency.Store(latency.Nanoseconds())
	pi.lastSuccess.Store(timecache.CachedTimeNano())
	pi.window.record(true)
	pi.setStatus(StatusReady)
}

// RecordFailure updates statistics after a failed fetch. The plugin
// transitions to StatusDegraded once the trailing window is full and its
// failure fraction exceeds the configured threshold.
func (pi *PluginInstance) RecordFailure(latency time.Duration, cause error) {
	pi.errorCount.Add(1)
	pi.lastLatency.Store(latency.Nanoseconds())
	pi.window.record(false)

	pi.mu.Lock()
	if cause != nil {
		pi.lastError = cause.Error()
	}
	pi.mu.Unlock()

	if rate, full := pi.window.failureRate(); full && rate > pi.policy.FailureThreshold {
		pi.setStatus(StatusDegraded)
	}
}

// Stats returns a point-in-time snapshot of the runtime counters.
func (pi *PluginInstance) Stats() PluginStats {
	stats := PluginStats{
		RequestCount: pi.requestCount.Load(),
		ErrorCount:   pi.errorCount.Load(),
		LastLatency:  time.Duration(pi.lastLatency.Load()),
	}
	if nanos := pi.lastSuccess.Load(); nanos != 0 {
		stats.LastSuccessAt = time.Unix(0, nanos)
	}

	pi.mu.Lock()
	stats.LastError = pi.lastError
	pi.mu.Unlock()

	return stats
}

// Summary builds the admin-facing view of this instance with snapshot reads
// only; no lock is held longer than a stats copy.
func (pi *PluginInstance) Summary() PluginSummary {
	return PluginSummary{
		Name:    pi.config.Name,
		Version: pi.config.Version,
		Status:  pi.Status(),
		Enabled: pi.Enabled(),
		Intents: append([]string(nil), pi.config.Intents...),
		Stats:   pi.Stats(),
	}
}
