// types.go: Common data types and structures for the connector engine
//
// This file contains the shared data models used throughout the engine:
// plugin status enumeration, runtime statistics, dispatch result envelopes,
// and the aggregate views exposed to administrative tooling.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goconnectors

import (
	"encoding/json"
	"time"
)

// PluginStatus represents the current operational status of a plugin instance.
//
// Status levels:
//   - StatusUninitialized: Instance exists but has not been constructed yet
//   - StatusReady: Plugin is operational and accepting dispatches
//   - StatusDegraded: Recent failure rate over the trailing window exceeded
//     the configured threshold; the plugin still accepts dispatches
//   - StatusDisabled: Administratively disabled; never selected or dispatched
//   - StatusError: Last health probe or construction failed
//
// Only the health monitor, the dispatcher (on success/failure), and the
// admin enable/disable operations mutate a plugin's status.
type PluginStatus int32

const (
	StatusUninitialized PluginStatus = iota
	StatusReady
	StatusDegraded
	StatusDisabled
	StatusError
)

// String returns a human-readable representation of the plugin status.
func (s PluginStatus) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusDegraded:
		return "degraded"
	case StatusDisabled:
		return "disabled"
	case StatusError:
		return "error"
	default:
		return "uninitialized"
	}
}

// MarshalJSON renders the status as its string form.
func (s PluginStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// PluginStats is a point-in-time snapshot of a plugin's runtime counters.
//
// RequestCount counts successful fetches; ErrorCount counts failed ones.
// Counters survive disable/enable cycles and are only destroyed when the
// plugin is unregistered.
type PluginStats struct {
	RequestCount  int64         `json:"request_count"`
	ErrorCount    int64         `json:"error_count"`
	LastLatency   time.Duration `json:"last_latency"`
	LastSuccessAt time.Time     `json:"last_success_at"`
	LastError     string        `json:"last_error,omitempty"`
}

// Result is the uniform per-plugin response envelope returned by the
// dispatcher regardless of whether the plugin was invoked directly by name
// or selected by the intent classifier.
//
// Exactly one of Payload or Err is meaningful. Cached reports whether the
// payload was served from the response cache without touching the rate
// limiter or the connector.
type Result struct {
	Plugin    string          `json:"plugin"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Cached    bool            `json:"cached"`
	Latency   time.Duration   `json:"latency"`
	Err       error           `json:"-"`
	Error     string          `json:"error,omitempty"`
	ErrorCode string          `json:"error_code,omitempty"`
}

// Failed reports whether the dispatch produced an error instead of a payload.
func (r Result) Failed() bool {
	return r.Err != nil
}

// QueryResult aggregates the outcome of an intent-based dispatch.
//
// Results are indexed by plugin name; no ordering is guaranteed between
// concurrently dispatched plugins. NoMatch is set when the classifier found
// zero applicable plugins — callers should render this as "nothing relevant
// found", not as a failure.
type QueryResult struct {
	RequestID       string            `json:"request_id"`
	PluginsUsed     []string          `json:"plugins_used"`
	Results         map[string]Result `json:"results"`
	ExecutionTimeMS int64             `json:"execution_time_ms"`
	NoMatch         bool              `json:"no_match"`
}

// PluginSummary is the per-plugin slice of the registry's aggregate view.
type PluginSummary struct {
	Name    string       `json:"name"`
	Version string       `json:"version"`
	Status  PluginStatus `json:"status"`
	Enabled bool         `json:"enabled"`
	Intents []string     `json:"intents"`
	Stats   PluginStats  `json:"stats"`
}

// EngineStats is the aggregate registry view consumed by admin tooling.
// Building it is O(n) in plugin count and takes only snapshot reads on each
// instance.
type EngineStats struct {
	TotalPlugins    int             `json:"total_plugins"`
	EnabledPlugins  int             `json:"enabled_plugins"`
	ActiveInstances int             `json:"active_instances"`
	Intents         []string        `json:"intents"`
	Plugins         []PluginSummary `json:"plugins"`
}

// Overall health values reported by HealthReport.
const (
	OverallHealthy  = "healthy"
	OverallDegraded = "degraded"
)

// HealthReport is the outcome of probing all enabled plugins. OverallStatus
// is "healthy" iff every enabled plugin passed its probe.
type HealthReport struct {
	OverallStatus string          `json:"overall_status"`
	PluginHealth  map[string]bool `json:"plugin_health"`
	CheckedAt     time.Time       `json:"checked_at"`
}
