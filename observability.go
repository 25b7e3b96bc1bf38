// observability.go: Metrics collection interfaces for the connector engine
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goconnectors

import (
	"sort"
	"strings"
	"sync"
)

// MetricsCollector is the pluggable metrics interface. The engine records
// dispatch counters, latencies, and health outcomes through it; any backend
// (the in-memory default, Prometheus, a push gateway) can implement it.
type MetricsCollector interface {
	// IncrementCounter adds value to a named counter.
	IncrementCounter(name string, labels map[string]string, value int64)

	// SetGauge sets a named gauge to value.
	SetGauge(name string, labels map[string]string, value float64)

	// RecordHistogram records one observation of a named histogram.
	RecordHistogram(name string, labels map[string]string, value float64)

	// GetMetrics returns a snapshot of current values for diagnostics.
	GetMetrics() map[string]interface{}
}

// Metric names recorded by the dispatcher and health monitor.
const (
	metricRequestsTotal   = "connector_requests_total"
	metricRequestsFailure = "connector_requests_failure_total"
	metricCacheHits       = "connector_cache_hits_total"
	metricRateLimited     = "connector_rate_limited_total"
	metricFetchSeconds    = "connector_fetch_duration_seconds"
	metricHealthFailures  = "connector_health_failures_total"
)

// NoOpMetricsCollector discards all metrics. Used when no collector is
// configured.
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) IncrementCounter(string, map[string]string, int64)  {}
func (NoOpMetricsCollector) SetGauge(string, map[string]string, float64)        {}
func (NoOpMetricsCollector) RecordHistogram(string, map[string]string, float64) {}
func (NoOpMetricsCollector) GetMetrics() map[string]interface{}                 { return nil }

// DefaultMetricsCollector is a thread-safe in-memory collector. Histograms
// are kept as running count/sum pairs, which is enough for the admin stats
// surface without a metrics backend.
type DefaultMetricsCollector struct {
	mu        sync.RWMutex
	counters  map[string]int64
	gauges    map[string]float64
	histCount map[string]int64
	histSum   map[string]float64
}

// NewDefaultMetricsCollector creates an empty in-memory collector.
func NewDefaultMetricsCollector() *DefaultMetricsCollector {
	return &DefaultMetricsCollector{
		counters:  make(map[string]int64),
		gauges:    make(map[string]float64),
		histCount: make(map[string]int64),
		histSum:   make(map[string]float64),
	}
}

func metricKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	for _, k := range keys {
		b.WriteByte('{')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
		b.WriteByte('}')
	}
	return b.String()
}

// IncrementCounter implements MetricsCollector.
func (c *DefaultMetricsCollector) IncrementCounter(name string, labels map[string]string, value int64) {
	key := metricKey(name, labels)
	c.mu.Lock()
	c.counters[key] += value
	c.mu.Unlock()
}

// SetGauge implements MetricsCollector.
func (c *DefaultMetricsCollector) SetGauge(name string, labels map[string]string, value float64) {
	key := metricKey(name, labels)
	c.mu.Lock()
	c.gauges[key] = value
	c.mu.Unlock()
}

// RecordHistogram implements MetricsCollector.
func (c *DefaultMetricsCollector) RecordHistogram(name string, labels map[string]string, value float64) {
	key := metricKey(name, labels)
	c.mu.Lock()
	c.histCount[key]++
	c.histSum[key] += value
	c.mu.Unlock()
}

// GetMetrics implements MetricsCollector.
func (c *DefaultMetricsCollector) GetMetrics() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]interface{}, len(c.counters)+len(c.gauges)+len(c.histCount))
	for k, v := range c.counters {
		out[k] = v
	}
	for k, v := range c.gauges {
		out[k] = v
	}
	for k, count := range c.histCount {
		out[k+"_count"] = count
		out[k+"_sum"] = c.histSum[k]
	}
	return out
}

// CounterValue returns the current value of one counter; handy in tests.
func (c *DefaultMetricsCollector) CounterValue(name string, labels map[string]string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counters[metricKey(name, labels)]
}
