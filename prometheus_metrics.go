// prometheus_metrics.go: Prometheus adapter for the MetricsCollector interface
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goconnectors

import (
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements MetricsCollector on top of a dedicated
// Prometheus registry. Metric vectors are created lazily on first use; a
// metric's label key set is fixed by that first call, which holds for the
// engine's own metrics (every dispatch metric carries exactly the "plugin"
// label).
type PrometheusCollector struct {
	registry *prometheus.Registry

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

// NewPrometheusCollector creates a collector backed by its own registry.
// Expose Registry() through promhttp in the embedding service to scrape it.
func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		registry:   prometheus.NewRegistry(),
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

// Registry returns the underlying Prometheus registry for scraping.
func (pc *PrometheusCollector) Registry() *prometheus.Registry {
	return pc.registry
}

func labelKeys(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IncrementCounter implements MetricsCollector.
func (pc *PrometheusCollector) IncrementCounter(name string, labels map[string]string, value int64) {
	pc.mu.Lock()
	vec, ok := pc.counters[name]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{Name: name}, labelKeys(labels))
		pc.registry.MustRegister(vec)
		pc.counters[name] = vec
	}
	pc.mu.Unlock()

	vec.With(labels).Add(float64(value))
}

// SetGauge implements MetricsCollector.
func (pc *PrometheusCollector) SetGauge(name string, labels map[string]string, value float64) {
	pc.mu.Lock()
	vec, ok := pc.gauges[name]
	if !ok {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name}, labelKeys(labels))
		pc.registry.MustRegister(vec)
		pc.gauges[name] = vec
	}
	pc.mu.Unlock()

	vec.With(labels).Set(value)
}

// RecordHistogram implements MetricsCollector.
func (pc *PrometheusCollector) RecordHistogram(name string, labels map[string]string, value float64) {
	pc.mu.Lock()
	vec, ok := pc.histograms[name]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    name,
			Buckets: prometheus.DefBuckets,
		}, labelKeys(labels))
		pc.registry.MustRegister(vec)
		pc.histograms[name] = vec
	}
	pc.mu.Unlock()

	vec.With(labels).Observe(value)
}

// GetMetrics implements MetricsCollector by gathering the registry into a
// name → sample-count map. Prometheus itself is the real read path; this is
// only a diagnostic snapshot.
func (pc *PrometheusCollector) GetMetrics() map[string]interface{} {
	families, err := pc.registry.Gather()
	if err != nil {
		return map[string]interface{}{"gather_error": err.Error()}
	}

	out := make(map[string]interface{}, len(families))
	for _, family := range families {
		out[family.GetName()] = len(family.GetMetric())
	}
	return out
}
