// health.go: Active health probing for registered plugins
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goconnectors

import (
	"context"
	"sync"
	"time"

	"github.com/agilira/go-timecache"
)

// HealthMonitor probes enabled plugins with lightweight fetches and keeps
// the aggregated report current. Probes bypass the cache, the rate limiter,
// and the request statistics: a probe is an observation, never a billable
// request.
//
// Probe outcomes move status between StatusReady and StatusError; they
// never override an administrative disable.
type HealthMonitor struct {
	registry *Registry
	config   HealthCheckConfig
	logger   Logger
	metrics  MetricsCollector

	mu       sync.RWMutex
	failures map[string]int
	last     HealthReport

	runMu   sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// NewHealthMonitor creates a monitor over the registry. Call Start to run
// the periodic loop, or CheckAll for one-shot probing.
func NewHealthMonitor(registry *Registry, config HealthCheckConfig, logger Logger, metrics MetricsCollector) *HealthMonitor {
	if config.Interval <= 0 {
		config.Interval = DefaultEngineConfig().HealthCheck.Interval
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultEngineConfig().HealthCheck.Timeout
	}
	if config.FailureLimit <= 0 {
		config.FailureLimit = DefaultEngineConfig().HealthCheck.FailureLimit
	}
	if metrics == nil {
		metrics = NoOpMetricsCollector{}
	}
	return &HealthMonitor{
		registry: registry,
		config:   config,
		logger:   NewLogger(logger),
		metrics:  metrics,
		failures: make(map[string]int),
	}
}

// Check probes one plugin with an empty-parameter fetch bounded by the
// health-check timeout. Returns nil when the probe succeeds.
//
// Disabled plugins are not probed; their error reports the disabled state.
func (hm *HealthMonitor) Check(ctx context.Context, name string) error {
	instance, ok := hm.registry.Get(name)
	if !ok {
		return NewPluginNotFoundError(name)
	}
	if !instance.Selectable() {
		return NewPluginDisabledError(name)
	}

	probeCtx, cancel := context.WithTimeout(ctx, hm.config.Timeout)
	defer cancel()

	_, err := instance.Connector().Fetch(probeCtx, Params{})
	if err != nil {
		hm.recordProbeFailure(instance, err)
		if probeCtx.Err() == context.DeadlineExceeded {
			return NewHealthCheckTimeoutError(name, hm.config.Timeout.String())
		}
		return NewHealthCheckFailedError(name, err)
	}

	hm.recordProbeSuccess(instance)
	return nil
}

// CheckAll probes every enabled plugin concurrently and returns the
// aggregated report. The overall status is degraded as soon as any single
// probed plugin is unhealthy; disabled plugins are excluded entirely.
func (hm *HealthMonitor) CheckAll(ctx context.Context) HealthReport {
	instances := hm.registry.Snapshot()

	report := HealthReport{
		OverallStatus: OverallHealthy,
		PluginHealth:  make(map[string]bool, len(instances)),
		CheckedAt:     timecache.CachedTime(),
	}

	type outcome struct {
		name    string
		healthy bool
	}

	results := make(chan outcome, len(instances))
	var wg sync.WaitGroup
	for _, instance := range instances {
		if !instance.Selectable() {
			continue
		}
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			err := hm.Check(ctx, name)
			results <- outcome{name: name, healthy: err == nil}
		}(instance.Name())
	}
	wg.Wait()
	close(results)

	for res := range results {
		report.PluginHealth[res.name] = res.healthy
		if !res.healthy {
			report.OverallStatus = OverallDegraded
		}
	}

	hm.mu.Lock()
	hm.last = report
	hm.mu.Unlock()

	return report
}

// LastReport returns the most recent aggregated report, or a zero report if
// no check has run yet.
func (hm *HealthMonitor) LastReport() HealthReport {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	report := hm.last
	if report.PluginHealth != nil {
		health := make(map[string]bool, len(report.PluginHealth))
		for k, v := range report.PluginHealth {
			health[k] = v
		}
		report.PluginHealth = health
	}
	return report
}

// Start launches the periodic probe loop. Idempotent: a running monitor
// ignores repeated starts.
func (hm *HealthMonitor) Start() {
	hm.runMu.Lock()
	defer hm.runMu.Unlock()

	if hm.running {
		return
	}
	hm.running = true
	hm.stop = make(chan struct{})
	hm.done = make(chan struct{})

	go hm.loop(hm.stop, hm.done)
	hm.logger.Info("Health monitor started", "interval", hm.config.Interval)
}

// Stop halts the periodic loop and waits for the in-flight round to finish.
// Idempotent.
func (hm *HealthMonitor) Stop() {
	hm.runMu.Lock()
	defer hm.runMu.Unlock()

	if !hm.running {
		return
	}
	close(hm.stop)
	<-hm.done
	hm.running = false
	hm.logger.Info("Health monitor stopped")
}

func (hm *HealthMonitor) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(hm.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			hm.CheckAll(context.Background())
		}
	}
}

// recordProbeSuccess clears the consecutive-failure count and restores
// StatusReady. Probe results never touch request statistics.
func (hm *HealthMonitor) recordProbeSuccess(instance *PluginInstance) {
	name := instance.Name()

	hm.mu.Lock()
	delete(hm.failures, name)
	hm.mu.Unlock()

	instance.setStatus(StatusReady)
}

// recordProbeFailure counts the consecutive failure and moves the plugin to
// StatusError once the limit is reached.
func (hm *HealthMonitor) recordProbeFailure(instance *PluginInstance, err error) {
	name := instance.Name()

	hm.mu.Lock()
	hm.failures[name]++
	count := hm.failures[name]
	hm.mu.Unlock()

	hm.metrics.IncrementCounter(metricHealthFailures, map[string]string{"plugin": name}, 1)
	hm.logger.Warn("Health probe failed",
		"plugin", name,
		"consecutive_failures", count,
		"error", err)

	if count >= hm.config.FailureLimit {
		instance.setStatus(StatusError)
	}
}
