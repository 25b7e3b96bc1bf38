// engine.go: Top-level connector engine tying registry, cache, rate limiter,
// classifier, dispatcher, and health monitor together
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goconnectors

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Engine is the façade over the whole connector subsystem. Construct one
// with NewEngine, register plugins (programmatically or from configuration),
// then serve Execute and Query calls until Shutdown.
//
// All public methods are safe for concurrent use.
type Engine struct {
	config EngineConfig

	registry   *Registry
	cache      *Cache
	limiter    *RateLimiter
	classifier *IntentClassifier
	dispatcher *Dispatcher
	health     *HealthMonitor

	factory ConnectorFactory
	logger  Logger
	metrics MetricsCollector

	shutdown atomic.Bool

	mu            sync.Mutex
	configManaged map[string]struct{}
	watcher       *ConfigWatcher
}

// NewEngine creates an engine with the given configuration. Zero-valued
// config fields fall back to documented defaults; plugins listed in the
// config are NOT registered here — call LoadFromConfig for that, so that
// programmatic-only setups skip the factory entirely.
//
// logger can be nil (no logging) or a Logger implementation.
func NewEngine(config EngineConfig, logger any) *Engine {
	config.ApplyDefaults()

	log := NewLogger(logger)
	metrics := NewDefaultMetricsCollector()

	registry := NewRegistry(config.Degraded, log)
	cache := NewCache()
	limiter := NewRateLimiter()
	classifier := NewIntentClassifier(registry)

	e := &Engine{
		config:        config,
		registry:      registry,
		cache:         cache,
		limiter:       limiter,
		classifier:    classifier,
		factory:       DefaultConnectorFactory{},
		logger:        log,
		metrics:       metrics,
		configManaged: make(map[string]struct{}),
	}
	e.dispatcher = NewDispatcher(registry, cache, limiter, classifier, log, metrics)
	e.health = NewHealthMonitor(registry, config.HealthCheck, log, metrics)

	cache.StartSweeper(time.Minute)
	if config.HealthCheck.Enabled {
		e.health.Start()
	}
	return e
}

// SetConnectorFactory replaces the factory used by LoadFromConfig. Call
// before loading configuration.
func (e *Engine) SetConnectorFactory(factory ConnectorFactory) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.factory = factory
}

// SetMetricsCollector replaces the metrics backend for subsequent dispatches.
// Call before serving traffic; in-flight dispatches may still report to the
// previous collector.
func (e *Engine) SetMetricsCollector(metrics MetricsCollector) {
	if metrics == nil {
		metrics = NoOpMetricsCollector{}
	}
	e.metrics = metrics
	e.dispatcher.metrics = metrics
	e.health.metrics = metrics
}

// Metrics returns the active metrics collector.
func (e *Engine) Metrics() MetricsCollector {
	return e.metrics
}

// Classifier returns the intent classifier for lexicon extension.
func (e *Engine) Classifier() *IntentClassifier {
	return e.classifier
}

// RegisterPlugin registers a plugin with an explicit connector. The rate
// limiter is configured from the plugin's ceilings in the same step.
func (e *Engine) RegisterPlugin(cfg PluginConfig, connector Connector) error {
	if e.shutdown.Load() {
		return NewEngineShutdownError()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = e.config.DefaultTimeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = e.config.DefaultCacheTTL
	}

	if err := e.registry.Register(cfg, connector); err != nil {
		return err
	}
	e.limiter.Configure(cfg.Name, cfg.RateLimit)
	return nil
}

// LoadFromConfig validates the configuration and registers every listed
// plugin, building connectors through the engine's factory. Plugins loaded
// this way are tracked as config-managed so a config watcher can later
// reconcile additions and removals.
//
// Loading stops at the first failing plugin; plugins registered before the
// failure stay registered.
func (e *Engine) LoadFromConfig(config EngineConfig) error {
	if e.shutdown.Load() {
		return NewEngineShutdownError()
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return err
	}
	if len(config.Plugins) == 0 {
		return NewNoPluginsConfiguredError()
	}

	e.mu.Lock()
	factory := e.factory
	e.mu.Unlock()

	for _, cfg := range config.Plugins {
		connector, err := factory.CreateConnector(cfg)
		if err != nil {
			return err
		}
		if err := e.RegisterPlugin(cfg, connector); err != nil {
			return err
		}
		e.mu.Lock()
		e.configManaged[cfg.Name] = struct{}{}
		e.mu.Unlock()
	}

	e.logger.Info("Configuration loaded", "plugins", len(config.Plugins))
	return nil
}

// LoadFromConfigFile reads a YAML or JSON configuration file and loads it.
func (e *Engine) LoadFromConfigFile(path string) error {
	config, err := LoadConfigFile(path)
	if err != nil {
		return err
	}
	return e.LoadFromConfig(config)
}

// WatchConfig starts hot-reloading the given configuration file: plugin
// additions, enable/disable flips, and removals in the file are reconciled
// into the running engine. Call once; Shutdown stops the watcher.
func (e *Engine) WatchConfig(path string) error {
	if e.shutdown.Load() {
		return NewEngineShutdownError()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.watcher != nil {
		return NewConfigWatcherError("watcher already running", nil)
	}
	watcher, err := NewConfigWatcher(e, path, e.logger)
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		return err
	}
	e.watcher = watcher
	return nil
}

// Execute dispatches one plugin by name with the full enforcement pipeline
// (disabled check, cache, rate limit, timeout). The returned Result always
// names the plugin; on failure Result.Err equals the returned error.
func (e *Engine) Execute(ctx context.Context, plugin, intent string, params Params) (Result, error) {
	if e.shutdown.Load() {
		err := NewEngineShutdownError()
		return failedResult(plugin, err), err
	}
	return e.dispatcher.Execute(ctx, plugin, intent, params)
}

// Query classifies a free-text question, dispatches the selected plugins
// concurrently, and returns the aggregated result. NoMatch is a valid
// outcome, not an error. maxPlugins <= 0 uses the engine's configured bound.
func (e *Engine) Query(ctx context.Context, question, language string, maxPlugins int, params Params) (QueryResult, error) {
	if e.shutdown.Load() {
		return QueryResult{}, NewEngineShutdownError()
	}
	if maxPlugins <= 0 {
		maxPlugins = e.config.MaxPlugins
	}
	return e.dispatcher.Query(ctx, question, language, maxPlugins, params), nil
}

// EnablePlugin re-enables a disabled plugin. Idempotent.
func (e *Engine) EnablePlugin(name string) error {
	return e.registry.Enable(name)
}

// DisablePlugin disables a plugin, effective immediately for new
// classifications and dispatches. Stats and cache entries survive.
func (e *Engine) DisablePlugin(name string) error {
	return e.registry.Disable(name)
}

// UnregisterPlugin removes a plugin entirely: registry entry, cached
// responses, and rate-limit counters. Subsequent lookups see NotFound.
func (e *Engine) UnregisterPlugin(name string) bool {
	removed := e.registry.Unregister(name)
	if !removed {
		return false
	}
	e.cache.InvalidatePlugin(name)
	e.limiter.Remove(name)

	e.mu.Lock()
	delete(e.configManaged, name)
	e.mu.Unlock()
	return true
}

// GetPluginConfig returns a plugin's configuration snapshot.
func (e *Engine) GetPluginConfig(name string) (PluginConfig, bool) {
	return e.registry.GetConfig(name)
}

// GetPluginStats returns a plugin's runtime statistics.
func (e *Engine) GetPluginStats(name string) (PluginStats, bool) {
	instance, ok := e.registry.Get(name)
	if !ok {
		return PluginStats{}, false
	}
	return instance.Stats(), true
}

// RateUsage returns the plugin's current window counters for diagnostics.
func (e *Engine) RateUsage(name string) (RateUsage, bool) {
	return e.limiter.Usage(name)
}

// ListPlugins returns the admin summary of every registered plugin in
// declaration order.
func (e *Engine) ListPlugins() []PluginSummary {
	return e.registry.Stats().Plugins
}

// Stats returns the aggregated engine statistics.
func (e *Engine) Stats() EngineStats {
	return e.registry.Stats()
}

// HealthCheck probes every enabled plugin concurrently and returns the
// aggregated report. Probes bypass cache, rate limits, and stats.
func (e *Engine) HealthCheck(ctx context.Context) HealthReport {
	return e.health.CheckAll(ctx)
}

// LastHealthReport returns the most recent health report without probing.
func (e *Engine) LastHealthReport() HealthReport {
	return e.health.LastReport()
}

// Shutdown stops background work (watcher, health loop, cache sweeper) and
// unregisters every plugin, closing connectors that support it. Subsequent
// Execute and Query calls fail with an engine-shutdown error. Idempotent.
func (e *Engine) Shutdown(ctx context.Context) error {
	if !e.shutdown.CompareAndSwap(false, true) {
		return nil
	}

	e.mu.Lock()
	watcher := e.watcher
	e.watcher = nil
	e.mu.Unlock()

	if watcher != nil {
		watcher.Stop()
	}
	e.health.Stop()
	e.cache.StopSweeper()

	for _, name := range e.registry.Names() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		e.registry.Unregister(name)
		e.cache.InvalidatePlugin(name)
		e.limiter.Remove(name)
	}

	e.logger.Info("Engine shut down")
	return nil
}
