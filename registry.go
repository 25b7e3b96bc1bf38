// registry.go: Single source of truth for plugin existence and configuration
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goconnectors

import (
	"io"
	"sort"
	"strings"
	"sync"
)

// Registry owns the mapping of plugin name to runtime instance. Mutations
// (register, unregister, enable, disable) are serialized against each other;
// lookups take a shared read lock and may interleave with in-flight
// dispatches, which operate on a config snapshot taken at dispatch start.
//
// Declaration order is preserved: the classifier uses it to break ties
// between candidates with equal confidence.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]*PluginInstance
	order   []string

	policy DegradedPolicy
	logger Logger
}

// NewRegistry creates an empty registry. A zero-valued policy falls back to
// the documented defaults (10-call window, >50% failures).
func NewRegistry(policy DegradedPolicy, logger Logger) *Registry {
	if policy.WindowSize <= 0 {
		policy.WindowSize = DefaultEngineConfig().Degraded.WindowSize
	}
	if policy.FailureThreshold <= 0 {
		policy.FailureThreshold = DefaultEngineConfig().Degraded.FailureThreshold
	}
	return &Registry{
		plugins: make(map[string]*PluginInstance),
		policy:  policy,
		logger:  NewLogger(logger),
	}
}

// Register creates a PluginInstance for the given configuration and
// connector. Fails with a DuplicatePluginName error when the name is
// already taken; the instance starts in StatusReady (or StatusDisabled when
// the config arrives disabled).
func (r *Registry) Register(cfg PluginConfig, connector Connector) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return NewInvalidPluginNameError(cfg.Name)
	}
	if cfg.Timeout <= 0 {
		return NewInvalidTimeoutError(cfg.Name, cfg.Timeout.String())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[cfg.Name]; exists {
		return NewDuplicatePluginNameError(cfg.Name)
	}

	r.plugins[cfg.Name] = newPluginInstance(cfg, connector, r.policy)
	r.order = append(r.order, cfg.Name)

	r.logger.Info("Plugin registered",
		"plugin", cfg.Name,
		"version", cfg.Version,
		"enabled", cfg.Enabled,
		"intents", strings.Join(cfg.Intents, ","))
	return nil
}

// Unregister removes a plugin entirely. Returns false when the name is not
// registered. After removal the name is treated as never having existed;
// the connector is closed if it implements io.Closer.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	instance, exists := r.plugins[name]
	if exists {
		delete(r.plugins, name)
		for i, n := range r.order {
			if n == name {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	r.mu.Unlock()

	if !exists {
		return false
	}

	if closer, ok := instance.connector.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			r.logger.Warn("Error closing connector during unregister",
				"plugin", name, "error", err)
		}
	}

	r.logger.Info("Plugin unregistered", "plugin", name)
	return true
}

// Enable transitions a plugin out of the disabled state. Idempotent:
// enabling an already-enabled plugin is a no-op success.
func (r *Registry) Enable(name string) error {
	instance, ok := r.Get(name)
	if !ok {
		return NewPluginNotFoundError(name)
	}
	instance.setEnabled(true)
	r.logger.Info("Plugin enabled", "plugin", name)
	return nil
}

// Disable transitions a plugin into the disabled state, effective
// immediately for classifier selections; already-dispatched calls complete.
// Accumulated stats and cache entries survive for inspection and re-enable.
// Idempotent: disabling a disabled plugin is a no-op success.
func (r *Registry) Disable(name string) error {
	instance, ok := r.Get(name)
	if !ok {
		return NewPluginNotFoundError(name)
	}
	instance.setEnabled(false)
	r.logger.Info("Plugin disabled", "plugin", name)
	return nil
}

// Get returns the runtime instance for a name, or false if not registered.
func (r *Registry) Get(name string) (*PluginInstance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	instance, ok := r.plugins[name]
	return instance, ok
}

// GetConfig returns the immutable configuration for a name.
func (r *Registry) GetConfig(name string) (PluginConfig, bool) {
	instance, ok := r.Get(name)
	if !ok {
		return PluginConfig{}, false
	}
	return instance.Config(), true
}

// Names returns the registered plugin names in declaration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Snapshot returns the instances in declaration order.
func (r *Registry) Snapshot() []*PluginInstance {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*PluginInstance, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.plugins[name])
	}
	return out
}

// Len returns the number of registered plugins.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// Stats aggregates the admin view: totals, per-plugin summaries in
// declaration order, and the sorted union of all declared intents. O(n) in
// plugin count; each instance is read as a snapshot, never held locked.
func (r *Registry) Stats() EngineStats {
	instances := r.Snapshot()

	stats := EngineStats{
		TotalPlugins: len(instances),
		Plugins:      make([]PluginSummary, 0, len(instances)),
	}

	intentSet := make(map[string]struct{})
	for _, instance := range instances {
		summary := instance.Summary()
		stats.Plugins = append(stats.Plugins, summary)

		if summary.Enabled {
			stats.EnabledPlugins++
		}
		switch summary.Status {
		case StatusReady, StatusDegraded:
			stats.ActiveInstances++
		}
		for _, intent := range summary.Intents {
			intentSet[intent] = struct{}{}
		}
	}

	stats.Intents = make([]string, 0, len(intentSet))
	for intent := range intentSet {
		stats.Intents = append(stats.Intents, intent)
	}
	sort.Strings(stats.Intents)

	return stats
}
