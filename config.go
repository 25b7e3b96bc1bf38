// config.go: Configuration structures and loading for the connector engine
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goconnectors

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// RateLimitConfig holds the fixed-window admission ceilings for one plugin.
//
// Each window (minute, hour, day) tracks its own counter and reset
// timestamp. A request is admitted only when all configured windows are
// under their ceiling; admission increments all of them atomically. A zero
// or negative ceiling disables that window.
//
// The fixed-window strategy resets counters at fixed time boundaries rather
// than continuously sliding, which keeps bookkeeping O(1) at the cost of
// burst-at-boundary imprecision.
type RateLimitConfig struct {
	RequestsPerMinute int `json:"requests_per_minute" yaml:"requests_per_minute"`
	RequestsPerHour   int `json:"requests_per_hour" yaml:"requests_per_hour"`
	RequestsPerDay    int `json:"requests_per_day" yaml:"requests_per_day"`
}

// Unlimited reports whether no window carries a ceiling.
func (rl RateLimitConfig) Unlimited() bool {
	return rl.RequestsPerMinute <= 0 && rl.RequestsPerHour <= 0 && rl.RequestsPerDay <= 0
}

// HealthCheckConfig controls the health monitor's probing behavior.
type HealthCheckConfig struct {
	Enabled      bool          `json:"enabled" yaml:"enabled"`
	Interval     time.Duration `json:"interval" yaml:"interval"`
	Timeout      time.Duration `json:"timeout" yaml:"timeout"`
	FailureLimit int           `json:"failure_limit" yaml:"failure_limit"`
}

// DegradedPolicy controls when a plugin transitions to StatusDegraded.
//
// The dispatcher keeps a trailing window of the last WindowSize fetch
// outcomes per plugin; once the window holds at least WindowSize samples and
// the failure fraction exceeds FailureThreshold, the plugin is marked
// degraded. A subsequent success restores StatusReady.
type DegradedPolicy struct {
	WindowSize       int     `json:"window_size" yaml:"window_size"`
	FailureThreshold float64 `json:"failure_threshold" yaml:"failure_threshold"`
}

// PluginConfig is the immutable per-plugin configuration, created at startup
// (or registration) and never mutated afterwards. The admin enable/disable
// operations act on the runtime instance, not on this structure.
type PluginConfig struct {
	// Identity and display metadata
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`

	// Enabled sets the initial administrative state at registration.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Timeout bounds a single fetch; enforced by the dispatcher and never
	// relaxed per-call.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// CacheTTL is how long a cached response remains valid. Zero disables
	// caching for this plugin.
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl"`

	RateLimit RateLimitConfig `json:"rate_limit" yaml:"rate_limit"`

	// Intents are the intent tags this plugin claims to serve; the
	// classifier matches queries against them and their keyword lexicon.
	Intents []string `json:"intents" yaml:"intents"`

	// Connection parameters for the wrapped external API.
	BaseURL string            `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// EngineConfig is the top-level configuration for the engine: global
// defaults applied to plugins that omit values, engine-wide policies, and
// the plugin definitions themselves.
type EngineConfig struct {
	// Defaults applied to plugins that don't specify their own values.
	DefaultTimeout   time.Duration   `json:"default_timeout" yaml:"default_timeout"`
	DefaultCacheTTL  time.Duration   `json:"default_cache_ttl" yaml:"default_cache_ttl"`
	DefaultRateLimit RateLimitConfig `json:"default_rate_limit" yaml:"default_rate_limit"`

	// Engine-wide policies.
	Degraded    DegradedPolicy    `json:"degraded" yaml:"degraded"`
	HealthCheck HealthCheckConfig `json:"health_check" yaml:"health_check"`

	// MaxPlugins bounds how many candidates a query dispatches by default.
	MaxPlugins int `json:"max_plugins" yaml:"max_plugins"`

	Plugins []PluginConfig `json:"plugins" yaml:"plugins"`
}

// DefaultEngineConfig returns the engine defaults applied when a field is
// left unset. The degraded policy default (10-call trailing window, >50%
// failures) is deliberate and documented rather than guessed per-site.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		DefaultTimeout:  10 * time.Second,
		DefaultCacheTTL: 60 * time.Second,
		Degraded: DegradedPolicy{
			WindowSize:       10,
			FailureThreshold: 0.5,
		},
		HealthCheck: HealthCheckConfig{
			Enabled:      false,
			Interval:     30 * time.Second,
			Timeout:      5 * time.Second,
			FailureLimit: 3,
		},
		MaxPlugins: 3,
	}
}

// ApplyDefaults fills unset engine and plugin fields from the defaults.
func (ec *EngineConfig) ApplyDefaults() {
	base := DefaultEngineConfig()

	if ec.DefaultTimeout <= 0 {
		ec.DefaultTimeout = base.DefaultTimeout
	}
	if ec.DefaultCacheTTL <= 0 {
		ec.DefaultCacheTTL = base.DefaultCacheTTL
	}
	if ec.Degraded.WindowSize <= 0 {
		ec.Degraded.WindowSize = base.Degraded.WindowSize
	}
	if ec.Degraded.FailureThreshold <= 0 {
		ec.Degraded.FailureThreshold = base.Degraded.FailureThreshold
	}
	if ec.HealthCheck.Interval <= 0 {
		ec.HealthCheck.Interval = base.HealthCheck.Interval
	}
	if ec.HealthCheck.Timeout <= 0 {
		ec.HealthCheck.Timeout = base.HealthCheck.Timeout
	}
	if ec.HealthCheck.FailureLimit <= 0 {
		ec.HealthCheck.FailureLimit = base.HealthCheck.FailureLimit
	}
	if ec.MaxPlugins <= 0 {
		ec.MaxPlugins = base.MaxPlugins
	}

	for i := range ec.Plugins {
		plugin := &ec.Plugins[i]
		if plugin.Timeout <= 0 {
			plugin.Timeout = ec.DefaultTimeout
		}
		if plugin.CacheTTL <= 0 {
			plugin.CacheTTL = ec.DefaultCacheTTL
		}
		if plugin.RateLimit.Unlimited() && !ec.DefaultRateLimit.Unlimited() {
			plugin.RateLimit = ec.DefaultRateLimit
		}
	}
}

// Validate checks the configuration for structural problems: empty or
// duplicate plugin names and non-positive timeouts. Call after
// ApplyDefaults.
func (ec *EngineConfig) Validate() error {
	seen := make(map[string]struct{}, len(ec.Plugins))
	for _, plugin := range ec.Plugins {
		if strings.TrimSpace(plugin.Name) == "" {
			return NewInvalidPluginNameError(plugin.Name)
		}
		if _, dup := seen[plugin.Name]; dup {
			return NewDuplicatePluginNameError(plugin.Name)
		}
		seen[plugin.Name] = struct{}{}

		if plugin.Timeout <= 0 {
			return NewInvalidTimeoutError(plugin.Name, plugin.Timeout.String())
		}
	}
	return nil
}

// LoadConfigFile reads an engine configuration from a YAML or JSON file,
// chosen by extension, and applies defaults. Validation is left to the
// caller (the engine validates on LoadFromConfig).
func LoadConfigFile(path string) (EngineConfig, error) {
	var cfg EngineConfig

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, NewConfigNotFoundError(path)
		}
		return cfg, NewConfigParseError(path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, NewConfigParseError(path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, NewConfigParseError(path, err)
		}
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

// ToJSON renders the configuration for diagnostics and admin tooling.
func (ec *EngineConfig) ToJSON() ([]byte, error) {
	return json.MarshalIndent(ec, "", "  ")
}
