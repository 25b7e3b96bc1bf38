// config_test.go: Tests for configuration loading, defaults, and validation
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goconnectors

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineConfig_ApplyDefaults(t *testing.T) {
	t.Run("zero_config_gets_documented_defaults", func(t *testing.T) {
		var cfg EngineConfig
		cfg.ApplyDefaults()

		assert.Equal(t, 10*time.Second, cfg.DefaultTimeout)
		assert.Equal(t, 60*time.Second, cfg.DefaultCacheTTL)
		assert.Equal(t, 10, cfg.Degraded.WindowSize)
		assert.Equal(t, 0.5, cfg.Degraded.FailureThreshold)
		assert.Equal(t, 30*time.Second, cfg.HealthCheck.Interval)
		assert.Equal(t, 5*time.Second, cfg.HealthCheck.Timeout)
		assert.Equal(t, 3, cfg.HealthCheck.FailureLimit)
		assert.Equal(t, 3, cfg.MaxPlugins)
	})

	t.Run("plugins_inherit_engine_defaults", func(t *testing.T) {
		cfg := EngineConfig{
			DefaultRateLimit: RateLimitConfig{RequestsPerMinute: 30},
			Plugins: []PluginConfig{
				{Name: "a", Enabled: true},
				{Name: "b", Enabled: true, Timeout: 3 * time.Second, RateLimit: RateLimitConfig{RequestsPerMinute: 5}},
			},
		}
		cfg.ApplyDefaults()

		assert.Equal(t, 10*time.Second, cfg.Plugins[0].Timeout)
		assert.Equal(t, 60*time.Second, cfg.Plugins[0].CacheTTL)
		assert.Equal(t, 30, cfg.Plugins[0].RateLimit.RequestsPerMinute)

		assert.Equal(t, 3*time.Second, cfg.Plugins[1].Timeout, "explicit values are kept")
		assert.Equal(t, 5, cfg.Plugins[1].RateLimit.RequestsPerMinute)
	})
}

func TestEngineConfig_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		cfg := EngineConfig{Plugins: []PluginConfig{
			{Name: "a", Timeout: time.Second},
			{Name: "b", Timeout: time.Second},
		}}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("empty_name", func(t *testing.T) {
		cfg := EngineConfig{Plugins: []PluginConfig{{Name: "  ", Timeout: time.Second}}}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Equal(t, ErrCodeInvalidPluginName, ErrorCode(err))
	})

	t.Run("duplicate_name", func(t *testing.T) {
		cfg := EngineConfig{Plugins: []PluginConfig{
			{Name: "dup", Timeout: time.Second},
			{Name: "dup", Timeout: time.Second},
		}}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Equal(t, ErrCodeDuplicatePluginName, ErrorCode(err))
	})

	t.Run("non_positive_timeout", func(t *testing.T) {
		cfg := EngineConfig{Plugins: []PluginConfig{{Name: "a"}}}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Equal(t, ErrCodeInvalidTimeout, ErrorCode(err))
	})
}

func TestLoadConfigFile(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "engine.yaml")
		content := `
max_plugins: 2
plugins:
  - name: thai_news
    enabled: true
    intents: ["news"]
    rate_limit:
      requests_per_minute: 5
  - name: cultural_sites
    enabled: true
    intents: ["temple", "culture"]
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		cfg, err := LoadConfigFile(path)
		require.NoError(t, err)
		assert.Equal(t, 2, cfg.MaxPlugins)
		require.Len(t, cfg.Plugins, 2)
		assert.Equal(t, "thai_news", cfg.Plugins[0].Name)
		assert.Equal(t, 5, cfg.Plugins[0].RateLimit.RequestsPerMinute)
		assert.Equal(t, []string{"temple", "culture"}, cfg.Plugins[1].Intents)
		assert.Equal(t, 10*time.Second, cfg.Plugins[0].Timeout, "defaults applied on load")
		assert.NoError(t, cfg.Validate())
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "engine.json")
		content := `{"plugins":[{"name":"weather_now","enabled":true,"intents":["weather"]}]}`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		cfg, err := LoadConfigFile(path)
		require.NoError(t, err)
		require.Len(t, cfg.Plugins, 1)
		assert.Equal(t, "weather_now", cfg.Plugins[0].Name)
	})

	t.Run("missing_file", func(t *testing.T) {
		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Equal(t, ErrCodeConfigNotFound, ErrorCode(err))
	})

	t.Run("malformed_yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("plugins: [unclosed"), 0o644))

		_, err := LoadConfigFile(path)
		require.Error(t, err)
		assert.Equal(t, ErrCodeConfigParseError, ErrorCode(err))
	})
}

func TestRateLimitConfig_Unlimited(t *testing.T) {
	assert.True(t, RateLimitConfig{}.Unlimited())
	assert.True(t, RateLimitConfig{RequestsPerMinute: -1}.Unlimited())
	assert.False(t, RateLimitConfig{RequestsPerMinute: 1}.Unlimited())
	assert.False(t, RateLimitConfig{RequestsPerDay: 100}.Unlimited())
}

func TestEngineConfig_ToJSON(t *testing.T) {
	cfg := DefaultEngineConfig()
	data, err := cfg.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), "default_timeout")
}
