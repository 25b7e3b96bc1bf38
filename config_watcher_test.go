// config_watcher_test.go: Tests for configuration reconciliation
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goconnectors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func watcherFixture(t *testing.T) (*Engine, *ConfigWatcher) {
	t.Helper()
	engine := newTestEngine()
	t.Cleanup(func() { _ = engine.Shutdown(context.Background()) })

	engine.SetConnectorFactory(ConnectorFactoryFunc(func(cfg PluginConfig) (Connector, error) {
		return staticConnector(`{"plugin":"` + cfg.Name + `"}`), nil
	}))

	watcher, err := NewConfigWatcher(engine, "unused.yaml", NewNoOpLogger())
	require.NoError(t, err)
	return engine, watcher
}

func managedConfig(plugins ...PluginConfig) EngineConfig {
	cfg := EngineConfig{Plugins: plugins}
	cfg.ApplyDefaults()
	return cfg
}

func TestConfigWatcher_ReconcileAddsNewPlugins(t *testing.T) {
	engine, watcher := watcherFixture(t)

	watcher.reconcile(managedConfig(
		PluginConfig{Name: "thai_news", Enabled: true, Intents: []string{"news"}},
	))

	assert.Equal(t, 1, engine.Stats().TotalPlugins)
	_, err := engine.Execute(context.Background(), "thai_news", "", nil)
	assert.NoError(t, err)
}

func TestConfigWatcher_ReconcileTogglesEnabled(t *testing.T) {
	engine, watcher := watcherFixture(t)

	watcher.reconcile(managedConfig(
		PluginConfig{Name: "thai_news", Enabled: true},
	))
	_, err := engine.Execute(context.Background(), "thai_news", "", nil)
	require.NoError(t, err)

	watcher.reconcile(managedConfig(
		PluginConfig{Name: "thai_news", Enabled: false},
	))
	_, err = engine.Execute(context.Background(), "thai_news", "", nil)
	require.Error(t, err)
	assert.Equal(t, ErrCodePluginDisabled, ErrorCode(err))

	watcher.reconcile(managedConfig(
		PluginConfig{Name: "thai_news", Enabled: true},
	))
	_, err = engine.Execute(context.Background(), "thai_news", "", nil)
	assert.NoError(t, err)
}

func TestConfigWatcher_ReconcileRemovesManagedPlugins(t *testing.T) {
	engine, watcher := watcherFixture(t)

	watcher.reconcile(managedConfig(
		PluginConfig{Name: "thai_news", Enabled: true},
		PluginConfig{Name: "weather_now", Enabled: true},
	))
	require.Equal(t, 2, engine.Stats().TotalPlugins)

	watcher.reconcile(managedConfig(
		PluginConfig{Name: "thai_news", Enabled: true},
	))

	assert.Equal(t, 1, engine.Stats().TotalPlugins)
	_, err := engine.Execute(context.Background(), "weather_now", "", nil)
	require.Error(t, err)
	assert.Equal(t, ErrCodePluginNotFound, ErrorCode(err))
}

func TestConfigWatcher_ReconcileLeavesProgrammaticPluginsAlone(t *testing.T) {
	engine, watcher := watcherFixture(t)

	// Registered directly, not through configuration.
	require.NoError(t, engine.RegisterPlugin(testPluginConfig("manual_plugin"), staticConnector(`{}`)))

	watcher.reconcile(managedConfig(
		PluginConfig{Name: "thai_news", Enabled: true},
	))

	assert.Equal(t, 2, engine.Stats().TotalPlugins)
	_, err := engine.Execute(context.Background(), "manual_plugin", "", nil)
	assert.NoError(t, err, "reconciliation must never remove programmatic plugins")
}

func TestConfigWatcher_StopWithoutStart(t *testing.T) {
	_, watcher := watcherFixture(t)

	watcher.Stop()
	watcher.Stop()

	err := watcher.Start()
	require.Error(t, err, "a stopped watcher cannot be restarted")
	assert.Equal(t, ErrCodeConfigWatcherError, ErrorCode(err))
}
