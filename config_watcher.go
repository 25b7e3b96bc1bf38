// config_watcher.go: Hot reload of the plugin configuration file with Argus
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goconnectors

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/agilira/argus"
)

// ConfigWatcher hot-reloads the engine's plugin configuration file. On each
// change it reconciles the file against the running engine:
//
//   - plugins present in the file but not registered are registered
//   - plugins whose enabled flag flipped are enabled or disabled
//   - config-managed plugins missing from the file are unregistered
//
// Programmatically registered plugins are never touched by reconciliation;
// only plugins the engine loaded from configuration are managed.
type ConfigWatcher struct {
	engine  *Engine
	watcher *argus.Watcher
	path    string
	logger  Logger

	enabled  atomic.Bool
	stopped  atomic.Bool
	stopOnce sync.Once
	mu       sync.Mutex
}

// NewConfigWatcher creates a watcher for the given configuration file. The
// file must exist and parse when Start is called.
func NewConfigWatcher(engine *Engine, path string, logger any) (*ConfigWatcher, error) {
	log := NewLogger(logger)

	cw := &ConfigWatcher{
		engine: engine,
		path:   path,
		logger: log,
	}

	cw.watcher = argus.New(argus.Config{
		PollInterval:         2 * time.Second,
		MaxWatchedFiles:      5,
		OptimizationStrategy: argus.OptimizationSingleEvent,
		ErrorHandler: func(err error, filepath string) {
			log.Error("Config file watching error", "error", err, "file", filepath)
		},
	})
	return cw, nil
}

// Start begins watching. Idempotent against double starts; a stopped
// watcher cannot be restarted.
func (cw *ConfigWatcher) Start() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.stopped.Load() {
		return NewConfigWatcherError("watcher has been stopped and cannot restart", nil)
	}
	if !cw.enabled.CompareAndSwap(false, true) {
		return NewConfigWatcherError("watcher is already running", nil)
	}

	if err := cw.watcher.Watch(cw.path, cw.handleChange); err != nil {
		cw.enabled.Store(false)
		return NewConfigWatcherError("failed to watch config file", err)
	}
	if err := cw.watcher.Start(); err != nil {
		cw.enabled.Store(false)
		return NewConfigWatcherError("failed to start config watcher", err)
	}

	cw.logger.Info("Config watcher started", "config_path", cw.path)
	return nil
}

// Stop halts watching permanently. Safe to call multiple times.
func (cw *ConfigWatcher) Stop() {
	cw.stopOnce.Do(func() {
		cw.mu.Lock()
		defer cw.mu.Unlock()

		if !cw.enabled.Load() {
			cw.stopped.Store(true)
			return
		}
		cw.stopped.Store(true)
		cw.enabled.Store(false)

		if err := cw.watcher.Stop(); err != nil {
			cw.logger.Warn("Error stopping config watcher", "error", err)
		}
		cw.logger.Info("Config watcher stopped", "config_path", cw.path)
	})
}

// handleChange reloads the file and reconciles it into the engine. Delete
// events are skipped: a deleted config file never tears down the running
// plugin set.
func (cw *ConfigWatcher) handleChange(event argus.ChangeEvent) {
	if event.IsDelete {
		cw.logger.Warn("Config file deleted, keeping current plugin set",
			"path", event.Path)
		return
	}

	config, err := LoadConfigFile(cw.path)
	if err != nil {
		cw.logger.Error("Config reload failed, keeping current plugin set",
			"path", cw.path, "error", err)
		return
	}
	if err := config.Validate(); err != nil {
		cw.logger.Error("Config reload rejected by validation",
			"path", cw.path, "error", err)
		return
	}

	cw.reconcile(config)
}

// reconcile applies the freshly loaded configuration to the engine.
func (cw *ConfigWatcher) reconcile(config EngineConfig) {
	engine := cw.engine

	desired := make(map[string]PluginConfig, len(config.Plugins))
	for _, cfg := range config.Plugins {
		desired[cfg.Name] = cfg
	}

	var added, flipped, removed int

	for name, cfg := range desired {
		instance, registered := engine.registry.Get(name)
		if !registered {
			connector, err := engine.factory.CreateConnector(cfg)
			if err != nil {
				cw.logger.Error("Reload: connector creation failed",
					"plugin", name, "error", err)
				continue
			}
			if err := engine.RegisterPlugin(cfg, connector); err != nil {
				cw.logger.Error("Reload: registration failed",
					"plugin", name, "error", err)
				continue
			}
			engine.mu.Lock()
			engine.configManaged[name] = struct{}{}
			engine.mu.Unlock()
			added++
			continue
		}

		if instance.Enabled() != cfg.Enabled {
			var err error
			if cfg.Enabled {
				err = engine.EnablePlugin(name)
			} else {
				err = engine.DisablePlugin(name)
			}
			if err != nil {
				cw.logger.Error("Reload: enable/disable failed",
					"plugin", name, "error", err)
				continue
			}
			flipped++
		}
	}

	engine.mu.Lock()
	managed := make([]string, 0, len(engine.configManaged))
	for name := range engine.configManaged {
		managed = append(managed, name)
	}
	engine.mu.Unlock()

	for _, name := range managed {
		if _, stillWanted := desired[name]; !stillWanted {
			if engine.UnregisterPlugin(name) {
				removed++
			}
		}
	}

	cw.logger.Info("Configuration reloaded",
		"path", cw.path,
		"added", added,
		"toggled", flipped,
		"removed", removed)
}
