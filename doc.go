// Package goconnectors provides a production-ready orchestration engine for
// named external-data connectors ("plugins"). Each plugin wraps one external
// API behind a single Fetch operation and is governed by its own
// configuration, lifecycle state, and runtime statistics.
//
// Key features:
//   - Registry of named plugins with register/unregister/enable/disable
//   - Intent classification routing free-text queries to relevant plugins
//   - Concurrent batch dispatch with per-plugin timeout enforcement
//   - TTL response caching with deterministic parameter canonicalization
//   - Fixed-window rate limiting (per minute, hour, and day)
//   - Health probing with live status and statistics aggregation
//   - Structured errors, pluggable logging, and metrics collection
//
// Basic usage:
//
//	engine := goconnectors.NewEngine(goconnectors.DefaultEngineConfig(), logger)
//
//	cfg, err := goconnectors.LoadConfigFile("connectors.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := engine.LoadFromConfig(cfg); err != nil {
//		log.Fatal(err)
//	}
//
//	// Direct execution by plugin name
//	res, err := engine.Execute(ctx, "thai_news", "get_event_news",
//		goconnectors.Params{"lang": "th"})
//
//	// Intent-based dispatch over a free-text query
//	out, err := engine.Query(ctx, "Wat Phra Kaew opening hours", "en", 3, nil)
//
// Connectors are opaque to the engine: it only measures duration and
// success or failure. Anything exposing Fetch can participate, from real
// HTTP clients to mocked strategies.
//
// Copyright (c) 2025 AGILira - A. Giordano
// SPDX-License-Identifier: MPL-2.0
package goconnectors
