// plugin.go: Core connector interfaces
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goconnectors

import (
	"context"
	"encoding/json"
)

// Params carries the request parameters for a single fetch. Keys and values
// are plain strings so that semantically identical calls canonicalize to the
// same cache key regardless of construction order.
type Params map[string]string

// Clone returns a copy of the parameter set. A nil receiver yields an empty,
// non-nil map so callers can add keys without a nil check.
func (p Params) Clone() Params {
	out := make(Params, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Connector is the single operation a plugin exposes to the engine.
//
// The engine treats a connector as opaque: it only measures duration and
// success or failure. All business logic, response schema, and external
// protocol details belong to the connector implementation. Context must be
// honored for timeouts and cancellation; the dispatcher bounds every call
// with the plugin's configured timeout.
type Connector interface {
	Fetch(ctx context.Context, params Params) (json.RawMessage, error)
}

// FetchFunc adapts a plain function to the Connector interface. It is the
// simplest way to plug in mocked or heuristic strategies next to real
// network-bound connectors.
type FetchFunc func(ctx context.Context, params Params) (json.RawMessage, error)

// Fetch implements Connector.
func (f FetchFunc) Fetch(ctx context.Context, params Params) (json.RawMessage, error) {
	return f(ctx, params)
}

// ConnectorFactory creates connector instances from plugin configuration.
// LoadFromConfig uses the engine's factory to build one connector per
// configured plugin.
type ConnectorFactory interface {
	// CreateConnector creates a new connector for the given configuration.
	CreateConnector(config PluginConfig) (Connector, error)
}

// ConnectorFactoryFunc adapts a function to the ConnectorFactory interface.
type ConnectorFactoryFunc func(config PluginConfig) (Connector, error)

// CreateConnector implements ConnectorFactory.
func (f ConnectorFactoryFunc) CreateConnector(config PluginConfig) (Connector, error) {
	return f(config)
}
