// testing_helpers_test.go: Shared connector mocks and config builders
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goconnectors

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"
)

// staticConnector always returns the same payload.
func staticConnector(payload string) Connector {
	return FetchFunc(func(ctx context.Context, params Params) (json.RawMessage, error) {
		return json.RawMessage(payload), nil
	})
}

// failingConnector always returns the given error.
func failingConnector(err error) Connector {
	return FetchFunc(func(ctx context.Context, params Params) (json.RawMessage, error) {
		return nil, err
	})
}

// slowConnector sleeps for delay (honoring context cancellation) before
// returning the payload.
func slowConnector(delay time.Duration, payload string) Connector {
	return FetchFunc(func(ctx context.Context, params Params) (json.RawMessage, error) {
		select {
		case <-time.After(delay):
			return json.RawMessage(payload), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
}

// countingConnector counts invocations and serves a static payload.
type countingConnector struct {
	calls   atomic.Int64
	payload string
	err     error
}

func (c *countingConnector) Fetch(ctx context.Context, params Params) (json.RawMessage, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return json.RawMessage(c.payload), nil
}

func (c *countingConnector) Calls() int64 {
	return c.calls.Load()
}

// closableConnector records whether Close was called.
type closableConnector struct {
	closed atomic.Bool
}

func (c *closableConnector) Fetch(ctx context.Context, params Params) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (c *closableConnector) Close() error {
	c.closed.Store(true)
	return nil
}

// scriptedConnector returns canned outcomes in sequence, repeating the last
// one when the script runs out.
type scriptedConnector struct {
	idx     atomic.Int64
	script  []error
	payload string
}

func (s *scriptedConnector) Fetch(ctx context.Context, params Params) (json.RawMessage, error) {
	i := int(s.idx.Add(1)) - 1
	if i >= len(s.script) {
		i = len(s.script) - 1
	}
	if err := s.script[i]; err != nil {
		return nil, err
	}
	return json.RawMessage(s.payload), nil
}

var errUpstream = errors.New("upstream unavailable")

// testPluginConfig builds a sane enabled config for tests.
func testPluginConfig(name string, intents ...string) PluginConfig {
	return PluginConfig{
		Name:     name,
		Version:  "1.0.0",
		Enabled:  true,
		Timeout:  2 * time.Second,
		CacheTTL: 0,
		Intents:  intents,
	}
}

// newTestEngine builds an engine with health checking and the cache sweeper
// left idle, suitable for direct registration in tests.
func newTestEngine() *Engine {
	cfg := DefaultEngineConfig()
	return NewEngine(cfg, NewNoOpLogger())
}
