// http_connector.go: HTTP-backed connector for wrapping external REST APIs
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goconnectors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPConnector fetches from an external HTTP API. Request parameters become
// query-string values on the configured base URL; the response body is
// returned verbatim as the payload.
//
// The connector does not retry and does not interpret the body. Timeout
// enforcement comes from the dispatcher's context; the client itself has no
// hard timeout so the per-plugin configuration stays the single source of
// truth.
type HTTPConnector struct {
	baseURL *url.URL
	headers map[string]string
	client  *http.Client
}

// NewHTTPConnector creates a connector for the given base URL. Headers are
// applied to every request (API keys, Accept overrides).
func NewHTTPConnector(name, baseURL string, headers map[string]string) (*HTTPConnector, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, NewInvalidBaseURLError(name, baseURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, NewInvalidBaseURLError(name, baseURL, nil)
	}

	return &HTTPConnector{
		baseURL: parsed,
		headers: headers,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// Fetch implements Connector. Parameters are encoded as query values on top
// of any query already present in the base URL.
func (hc *HTTPConnector) Fetch(ctx context.Context, params Params) (json.RawMessage, error) {
	target := *hc.baseURL
	query := target.Query()
	for k, v := range params {
		query.Set(k, v)
	}
	target.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range hc.headers {
		req.Header.Set(k, v)
	}

	resp, err := hc.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}
	return body, nil
}

// Close releases idle connections. Called by the registry on unregister.
func (hc *HTTPConnector) Close() error {
	hc.client.CloseIdleConnections()
	return nil
}

// DefaultConnectorFactory builds HTTPConnector instances from plugin
// configuration. It is the factory LoadFromConfig uses unless the engine is
// given another one.
type DefaultConnectorFactory struct{}

// CreateConnector implements ConnectorFactory. A plugin without a base URL
// cannot be built by this factory; register such plugins programmatically
// with their own connector.
func (DefaultConnectorFactory) CreateConnector(config PluginConfig) (Connector, error) {
	if config.BaseURL == "" {
		return nil, NewInvalidBaseURLError(config.Name, config.BaseURL, nil)
	}
	return NewHTTPConnector(config.Name, config.BaseURL, config.Headers)
}
