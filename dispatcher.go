// dispatcher.go: Concurrent plugin execution with timeout, cache, and
// rate-limit enforcement
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goconnectors

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ParamIntent is the parameter key under which the dispatcher passes the
// requested intent (operation name) to the connector.
const ParamIntent = "intent"

// Selection names one plugin to dispatch together with its intent and
// parameters.
type Selection struct {
	Plugin string
	Intent string
	Params Params
}

// Dispatcher executes plugin fetches with the full enforcement pipeline:
// disabled check, cache lookup, rate-limit admission, timeout-bounded fetch,
// stats update, and degraded detection. Batches run concurrently with a
// join; per-plugin failures never abort sibling dispatches.
type Dispatcher struct {
	registry   *Registry
	cache      *Cache
	limiter    *RateLimiter
	classifier *IntentClassifier
	logger     Logger
	metrics    MetricsCollector
}

// NewDispatcher wires a dispatcher over shared engine components.
func NewDispatcher(registry *Registry, cache *Cache, limiter *RateLimiter, classifier *IntentClassifier, logger Logger, metrics MetricsCollector) *Dispatcher {
	if metrics == nil {
		metrics = NoOpMetricsCollector{}
	}
	return &Dispatcher{
		registry:   registry,
		cache:      cache,
		limiter:    limiter,
		classifier: classifier,
		logger:     NewLogger(logger),
		metrics:    metrics,
	}
}

// Execute dispatches a single plugin by name.
//
// An unknown name returns a NotFound error immediately. Every other outcome
// is reported both in the Result envelope and as the returned error, so
// direct callers can branch on the taxonomy while batch callers consume the
// envelope alone.
func (d *Dispatcher) Execute(ctx context.Context, plugin, intent string, params Params) (Result, error) {
	instance, ok := d.registry.Get(plugin)
	if !ok {
		return Result{Plugin: plugin}, NewPluginNotFoundError(plugin)
	}

	result := d.dispatch(ctx, instance, intent, params)
	return result, result.Err
}

// DispatchAll executes the selections concurrently and returns the settled
// results indexed by plugin name. The call returns once every dispatch has
// settled (success, cache hit, or failure); a plugin exceeding its timeout
// cancels only its own fetch, never its siblings, so batch wall time tracks
// the slowest member rather than the sum.
func (d *Dispatcher) DispatchAll(ctx context.Context, selections []Selection) map[string]Result {
	results := make([]Result, len(selections))

	var wg sync.WaitGroup
	for i, sel := range selections {
		wg.Add(1)
		go func(slot int, sel Selection) {
			defer wg.Done()
			results[slot] = d.executeOne(ctx, sel)
		}(i, sel)
	}
	wg.Wait()

	indexed := make(map[string]Result, len(results))
	for _, res := range results {
		indexed[res.Plugin] = res
	}
	return indexed
}

// Query classifies a free-text question and dispatches the selected plugins
// in parallel. A query matching no plugin yields NoMatch with an empty
// result set — this is a valid outcome, not an error.
func (d *Dispatcher) Query(ctx context.Context, question, language string, maxPlugins int, params Params) QueryResult {
	start := time.Now()
	requestID := uuid.NewString()

	out := QueryResult{
		RequestID: requestID,
		Results:   map[string]Result{},
	}

	candidates := d.classifier.Classify(question, language, maxPlugins)
	if len(candidates) == 0 {
		out.NoMatch = true
		out.ExecutionTimeMS = time.Since(start).Milliseconds()
		d.logger.Debug("Query matched no plugins",
			"request_id", requestID, "language", language)
		return out
	}

	selections := make([]Selection, 0, len(candidates))
	for _, cand := range candidates {
		out.PluginsUsed = append(out.PluginsUsed, cand.Plugin)
		selections = append(selections, Selection{
			Plugin: cand.Plugin,
			Params: params,
		})
	}

	out.Results = d.DispatchAll(ctx, selections)
	out.ExecutionTimeMS = time.Since(start).Milliseconds()

	d.logger.Info("Query dispatched",
		"request_id", requestID,
		"plugins", len(selections),
		"execution_ms", out.ExecutionTimeMS)
	return out
}

// executeOne resolves a selection against the registry; unknown plugins
// settle as NotFound results inside the batch instead of aborting it.
func (d *Dispatcher) executeOne(ctx context.Context, sel Selection) Result {
	instance, ok := d.registry.Get(sel.Plugin)
	if !ok {
		return failedResult(sel.Plugin, NewPluginNotFoundError(sel.Plugin))
	}
	return d.dispatch(ctx, instance, sel.Intent, sel.Params)
}

// dispatch runs the enforcement pipeline for one plugin. The config is a
// snapshot taken at dispatch start; concurrent admin mutations affect later
// dispatches only.
func (d *Dispatcher) dispatch(ctx context.Context, instance *PluginInstance, intent string, params Params) Result {
	cfg := instance.Config()
	name := cfg.Name
	labels := map[string]string{"plugin": name}

	if !instance.Selectable() {
		return failedResult(name, NewPluginDisabledError(name))
	}

	if intent != "" {
		params = params.Clone()
		params[ParamIntent] = intent
	}

	// Cache hit short-circuits before the rate limiter; cached reads are
	// free of admission accounting.
	if payload, hit := d.cache.Get(name, params); hit {
		d.metrics.IncrementCounter(metricCacheHits, labels, 1)
		return Result{Plugin: name, Payload: payload, Cached: true}
	}

	if !d.limiter.TryAdmit(name) {
		d.metrics.IncrementCounter(metricRateLimited, labels, 1)
		d.logger.Warn("Dispatch rate limited", "plugin", name)
		return failedResult(name, NewRateLimitExceededError(name, "fixed"))
	}

	fetchCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	start := time.Now()
	payload, err := instance.Connector().Fetch(fetchCtx, params)
	latency := time.Since(start)

	d.metrics.IncrementCounter(metricRequestsTotal, labels, 1)
	d.metrics.RecordHistogram(metricFetchSeconds, labels, latency.Seconds())

	if err != nil {
		d.metrics.IncrementCounter(metricRequestsFailure, labels, 1)

		var dispatchErr error
		if errors.Is(err, context.DeadlineExceeded) || fetchCtx.Err() == context.DeadlineExceeded {
			dispatchErr = NewFetchTimeoutError(name, cfg.Timeout.String())
		} else {
			dispatchErr = NewFetchFailedError(name, err)
		}

		instance.RecordFailure(latency, dispatchErr)
		d.logger.Warn("Connector fetch failed",
			"plugin", name,
			"latency", latency,
			"error", err)
		return failedResult(name, dispatchErr)
	}

	d.cache.Put(name, params, payload, cfg.CacheTTL)
	instance.RecordSuccess(latency)

	d.logger.Debug("Connector fetch succeeded",
		"plugin", name, "latency", latency)
	return Result{Plugin: name, Payload: payload, Latency: latency}
}

// failedResult builds the uniform error envelope.
func failedResult(plugin string, err error) Result {
	return Result{
		Plugin:    plugin,
		Err:       err,
		Error:     err.Error(),
		ErrorCode: ErrorCode(err),
	}
}
