// errors.go: structured error definitions for the connector engine
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goconnectors

import (
	stderrors "errors"

	"github.com/agilira/go-errors"
)

// Error codes for the connector engine
const (
	// Configuration errors (1000-1099)
	ErrCodeInvalidPluginName   = "CONNECT_1001"
	ErrCodeDuplicatePluginName = "CONNECT_1002"
	ErrCodeNoPluginsConfigured = "CONNECT_1003"
	ErrCodeInvalidTimeout      = "CONNECT_1004"
	ErrCodeInvalidBaseURL      = "CONNECT_1005"

	// Configuration management errors (1100-1199)
	ErrCodeConfigNotFound        = "CONFIG_1101"
	ErrCodeConfigParseError      = "CONFIG_1102"
	ErrCodeConfigValidationError = "CONFIG_1103"
	ErrCodeConfigWatcherError    = "CONFIG_1104"

	// Dispatch errors (1200-1299)
	ErrCodePluginNotFound = "CONNECT_1201"
	ErrCodePluginDisabled = "CONNECT_1202"
	ErrCodeFetchFailed    = "CONNECT_1203"
	ErrCodeFetchTimeout   = "CONNECT_1204"

	// Rate limiting errors (1500-1599)
	ErrCodeRateLimitExceeded = "RATELIMIT_1501"

	// Health check errors (1600-1699)
	ErrCodeHealthCheckFailed  = "HEALTH_1601"
	ErrCodeHealthCheckTimeout = "HEALTH_1602"

	// Classification outcomes (1700-1799)
	ErrCodeNoMatch = "CLASSIFY_1701"

	// Lifecycle errors (1900-1999)
	ErrCodeEngineShutdown = "CONNECT_1901"
)

// ErrorCode extracts the engine error code from any error in the chain.
// Returns the empty string for plain errors.
func ErrorCode(err error) string {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return string(e.Code)
	}
	return ""
}

// Configuration error constructors

func NewInvalidPluginNameError(name string) *errors.Error {
	return errors.New(ErrCodeInvalidPluginName, "Invalid plugin name").
		WithUserMessage("Plugin name is required and cannot be empty").
		WithContext("provided_name", name).
		WithSeverity("error")
}

func NewDuplicatePluginNameError(name string) *errors.Error {
	return errors.New(ErrCodeDuplicatePluginName, "Duplicate plugin name").
		WithUserMessage("Plugin names must be unique within the registry").
		WithContext("plugin_name", name).
		WithSeverity("error")
}

func NewNoPluginsConfiguredError() *errors.Error {
	return errors.New(ErrCodeNoPluginsConfigured, "No plugins configured").
		WithUserMessage("At least one plugin must be configured").
		WithSeverity("error")
}

func NewInvalidTimeoutError(name string, timeout interface{}) *errors.Error {
	return errors.New(ErrCodeInvalidTimeout, "Invalid plugin timeout").
		WithUserMessage("Plugin timeout must be a positive duration").
		WithContext("plugin_name", name).
		WithContext("timeout", timeout).
		WithSeverity("error")
}

func NewInvalidBaseURLError(name, baseURL string, cause error) *errors.Error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeInvalidBaseURL, "Invalid base URL").
			WithUserMessage("The configured base URL is malformed").
			WithContext("plugin_name", name).
			WithContext("base_url", baseURL).
			WithSeverity("error")
	}
	return errors.New(ErrCodeInvalidBaseURL, "Invalid base URL").
		WithUserMessage("Base URL must have both scheme and host").
		WithContext("plugin_name", name).
		WithContext("base_url", baseURL).
		WithSeverity("error")
}

// Configuration management error constructors

func NewConfigNotFoundError(path string) *errors.Error {
	return errors.New(ErrCodeConfigNotFound, "Configuration file not found").
		WithUserMessage("The configuration file could not be found").
		WithContext("config_path", path).
		WithSeverity("error")
}

func NewConfigParseError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeConfigParseError, "Configuration parse error").
		WithUserMessage("Failed to parse configuration file").
		WithContext("config_path", path).
		WithSeverity("error")
}

func NewConfigValidationError(message string, cause error) *errors.Error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeConfigValidationError, "Configuration validation error: "+message).
			WithUserMessage("Configuration validation failed").
			WithSeverity("error")
	}
	return errors.New(ErrCodeConfigValidationError, "Configuration validation error: "+message).
		WithUserMessage("Configuration validation failed").
		WithSeverity("error")
}

func NewConfigWatcherError(message string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeConfigWatcherError, "Configuration watcher error: "+message).
		WithUserMessage("Configuration monitoring failed").
		WithSeverity("error")
}

// Dispatch error constructors

func NewPluginNotFoundError(name string) *errors.Error {
	return errors.New(ErrCodePluginNotFound, "Plugin not found").
		WithUserMessage("The requested plugin is not registered").
		WithContext("plugin_name", name).
		WithSeverity("error")
}

func NewPluginDisabledError(name string) *errors.Error {
	return errors.New(ErrCodePluginDisabled, "Plugin disabled").
		WithUserMessage("The requested plugin is administratively disabled").
		WithContext("plugin_name", name).
		WithSeverity("warning")
}

func NewFetchFailedError(name string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeFetchFailed, "Connector fetch failed").
		WithUserMessage("The plugin's connector failed to fetch data").
		WithContext("plugin_name", name).
		WithSeverity("error")
}

func NewFetchTimeoutError(name string, timeout interface{}) *errors.Error {
	return errors.New(ErrCodeFetchTimeout, "Connector fetch timeout").
		WithUserMessage("The fetch exceeded the plugin's configured timeout").
		WithContext("plugin_name", name).
		WithContext("timeout", timeout).
		WithSeverity("warning").
		AsRetryable()
}

// Rate limiting error constructors

func NewRateLimitExceededError(name string, window string) *errors.Error {
	return errors.New(ErrCodeRateLimitExceeded, "Rate limit exceeded").
		WithUserMessage("Request rate limit has been exceeded").
		WithContext("plugin_name", name).
		WithContext("window", window).
		WithSeverity("warning").
		AsRetryable()
}

// Health check error constructors

func NewHealthCheckFailedError(name string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeHealthCheckFailed, "Health check failed").
		WithUserMessage("Plugin health probe failed").
		WithContext("plugin_name", name).
		WithSeverity("warning")
}

func NewHealthCheckTimeoutError(name string, timeout interface{}) *errors.Error {
	return errors.New(ErrCodeHealthCheckTimeout, "Health check timeout").
		WithUserMessage("Plugin health probe timed out").
		WithContext("plugin_name", name).
		WithContext("timeout", timeout).
		WithSeverity("warning").
		AsRetryable()
}

// Classification constructors

// NewNoMatchError reports that intent classification found zero candidate
// plugins. The query path never surfaces this as a failure; it exists for
// callers of the classifier that want a taxonomy error instead of an empty
// slice.
func NewNoMatchError(query string) *errors.Error {
	return errors.New(ErrCodeNoMatch, "No plugin matched the query").
		WithUserMessage("No registered plugin is applicable to this query").
		WithContext("query", query).
		WithSeverity("info")
}

// Lifecycle constructors

func NewEngineShutdownError() *errors.Error {
	return errors.New(ErrCodeEngineShutdown, "Engine is shut down").
		WithUserMessage("The connector engine has been shut down").
		WithSeverity("error")
}
