// Package mal provides an OAuth2 (PKCE) client for the MyAnimeList REST API.
package mal

import (
	"errors"
	"fmt"
)

// Sentinel errors for token lifecycle states.
var (
	// ErrNoToken signals that a token store holds no cached session.
	// It is an expected condition, not a failure.
	ErrNoToken = errors.New("mal: no cached token")

	// ErrUnauthorized signals that the client holds no usable token set and
	// the user must complete the login flow.
	ErrUnauthorized = errors.New("mal: unauthorized, login required")

	// ErrNotFound signals that the requested API resource does not exist.
	ErrNotFound = errors.New("mal: not found")
)

// ConfigError reports invalid or missing client configuration, such as an
// empty client ID or a malformed redirect URI.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "mal: configuration: " + e.Reason
}

// CallbackError reports a failed authorization callback: the listener never
// received a redirect, the redirect carried malformed parameters, or the
// provider reported user denial. It is distinct from ExchangeError so callers
// can tell "user declined" apart from a transport failure.
type CallbackError struct {
	Reason string
	Cause  error
}

func (e *CallbackError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("mal: callback: %s: %v", e.Reason, e.Cause)
	}
	return "mal: callback: " + e.Reason
}

func (e *CallbackError) Unwrap() error { return e.Cause }

// ExchangeError reports a failed token endpoint call, either during the
// authorization code exchange or a refresh exchange.
type ExchangeError struct {
	Op         string // "exchange" or "refresh"
	StatusCode int    // zero when the request never completed
	Body       string
	Cause      error
}

func (e *ExchangeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("mal: %s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("mal: %s: token endpoint returned %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *ExchangeError) Unwrap() error { return e.Cause }

// CacheError reports a token store read or write failure. It is non-fatal:
// the login flow proceeds in-memory without persistence, and the condition is
// surfaced so the caller can decide whether to continue.
type CacheError struct {
	Op    string // "load", "save" or "delete"
	Cause error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("mal: token cache %s: %v", e.Op, e.Cause)
}

func (e *CacheError) Unwrap() error { return e.Cause }

// APIError reports a non-success response from a REST endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("mal: api returned %d", e.StatusCode)
	}
	return fmt.Sprintf("mal: api returned %d: %s", e.StatusCode, e.Message)
}
