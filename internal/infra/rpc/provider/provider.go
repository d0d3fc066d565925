// Package provider implements the transports used to query nodes.
//
// This package contains:
//   - Operation: a transport-agnostic description of one call
//   - HTTPProvider: JSON-RPC 1.0/2.0 and REST over HTTP
//   - Typed errors: ErrUnavailable, StatusError, RPCError
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Operation represents a single call against a node or reference API.
type Operation struct {
	// Name identifies the operation: the JSON-RPC method or the REST path.
	Name string

	// Params for JSON-RPC calls. Positional ([]any) for both versions.
	Params any

	// IsREST indicates a REST call instead of JSON-RPC.
	IsREST bool

	// RESTMethod specifies the HTTP method for REST calls. Defaults to GET.
	RESTMethod string

	// JSONRPCVersion is "1.0" or "2.0". Empty means "2.0".
	JSONRPCVersion string
}

// Provider is anything that can execute an Operation.
type Provider interface {
	// GetName returns the endpoint label used in logs and metrics.
	GetName() string

	// GetHealth returns call statistics for the endpoint.
	GetHealth() HealthStatus

	// Execute performs the operation and returns the raw JSON result.
	Execute(ctx context.Context, op Operation) (json.RawMessage, error)
}

// HealthStatus summarises recent calls against an endpoint.
type HealthStatus struct {
	Available     bool          `json:"available"`
	Latency       time.Duration `json:"latency"`
	ErrorRate     float64       `json:"error_rate"`
	LastSuccessAt time.Time     `json:"last_success_at"`
	LastFailureAt time.Time     `json:"last_failure_at"`
}

// ErrUnavailable wraps every transport level failure: refused connections,
// timeouts, unreadable bodies.
var ErrUnavailable = errors.New("endpoint unavailable")

// StatusError is returned when the endpoint answers with an unexpected HTTP status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http %d", e.Code)
	}
	return fmt.Sprintf("http %d: %s", e.Code, e.Body)
}

// RPCError is a JSON-RPC error object returned with HTTP 200.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// StatusCode extracts the HTTP status from err, if any.
func StatusCode(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return 0, false
}

// IsForbidden reports whether the endpoint refused the call with 403.
func IsForbidden(err error) bool {
	code, ok := StatusCode(err)
	return ok && code == 403
}
