package rpc

import (
	"net/http"

	"github.com/vietddude/nodewatch/internal/infra/rpc/provider"
)

// NewHTTPOperation creates an Operation for JSON-RPC 2.0 calls.
func NewHTTPOperation(method string, params ...any) Operation {
	var p any = params
	if len(params) == 0 {
		p = nil
	}
	return provider.Operation{
		Name:   method,
		Params: p,
	}
}

// NewRESTOperation creates an Operation for REST API calls.
func NewRESTOperation(path string, method string, body any) Operation {
	return provider.Operation{
		Name:       path,
		Params:     body,
		IsREST:     true,
		RESTMethod: method,
	}
}

// NewGetOperation creates a REST GET Operation.
func NewGetOperation(path string) Operation {
	return NewRESTOperation(path, http.MethodGet, nil)
}

// NewJSONRPC10Operation creates an Operation for JSON-RPC 1.0 calls.
func NewJSONRPC10Operation(method string, params ...any) Operation {
	var p any = params
	if len(params) == 0 {
		p = nil
	}
	return provider.Operation{
		Name:           method,
		Params:         p, // 1.0 uses positional params
		JSONRPCVersion: "1.0",
	}
}
