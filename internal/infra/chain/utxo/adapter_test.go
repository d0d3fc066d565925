package utxo

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/vietddude/nodewatch/internal/core/domain"
	"github.com/vietddude/nodewatch/internal/infra/rpc"
)

// MockRPCClient implements rpc.RPCClient for testing
type MockRPCClient struct {
	CallFunc func(ctx context.Context, method string, params any) (json.RawMessage, error)
}

func (m *MockRPCClient) Execute(ctx context.Context, op rpc.Operation) (json.RawMessage, error) {
	if op.JSONRPCVersion != "1.0" {
		return nil, errors.New("expected a JSON-RPC 1.0 operation")
	}
	return m.CallFunc(ctx, op.Name, op.Params)
}

func TestUTXOAdapter_QueryHeight(t *testing.T) {
	mock := &MockRPCClient{
		CallFunc: func(ctx context.Context, method string, params any) (json.RawMessage, error) {
			if method == "getblockchaininfo" {
				return json.RawMessage(`{"chain":"main","blocks":480,"headers":500,"initialblockdownload":false}`), nil
			}
			return nil, nil
		},
	}

	adapter := NewUTXOAdapter(domain.ChainBitcoin, mock)
	info, err := adapter.QueryHeight(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Height != 480 || info.HeaderHeight != 500 {
		t.Errorf("expected 480/500, got %d/%d", info.Height, info.HeaderHeight)
	}
	if !info.MidSync() {
		t.Error("expected node to be mid-sync")
	}
}

func TestUTXOAdapter_QueryVersion(t *testing.T) {
	mock := &MockRPCClient{
		CallFunc: func(ctx context.Context, method string, params any) (json.RawMessage, error) {
			if method == "getnetworkinfo" {
				return json.RawMessage(`{"version":250000,"subversion":"/Satoshi:25.0.0/"}`), nil
			}
			return nil, nil
		},
	}

	adapter := NewUTXOAdapter(domain.ChainBitcoin, mock)
	version, err := adapter.QueryVersion(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if version != "/Satoshi:25.0.0/" {
		t.Errorf("unexpected version %q", version)
	}
}

func TestUTXOAdapter_PingPropagatesError(t *testing.T) {
	mock := &MockRPCClient{
		CallFunc: func(ctx context.Context, method string, params any) (json.RawMessage, error) {
			return nil, &rpc.StatusError{Code: 401}
		},
	}

	adapter := NewUTXOAdapter(domain.ChainLitecoin, mock)
	err := adapter.Ping(context.Background())
	if code, ok := rpc.StatusCode(err); !ok || code != 401 {
		t.Fatalf("expected wrapped 401, got %v", err)
	}
}
