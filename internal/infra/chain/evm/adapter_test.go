package evm

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/vietddude/nodewatch/internal/core/domain"
	"github.com/vietddude/nodewatch/internal/infra/rpc"
)

// MockRPCClient implements rpc.RPCClient for testing
type MockRPCClient struct {
	CallFunc func(ctx context.Context, method string, params any) (json.RawMessage, error)
}

func (m *MockRPCClient) Execute(ctx context.Context, op rpc.Operation) (json.RawMessage, error) {
	return m.CallFunc(ctx, op.Name, op.Params)
}

func TestEVMAdapter_QueryHeight(t *testing.T) {
	mock := &MockRPCClient{
		CallFunc: func(ctx context.Context, method string, params any) (json.RawMessage, error) {
			switch method {
			case "eth_blockNumber":
				return json.RawMessage(`"0x12d687"`), nil // 1234567 in hex
			case "eth_syncing":
				return json.RawMessage(`false`), nil
			}
			return nil, nil
		},
	}

	adapter := NewEVMAdapter(domain.ChainEthereum, mock)
	info, err := adapter.QueryHeight(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Height != 1234567 {
		t.Errorf("expected height 1234567, got %d", info.Height)
	}
	if info.Syncing {
		t.Error("expected node not to be syncing")
	}
}

func TestEVMAdapter_QueryHeight_Syncing(t *testing.T) {
	mock := &MockRPCClient{
		CallFunc: func(ctx context.Context, method string, params any) (json.RawMessage, error) {
			switch method {
			case "eth_blockNumber":
				return json.RawMessage(`"0x64"`), nil
			case "eth_syncing":
				return json.RawMessage(`{"startingBlock":"0x0","currentBlock":"0x64","highestBlock":"0xc8"}`), nil
			}
			return nil, nil
		},
	}

	adapter := NewEVMAdapter(domain.ChainAvalanche, mock)
	info, err := adapter.QueryHeight(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !info.Syncing {
		t.Error("expected node to be syncing")
	}
	if info.Height != 100 || info.HeaderHeight != 200 {
		t.Errorf("expected 100/200, got %d/%d", info.Height, info.HeaderHeight)
	}
}

func TestEVMAdapter_QueryVersion_Forbidden(t *testing.T) {
	mock := &MockRPCClient{
		CallFunc: func(ctx context.Context, method string, params any) (json.RawMessage, error) {
			return nil, &rpc.StatusError{Code: 403}
		},
	}

	adapter := NewEVMAdapter(domain.ChainEthereum, mock)
	_, err := adapter.QueryVersion(context.Background())
	if !rpc.IsForbidden(err) {
		t.Fatalf("expected wrapped 403, got %v", err)
	}
}

func TestParseHexString(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"0x0", 0, false},
		{"0x1b4", 436, false},
		{"ff", 255, false},
		{"0xzz", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseHexString(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseHexString(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHexString(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
