package cosmos

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vietddude/nodewatch/internal/core/domain"
	"github.com/vietddude/nodewatch/internal/infra/rpc"
)

func newTendermintServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.Write([]byte(`{"jsonrpc":"2.0","id":-1,"result":{}}`))
		case "/status":
			w.Write([]byte(`{"jsonrpc":"2.0","id":-1,"result":{
				"node_info":{"version":"0.34.27"},
				"sync_info":{"latest_block_height":"15023111","catching_up":true}}}`))
		case "/net_info":
			w.Write([]byte(`{"jsonrpc":"2.0","id":-1,"result":{"n_peers":"4","peers":[
				{"node_info":{"version":"0.34.27"}},
				{"node_info":{"version":"0.34.27"}},
				{"node_info":{"version":"0.34.24"}},
				{"node_info":{"version":""}}]}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestCosmosAdapter_QueryHeight(t *testing.T) {
	server := newTendermintServer(t)
	defer server.Close()

	adapter := NewCosmosAdapter(domain.ChainCosmos, rpc.NewHTTPProvider("gaia", server.URL, 5*time.Second))

	info, err := adapter.QueryHeight(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Height != 15023111 {
		t.Errorf("expected height 15023111, got %d", info.Height)
	}
	if !info.Syncing {
		t.Error("expected catching_up to map to syncing")
	}
}

func TestCosmosAdapter_PingAndVersion(t *testing.T) {
	server := newTendermintServer(t)
	defer server.Close()

	adapter := NewCosmosAdapter(domain.ChainCosmos, rpc.NewHTTPProvider("gaia", server.URL, 5*time.Second))

	if err := adapter.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}

	version, err := adapter.QueryVersion(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if version != "0.34.27" {
		t.Errorf("expected 0.34.27, got %s", version)
	}
}

func TestCosmosAdapter_Versions(t *testing.T) {
	server := newTendermintServer(t)
	defer server.Close()

	adapter := NewCosmosAdapter(domain.ChainCosmos, rpc.NewHTTPProvider("gaia", server.URL, 5*time.Second))

	versions, err := adapter.Versions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if versions["0.34.27"] != 2 || versions["0.34.24"] != 1 {
		t.Errorf("unexpected version counts: %v", versions)
	}
	if _, ok := versions[""]; ok {
		t.Error("empty versions must be skipped")
	}
}

func TestDecodeResult_BareObject(t *testing.T) {
	var status Status
	body := []byte(`{"sync_info":{"latest_block_height":"42","catching_up":false}}`)
	if err := DecodeResult(body, &status); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h, err := status.Height()
	if err != nil || h != 42 {
		t.Errorf("expected 42, got %d (%v)", h, err)
	}
}
