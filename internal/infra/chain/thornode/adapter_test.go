package thornode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vietddude/nodewatch/internal/core/domain"
	"github.com/vietddude/nodewatch/internal/infra/rpc"
)

const nodesFixture = `[
  {"node_address":"thor1aaaa","status":"Active","version":"1.121.0","slash_points":12,
   "total_bond":"150000000000000","current_award":"2500000000",
   "jail":{},"observe_chains":[{"chain":"BTC","height":800000},{"chain":"ETH","height":18000000}]},
  {"node_address":"thor1bbbb","status":"Active","version":"1.121.0","slash_points":"640",
   "total_bond":"120000000000000","current_award":"2000000000",
   "jail":{"release_height":14000000,"reason":"failed to perform keysign"},
   "observe_chains":[{"chain":"BTC","height":799998}]},
  {"node_address":"thor1cccc","status":"Standby","version":"1.120.0","slash_points":0,
   "total_bond":"30000000000000","current_award":"0","jail":{},"observe_chains":null}
]`

func newThornodeServers(t *testing.T, pong string) (*httptest.Server, *httptest.Server) {
	t.Helper()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/thorchain/ping":
			w.Write([]byte(`{"ping":"` + pong + `"}`))
		case "/thorchain/version":
			w.Write([]byte(`{"current":"1.121.0","next":"1.121.0","querier":"1.121.0"}`))
		case "/thorchain/nodes":
			w.Write([]byte(nodesFixture))
		case "/thorchain/node/thor1bbbb":
			w.Write([]byte(`{"node_address":"thor1bbbb","status":"Active","jail":{"release_height":14000000}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	tendermint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.Write([]byte(`{"result":{}}`))
		case "/status":
			w.Write([]byte(`{"result":{"node_info":{"version":"0.34.27"},
				"sync_info":{"latest_block_height":"13999000","catching_up":false}}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	return api, tendermint
}

func newAdapter(api, tendermint *httptest.Server) *ThornodeAdapter {
	return NewThornodeAdapter(
		rpc.NewHTTPProvider("thornode-api", api.URL, 5*time.Second),
		rpc.NewHTTPProvider("thornode-rpc", tendermint.URL, 5*time.Second),
	)
}

func TestThornodeAdapter_Ping(t *testing.T) {
	api, tendermint := newThornodeServers(t, "pong")
	defer api.Close()
	defer tendermint.Close()

	if err := newAdapter(api, tendermint).Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestThornodeAdapter_PingWrongAnswer(t *testing.T) {
	api, tendermint := newThornodeServers(t, "ping")
	defer api.Close()
	defer tendermint.Close()

	if err := newAdapter(api, tendermint).Ping(context.Background()); err == nil {
		t.Fatal("expected error when node does not answer pong")
	}
}

func TestThornodeAdapter_HeightAndVersion(t *testing.T) {
	api, tendermint := newThornodeServers(t, "pong")
	defer api.Close()
	defer tendermint.Close()

	adapter := newAdapter(api, tendermint)
	if adapter.Family() != domain.FamilyThornode {
		t.Errorf("unexpected family %s", adapter.Family())
	}

	info, err := adapter.QueryHeight(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Height != 13999000 {
		t.Errorf("expected 13999000, got %d", info.Height)
	}

	version, err := adapter.QueryVersion(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if version != "1.121.0" {
		t.Errorf("expected 1.121.0, got %s", version)
	}
}

func TestThornodeAdapter_NodesAndVersions(t *testing.T) {
	api, tendermint := newThornodeServers(t, "pong")
	defer api.Close()
	defer tendermint.Close()

	adapter := newAdapter(api, tendermint)

	nodes, err := adapter.Nodes(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(nodes))
	}
	if len(ActiveNodes(nodes)) != 2 {
		t.Errorf("expected 2 active nodes")
	}

	b, ok := FindNode(nodes, "thor1bbbb")
	if !ok {
		t.Fatal("expected to find thor1bbbb")
	}
	if b.SlashPoints != 640 {
		t.Errorf("expected string encoded slash points to parse, got %d", b.SlashPoints)
	}
	if b.TotalBond.Rune() != 1200000 {
		t.Errorf("expected bond of 1200000 RUNE, got %f", b.TotalBond.Rune())
	}
	if h, ok := b.ObservedHeight("btc"); !ok || h != 799998 {
		t.Errorf("expected BTC observation 799998, got %d", h)
	}

	versions, err := adapter.Versions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if versions["1.121.0"] != 2 || len(versions) != 1 {
		t.Errorf("expected only active versions to be counted, got %v", versions)
	}

	node, err := adapter.Node(context.Background(), "thor1bbbb")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if node.Jail.ReleaseHeight != 14000000 {
		t.Errorf("unexpected release height %d", node.Jail.ReleaseHeight)
	}
}
