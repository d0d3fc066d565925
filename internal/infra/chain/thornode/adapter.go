package thornode

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vietddude/nodewatch/internal/core/domain"
	"github.com/vietddude/nodewatch/internal/infra/chain/cosmos"
	"github.com/vietddude/nodewatch/internal/infra/rpc"
)

// ThornodeAdapter combines the THORNode REST API with the Tendermint RPC
// of the underlying Cosmos-SDK node.
type ThornodeAdapter struct {
	*cosmos.CosmosAdapter
	api rpc.RPCClient
}

// NewThornodeAdapter takes the REST API client (port 1317) and the
// Tendermint RPC client (port 27147).
func NewThornodeAdapter(api rpc.RPCClient, tendermint rpc.RPCClient) *ThornodeAdapter {
	return &ThornodeAdapter{
		CosmosAdapter: cosmos.NewCosmosAdapter(domain.ChainThorchain, tendermint),
		api:           api,
	}
}

func (a *ThornodeAdapter) Family() domain.ChainFamily {
	return domain.FamilyThornode
}

// Ping requires the API to answer pong and the Tendermint RPC to be healthy.
func (a *ThornodeAdapter) Ping(ctx context.Context) error {
	var resp struct {
		Ping string `json:"ping"`
	}
	if err := a.get(ctx, "/thorchain/ping", &resp); err != nil {
		return err
	}
	if resp.Ping != "pong" {
		return fmt.Errorf("node answered ping with %q instead of pong", resp.Ping)
	}
	return a.CosmosAdapter.Ping(ctx)
}

// QueryVersion returns the protocol version the node software runs.
func (a *ThornodeAdapter) QueryVersion(ctx context.Context) (string, error) {
	var resp struct {
		Current string `json:"current"`
	}
	if err := a.get(ctx, "/thorchain/version", &resp); err != nil {
		return "", err
	}
	if resp.Current == "" {
		return "", fmt.Errorf("empty current version")
	}
	return resp.Current, nil
}

// Versions counts the versions of active node accounts.
func (a *ThornodeAdapter) Versions(ctx context.Context) (map[string]int, error) {
	nodes, err := a.Nodes(ctx)
	if err != nil {
		return nil, err
	}

	versions := make(map[string]int)
	for _, n := range ActiveNodes(nodes) {
		if n.Version != "" {
			versions[n.Version]++
		}
	}
	return versions, nil
}

// Nodes returns every node account known to the network.
func (a *ThornodeAdapter) Nodes(ctx context.Context) ([]NodeAccount, error) {
	var nodes []NodeAccount
	if err := a.get(ctx, "/thorchain/nodes", &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// Node returns a single node account.
func (a *ThornodeAdapter) Node(ctx context.Context, address string) (NodeAccount, error) {
	var node NodeAccount
	if err := a.get(ctx, "/thorchain/node/"+address, &node); err != nil {
		return NodeAccount{}, err
	}
	return node, nil
}

func (a *ThornodeAdapter) get(ctx context.Context, path string, out any) error {
	body, err := a.api.Execute(ctx, rpc.NewGetOperation(path))
	if err != nil {
		return fmt.Errorf("%s failed: %w", path, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("invalid %s response: %w", path, err)
	}
	return nil
}

// ActiveNodes filters node accounts with status "active".
func ActiveNodes(nodes []NodeAccount) []NodeAccount {
	active := make([]NodeAccount, 0, len(nodes))
	for _, n := range nodes {
		if n.IsActive() {
			active = append(active, n)
		}
	}
	return active
}

// FindNode returns the node account with the given address.
func FindNode(nodes []NodeAccount, address string) (NodeAccount, bool) {
	for _, n := range nodes {
		if strings.EqualFold(n.NodeAddress, address) {
			return n, true
		}
	}
	return NodeAccount{}, false
}
