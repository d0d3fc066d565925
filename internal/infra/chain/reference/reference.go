// Package reference provides independent views of a network used to judge
// whether a node is caught up and current.
package reference

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vietddude/nodewatch/internal/core/domain"
	"github.com/vietddude/nodewatch/internal/infra/chain/cosmos"
	"github.com/vietddude/nodewatch/internal/infra/chain/evm"
	"github.com/vietddude/nodewatch/internal/infra/rpc"
)

// BlockchairURL is the public blockchair API.
const BlockchairURL = "https://api.blockchair.com"

// Blockchair reads the best block height from blockchair stats.
type Blockchair struct {
	chain  domain.Chain
	client rpc.RPCClient
}

func NewBlockchair(chain domain.Chain, client rpc.RPCClient) *Blockchair {
	return &Blockchair{chain: chain, client: client}
}

func (b *Blockchair) Name() string {
	return "blockchair/" + string(b.chain)
}

func (b *Blockchair) ReferenceHeight(ctx context.Context) (int64, error) {
	body, err := b.client.Execute(ctx, rpc.NewGetOperation(fmt.Sprintf("/%s/stats", b.chain)))
	if err != nil {
		return 0, fmt.Errorf("blockchair stats failed: %w", err)
	}

	var resp struct {
		Data struct {
			BestBlockHeight int64 `json:"best_block_height"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("invalid blockchair stats response: %w", err)
	}
	return resp.Data.BestBlockHeight, nil
}

// BlockchairNodes reads the version distribution of a network from blockchair.
type BlockchairNodes struct {
	chain  domain.Chain
	client rpc.RPCClient
}

func NewBlockchairNodes(chain domain.Chain, client rpc.RPCClient) *BlockchairNodes {
	return &BlockchairNodes{chain: chain, client: client}
}

func (b *BlockchairNodes) Versions(ctx context.Context) (map[string]int, error) {
	body, err := b.client.Execute(ctx, rpc.NewGetOperation(fmt.Sprintf("/%s/nodes", b.chain)))
	if err != nil {
		return nil, fmt.Errorf("blockchair nodes failed: %w", err)
	}

	var resp struct {
		Data struct {
			Versions map[string]int `json:"versions"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("invalid blockchair nodes response: %w", err)
	}
	return resp.Data.Versions, nil
}

// Tendermint reads the latest height of another Tendermint node.
type Tendermint struct {
	name   string
	status *cosmos.CosmosAdapter
}

func NewTendermint(name string, client rpc.RPCClient) *Tendermint {
	return &Tendermint{
		name:   name,
		status: cosmos.NewCosmosAdapter(domain.ChainCosmos, client),
	}
}

func (t *Tendermint) Name() string {
	return t.name
}

func (t *Tendermint) ReferenceHeight(ctx context.Context) (int64, error) {
	status, err := t.status.GetStatus(ctx)
	if err != nil {
		return 0, err
	}
	return status.Height()
}

// EVM reads eth_blockNumber from a public RPC endpoint.
type EVM struct {
	name   string
	client rpc.RPCClient
}

func NewEVM(name string, client rpc.RPCClient) *EVM {
	return &EVM{name: name, client: client}
}

func (e *EVM) Name() string {
	return e.name
}

func (e *EVM) ReferenceHeight(ctx context.Context) (int64, error) {
	body, err := e.client.Execute(ctx, rpc.NewHTTPOperation("eth_blockNumber"))
	if err != nil {
		return 0, fmt.Errorf("eth_blockNumber failed: %w", err)
	}

	var hex string
	if err := json.Unmarshal(body, &hex); err != nil {
		return 0, fmt.Errorf("invalid block number response")
	}
	height, err := evm.ParseHexString(hex)
	if err != nil {
		return 0, err
	}
	return int64(height), nil
}
