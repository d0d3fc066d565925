package utxo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vietddude/nodewatch/internal/core/domain"
	"github.com/vietddude/nodewatch/internal/infra/rpc"
)

// UTXOAdapter talks JSON-RPC 1.0 to bitcoind and its forks
// (litecoin, bitcoin-cash, dogecoin).
type UTXOAdapter struct {
	chain  domain.Chain
	client rpc.RPCClient
}

func NewUTXOAdapter(chain domain.Chain, client rpc.RPCClient) *UTXOAdapter {
	return &UTXOAdapter{
		chain:  chain,
		client: client,
	}
}

type blockchainInfo struct {
	Blocks               int64 `json:"blocks"`
	Headers              int64 `json:"headers"`
	InitialBlockDownload bool  `json:"initialblockdownload"`
}

type networkInfo struct {
	Subversion string `json:"subversion"`
}

func (a *UTXOAdapter) Family() domain.ChainFamily {
	return domain.FamilyUTXO
}

func (a *UTXOAdapter) Ping(ctx context.Context) error {
	if _, err := a.client.Execute(ctx, rpc.NewJSONRPC10Operation("getblockchaininfo")); err != nil {
		return fmt.Errorf("getblockchaininfo failed: %w", err)
	}
	return nil
}

func (a *UTXOAdapter) QueryHeight(ctx context.Context) (domain.HeightInfo, error) {
	result, err := a.client.Execute(ctx, rpc.NewJSONRPC10Operation("getblockchaininfo"))
	if err != nil {
		return domain.HeightInfo{}, fmt.Errorf("getblockchaininfo failed: %w", err)
	}

	var info blockchainInfo
	if err := json.Unmarshal(result, &info); err != nil {
		return domain.HeightInfo{}, fmt.Errorf("invalid blockchain info response: %w", err)
	}

	return domain.HeightInfo{
		Height:       info.Blocks,
		HeaderHeight: info.Headers,
		Syncing:      info.InitialBlockDownload,
	}, nil
}

func (a *UTXOAdapter) QueryVersion(ctx context.Context) (string, error) {
	result, err := a.client.Execute(ctx, rpc.NewJSONRPC10Operation("getnetworkinfo"))
	if err != nil {
		return "", fmt.Errorf("getnetworkinfo failed: %w", err)
	}

	var info networkInfo
	if err := json.Unmarshal(result, &info); err != nil {
		return "", fmt.Errorf("invalid network info response: %w", err)
	}
	if info.Subversion == "" {
		return "", fmt.Errorf("empty subversion")
	}

	return info.Subversion, nil
}
