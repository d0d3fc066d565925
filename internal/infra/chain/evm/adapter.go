package evm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/vietddude/nodewatch/internal/core/domain"
	"github.com/vietddude/nodewatch/internal/infra/rpc"
	"golang.org/x/sync/errgroup"
)

type EVMAdapter struct {
	chain  domain.Chain
	client rpc.RPCClient
}

func NewEVMAdapter(chain domain.Chain, client rpc.RPCClient) *EVMAdapter {
	return &EVMAdapter{
		chain:  chain,
		client: client,
	}
}

func (a *EVMAdapter) Family() domain.ChainFamily {
	return domain.FamilyEVM
}

func (a *EVMAdapter) Ping(ctx context.Context) error {
	if _, err := a.client.Execute(ctx, rpc.NewHTTPOperation("eth_syncing")); err != nil {
		return fmt.Errorf("eth_syncing failed: %w", err)
	}
	return nil
}

// QueryHeight issues eth_syncing and eth_blockNumber together.
func (a *EVMAdapter) QueryHeight(ctx context.Context) (domain.HeightInfo, error) {
	var (
		info   domain.HeightInfo
		height uint64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		result, err := a.client.Execute(gctx, rpc.NewHTTPOperation("eth_syncing"))
		if err != nil {
			return fmt.Errorf("eth_syncing failed: %w", err)
		}
		syncing, highest, err := parseSyncing(result)
		if err != nil {
			return err
		}
		info.Syncing = syncing
		info.HeaderHeight = int64(highest)
		return nil
	})
	g.Go(func() error {
		result, err := a.client.Execute(gctx, rpc.NewHTTPOperation("eth_blockNumber"))
		if err != nil {
			return fmt.Errorf("eth_blockNumber failed: %w", err)
		}
		var blockHex string
		if err := json.Unmarshal(result, &blockHex); err != nil {
			return fmt.Errorf("invalid block number response")
		}
		height, err = ParseHexString(blockHex)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.HeightInfo{}, err
	}

	info.Height = int64(height)
	return info, nil
}

func (a *EVMAdapter) QueryVersion(ctx context.Context) (string, error) {
	result, err := a.client.Execute(ctx, rpc.NewHTTPOperation("web3_clientVersion"))
	if err != nil {
		return "", fmt.Errorf("web3_clientVersion failed: %w", err)
	}

	var version string
	if err := json.Unmarshal(result, &version); err != nil {
		return "", fmt.Errorf("invalid client version response")
	}
	return version, nil
}

// parseSyncing decodes eth_syncing, which is either false or a progress object.
func parseSyncing(raw json.RawMessage) (bool, uint64, error) {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("false")) || len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return false, 0, nil
	}

	var progress struct {
		CurrentBlock string `json:"currentBlock"`
		HighestBlock string `json:"highestBlock"`
	}
	if err := json.Unmarshal(raw, &progress); err != nil {
		return false, 0, fmt.Errorf("invalid eth_syncing response: %s", raw)
	}

	var highest uint64
	if progress.HighestBlock != "" {
		h, err := ParseHexString(progress.HighestBlock)
		if err != nil {
			return true, 0, err
		}
		highest = h
	}
	return true, highest, nil
}

// ParseHexString parses a 0x-prefixed quantity.
func ParseHexString(hexStr string) (uint64, error) {
	n := new(big.Int)
	if _, ok := n.SetString(strings.TrimPrefix(hexStr, "0x"), 16); !ok {
		return 0, fmt.Errorf("invalid hex: %s", hexStr)
	}
	return n.Uint64(), nil
}
