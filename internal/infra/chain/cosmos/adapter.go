package cosmos

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/vietddude/nodewatch/internal/core/domain"
	"github.com/vietddude/nodewatch/internal/infra/rpc"
)

// CosmosAdapter talks to the Tendermint RPC of a Cosmos-SDK node.
type CosmosAdapter struct {
	chain  domain.Chain
	client rpc.RPCClient
}

func NewCosmosAdapter(chain domain.Chain, client rpc.RPCClient) *CosmosAdapter {
	return &CosmosAdapter{
		chain:  chain,
		client: client,
	}
}

// Status is the subset of /status the monitors use.
type Status struct {
	NodeInfo struct {
		Version string `json:"version"`
	} `json:"node_info"`
	SyncInfo struct {
		LatestBlockHeight string `json:"latest_block_height"`
		CatchingUp        bool   `json:"catching_up"`
	} `json:"sync_info"`
}

// Height parses the string encoded latest block height.
func (s Status) Height() (int64, error) {
	h, err := strconv.ParseInt(s.SyncInfo.LatestBlockHeight, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid latest_block_height %q", s.SyncInfo.LatestBlockHeight)
	}
	return h, nil
}

type netInfo struct {
	Peers []struct {
		NodeInfo struct {
			Version string `json:"version"`
		} `json:"node_info"`
	} `json:"peers"`
}

func (a *CosmosAdapter) Family() domain.ChainFamily {
	return domain.FamilyCosmos
}

func (a *CosmosAdapter) Ping(ctx context.Context) error {
	if _, err := a.client.Execute(ctx, rpc.NewGetOperation("/health")); err != nil {
		return fmt.Errorf("health failed: %w", err)
	}
	return nil
}

// GetStatus fetches /status.
func (a *CosmosAdapter) GetStatus(ctx context.Context) (Status, error) {
	var status Status
	if err := a.get(ctx, "/status", &status); err != nil {
		return Status{}, err
	}
	return status, nil
}

func (a *CosmosAdapter) QueryHeight(ctx context.Context) (domain.HeightInfo, error) {
	status, err := a.GetStatus(ctx)
	if err != nil {
		return domain.HeightInfo{}, err
	}

	height, err := status.Height()
	if err != nil {
		return domain.HeightInfo{}, err
	}

	return domain.HeightInfo{
		Height:  height,
		Syncing: status.SyncInfo.CatchingUp,
	}, nil
}

func (a *CosmosAdapter) QueryVersion(ctx context.Context) (string, error) {
	status, err := a.GetStatus(ctx)
	if err != nil {
		return "", err
	}
	if status.NodeInfo.Version == "" {
		return "", fmt.Errorf("empty node version")
	}
	return status.NodeInfo.Version, nil
}

// Versions counts the versions advertised by connected peers.
func (a *CosmosAdapter) Versions(ctx context.Context) (map[string]int, error) {
	var info netInfo
	if err := a.get(ctx, "/net_info", &info); err != nil {
		return nil, err
	}

	versions := make(map[string]int)
	for _, peer := range info.Peers {
		if v := peer.NodeInfo.Version; v != "" {
			versions[v]++
		}
	}
	return versions, nil
}

// get decodes a Tendermint response, unwrapping the JSON-RPC envelope when present.
func (a *CosmosAdapter) get(ctx context.Context, path string, out any) error {
	body, err := a.client.Execute(ctx, rpc.NewGetOperation(path))
	if err != nil {
		return fmt.Errorf("%s failed: %w", path, err)
	}
	return DecodeResult(body, out)
}

// DecodeResult decodes either {"result": {...}} or a bare object into out.
func DecodeResult(body json.RawMessage, out any) error {
	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	if len(envelope.Result) > 0 {
		body = envelope.Result
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	return nil
}
