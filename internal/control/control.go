package control

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/nodewatch/internal/core/config"
	"github.com/vietddude/nodewatch/internal/core/domain"
	"github.com/vietddude/nodewatch/internal/infra/chain"
	"github.com/vietddude/nodewatch/internal/infra/chain/cosmos"
	"github.com/vietddude/nodewatch/internal/infra/chain/evm"
	"github.com/vietddude/nodewatch/internal/infra/chain/reference"
	"github.com/vietddude/nodewatch/internal/infra/chain/thornode"
	"github.com/vietddude/nodewatch/internal/infra/chain/utxo"
	"github.com/vietddude/nodewatch/internal/infra/rpc"
	"github.com/vietddude/nodewatch/internal/monitoring/health"
)

// nodeParts is everything needed to check one node.
type nodeParts struct {
	node     domain.Node
	adapter  chain.Adapter
	refs     []chain.HeightSource
	versions chain.VersionSource
	thornode *thornode.ThornodeAdapter

	// endpoints are every HTTP endpoint the checks call.
	endpoints []rpc.Provider
}

// buildNode creates the adapter, references and version source of a node.
func buildNode(nc config.NodeConfig, timeout time.Duration) (nodeParts, error) {
	node := nc.Node()
	parts := nodeParts{node: node}

	client := rpc.NewHTTPProvider(nc.Name, nc.URL, timeout)
	parts.endpoints = append(parts.endpoints, client)

	switch node.Family {
	case domain.FamilyUTXO:
		parts.adapter = utxo.NewUTXOAdapter(node.Chain, client)
	case domain.FamilyEVM:
		parts.adapter = evm.NewEVMAdapter(node.Chain, client)
	case domain.FamilyCosmos:
		a := cosmos.NewCosmosAdapter(node.Chain, client)
		parts.adapter = a
		parts.versions = a
	case domain.FamilyThornode:
		api := rpc.NewHTTPProvider(nc.Name+"-api", nc.APIURL, timeout)
		parts.endpoints = append(parts.endpoints, api)
		a := thornode.NewThornodeAdapter(api, client)
		parts.adapter = a
		parts.versions = a
		parts.thornode = a
	default:
		return nodeParts{}, fmt.Errorf("node %s: unsupported family %q", nc.Name, nc.Family)
	}

	for _, ref := range nc.References {
		switch ref.Type {
		case "blockchair":
			refChain := domain.Chain(ref.Chain)
			if refChain == "" {
				refChain = node.Chain
			}
			url := ref.URL
			if url == "" {
				url = reference.BlockchairURL
			}
			bc := rpc.NewHTTPProvider("blockchair", url, timeout)
			parts.endpoints = append(parts.endpoints, bc)
			parts.refs = append(parts.refs, reference.NewBlockchair(refChain, bc))
			if parts.versions == nil {
				parts.versions = reference.NewBlockchairNodes(refChain, bc)
			}
		case "tendermint":
			name := nc.Name + "-reference"
			p := rpc.NewHTTPProvider(name, ref.URL, timeout)
			parts.endpoints = append(parts.endpoints, p)
			parts.refs = append(parts.refs, reference.NewTendermint(name, p))
		case "evm":
			name := nc.Name + "-reference"
			p := rpc.NewHTTPProvider(name, ref.URL, timeout)
			parts.endpoints = append(parts.endpoints, p)
			parts.refs = append(parts.refs, reference.NewEVM(name, p))
		default:
			return nodeParts{}, fmt.Errorf("node %s: unsupported reference type %q", nc.Name, ref.Type)
		}
	}

	if nc.SkipVersion && parts.node.VersionPolicy != "" {
		parts.node.VersionPolicy = domain.VersionReachable
	}

	return parts, nil
}

func (p nodeParts) checker(log *slog.Logger) *health.Checker {
	return health.NewChecker(p.node, p.adapter, p.refs, p.versions, log)
}
