package domain

import "fmt"

// ChainFamily groups chains that speak the same node protocol.
type ChainFamily string

const (
	FamilyUTXO     ChainFamily = "utxo"
	FamilyEVM      ChainFamily = "evm"
	FamilyCosmos   ChainFamily = "cosmos"
	FamilyThornode ChainFamily = "thornode"
)

// Chain is the lowercase slug used by reference APIs (blockchair, ninerealms).
type Chain string

const (
	ChainBitcoin     Chain = "bitcoin"
	ChainLitecoin    Chain = "litecoin"
	ChainBitcoinCash Chain = "bitcoin-cash"
	ChainDogecoin    Chain = "dogecoin"
	ChainEthereum    Chain = "ethereum"
	ChainAvalanche   Chain = "avalanche"
	ChainBSC         Chain = "binance-smart-chain"
	ChainCosmos      Chain = "cosmos"
	ChainBinance     Chain = "binance"
	ChainThorchain   Chain = "thorchain"
)

// ChainFamilies maps every known chain to its protocol family.
var ChainFamilies = map[Chain]ChainFamily{
	ChainBitcoin:     FamilyUTXO,
	ChainLitecoin:    FamilyUTXO,
	ChainBitcoinCash: FamilyUTXO,
	ChainDogecoin:    FamilyUTXO,
	ChainEthereum:    FamilyEVM,
	ChainAvalanche:   FamilyEVM,
	ChainBSC:         FamilyEVM,
	ChainCosmos:      FamilyCosmos,
	ChainBinance:     FamilyCosmos,
	ChainThorchain:   FamilyThornode,
}

// ParseFamily validates a family name from configuration.
func ParseFamily(s string) (ChainFamily, error) {
	switch f := ChainFamily(s); f {
	case FamilyUTXO, FamilyEVM, FamilyCosmos, FamilyThornode:
		return f, nil
	default:
		return "", fmt.Errorf("unknown chain family %q", s)
	}
}

// DefaultTolerance is the number of blocks a node may trail its reference
// and still count as synced.
func DefaultTolerance(family ChainFamily, chain Chain) int64 {
	if chain == ChainBinance {
		return 3
	}
	switch family {
	case FamilyCosmos, FamilyThornode, FamilyEVM:
		return 1
	default:
		return 0
	}
}

// Metrics returns the health metrics checked by default for a family.
// Cosmos nodes only check their version when a policy is configured.
func (f ChainFamily) Metrics() []HealthMetric {
	switch f {
	case FamilyUTXO, FamilyEVM, FamilyThornode:
		return []HealthMetric{MetricHealth, MetricSyncStatus, MetricVersion}
	case FamilyCosmos:
		return []HealthMetric{MetricHealth, MetricSyncStatus}
	default:
		return nil
	}
}
