package thornode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RuneDecimals is the fixed point scale of RUNE amounts.
const RuneDecimals = 1e8

// Amount is an integer the API encodes either as a JSON string or a number.
type Amount int64

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*a = 0
		return nil
	}
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %s: %w", data, err)
	}
	*a = Amount(v)
	return nil
}

// Rune converts a 1e8 fixed point amount to RUNE.
func (a Amount) Rune() float64 {
	return float64(a) / RuneDecimals
}

// NodeAccount is the subset of /thorchain/nodes used by the monitors.
type NodeAccount struct {
	NodeAddress   string          `json:"node_address"`
	Status        string          `json:"status"`
	Version       string          `json:"version"`
	SlashPoints   Amount          `json:"slash_points"`
	TotalBond     Amount          `json:"total_bond"`
	CurrentAward  Amount          `json:"current_award"`
	Jail          Jail            `json:"jail"`
	ObserveChains []ObservedChain `json:"observe_chains"`
}

// IsActive reports whether the node is part of the active validator set.
func (n NodeAccount) IsActive() bool {
	return strings.EqualFold(n.Status, "active")
}

// ObservedHeight returns the height the node observed for chain, if any.
func (n NodeAccount) ObservedHeight(chain string) (int64, bool) {
	for _, c := range n.ObserveChains {
		if strings.EqualFold(c.Chain, chain) {
			return int64(c.Height), true
		}
	}
	return 0, false
}

// Jail describes a node's jail state. ReleaseHeight is zero when never jailed.
type Jail struct {
	ReleaseHeight Amount `json:"release_height"`
	Reason        string `json:"reason"`
}

// ObservedChain is the last height a node observed on an external chain.
type ObservedChain struct {
	Chain  string `json:"chain"`
	Height Amount `json:"height"`
}

var _ json.Unmarshaler = (*Amount)(nil)
