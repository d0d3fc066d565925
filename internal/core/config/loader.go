package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/nodewatch/internal/core/domain"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Schedule.Checks == "" {
		c.Schedule.Checks = "* * * * *"
	}
	if c.Schedule.Thornode == "" {
		c.Schedule.Thornode = "* * * * *"
	}
	if c.Schedule.System == "" {
		c.Schedule.System = "* * * * *"
	}
	if c.Schedule.Cleanup == "" {
		c.Schedule.Cleanup = "0 * * * *"
	}
	if c.Timeouts.RPC == 0 {
		c.Timeouts.RPC = 10 * time.Second
	}
	if c.Timeouts.Alert == 0 {
		c.Timeouts.Alert = 30 * time.Second
	}

	bs := &c.BetterStack
	if bs.BaseURL == "" {
		bs.BaseURL = "https://uptime.betterstack.com/api/v2"
	}
	if bs.RequesterEmail == "" {
		bs.RequesterEmail = "alerts@nodewatch.local"
	}
	if bs.HeartbeatPeriod == 0 {
		bs.HeartbeatPeriod = 60 * time.Second
	}
	if bs.HeartbeatGrace == 0 {
		bs.HeartbeatGrace = 300 * time.Second
	}
	if bs.RetryInterval == 0 {
		bs.RetryInterval = 100 * time.Millisecond
	}
	if bs.Retention.Keep == 0 {
		bs.Retention.Keep = 50
	}

	if c.Thornode.ObservationAlertEvery == 0 {
		c.Thornode.ObservationAlertEvery = 10 * time.Minute
	}

	if c.Instance == "" {
		c.Instance = addressSuffix(c.Thornode.Address)
	}

	for i := range c.Nodes {
		if c.Nodes[i].Version.Policy == "" {
			c.Nodes[i].Version.Policy = defaultVersionPolicy(domain.ChainFamily(c.Nodes[i].Family))
		}
		if c.Nodes[i].Version.TopN == 0 {
			c.Nodes[i].Version.TopN = 3
		}
	}

	for i := range c.Disks {
		if c.Disks[i].Threshold == 0 {
			c.Disks[i].Threshold = 90
		}
	}
}

// Validate rejects configurations that cannot be monitored.
func (c *AppConfig) Validate() error {
	var errs []error

	if c.IsProduction() && c.BetterStack.APIKey == "" {
		errs = append(errs, errors.New("betterstack.api_key is required in production"))
	}

	seen := make(map[string]bool)
	for i, n := range c.Nodes {
		if n.Name == "" {
			errs = append(errs, fmt.Errorf("nodes[%d]: name is required", i))
		}
		if seen[n.Name] {
			errs = append(errs, fmt.Errorf("nodes[%d]: duplicate name %q", i, n.Name))
		}
		seen[n.Name] = true

		if n.URL == "" {
			errs = append(errs, fmt.Errorf("nodes[%d] %s: url is required", i, n.Name))
		}
		family, err := domain.ParseFamily(n.Family)
		if err != nil {
			errs = append(errs, fmt.Errorf("nodes[%d] %s: %w", i, n.Name, err))
			continue
		}
		if family == domain.FamilyThornode && n.APIURL == "" {
			errs = append(errs, fmt.Errorf("nodes[%d] %s: api_url is required for thornode", i, n.Name))
		}
		switch domain.VersionPolicy(n.Version.Policy) {
		case "", domain.VersionMajority, domain.VersionTopN, domain.VersionAtLeastTop, domain.VersionReachable:
		default:
			errs = append(errs, fmt.Errorf("nodes[%d] %s: unknown version policy %q", i, n.Name, n.Version.Policy))
		}
		for j, ref := range n.References {
			switch ref.Type {
			case "blockchair":
				if ref.Chain == "" && n.Chain == "" {
					errs = append(errs, fmt.Errorf("nodes[%d].references[%d]: chain is required", i, j))
				}
			case "tendermint", "evm":
				if ref.URL == "" {
					errs = append(errs, fmt.Errorf("nodes[%d].references[%d]: url is required", i, j))
				}
			default:
				errs = append(errs, fmt.Errorf("nodes[%d].references[%d]: unknown type %q", i, j, ref.Type))
			}
		}
	}

	for i, d := range c.Disks {
		if d.Path == "" {
			errs = append(errs, fmt.Errorf("disks[%d]: path is required", i))
		}
	}

	for i, p := range c.Processes {
		if p.Name == "" || p.Process == "" {
			errs = append(errs, fmt.Errorf("processes[%d]: name and process are required", i))
		}
	}

	return errors.Join(errs...)
}

// Node converts the node configuration into its immutable domain form.
func (n NodeConfig) Node() domain.Node {
	family := domain.ChainFamily(n.Family)
	chain := domain.Chain(n.Chain)

	tolerance := domain.DefaultTolerance(family, chain)
	if n.BlockDelay != nil {
		tolerance = *n.BlockDelay
	}

	return domain.Node{
		Name:          n.Name,
		Family:        family,
		Chain:         chain,
		Endpoint:      n.URL,
		Tolerance:     tolerance,
		VersionPolicy: domain.VersionPolicy(n.Version.Policy),
		VersionTopN:   n.Version.TopN,
	}
}

func defaultVersionPolicy(family domain.ChainFamily) string {
	switch family {
	case domain.FamilyUTXO:
		return string(domain.VersionTopN)
	case domain.FamilyEVM:
		return string(domain.VersionReachable)
	case domain.FamilyThornode:
		return string(domain.VersionAtLeastTop)
	default:
		return ""
	}
}

func addressSuffix(address string) string {
	if len(address) < 4 {
		return "node"
	}
	return address[len(address)-4:]
}
