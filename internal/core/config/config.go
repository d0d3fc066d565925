package config

import (
	"time"
)

// EnvProduction enables live alerting calls.
const EnvProduction = "production"

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Environment string            `yaml:"environment"`
	Instance    string            `yaml:"instance"`
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
	Schedule    ScheduleConfig    `yaml:"schedule"`
	Timeouts    TimeoutConfig     `yaml:"timeouts"`
	BetterStack BetterStackConfig `yaml:"betterstack"`
	Nodes       []NodeConfig      `yaml:"nodes"`
	Thornode    ThornodeConfig    `yaml:"thornode"`
	Disks       []DiskConfig      `yaml:"disks"`
	Processes   []ProcessConfig   `yaml:"processes"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// ScheduleConfig holds cron expressions for the periodic jobs.
type ScheduleConfig struct {
	Checks   string `yaml:"checks"`
	Thornode string `yaml:"thornode"`
	System   string `yaml:"system"` // restart and disk monitors
	Cleanup  string `yaml:"cleanup"`
}

// TimeoutConfig bounds outbound calls.
type TimeoutConfig struct {
	RPC   time.Duration `yaml:"rpc"`
	Alert time.Duration `yaml:"alert"`
}

// BetterStackConfig configures the alert backend.
type BetterStackConfig struct {
	APIKey          string          `yaml:"api_key"`
	BaseURL         string          `yaml:"base_url"`
	RequesterEmail  string          `yaml:"requester_email"`
	HeartbeatPeriod time.Duration   `yaml:"heartbeat_period"`
	HeartbeatGrace  time.Duration   `yaml:"heartbeat_grace"`
	RetryInterval   time.Duration   `yaml:"retry_interval"`
	MaxRetries      uint64          `yaml:"max_retries"` // 0 = retry forever
	LookbackDays    int             `yaml:"lookback_days"`
	Retention       RetentionConfig `yaml:"retention"`
}

// RetentionConfig bounds how many resolved incidents are kept.
type RetentionConfig struct {
	Keep   int           `yaml:"keep"`
	MaxAge time.Duration `yaml:"max_age"` // 0 = no age limit
}

// NodeConfig holds settings for one monitored node.
type NodeConfig struct {
	Name        string            `yaml:"name"`
	Family      string            `yaml:"family"`
	Chain       string            `yaml:"chain"`
	URL         string            `yaml:"url"`
	BlockDelay  *int64            `yaml:"block_delay"` // nil = chain default
	Version     VersionConfig     `yaml:"version"`
	References  []ReferenceConfig `yaml:"references"`
	APIURL      string            `yaml:"api_url"` // thornode only
	Disabled    bool              `yaml:"disabled"`
	SkipVersion bool              `yaml:"skip_version"`
}

// VersionConfig selects the version policy of a node.
type VersionConfig struct {
	Policy string `yaml:"policy"` // majority, top_n, at_least_top, reachable
	TopN   int    `yaml:"top_n"`
}

// ReferenceConfig describes one independent source of the network tip.
type ReferenceConfig struct {
	Type  string `yaml:"type"` // blockchair, tendermint, evm
	Chain string `yaml:"chain"`
	URL   string `yaml:"url"`
}

// ThornodeConfig holds settings for the THORNode specific monitors. The
// endpoints come from the node entry with family "thornode".
type ThornodeConfig struct {
	Address               string        `yaml:"address"`
	SlashPointsThreshold  *float64      `yaml:"slash_points_threshold"` // nil = 500
	ObservationAlertEvery time.Duration `yaml:"observation_alert_every"`
}

// SlashPointsFloor returns the configured slash points threshold or its
// default. An explicit zero disables the floor.
func (t ThornodeConfig) SlashPointsFloor() float64 {
	if t.SlashPointsThreshold == nil {
		return 500
	}
	return *t.SlashPointsThreshold
}

// DiskConfig describes a filesystem watched for usage.
type DiskConfig struct {
	Name      string  `yaml:"name"`
	Path      string  `yaml:"path"`
	Threshold float64 `yaml:"threshold"` // percent, e.g. 90
}

// ProcessConfig describes a local daemon watched for restarts.
type ProcessConfig struct {
	Name    string `yaml:"name"`    // subject used in incident names
	Process string `yaml:"process"` // executable name, e.g. bitcoind
}

// IsProduction reports whether live alerting is enabled.
func (c *AppConfig) IsProduction() bool {
	return c.Environment == EnvProduction
}
