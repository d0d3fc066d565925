package domain

import "time"

// HealthMetric names one aspect of node health. The value doubles as the
// heartbeat name fragment.
type HealthMetric string

const (
	MetricHealth     HealthMetric = "Health"
	MetricSyncStatus HealthMetric = "Sync Status"
	MetricVersion    HealthMetric = "Version"
)

// CheckStatus is the verdict of a single check.
type CheckStatus string

const (
	StatusPass          CheckStatus = "pass"
	StatusFail          CheckStatus = "fail"
	StatusInconclusive  CheckStatus = "inconclusive"
	StatusNotApplicable CheckStatus = "not_applicable"
)

// CheckOutcome is the ephemeral result of one check on one node.
type CheckOutcome struct {
	Node   string       `json:"node"`
	Metric HealthMetric `json:"metric"`
	Status CheckStatus  `json:"status"`
	Reason string       `json:"reason,omitempty"`

	NodeHeight      int64 `json:"node_height,omitempty"`
	HeaderHeight    int64 `json:"header_height,omitempty"`
	ReferenceHeight int64 `json:"reference_height,omitempty"`
	Tolerance       int64 `json:"tolerance,omitempty"`

	NodeVersion string `json:"node_version,omitempty"`
	TopVersion  string `json:"top_version,omitempty"`

	CheckedAt time.Time `json:"checked_at"`
}

// OK reports whether the metric passed and deserves a heartbeat.
func (o CheckOutcome) OK() bool {
	return o.Status == StatusPass
}
