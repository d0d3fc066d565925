package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RPCCallsTotal tracks node and reference calls per endpoint
	RPCCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodewatch_rpc_calls_total",
			Help: "Total number of node and reference calls",
		},
		[]string{"endpoint", "method"},
	)

	// RPCErrorsTotal tracks failed calls per endpoint
	RPCErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodewatch_rpc_errors_total",
			Help: "Total number of failed node and reference calls",
		},
		[]string{"endpoint", "error_type"},
	)

	// RPCLatency tracks call latency
	RPCLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nodewatch_rpc_latency_seconds",
			Help:    "Node and reference call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	// CheckStatus is 1 when the metric passed on the last tick, 0 otherwise
	CheckStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nodewatch_check_status",
			Help: "Result of the last health check (1 = pass)",
		},
		[]string{"node", "metric"},
	)

	// NodeHeight tracks the block height reported by the node
	NodeHeight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nodewatch_node_height",
			Help: "Latest block height reported by the node",
		},
		[]string{"node"},
	)

	// ReferenceHeight tracks the best reference height seen for the node
	ReferenceHeight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nodewatch_reference_height",
			Help: "Best block height reported by the node's references",
		},
		[]string{"node"},
	)

	// CheckDuration tracks how long a full node check takes
	CheckDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nodewatch_check_duration_seconds",
			Help:    "Duration of all checks for one node",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"node"},
	)

	// HeartbeatsSent tracks heartbeat pings per outcome
	HeartbeatsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodewatch_heartbeats_sent_total",
			Help: "Total number of heartbeat pings",
		},
		[]string{"heartbeat", "result"},
	)

	// IncidentsCreated tracks incidents opened per type
	IncidentsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodewatch_incidents_created_total",
			Help: "Total number of incidents created",
		},
		[]string{"type"},
	)

	// IncidentsResolved tracks incidents resolved per type
	IncidentsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodewatch_incidents_resolved_total",
			Help: "Total number of incidents resolved",
		},
		[]string{"type"},
	)

	// AlertAPIRequests tracks alert backend calls per method and status code
	AlertAPIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodewatch_alert_api_requests_total",
			Help: "Total number of alert backend requests",
		},
		[]string{"method", "code"},
	)

	// ThornodeSlashPoints tracks the node's slash points
	ThornodeSlashPoints = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nodewatch_thornode_slash_points",
			Help: "Slash points of the monitored THORNode",
		},
	)

	// ThornodeBond tracks bond, reward and max efficient bond in RUNE
	ThornodeBond = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nodewatch_thornode_bond_rune",
			Help: "Bond figures of the monitored THORNode in RUNE",
		},
		[]string{"kind"},
	)

	// DiskUsage tracks used percentage per watched path
	DiskUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nodewatch_disk_usage_percent",
			Help: "Used disk space in percent",
		},
		[]string{"name"},
	)
)
