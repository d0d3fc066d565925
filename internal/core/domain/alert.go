package domain

import "fmt"

// IncidentType classifies an incident.
type IncidentType string

const (
	IncidentRestart          IncidentType = "Restart"
	IncidentSlashPoints      IncidentType = "Slash Points"
	IncidentJail             IncidentType = "Jail"
	IncidentChainObservation IncidentType = "Chain Observation"
	IncidentDiskUsage        IncidentType = "Disk Usage"
)

// HeartbeatIdentity names a heartbeat in the alert backend.
type HeartbeatIdentity struct {
	Subject  string
	Metric   HealthMetric
	Instance string
}

// Name is the remote heartbeat name, e.g. "Bitcoin Sync Status (a1b2)".
func (h HeartbeatIdentity) Name() string {
	return fmt.Sprintf("%s %s (%s)", h.Subject, h.Metric, h.Instance)
}

// GroupName is the heartbeat group shared by every metric of a subject.
func (h HeartbeatIdentity) GroupName() string {
	return fmt.Sprintf("%s (%s)", h.Subject, h.Instance)
}

// IncidentIdentity names an incident in the alert backend. At most one open
// incident may exist per identity.
type IncidentIdentity struct {
	Subject  string
	Type     IncidentType
	Instance string
}

// Name is the remote incident name, e.g. "Thornode Jail (a1b2)".
func (i IncidentIdentity) Name() string {
	return fmt.Sprintf("%s %s (%s)", i.Subject, i.Type, i.Instance)
}

// Key is used for the in-memory alert cache.
func (i IncidentIdentity) Key() string {
	return i.Name()
}
