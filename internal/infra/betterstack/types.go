package betterstack

import "time"

// Resource is the JSON:API envelope of every BetterStack object.
type Resource[T any] struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes T      `json:"attributes"`
}

// Pagination links; Next is nil on the last page.
type Pagination struct {
	First *string `json:"first"`
	Last  *string `json:"last"`
	Prev  *string `json:"prev"`
	Next  *string `json:"next"`
}

type page[T any] struct {
	Data       []Resource[T] `json:"data"`
	Pagination Pagination    `json:"pagination"`
}

type single[T any] struct {
	Data Resource[T] `json:"data"`
}

// HeartbeatAttributes is the subset of heartbeat fields used.
type HeartbeatAttributes struct {
	URL    string `json:"url"`
	Name   string `json:"name"`
	Period int    `json:"period"`
	Grace  int    `json:"grace"`
	Status string `json:"status"`
}

// Heartbeat is a monitor that expects a ping every period.
type Heartbeat = Resource[HeartbeatAttributes]

// HeartbeatGroupAttributes is the subset of heartbeat group fields used.
type HeartbeatGroupAttributes struct {
	Name   string `json:"name"`
	Paused bool   `json:"paused"`
}

// HeartbeatGroup groups the heartbeats of one subject.
type HeartbeatGroup = Resource[HeartbeatGroupAttributes]

// IncidentAttributes is the subset of incident fields used.
type IncidentAttributes struct {
	Name       string     `json:"name"`
	URL        string     `json:"url"`
	Cause      string     `json:"cause"`
	StartedAt  time.Time  `json:"started_at"`
	ResolvedAt *time.Time `json:"resolved_at"`
}

// Incident is an open or resolved alert.
type Incident = Resource[IncidentAttributes]

// IsResolved reports whether the incident has been resolved.
func (a IncidentAttributes) IsResolved() bool {
	return a.ResolvedAt != nil
}

// CreateHeartbeatRequest is the payload of POST heartbeats.
type CreateHeartbeatRequest struct {
	Name             string `json:"name"`
	Period           int    `json:"period"`
	Grace            int    `json:"grace"`
	HeartbeatGroupID string `json:"heartbeat_group_id,omitempty"`
	Email            bool   `json:"email"`
	Push             bool   `json:"push"`
}

// CreateHeartbeatGroupRequest is the payload of POST heartbeat-groups.
type CreateHeartbeatGroupRequest struct {
	Name string `json:"name"`
}

// CreateIncidentRequest is the payload of POST incidents.
type CreateIncidentRequest struct {
	RequesterEmail string `json:"requester_email"`
	Name           string `json:"name"`
	Summary        string `json:"summary"`
	Email          bool   `json:"email"`
	Push           bool   `json:"push"`
}

// IncidentFilter narrows ListIncidents.
type IncidentFilter struct {
	// Name matches the incident name exactly when set.
	Name string
	// Resolved filters on resolution state when set.
	Resolved *bool
	// ReturnEarly stops paging once a page produced a match.
	ReturnEarly bool
	// From bounds the search window; zero means the beginning of time.
	From time.Time
}

// Open is a convenience for IncidentFilter.Resolved.
func Open() *bool {
	f := false
	return &f
}

// Resolved is a convenience for IncidentFilter.Resolved.
func Resolved() *bool {
	t := true
	return &t
}
