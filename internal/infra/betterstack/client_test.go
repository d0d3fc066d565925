package betterstack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(url string, policy RetryPolicy) *Client {
	return NewClient(Config{
		BaseURL:        url,
		APIKey:         "secret",
		RequesterEmail: "ops@example.com",
		Timeout:        5 * time.Second,
		Retry:          policy,
	}, nil)
}

func TestClient_ListIncidentsFollowsPagination(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing bearer token")
		}
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `{"data":[
				{"id":"3","type":"incident","attributes":{"name":"Slash Points (a1b2)","started_at":"2024-01-01T00:00:00Z","resolved_at":null}},
				{"id":"4","type":"incident","attributes":{"name":"Jail (a1b2)","started_at":"2024-01-04T00:00:00Z","resolved_at":null}}
			],"pagination":{"next":null}}`)
			return
		}
		if r.URL.Query().Get("per_page") != "50" {
			t.Errorf("expected per_page=50, got %s", r.URL.RawQuery)
		}
		fmt.Fprintf(w, `{"data":[
			{"id":"1","type":"incident","attributes":{"name":"Slash Points (a1b2)","started_at":"2024-01-03T00:00:00Z","resolved_at":null}},
			{"id":"2","type":"incident","attributes":{"name":"Slash Points (a1b2)","started_at":"2024-01-02T00:00:00Z","resolved_at":"2024-01-02T01:00:00Z"}}
		],"pagination":{"next":"%s/incidents?page=2"}}`, server.URL)
	}))
	defer server.Close()

	client := newTestClient(server.URL, RetryPolicy{})

	open, err := client.ListIncidents(context.Background(), IncidentFilter{Name: "Slash Points (a1b2)", Resolved: Open()})
	if err != nil {
		t.Fatalf("ListIncidents failed: %v", err)
	}
	if len(open) != 2 {
		t.Fatalf("expected 2 open incidents, got %d", len(open))
	}
	if open[0].ID != "3" || open[1].ID != "1" {
		t.Errorf("expected incidents sorted by start time, got %s, %s", open[0].ID, open[1].ID)
	}

	all, err := client.ListIncidents(context.Background(), IncidentFilter{})
	if err != nil {
		t.Fatalf("ListIncidents failed: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("expected 4 incidents, got %d", len(all))
	}
}

func TestClient_ListIncidentsReturnEarly(t *testing.T) {
	var calls atomic.Int32
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprintf(w, `{"data":[
			{"id":"1","type":"incident","attributes":{"name":"Jail (a1b2)","started_at":"2024-01-03T00:00:00Z","resolved_at":null}}
		],"pagination":{"next":"%s/incidents?page=%d"}}`, server.URL, calls.Load()+1)
	}))
	defer server.Close()

	client := newTestClient(server.URL, RetryPolicy{})
	incidents, err := client.ListIncidents(context.Background(), IncidentFilter{Name: "Jail (a1b2)", ReturnEarly: true})
	if err != nil {
		t.Fatalf("ListIncidents failed: %v", err)
	}
	if len(incidents) != 1 {
		t.Errorf("expected 1 incident, got %d", len(incidents))
	}
	if calls.Load() != 1 {
		t.Errorf("expected paging to stop after the first match, got %d calls", calls.Load())
	}
}

func TestClient_WriteRetriesUntilExpectedStatus(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		var req CreateIncidentRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.RequesterEmail != "ops@example.com" || !req.Push || req.Email {
			t.Errorf("unexpected payload %+v", req)
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"data":{"id":"42","type":"incident","attributes":{"name":"%s","started_at":"2024-01-01T00:00:00Z"}}}`, req.Name)
	}))
	defer server.Close()

	client := newTestClient(server.URL, RetryPolicy{Interval: time.Millisecond})
	incident, err := client.CreateIncident(context.Background(), "Jail (a1b2)", "jailed")
	if err != nil {
		t.Fatalf("CreateIncident failed: %v", err)
	}
	if incident.ID != "42" {
		t.Errorf("expected id 42, got %s", incident.ID)
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestClient_WriteGivesUpAfterMaxRetries(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		// 200 is not the expected status for a delete
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server.URL, RetryPolicy{Interval: time.Millisecond, MaxRetries: 2})
	err := client.DeleteIncident(context.Background(), "7")
	if err == nil {
		t.Fatal("expected error after retries were exhausted")
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 1 attempt plus 2 retries, got %d", attempts.Load())
	}
}

func TestClient_WriteStopsOnContextCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := newTestClient(server.URL, RetryPolicy{Interval: 5 * time.Millisecond})
	if err := client.ResolveIncident(ctx, "1"); err == nil {
		t.Fatal("expected error once the context expired")
	}
}

func TestExpectedStatus(t *testing.T) {
	tests := []struct {
		method, endpoint string
		want             int
	}{
		{http.MethodPost, "incidents", http.StatusCreated},
		{http.MethodPost, "incidents/12/resolve", http.StatusOK},
		{http.MethodDelete, "heartbeats/3", http.StatusNoContent},
		{http.MethodGet, "heartbeat-groups", http.StatusOK},
	}
	for _, tt := range tests {
		if got := expectedStatus(tt.method, tt.endpoint); got != tt.want {
			t.Errorf("expectedStatus(%s %s) = %d, want %d", tt.method, tt.endpoint, got, tt.want)
		}
	}
}
