package observability

import (
	"testing"
	"time"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/dashboard", "GET", 200, time.Millisecond)
	m.RecordRequest("/api/dashboard", "GET", 200, time.Millisecond)
	m.RecordError("/api/dashboard", "GET", "UPSTREAM_FAILED")
	m.RecordRefresh("ok", 120*time.Millisecond)
	m.RecordRefresh("error", time.Second)
	m.RecordArrivals(3)
	m.RecordArrivals(0)

	snap := m.Snapshot()
	if snap.Requests["/api/dashboard|GET|200"] != 2 {
		t.Fatalf("unexpected request counts %v", snap.Requests)
	}
	if snap.Errors["/api/dashboard|GET|UPSTREAM_FAILED"] != 1 {
		t.Fatalf("unexpected error counts %v", snap.Errors)
	}
	if snap.Refreshes["ok"] != 1 || snap.Refreshes["error"] != 1 {
		t.Fatalf("unexpected refresh counts %v", snap.Refreshes)
	}
	if snap.LastRefreshAt == nil || snap.LastRefreshTook != "120ms" {
		t.Fatalf("expected last successful refresh recorded, got %+v", snap)
	}
	if snap.Arrivals != 3 {
		t.Fatalf("expected 3 arrivals, got %d", snap.Arrivals)
	}

	snap.Requests["/api/dashboard|GET|200"] = 99
	if m.Snapshot().Requests["/api/dashboard|GET|200"] != 2 {
		t.Fatal("snapshot shares state with metrics")
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, 0)
	m.RecordError("/", "GET", "X")
	m.RecordRefresh("ok", 0)
	m.RecordArrivals(1)
	if snap := m.Snapshot(); snap.Requests != nil {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}
