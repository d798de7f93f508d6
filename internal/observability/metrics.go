package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu              sync.Mutex
	requestCount    map[string]int64
	errorCount      map[string]int64
	refreshCount    map[string]int64
	lastRefresh     time.Time
	lastRefreshTook time.Duration
	arrivals        int64
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	Requests        map[string]int64 `json:"requests"`
	Errors          map[string]int64 `json:"errors"`
	Refreshes       map[string]int64 `json:"refreshes"`
	LastRefreshAt   *time.Time       `json:"last_refresh_at,omitempty"`
	LastRefreshTook string           `json:"last_refresh_took,omitempty"`
	Arrivals        int64            `json:"arrivals"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		refreshCount: make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordRefresh counts a finished refresh cycle by outcome
// ("ok", "error", "unauthenticated", "superseded").
func (m *Metrics) RecordRefresh(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshCount[outcome]++
	if outcome == "ok" {
		m.lastRefresh = time.Now().UTC()
		m.lastRefreshTook = duration
	}
}

// RecordArrivals adds newly detected tickets.
func (m *Metrics) RecordArrivals(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.arrivals += int64(n)
}

// Snapshot copies the counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := MetricsSnapshot{
		Requests:  copyCounts(m.requestCount),
		Errors:    copyCounts(m.errorCount),
		Refreshes: copyCounts(m.refreshCount),
		Arrivals:  m.arrivals,
	}
	if !m.lastRefresh.IsZero() {
		at := m.lastRefresh
		snap.LastRefreshAt = &at
		snap.LastRefreshTook = m.lastRefreshTook.String()
	}
	return snap
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
