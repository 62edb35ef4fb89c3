package observability

import (
	"maps"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Metrics keeps in-process counters for HTTP traffic and lending outcomes.
// A nil *Metrics records nothing.
type Metrics struct {
	mu       sync.Mutex
	requests map[string]*RouteStats
	errors   map[string]int64
	lending  map[string]int64
	fines    decimal.Decimal
}

// RouteStats aggregates requests for one method, path and status.
type RouteStats struct {
	Count int64
	Total time.Duration
	Max   time.Duration
}

// LendingSnapshot is a point-in-time copy of the lending counters.
type LendingSnapshot struct {
	Counters   map[string]int64
	FinesTotal decimal.Decimal
}

// NewMetrics returns empty counters.
func NewMetrics() *Metrics {
	return &Metrics{
		requests: make(map[string]*RouteStats),
		errors:   make(map[string]int64),
		lending:  make(map[string]int64),
		fines:    decimal.Zero,
	}
}

// RecordRequest adds a served request to its route bucket.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := routeKey(method, path, strconv.Itoa(status))
	m.mu.Lock()
	defer m.mu.Unlock()
	stats, ok := m.requests[key]
	if !ok {
		stats = &RouteStats{}
		m.requests[key] = stats
	}
	stats.Count++
	stats.Total += duration
	stats.Max = max(stats.Max, duration)
}

// RecordError counts an error response by its domain code.
func (m *Metrics) RecordError(path, method, code string) {
	m.with(func() { m.errors[routeKey(method, path, code)]++ })
}

// RecordBorrow counts a successful loan creation.
func (m *Metrics) RecordBorrow() {
	m.with(func() { m.lending["borrow"]++ })
}

// RecordReturn counts a successful return; a positive fine also counts as a
// late return and is added to the fines total.
func (m *Metrics) RecordReturn(fine decimal.Decimal) {
	m.with(func() {
		m.lending["return"]++
		if fine.IsPositive() {
			m.lending["return_late"]++
			m.fines = m.fines.Add(fine)
		}
	})
}

// RecordRejection counts a rejected lending transaction by error code.
func (m *Metrics) RecordRejection(op, code string) {
	m.with(func() { m.lending[op+"_rejected|"+code]++ })
}

// Lending returns a copy of the lending counters.
func (m *Metrics) Lending() LendingSnapshot {
	snapshot := LendingSnapshot{Counters: map[string]int64{}, FinesTotal: decimal.Zero}
	m.with(func() {
		snapshot.Counters = maps.Clone(m.lending)
		snapshot.FinesTotal = m.fines
	})
	return snapshot
}

// Requests returns a copy of the per-route request stats keyed by
// "METHOD path status".
func (m *Metrics) Requests() map[string]RouteStats {
	out := map[string]RouteStats{}
	m.with(func() {
		for k, v := range m.requests {
			out[k] = *v
		}
	})
	return out
}

func (m *Metrics) with(fn func()) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	fn()
}

func routeKey(method, path, outcome string) string {
	return method + " " + path + " " + outcome
}
