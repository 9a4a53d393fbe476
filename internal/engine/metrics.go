package engine

import "sync/atomic"

// Metrics holds lock-free counters for observability only; nothing here
// participates in matching decisions. Exposed through MatchingEngine for
// the orchestrator's debug/LOG_BOOK path.
type Metrics struct {
	OrdersReceived  atomic.Int64
	OrdersRejected  atomic.Int64
	OrdersCancelled atomic.Int64
	FillsEmitted    atomic.Int64
	SharesMatched   atomic.Int64
}

func newMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) recordReceived() {
	m.OrdersReceived.Add(1)
}

func (m *Metrics) recordRejected() {
	m.OrdersRejected.Add(1)
}

func (m *Metrics) recordCancelled() {
	m.OrdersCancelled.Add(1)
}

func (m *Metrics) recordFill(quantity uint64) {
	m.FillsEmitted.Add(1)
	m.SharesMatched.Add(int64(quantity))
}

// MetricsSnapshot is a point-in-time copy of the counters, safe to log or export.
type MetricsSnapshot struct {
	OrdersReceived  int64
	OrdersRejected  int64
	OrdersCancelled int64
	FillsEmitted    int64
	SharesMatched   int64
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		OrdersReceived:  m.OrdersReceived.Load(),
		OrdersRejected:  m.OrdersRejected.Load(),
		OrdersCancelled: m.OrdersCancelled.Load(),
		FillsEmitted:    m.FillsEmitted.Load(),
		SharesMatched:   m.SharesMatched.Load(),
	}
}
