// Package metrics exports ledger activity as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics implements inventory.Recorder. A nil *LedgerMetrics, or one
// built without a registerer, records nothing.
type LedgerMetrics struct {
	operations   *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	unitsAdded   prometheus.Counter
	unitsSold    prometheus.Counter
	archivedRows *prometheus.CounterVec
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_operations_total",
		Help: "Ledger operations by outcome.",
	}, []string{"operation", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inventory_operation_duration_seconds",
		Help:    "Duration of ledger operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	unitsAdded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "inventory_units_added_total",
		Help: "Units added to stock.",
	})
	unitsSold := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "inventory_units_sold_total",
		Help: "Units removed from stock by sales.",
	})
	archivedRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_archived_rows_total",
		Help: "Log rows moved into the archive.",
	}, []string{"log"})
	reg.MustRegister(operations, duration, unitsAdded, unitsSold, archivedRows)
	return &LedgerMetrics{
		operations:   operations,
		duration:     duration,
		unitsAdded:   unitsAdded,
		unitsSold:    unitsSold,
		archivedRows: archivedRows,
	}
}

// ObserveOperation counts one operation and records how long it took.
func (m *LedgerMetrics) ObserveOperation(op string, outcome string, elapsed time.Duration) {
	if m == nil || m.operations == nil {
		return
	}
	op = normalizeLabel(op)
	m.operations.WithLabelValues(op, normalizeLabel(outcome)).Inc()
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (m *LedgerMetrics) AddUnitsAdded(n int) {
	if m == nil || m.unitsAdded == nil || n <= 0 {
		return
	}
	m.unitsAdded.Add(float64(n))
}

func (m *LedgerMetrics) AddUnitsSold(n int) {
	if m == nil || m.unitsSold == nil || n <= 0 {
		return
	}
	m.unitsSold.Add(float64(n))
}

// AddArchivedRows counts rows archived from the named log ("additions" or "sales").
func (m *LedgerMetrics) AddArchivedRows(log string, n int) {
	if m == nil || m.archivedRows == nil || n < 0 {
		return
	}
	m.archivedRows.WithLabelValues(normalizeLabel(log)).Add(float64(n))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
