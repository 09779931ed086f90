package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLedgerMetrics(reg)

	m.ObserveOperation("record_sale", "ok", 20*time.Millisecond)
	m.ObserveOperation("record_sale", "rejected", 10*time.Millisecond)
	m.ObserveOperation("record_sale", "ok", 5*time.Millisecond)
	m.AddUnitsAdded(10)
	m.AddUnitsSold(3)
	m.AddArchivedRows("additions", 1)
	m.AddArchivedRows("sales", 2)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	ok, err := fetchCounterValue(mfs, "inventory_operations_total", map[string]string{"operation": "record_sale", "outcome": "ok"})
	require.NoError(t, err)
	assert.Equal(t, 2.0, ok)

	rejected, err := fetchCounterValue(mfs, "inventory_operations_total", map[string]string{"operation": "record_sale", "outcome": "rejected"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, rejected)

	added, err := fetchCounterValue(mfs, "inventory_units_added_total", nil)
	require.NoError(t, err)
	assert.Equal(t, 10.0, added)

	sold, err := fetchCounterValue(mfs, "inventory_units_sold_total", nil)
	require.NoError(t, err)
	assert.Equal(t, 3.0, sold)

	sales, err := fetchCounterValue(mfs, "inventory_archived_rows_total", map[string]string{"log": "sales"})
	require.NoError(t, err)
	assert.Equal(t, 2.0, sales)

	mf := findMetricFamily(mfs, "inventory_operation_duration_seconds")
	require.NotNil(t, mf)
	require.Len(t, mf.GetMetric(), 1)
	assert.Equal(t, uint64(3), mf.GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestLedgerMetricsNilSafe(t *testing.T) {
	var m *LedgerMetrics
	m.ObserveOperation("add_stock", "ok", time.Millisecond)
	m.AddUnitsAdded(1)
	m.AddUnitsSold(1)
	m.AddArchivedRows("sales", 1)

	unregistered := NewLedgerMetrics(nil)
	unregistered.ObserveOperation("add_stock", "ok", time.Millisecond)
	unregistered.AddUnitsSold(1)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
