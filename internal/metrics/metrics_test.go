package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserve(t *testing.T) {
	m := New(func() float64 { return 2 })

	m.ObserveScan("ok", 5, time.Second)
	m.ObserveScan("quota", 0, time.Second)
	m.ObserveCommit("ok", 5)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.scans.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.scans.WithLabelValues("quota")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.rowsExtracted))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.rowsCommitted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.openReviews))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveScan("ok", 1, time.Second)
		m.ObserveCommit("ok", 1)
		m.ObserveHTTP("GET", "/api/members", "200", time.Millisecond)
	})
	assert.Nil(t, m.Registry())
}
