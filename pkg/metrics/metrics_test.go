package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	v := NewVectors(reg)
	c := NewCollectorWith("orders", v)

	c.Observe(OutcomeOK, 5, 2*time.Millisecond)
	c.Observe(OutcomeCancelled, 2, time.Millisecond)
	c.Observe(OutcomeDecodeError, 0, time.Millisecond)

	assert.Equal(t, 7.0, testutil.ToFloat64(v.RowsMaterialized.WithLabelValues("orders")))
	assert.Equal(t, 1.0, testutil.ToFloat64(v.MaterializationsTotal.WithLabelValues("orders", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(v.MaterializationsTotal.WithLabelValues("orders", OutcomeCancelled)))
	assert.Equal(t, 1, testutil.CollectAndCount(v.MaterializeDuration))
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() { c.Observe(OutcomeOK, 1, time.Second) })
}

func TestTimer(t *testing.T) {
	timer := NewTimer()
	time.Sleep(time.Millisecond)
	assert.GreaterOrEqual(t, timer.Stop(), time.Millisecond)
}
