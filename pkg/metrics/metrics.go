// Package metrics provides Prometheus instrumentation for rowmap readers.
//
// # Overview
//
// Every reader owns a Collector labelled with the reader name. The collector
// records:
//   - rows materialized
//   - materializations by outcome (ok, decode_error, cursor_error, merge_error, cancelled)
//   - materialization duration
//
// The registry of default readers reports its size through RegistryEntries.
//
// # Basic Usage
//
//	collector := metrics.NewCollector("orders")
//	timer := metrics.NewTimer()
//	rows, err := materialize()
//	collector.Observe(outcome, rows, timer.Stop())
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for MaterializationsTotal.
const (
	OutcomeOK          = "ok"
	OutcomeDecodeError = "decode_error"
	OutcomeCursorError = "cursor_error"
	OutcomeMergeError  = "merge_error"
	OutcomeCancelled   = "cancelled"
	OutcomeError       = "error"
)

// Vectors bundles the metric families a Collector writes to.
type Vectors struct {
	RowsMaterialized      *prometheus.CounterVec
	MaterializationsTotal *prometheus.CounterVec
	MaterializeDuration   *prometheus.HistogramVec
	RegistryEntries       prometheus.Gauge
}

// NewVectors creates and registers the metric families with reg.
func NewVectors(reg prometheus.Registerer) *Vectors {
	factory := promauto.With(reg)
	return &Vectors{
		RowsMaterialized: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rowmap_rows_materialized_total",
				Help: "Total number of composite records appended to materialized lists",
			},
			[]string{"reader"},
		),
		MaterializationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rowmap_materializations_total",
				Help: "Total number of materializations by outcome",
			},
			[]string{"reader", "outcome"},
		),
		MaterializeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "rowmap_materialize_duration_seconds",
				Help: "Wall time of one materialization",
				Buckets: []float64{
					0.0001, // 100μs
					0.001,  // 1ms
					0.01,   // 10ms
					0.1,    // 100ms
					1,      // 1s
					10,     // 10s
				},
			},
			[]string{"reader"},
		),
		RegistryEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "rowmap_registry_entries",
				Help: "Number of cached default readers",
			},
		),
	}
}

var (
	defaultOnce    sync.Once
	defaultVectors *Vectors
)

// Default returns the vectors registered with the Prometheus default registerer.
func Default() *Vectors {
	defaultOnce.Do(func() {
		defaultVectors = NewVectors(prometheus.DefaultRegisterer)
	})
	return defaultVectors
}

// Collector records metrics for one reader.
type Collector struct {
	name    string
	vectors *Vectors
}

// NewCollector creates a collector on the default vectors.
func NewCollector(name string) *Collector {
	return NewCollectorWith(name, Default())
}

// NewCollectorWith creates a collector writing to v.
func NewCollectorWith(name string, v *Vectors) *Collector {
	return &Collector{name: name, vectors: v}
}

// Name returns the reader label.
func (c *Collector) Name() string {
	return c.name
}

// Observe records one finished materialization. A nil collector is a no-op.
func (c *Collector) Observe(outcome string, rows int, d time.Duration) {
	if c == nil {
		return
	}
	if rows > 0 {
		c.vectors.RowsMaterialized.WithLabelValues(c.name).Add(float64(rows))
	}
	c.vectors.MaterializationsTotal.WithLabelValues(c.name, outcome).Inc()
	c.vectors.MaterializeDuration.WithLabelValues(c.name).Observe(d.Seconds())
}

// Timer provides a simple timing mechanism for measuring operation durations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the elapsed duration since creation.
// The timer can be stopped multiple times.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
