package lsm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus collectors. Each engine gets its
// own registry rather than registering into the global default, so multiple
// Engine instances in one process never collide on metric names.
type Metrics struct {
	registry      *prometheus.Registry
	memtableBytes prometheus.Gauge
	flushesTotal  prometheus.Counter
	flushDuration prometheus.Histogram
	sstablesTotal prometheus.Gauge
	walBytesTotal prometheus.Counter
	getsTotal     *prometheus.CounterVec
}

// newMetrics builds a fresh, isolated registry and collector set.
func newMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		memtableBytes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "lsmkv_memtable_bytes",
			Help: "Current byte size of the active mutable memtable.",
		}),
		flushesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "lsmkv_flushes_total",
			Help: "Total number of memtable flushes committed.",
		}),
		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "lsmkv_flush_duration_seconds",
			Help:    "Duration of a single memtable-to-SST flush.",
			Buckets: prometheus.DefBuckets,
		}),
		sstablesTotal: factory.NewGauge(prometheus.GaugeOpts{
			Name: "lsmkv_sstables_total",
			Help: "Current number of on-disk SSTables.",
		}),
		walBytesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "lsmkv_wal_bytes_total",
			Help: "Total bytes appended to write-ahead log segments.",
		}),
		getsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lsmkv_gets_total",
			Help: "Total Get calls, partitioned by hit/miss.",
		}, []string{"hit"}),
	}
}

// Registry exposes the engine's isolated Prometheus registry, e.g. for
// mounting with promhttp.HandlerFor in a debug server.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) recordGet(hit bool) {
	if hit {
		m.getsTotal.WithLabelValues("true").Inc()
	} else {
		m.getsTotal.WithLabelValues("false").Inc()
	}
}
