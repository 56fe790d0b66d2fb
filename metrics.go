package flushz

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsConfig is a config of the Prometheus metrics recorded by a Batcher.
//
// An instance is built by NewMetrics from defaults and configuration functions.
type MetricsConfig struct {
	// Namespace of the metrics.
	Namespace string
	// Subsystem of the metrics.
	Subsystem string
	// Buckets of the batch size histogram.
	SizeBuckets []float64
	// ConstLabels are attached to every metric, e.g. to tell batchers apart.
	ConstLabels prometheus.Labels
}

// Metrics records Batcher activity. A nil *Metrics records nothing.
type Metrics struct {
	itemsPushed    prometheus.Counter
	batchesFlushed *prometheus.CounterVec
	itemsFlushed   *prometheus.CounterVec
	itemsDiscarded prometheus.Counter
	batchSize      prometheus.Histogram
	buffered       prometheus.Gauge
}

// NewMetrics creates the Batcher metrics and registers them with registerer.
// If registerer is nil, metrics are created but not registered.
func NewMetrics(registerer prometheus.Registerer, configFuncs ...func(c *MetricsConfig)) *Metrics {
	c := MetricsConfig{
		Namespace:   "flushz",
		SizeBuckets: prometheus.ExponentialBuckets(1, 2, 12),
	}
	for _, cf := range configFuncs {
		if cf != nil {
			cf(&c)
		}
	}

	m := Metrics{
		itemsPushed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   c.Namespace,
			Subsystem:   c.Subsystem,
			Name:        "items_pushed_total",
			Help:        "Number of items appended to the batch buffer",
			ConstLabels: c.ConstLabels,
		}),
		batchesFlushed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   c.Namespace,
			Subsystem:   c.Subsystem,
			Name:        "batches_flushed_total",
			Help:        "Number of non-empty batches emitted, by flush trigger",
			ConstLabels: c.ConstLabels,
		}, []string{"trigger"}),
		itemsFlushed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   c.Namespace,
			Subsystem:   c.Subsystem,
			Name:        "items_flushed_total",
			Help:        "Number of items emitted in batches, by flush trigger",
			ConstLabels: c.ConstLabels,
		}, []string{"trigger"}),
		itemsDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   c.Namespace,
			Subsystem:   c.Subsystem,
			Name:        "items_discarded_total",
			Help:        "Number of buffered items dropped without being delivered",
			ConstLabels: c.ConstLabels,
		}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   c.Namespace,
			Subsystem:   c.Subsystem,
			Name:        "batch_size",
			Help:        "Number of items per emitted batch",
			Buckets:     c.SizeBuckets,
			ConstLabels: c.ConstLabels,
		}),
		buffered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   c.Namespace,
			Subsystem:   c.Subsystem,
			Name:        "buffered_items",
			Help:        "Number of items waiting in the batch buffer",
			ConstLabels: c.ConstLabels,
		}),
	}

	if registerer != nil {
		registerer.MustRegister(
			m.itemsPushed,
			m.batchesFlushed,
			m.itemsFlushed,
			m.itemsDiscarded,
			m.batchSize,
			m.buffered,
		)
	}

	return &m
}

func (m *Metrics) pushed() {
	if m == nil {
		return
	}
	m.buffered.Inc()
	m.itemsPushed.Inc()
}

func (m *Metrics) flushed(trigger FlushTrigger, size int) {
	if m == nil {
		return
	}
	m.buffered.Sub(float64(size))
	if size == 0 {
		return
	}
	m.batchesFlushed.WithLabelValues(string(trigger)).Inc()
	m.itemsFlushed.WithLabelValues(string(trigger)).Add(float64(size))
	m.batchSize.Observe(float64(size))
}

// discarded accounts for items dropped on cancellation, including a batch
// whose delivery was cut short.
func (m *Metrics) discarded(size int) {
	if m == nil || size == 0 {
		return
	}
	m.buffered.Sub(float64(size))
	m.itemsDiscarded.Add(float64(size))
}
