package layers

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes store counters as prometheus metrics. Register it with a
// prometheus registry:
//
//	prometheus.MustRegister(layers.NewCollector(store))
type Collector struct {
	store *Store

	eventsTotal    *prometheus.Desc
	updateSequence *prometheus.Desc
	layerCount     *prometheus.Desc
	reducerCount   *prometheus.Desc
}

// NewCollector creates a collector over the given store.
func NewCollector(store *Store) *Collector {
	return &Collector{
		store: store,

		eventsTotal: prometheus.NewDesc(
			"layerstore_events_total",
			"Total number of events persisted, by event kind",
			[]string{"kind"}, nil,
		),
		updateSequence: prometheus.NewDesc(
			"layerstore_update_sequence",
			"Current value of the global update sequence counter",
			nil, nil,
		),
		layerCount: prometheus.NewDesc(
			"layerstore_layers",
			"Number of layers in the projection",
			nil, nil,
		),
		reducerCount: prometheus.NewDesc(
			"layerstore_reducers",
			"Number of registered reducers",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.eventsTotal
	ch <- c.updateSequence
	ch <- c.layerCount
	ch <- c.reducerCount
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	counts, numLayers, numReducers := c.store.eventCounts()

	for kind, n := range counts {
		ch <- prometheus.MustNewConstMetric(
			c.eventsTotal,
			prometheus.CounterValue,
			float64(n),
			string(kind),
		)
	}
	ch <- prometheus.MustNewConstMetric(
		c.updateSequence,
		prometheus.CounterValue,
		float64(c.store.Seq()),
	)
	ch <- prometheus.MustNewConstMetric(
		c.layerCount,
		prometheus.GaugeValue,
		float64(numLayers),
	)
	ch <- prometheus.MustNewConstMetric(
		c.reducerCount,
		prometheus.GaugeValue,
		float64(numReducers),
	)
}
