package blueprint

import "github.com/prometheus/client_golang/prometheus"

// Metrics tracks configuration churn of a Store.
type Metrics struct {
	mutations *prometheus.CounterVec
	version   prometheus.Gauge
	views     prometheus.Gauge
	overrides prometheus.Gauge
}

// NewMetrics creates the store metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "visrange_blueprint_mutations_total",
			Help: "Configuration changes applied to the blueprint store, by operation.",
		}, []string{"op"}),
		version: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "visrange_blueprint_version",
			Help: "Version of the current blueprint snapshot.",
		}),
		views: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "visrange_blueprint_views",
			Help: "Number of views in the current snapshot.",
		}),
		overrides: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "visrange_blueprint_entity_overrides",
			Help: "Number of entities carrying visible range overrides.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.mutations, m.version, m.views, m.overrides)
	}
	return m
}

func (m *Metrics) observe(op string, snap *Snapshot) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(op).Inc()
	m.version.Set(float64(snap.Version()))
	m.views.Set(float64(len(snap.order)))
	m.overrides.Set(float64(snap.overrideCount()))
}
