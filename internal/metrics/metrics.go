package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/oshokin/safehome/internal/service/security"
)

const namespace = "safehome"

// Metrics records security manager cycles as Prometheus metrics.
type Metrics struct {
	cycles     prometheus.Counter
	intrusions *prometheus.CounterVec
	alarms     prometheus.Counter
	armed      prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "update_cycles_total",
			Help:      "Number of arming resolution cycles.",
		}),
		intrusions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intrusions_total",
			Help:      "Tripped armed sensors seen per cycle, split by bypass.",
		}, []string{"bypassed"}),
		alarms: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alarms_total",
			Help:      "Number of cycles that triggered the siren.",
		}),
		armed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "armed_sensors",
			Help:      "Number of sensors armed after the last cycle.",
		}),
	}

	for _, c := range []prometheus.Collector{m.cycles, m.intrusions, m.alarms, m.armed} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// ObserveCycle implements security.Observer.
func (m *Metrics) ObserveCycle(report security.CycleReport) {
	m.cycles.Inc()
	m.armed.Set(float64(report.Armed))
	m.intrusions.WithLabelValues("false").Add(float64(report.Tripped - report.Bypassed))
	m.intrusions.WithLabelValues("true").Add(float64(report.Bypassed))

	if report.Alarmed {
		m.alarms.Inc()
	}
}

var _ security.Observer = (*Metrics)(nil)
