package accesslog

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/zenGate-Global/hello-audit/platform/go/requesttrace"
)

// Metrics counts access-log records by identity kind and the records that could not be emitted.
type Metrics struct {
	records  *prometheus.CounterVec
	failures prometheus.Counter
}

// NewMetrics creates the access-log counters and registers them on reg. A nil reg leaves the
// counters unregistered, which is what tests usually want.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hello_audit",
			Subsystem: "access_log",
			Name:      "records_total",
			Help:      "Access-log records emitted, by identity kind.",
		}, []string{"identity"}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hello_audit",
			Subsystem: "access_log",
			Name:      "failures_total",
			Help:      "Access-log records dropped because the emitter failed.",
		}),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.records, m.failures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(kind requesttrace.ActorKind) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) fail() {
	if m == nil {
		return
	}
	m.failures.Inc()
}
