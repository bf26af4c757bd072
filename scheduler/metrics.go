package scheduler

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const METRICS_NAMESPACE = "eonmsm"

type metrics struct {
	elements  *prometheus.CounterVec
	batches   *prometheus.HistogramVec
	fractions *prometheus.GaugeVec
}

// newMetrics registers the scheduler collectors on reg, or on a private
// registry when reg is nil.
func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &metrics{
		elements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: METRICS_NAMESPACE,
			Subsystem: "scheduler",
			Name:      "elements_total",
			Help:      "Points multiplied, by participant.",
		}, []string{"participant"}),
		batches: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: METRICS_NAMESPACE,
			Subsystem: "scheduler",
			Name:      "batch_duration_seconds",
			Help:      "Wall time of one batch scalar multiplication.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"strategy"}),
		fractions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: METRICS_NAMESPACE,
			Subsystem: "scheduler",
			Name:      "profile_fraction",
			Help:      "Share of a static batch assigned to each device.",
		}, []string{"device"}),
	}
	err := errors.Join(
		reg.Register(m.elements),
		reg.Register(m.batches),
		reg.Register(m.fractions),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *metrics) observeProfile(p Profile) {
	for d, f := range p.Fractions {
		m.fractions.WithLabelValues(strconv.Itoa(d)).Set(f)
	}
}
