package paysub

import "github.com/prometheus/client_golang/prometheus"

const metricsNamespace = "lnpay"

var (
	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_total",
			Help:      "Payment events emitted, by kind.",
		},
		[]string{"kind"},
	)

	streamErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "stream_errors_total",
			Help:      "Payment streams that ended with an error.",
		},
	)

	discardedUpdatesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "discarded_updates_total",
			Help: "Payment updates received after a terminal " +
				"event.",
		},
	)
)

// RegisterMetrics registers the package's collectors with the registerer
// provided.
func RegisterMetrics(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		eventsTotal, streamErrorsTotal, discardedUpdatesTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			return err
		}
	}

	return nil
}
