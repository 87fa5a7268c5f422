// Package metrics exposes klaxon's Prometheus collectors.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	linesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "klaxon",
			Name:      "lines_total",
			Help:      "Log lines received, partitioned by source and stream.",
		},
		[]string{"source", "stream"},
	)

	qualifyingTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "klaxon",
			Name:      "qualifying_lines_total",
			Help:      "Lines that matched the error pattern and entered tracking.",
		},
		[]string{"source"},
	)

	alertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "klaxon",
			Name:      "alerts_total",
			Help:      "Immediate alerts emitted.",
		},
		[]string{"source"},
	)

	suppressedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "klaxon",
			Name:      "alerts_suppressed_total",
			Help:      "Immediate alerts suppressed by the rate-limit gate.",
		},
		[]string{"source"},
	)

	webhookFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "klaxon",
			Name:      "webhook_failures_total",
			Help:      "Webhook deliveries that failed.",
		},
	)
)

// Register attaches klaxon collectors to the supplied registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		linesTotal,
		qualifyingTotal,
		alertsTotal,
		suppressedTotal,
		webhookFailures,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveLine counts one received line.
func ObserveLine(source, stream string) {
	linesTotal.WithLabelValues(source, stream).Inc()
}

// ObserveQualifying counts one qualifying line.
func ObserveQualifying(source string) {
	qualifyingTotal.WithLabelValues(source).Inc()
}

// ObserveAlert counts one emitted immediate alert.
func ObserveAlert(source string) {
	alertsTotal.WithLabelValues(source).Inc()
}

// ObserveSuppressed counts one rate-limited alert.
func ObserveSuppressed(source string) {
	suppressedTotal.WithLabelValues(source).Inc()
}

// ObserveWebhookFailure counts one failed webhook delivery.
func ObserveWebhookFailure() {
	webhookFailures.Inc()
}
