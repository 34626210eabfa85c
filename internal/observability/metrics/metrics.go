// Package metrics registers the service's Prometheus collectors. All record
// helpers are nil-safe so code paths may run before Init.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "hassems_"

var (
	registerOnce sync.Once

	pointWrites      *prometheus.CounterVec
	pointWriteTiming *prometheus.HistogramVec

	cursorRotations prometheus.Counter

	statisticsRefreshes *prometheus.CounterVec
	statisticsTiming    *prometheus.HistogramVec

	webhookDeliveries *prometheus.CounterVec

	recorderWrites *prometheus.CounterVec
)

// Init registers all collectors with the default registry. Safe to call more
// than once.
func Init() {
	registerOnce.Do(func() {
		pointWrites = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "point_writes_total",
				Help: "Total history point writes by result",
			},
			[]string{"result"},
		)
		pointWriteTiming = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "point_write_latency_seconds",
				Help:    "History point write latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		cursorRotations = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "cursor_rotations_total",
				Help: "Total history cursor rotations",
			},
		)

		statisticsRefreshes = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "statistics_refreshes_total",
				Help: "Total hourly statistics refreshes by result",
			},
			[]string{"result"},
		)
		statisticsTiming = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "statistics_refresh_latency_seconds",
				Help:    "Hourly statistics refresh latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		webhookDeliveries = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "webhook_deliveries_total",
				Help: "Total history-change webhook deliveries by result",
			},
			[]string{"result"},
		)

		recorderWrites = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "recorder_writes_total",
				Help: "Total recorder state writes by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			pointWrites,
			pointWriteTiming,
			cursorRotations,
			statisticsRefreshes,
			statisticsTiming,
			webhookDeliveries,
			recorderWrites,
		)
	})
}

// ObservePointWrite records one history point write.
func ObservePointWrite(result string, seconds float64) {
	if pointWrites == nil {
		return
	}
	pointWrites.WithLabelValues(result).Inc()
	pointWriteTiming.WithLabelValues(result).Observe(seconds)
}

// IncCursorRotation records one cursor rotation.
func IncCursorRotation() {
	if cursorRotations == nil {
		return
	}
	cursorRotations.Inc()
}

// ObserveStatisticsRefresh records one statistics refresh.
func ObserveStatisticsRefresh(result string, seconds float64) {
	if statisticsRefreshes == nil {
		return
	}
	statisticsRefreshes.WithLabelValues(result).Inc()
	statisticsTiming.WithLabelValues(result).Observe(seconds)
}

// IncWebhookDelivery records one webhook delivery attempt.
func IncWebhookDelivery(result string) {
	if webhookDeliveries == nil {
		return
	}
	webhookDeliveries.WithLabelValues(result).Inc()
}

// IncRecorderWrite records one recorder state write attempt.
func IncRecorderWrite(result string) {
	if recorderWrites == nil {
		return
	}
	recorderWrites.WithLabelValues(result).Inc()
}
