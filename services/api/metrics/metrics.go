// Package metrics holds the Prometheus collectors shared by the API, the
// simulation driver and the realtime notifier.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests served.",
		},
		[]string{"route", "method", "status"},
	)
	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	simulationTicksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simulation_ticks_total",
			Help: "Total number of generation sweeps executed.",
		},
	)
	simulationTickDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "simulation_tick_duration_seconds",
			Help:    "Wall time of one generation sweep.",
			Buckets: prometheus.DefBuckets,
		},
	)
	readingsWrittenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readings_written_total",
			Help: "Readings appended to the store, by category.",
		},
		[]string{"category"},
	)
	persistenceFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "persistence_failures_total",
			Help: "Failed store calls made by the simulation driver, by operation.",
		},
		[]string{"op"},
	)

	realtimeClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_clients",
			Help: "Currently connected push-channel clients.",
		},
	)
	realtimeUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_updates_total",
			Help: "dataUpdate events fanned out, by sink and outcome.",
		},
		[]string{"sink", "outcome"},
	)
	realtimeDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "realtime_dropped_messages_total",
			Help: "Messages dropped because a client send buffer was full.",
		},
	)
)

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(route, method string, status int, dur time.Duration) {
	if route == "" {
		route = "other"
	}
	httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpRequestDurationSeconds.WithLabelValues(route, method).Observe(dur.Seconds())
}

// ObserveTick records one completed simulation sweep.
func ObserveTick(dur time.Duration) {
	simulationTicksTotal.Inc()
	simulationTickDurationSeconds.Observe(dur.Seconds())
}

func ReadingWritten(category string) {
	readingsWrittenTotal.WithLabelValues(category).Inc()
}

func PersistenceFailed(op string) {
	persistenceFailuresTotal.WithLabelValues(op).Inc()
}

func SetRealtimeClients(n int) {
	realtimeClients.Set(float64(n))
}

func UpdatePublished(sink string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	realtimeUpdatesTotal.WithLabelValues(sink, outcome).Inc()
}

func MessageDropped() {
	realtimeDroppedTotal.Inc()
}
