package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// alarm engines. Per-alarm series are labelled with the alarm name.
type Metrics struct {
	Scans         *prometheus.CounterVec   // labels: alarm
	FetchErrors   *prometheus.CounterVec   // labels: alarm
	FetchDuration *prometheus.HistogramVec // labels: alarm

	RecordsSkipped *prometheus.CounterVec // labels: alarm, reason={missing,out_of_range}

	NotificationsSent       *prometheus.CounterVec // labels: alarm
	NotificationsSuppressed *prometheus.CounterVec // labels: alarm, reason={cooldown,rate_limit}
	SendErrors              *prometheus.CounterVec // labels: alarm

	EventPublishErrors prometheus.Counter
	ActiveAlarms       prometheus.Gauge
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.Scans,
		m.FetchErrors,
		m.FetchDuration,
		m.RecordsSkipped,
		m.NotificationsSent,
		m.NotificationsSuppressed,
		m.SendErrors,
		m.EventPublishErrors,
		m.ActiveAlarms,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_alarm",
			Name:      "scans_total",
			Help:      "Total forecast scans started, per alarm.",
		}, []string{"alarm"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_alarm",
			Name:      "fetch_errors_total",
			Help:      "Forecast fetches that failed or returned an unusable shape.",
		}, []string{"alarm"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "weather_alarm",
			Name:      "fetch_duration_seconds",
			Help:      "Forecast service call duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"alarm"}),
		RecordsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_alarm",
			Name:      "records_skipped_total",
			Help:      "Forecast records skipped for data-quality reasons.",
		}, []string{"alarm", "reason"}),
		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_alarm",
			Name:      "notifications_sent_total",
			Help:      "Notifications successfully dispatched, per alarm.",
		}, []string{"alarm"}),
		NotificationsSuppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_alarm",
			Name:      "notifications_suppressed_total",
			Help:      "Notifications suppressed by cooldown or rate limiting.",
		}, []string{"alarm", "reason"}),
		SendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_alarm",
			Name:      "send_errors_total",
			Help:      "Notification dispatches that returned an error.",
		}, []string{"alarm"}),
		EventPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_alarm",
			Name:      "event_publish_errors_total",
			Help:      "Audit event publishes that failed (best effort).",
		}),
		ActiveAlarms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "weather_alarm",
			Name:      "active_alarms",
			Help:      "Number of alarm instances that passed validation and are scheduled.",
		}),
	}
}
