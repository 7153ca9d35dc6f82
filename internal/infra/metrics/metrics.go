package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "k8s_restart_notify"

// Notification delivery outcomes.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

var (
	restartsDetectedTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "restarts_detected_total",
			Help:      "Total number of container restarts detected.",
		},
		[]string{"namespace"},
	)

	baselineResetsTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "baseline_resets_total",
			Help: "Total number of restart baselines reset because the restart count decreased " +
				"(pod replaced under the same name).",
		},
		[]string{"namespace"},
	)

	trackedContainers = promauto.With(prometheus.DefaultRegisterer).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tracked_containers",
			Help:      "Number of containers with a restart baseline.",
		},
	)

	notificationsTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Total number of restart notifications by delivery status.",
		},
		[]string{"status"},
	)

	deliveryDuration = promauto.With(prometheus.DefaultRegisterer).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "delivery_duration_seconds",
			Help:      "Duration of chat API requests.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "status"},
	)

	subscriptionResyncsTotal = promauto.With(prometheus.DefaultRegisterer).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscription_resyncs_total",
			Help:      "Total number of full pod lists, including resyncs after a watch break.",
		},
	)

	queueLength = promauto.With(prometheus.DefaultRegisterer).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_length",
			Help:      "Number of restart events waiting for delivery.",
		},
	)
)

// RecordRestartDetected increments the detected restarts counter.
func RecordRestartDetected(ns string) {
	restartsDetectedTotal.WithLabelValues(ns).Inc()
}

// RecordBaselineReset increments the counter of baselines reset on a decreasing restart count.
func RecordBaselineReset(ns string) {
	baselineResetsTotal.WithLabelValues(ns).Inc()
}

func SetTrackedContainers(n int) {
	trackedContainers.Set(float64(n))
}

// RecordNotification counts a notification by status (StatusSent or StatusFailed).
func RecordNotification(status string) {
	notificationsTotal.WithLabelValues(status).Inc()
}

// ObserveDelivery records the duration of a chat API call.
func ObserveDelivery(method, status string, d time.Duration) {
	deliveryDuration.WithLabelValues(method, status).Observe(d.Seconds())
}

func RecordSubscriptionResync() {
	subscriptionResyncsTotal.Inc()
}

func SetQueueLength(n int) {
	queueLength.Set(float64(n))
}
