package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	transitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exitpass_transitions_total",
			Help: "Departure request lifecycle transitions, by action and result.",
		},
		[]string{"action", "result"},
	)

	delegationOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exitpass_delegation_operations_total",
			Help: "Delegation grant/revoke/extend operations, by operation and result.",
		},
		[]string{"operation", "result"},
	)

	notificationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exitpass_notification_failures_total",
			Help: "Best-effort side effects (email, audit, in-app) that failed after the transition committed.",
		},
		[]string{"channel"},
	)
)

// Init registers the workflow metrics in the default registry.
func Init() {
	prometheus.MustRegister(transitionsTotal, delegationOpsTotal, notificationFailures)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveTransition(action, result string) {
	transitionsTotal.WithLabelValues(action, result).Inc()
}

func ObserveDelegationOp(operation, result string) {
	delegationOpsTotal.WithLabelValues(operation, result).Inc()
}

func ObserveNotificationFailure(channel string) {
	notificationFailures.WithLabelValues(channel).Inc()
}
