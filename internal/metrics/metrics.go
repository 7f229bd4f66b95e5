package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "laundry_transitions_total",
		Help: "Machine commands and system transitions by action and outcome",
	}, []string{"action", "outcome"}) // outcome=applied|noop|<error class>

	timerFiresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "laundry_timer_fires_total",
		Help: "Timer fires by kind and whether they were applied or discarded as stale",
	}, []string{"kind", "outcome"}) // outcome=applied|stale

	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "laundry_notifications_total",
		Help: "Notification deliveries by message kind and outcome",
	}, []string{"kind", "outcome"}) // outcome=sent|no_subscription|dropped|failed|expired

	auditEntriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "laundry_audit_entries_total",
		Help: "Audit entries by event type and outcome",
	}, []string{"type", "outcome"}) // outcome=stored|failed

	reconcileRepairsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "laundry_reconcile_repairs_total",
		Help: "Records repaired by the reconcile sweep",
	}, []string{"repair"}) // repair=finished_overdue|cleared_stop
)

// RecordTransition counts one engine command.
func RecordTransition(action, outcome string) {
	transitionsTotal.WithLabelValues(action, outcome).Inc()
}

// RecordTimerFire counts a timer fire.
func RecordTimerFire(kind, outcome string) {
	timerFiresTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordNotification counts one notification delivery attempt.
func RecordNotification(kind, outcome string) {
	notificationsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordAudit counts one audit append.
func RecordAudit(eventType, outcome string) {
	auditEntriesTotal.WithLabelValues(eventType, outcome).Inc()
}

// RecordRepair counts reconcile repairs.
func RecordRepair(repair string, n int) {
	if n <= 0 {
		return
	}
	reconcileRepairsTotal.WithLabelValues(repair).Add(float64(n))
}
