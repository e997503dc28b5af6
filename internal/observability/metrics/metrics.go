package metrics

import "github.com/prometheus/client_golang/prometheus"

// DefaultService labels HTTP metrics until MustRegister names the service.
const DefaultService = "recruit-tracker"

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"service", "method", "path", "status"},
	)

	httpDurations = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)

	HTTPRequestsTotal = httpRequests.MustCurryWith(prometheus.Labels{"service": DefaultService})

	HTTPRequestDurationSeconds prometheus.ObserverVec = httpDurations.MustCurryWith(prometheus.Labels{"service": DefaultService})

	StatusChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recruit_tracker_status_changes_total",
			Help: "Status update requests by outcome (changed, unchanged, rejected).",
		},
		[]string{"result"},
	)

	NoteActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recruit_tracker_note_actions_total",
			Help: "Note history events written, by action.",
		},
		[]string{"action"},
	)

	AuditTrimmedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recruit_tracker_audit_trimmed_total",
			Help: "Audit rows deleted by the retention trimmer, by kind.",
		},
		[]string{"kind"},
	)

	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recruit_tracker_notifications_total",
			Help: "Webhook notification attempts by result.",
		},
		[]string{"result"},
	)

	AuthenticationAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recruit_tracker_authentication_attempts_total",
			Help: "Bearer token checks by method and result.",
		},
		[]string{"method", "result"},
	)

	JobsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "recruit_tracker_jobs_dropped_total",
			Help: "Background jobs dropped because the queue was full.",
		},
	)
)

func MustRegister(serviceName string) {
	HTTPRequestsTotal = httpRequests.MustCurryWith(prometheus.Labels{"service": serviceName})
	HTTPRequestDurationSeconds = httpDurations.MustCurryWith(prometheus.Labels{"service": serviceName})

	prometheus.MustRegister(
		httpRequests,
		httpDurations,
		StatusChangesTotal,
		NoteActionsTotal,
		AuditTrimmedTotal,
		NotificationsTotal,
		AuthenticationAttemptsTotal,
		JobsDroppedTotal,
	)
}
