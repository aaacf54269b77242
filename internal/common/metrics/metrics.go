package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dispatched_total",
			Help: "Total number of dispatch attempts by terminal outcome",
		},
		[]string{"channel", "trigger_event", "status"},
	)

	DispatchRefused = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_refused_total",
			Help: "Dispatches refused before the provider call",
		},
		[]string{"channel", "reason"},
	)

	DispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "notification_dispatch_duration_seconds",
			Help: "Duration of a full dispatch including the provider call",
		},
		[]string{"channel"},
	)

	ScanCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminder_scan_cycles_total",
			Help: "Reminder scan cycles by result",
		},
		[]string{"result"},
	)

	ScanCandidates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminder_scan_candidates_total",
			Help: "Appointments considered by the scanner per window",
		},
		[]string{"trigger_event", "outcome"},
	)

	QuotaCounters = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "channel_quota_remaining",
			Help: "Remaining daily quota observed at last settings read",
		},
		[]string{"channel"},
	)
)
