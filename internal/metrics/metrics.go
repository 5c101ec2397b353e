package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evenza_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "evenza_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	SettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evenza_settlements_total",
			Help: "Total number of settlement attempts",
		},
		[]string{"status"},
	)

	SettlementReplaysTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "evenza_settlement_replays_total",
			Help: "Settle calls resolved from an already recorded receipt",
		},
	)

	SettledAmountTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "evenza_settled_amount_minor_units_total",
			Help: "Sum of credited settlement amounts in minor units",
		},
	)

	WithdrawalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evenza_withdrawals_total",
			Help: "Total number of withdrawal attempts",
		},
		[]string{"status"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evenza_notifications_total",
			Help: "Total number of notifications dispatched",
		},
		[]string{"kind", "status"},
	)

	NotificationQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "evenza_notification_queue_length",
			Help: "Current length of the notification queue",
		},
	)

	ReconcileRepairsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "evenza_reconcile_repairs_total",
			Help: "Receipts repaired by the reconciler",
		},
	)
)
