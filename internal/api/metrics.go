package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	withdrawsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "withdraw_created_total",
			Help: "Withdraw requests accepted, by mode",
		},
		[]string{"mode"},
	)

	withdrawsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "withdraw_rejected_total",
			Help: "Withdraw requests rejected by the workflow, by reason",
		},
		[]string{"reason"},
	)

	settlementOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "withdraw_settlement_total",
			Help: "Scheduled withdraw settlement attempts, by outcome",
		},
		[]string{"outcome"},
	)

	sweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "withdraw_sweep_duration_seconds",
			Help:    "Duration of a scheduled settlement sweep",
			Buckets: prometheus.DefBuckets,
		},
	)

	notificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "withdraw_notification_total",
			Help: "Withdraw notifications, by kind and result",
		},
		[]string{"kind", "result"},
	)
)

const (
	modeImmediate = "immediate"
	modeScheduled = "scheduled"

	outcomeProcessed = "processed"
	outcomeFailed    = "failed"
	outcomeSkipped   = "skipped"
)

func rejectionReason(err error) string {
	switch {
	case isInsufficientBalance(err):
		return "insufficient_balance"
	case isInvalidCommand(err):
		return "invalid_command"
	default:
		return "error"
	}
}
