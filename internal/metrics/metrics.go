package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LockerOpensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartlocker_locker_opens_total",
		Help: "Total number of successful relay open commands, labeled by flow.",
	},
		[]string{"flow"},
	)

	DepositsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smartlocker_deposits_total",
		Help: "Total number of deposits closed and bound to an order.",
	})

	WithdrawalsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smartlocker_withdrawals_total",
		Help: "Total number of orders withdrawn and lockers released.",
	})

	DoorWaitTimeoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smartlocker_door_wait_timeouts_total",
		Help: "Total number of door-close waits that hit the timeout.",
	})

	OperationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartlocker_operation_errors_total",
		Help: "Total number of errors encountered during specific operations.",
	},
		[]string{"operation"},
	)

	OccupiedLockers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "smartlocker_occupied_lockers",
		Help: "Current number of occupied lockers.",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "smartlocker_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5, 30},
	},
		[]string{"method", "endpoint"},
	)
)
