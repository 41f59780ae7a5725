package handler

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	sourceHTTP  = "http"
	sourceKafka = "kafka"

	resultCreated = "created"
	resultFailed  = "failed"
)

var (
	ordersDLQ = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "storefront_orders",
			Subsystem: "kafka_consumer",
			Name:      "orders_dlq_total",
			Help:      "Total number of submissions written to DLQ",
		},
	)

	commitErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "storefront_orders",
			Subsystem: "kafka_consumer",
			Name:      "commit_errors_total",
			Help:      "Total number of Kafka commit errors",
		},
	)

	ordersInProgress = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "storefront_orders",
			Subsystem: "kafka_consumer",
			Name:      "orders_in_progress",
			Help:      "Number of submissions currently being processed",
		},
	)
)

var (
	ordersCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront_orders",
			Name:      "orders_created_total",
			Help:      "Total number of order submissions by source and result",
		},
		[]string{"source", "result"},
	)

	orderCreateDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "storefront_orders",
			Name:      "order_create_duration_seconds",
			Help:      "Histogram of successful order creation durations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	statusUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront_orders",
			Name:      "status_updates_total",
			Help:      "Total number of order status changes by new status",
		},
		[]string{"status"},
	)
)

func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(
		ordersDLQ,
		commitErrors,
		ordersInProgress,

		ordersCreated,
		orderCreateDuration,
		statusUpdates,
	)
}
