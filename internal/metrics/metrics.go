package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var latencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

var (
	OrdersPlaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dms_orders_placed_total",
		Help: "Order placements by outcome",
	}, []string{"outcome"})

	OrderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dms_order_transitions_total",
		Help: "Committed order status transitions by target status",
	}, []string{"status"})

	DispatchDecrements = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dms_dispatch_stock_decrements_total",
		Help: "Orders whose stock was decremented on dispatch",
	})

	CourierAssignments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dms_courier_assignments_total",
		Help: "Bulk assignment calls by outcome",
	}, []string{"outcome"})

	NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dms_notification_failures_total",
		Help: "Push notifications that could not be handed to the dispatcher",
	}, []string{"category"})

	HubPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dms_hub_events_published_total",
		Help: "Events accepted by the broadcast hub",
	})

	HubDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dms_hub_events_dropped_total",
		Help: "Events dropped by the broadcast hub",
	}, []string{"reason"})

	HubConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dms_hub_connections",
		Help: "Currently connected broadcast subscribers",
	})

	TxDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dms_tx_duration_seconds",
		Help:    "Duration of order store transactions",
		Buckets: latencyBuckets,
	}, []string{"operation"})
)

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveTx records the elapsed time under operation.
func (t *Timer) ObserveTx(operation string) {
	TxDuration.WithLabelValues(operation).Observe(time.Since(t.start).Seconds())
}
