package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "slope_guard_"

var (
	registerOnce sync.Once

	alertsCreated    *prometheus.CounterVec
	alertsResolved   prometheus.Counter
	alertsEscalated  prometheus.Counter
	acksReceived     prometheus.Counter
	deliveriesTotal  *prometheus.CounterVec
	deliveriesDrop   *prometheus.CounterVec
	connectedDevices *prometheus.GaugeVec
)

// Init registers the coordinator metrics on the default Prometheus registry.
// Subsequent calls are no-ops, which keeps tests that wire the full server safe.
func Init() {
	registerOnce.Do(func() {
		alertsCreated = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alerts_created_total",
				Help: "Total alerts created by severity",
			},
			[]string{"severity"},
		)

		alertsResolved = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "alerts_resolved_total",
			Help: "Total alerts resolved by acknowledgement",
		})

		alertsEscalated = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "alerts_escalated_total",
			Help: "Total alerts escalated to sirens on timeout",
		})

		acksReceived = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "acks_received_total",
			Help: "Total acknowledgements received, including duplicates",
		})

		deliveriesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "event_deliveries_total",
				Help: "Total events delivered to device connections by event type",
			},
			[]string{"event"},
		)

		deliveriesDrop = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "event_deliveries_dropped_total",
				Help: "Total events dropped because a connection buffer was full",
			},
			[]string{"event"},
		)

		connectedDevices = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "connected_devices",
				Help: "Currently connected devices by role",
			},
			[]string{"role"},
		)

		prometheus.MustRegister(
			alertsCreated,
			alertsResolved,
			alertsEscalated,
			acksReceived,
			deliveriesTotal,
			deliveriesDrop,
			connectedDevices,
		)
	})
}

// AlertCreated increments the created-alerts counter for the severity.
func AlertCreated(severity string) {
	if alertsCreated != nil {
		alertsCreated.WithLabelValues(severity).Inc()
	}
}

// AlertResolved increments the resolved-alerts counter.
func AlertResolved() {
	if alertsResolved != nil {
		alertsResolved.Inc()
	}
}

// AlertEscalated increments the escalated-alerts counter.
func AlertEscalated() {
	if alertsEscalated != nil {
		alertsEscalated.Inc()
	}
}

// AckReceived increments the acknowledgement counter.
func AckReceived() {
	if acksReceived != nil {
		acksReceived.Inc()
	}
}

// EventDelivered increments the delivery counter for the event type.
func EventDelivered(event string) {
	if deliveriesTotal != nil {
		deliveriesTotal.WithLabelValues(event).Inc()
	}
}

// EventDropped increments the dropped-delivery counter for the event type.
func EventDropped(event string) {
	if deliveriesDrop != nil {
		deliveriesDrop.WithLabelValues(event).Inc()
	}
}

// SetConnectedDevices records the current device count for a role.
func SetConnectedDevices(role string, count int) {
	if connectedDevices != nil {
		connectedDevices.WithLabelValues(role).Set(float64(count))
	}
}
