package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "turfbook_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "turfbook_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	ReservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "turfbook_reservations_total",
			Help: "Reservation attempts by outcome",
		},
		[]string{"outcome"},
	)

	BookingTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "turfbook_booking_transitions_total",
			Help: "Applied booking status transitions",
		},
		[]string{"to", "source"},
	)

	PaymentVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "turfbook_payment_verifications_total",
			Help: "Payment verification results",
		},
		[]string{"result"},
	)

	HoldsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "turfbook_holds_expired_total",
			Help: "Pending holds cancelled by the sweeper",
		},
	)

	EventsDispatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "turfbook_events_dispatched_total",
			Help: "Domain events delivered per channel",
		},
		[]string{"channel", "status"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordReservation counts a reserve attempt; outcome is "created",
// "conflict" or "error".
func RecordReservation(outcome string) {
	ReservationsTotal.WithLabelValues(outcome).Inc()
}

func RecordTransition(to, source string) {
	BookingTransitionsTotal.WithLabelValues(to, source).Inc()
}

func RecordVerification(result string) {
	PaymentVerificationsTotal.WithLabelValues(result).Inc()
}

func RecordExpired(n int) {
	HoldsExpiredTotal.Add(float64(n))
}

func RecordDispatch(channel, status string) {
	EventsDispatchedTotal.WithLabelValues(channel, status).Inc()
}
