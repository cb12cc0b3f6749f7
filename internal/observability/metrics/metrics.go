package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters for the booking and lifecycle flows.
type BookingMetrics struct {
	bookingsTotal     *prometheus.CounterVec
	slotConflicts     prometheus.Counter
	transitionsTotal  *prometheus.CounterVec
	symptomChecks     *prometheus.CounterVec
}

// NewBookingMetrics registers the booking metric family.
func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eclinic",
			Subsystem: "scheduling",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		slotConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eclinic",
			Subsystem: "scheduling",
			Name:      "slot_conflicts_total",
			Help:      "Bookings lost to an already-claimed slot",
		}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eclinic",
			Subsystem: "scheduling",
			Name:      "transitions_total",
			Help:      "Appointment status transitions by target state",
		}, []string{"to"}),
		symptomChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eclinic",
			Subsystem: "symptomcheck",
			Name:      "suggestions_total",
			Help:      "Symptom checker calls by status",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.slotConflicts, m.transitionsTotal, m.symptomChecks)
	return m
}

// ObserveBooking records a booking attempt outcome.
func (m *BookingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

// ObserveSlotConflict records a lost booking race.
func (m *BookingMetrics) ObserveSlotConflict() {
	if m == nil {
		return
	}
	m.slotConflicts.Inc()
}

// ObserveTransition records a lifecycle transition.
func (m *BookingMetrics) ObserveTransition(to string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(to).Inc()
}

// ObserveSymptomCheck records a symptom checker call.
func (m *BookingMetrics) ObserveSymptomCheck(status string) {
	if m == nil {
		return
	}
	m.symptomChecks.WithLabelValues(status).Inc()
}
