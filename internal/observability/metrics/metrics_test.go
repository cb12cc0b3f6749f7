package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestBookingMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.ObserveBooking("created")
	m.ObserveBooking("created")
	m.ObserveBooking("conflict")
	m.ObserveSlotConflict()
	m.ObserveTransition("upcoming")
	m.ObserveSymptomCheck("ok")

	if got := testutil.ToFloat64(m.bookingsTotal.WithLabelValues("created")); got != 2 {
		t.Errorf("bookings created = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.slotConflicts); got != 1 {
		t.Errorf("slot conflicts = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.transitionsTotal.WithLabelValues("upcoming")); got != 1 {
		t.Errorf("transitions upcoming = %v, want 1", got)
	}
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveBooking("created")
	m.ObserveSlotConflict()
	m.ObserveTransition("cancelled")
	m.ObserveSymptomCheck("rejected")
}
