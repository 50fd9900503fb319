package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BookingMetrics is what the scheduler and the event pipeline report.
type BookingMetrics interface {
	IncAppointmentCreated()
	IncAppointmentRejected(reason string)
	IncTransition(status string)
	ObserveRevenueCents(cents int64)
	IncEventDropped()
	IncEventDelivered(sink string, ok bool)
	IncReminderSent(kind string, ok bool)
}

type bookingMetrics struct {
	appointmentsCreated  prometheus.Counter
	appointmentsRejected *prometheus.CounterVec
	transitions          *prometheus.CounterVec
	completedRevenue     prometheus.Histogram
	eventsDropped        prometheus.Counter
	eventsDelivered      *prometheus.CounterVec
	remindersSent        *prometheus.CounterVec
}

// NewRegistry returns a registry with the Go runtime and process
// collectors already registered.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

func NewBookingMetrics(registry *prometheus.Registry) BookingMetrics {
	factory := promauto.With(registry)
	return &bookingMetrics{
		appointmentsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "salon_appointments_created_total",
			Help: "Appointments successfully booked",
		}),
		appointmentsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "salon_appointments_rejected_total",
			Help: "Booking attempts rejected, by reason",
		}, []string{"reason"}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "salon_appointment_transitions_total",
			Help: "Appointment status changes, by target status",
		}, []string{"status"}),
		completedRevenue: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "salon_completed_appointment_price_cents",
			Help:    "Price of completed appointments in cents",
			Buckets: []float64{1000, 2500, 5000, 7500, 10000, 20000},
		}),
		eventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "salon_events_dropped_total",
			Help: "Appointment events dropped because the dispatch queue was full",
		}),
		eventsDelivered: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "salon_events_delivered_total",
			Help: "Appointment event deliveries, by sink and result",
		}, []string{"sink", "result"}),
		remindersSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "salon_reminders_total",
			Help: "Customer notifications attempted, by kind and result",
		}, []string{"kind", "result"}),
	}
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

func (m *bookingMetrics) IncAppointmentCreated() { m.appointmentsCreated.Inc() }

func (m *bookingMetrics) IncAppointmentRejected(reason string) {
	m.appointmentsRejected.WithLabelValues(reason).Inc()
}

func (m *bookingMetrics) IncTransition(status string) {
	m.transitions.WithLabelValues(status).Inc()
}

func (m *bookingMetrics) ObserveRevenueCents(cents int64) {
	m.completedRevenue.Observe(float64(cents))
}

func (m *bookingMetrics) IncEventDropped() { m.eventsDropped.Inc() }

func (m *bookingMetrics) IncEventDelivered(sink string, ok bool) {
	m.eventsDelivered.WithLabelValues(sink, result(ok)).Inc()
}

func (m *bookingMetrics) IncReminderSent(kind string, ok bool) {
	m.remindersSent.WithLabelValues(kind, result(ok)).Inc()
}

type noopMetrics struct{}

// Noop discards everything.
func Noop() BookingMetrics { return noopMetrics{} }

func (noopMetrics) IncAppointmentCreated()         {}
func (noopMetrics) IncAppointmentRejected(string)  {}
func (noopMetrics) IncTransition(string)           {}
func (noopMetrics) ObserveRevenueCents(int64)      {}
func (noopMetrics) IncEventDropped()               {}
func (noopMetrics) IncEventDelivered(string, bool) {}
func (noopMetrics) IncReminderSent(string, bool)   {}
