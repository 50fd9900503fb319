package models

import (
	"time"

	"go.opentelemetry.io/otel/trace"
)

type EventType string

const (
	EventAppointmentBooked    EventType = "appointment.booked"
	EventAppointmentConfirmed EventType = "appointment.confirmed"
	EventAppointmentCompleted EventType = "appointment.completed"
	EventAppointmentCancelled EventType = "appointment.cancelled"
)

// AppointmentEvent is emitted after an appointment change has been stored.
type AppointmentEvent struct {
	Type        EventType   `json:"type"`
	Appointment Appointment `json:"appointment"`
	OccurredAt  time.Time   `json:"occurredAt"`

	// SpanContext is the trace the change was made under. Sinks run
	// detached from the request, so it travels with the event.
	SpanContext trace.SpanContext `json:"-"`
}
