package models

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// OpenStatuses are the states that still hold a slot and still reference
// their customer and service.
var OpenStatuses = []AppointmentStatus{StatusPending, StatusConfirmed}

// Appointment books one slot. ServiceName, PriceCents and CustomerName are
// captured when the appointment is created and do not follow later edits.
//
// The partial unique index keeps at most one non-cancelled appointment per
// (date, time_slot).
type Appointment struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID   uuid.UUID         `gorm:"type:uuid;index;not null" json:"customerId"`
	ServiceID    uuid.UUID         `gorm:"type:uuid;index;not null" json:"serviceId"`
	Date         Date              `gorm:"type:date;not null;uniqueIndex:idx_appointments_active_slot,where:status <> 'cancelled'" json:"date"`
	TimeSlot     string            `gorm:"type:varchar(16);not null;uniqueIndex:idx_appointments_active_slot" json:"timeSlot"`
	Status       AppointmentStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	CustomerName string            `json:"customerName"`
	ServiceName  string            `json:"serviceName"`
	PriceCents   int64             `gorm:"not null" json:"priceCents"`
	CancelReason string            `json:"cancelReason,omitempty"`
	ConfirmedAt  *time.Time        `json:"confirmedAt,omitempty"`
	CompletedAt  *time.Time        `json:"completedAt,omitempty"`
	CancelledAt  *time.Time        `json:"cancelledAt,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}
