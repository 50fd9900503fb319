package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReminderKind string

const (
	ReminderBooked    ReminderKind = "booked"
	ReminderConfirmed ReminderKind = "confirmed"
	ReminderCancelled ReminderKind = "cancelled"
	ReminderDayAhead  ReminderKind = "day_ahead"
)

type ReminderStatus string

const (
	ReminderSent   ReminderStatus = "sent"
	ReminderFailed ReminderStatus = "failed"
)

// ReminderLog records one notification attempt for an appointment.
type ReminderLog struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AppointmentID uuid.UUID      `gorm:"type:uuid;index:idx_reminder_logs_appt_kind;not null" json:"appointmentId"`
	CustomerID    uuid.UUID      `gorm:"type:uuid;index;not null" json:"customerId"`
	Kind          ReminderKind   `gorm:"type:varchar(20);index:idx_reminder_logs_appt_kind" json:"kind"`
	Channel       string         `gorm:"type:varchar(20)" json:"channel"`
	Recipient     string         `json:"recipient"`
	Message       string         `gorm:"type:text" json:"message"`
	Status        ReminderStatus `gorm:"type:varchar(20)" json:"status"`
	ProviderID    string         `json:"providerId,omitempty"`
	ErrorMessage  string         `gorm:"type:text" json:"errorMessage,omitempty"`
	SentAt        time.Time      `json:"sentAt"`
}

func (r *ReminderLog) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}

// ReminderTemplate is a message body with [CustomerName], [Service],
// [Date] and [Time] placeholders.
type ReminderTemplate struct {
	Kind    ReminderKind
	Message string
}

var DefaultReminderTemplates = map[ReminderKind]ReminderTemplate{
	ReminderBooked: {
		Kind:    ReminderBooked,
		Message: "Hi [CustomerName], we received your booking for [Service] on [Date] at [Time]. We will confirm it shortly.",
	},
	ReminderConfirmed: {
		Kind:    ReminderConfirmed,
		Message: "Hi [CustomerName], your [Service] on [Date] at [Time] is confirmed. See you soon!",
	},
	ReminderCancelled: {
		Kind:    ReminderCancelled,
		Message: "Hi [CustomerName], your [Service] on [Date] at [Time] has been cancelled.",
	},
	ReminderDayAhead: {
		Kind:    ReminderDayAhead,
		Message: "Reminder: [CustomerName], your [Service] is tomorrow ([Date]) at [Time].",
	},
}
