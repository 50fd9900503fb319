// Package repository holds the persistence side of the booking service.
// Both implementations expose the same Store so the service layer never
// knows which one it is talking to.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"salonbook-backend/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// AppointmentFilter selects appointments. Zero fields match everything.
type AppointmentFilter struct {
	From       *models.Date
	To         *models.Date
	Statuses   []models.AppointmentStatus
	CustomerID uuid.UUID
	ServiceID  uuid.UUID
}

// CustomerFilter selects customers for counting. LastVisitFrom/To form a
// closed range and exclude customers that never visited.
type CustomerFilter struct {
	Status        models.CustomerStatus
	LastVisitFrom *models.Date
	LastVisitTo   *models.Date
}

type ServiceRepository interface {
	Create(ctx context.Context, s *models.Service) error
	Get(ctx context.Context, id uuid.UUID) (models.Service, error)
	Update(ctx context.Context, s *models.Service) error
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns services in insertion order.
	List(ctx context.Context) ([]models.Service, error)
	Count(ctx context.Context) (int64, error)
}

type CustomerRepository interface {
	Create(ctx context.Context, c *models.Customer) error
	Get(ctx context.Context, id uuid.UUID) (models.Customer, error)
	Update(ctx context.Context, c *models.Customer) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByPhone(ctx context.Context, phone string) (models.Customer, error)
	// Search matches query case-insensitively against name, phone and
	// email. Results are in insertion order; an empty query matches all.
	Search(ctx context.Context, query string) ([]models.Customer, error)
	Count(ctx context.Context, f CustomerFilter) (int64, error)
}

type AppointmentRepository interface {
	// Create returns ErrDuplicate when another non-cancelled appointment
	// already holds the same date and slot.
	Create(ctx context.Context, a *models.Appointment) error
	Get(ctx context.Context, id uuid.UUID) (models.Appointment, error)
	Update(ctx context.Context, a *models.Appointment) error
	FindActiveBySlot(ctx context.Context, date models.Date, slot string) (models.Appointment, error)
	List(ctx context.Context, f AppointmentFilter) ([]models.Appointment, error)
	Count(ctx context.Context, f AppointmentFilter) (int64, error)
	SumPrice(ctx context.Context, f AppointmentFilter) (int64, error)
}

type ReminderLogRepository interface {
	Create(ctx context.Context, l *models.ReminderLog) error
	// ListByAppointment returns logs oldest first.
	ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]models.ReminderLog, error)
	// Sent reports whether a successful reminder of kind exists.
	Sent(ctx context.Context, appointmentID uuid.UUID, kind models.ReminderKind) (bool, error)
}

// Store groups the repositories behind one unit of work.
type Store interface {
	Services() ServiceRepository
	Customers() CustomerRepository
	Appointments() AppointmentRepository
	Reminders() ReminderLogRepository
	// Atomic runs fn against a transactional view of the store. Every write
	// made through tx is discarded if fn returns an error.
	Atomic(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}

func matchesStatus(statuses []models.AppointmentStatus, s models.AppointmentStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}
