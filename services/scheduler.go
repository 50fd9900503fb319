package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"salonbook-backend/metrics"
	"salonbook-backend/models"
	"salonbook-backend/repository"
)

// EventPublisher receives appointment events once a change is stored.
// Publish must not block.
type EventPublisher interface {
	Publish(evt models.AppointmentEvent)
}

// Scheduler owns the appointment lifecycle and the visit counters on
// customers. Every mutation runs under mu inside one store unit of work, so
// a slot can never be handed out twice.
type Scheduler struct {
	mu        sync.Mutex
	store     repository.Store
	directory *Directory
	calendar  Calendar
	events    EventPublisher
	metrics   metrics.BookingMetrics
	logger    *slog.Logger
	tracer    trace.Tracer
}

type SchedulerOption func(*Scheduler)

func WithEventPublisher(p EventPublisher) SchedulerOption {
	return func(s *Scheduler) { s.events = p }
}

func WithMetrics(m metrics.BookingMetrics) SchedulerOption {
	return func(s *Scheduler) { s.metrics = m }
}

func NewScheduler(store repository.Store, directory *Directory, calendar Calendar, logger *slog.Logger, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		store:     store,
		directory: directory,
		calendar:  calendar,
		metrics:   metrics.Noop(),
		logger:    logger,
		tracer:    otel.Tracer("salonbook-backend/services"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) Calendar() Calendar { return s.calendar }

type CreateAppointmentInput struct {
	CustomerID uuid.UUID
	ServiceID  uuid.UUID
	Date       models.Date
	TimeSlot   string
}

func (s *Scheduler) CreateAppointment(ctx context.Context, in CreateAppointmentInput) (models.Appointment, error) {
	return s.book(ctx, "Scheduler.CreateAppointment", in.ServiceID, in.Date, in.TimeSlot,
		func(ctx context.Context, tx repository.Store) (models.Customer, error) {
			customer, err := tx.Customers().Get(ctx, in.CustomerID)
			if err != nil {
				return models.Customer{}, lookupError(err, "customer", in.CustomerID)
			}
			return customer, nil
		})
}

// customerFunc resolves who an appointment is for. It runs inside the
// booking's unit of work, so anything it writes is undone when the booking
// fails.
type customerFunc func(ctx context.Context, tx repository.Store) (models.Customer, error)

func (s *Scheduler) book(ctx context.Context, spanName string, serviceID uuid.UUID, date models.Date, slot string, customer customerFunc) (models.Appointment, error) {
	ctx, span := s.tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.String("appointment.date", date.String()),
		attribute.String("appointment.time_slot", slot),
	))
	defer span.End()

	appt, err := s.create(ctx, serviceID, date, slot, customer)
	if err != nil {
		s.metrics.IncAppointmentRejected(rejectReason(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return models.Appointment{}, err
	}
	span.SetAttributes(attribute.String("appointment.id", appt.ID.String()))
	s.metrics.IncAppointmentCreated()
	s.logger.Info("appointment booked",
		"appointment_id", appt.ID,
		"customer_id", appt.CustomerID,
		"date", appt.Date.String(),
		"time_slot", appt.TimeSlot,
	)
	s.publish(ctx, models.EventAppointmentBooked, appt)
	return appt, nil
}

func (s *Scheduler) create(ctx context.Context, serviceID uuid.UUID, date models.Date, slot string, resolve customerFunc) (models.Appointment, error) {
	label, err := s.calendar.CheckBookable(date, slot)
	if err != nil {
		return models.Appointment{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var appt models.Appointment
	err = s.store.Atomic(ctx, func(tx repository.Store) error {
		service, err := tx.Services().Get(ctx, serviceID)
		if err != nil {
			return lookupError(err, "service", serviceID)
		}

		conflict := &SlotConflictError{Date: date.String(), TimeSlot: label}
		if _, err := tx.Appointments().FindActiveBySlot(ctx, date, label); err == nil {
			return conflict
		} else if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("check slot: %w", err)
		}

		customer, err := resolve(ctx, tx)
		if err != nil {
			return err
		}

		now := s.calendar.now().UTC()
		appt = models.Appointment{
			ID:           uuid.New(),
			CustomerID:   customer.ID,
			ServiceID:    service.ID,
			Date:         date,
			TimeSlot:     label,
			Status:       models.StatusPending,
			CustomerName: customer.Name,
			ServiceName:  service.Name,
			PriceCents:   service.PriceCents,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Appointments().Create(ctx, &appt); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return conflict
			}
			return fmt.Errorf("create appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Appointment{}, err
	}
	return appt, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrSlotConflict):
		return "slot_conflict"
	default:
		return "internal"
	}
}

func (s *Scheduler) ConfirmAppointment(ctx context.Context, id uuid.UUID) (models.Appointment, error) {
	return s.transition(ctx, id, "confirm", models.EventAppointmentConfirmed,
		func(_ context.Context, _ repository.Store, a *models.Appointment, now time.Time) error {
			if a.Status != models.StatusPending {
				return &InvalidTransitionError{ID: id.String(), From: string(a.Status), Action: "confirm"}
			}
			a.Status = models.StatusConfirmed
			a.ConfirmedAt = &now
			return nil
		})
}

// CompleteAppointment marks a confirmed appointment done and records the
// visit on the customer in the same unit of work.
func (s *Scheduler) CompleteAppointment(ctx context.Context, id uuid.UUID) (models.Appointment, error) {
	appt, err := s.transition(ctx, id, "complete", models.EventAppointmentCompleted,
		func(ctx context.Context, tx repository.Store, a *models.Appointment, now time.Time) error {
			if a.Status != models.StatusConfirmed {
				return &InvalidTransitionError{ID: id.String(), From: string(a.Status), Action: "complete"}
			}
			customer, err := tx.Customers().Get(ctx, a.CustomerID)
			if err != nil {
				return lookupError(err, "customer", a.CustomerID)
			}
			customer.TotalVisits++
			if customer.LastVisitDate == nil || a.Date.After(*customer.LastVisitDate) {
				visit := a.Date
				customer.LastVisitDate = &visit
			}
			customer.UpdatedAt = now
			if err := tx.Customers().Update(ctx, &customer); err != nil {
				return lookupError(err, "customer", a.CustomerID)
			}
			a.Status = models.StatusCompleted
			a.CompletedAt = &now
			return nil
		})
	if err == nil {
		s.metrics.ObserveRevenueCents(appt.PriceCents)
	}
	return appt, err
}

// CancelAppointment frees the slot. reason is optional.
func (s *Scheduler) CancelAppointment(ctx context.Context, id uuid.UUID, reason string) (models.Appointment, error) {
	return s.transition(ctx, id, "cancel", models.EventAppointmentCancelled,
		func(_ context.Context, _ repository.Store, a *models.Appointment, now time.Time) error {
			if a.Status.Terminal() {
				return &InvalidTransitionError{ID: id.String(), From: string(a.Status), Action: "cancel"}
			}
			a.Status = models.StatusCancelled
			a.CancelledAt = &now
			a.CancelReason = strings.TrimSpace(reason)
			return nil
		})
}

type applyFunc func(ctx context.Context, tx repository.Store, a *models.Appointment, now time.Time) error

func (s *Scheduler) transition(ctx context.Context, id uuid.UUID, action string, evt models.EventType, apply applyFunc) (models.Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "Scheduler."+action, trace.WithAttributes(
		attribute.String("appointment.id", id.String()),
	))
	defer span.End()

	appt, err := s.applyLocked(ctx, id, apply)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return models.Appointment{}, err
	}
	s.metrics.IncTransition(string(appt.Status))
	s.logger.Info("appointment "+string(appt.Status), "appointment_id", appt.ID, "action", action)
	s.publish(ctx, evt, appt)
	return appt, nil
}

func (s *Scheduler) applyLocked(ctx context.Context, id uuid.UUID, apply applyFunc) (models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var appt models.Appointment
	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		a, err := tx.Appointments().Get(ctx, id)
		if err != nil {
			return lookupError(err, "appointment", id)
		}
		now := s.calendar.now().UTC()
		if err := apply(ctx, tx, &a, now); err != nil {
			return err
		}
		a.UpdatedAt = now
		if err := tx.Appointments().Update(ctx, &a); err != nil {
			return lookupError(err, "appointment", id)
		}
		appt = a
		return nil
	})
	return appt, err
}

// publish runs after the lock is released. Delivery problems never reach
// the caller.
func (s *Scheduler) publish(ctx context.Context, t models.EventType, appt models.Appointment) {
	if s.events == nil {
		return
	}
	s.events.Publish(models.AppointmentEvent{
		Type:        t,
		Appointment: appt,
		OccurredAt:  time.Now().UTC(),
		SpanContext: trace.SpanContextFromContext(ctx),
	})
}

func (s *Scheduler) GetAppointment(ctx context.Context, id uuid.UUID) (models.Appointment, error) {
	a, err := s.store.Appointments().Get(ctx, id)
	if err != nil {
		return models.Appointment{}, lookupError(err, "appointment", id)
	}
	return a, nil
}

// AppointmentQuery narrows ListAppointments. Zero fields match everything.
type AppointmentQuery struct {
	From       *models.Date
	To         *models.Date
	Status     models.AppointmentStatus
	CustomerID uuid.UUID
}

// ListAppointments returns matches ordered by date, then by the slot's
// position in the day.
func (s *Scheduler) ListAppointments(ctx context.Context, q AppointmentQuery) ([]models.Appointment, error) {
	filter := repository.AppointmentFilter{From: q.From, To: q.To, CustomerID: q.CustomerID}
	if q.Status != "" {
		if !q.Status.Valid() {
			return nil, invalid("status", "unknown status %q", q.Status)
		}
		filter.Statuses = []models.AppointmentStatus{q.Status}
	}
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return nil, invalid("from", "must not be after to")
	}
	list, err := s.store.Appointments().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	slots := s.calendar.Slots
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].Date.Equal(list[j].Date) {
			return list[i].Date.Before(list[j].Date)
		}
		return slots.Index(list[i].TimeSlot) < slots.Index(list[j].TimeSlot)
	})
	return list, nil
}

// AvailableSlots lists the labels on date that are neither taken nor
// already past. Closed and past days have none.
func (s *Scheduler) AvailableSlots(ctx context.Context, date models.Date) ([]string, error) {
	candidates := s.calendar.futureSlots(date)
	if len(candidates) == 0 {
		return candidates, nil
	}
	booked, err := s.store.Appointments().List(ctx, repository.AppointmentFilter{
		From:     &date,
		To:       &date,
		Statuses: []models.AppointmentStatus{models.StatusPending, models.StatusConfirmed, models.StatusCompleted},
	})
	if err != nil {
		return nil, fmt.Errorf("list booked slots: %w", err)
	}
	taken := make(map[string]struct{}, len(booked))
	for _, a := range booked {
		taken[a.TimeSlot] = struct{}{}
	}
	free := make([]string, 0, len(candidates))
	for _, label := range candidates {
		if _, ok := taken[label]; !ok {
			free = append(free, label)
		}
	}
	return free, nil
}

type GuestBookingInput struct {
	Name      string
	Phone     string
	Email     string
	Notes     string
	ServiceID uuid.UUID
	Date      models.Date
	TimeSlot  string
}

// BookAsGuest books for a walk-up customer, reusing the customer record
// that already has the same phone number. A new customer is only kept when
// the appointment is stored.
func (s *Scheduler) BookAsGuest(ctx context.Context, in GuestBookingInput) (models.Appointment, error) {
	candidate, err := s.directory.newCustomer(CreateCustomerInput{
		Name:  in.Name,
		Phone: in.Phone,
		Email: in.Email,
		Notes: in.Notes,
	})
	if err != nil {
		return models.Appointment{}, err
	}

	s.directory.phoneMu.Lock()
	defer s.directory.phoneMu.Unlock()

	created := false
	appt, err := s.book(ctx, "Scheduler.BookAsGuest", in.ServiceID, in.Date, in.TimeSlot,
		func(ctx context.Context, tx repository.Store) (models.Customer, error) {
			customer, isNew, err := s.directory.findOrCreate(ctx, tx, candidate)
			created = isNew
			return customer, err
		})
	if err != nil {
		return models.Appointment{}, err
	}
	if created {
		s.logger.Info("customer created from guest booking", "customer_id", appt.CustomerID)
	}
	return appt, nil
}
