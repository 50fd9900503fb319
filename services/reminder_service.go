// services/reminder_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"salonbook-backend/metrics"
	"salonbook-backend/models"
	"salonbook-backend/repository"
)

// SMSSender delivers one text message and returns the provider message id.
type SMSSender interface {
	Send(ctx context.Context, to, body string) (string, error)
}

type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	return &TwilioSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
		from: from,
	}
}

func (s *TwilioSender) Send(_ context.Context, to, body string) (string, error) {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return "", err
	}
	if resp.Sid == nil {
		return "", nil
	}
	return *resp.Sid, nil
}

// NoopSender is used when no SMS provider is configured.
type NoopSender struct{}

func (NoopSender) Send(context.Context, string, string) (string, error) { return "", nil }

// ReminderService texts customers about their appointments: once per
// lifecycle event, and again the day before.
type ReminderService struct {
	store     repository.Store
	sender    SMSSender
	calendar  Calendar
	templates map[models.ReminderKind]models.ReminderTemplate
	metrics   metrics.BookingMetrics
	logger    *slog.Logger
	cron      *cron.Cron
}

func NewReminderService(store repository.Store, sender SMSSender, calendar Calendar, m metrics.BookingMetrics, logger *slog.Logger) *ReminderService {
	if m == nil {
		m = metrics.Noop()
	}
	return &ReminderService{
		store:     store,
		sender:    sender,
		calendar:  calendar,
		templates: models.DefaultReminderTemplates,
		metrics:   m,
		logger:    logger,
	}
}

// StartScheduler runs SendDayAheadReminders on the cron spec, in the
// salon's time zone.
func (s *ReminderService) StartScheduler(spec string) error {
	loc := s.calendar.Location
	if loc == nil {
		loc = time.Local
	}
	c := cron.New(cron.WithLocation(loc))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := s.SendDayAheadReminders(ctx); err != nil {
			s.logger.Error("day-ahead reminders failed", "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule reminders %q: %w", spec, err)
	}
	c.Start()
	s.cron = c
	s.logger.Info("reminder scheduler started", "spec", spec)
	return nil
}

// Stop halts the cron and returns a context that is done once any running
// job has finished.
func (s *ReminderService) Stop() context.Context {
	if s.cron == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return s.cron.Stop()
}

// SendDayAheadReminders texts every customer with an open appointment
// tomorrow. Appointments already reminded are skipped, so re-running the
// job is safe. It returns the number of messages sent.
func (s *ReminderService) SendDayAheadReminders(ctx context.Context) (int, error) {
	tomorrow := s.calendar.Today().AddDays(1)
	appts, err := s.store.Appointments().List(ctx, repository.AppointmentFilter{
		From:     &tomorrow,
		To:       &tomorrow,
		Statuses: models.OpenStatuses,
	})
	if err != nil {
		return 0, fmt.Errorf("list tomorrow's appointments: %w", err)
	}

	sent := 0
	for _, appt := range appts {
		already, err := s.store.Reminders().Sent(ctx, appt.ID, models.ReminderDayAhead)
		if err != nil {
			return sent, fmt.Errorf("check reminder log: %w", err)
		}
		if already {
			continue
		}
		if err := s.notify(ctx, appt, models.ReminderDayAhead); err == nil {
			sent++
		}
	}
	s.logger.Info("day-ahead reminders processed", "date", tomorrow.String(), "appointments", len(appts), "sent", sent)
	return sent, nil
}

// History returns the notifications logged for an appointment, oldest
// first.
func (s *ReminderService) History(ctx context.Context, appointmentID uuid.UUID) ([]models.ReminderLog, error) {
	logs, err := s.store.Reminders().ListByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("list reminder logs: %w", err)
	}
	return logs, nil
}

// Name identifies the service as an event sink.
func (s *ReminderService) Name() string { return "sms" }

// Handle texts the customer about a booked, confirmed or cancelled
// appointment. Completed appointments need no message.
func (s *ReminderService) Handle(ctx context.Context, evt models.AppointmentEvent) error {
	var kind models.ReminderKind
	switch evt.Type {
	case models.EventAppointmentBooked:
		kind = models.ReminderBooked
	case models.EventAppointmentConfirmed:
		kind = models.ReminderConfirmed
	case models.EventAppointmentCancelled:
		kind = models.ReminderCancelled
	default:
		return nil
	}
	return s.notify(ctx, evt.Appointment, kind)
}

func (s *ReminderService) notify(ctx context.Context, appt models.Appointment, kind models.ReminderKind) error {
	customer, err := s.store.Customers().Get(ctx, appt.CustomerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("reminder skipped, customer gone", "appointment_id", appt.ID, "customer_id", appt.CustomerID)
			return nil
		}
		return fmt.Errorf("load customer: %w", err)
	}

	tmpl, ok := s.templates[kind]
	if !ok {
		return fmt.Errorf("no reminder template for %s", kind)
	}
	message := RenderReminder(tmpl, customer, appt)

	entry := models.ReminderLog{
		AppointmentID: appt.ID,
		CustomerID:    customer.ID,
		Kind:          kind,
		Channel:       "sms",
		Recipient:     customer.Phone,
		Message:       message,
		Status:        models.ReminderSent,
		SentAt:        time.Now().UTC(),
	}
	sid, sendErr := s.sender.Send(ctx, customer.Phone, message)
	if sendErr != nil {
		s.logger.Error("failed to send reminder", "appointment_id", appt.ID, "kind", kind, "err", sendErr)
		entry.Status = models.ReminderFailed
		entry.ErrorMessage = sendErr.Error()
	} else {
		entry.ProviderID = sid
		s.logger.Info("reminder sent", "appointment_id", appt.ID, "kind", kind, "sid", sid)
	}
	s.metrics.IncReminderSent(string(kind), sendErr == nil)

	if err := s.store.Reminders().Create(ctx, &entry); err != nil {
		s.logger.Error("failed to log reminder", "appointment_id", appt.ID, "err", err)
	}
	return sendErr
}

// RenderReminder fills the template placeholders.
func RenderReminder(tmpl models.ReminderTemplate, customer models.Customer, appt models.Appointment) string {
	r := strings.NewReplacer(
		"[CustomerName]", customer.Name,
		"[Service]", appt.ServiceName,
		"[Date]", appt.Date.Format("Mon, Jan 2"),
		"[Time]", appt.TimeSlot,
	)
	return r.Replace(tmpl.Message)
}
