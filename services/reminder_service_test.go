package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"salonbook-backend/models"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeSender) Send(_ context.Context, to, body string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, to+": "+body)
	return "SM123", nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func TestReminderService_HandleEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sender := &fakeSender{}
	reminders := NewReminderService(env.store, sender, testCalendar(), nil, discardLogger())

	svc := env.service(t, "Gel Polish", 4500)
	c := env.customer(t, "Hana", "0701555123")
	a := env.book(t, c.ID, svc.ID, tomorrow, "10:00 AM")

	if err := reminders.Handle(ctx, models.AppointmentEvent{Type: models.EventAppointmentBooked, Appointment: a}); err != nil {
		t.Fatalf("handle booked: %v", err)
	}
	if err := reminders.Handle(ctx, models.AppointmentEvent{Type: models.EventAppointmentCompleted, Appointment: a}); err != nil {
		t.Fatalf("handle completed: %v", err)
	}
	if sender.count() != 1 {
		t.Fatalf("expected 1 message, got %d", sender.count())
	}
	if want := "0701555123: Hi Hana, we received your booking for Gel Polish on Thu, Mar 5 at 10:00 AM."; !strings.HasPrefix(sender.sent[0], want) {
		t.Fatalf("unexpected message %q", sender.sent[0])
	}

	logs, err := reminders.History(ctx, a.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(logs) != 1 || logs[0].Kind != models.ReminderBooked || logs[0].Status != models.ReminderSent || logs[0].ProviderID != "SM123" {
		t.Fatalf("unexpected log: %+v", logs)
	}
}

func TestReminderService_FailedSendIsLogged(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sender := &fakeSender{err: errors.New("provider down")}
	reminders := NewReminderService(env.store, sender, testCalendar(), nil, discardLogger())

	svc := env.service(t, "Gel Polish", 4500)
	c := env.customer(t, "Hana", "0701555123")
	a := env.book(t, c.ID, svc.ID, tomorrow, "10:00 AM")

	if err := reminders.Handle(ctx, models.AppointmentEvent{Type: models.EventAppointmentConfirmed, Appointment: a}); err == nil {
		t.Fatal("expected send error")
	}
	logs, err := reminders.History(ctx, a.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(logs) != 1 || logs[0].Status != models.ReminderFailed || logs[0].ErrorMessage != "provider down" {
		t.Fatalf("unexpected log: %+v", logs)
	}
}

func TestSendDayAheadReminders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sender := &fakeSender{}
	reminders := NewReminderService(env.store, sender, testCalendar(), nil, discardLogger())

	svc := env.service(t, "Gel Polish", 4500)
	c := env.customer(t, "Hana", "0701555123")
	env.book(t, c.ID, svc.ID, tomorrow, "10:00 AM")
	cancelled := env.book(t, c.ID, svc.ID, tomorrow, "11:00 AM")
	if _, err := env.scheduler.CancelAppointment(ctx, cancelled.ID, ""); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	env.book(t, c.ID, svc.ID, today, "3:00 PM")

	n, err := reminders.SendDayAheadReminders(ctx)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 reminder, got %d", n)
	}
	n, err = reminders.SendDayAheadReminders(ctx)
	if err != nil {
		t.Fatalf("second send: %v", err)
	}
	if n != 0 || sender.count() != 1 {
		t.Fatalf("expected rerun to send nothing, got %d (total %d)", n, sender.count())
	}
}

func TestStartScheduler_RejectsBadSpec(t *testing.T) {
	reminders := NewReminderService(nil, NoopSender{}, testCalendar(), nil, discardLogger())
	if err := reminders.StartScheduler("every tuesday"); err == nil {
		t.Fatal("expected invalid cron spec to fail")
	}
	<-reminders.Stop().Done()
}
