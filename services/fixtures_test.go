package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"salonbook-backend/models"
	"salonbook-backend/repository"
)

// Wednesday 4 March 2026, 10:15 in the salon's zone.
var testNow = time.Date(2026, 3, 4, 10, 15, 0, 0, time.UTC)

var (
	today    = models.NewDate(2026, 3, 4)
	tomorrow = models.NewDate(2026, 3, 5)
	sunday   = models.NewDate(2026, 3, 8)
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCalendar() Calendar {
	return Calendar{
		Slots:     DefaultSlotSet(),
		ClosedDay: time.Sunday,
		Location:  time.UTC,
		Now:       func() time.Time { return testNow },
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.AppointmentEvent
}

func (p *recordingPublisher) Publish(evt models.AppointmentEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *recordingPublisher) types() []models.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	store     *repository.MemoryStore
	catalog   *Catalog
	directory *Directory
	scheduler *Scheduler
	reporting *Reporting
	events    *recordingPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repository.NewMemoryStore()
	logger := discardLogger()
	cal := testCalendar()
	pub := &recordingPublisher{}
	dir := NewDirectory(store, logger)
	return &testEnv{
		store:     store,
		catalog:   NewCatalog(store, logger),
		directory: dir,
		scheduler: NewScheduler(store, dir, cal, logger, WithEventPublisher(pub)),
		reporting: NewReporting(store, cal),
		events:    pub,
	}
}

func (e *testEnv) service(t *testing.T, name string, priceCents int64) models.Service {
	t.Helper()
	svc, err := e.catalog.CreateService(context.Background(), CreateServiceInput{
		Name:            name,
		PriceCents:      priceCents,
		DurationMinutes: 45,
	})
	if err != nil {
		t.Fatalf("create service %q: %v", name, err)
	}
	return svc
}

func (e *testEnv) customer(t *testing.T, name, phone string) models.Customer {
	t.Helper()
	c, err := e.directory.CreateCustomer(context.Background(), CreateCustomerInput{Name: name, Phone: phone})
	if err != nil {
		t.Fatalf("create customer %q: %v", name, err)
	}
	return c
}

func (e *testEnv) book(t *testing.T, customerID, serviceID uuid.UUID, date models.Date, slot string) models.Appointment {
	t.Helper()
	a, err := e.scheduler.CreateAppointment(context.Background(), CreateAppointmentInput{
		CustomerID: customerID,
		ServiceID:  serviceID,
		Date:       date,
		TimeSlot:   slot,
	})
	if err != nil {
		t.Fatalf("book %s %s: %v", date, slot, err)
	}
	return a
}

// complete walks an appointment through confirm and complete.
func (e *testEnv) complete(t *testing.T, id uuid.UUID) models.Appointment {
	t.Helper()
	ctx := context.Background()
	if _, err := e.scheduler.ConfirmAppointment(ctx, id); err != nil {
		t.Fatalf("confirm %s: %v", id, err)
	}
	a, err := e.scheduler.CompleteAppointment(ctx, id)
	if err != nil {
		t.Fatalf("complete %s: %v", id, err)
	}
	return a
}
