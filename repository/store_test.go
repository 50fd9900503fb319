package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"salonbook-backend/models"
)

// storeFactories returns the stores to run the shared tests against. The
// Postgres store joins when TEST_DB_URL points at a scratch database.
func storeFactories(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	factories := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
	}
	if dsn := os.Getenv("TEST_DB_URL"); dsn != "" {
		factories["postgres"] = func(t *testing.T) Store {
			db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
				TranslateError: true,
				Logger:         logger.Default.LogMode(logger.Silent),
			})
			if err != nil {
				t.Fatalf("open database: %v", err)
			}
			for _, table := range []string{"reminder_logs", "appointments", "customers", "services"} {
				db.Exec("DROP TABLE IF EXISTS " + table)
			}
			store := NewGormStore(db)
			if err := store.Migrate(); err != nil {
				t.Fatalf("migrate: %v", err)
			}
			return store
		}
	}
	return factories
}

func newAppointment(date models.Date, slot string, status models.AppointmentStatus) models.Appointment {
	now := time.Now().UTC()
	return models.Appointment{
		ID:          uuid.New(),
		CustomerID:  uuid.New(),
		ServiceID:   uuid.New(),
		Date:        date,
		TimeSlot:    slot,
		Status:      status,
		ServiceName: "Gel Polish",
		PriceCents:  4500,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestAppointments_OneActivePerSlot(t *testing.T) {
	for name, open := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			ctx := context.Background()
			day := models.NewDate(2026, 3, 5)

			first := newAppointment(day, "10:00 AM", models.StatusPending)
			if err := store.Appointments().Create(ctx, &first); err != nil {
				t.Fatalf("create: %v", err)
			}
			clash := newAppointment(day, "10:00 AM", models.StatusPending)
			if err := store.Appointments().Create(ctx, &clash); !errors.Is(err, ErrDuplicate) {
				t.Fatalf("expected ErrDuplicate, got %v", err)
			}

			first.Status = models.StatusCancelled
			if err := store.Appointments().Update(ctx, &first); err != nil {
				t.Fatalf("cancel: %v", err)
			}
			if _, err := store.Appointments().FindActiveBySlot(ctx, day, "10:00 AM"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected cancelled slot to be free, got %v", err)
			}
			rebook := newAppointment(day, "10:00 AM", models.StatusPending)
			if err := store.Appointments().Create(ctx, &rebook); err != nil {
				t.Fatalf("rebook: %v", err)
			}
			found, err := store.Appointments().FindActiveBySlot(ctx, day, "10:00 AM")
			if err != nil || found.ID != rebook.ID {
				t.Fatalf("expected rebooked appointment, got %v %v", found.ID, err)
			}
		})
	}
}

func TestAppointments_Filters(t *testing.T) {
	for name, open := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			ctx := context.Background()
			d1 := models.NewDate(2026, 3, 5)
			d2 := models.NewDate(2026, 3, 6)

			customer := uuid.New()
			seed := []models.Appointment{
				newAppointment(d1, "9:00 AM", models.StatusCompleted),
				newAppointment(d1, "9:30 AM", models.StatusPending),
				newAppointment(d2, "9:00 AM", models.StatusCompleted),
				newAppointment(d2, "9:30 AM", models.StatusCancelled),
			}
			seed[1].CustomerID = customer
			for i := range seed {
				if err := store.Appointments().Create(ctx, &seed[i]); err != nil {
					t.Fatalf("create: %v", err)
				}
			}

			completed := []models.AppointmentStatus{models.StatusCompleted}
			total, err := store.Appointments().SumPrice(ctx, AppointmentFilter{Statuses: completed})
			if err != nil || total != 9000 {
				t.Fatalf("expected 9000, got %d %v", total, err)
			}
			total, err = store.Appointments().SumPrice(ctx, AppointmentFilter{From: &d2, To: &d2, Statuses: completed})
			if err != nil || total != 4500 {
				t.Fatalf("expected 4500, got %d %v", total, err)
			}
			none, err := store.Appointments().SumPrice(ctx, AppointmentFilter{From: &d2, To: &d1})
			if err != nil || none != 0 {
				t.Fatalf("expected 0 for empty range, got %d %v", none, err)
			}

			n, err := store.Appointments().Count(ctx, AppointmentFilter{From: &d1, To: &d1})
			if err != nil || n != 2 {
				t.Fatalf("expected 2 on %s, got %d %v", d1, n, err)
			}
			mine, err := store.Appointments().List(ctx, AppointmentFilter{CustomerID: customer})
			if err != nil || len(mine) != 1 || mine[0].ID != seed[1].ID {
				t.Fatalf("unexpected customer filter result: %v %v", mine, err)
			}
		})
	}
}

func TestCustomers_SearchAndCount(t *testing.T) {
	for name, open := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			ctx := context.Background()
			visit := models.NewDate(2026, 3, 1)

			seed := []models.Customer{
				{ID: uuid.New(), Name: "Hana_Mori", Phone: "0701555123", Status: models.CustomerActive, LastVisitDate: &visit},
				{ID: uuid.New(), Name: "Leila", Phone: "0722000111", Email: "LEILA@example.com", Status: models.CustomerVIP},
				{ID: uuid.New(), Name: "Hanadi", Phone: "0733000111", Status: models.CustomerActive},
			}
			for i := range seed {
				if err := store.Customers().Create(ctx, &seed[i]); err != nil {
					t.Fatalf("create: %v", err)
				}
			}

			got, err := store.Customers().Search(ctx, "HANA")
			if err != nil || len(got) != 2 || got[0].ID != seed[0].ID {
				t.Fatalf("expected 2 matches in insertion order, got %v %v", got, err)
			}
			got, err = store.Customers().Search(ctx, "_")
			if err != nil || len(got) != 1 {
				t.Fatalf("expected underscore to match literally, got %d %v", len(got), err)
			}
			got, err = store.Customers().Search(ctx, "leila@")
			if err != nil || len(got) != 1 {
				t.Fatalf("expected email match, got %d %v", len(got), err)
			}

			byPhone, err := store.Customers().FindByPhone(ctx, "0722000111")
			if err != nil || byPhone.ID != seed[1].ID {
				t.Fatalf("find by phone: %v %v", byPhone.ID, err)
			}
			if _, err := store.Customers().FindByPhone(ctx, "000"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected not found, got %v", err)
			}

			from := models.NewDate(2026, 2, 1)
			to := models.NewDate(2026, 3, 1)
			n, err := store.Customers().Count(ctx, CustomerFilter{LastVisitFrom: &from, LastVisitTo: &to})
			if err != nil || n != 1 {
				t.Fatalf("expected 1 recent visitor, got %d %v", n, err)
			}
			n, err = store.Customers().Count(ctx, CustomerFilter{Status: models.CustomerVIP})
			if err != nil || n != 1 {
				t.Fatalf("expected 1 vip, got %d %v", n, err)
			}
		})
	}
}

func TestAtomic_RollsBack(t *testing.T) {
	for name, open := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			ctx := context.Background()
			boom := errors.New("boom")

			svc := models.Service{ID: uuid.New(), Name: "Gel Polish", PriceCents: 4500, DurationMinutes: 60}
			err := store.Atomic(ctx, func(tx Store) error {
				if err := tx.Services().Create(ctx, &svc); err != nil {
					return err
				}
				if _, err := tx.Services().Get(ctx, svc.ID); err != nil {
					t.Fatalf("service should be visible inside the unit of work: %v", err)
				}
				return boom
			})
			if !errors.Is(err, boom) {
				t.Fatalf("expected boom, got %v", err)
			}
			if _, err := store.Services().Get(ctx, svc.ID); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected rollback, got %v", err)
			}

			err = store.Atomic(ctx, func(tx Store) error {
				return tx.Services().Create(ctx, &svc)
			})
			if err != nil {
				t.Fatalf("commit: %v", err)
			}
			if _, err := store.Services().Get(ctx, svc.ID); err != nil {
				t.Fatalf("expected committed service: %v", err)
			}
		})
	}
}

func TestAtomic_RollsBackEveryWrite(t *testing.T) {
	for name, open := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			ctx := context.Background()
			day := models.NewDate(2026, 3, 5)

			svc := models.Service{ID: uuid.New(), Name: "Gel Polish", PriceCents: 4500, DurationMinutes: 60}
			if err := store.Services().Create(ctx, &svc); err != nil {
				t.Fatalf("create service: %v", err)
			}
			seed := []models.Customer{
				{ID: uuid.New(), Name: "Amal", Phone: "0701000001", Status: models.CustomerActive},
				{ID: uuid.New(), Name: "Bushra", Phone: "0701000002", Status: models.CustomerActive},
				{ID: uuid.New(), Name: "Dalia", Phone: "0701000003", Status: models.CustomerActive},
			}
			for i := range seed {
				if err := store.Customers().Create(ctx, &seed[i]); err != nil {
					t.Fatalf("create customer: %v", err)
				}
			}
			booked := newAppointment(day, "10:00 AM", models.StatusPending)
			if err := store.Appointments().Create(ctx, &booked); err != nil {
				t.Fatalf("create appointment: %v", err)
			}

			boom := errors.New("boom")
			err := store.Atomic(ctx, func(tx Store) error {
				renamed := seed[0]
				renamed.Name = "Amal R."
				if err := tx.Customers().Update(ctx, &renamed); err != nil {
					return err
				}
				if err := tx.Customers().Delete(ctx, seed[1].ID); err != nil {
					return err
				}
				guest := models.Customer{ID: uuid.New(), Name: "Guest", Phone: "0701000009", Status: models.CustomerActive}
				if err := tx.Customers().Create(ctx, &guest); err != nil {
					return err
				}
				cancelled := booked
				cancelled.Status = models.StatusCancelled
				if err := tx.Appointments().Update(ctx, &cancelled); err != nil {
					return err
				}
				rebooked := newAppointment(day, "10:00 AM", models.StatusPending)
				if err := tx.Appointments().Create(ctx, &rebooked); err != nil {
					return err
				}
				log := models.ReminderLog{AppointmentID: booked.ID, CustomerID: booked.CustomerID, Kind: models.ReminderCancelled, Status: models.ReminderSent, SentAt: time.Now()}
				if err := tx.Reminders().Create(ctx, &log); err != nil {
					return err
				}
				if err := tx.Services().Delete(ctx, svc.ID); err != nil {
					return err
				}
				return boom
			})
			if !errors.Is(err, boom) {
				t.Fatalf("expected boom, got %v", err)
			}

			all, err := store.Customers().Search(ctx, "")
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			if len(all) != 3 {
				t.Fatalf("expected the 3 original customers, got %d", len(all))
			}
			for i, c := range all {
				if c.ID != seed[i].ID || c.Name != seed[i].Name {
					t.Fatalf("customer %d: got %s %q, want %s %q", i, c.ID, c.Name, seed[i].ID, seed[i].Name)
				}
			}
			active, err := store.Appointments().FindActiveBySlot(ctx, day, "10:00 AM")
			if err != nil || active.ID != booked.ID || active.Status != models.StatusPending {
				t.Fatalf("expected the original booking to hold the slot, got %+v %v", active, err)
			}
			if n, _ := store.Appointments().Count(ctx, AppointmentFilter{}); n != 1 {
				t.Fatalf("expected 1 appointment, got %d", n)
			}
			if logs, _ := store.Reminders().ListByAppointment(ctx, booked.ID); len(logs) != 0 {
				t.Fatalf("expected no reminder logs, got %d", len(logs))
			}
			if _, err := store.Services().Get(ctx, svc.ID); err != nil {
				t.Fatalf("expected service to survive: %v", err)
			}

			late := models.Customer{ID: uuid.New(), Name: "Eman", Phone: "0701000005", Status: models.CustomerActive}
			if err := store.Customers().Create(ctx, &late); err != nil {
				t.Fatalf("create after rollback: %v", err)
			}
			all, _ = store.Customers().Search(ctx, "")
			if len(all) != 4 || all[1].ID != seed[1].ID || all[3].ID != late.ID {
				t.Fatalf("insertion order broken after rollback: %v", all)
			}
		})
	}
}

func TestServices_UpdateAndDelete(t *testing.T) {
	for name, open := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			ctx := context.Background()

			svc := models.Service{ID: uuid.New(), Name: "Trim", PriceCents: 1000, DurationMinutes: 30}
			if err := store.Services().Create(ctx, &svc); err != nil {
				t.Fatalf("create: %v", err)
			}
			svc.PriceCents = 0
			if err := store.Services().Update(ctx, &svc); err != nil {
				t.Fatalf("update: %v", err)
			}
			got, err := store.Services().Get(ctx, svc.ID)
			if err != nil || got.PriceCents != 0 {
				t.Fatalf("expected price 0 to be stored, got %d %v", got.PriceCents, err)
			}

			missing := models.Service{ID: uuid.New(), Name: "Ghost", DurationMinutes: 10}
			if err := store.Services().Update(ctx, &missing); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected not found on update, got %v", err)
			}
			if err := store.Services().Delete(ctx, svc.ID); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if err := store.Services().Delete(ctx, svc.ID); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected not found on second delete, got %v", err)
			}
		})
	}
}

func TestReminders_Sent(t *testing.T) {
	for name, open := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			ctx := context.Background()
			appt := uuid.New()

			failed := models.ReminderLog{AppointmentID: appt, CustomerID: uuid.New(), Kind: models.ReminderDayAhead, Status: models.ReminderFailed, SentAt: time.Now()}
			if err := store.Reminders().Create(ctx, &failed); err != nil {
				t.Fatalf("create: %v", err)
			}
			sent, err := store.Reminders().Sent(ctx, appt, models.ReminderDayAhead)
			if err != nil || sent {
				t.Fatalf("a failed attempt does not count as sent: %v %v", sent, err)
			}

			ok := models.ReminderLog{AppointmentID: appt, CustomerID: failed.CustomerID, Kind: models.ReminderDayAhead, Status: models.ReminderSent, SentAt: time.Now()}
			if err := store.Reminders().Create(ctx, &ok); err != nil {
				t.Fatalf("create: %v", err)
			}
			sent, err = store.Reminders().Sent(ctx, appt, models.ReminderDayAhead)
			if err != nil || !sent {
				t.Fatalf("expected sent, got %v %v", sent, err)
			}
			logs, err := store.Reminders().ListByAppointment(ctx, appt)
			if err != nil || len(logs) != 2 || logs[0].Status != models.ReminderFailed {
				t.Fatalf("expected 2 logs oldest first, got %v %v", logs, err)
			}
		})
	}
}
