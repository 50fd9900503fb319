package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"salonbook-backend/models"
)

func TestCreateCustomer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.service(t, "Gel Polish", 4500)

	c, err := env.directory.CreateCustomer(ctx, CreateCustomerInput{
		Name:                " Sara Ali ",
		Phone:               "(0701) 234-567",
		Email:               "sara@example.com",
		PreferredServiceIDs: []uuid.UUID{svc.ID, svc.ID, uuid.Nil},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Name != "Sara Ali" || c.Phone != "0701234567" {
		t.Fatalf("expected trimmed name and cleaned phone, got %q %q", c.Name, c.Phone)
	}
	if c.Status != models.CustomerActive || c.TotalVisits != 0 || c.LastVisitDate != nil {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if len(c.PreferredServiceIDs) != 1 {
		t.Fatalf("expected preferred services deduplicated, got %v", c.PreferredServiceIDs)
	}
}

func TestCreateCustomer_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		in    CreateCustomerInput
		field string
	}{
		{"missing name", CreateCustomerInput{Phone: "0701234567"}, "name"},
		{"missing phone", CreateCustomerInput{Name: "A"}, "phone"},
		{"bad phone", CreateCustomerInput{Name: "A", Phone: "call me"}, "phone"},
		{"short phone", CreateCustomerInput{Name: "A", Phone: "123"}, "phone"},
		{"bad email", CreateCustomerInput{Name: "A", Phone: "0701234567", Email: "not-an-email"}, "email"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.directory.CreateCustomer(ctx, tc.in)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tc.field {
				t.Fatalf("expected field %s, got %s", tc.field, verr.Field)
			}
		})
	}
}

func TestSearchCustomers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.customer(t, "Hana Mori", "0701555123")
	env.customer(t, "Leila Haddad", "+254722000111")
	if _, err := env.directory.CreateCustomer(ctx, CreateCustomerInput{Name: "Zoe", Phone: "0733999888", Email: "ZOE@Example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	cases := []struct {
		query string
		want  int
	}{
		{"0701", 1},
		{"hana", 1},
		{"HADDAD", 1},
		{"example.com", 1},
		{"ha", 2},
		{"", 3},
		{"nobody", 0},
	}
	for _, tc := range cases {
		got, err := env.directory.SearchCustomers(ctx, tc.query)
		if err != nil {
			t.Fatalf("search %q: %v", tc.query, err)
		}
		if len(got) != tc.want {
			t.Fatalf("search %q: expected %d, got %d", tc.query, tc.want, len(got))
		}
	}
}

func TestUpdateCustomer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.customer(t, "Hana", "0701555123")

	vip := models.CustomerVIP
	notes := "prefers mornings"
	updated, err := env.directory.UpdateCustomer(ctx, c.ID, CustomerPatch{Status: &vip, Notes: &notes})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != models.CustomerVIP || updated.Notes != notes || updated.Phone != c.Phone {
		t.Fatalf("unexpected customer after update: %+v", updated)
	}

	bogus := models.CustomerStatus("gold")
	if _, err := env.directory.UpdateCustomer(ctx, c.ID, CustomerPatch{Status: &bogus}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := env.directory.UpdateCustomer(ctx, uuid.New(), CustomerPatch{Notes: &notes}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteCustomer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.service(t, "Gel Polish", 4500)
	c := env.customer(t, "Hana", "0701555123")

	a := env.book(t, c.ID, svc.ID, tomorrow, "10:00 AM")
	if err := env.directory.DeleteCustomer(ctx, c.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := env.scheduler.CancelAppointment(ctx, a.ID, ""); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := env.directory.DeleteCustomer(ctx, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := env.directory.GetCustomer(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFindOrCreateByPhone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, created, err := env.directory.FindOrCreateByPhone(ctx, CreateCustomerInput{Name: "Amal", Phone: "0712 000 111"})
	if err != nil || !created {
		t.Fatalf("expected a new customer, got created=%v err=%v", created, err)
	}
	again, created, err := env.directory.FindOrCreateByPhone(ctx, CreateCustomerInput{Name: "Someone Else", Phone: "0712000111"})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if created || again.ID != first.ID || again.Name != "Amal" {
		t.Fatalf("expected existing customer to be returned unchanged, got %+v created=%v", again, created)
	}
}
