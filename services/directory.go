package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"salonbook-backend/models"
	"salonbook-backend/repository"
	"salonbook-backend/utils"
)

// Directory manages customer records. Visit counters are owned by the
// Scheduler and cannot be changed here.
type Directory struct {
	store  repository.Store
	logger *slog.Logger
	now    func() time.Time

	// serializes find-or-create so two guest bookings from one phone do
	// not create two customers
	phoneMu sync.Mutex
}

func NewDirectory(store repository.Store, logger *slog.Logger) *Directory {
	return &Directory{store: store, logger: logger, now: time.Now}
}

type CreateCustomerInput struct {
	Name                string
	Phone               string
	Email               string
	PreferredServiceIDs []uuid.UUID
	Notes               string
}

type CustomerPatch struct {
	Name                *string
	Phone               *string
	Email               *string
	PreferredServiceIDs *[]uuid.UUID
	Notes               *string
	Status              *models.CustomerStatus
}

func validateCustomer(c *models.Customer) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Notes = strings.TrimSpace(c.Notes)
	if c.Name == "" {
		return invalid("name", "is required")
	}
	if strings.TrimSpace(c.Phone) == "" {
		return invalid("phone", "is required")
	}
	if !utils.ValidatePhone(c.Phone) {
		return invalid("phone", "%q is not a valid phone number", c.Phone)
	}
	c.Phone = utils.CleanPhone(c.Phone)
	if c.Email != "" && !utils.ValidateEmail(c.Email) {
		return invalid("email", "%q is not a valid email address", c.Email)
	}
	if !c.Status.Valid() {
		return invalid("status", "must be one of active, inactive, vip")
	}
	return nil
}

func (d *Directory) CreateCustomer(ctx context.Context, in CreateCustomerInput) (models.Customer, error) {
	customer, err := d.newCustomer(in)
	if err != nil {
		return models.Customer{}, err
	}
	if err := d.store.Customers().Create(ctx, &customer); err != nil {
		return models.Customer{}, fmt.Errorf("create customer: %w", err)
	}
	d.logger.Info("customer created", "customer_id", customer.ID)
	return customer, nil
}

func (d *Directory) newCustomer(in CreateCustomerInput) (models.Customer, error) {
	now := d.now().UTC()
	customer := models.Customer{
		ID:                  uuid.New(),
		Name:                in.Name,
		Phone:               in.Phone,
		Email:               in.Email,
		PreferredServiceIDs: models.NewIDSet(in.PreferredServiceIDs),
		Notes:               in.Notes,
		Status:              models.CustomerActive,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := validateCustomer(&customer); err != nil {
		return models.Customer{}, err
	}
	return customer, nil
}

func (d *Directory) GetCustomer(ctx context.Context, id uuid.UUID) (models.Customer, error) {
	c, err := d.store.Customers().Get(ctx, id)
	if err != nil {
		return models.Customer{}, lookupError(err, "customer", id)
	}
	return c, nil
}

func (d *Directory) UpdateCustomer(ctx context.Context, id uuid.UUID, patch CustomerPatch) (models.Customer, error) {
	var updated models.Customer
	err := d.store.Atomic(ctx, func(tx repository.Store) error {
		c, err := tx.Customers().Get(ctx, id)
		if err != nil {
			return lookupError(err, "customer", id)
		}
		if patch.Name != nil {
			c.Name = *patch.Name
		}
		if patch.Phone != nil {
			c.Phone = *patch.Phone
		}
		if patch.Email != nil {
			c.Email = *patch.Email
		}
		if patch.PreferredServiceIDs != nil {
			c.PreferredServiceIDs = models.NewIDSet(*patch.PreferredServiceIDs)
		}
		if patch.Notes != nil {
			c.Notes = *patch.Notes
		}
		if patch.Status != nil {
			c.Status = *patch.Status
		}
		if err := validateCustomer(&c); err != nil {
			return err
		}
		c.UpdatedAt = d.now().UTC()
		if err := tx.Customers().Update(ctx, &c); err != nil {
			return lookupError(err, "customer", id)
		}
		updated = c
		return nil
	})
	if err != nil {
		return models.Customer{}, err
	}
	return updated, nil
}

// SearchCustomers matches query against name, phone and email, ignoring
// case. An empty query lists everyone.
func (d *Directory) SearchCustomers(ctx context.Context, query string) ([]models.Customer, error) {
	list, err := d.store.Customers().Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search customers: %w", err)
	}
	return list, nil
}

func (d *Directory) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	err := d.store.Atomic(ctx, func(tx repository.Store) error {
		if _, err := tx.Customers().Get(ctx, id); err != nil {
			return lookupError(err, "customer", id)
		}
		open, err := tx.Appointments().Count(ctx, repository.AppointmentFilter{
			CustomerID: id,
			Statuses:   models.OpenStatuses,
		})
		if err != nil {
			return fmt.Errorf("count appointments for customer: %w", err)
		}
		if open > 0 {
			return &ConflictError{
				Entity: "customer",
				ID:     id.String(),
				Reason: fmt.Sprintf("%d open appointment(s) still reference it", open),
			}
		}
		if err := tx.Customers().Delete(ctx, id); err != nil {
			return lookupError(err, "customer", id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	d.logger.Info("customer deleted", "customer_id", id)
	return nil
}

// FindOrCreateByPhone returns the existing customer with the same phone
// number, or creates one from in. The bool is true when a customer was
// created.
func (d *Directory) FindOrCreateByPhone(ctx context.Context, in CreateCustomerInput) (models.Customer, bool, error) {
	candidate, err := d.newCustomer(in)
	if err != nil {
		return models.Customer{}, false, err
	}

	d.phoneMu.Lock()
	defer d.phoneMu.Unlock()

	customer, created, err := d.findOrCreate(ctx, d.store, candidate)
	if err != nil {
		return models.Customer{}, false, err
	}
	if created {
		d.logger.Info("customer created from guest booking", "customer_id", customer.ID)
	}
	return customer, created, nil
}

// findOrCreate looks candidate's phone up in tx and stores candidate when
// nobody has it yet. Callers hold phoneMu.
func (d *Directory) findOrCreate(ctx context.Context, tx repository.Store, candidate models.Customer) (models.Customer, bool, error) {
	existing, err := tx.Customers().FindByPhone(ctx, candidate.Phone)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return models.Customer{}, false, fmt.Errorf("find customer by phone: %w", err)
	}
	if err := tx.Customers().Create(ctx, &candidate); err != nil {
		return models.Customer{}, false, fmt.Errorf("create customer: %w", err)
	}
	return candidate, true, nil
}
