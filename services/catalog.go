package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"salonbook-backend/models"
	"salonbook-backend/repository"
)

// Catalog manages the services the salon offers.
type Catalog struct {
	store  repository.Store
	logger *slog.Logger
	now    func() time.Time
}

func NewCatalog(store repository.Store, logger *slog.Logger) *Catalog {
	return &Catalog{store: store, logger: logger, now: time.Now}
}

type CreateServiceInput struct {
	Name            string
	PriceCents      int64
	DurationMinutes int
	Description     string
}

// ServicePatch holds the fields to change. Nil fields are left alone.
type ServicePatch struct {
	Name            *string
	PriceCents      *int64
	DurationMinutes *int
	Description     *string
}

func validateService(s *models.Service) error {
	s.Name = strings.TrimSpace(s.Name)
	s.Description = strings.TrimSpace(s.Description)
	if s.Name == "" {
		return invalid("name", "is required")
	}
	if s.PriceCents < 0 {
		return invalid("priceCents", "must not be negative")
	}
	if s.DurationMinutes <= 0 {
		return invalid("durationMinutes", "must be positive")
	}
	return nil
}

func (c *Catalog) CreateService(ctx context.Context, in CreateServiceInput) (models.Service, error) {
	now := c.now().UTC()
	svc := models.Service{
		ID:              uuid.New(),
		Name:            in.Name,
		PriceCents:      in.PriceCents,
		DurationMinutes: in.DurationMinutes,
		Description:     in.Description,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := validateService(&svc); err != nil {
		return models.Service{}, err
	}
	if err := c.store.Services().Create(ctx, &svc); err != nil {
		return models.Service{}, fmt.Errorf("create service: %w", err)
	}
	c.logger.Info("service created", "service_id", svc.ID, "name", svc.Name)
	return svc, nil
}

func (c *Catalog) GetService(ctx context.Context, id uuid.UUID) (models.Service, error) {
	svc, err := c.store.Services().Get(ctx, id)
	if err != nil {
		return models.Service{}, lookupError(err, "service", id)
	}
	return svc, nil
}

func (c *Catalog) UpdateService(ctx context.Context, id uuid.UUID, patch ServicePatch) (models.Service, error) {
	var updated models.Service
	err := c.store.Atomic(ctx, func(tx repository.Store) error {
		svc, err := tx.Services().Get(ctx, id)
		if err != nil {
			return lookupError(err, "service", id)
		}
		if patch.Name != nil {
			svc.Name = *patch.Name
		}
		if patch.PriceCents != nil {
			svc.PriceCents = *patch.PriceCents
		}
		if patch.DurationMinutes != nil {
			svc.DurationMinutes = *patch.DurationMinutes
		}
		if patch.Description != nil {
			svc.Description = *patch.Description
		}
		if err := validateService(&svc); err != nil {
			return err
		}
		svc.UpdatedAt = c.now().UTC()
		if err := tx.Services().Update(ctx, &svc); err != nil {
			return lookupError(err, "service", id)
		}
		updated = svc
		return nil
	})
	if err != nil {
		return models.Service{}, err
	}
	return updated, nil
}

// DeleteService refuses while a pending or confirmed appointment still
// books the service. Finished appointments keep their own copy of the name
// and price.
func (c *Catalog) DeleteService(ctx context.Context, id uuid.UUID) error {
	err := c.store.Atomic(ctx, func(tx repository.Store) error {
		if _, err := tx.Services().Get(ctx, id); err != nil {
			return lookupError(err, "service", id)
		}
		open, err := tx.Appointments().Count(ctx, repository.AppointmentFilter{
			ServiceID: id,
			Statuses:  models.OpenStatuses,
		})
		if err != nil {
			return fmt.Errorf("count appointments for service: %w", err)
		}
		if open > 0 {
			return &ConflictError{
				Entity: "service",
				ID:     id.String(),
				Reason: fmt.Sprintf("%d open appointment(s) still reference it", open),
			}
		}
		if err := tx.Services().Delete(ctx, id); err != nil {
			return lookupError(err, "service", id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.logger.Info("service deleted", "service_id", id)
	return nil
}

func (c *Catalog) ListServices(ctx context.Context) ([]models.Service, error) {
	list, err := c.store.Services().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return list, nil
}

// DefaultServices is the menu shown on the public booking page.
var DefaultServices = []CreateServiceInput{
	{Name: "Classic Manicure", PriceCents: 3500, DurationMinutes: 45, Description: "Nail shaping, cuticle care and polish"},
	{Name: "Gel Polish", PriceCents: 4500, DurationMinutes: 60, Description: "Long-lasting gel color"},
	{Name: "Acrylic Extensions", PriceCents: 6500, DurationMinutes: 90, Description: "Full set of acrylic extensions"},
	{Name: "Spa Pedicure", PriceCents: 5000, DurationMinutes: 60, Description: "Soak, scrub, massage and polish"},
	{Name: "Nail Art Design", PriceCents: 2500, DurationMinutes: 30, Description: "Custom art per set"},
	{Name: "French Manicure", PriceCents: 4000, DurationMinutes: 50, Description: "Classic French tips"},
}

// SeedDefaults loads DefaultServices into an empty catalog. It returns the
// number of services created.
func (c *Catalog) SeedDefaults(ctx context.Context) (int, error) {
	n, err := c.store.Services().Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count services: %w", err)
	}
	if n > 0 {
		return 0, nil
	}
	for _, in := range DefaultServices {
		if _, err := c.CreateService(ctx, in); err != nil {
			return 0, err
		}
	}
	c.logger.Info("service catalog seeded", "count", len(DefaultServices))
	return len(DefaultServices), nil
}
