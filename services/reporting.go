package services

import (
	"context"
	"fmt"

	"salonbook-backend/models"
	"salonbook-backend/repository"
)

// DefaultActiveWindowDays is the "active this month" window of the
// customers dashboard.
const DefaultActiveWindowDays = 30

// Reporting computes the read-only figures shown on the dashboard.
type Reporting struct {
	store    repository.Store
	calendar Calendar
}

func NewReporting(store repository.Store, calendar Calendar) *Reporting {
	return &Reporting{store: store, calendar: calendar}
}

// Today is the salon's current date, the default asOf for every report.
func (r *Reporting) Today() models.Date { return r.calendar.Today() }

var bookedStatuses = []models.AppointmentStatus{
	models.StatusPending,
	models.StatusConfirmed,
	models.StatusCompleted,
}

// TodaysBookingCount counts non-cancelled appointments on asOf.
func (r *Reporting) TodaysBookingCount(ctx context.Context, asOf models.Date) (int, error) {
	n, err := r.store.Appointments().Count(ctx, repository.AppointmentFilter{
		From:     &asOf,
		To:       &asOf,
		Statuses: bookedStatuses,
	})
	if err != nil {
		return 0, fmt.Errorf("count bookings: %w", err)
	}
	return int(n), nil
}

// RevenueForPeriod sums the booked price of completed appointments dated
// within [start, end].
func (r *Reporting) RevenueForPeriod(ctx context.Context, start, end models.Date) (int64, error) {
	if start.After(end) {
		return 0, invalid("start", "must not be after end")
	}
	total, err := r.store.Appointments().SumPrice(ctx, repository.AppointmentFilter{
		From:     &start,
		To:       &end,
		Statuses: []models.AppointmentStatus{models.StatusCompleted},
	})
	if err != nil {
		return 0, fmt.Errorf("sum revenue: %w", err)
	}
	return total, nil
}

// ActiveCustomerCount counts customers whose last visit falls within
// windowDays before asOf, inclusive at both ends.
func (r *Reporting) ActiveCustomerCount(ctx context.Context, windowDays int, asOf models.Date) (int, error) {
	if windowDays < 0 {
		return 0, invalid("window", "must not be negative")
	}
	from := asOf.AddDays(-windowDays)
	n, err := r.store.Customers().Count(ctx, repository.CustomerFilter{
		LastVisitFrom: &from,
		LastVisitTo:   &asOf,
	})
	if err != nil {
		return 0, fmt.Errorf("count active customers: %w", err)
	}
	return int(n), nil
}

type SummaryQuery struct {
	AsOf       models.Date
	Start      models.Date
	End        models.Date
	WindowDays int
}

type Summary struct {
	AsOf            models.Date `json:"asOf"`
	Start           models.Date `json:"start"`
	End             models.Date `json:"end"`
	WindowDays      int         `json:"windowDays"`
	BookingCount    int         `json:"bookingCount"`
	RevenueCents    int64       `json:"revenueCents"`
	ActiveCustomers int         `json:"activeCustomers"`
	TotalCustomers  int         `json:"totalCustomers"`
	VIPCustomers    int         `json:"vipCustomers"`
}

// Summary gathers the dashboard cards in one call.
func (r *Reporting) Summary(ctx context.Context, q SummaryQuery) (Summary, error) {
	out := Summary{AsOf: q.AsOf, Start: q.Start, End: q.End, WindowDays: q.WindowDays}
	var err error
	if out.RevenueCents, err = r.RevenueForPeriod(ctx, q.Start, q.End); err != nil {
		return Summary{}, err
	}
	if out.ActiveCustomers, err = r.ActiveCustomerCount(ctx, q.WindowDays, q.AsOf); err != nil {
		return Summary{}, err
	}
	if out.BookingCount, err = r.TodaysBookingCount(ctx, q.AsOf); err != nil {
		return Summary{}, err
	}
	total, err := r.store.Customers().Count(ctx, repository.CustomerFilter{})
	if err != nil {
		return Summary{}, fmt.Errorf("count customers: %w", err)
	}
	vip, err := r.store.Customers().Count(ctx, repository.CustomerFilter{Status: models.CustomerVIP})
	if err != nil {
		return Summary{}, fmt.Errorf("count vip customers: %w", err)
	}
	out.TotalCustomers = int(total)
	out.VIPCustomers = int(vip)
	return out, nil
}
