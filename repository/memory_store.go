package repository

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"salonbook-backend/models"
)

// MemoryStore keeps every collection in process memory. It is the default
// store when no database is configured and the one the tests run against.
// Atomic undoes only the writes it made, so a unit of work costs what it
// touches rather than the size of the store.
type MemoryStore struct {
	mu   sync.RWMutex
	data *memData
}

type memData struct {
	seq              int64
	services         map[uuid.UUID]models.Service
	serviceOrder     []uuid.UUID
	customers        map[uuid.UUID]models.Customer
	customerOrder    []uuid.UUID
	appointments     map[uuid.UUID]models.Appointment
	appointmentOrder []uuid.UUID
	reminders        []models.ReminderLog
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: &memData{
		services:     make(map[uuid.UUID]models.Service),
		customers:    make(map[uuid.UUID]models.Customer),
		appointments: make(map[uuid.UUID]models.Appointment),
	}}
}

func (s *MemoryStore) view() memView { return memView{store: s} }

func (s *MemoryStore) Services() ServiceRepository         { return memServices{s.view()} }
func (s *MemoryStore) Customers() CustomerRepository       { return memCustomers{s.view()} }
func (s *MemoryStore) Appointments() AppointmentRepository { return memAppointments{s.view()} }
func (s *MemoryStore) Reminders() ReminderLogRepository    { return memReminders{s.view()} }
func (s *MemoryStore) Ping(context.Context) error          { return nil }

func (s *MemoryStore) Atomic(ctx context.Context, fn func(tx Store) error) error {
	return s.view().Atomic(ctx, fn)
}

// memView is the store as seen either from outside (taking locks per call)
// or from inside Atomic, where the write lock is already held and every
// write leaves its inverse in undo.
type memView struct {
	store *MemoryStore
	inTx  bool
	undo  *[]func()
}

func (v memView) Services() ServiceRepository         { return memServices{v} }
func (v memView) Customers() CustomerRepository       { return memCustomers{v} }
func (v memView) Appointments() AppointmentRepository { return memAppointments{v} }
func (v memView) Reminders() ReminderLogRepository    { return memReminders{v} }
func (v memView) Ping(context.Context) error          { return nil }

func (v memView) Atomic(ctx context.Context, fn func(tx Store) error) error {
	if v.inTx {
		return fn(v)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	seq := v.store.data.seq
	var undo []func()
	if err := fn(memView{store: v.store, inTx: true, undo: &undo}); err != nil {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
		v.store.data.seq = seq
		return err
	}
	return nil
}

// onRollback registers fn to run if the surrounding Atomic fails. Outside
// Atomic writes are final and fn is dropped.
func (v memView) onRollback(fn func()) {
	if v.undo != nil {
		*v.undo = append(*v.undo, fn)
	}
}

func (v memView) rlock() func() {
	if v.inTx {
		return func() {}
	}
	v.store.mu.RLock()
	return v.store.mu.RUnlock
}

func (v memView) lock() func() {
	if v.inTx {
		return func() {}
	}
	v.store.mu.Lock()
	return v.store.mu.Unlock
}

func (v memView) nextSeq() int64 {
	v.store.data.seq++
	return v.store.data.seq
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

type memServices struct{ v memView }

func (r memServices) Create(ctx context.Context, s *models.Service) error {
	defer r.v.lock()()
	d := r.v.store.data
	if _, ok := d.services[s.ID]; ok {
		return ErrDuplicate
	}
	s.Seq = r.v.nextSeq()
	d.services[s.ID] = *s
	d.serviceOrder = append(d.serviceOrder, s.ID)
	id := s.ID
	r.v.onRollback(func() {
		delete(d.services, id)
		d.serviceOrder = removeID(d.serviceOrder, id)
	})
	return nil
}

func (r memServices) Get(ctx context.Context, id uuid.UUID) (models.Service, error) {
	defer r.v.rlock()()
	s, ok := r.v.store.data.services[id]
	if !ok {
		return models.Service{}, ErrNotFound
	}
	return s, nil
}

func (r memServices) Update(ctx context.Context, s *models.Service) error {
	defer r.v.lock()()
	d := r.v.store.data
	old, ok := d.services[s.ID]
	if !ok {
		return ErrNotFound
	}
	s.Seq = old.Seq
	s.CreatedAt = old.CreatedAt
	d.services[s.ID] = *s
	r.v.onRollback(func() { d.services[old.ID] = old })
	return nil
}

func (r memServices) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.v.lock()()
	d := r.v.store.data
	old, ok := d.services[id]
	if !ok {
		return ErrNotFound
	}
	at := slices.Index(d.serviceOrder, id)
	delete(d.services, id)
	d.serviceOrder = removeID(d.serviceOrder, id)
	r.v.onRollback(func() {
		d.services[id] = old
		d.serviceOrder = slices.Insert(d.serviceOrder, at, id)
	})
	return nil
}

func (r memServices) List(ctx context.Context) ([]models.Service, error) {
	defer r.v.rlock()()
	d := r.v.store.data
	out := make([]models.Service, 0, len(d.serviceOrder))
	for _, id := range d.serviceOrder {
		out = append(out, d.services[id])
	}
	return out, nil
}

func (r memServices) Count(ctx context.Context) (int64, error) {
	defer r.v.rlock()()
	return int64(len(r.v.store.data.services)), nil
}

type memCustomers struct{ v memView }

func (r memCustomers) Create(ctx context.Context, c *models.Customer) error {
	defer r.v.lock()()
	d := r.v.store.data
	if _, ok := d.customers[c.ID]; ok {
		return ErrDuplicate
	}
	c.Seq = r.v.nextSeq()
	d.customers[c.ID] = c.Clone()
	d.customerOrder = append(d.customerOrder, c.ID)
	id := c.ID
	r.v.onRollback(func() {
		delete(d.customers, id)
		d.customerOrder = removeID(d.customerOrder, id)
	})
	return nil
}

func (r memCustomers) Get(ctx context.Context, id uuid.UUID) (models.Customer, error) {
	defer r.v.rlock()()
	c, ok := r.v.store.data.customers[id]
	if !ok {
		return models.Customer{}, ErrNotFound
	}
	return c.Clone(), nil
}

func (r memCustomers) Update(ctx context.Context, c *models.Customer) error {
	defer r.v.lock()()
	d := r.v.store.data
	old, ok := d.customers[c.ID]
	if !ok {
		return ErrNotFound
	}
	c.Seq = old.Seq
	c.CreatedAt = old.CreatedAt
	d.customers[c.ID] = c.Clone()
	r.v.onRollback(func() { d.customers[old.ID] = old })
	return nil
}

func (r memCustomers) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.v.lock()()
	d := r.v.store.data
	old, ok := d.customers[id]
	if !ok {
		return ErrNotFound
	}
	at := slices.Index(d.customerOrder, id)
	delete(d.customers, id)
	d.customerOrder = removeID(d.customerOrder, id)
	r.v.onRollback(func() {
		d.customers[id] = old
		d.customerOrder = slices.Insert(d.customerOrder, at, id)
	})
	return nil
}

func (r memCustomers) FindByPhone(ctx context.Context, phone string) (models.Customer, error) {
	defer r.v.rlock()()
	d := r.v.store.data
	for _, id := range d.customerOrder {
		if c := d.customers[id]; c.Phone == phone {
			return c.Clone(), nil
		}
	}
	return models.Customer{}, ErrNotFound
}

func (r memCustomers) Search(ctx context.Context, query string) ([]models.Customer, error) {
	defer r.v.rlock()()
	d := r.v.store.data
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Customer, 0)
	for _, id := range d.customerOrder {
		c := d.customers[id]
		if q == "" ||
			strings.Contains(strings.ToLower(c.Name), q) ||
			strings.Contains(strings.ToLower(c.Phone), q) ||
			strings.Contains(strings.ToLower(c.Email), q) {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

func (r memCustomers) Count(ctx context.Context, f CustomerFilter) (int64, error) {
	defer r.v.rlock()()
	var n int64
	for _, c := range r.v.store.data.customers {
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.LastVisitFrom != nil || f.LastVisitTo != nil {
			if c.LastVisitDate == nil {
				continue
			}
			if f.LastVisitFrom != nil && c.LastVisitDate.Before(*f.LastVisitFrom) {
				continue
			}
			if f.LastVisitTo != nil && c.LastVisitDate.After(*f.LastVisitTo) {
				continue
			}
		}
		n++
	}
	return n, nil
}

type memAppointments struct{ v memView }

func (r memAppointments) activeAt(date models.Date, slot string) (models.Appointment, bool) {
	for _, a := range r.v.store.data.appointments {
		if a.Status != models.StatusCancelled && a.Date.Equal(date) && a.TimeSlot == slot {
			return a, true
		}
	}
	return models.Appointment{}, false
}

func (r memAppointments) Create(ctx context.Context, a *models.Appointment) error {
	defer r.v.lock()()
	d := r.v.store.data
	if _, ok := d.appointments[a.ID]; ok {
		return ErrDuplicate
	}
	if a.Status != models.StatusCancelled {
		if _, taken := r.activeAt(a.Date, a.TimeSlot); taken {
			return ErrDuplicate
		}
	}
	d.appointments[a.ID] = *a
	d.appointmentOrder = append(d.appointmentOrder, a.ID)
	id := a.ID
	r.v.onRollback(func() {
		delete(d.appointments, id)
		d.appointmentOrder = removeID(d.appointmentOrder, id)
	})
	return nil
}

func (r memAppointments) Get(ctx context.Context, id uuid.UUID) (models.Appointment, error) {
	defer r.v.rlock()()
	a, ok := r.v.store.data.appointments[id]
	if !ok {
		return models.Appointment{}, ErrNotFound
	}
	return a, nil
}

func (r memAppointments) Update(ctx context.Context, a *models.Appointment) error {
	defer r.v.lock()()
	d := r.v.store.data
	old, ok := d.appointments[a.ID]
	if !ok {
		return ErrNotFound
	}
	if a.Status != models.StatusCancelled {
		if other, taken := r.activeAt(a.Date, a.TimeSlot); taken && other.ID != a.ID {
			return ErrDuplicate
		}
	}
	a.CreatedAt = old.CreatedAt
	d.appointments[a.ID] = *a
	r.v.onRollback(func() { d.appointments[old.ID] = old })
	return nil
}

func (r memAppointments) FindActiveBySlot(ctx context.Context, date models.Date, slot string) (models.Appointment, error) {
	defer r.v.rlock()()
	a, ok := r.activeAt(date, slot)
	if !ok {
		return models.Appointment{}, ErrNotFound
	}
	return a, nil
}

func (r memAppointments) match(f AppointmentFilter, a models.Appointment) bool {
	if f.From != nil && a.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && a.Date.After(*f.To) {
		return false
	}
	if f.CustomerID != uuid.Nil && a.CustomerID != f.CustomerID {
		return false
	}
	if f.ServiceID != uuid.Nil && a.ServiceID != f.ServiceID {
		return false
	}
	return matchesStatus(f.Statuses, a.Status)
}

// List returns matches in insertion order.
func (r memAppointments) List(ctx context.Context, f AppointmentFilter) ([]models.Appointment, error) {
	defer r.v.rlock()()
	d := r.v.store.data
	out := make([]models.Appointment, 0)
	for _, id := range d.appointmentOrder {
		if a := d.appointments[id]; r.match(f, a) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r memAppointments) Count(ctx context.Context, f AppointmentFilter) (int64, error) {
	defer r.v.rlock()()
	var n int64
	for _, a := range r.v.store.data.appointments {
		if r.match(f, a) {
			n++
		}
	}
	return n, nil
}

func (r memAppointments) SumPrice(ctx context.Context, f AppointmentFilter) (int64, error) {
	defer r.v.rlock()()
	var total int64
	for _, a := range r.v.store.data.appointments {
		if r.match(f, a) {
			total += a.PriceCents
		}
	}
	return total, nil
}

type memReminders struct{ v memView }

func (r memReminders) Create(ctx context.Context, l *models.ReminderLog) error {
	defer r.v.lock()()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	d := r.v.store.data
	n := len(d.reminders)
	d.reminders = append(d.reminders, *l)
	r.v.onRollback(func() { d.reminders = d.reminders[:n] })
	return nil
}

func (r memReminders) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]models.ReminderLog, error) {
	defer r.v.rlock()()
	out := make([]models.ReminderLog, 0)
	for _, l := range r.v.store.data.reminders {
		if l.AppointmentID == appointmentID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r memReminders) Sent(ctx context.Context, appointmentID uuid.UUID, kind models.ReminderKind) (bool, error) {
	defer r.v.rlock()()
	for _, l := range r.v.store.data.reminders {
		if l.AppointmentID == appointmentID && l.Kind == kind && l.Status == models.ReminderSent {
			return true, nil
		}
	}
	return false, nil
}
