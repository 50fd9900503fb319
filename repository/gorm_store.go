package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"salonbook-backend/models"
)

// GormStore persists to PostgreSQL through gorm. The *gorm.DB must be
// opened with TranslateError so unique violations surface as
// gorm.ErrDuplicatedKey.
type GormStore struct {
	db   *gorm.DB
	inTx bool
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the tables and indexes.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&models.Service{}, &models.Customer{}, &models.Appointment{}, &models.ReminderLog{})
}

func (s *GormStore) Services() ServiceRepository         { return gormServices{s} }
func (s *GormStore) Customers() CustomerRepository       { return gormCustomers{s} }
func (s *GormStore) Appointments() AppointmentRepository { return gormAppointments{s} }
func (s *GormStore) Reminders() ReminderLogRepository    { return gormReminders{s} }

func (s *GormStore) Atomic(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, inTx: true})
	})
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// query returns a session bound to ctx. Inside a transaction reads take row
// locks so a concurrent delete cannot slip between check and write.
func (s *GormStore) query(ctx context.Context, lock bool) *gorm.DB {
	db := s.db.WithContext(ctx)
	if lock && s.inTx {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

// updateAll writes every column except the immutable ones.
func updateAll(db *gorm.DB, model interface{}, what string) error {
	result := db.Model(model).Select("*").Omit("seq", "created_at").Updates(model)
	if result.Error != nil {
		return translate(result.Error, what)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func deleteByID(db *gorm.DB, model interface{}, id uuid.UUID, what string) error {
	result := db.Delete(model, "id = ?", id)
	if result.Error != nil {
		return translate(result.Error, what)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type gormServices struct{ s *GormStore }

func (r gormServices) Create(ctx context.Context, svc *models.Service) error {
	return translate(r.s.query(ctx, false).Create(svc).Error, "create service")
}

func (r gormServices) Get(ctx context.Context, id uuid.UUID) (models.Service, error) {
	var svc models.Service
	err := r.s.query(ctx, true).First(&svc, "id = ?", id).Error
	return svc, translate(err, "get service")
}

func (r gormServices) Update(ctx context.Context, svc *models.Service) error {
	return updateAll(r.s.query(ctx, false), svc, "update service")
}

func (r gormServices) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(r.s.query(ctx, false), &models.Service{}, id, "delete service")
}

func (r gormServices) List(ctx context.Context) ([]models.Service, error) {
	var out []models.Service
	err := r.s.query(ctx, false).Order("seq").Find(&out).Error
	return out, translate(err, "list services")
}

func (r gormServices) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.s.query(ctx, false).Model(&models.Service{}).Count(&n).Error
	return n, translate(err, "count services")
}

type gormCustomers struct{ s *GormStore }

func (r gormCustomers) Create(ctx context.Context, c *models.Customer) error {
	return translate(r.s.query(ctx, false).Create(c).Error, "create customer")
}

func (r gormCustomers) Get(ctx context.Context, id uuid.UUID) (models.Customer, error) {
	var c models.Customer
	err := r.s.query(ctx, true).First(&c, "id = ?", id).Error
	return c, translate(err, "get customer")
}

func (r gormCustomers) Update(ctx context.Context, c *models.Customer) error {
	return updateAll(r.s.query(ctx, false), c, "update customer")
}

func (r gormCustomers) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(r.s.query(ctx, false), &models.Customer{}, id, "delete customer")
}

func (r gormCustomers) FindByPhone(ctx context.Context, phone string) (models.Customer, error) {
	var c models.Customer
	err := r.s.query(ctx, false).Where("phone = ?", phone).Order("seq").First(&c).Error
	return c, translate(err, "find customer by phone")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r gormCustomers) Search(ctx context.Context, query string) ([]models.Customer, error) {
	db := r.s.query(ctx, false).Order("seq")
	if q := strings.ToLower(strings.TrimSpace(query)); q != "" {
		pattern := "%" + likeEscaper.Replace(q) + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(phone) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern, pattern)
	}
	out := make([]models.Customer, 0)
	err := db.Find(&out).Error
	return out, translate(err, "search customers")
}

func (r gormCustomers) Count(ctx context.Context, f CustomerFilter) (int64, error) {
	db := r.s.query(ctx, false).Model(&models.Customer{})
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.LastVisitFrom != nil {
		db = db.Where("last_visit_date >= ?", *f.LastVisitFrom)
	}
	if f.LastVisitTo != nil {
		db = db.Where("last_visit_date <= ?", *f.LastVisitTo)
	}
	var n int64
	err := db.Count(&n).Error
	return n, translate(err, "count customers")
}

type gormAppointments struct{ s *GormStore }

func (r gormAppointments) Create(ctx context.Context, a *models.Appointment) error {
	return translate(r.s.query(ctx, false).Create(a).Error, "create appointment")
}

func (r gormAppointments) Get(ctx context.Context, id uuid.UUID) (models.Appointment, error) {
	var a models.Appointment
	err := r.s.query(ctx, true).First(&a, "id = ?", id).Error
	return a, translate(err, "get appointment")
}

func (r gormAppointments) Update(ctx context.Context, a *models.Appointment) error {
	return updateAll(r.s.query(ctx, false), a, "update appointment")
}

func (r gormAppointments) FindActiveBySlot(ctx context.Context, date models.Date, slot string) (models.Appointment, error) {
	var a models.Appointment
	err := r.s.query(ctx, false).
		Where("date = ? AND time_slot = ? AND status <> ?", date, slot, models.StatusCancelled).
		First(&a).Error
	return a, translate(err, "find appointment by slot")
}

func (r gormAppointments) filter(ctx context.Context, f AppointmentFilter) *gorm.DB {
	db := r.s.query(ctx, false).Model(&models.Appointment{})
	if f.From != nil {
		db = db.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		db = db.Where("date <= ?", *f.To)
	}
	if len(f.Statuses) > 0 {
		db = db.Where("status IN ?", f.Statuses)
	}
	if f.CustomerID != uuid.Nil {
		db = db.Where("customer_id = ?", f.CustomerID)
	}
	if f.ServiceID != uuid.Nil {
		db = db.Where("service_id = ?", f.ServiceID)
	}
	return db
}

func (r gormAppointments) List(ctx context.Context, f AppointmentFilter) ([]models.Appointment, error) {
	out := make([]models.Appointment, 0)
	err := r.filter(ctx, f).Order("date, created_at").Find(&out).Error
	return out, translate(err, "list appointments")
}

func (r gormAppointments) Count(ctx context.Context, f AppointmentFilter) (int64, error) {
	var n int64
	err := r.filter(ctx, f).Count(&n).Error
	return n, translate(err, "count appointments")
}

func (r gormAppointments) SumPrice(ctx context.Context, f AppointmentFilter) (int64, error) {
	var total int64
	err := r.filter(ctx, f).Select("COALESCE(SUM(price_cents), 0)").Scan(&total).Error
	return total, translate(err, "sum appointment prices")
}

type gormReminders struct{ s *GormStore }

func (r gormReminders) Create(ctx context.Context, l *models.ReminderLog) error {
	return translate(r.s.query(ctx, false).Create(l).Error, "create reminder log")
}

func (r gormReminders) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]models.ReminderLog, error) {
	out := make([]models.ReminderLog, 0)
	err := r.s.query(ctx, false).Where("appointment_id = ?", appointmentID).Order("sent_at").Find(&out).Error
	return out, translate(err, "list reminder logs")
}

func (r gormReminders) Sent(ctx context.Context, appointmentID uuid.UUID, kind models.ReminderKind) (bool, error) {
	var n int64
	err := r.s.query(ctx, false).Model(&models.ReminderLog{}).
		Where("appointment_id = ? AND kind = ? AND status = ?", appointmentID, kind, models.ReminderSent).
		Count(&n).Error
	return n > 0, translate(err, "check reminder log")
}
