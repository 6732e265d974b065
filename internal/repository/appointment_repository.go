package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/salon-booking/internal/calendar"
	"github.com/Leganyst/salon-booking/internal/model"
	"github.com/Leganyst/salon-booking/internal/scheduling"
)

var _ scheduling.AppointmentStore = (*GormAppointmentRepository)(nil)

// GormAppointmentRepository хранит записи. Проверка пересечений и вставка
// выполняются в одной транзакции под блокировкой корзины (ресурс, день).
type GormAppointmentRepository struct {
	db *gorm.DB
}

func NewGormAppointmentRepository(db *gorm.DB) *GormAppointmentRepository {
	return &GormAppointmentRepository{db: db}
}

// ListActive читает без блокировок: листинг допускает устаревшие данные.
func (r *GormAppointmentRepository) ListActive(ctx context.Context, resourceKey string, _ calendar.Date, window calendar.TimeRange) ([]model.Appointment, error) {
	return listActive(r.db.WithContext(ctx), resourceKey, window)
}

func (r *GormAppointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return first[model.Appointment](r.db.WithContext(ctx), "id = ?", id)
}

// ListByClient возвращает записи клиента в интервале с любым статусом.
func (r *GormAppointmentRepository) ListByClient(ctx context.Context, clientID uuid.UUID, from, to time.Time, limit, offset int) ([]model.Appointment, int64, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("client_id = ?", clientID).
		Where("starts_at >= ? AND starts_at < ?", from.UTC(), to.UTC())

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	var out []model.Appointment
	if err := q.Order("starts_at ASC").Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *GormAppointmentRepository) InTx(ctx context.Context, fn func(tx scheduling.AppointmentTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormAppointmentTx{db: tx, locked: map[string]bool{}})
	})
}

func listActive(db *gorm.DB, resourceKey string, window calendar.TimeRange) ([]model.Appointment, error) {
	var out []model.Appointment
	err := db.
		Where("resource_key = ?", resourceKey).
		Where("starts_at < ? AND ends_at > ?", window.End.UTC(), window.Start.UTC()).
		Where("status IN ?", model.ActiveStatuses).
		Order("starts_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

type gormAppointmentTx struct {
	db     *gorm.DB
	locked map[string]bool
}

func dayValue(day calendar.Date) datatypes.Date {
	return datatypes.Date(time.Date(day.Year, day.Month, day.Day, 0, 0, 0, 0, time.UTC))
}

// lockBucket создаёт (если нужно) и блокирует строку schedule_locks.
// Конкурентная транзакция на тот же ресурс и день ждёт коммита этой.
func (t *gormAppointmentTx) lockBucket(ctx context.Context, resourceKey string, day calendar.Date) error {
	key := resourceKey + "/" + day.String()
	if t.locked[key] {
		return nil
	}

	lock := model.ScheduleLock{ResourceKey: resourceKey, Day: dayValue(day)}
	if err := t.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&lock).Error; err != nil {
		return err
	}

	var held model.ScheduleLock
	if err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("resource_key = ? AND day = ?", resourceKey, dayValue(day)).
		First(&held).Error; err != nil {
		return err
	}

	t.locked[key] = true
	return nil
}

func (t *gormAppointmentTx) Catalog() scheduling.Catalog {
	return NewGormCatalogRepository(t.db)
}

func (t *gormAppointmentTx) ListActive(ctx context.Context, resourceKey string, day calendar.Date, window calendar.TimeRange) ([]model.Appointment, error) {
	if err := t.lockBucket(ctx, resourceKey, day); err != nil {
		return nil, err
	}
	return listActive(t.db.WithContext(ctx), resourceKey, window)
}

func (t *gormAppointmentTx) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return first[model.Appointment](t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
}

func (t *gormAppointmentTx) Insert(ctx context.Context, appt *model.Appointment, day calendar.Date) error {
	if err := t.lockBucket(ctx, appt.ResourceKey, day); err != nil {
		return err
	}
	if err := t.db.WithContext(ctx).Create(appt).Error; err != nil {
		return err
	}

	res := t.db.WithContext(ctx).
		Model(&model.ScheduleLock{}).
		Where("resource_key = ? AND day = ?", appt.ResourceKey, dayValue(day)).
		Update("version", gorm.Expr("version + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.New("schedule lock row disappeared")
	}
	return nil
}

func (t *gormAppointmentTx) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	from []model.AppointmentStatus,
	to model.AppointmentStatus,
	actor *uuid.UUID,
	at time.Time,
) (bool, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": at.UTC(),
	}
	if to == model.AppointmentStatusCancelled {
		updates["cancelled_at"] = at.UTC()
		updates["cancelled_by"] = actor
	}

	res := t.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
