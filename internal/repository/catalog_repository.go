package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/salon-booking/internal/model"
	"github.com/Leganyst/salon-booking/internal/scheduling"
)

var _ scheduling.Catalog = (*GormCatalogRepository)(nil)

// GormCatalogRepository читает салоны, услуги и мастеров.
// Если строка не найдена, возвращается (nil, nil).
type GormCatalogRepository struct {
	db *gorm.DB
}

func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

// first загружает одну строку и переводит ErrRecordNotFound в nil.
func first[T any](q *gorm.DB, conds ...any) (*T, error) {
	var out T
	if err := q.First(&out, conds...).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (r *GormCatalogRepository) GetSalon(ctx context.Context, salonID uuid.UUID) (*model.Salon, error) {
	return first[model.Salon](r.db.WithContext(ctx), "id = ?", salonID)
}

func (r *GormCatalogRepository) GetSalonHours(ctx context.Context, salonID uuid.UUID, weekday time.Weekday) (*model.SalonHours, error) {
	return first[model.SalonHours](r.db.WithContext(ctx).
		Where("salon_id = ? AND weekday = ?", salonID, int(weekday)))
}

func (r *GormCatalogRepository) GetService(ctx context.Context, serviceID uuid.UUID) (*model.Service, error) {
	return first[model.Service](r.db.WithContext(ctx), "id = ?", serviceID)
}

func (r *GormCatalogRepository) GetSalonOverride(ctx context.Context, salonID, serviceID uuid.UUID) (*model.SalonService, error) {
	return first[model.SalonService](r.db.WithContext(ctx).
		Where("salon_id = ? AND service_id = ?", salonID, serviceID))
}

func (r *GormCatalogRepository) GetStaffOverride(ctx context.Context, staffID, serviceID uuid.UUID) (*model.StaffService, error) {
	return first[model.StaffService](r.db.WithContext(ctx).
		Where("staff_id = ? AND service_id = ?", staffID, serviceID))
}

func (r *GormCatalogRepository) GetStaff(ctx context.Context, staffID uuid.UUID) (*model.Staff, error) {
	return first[model.Staff](r.db.WithContext(ctx), "id = ?", staffID)
}

func (r *GormCatalogRepository) ListQualifiedStaff(ctx context.Context, salonID, serviceID uuid.UUID) ([]model.Staff, error) {
	var staff []model.Staff
	err := r.db.WithContext(ctx).
		Model(&model.Staff{}).
		Joins("JOIN staff_services ON staff_services.staff_id = staff.id").
		Where("staff.salon_id = ? AND staff_services.service_id = ?", salonID, serviceID).
		Order("staff.created_at ASC, staff.id ASC").
		Find(&staff).Error
	if err != nil {
		return nil, err
	}
	return staff, nil
}

func (r *GormCatalogRepository) GetStaffWorkingHours(ctx context.Context, staffID uuid.UUID, weekday time.Weekday) (*model.StaffHours, error) {
	return first[model.StaffHours](r.db.WithContext(ctx).
		Where("staff_id = ? AND weekday = ?", staffID, int(weekday)))
}

// ListSalonServices возвращает услуги, привязанные к салону, включая выключенные.
func (r *GormCatalogRepository) ListSalonServices(ctx context.Context, salonID uuid.UUID) ([]model.SalonService, error) {
	var links []model.SalonService
	err := r.db.WithContext(ctx).
		Preload("Service").
		Where("salon_id = ?", salonID).
		Order("created_at ASC").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}
