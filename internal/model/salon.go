package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Шаг сетки слотов по умолчанию, минут.
const DefaultSlotGranularityMin = 15

// salons
type Salon struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index"`

	Name string `gorm:"type:varchar(255);not null"`

	// IANA-зона, в которой заданы часы работы.
	TimeZone string `gorm:"type:varchar(64);not null;default:'UTC'"`

	// Политика бронирования.
	SlotGranularityMin    int  `gorm:"not null;default:15"`
	MinLeadTimeMin        int  `gorm:"not null;default:0"`
	CancellationWindowMin int  `gorm:"not null;default:0"`
	AutoConfirm           bool `gorm:"not null;default:false"`

	// Салоны не удаляются, только отключаются.
	Disabled bool `gorm:"not null;default:false;index"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Hours []SalonHours `gorm:"foreignKey:SalonID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (s *Salon) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Location возвращает часовой пояс салона; неизвестная зона трактуется как UTC.
func (s *Salon) Location() *time.Location {
	if s.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Granularity возвращает шаг сетки в минутах, не меньше 1.
func (s *Salon) Granularity() int {
	if s.SlotGranularityMin <= 0 {
		return DefaultSlotGranularityMin
	}
	return s.SlotGranularityMin
}

func (s *Salon) LeadTime() time.Duration {
	return time.Duration(s.MinLeadTimeMin) * time.Minute
}

func (s *Salon) CancellationWindow() time.Duration {
	return time.Duration(s.CancellationWindowMin) * time.Minute
}

// salon_hours — часы работы салона по дням недели.
// Отсутствие строки на день недели означает, что салон закрыт.
type SalonHours struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	SalonID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_salon_hours_day"`
	Weekday int       `gorm:"not null;uniqueIndex:idx_salon_hours_day"` // 0 — воскресенье

	// Минуты от полуночи по местному времени салона.
	OpenMin  int  `gorm:"not null"`
	CloseMin int  `gorm:"not null"`
	Closed   bool `gorm:"not null;default:false"`
}

func (SalonHours) TableName() string { return "salon_hours" }

func (h *SalonHours) BeforeCreate(*gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
