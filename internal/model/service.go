package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// services — глобальный каталог услуг.
type Service struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	Name        string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:text"`

	// Каноническая длительность, минут, и базовая цена.
	DurationMin int             `gorm:"not null"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	// Услугу можно бронировать в любом салоне без отдельной привязки.
	GloballyBookable bool `gorm:"not null"`
	// false — мастер не нужен, ёмкость считается на уровне салона.
	RequiresStaff bool `gorm:"not null"`

	IsActive bool `gorm:"not null;index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *Service) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// salon_services — привязка услуги к салону с переопределениями.
// Не более одной строки на пару (salon, service).
type SalonService struct {
	SalonID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	ServiceID uuid.UUID `gorm:"type:uuid;primaryKey"`

	PriceOverride       decimal.NullDecimal `gorm:"type:decimal(12,2)"`
	DurationOverrideMin *int
	Enabled             bool `gorm:"not null"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Salon   *Salon   `gorm:"foreignKey:SalonID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Service *Service `gorm:"foreignKey:ServiceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
