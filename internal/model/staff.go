package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// staff — мастер, принадлежит ровно одному салону.
type Staff struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	SalonID uuid.UUID `gorm:"type:uuid;not null;index"`

	DisplayName string `gorm:"type:varchar(255);not null"`

	// По CreatedAt выбирается мастер в режиме «любой».
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time

	Salon    *Salon         `gorm:"foreignKey:SalonID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Hours    []StaffHours   `gorm:"foreignKey:StaffID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Services []StaffService `gorm:"foreignKey:StaffID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Staff) TableName() string { return "staff" }

func (s *Staff) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// staff_hours — индивидуальные часы мастера.
// Нет строки на день — мастер работает по часам салона; Off — выходной.
type StaffHours struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	StaffID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_staff_hours_day"`
	Weekday int       `gorm:"not null;uniqueIndex:idx_staff_hours_day"`

	StartMin int  `gorm:"not null"`
	EndMin   int  `gorm:"not null"`
	Off      bool `gorm:"not null;default:false"`
}

func (StaffHours) TableName() string { return "staff_hours" }

func (h *StaffHours) BeforeCreate(*gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// staff_services — квалификация мастера и его ценовое переопределение.
// Длительность мастер не переопределяет: ширина слота задаётся салоном.
type StaffService struct {
	StaffID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	ServiceID uuid.UUID `gorm:"type:uuid;primaryKey"`

	PriceOverride decimal.NullDecimal `gorm:"type:decimal(12,2)"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Service *Service `gorm:"foreignKey:ServiceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
