package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusNoShow    AppointmentStatus = "no_show"
)

// ActiveStatuses — статусы, занимающие время мастера.
var ActiveStatuses = []AppointmentStatus{
	AppointmentStatusScheduled,
	AppointmentStatusConfirmed,
}

// IsActive сообщает, что запись занимает слот.
func (s AppointmentStatus) IsActive() bool {
	return s == AppointmentStatusScheduled || s == AppointmentStatusConfirmed
}

// IsTerminal сообщает, что из статуса нет переходов.
func (s AppointmentStatus) IsTerminal() bool {
	switch s {
	case AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	default:
		return false
	}
}

// CanTransitionTo описывает автомат состояний записи.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	switch s {
	case AppointmentStatusScheduled:
		return next == AppointmentStatusConfirmed ||
			next == AppointmentStatusCancelled ||
			next == AppointmentStatusNoShow
	case AppointmentStatusConfirmed:
		return next == AppointmentStatusCompleted ||
			next == AppointmentStatusCancelled ||
			next == AppointmentStatusNoShow
	default:
		return false
	}
}

// SalonResourceKey — ключ виртуального ресурса «любой мастер» для услуг без мастера.
func SalonResourceKey(salonID uuid.UUID) string {
	return "salon:" + salonID.String()
}

// StaffResourceKey — ключ ресурса конкретного мастера.
func StaffResourceKey(staffID uuid.UUID) string {
	return staffID.String()
}

// appointments
// Цена и длительность замораживаются при создании и не меняются
// при последующих изменениях переопределений.
type Appointment struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	SalonID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	StaffID   *uuid.UUID `gorm:"type:uuid;index"`
	ServiceID uuid.UUID  `gorm:"type:uuid;not null;index"`

	// Ресурс, на котором действует запрет пересечений (мастер или салон).
	ResourceKey string `gorm:"type:varchar(64);not null;index:idx_appointments_resource_time"`

	// Клиент: зарегистрированный или гостевой снимок контактов.
	ClientID   *uuid.UUID `gorm:"type:uuid;index"`
	GuestName  string     `gorm:"type:varchar(255)"`
	GuestEmail string     `gorm:"type:varchar(255)"`
	GuestPhone string     `gorm:"type:varchar(32)"`

	StartsAt time.Time `gorm:"not null;index:idx_appointments_resource_time"`
	EndsAt   time.Time `gorm:"not null"`

	Status AppointmentStatus `gorm:"type:varchar(32);not null;index"`

	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DurationMin int             `gorm:"not null"`

	// Запись, из которой эта получена переносом.
	RescheduledFromID *uuid.UUID `gorm:"type:uuid;index"`

	CancelledAt *time.Time
	CancelledBy *uuid.UUID `gorm:"type:uuid"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a *Appointment) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Duration возвращает замороженную длительность записи.
func (a *Appointment) Duration() time.Duration {
	return time.Duration(a.DurationMin) * time.Minute
}
