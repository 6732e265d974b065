package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ReminderStatus string

const (
	ReminderStatusPending    ReminderStatus = "pending"
	ReminderStatusDispatched ReminderStatus = "dispatched"
	ReminderStatusSent       ReminderStatus = "sent"
	ReminderStatusCancelled  ReminderStatus = "cancelled"
)

// reminders — отложенная задача напоминания.
// Строка переживает рестарт процесса; доставкой занимается внешний воркер.
type Reminder struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	AppointmentID uuid.UUID `gorm:"type:uuid;not null;index"`

	FireAt  time.Time      `gorm:"not null;index:idx_reminders_due"`
	Status  ReminderStatus `gorm:"type:varchar(32);not null;index:idx_reminders_due"`
	Payload datatypes.JSON `gorm:"type:jsonb"`

	Attempts  int    `gorm:"not null;default:0"`
	LastError string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *Reminder) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
