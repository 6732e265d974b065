package model

import (
	"time"

	"gorm.io/datatypes"
)

// schedule_locks — «корзина» дня ресурса.
// Транзакция создания записи блокирует строку (SELECT ... FOR UPDATE) до
// проверки пересечений и увеличивает Version при вставке, поэтому две
// конкурентные записи на один день ресурса сериализуются.
type ScheduleLock struct {
	ResourceKey string         `gorm:"type:varchar(64);primaryKey"`
	Day         datatypes.Date `gorm:"primaryKey"`
	Version     int64          `gorm:"not null;default:0"`

	UpdatedAt time.Time
}
