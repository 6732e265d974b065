package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/salon-booking/internal/model"
	"github.com/Leganyst/salon-booking/internal/scheduling"
)

var _ scheduling.Notifier = (*Outbox)(nil)

// Outbox хранит напоминания в таблице reminders. Строки переживают рестарт:
// Dispatcher переносит созревшие в очередь, Worker доставляет.
type Outbox struct {
	db *gorm.DB
}

func NewOutbox(db *gorm.DB) *Outbox {
	return &Outbox{db: db}
}

func (o *Outbox) ScheduleReminder(ctx context.Context, appointmentID uuid.UUID, fireAt time.Time, payload scheduling.ReminderPayload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal reminder payload: %w", err)
	}

	r := model.Reminder{
		AppointmentID: appointmentID,
		FireAt:        fireAt.UTC(),
		Status:        model.ReminderStatusPending,
		Payload:       datatypes.JSON(raw),
	}
	return o.db.WithContext(ctx).Create(&r).Error
}

// CancelReminders отменяет ещё не доставленные напоминания записи.
// Уже поставленная в очередь задача будет пропущена воркером.
func (o *Outbox) CancelReminders(ctx context.Context, appointmentID uuid.UUID) error {
	return o.db.WithContext(ctx).
		Model(&model.Reminder{}).
		Where("appointment_id = ? AND status IN ?", appointmentID,
			[]model.ReminderStatus{model.ReminderStatusPending, model.ReminderStatusDispatched}).
		Update("status", model.ReminderStatusCancelled).
		Error
}

func (o *Outbox) Get(ctx context.Context, id uuid.UUID) (*model.Reminder, error) {
	var r model.Reminder
	if err := o.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// ListDue возвращает ожидающие напоминания с fire_at <= before по возрастанию времени.
func (o *Outbox) ListDue(ctx context.Context, before time.Time, limit int) ([]model.Reminder, error) {
	q := o.db.WithContext(ctx).
		Where("status = ? AND fire_at <= ?", model.ReminderStatusPending, before.UTC()).
		Order("fire_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var out []model.Reminder
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (o *Outbox) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]model.Reminder, error) {
	var out []model.Reminder
	err := o.db.WithContext(ctx).
		Where("appointment_id = ?", appointmentID).
		Order("fire_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkDispatched переводит pending → dispatched. Отменённые не трогает.
func (o *Outbox) MarkDispatched(ctx context.Context, id uuid.UUID) error {
	return o.transition(ctx, id, model.ReminderStatusPending, model.ReminderStatusDispatched)
}

func (o *Outbox) MarkSent(ctx context.Context, id uuid.UUID) error {
	return o.transition(ctx, id, model.ReminderStatusDispatched, model.ReminderStatusSent)
}

// MarkFailed фиксирует неудачную попытку доставки; статус не меняется.
func (o *Outbox) MarkFailed(ctx context.Context, id uuid.UUID, cause error) error {
	return o.db.WithContext(ctx).
		Model(&model.Reminder{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": cause.Error(),
		}).Error
}

func (o *Outbox) transition(ctx context.Context, id uuid.UUID, from, to model.ReminderStatus) error {
	return o.db.WithContext(ctx).
		Model(&model.Reminder{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to).Error
}
