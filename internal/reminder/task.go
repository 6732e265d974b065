package reminder

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	TypeSendReminder = "reminder:send"

	// сколько раз asynq повторит доставку одного напоминания
	DefaultMaxRetry = 5
)

type SendPayload struct {
	ReminderID uuid.UUID `json:"reminderId"`
}

// NewSendTask создаёт задачу доставки, запланированную на fireAt.
// TaskID равен id напоминания, повторная постановка не создаёт дубль.
func NewSendTask(reminderID uuid.UUID, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	payload, err := json.Marshal(SendPayload{ReminderID: reminderID})
	if err != nil {
		return nil, nil, err
	}

	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.TaskID(reminderID.String()),
		asynq.MaxRetry(DefaultMaxRetry),
	}
	return asynq.NewTask(TypeSendReminder, payload), opts, nil
}
