package reminder

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/Leganyst/salon-booking/internal/model"
	"github.com/Leganyst/salon-booking/internal/scheduling"
)

// Sender доставляет напоминание клиенту (push, email, SMS).
type Sender interface {
	Send(ctx context.Context, payload scheduling.ReminderPayload) error
}

// LogSender только пишет напоминание в лог.
type LogSender struct {
	Logger *zap.Logger
}

func (s LogSender) Send(_ context.Context, p scheduling.ReminderPayload) error {
	fields := []zap.Field{
		zap.String("appointment_id", p.AppointmentID.String()),
		zap.String("salon_id", p.SalonID.String()),
		zap.Time("starts_at", p.StartsAt),
		zap.String("title", p.Title),
		zap.String("body", p.Body),
	}
	if p.ClientID != nil {
		fields = append(fields, zap.String("client_id", p.ClientID.String()))
	}
	if p.GuestEmail != "" {
		fields = append(fields, zap.String("guest_email", p.GuestEmail))
	}
	s.Logger.Info("reminder sent", fields...)
	return nil
}

type Worker struct {
	outbox *Outbox
	sender Sender
	log    *zap.Logger
}

func NewWorker(outbox *Outbox, sender Sender, log *zap.Logger) *Worker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Worker{outbox: outbox, sender: sender, log: log}
}

func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeSendReminder, w.HandleSend)
}

// HandleSend обрабатывает задачу reminder:send. Отменённые и уже
// доставленные напоминания пропускаются без ошибки.
func (w *Worker) HandleSend(ctx context.Context, t *asynq.Task) error {
	var p SendPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode task payload: %v: %w", err, asynq.SkipRetry)
	}

	r, err := w.outbox.Get(ctx, p.ReminderID)
	if err != nil {
		return fmt.Errorf("load reminder %s: %w", p.ReminderID, err)
	}
	if r == nil {
		w.log.Warn("reminder not found, skipping", zap.String("reminder_id", p.ReminderID.String()))
		return nil
	}

	switch r.Status {
	case model.ReminderStatusCancelled, model.ReminderStatusSent:
		w.log.Info("reminder skipped",
			zap.String("reminder_id", r.ID.String()),
			zap.String("status", string(r.Status)),
		)
		return nil
	case model.ReminderStatusPending:
		// задача поставлена, но отметка dispatched не успела записаться
		if err := w.outbox.MarkDispatched(ctx, r.ID); err != nil {
			return fmt.Errorf("mark reminder %s dispatched: %w", r.ID, err)
		}
	}

	var payload scheduling.ReminderPayload
	if err := json.Unmarshal(r.Payload, &payload); err != nil {
		return fmt.Errorf("decode reminder %s payload: %v: %w", r.ID, err, asynq.SkipRetry)
	}

	if err := w.sender.Send(ctx, payload); err != nil {
		if ferr := w.outbox.MarkFailed(ctx, r.ID, err); ferr != nil {
			w.log.Error("mark reminder failed", zap.String("reminder_id", r.ID.String()), zap.Error(ferr))
		}
		return fmt.Errorf("send reminder %s: %w", r.ID, err)
	}

	if err := w.outbox.MarkSent(ctx, r.ID); err != nil {
		return fmt.Errorf("mark reminder %s sent: %w", r.ID, err)
	}
	return nil
}
