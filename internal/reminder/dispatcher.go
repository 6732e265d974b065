package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	DefaultDispatchSpec = "@every 1m"
	DefaultLookahead    = 5 * time.Minute
	DefaultBatchSize    = 100
)

// Enqueuer ставит задачи в очередь. Его реализует *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type DispatcherOptions struct {
	// расписание cron, по умолчанию "@every 1m"
	Spec string
	// насколько заранее напоминание переносится в очередь
	Lookahead time.Duration
	BatchSize int
	Now       func() time.Time
	Logger    *zap.Logger
}

// Dispatcher периодически переносит созревшие напоминания из outbox в очередь asynq.
type Dispatcher struct {
	outbox *Outbox
	queue  Enqueuer
	log    *zap.Logger

	spec      string
	lookahead time.Duration
	batch     int
	now       func() time.Time

	cron *cron.Cron
}

func NewDispatcher(outbox *Outbox, queue Enqueuer, opts DispatcherOptions) *Dispatcher {
	d := &Dispatcher{
		outbox:    outbox,
		queue:     queue,
		log:       opts.Logger,
		spec:      opts.Spec,
		lookahead: opts.Lookahead,
		batch:     opts.BatchSize,
		now:       opts.Now,
	}
	if d.log == nil {
		d.log = zap.NewNop()
	}
	if d.spec == "" {
		d.spec = DefaultDispatchSpec
	}
	if d.lookahead <= 0 {
		d.lookahead = DefaultLookahead
	}
	if d.batch <= 0 {
		d.batch = DefaultBatchSize
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d
}

// Start регистрирует задачу в cron и запускает планировщик.
// Прогоны не накладываются: следующий пропускается, пока идёт предыдущий.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	_, err := d.cron.AddFunc(d.spec, func() {
		n, err := d.RunOnce(ctx)
		if err != nil {
			d.log.Error("reminder dispatch failed", zap.Error(err))
			return
		}
		if n > 0 {
			d.log.Info("reminders dispatched", zap.Int("count", n))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid dispatch spec %q: %w", d.spec, err)
	}

	d.cron.Start()
	d.log.Info("reminder dispatcher started", zap.String("spec", d.spec), zap.Duration("lookahead", d.lookahead))
	return nil
}

// Stop останавливает cron и ждёт завершения текущего прогона.
func (d *Dispatcher) Stop(ctx context.Context) {
	if d.cron == nil {
		return
	}
	select {
	case <-d.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// RunOnce ставит в очередь одну пачку созревших напоминаний и возвращает
// число успешно поставленных. Ошибка отдельной строки не прерывает пачку.
func (d *Dispatcher) RunOnce(ctx context.Context) (int, error) {
	due, err := d.outbox.ListDue(ctx, d.now().Add(d.lookahead), d.batch)
	if err != nil {
		return 0, fmt.Errorf("list due reminders: %w", err)
	}

	dispatched := 0
	for _, r := range due {
		if err := d.enqueue(ctx, r.ID, r.FireAt); err != nil {
			d.log.Warn("enqueue reminder failed",
				zap.String("reminder_id", r.ID.String()),
				zap.String("appointment_id", r.AppointmentID.String()),
				zap.Error(err),
			)
			if ferr := d.outbox.MarkFailed(ctx, r.ID, err); ferr != nil {
				d.log.Error("mark reminder failed", zap.String("reminder_id", r.ID.String()), zap.Error(ferr))
			}
			continue
		}

		if err := d.outbox.MarkDispatched(ctx, r.ID); err != nil {
			return dispatched, fmt.Errorf("mark reminder %s dispatched: %w", r.ID, err)
		}
		dispatched++
	}
	return dispatched, nil
}

// enqueue считает конфликт TaskID успехом: задача уже в очереди с прошлого прогона.
func (d *Dispatcher) enqueue(ctx context.Context, id uuid.UUID, fireAt time.Time) error {
	task, opts, err := NewSendTask(id, fireAt)
	if err != nil {
		return err
	}
	if _, err := d.queue.EnqueueContext(ctx, task, opts...); err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		return err
	}
	return nil
}
