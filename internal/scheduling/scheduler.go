package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Leganyst/salon-booking/internal/calendar"
	"github.com/Leganyst/salon-booking/internal/model"
)

const DefaultOperationTimeout = 10 * time.Second

// DefaultReminderOffsets — за сколько до начала записи напоминать клиенту.
var DefaultReminderOffsets = []time.Duration{24 * time.Hour, 2 * time.Hour}

// BookingRequest — запрос на создание записи. StaffID == nil — «любой мастер».
type BookingRequest struct {
	SalonID   uuid.UUID
	ServiceID uuid.UUID
	StaffID   *uuid.UUID
	Date      calendar.Date
	Time      calendar.Clock
	Client    ClientContext
}

// RescheduleRequest — перенос записи. StaffID == nil сохраняет мастера
// исходной записи, AnyStaff разрешает выбрать любого свободного.
type RescheduleRequest struct {
	AppointmentID uuid.UUID
	Date          calendar.Date
	Time          calendar.Clock
	StaffID       *uuid.UUID
	AnyStaff      bool
	Actor         Actor
}

type Options struct {
	// Timeout ограничивает операцию, если у контекста нет своего дедлайна.
	Timeout         time.Duration
	ReminderOffsets []time.Duration
	Now             NowFunc
	Logger          *zap.Logger
}

// Scheduler управляет жизненным циклом записей.
type Scheduler struct {
	catalog   Catalog
	store     AppointmentStore
	validator *Validator
	notifier  Notifier

	log     *zap.Logger
	now     NowFunc
	timeout time.Duration
	offsets []time.Duration
}

func NewScheduler(catalog Catalog, store AppointmentStore, validator *Validator, notifier Notifier, opts Options) *Scheduler {
	s := &Scheduler{
		catalog:   catalog,
		store:     store,
		validator: validator,
		notifier:  notifier,
		log:       opts.Logger,
		now:       opts.Now,
		timeout:   opts.Timeout,
		offsets:   opts.ReminderOffsets,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.timeout <= 0 {
		s.timeout = DefaultOperationTimeout
	}
	if s.offsets == nil {
		s.offsets = DefaultReminderOffsets
	}
	if s.validator == nil {
		s.validator = NewValidator(catalog, nil, s.now)
	}
	return s
}

func (s *Scheduler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Create проверяет слот и вставляет запись в одной транзакции.
// Напоминания планируются после коммита; их ошибки только логируются.
func (s *Scheduler) Create(ctx context.Context, req BookingRequest) (*model.Appointment, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		appt  *model.Appointment
		salon *model.Salon
	)
	err := s.store.InTx(ctx, func(tx AppointmentTx) error {
		v, err := s.validator.ValidateTx(ctx, SlotRequest{
			SalonID:   req.SalonID,
			ServiceID: req.ServiceID,
			StaffID:   req.StaffID,
			Date:      req.Date,
			Time:      req.Time,
			Client:    req.Client,
		}, tx)
		if err != nil {
			return err
		}

		salon = v.Salon
		appt = newAppointment(req.SalonID, req.ServiceID, req.Client, v)
		if err := tx.Insert(ctx, appt, v.Day); err != nil {
			return storageError("insert appointment", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("create appointment", err,
			zap.String("salon_id", req.SalonID.String()),
			zap.String("service_id", req.ServiceID.String()),
			zap.String("date", req.Date.String()),
			zap.String("time", req.Time.String()),
		)
	}

	s.log.Info("appointment created",
		zap.String("appointment_id", appt.ID.String()),
		zap.String("resource", appt.ResourceKey),
		zap.Time("starts_at", appt.StartsAt),
		zap.String("status", string(appt.Status)),
	)

	s.scheduleReminders(ctx, appt, salon)
	return appt, nil
}

// Cancel отменяет запись. Окно отмены не действует для владельца салона.
func (s *Scheduler) Cancel(ctx context.Context, id uuid.UUID, actor Actor) (*model.Appointment, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var appt *model.Appointment
	err := s.store.InTx(ctx, func(tx AppointmentTx) error {
		a, err := s.loadForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !a.Status.CanTransitionTo(model.AppointmentStatusCancelled) {
			return newError(ErrInvalidTransition, "cannot cancel appointment in status %s", a.Status)
		}
		if err := s.checkCancellationWindow(ctx, tx.Catalog(), a, actor); err != nil {
			return err
		}
		if err := s.cancelInTx(ctx, tx, a, actor); err != nil {
			return err
		}
		appt = a
		return nil
	})
	if err != nil {
		return nil, s.fail("cancel appointment", err, zap.String("appointment_id", id.String()))
	}

	s.log.Info("appointment cancelled",
		zap.String("appointment_id", id.String()),
		zap.String("actor_role", string(actor.Role)),
	)

	s.cancelReminders(ctx, id)
	return appt, nil
}

// Reschedule — отмена и создание одной транзакцией. Если новый слот не прошёл
// проверку, исходная запись остаётся без изменений.
func (s *Scheduler) Reschedule(ctx context.Context, req RescheduleRequest) (*model.Appointment, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		oldID uuid.UUID
		appt  *model.Appointment
		salon *model.Salon
	)
	err := s.store.InTx(ctx, func(tx AppointmentTx) error {
		old, err := s.loadForUpdate(ctx, tx, req.AppointmentID)
		if err != nil {
			return err
		}
		if !old.Status.IsActive() {
			return newError(ErrInvalidTransition, "cannot reschedule appointment in status %s", old.Status)
		}
		if err := s.checkCancellationWindow(ctx, tx.Catalog(), old, req.Actor); err != nil {
			return err
		}

		staffID := req.StaffID
		if staffID == nil && !req.AnyStaff {
			staffID = old.StaffID
		}
		client := ClientContext{
			ClientID:   old.ClientID,
			GuestName:  old.GuestName,
			GuestEmail: old.GuestEmail,
			GuestPhone: old.GuestPhone,
		}

		exclude := old.ID
		v, err := s.validator.ValidateTx(ctx, SlotRequest{
			SalonID:   old.SalonID,
			ServiceID: old.ServiceID,
			StaffID:   staffID,
			Date:      req.Date,
			Time:      req.Time,
			Client:    client,
			Exclude:   &exclude,
		}, tx)
		if err != nil {
			return err
		}

		if err := s.cancelInTx(ctx, tx, old, req.Actor); err != nil {
			return err
		}

		next := newAppointment(old.SalonID, old.ServiceID, client, v)
		next.RescheduledFromID = &exclude
		if err := tx.Insert(ctx, next, v.Day); err != nil {
			return storageError("insert appointment", err)
		}

		oldID, appt, salon = old.ID, next, v.Salon
		return nil
	})
	if err != nil {
		return nil, s.fail("reschedule appointment", err, zap.String("appointment_id", req.AppointmentID.String()))
	}

	s.log.Info("appointment rescheduled",
		zap.String("from_id", oldID.String()),
		zap.String("appointment_id", appt.ID.String()),
		zap.Time("starts_at", appt.StartsAt),
	)

	s.cancelReminders(ctx, oldID)
	s.scheduleReminders(ctx, appt, salon)
	return appt, nil
}

// Confirm: scheduled → confirmed.
func (s *Scheduler) Confirm(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.transition(ctx, id, model.AppointmentStatusConfirmed, false)
}

// Complete: confirmed → completed, только после окончания записи.
func (s *Scheduler) Complete(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.transition(ctx, id, model.AppointmentStatusCompleted, true)
}

// MarkNoShow: scheduled|confirmed → no_show, только после окончания записи.
// На доступность не влияет: интервал уже в прошлом.
func (s *Scheduler) MarkNoShow(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.transition(ctx, id, model.AppointmentStatusNoShow, true)
}

func (s *Scheduler) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, storageError("get appointment", err)
	}
	if a == nil {
		return nil, newError(ErrAppointmentNotFound, "appointment %s", id)
	}
	return a, nil
}

func (s *Scheduler) transition(ctx context.Context, id uuid.UUID, to model.AppointmentStatus, requireEnded bool) (*model.Appointment, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var appt *model.Appointment
	err := s.store.InTx(ctx, func(tx AppointmentTx) error {
		a, err := s.loadForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !a.Status.CanTransitionTo(to) {
			return newError(ErrInvalidTransition, "%s -> %s", a.Status, to)
		}
		now := s.now()
		if requireEnded && now.Before(a.EndsAt) {
			return newError(ErrAppointmentNotFinished, "appointment ends at %s", a.EndsAt.Format(time.RFC3339))
		}

		ok, err := tx.UpdateStatus(ctx, a.ID, []model.AppointmentStatus{a.Status}, to, nil, now)
		if err != nil {
			return storageError("update status", err)
		}
		if !ok {
			return newError(ErrInvalidTransition, "appointment %s changed concurrently", a.ID)
		}
		a.Status = to
		appt = a
		return nil
	})
	if err != nil {
		return nil, s.fail("change appointment status", err,
			zap.String("appointment_id", id.String()),
			zap.String("to", string(to)),
		)
	}

	s.log.Info("appointment status changed",
		zap.String("appointment_id", id.String()),
		zap.String("status", string(to)),
	)
	return appt, nil
}

func (s *Scheduler) loadForUpdate(ctx context.Context, tx AppointmentTx, id uuid.UUID) (*model.Appointment, error) {
	a, err := tx.GetForUpdate(ctx, id)
	if err != nil {
		return nil, storageError("get appointment", err)
	}
	if a == nil {
		return nil, newError(ErrAppointmentNotFound, "appointment %s", id)
	}
	return a, nil
}

// checkCancellationWindow: до начала должно оставаться не меньше окна отмены.
// Нулевое окно означает, что политика не задана.
func (s *Scheduler) checkCancellationWindow(ctx context.Context, catalog Catalog, a *model.Appointment, actor Actor) error {
	salon, err := catalog.GetSalon(ctx, a.SalonID)
	if err != nil {
		return storageError("get salon", err)
	}
	if salon == nil {
		return newError(ErrSalonNotFound, "salon %s", a.SalonID)
	}
	if actor.IsOwnerOf(salon) {
		return nil
	}

	window := salon.CancellationWindow()
	if window <= 0 {
		return nil
	}
	if left := a.StartsAt.Sub(s.now()); left < window {
		return newError(ErrCancellationWindowExpired, "%s left before start, window is %s",
			left.Truncate(time.Minute), window)
	}
	return nil
}

func (s *Scheduler) cancelInTx(ctx context.Context, tx AppointmentTx, a *model.Appointment, actor Actor) error {
	now := s.now()
	var by *uuid.UUID
	if actor.UserID != uuid.Nil {
		id := actor.UserID
		by = &id
	}

	ok, err := tx.UpdateStatus(ctx, a.ID, model.ActiveStatuses, model.AppointmentStatusCancelled, by, now)
	if err != nil {
		return storageError("update status", err)
	}
	if !ok {
		return newError(ErrInvalidTransition, "appointment %s is no longer active", a.ID)
	}

	a.Status = model.AppointmentStatusCancelled
	a.CancelledAt = &now
	a.CancelledBy = by
	return nil
}

func newAppointment(salonID, serviceID uuid.UUID, client ClientContext, v *Validation) *model.Appointment {
	status := model.AppointmentStatusScheduled
	if v.Salon != nil && v.Salon.AutoConfirm {
		status = model.AppointmentStatusConfirmed
	}
	return &model.Appointment{
		ID:          uuid.New(),
		SalonID:     salonID,
		StaffID:     v.StaffID,
		ServiceID:   serviceID,
		ResourceKey: v.ResourceKey,
		ClientID:    client.ClientID,
		GuestName:   client.GuestName,
		GuestEmail:  client.GuestEmail,
		GuestPhone:  client.GuestPhone,
		StartsAt:    v.StartsAt.UTC(),
		EndsAt:      v.EndsAt.UTC(),
		Status:      status,
		Price:       v.Price,
		DurationMin: int(v.Duration / time.Minute),
	}
}

// notifyContext отвязывает вызовы Notifier от отмены запроса:
// запись уже закоммичена.
func (s *Scheduler) notifyContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
}

func (s *Scheduler) scheduleReminders(ctx context.Context, appt *model.Appointment, salon *model.Salon) {
	if s.notifier == nil || appt == nil {
		return
	}
	ctx, cancel := s.notifyContext(ctx)
	defer cancel()

	var loc *time.Location
	if salon != nil {
		loc = salon.Location()
	}
	payload := ReminderPayload{
		AppointmentID: appt.ID,
		SalonID:       appt.SalonID,
		ServiceID:     appt.ServiceID,
		StaffID:       appt.StaffID,
		ClientID:      appt.ClientID,
		GuestName:     appt.GuestName,
		GuestEmail:    appt.GuestEmail,
		GuestPhone:    appt.GuestPhone,
		StartsAt:      appt.StartsAt,
		Title:         "Напоминание о записи",
		Body:          calendar.FormatSlotForUser(calendar.TimeRange{Start: appt.StartsAt, End: appt.EndsAt}, loc),
	}

	now := s.now()
	for _, off := range s.offsets {
		fireAt := appt.StartsAt.Add(-off)
		if !fireAt.After(now) {
			continue
		}
		if err := s.notifier.ScheduleReminder(ctx, appt.ID, fireAt, payload); err != nil {
			s.log.Warn("schedule reminder failed",
				zap.String("appointment_id", appt.ID.String()),
				zap.Time("fire_at", fireAt),
				zap.Error(err),
			)
		}
	}
}

func (s *Scheduler) cancelReminders(ctx context.Context, id uuid.UUID) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := s.notifyContext(ctx)
	defer cancel()

	if err := s.notifier.CancelReminders(ctx, id); err != nil {
		s.log.Warn("cancel reminders failed",
			zap.String("appointment_id", id.String()),
			zap.Error(err),
		)
	}
}

// fail приводит ошибку к таксономии и логирует её. Конфликт и отказы по
// политике — штатный ответ, а не сбой сервера.
func (s *Scheduler) fail(op string, err error, fields ...zap.Field) error {
	err = storageError(op, err)
	fields = append(fields, zap.Error(err))

	switch KindOf(err) {
	case KindStorageUnavailable:
		s.log.Error(op+" failed", fields...)
	case "":
		s.log.Warn(op+" aborted", fields...)
	default:
		s.log.Info(op+" rejected", fields...)
	}
	return err
}
