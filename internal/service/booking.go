package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/salon-booking/internal/calendar"
	"github.com/Leganyst/salon-booking/internal/model"
	"github.com/Leganyst/salon-booking/internal/scheduling"
)

// MaxSlotRangeDays ограничивает диапазон дат одного запроса слотов.
const MaxSlotRangeDays = 62

// ErrInvalidArgument возвращается, если поля запроса не прошли проверку формата.
var ErrInvalidArgument = errors.New("invalid argument")

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// ClientAppointments отдаёт историю записей клиента.
type ClientAppointments interface {
	ListByClient(ctx context.Context, clientID uuid.UUID, from, to time.Time, limit, offset int) ([]model.Appointment, int64, error)
}

// SalonServices отдаёт услуги, подключённые к салону.
type SalonServices interface {
	ListSalonServices(ctx context.Context, salonID uuid.UUID) ([]model.SalonService, error)
}

type BookingDeps struct {
	Calculator *scheduling.Calculator
	Validator  *scheduling.Validator
	Scheduler  *scheduling.Scheduler
	Resolver   *scheduling.Resolver
	// нетранзакционное чтение записей для ValidateSlot
	Reader   scheduling.AppointmentReader
	Clients  ClientAppointments
	Services SalonServices
}

// Booking — фасад ядра бронирования для транспортов (gRPC и HTTP).
// Разбирает и проверяет поля запроса, ядро получает только типизированные значения.
type Booking struct {
	calculator *scheduling.Calculator
	validator  *scheduling.Validator
	scheduler  *scheduling.Scheduler
	resolver   *scheduling.Resolver
	reader     scheduling.AppointmentReader
	clients    ClientAppointments
	services   SalonServices
}

func NewBooking(d BookingDeps) *Booking {
	return &Booking{
		calculator: d.Calculator,
		validator:  d.Validator,
		scheduler:  d.Scheduler,
		resolver:   d.Resolver,
		reader:     d.Reader,
		clients:    d.Clients,
		services:   d.Services,
	}
}

func (b *Booking) ListSlots(ctx context.Context, req ListSlotsRequest) (SlotPage, error) {
	if req.SalonID == uuid.Nil || req.ServiceID == uuid.Nil {
		return SlotPage{}, invalidArgument("salonId and serviceId are required")
	}
	from, err := parseDate("from", req.From)
	if err != nil {
		return SlotPage{}, err
	}
	to := from
	if req.To != "" {
		if to, err = parseDate("to", req.To); err != nil {
			return SlotPage{}, err
		}
	}
	// Обратный диапазон не ошибка: калькулятор вернёт пустую страницу.
	if from.AddDays(MaxSlotRangeDays).Before(to) {
		return SlotPage{}, invalidArgument("date range exceeds %d days", MaxSlotRangeDays)
	}

	slots, err := b.calculator.Collect(ctx, scheduling.SlotQuery{
		SalonID:   req.SalonID,
		ServiceID: req.ServiceID,
		StaffID:   req.StaffID,
		From:      from,
		To:        to,
	})
	if err != nil {
		return SlotPage{}, err
	}

	page := calendar.Paginate(slots, req.Page, req.PageSize)
	out := SlotPage{
		Items:    make([]SlotDTO, 0, len(page.Items)),
		Page:     page.Page,
		PageSize: page.PageSize,
		Total:    page.Total,
		HasNext:  page.HasNext,
		HasPrev:  page.HasPrev,
	}
	for _, s := range page.Items {
		out.Items = append(out.Items, toSlotDTO(s))
	}
	return out, nil
}

func (b *Booking) ValidateSlot(ctx context.Context, req SlotRequestDTO) (ValidationDTO, error) {
	sr, err := toSlotRequest(req)
	if err != nil {
		return ValidationDTO{}, err
	}

	v, err := b.validator.Validate(ctx, sr, b.reader)
	if err != nil {
		return ValidationDTO{}, err
	}
	return ValidationDTO{
		StaffID:     v.StaffID,
		Price:       v.Price,
		DurationMin: int(v.Duration / time.Minute),
		StartsAt:    v.StartsAt.UTC(),
		EndsAt:      v.EndsAt.UTC(),
	}, nil
}

func (b *Booking) CreateAppointment(ctx context.Context, req SlotRequestDTO) (AppointmentDTO, error) {
	sr, err := toSlotRequest(req)
	if err != nil {
		return AppointmentDTO{}, err
	}

	a, err := b.scheduler.Create(ctx, scheduling.BookingRequest{
		SalonID:   sr.SalonID,
		ServiceID: sr.ServiceID,
		StaffID:   sr.StaffID,
		Date:      sr.Date,
		Time:      sr.Time,
		Client:    sr.Client,
	})
	if err != nil {
		return AppointmentDTO{}, err
	}
	return toAppointmentDTO(a), nil
}

func (b *Booking) CancelAppointment(ctx context.Context, req AppointmentRequest) (AppointmentDTO, error) {
	if req.AppointmentID == uuid.Nil {
		return AppointmentDTO{}, invalidArgument("appointmentId is required")
	}
	actor, err := toActor(req.Actor)
	if err != nil {
		return AppointmentDTO{}, err
	}
	return b.appointment(b.scheduler.Cancel(ctx, req.AppointmentID, actor))
}

func (b *Booking) RescheduleAppointment(ctx context.Context, req RescheduleRequestDTO) (AppointmentDTO, error) {
	if req.AppointmentID == uuid.Nil {
		return AppointmentDTO{}, invalidArgument("appointmentId is required")
	}
	day, err := parseDate("date", req.Date)
	if err != nil {
		return AppointmentDTO{}, err
	}
	at, err := parseClock(req.Time)
	if err != nil {
		return AppointmentDTO{}, err
	}
	actor, err := toActor(req.Actor)
	if err != nil {
		return AppointmentDTO{}, err
	}
	if req.AnyStaff && req.StaffID != nil {
		return AppointmentDTO{}, invalidArgument("staffId and anyStaff are mutually exclusive")
	}

	return b.appointment(b.scheduler.Reschedule(ctx, scheduling.RescheduleRequest{
		AppointmentID: req.AppointmentID,
		Date:          day,
		Time:          at,
		StaffID:       req.StaffID,
		AnyStaff:      req.AnyStaff,
		Actor:         actor,
	}))
}

func (b *Booking) ConfirmAppointment(ctx context.Context, id uuid.UUID) (AppointmentDTO, error) {
	if id == uuid.Nil {
		return AppointmentDTO{}, invalidArgument("appointmentId is required")
	}
	return b.appointment(b.scheduler.Confirm(ctx, id))
}

func (b *Booking) CompleteAppointment(ctx context.Context, id uuid.UUID) (AppointmentDTO, error) {
	if id == uuid.Nil {
		return AppointmentDTO{}, invalidArgument("appointmentId is required")
	}
	return b.appointment(b.scheduler.Complete(ctx, id))
}

func (b *Booking) MarkNoShow(ctx context.Context, id uuid.UUID) (AppointmentDTO, error) {
	if id == uuid.Nil {
		return AppointmentDTO{}, invalidArgument("appointmentId is required")
	}
	return b.appointment(b.scheduler.MarkNoShow(ctx, id))
}

func (b *Booking) GetAppointment(ctx context.Context, id uuid.UUID) (AppointmentDTO, error) {
	if id == uuid.Nil {
		return AppointmentDTO{}, invalidArgument("appointmentId is required")
	}
	return b.appointment(b.scheduler.Get(ctx, id))
}

func (b *Booking) ResolveService(ctx context.Context, req ResolveServiceRequest) (EffectiveDTO, error) {
	if req.SalonID == uuid.Nil || req.ServiceID == uuid.Nil {
		return EffectiveDTO{}, invalidArgument("salonId and serviceId are required")
	}

	eff, err := b.resolver.Resolve(ctx, req.SalonID, req.ServiceID, req.StaffID)
	if err != nil {
		return EffectiveDTO{}, err
	}
	return EffectiveDTO{Price: eff.Price, DurationMin: eff.DurationMinutes()}, nil
}

func (b *Booking) ListClientAppointments(ctx context.Context, req ClientAppointmentsRequest) (AppointmentPage, error) {
	if req.ClientID == uuid.Nil {
		return AppointmentPage{}, invalidArgument("clientId is required")
	}
	if req.From.IsZero() || !req.To.After(req.From) {
		return AppointmentPage{}, invalidArgument("to must be after from")
	}

	page, size := req.Page, req.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = calendar.DefaultPageSize
	}
	if size > calendar.MaxPageSize {
		size = calendar.MaxPageSize
	}
	offset := calendar.Offset(page, size)

	items, total, err := b.clients.ListByClient(ctx, req.ClientID, req.From, req.To, size, offset)
	if err != nil {
		return AppointmentPage{}, fmt.Errorf("list client appointments: %w: %w", scheduling.ErrStorageUnavailable, err)
	}

	out := AppointmentPage{
		Items:    make([]AppointmentDTO, 0, len(items)),
		Page:     page,
		PageSize: size,
		Total:    int(total),
		HasNext:  int64(offset+len(items)) < total,
		HasPrev:  page > 1,
	}
	for i := range items {
		out.Items = append(out.Items, toAppointmentDTO(&items[i]))
	}
	return out, nil
}

func (b *Booking) ListSalonServices(ctx context.Context, salonID uuid.UUID) ([]SalonServiceDTO, error) {
	if salonID == uuid.Nil {
		return nil, invalidArgument("salonId is required")
	}

	links, err := b.services.ListSalonServices(ctx, salonID)
	if err != nil {
		return nil, fmt.Errorf("list salon services: %w: %w", scheduling.ErrStorageUnavailable, err)
	}

	out := make([]SalonServiceDTO, 0, len(links))
	for _, l := range links {
		out = append(out, toSalonServiceDTO(l))
	}
	return out, nil
}

func (b *Booking) appointment(a *model.Appointment, err error) (AppointmentDTO, error) {
	if err != nil {
		return AppointmentDTO{}, err
	}
	return toAppointmentDTO(a), nil
}

func toSlotRequest(req SlotRequestDTO) (scheduling.SlotRequest, error) {
	if req.SalonID == uuid.Nil || req.ServiceID == uuid.Nil {
		return scheduling.SlotRequest{}, invalidArgument("salonId and serviceId are required")
	}
	day, err := parseDate("date", req.Date)
	if err != nil {
		return scheduling.SlotRequest{}, err
	}
	at, err := parseClock(req.Time)
	if err != nil {
		return scheduling.SlotRequest{}, err
	}
	return scheduling.SlotRequest{
		SalonID:   req.SalonID,
		ServiceID: req.ServiceID,
		StaffID:   req.StaffID,
		Date:      day,
		Time:      at,
		Client:    req.Client.toContext(),
	}, nil
}

func toActor(a ActorDTO) (scheduling.Actor, error) {
	role := scheduling.ActorRole(a.Role)
	switch role {
	case "":
		role = scheduling.ActorClient
	case scheduling.ActorClient, scheduling.ActorOwner, scheduling.ActorStaff:
	default:
		return scheduling.Actor{}, invalidArgument("unknown actor role %q", a.Role)
	}
	return scheduling.Actor{UserID: a.UserID, Role: role}, nil
}

func parseDate(field, raw string) (calendar.Date, error) {
	if raw == "" {
		return calendar.Date{}, invalidArgument("%s is required", field)
	}
	d, err := calendar.ParseDate(raw)
	if err != nil {
		return calendar.Date{}, invalidArgument("%s must be YYYY-MM-DD", field)
	}
	return d, nil
}

func parseClock(raw string) (calendar.Clock, error) {
	if raw == "" {
		return 0, invalidArgument("time is required")
	}
	c, err := calendar.ParseClock(raw)
	if err != nil {
		return 0, invalidArgument("time must be HH:MM")
	}
	return c, nil
}
