package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Leganyst/salon-booking/internal/calendar"
	"github.com/Leganyst/salon-booking/internal/model"
)

// SlotRequest — запрос на конкретный слот. StaffID == nil означает «любой мастер».
type SlotRequest struct {
	SalonID   uuid.UUID
	ServiceID uuid.UUID
	StaffID   *uuid.UUID
	Date      calendar.Date
	Time      calendar.Clock
	Client    ClientContext

	// Exclude — запись, которая не считается конфликтом (перенос).
	Exclude *uuid.UUID
}

// Validation — результат успешной проверки слота.
type Validation struct {
	Salon       *model.Salon
	StaffID     *uuid.UUID
	ResourceKey string
	Day         calendar.Date
	Price       decimal.Decimal
	Duration    time.Duration
	StartsAt    time.Time
	EndsAt      time.Time
}

// Validator повторно выводит интервал слота тем же способом, что и Calculator,
// но только для одного запрошенного времени. Ничего не пишет.
type Validator struct {
	planner
}

func NewValidator(catalog Catalog, resolver *Resolver, now NowFunc) *Validator {
	return &Validator{planner: newPlanner(catalog, resolver, now)}
}

// Validate проверяет слот вне транзакции. Конфликты читаются через reader.
func (v *Validator) Validate(ctx context.Context, req SlotRequest, reader AppointmentReader) (*Validation, error) {
	return v.planner.validate(ctx, req, reader)
}

// ValidateTx проверяет слот внутри транзакции: каталог и записи читаются
// через tx, второе соединение из пула не берётся.
func (v *Validator) ValidateTx(ctx context.Context, req SlotRequest, tx AppointmentTx) (*Validation, error) {
	return v.planner.bind(tx.Catalog()).validate(ctx, req, tx)
}

func (p planner) validate(ctx context.Context, req SlotRequest, reader AppointmentReader) (*Validation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b, err := p.prepare(ctx, req.SalonID, req.ServiceID, req.StaffID)
	if err != nil {
		return nil, err
	}

	salonWin, err := p.salonWindow(ctx, b.salon, req.Date)
	if err != nil {
		return nil, err
	}
	length := b.effective.DurationMinutes()
	if salonWin.Empty() {
		return nil, newError(ErrSalonClosed, "salon is closed on %s", req.Date)
	}
	if !salonWin.Contains(req.Time, length) {
		return nil, newError(ErrSalonClosed, "%s %s is outside operating hours %s-%s",
			req.Date, req.Time, salonWin.Start, salonWin.End)
	}

	loc := b.salon.Location()
	startsAt := req.Date.At(req.Time, loc)
	endsAt := startsAt.Add(b.effective.Duration)
	if startsAt.Before(p.now().Add(b.salon.LeadTime())) {
		return nil, newError(ErrOutsideLeadTime, "slot %s must be booked at least %s in advance",
			startsAt.Format(time.RFC3339), b.salon.LeadTime())
	}

	if len(b.resources) == 0 {
		return nil, newError(ErrStaffNotQualified, "no staff in salon %s can perform service %s", req.SalonID, req.ServiceID)
	}

	slot := calendar.TimeRange{Start: startsAt, End: endsAt}

	// Причина отказа для режима «любой»: самое «близкое» к успеху.
	var (
		chosen   *resource
		failure  error
		priority int
	)
	fail := func(err error, p int) {
		if p > priority || failure == nil {
			failure, priority = err, p
		}
	}

	for i := range b.resources {
		res := b.resources[i]

		win, err := p.resourceWindow(ctx, res, req.Date, salonWin)
		if err != nil {
			return nil, err
		}
		if win.Empty() || !win.Contains(req.Time, length) {
			fail(newError(ErrStaffUnavailable, "staff %s does not work at %s %s", staffKey(res.staffID), req.Date, req.Time), 1)
			continue
		}
		if !calendar.OnGrid(win, b.salon.Granularity(), req.Time) {
			fail(newError(ErrOffGrid, "%s is not on the %d minute grid", req.Time, b.salon.Granularity()), 2)
			continue
		}

		busy, err := reader.ListActive(ctx, res.key, req.Date, slot)
		if err != nil {
			return nil, storageError("list appointments", err)
		}
		if has, _ := calendar.HasOverlap(slot, toRanges(busy, req.Exclude)); has {
			fail(newError(ErrSlotAlreadyBooked, "slot %s %s is already booked", req.Date, req.Time), 3)
			continue
		}

		chosen = &res
		break
	}

	if chosen == nil {
		return nil, failure
	}

	out := &Validation{
		Salon:       b.salon,
		StaffID:     chosen.staffID,
		ResourceKey: chosen.key,
		Day:         req.Date,
		Price:       b.effective.Price,
		Duration:    b.effective.Duration,
		StartsAt:    startsAt,
		EndsAt:      endsAt,
	}

	if chosen.staffID != nil {
		eff, err := p.resolver.Resolve(ctx, req.SalonID, req.ServiceID, chosen.staffID)
		if err != nil {
			return nil, err
		}
		out.Price = eff.Price
	}

	return out, nil
}
