package scheduling

import (
	"context"
	"iter"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/salon-booking/internal/calendar"
	"github.com/Leganyst/salon-booking/internal/model"
)

// SlotQuery — запрос свободных слотов. StaffID == nil означает «любой мастер».
type SlotQuery struct {
	SalonID   uuid.UUID
	ServiceID uuid.UUID
	StaffID   *uuid.UUID
	From      calendar.Date
	To        calendar.Date
}

// Slot — свободный слот. StaffID == nil для услуг без мастера.
type Slot struct {
	Date     calendar.Date
	Start    calendar.Clock
	StaffID  *uuid.UUID
	StartsAt time.Time
	EndsAt   time.Time
}

// Calculator вычисляет свободные слоты по часам работы, сетке салона,
// существующим записям и минимальному времени до начала.
type Calculator struct {
	planner
	appointments AppointmentReader
}

func NewCalculator(catalog Catalog, resolver *Resolver, appointments AppointmentReader, now NowFunc) *Calculator {
	return &Calculator{
		planner:      newPlanner(catalog, resolver, now),
		appointments: appointments,
	}
}

// Slots возвращает ленивую последовательность слотов в диапазоне [From, To].
// Каждый проход перечитывает данные заново. Ошибка выдаётся последним элементом.
func (c *Calculator) Slots(ctx context.Context, q SlotQuery) iter.Seq2[Slot, error] {
	return func(yield func(Slot, error) bool) {
		if q.From.After(q.To) {
			return
		}

		b, err := c.prepare(ctx, q.SalonID, q.ServiceID, q.StaffID)
		if err != nil {
			yield(Slot{}, err)
			return
		}
		if len(b.resources) == 0 {
			return
		}

		earliest := c.now().Add(b.salon.LeadTime())

		for day := q.From; !day.After(q.To); day = day.AddDays(1) {
			if err := ctx.Err(); err != nil {
				yield(Slot{}, err)
				return
			}

			slots, err := c.daySlots(ctx, b, day, earliest)
			if err != nil {
				yield(Slot{}, err)
				return
			}
			for _, s := range slots {
				if !yield(s, nil) {
					return
				}
			}
		}
	}
}

// Collect собирает все слоты запроса в срез.
func (c *Calculator) Collect(ctx context.Context, q SlotQuery) ([]Slot, error) {
	out := []Slot{}
	for s, err := range c.Slots(ctx, q) {
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (c *Calculator) daySlots(ctx context.Context, b *booking, day calendar.Date, earliest time.Time) ([]Slot, error) {
	salonWin, err := c.salonWindow(ctx, b.salon, day)
	if err != nil {
		return nil, err
	}
	if salonWin.Empty() {
		return nil, nil
	}

	loc := b.salon.Location()
	length := b.effective.DurationMinutes()
	var out []Slot

	for _, res := range b.resources {
		win, err := c.resourceWindow(ctx, res, day, salonWin)
		if err != nil {
			return nil, err
		}
		if win.Empty() {
			continue
		}

		starts, err := calendar.GridStarts(win, b.salon.Granularity(), length)
		if err != nil {
			return nil, err
		}
		if len(starts) == 0 {
			continue
		}

		dayRange := calendar.TimeRange{Start: day.At(win.Start, loc), End: day.At(win.End, loc)}
		busy, err := c.appointments.ListActive(ctx, res.key, day, dayRange)
		if err != nil {
			return nil, storageError("list appointments", err)
		}
		busyRanges := toRanges(busy, nil)

		for _, t := range starts {
			startsAt := day.At(t, loc)
			if startsAt.Before(earliest) {
				continue
			}
			tr := calendar.TimeRange{Start: startsAt, End: startsAt.Add(b.effective.Duration)}
			if has, _ := calendar.HasOverlap(tr, busyRanges); has {
				continue
			}
			out = append(out, Slot{
				Date:     day,
				Start:    t,
				StaffID:  res.staffID,
				StartsAt: tr.Start,
				EndsAt:   tr.End,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return staffKey(out[i].StaffID) < staffKey(out[j].StaffID)
	})
	return out, nil
}

// ===== общая часть для Calculator и Validator =====

// resource — кандидат на слот: мастер или виртуальный ресурс салона.
type resource struct {
	staffID *uuid.UUID
	key     string
}

// booking — данные, не зависящие от дня: салон, услуга, цена и кандидаты.
type booking struct {
	salon     *model.Salon
	service   *model.Service
	effective Effective
	resources []resource
}

type planner struct {
	catalog  Catalog
	resolver *Resolver
	now      NowFunc
}

func newPlanner(catalog Catalog, resolver *Resolver, now NowFunc) planner {
	if resolver == nil {
		resolver = NewResolver(catalog)
	}
	if now == nil {
		now = time.Now
	}
	return planner{catalog: catalog, resolver: resolver, now: now}
}

// bind возвращает planner, читающий каталог через catalog.
func (p planner) bind(catalog Catalog) planner {
	return newPlanner(catalog, nil, p.now)
}

func (p planner) loadSalon(ctx context.Context, salonID uuid.UUID) (*model.Salon, error) {
	salon, err := p.catalog.GetSalon(ctx, salonID)
	if err != nil {
		return nil, storageError("get salon", err)
	}
	if salon == nil || salon.Disabled {
		return nil, newError(ErrSalonNotFound, "salon %s", salonID)
	}
	return salon, nil
}

// prepare разрешает салон, услугу и список кандидатов.
// Цена в effective не учитывает переопределение мастера.
func (p planner) prepare(ctx context.Context, salonID, serviceID uuid.UUID, staffID *uuid.UUID) (*booking, error) {
	salon, err := p.loadSalon(ctx, salonID)
	if err != nil {
		return nil, err
	}

	eff, err := p.resolver.Resolve(ctx, salonID, serviceID, nil)
	if err != nil {
		return nil, err
	}
	svc, err := p.catalog.GetService(ctx, serviceID)
	if err != nil {
		return nil, storageError("get service", err)
	}
	if svc == nil {
		return nil, newError(ErrServiceNotFound, "service %s", serviceID)
	}

	b := &booking{salon: salon, service: svc, effective: eff}

	// Услуга без мастера занимает виртуальный ресурс салона.
	if !svc.RequiresStaff {
		b.resources = []resource{{key: model.SalonResourceKey(salon.ID)}}
		return b, nil
	}

	if staffID != nil {
		if err := p.checkStaff(ctx, salon.ID, serviceID, *staffID); err != nil {
			return nil, err
		}
		id := *staffID
		b.resources = []resource{{staffID: &id, key: model.StaffResourceKey(id)}}
		return b, nil
	}

	staff, err := p.catalog.ListQualifiedStaff(ctx, salon.ID, serviceID)
	if err != nil {
		return nil, storageError("list qualified staff", err)
	}
	for i := range staff {
		id := staff[i].ID
		b.resources = append(b.resources, resource{staffID: &id, key: model.StaffResourceKey(id)})
	}
	return b, nil
}

// checkStaff проверяет, что мастер существует, работает в салоне и умеет услугу.
func (p planner) checkStaff(ctx context.Context, salonID, serviceID, staffID uuid.UUID) error {
	st, err := p.catalog.GetStaff(ctx, staffID)
	if err != nil {
		return storageError("get staff", err)
	}
	if st == nil || st.SalonID != salonID {
		return newError(ErrStaffNotFound, "staff %s in salon %s", staffID, salonID)
	}

	// Строка staff_services и есть квалификация.
	link, err := p.catalog.GetStaffOverride(ctx, staffID, serviceID)
	if err != nil {
		return storageError("get staff qualification", err)
	}
	if link == nil {
		return newError(ErrStaffNotQualified, "staff %s cannot perform service %s", staffID, serviceID)
	}
	return nil
}

// salonWindow возвращает часы работы салона в день day или пустой интервал, если закрыт.
func (p planner) salonWindow(ctx context.Context, salon *model.Salon, day calendar.Date) (calendar.ClockRange, error) {
	h, err := p.catalog.GetSalonHours(ctx, salon.ID, day.Weekday())
	if err != nil {
		return calendar.ClockRange{}, storageError("get salon hours", err)
	}
	if h == nil || h.Closed {
		return calendar.ClockRange{}, nil
	}
	return calendar.ClockRange{Start: calendar.Clock(h.OpenMin), End: calendar.Clock(h.CloseMin)}, nil
}

// resourceWindow пересекает часы салона с часами мастера.
func (p planner) resourceWindow(ctx context.Context, res resource, day calendar.Date, salonWin calendar.ClockRange) (calendar.ClockRange, error) {
	if res.staffID == nil {
		return salonWin, nil
	}
	h, err := p.catalog.GetStaffWorkingHours(ctx, *res.staffID, day.Weekday())
	if err != nil {
		return calendar.ClockRange{}, storageError("get staff hours", err)
	}
	if h == nil {
		return salonWin, nil
	}
	if h.Off {
		return calendar.ClockRange{}, nil
	}
	return salonWin.Intersect(calendar.ClockRange{Start: calendar.Clock(h.StartMin), End: calendar.Clock(h.EndMin)}), nil
}

// toRanges переводит записи в интервалы, пропуская exclude.
func toRanges(appts []model.Appointment, exclude *uuid.UUID) []calendar.TimeRange {
	out := make([]calendar.TimeRange, 0, len(appts))
	for _, a := range appts {
		if exclude != nil && a.ID == *exclude {
			continue
		}
		if !a.Status.IsActive() {
			continue
		}
		out = append(out, calendar.TimeRange{Start: a.StartsAt, End: a.EndsAt})
	}
	return out
}

func staffKey(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
