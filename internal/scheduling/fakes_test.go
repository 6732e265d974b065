package scheduling

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Leganyst/salon-booking/internal/calendar"
	"github.com/Leganyst/salon-booking/internal/model"
)

var errBoom = errors.New("boom")

//
// Каталог
//

type pair [2]uuid.UUID

type fakeCatalog struct {
	mu sync.Mutex

	salons     map[uuid.UUID]*model.Salon
	salonHours map[uuid.UUID]map[time.Weekday]*model.SalonHours
	services   map[uuid.UUID]*model.Service
	salonLinks map[pair]*model.SalonService
	staff      map[uuid.UUID]*model.Staff
	staffOrder []uuid.UUID
	staffLinks map[pair]*model.StaffService
	staffHours map[uuid.UUID]map[time.Weekday]*model.StaffHours

	err error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		salons:     map[uuid.UUID]*model.Salon{},
		salonHours: map[uuid.UUID]map[time.Weekday]*model.SalonHours{},
		services:   map[uuid.UUID]*model.Service{},
		salonLinks: map[pair]*model.SalonService{},
		staff:      map[uuid.UUID]*model.Staff{},
		staffLinks: map[pair]*model.StaffService{},
		staffHours: map[uuid.UUID]map[time.Weekday]*model.StaffHours{},
	}
}

func (c *fakeCatalog) GetSalon(_ context.Context, id uuid.UUID) (*model.Salon, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return c.salons[id], nil
}

func (c *fakeCatalog) GetSalonHours(_ context.Context, id uuid.UUID, wd time.Weekday) (*model.SalonHours, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return c.salonHours[id][wd], nil
}

func (c *fakeCatalog) GetService(_ context.Context, id uuid.UUID) (*model.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return c.services[id], nil
}

func (c *fakeCatalog) GetSalonOverride(_ context.Context, salonID, serviceID uuid.UUID) (*model.SalonService, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return c.salonLinks[pair{salonID, serviceID}], nil
}

func (c *fakeCatalog) GetStaffOverride(_ context.Context, staffID, serviceID uuid.UUID) (*model.StaffService, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return c.staffLinks[pair{staffID, serviceID}], nil
}

func (c *fakeCatalog) GetStaff(_ context.Context, id uuid.UUID) (*model.Staff, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return c.staff[id], nil
}

func (c *fakeCatalog) ListQualifiedStaff(_ context.Context, salonID, serviceID uuid.UUID) ([]model.Staff, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	var out []model.Staff
	for _, id := range c.staffOrder {
		st := c.staff[id]
		if st.SalonID != salonID {
			continue
		}
		if _, ok := c.staffLinks[pair{id, serviceID}]; ok {
			out = append(out, *st)
		}
	}
	return out, nil
}

func (c *fakeCatalog) GetStaffWorkingHours(_ context.Context, id uuid.UUID, wd time.Weekday) (*model.StaffHours, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return c.staffHours[id][wd], nil
}

func (c *fakeCatalog) setSalonHours(salonID uuid.UUID, wd time.Weekday, open, close string) {
	o, _ := calendar.ParseClock(open)
	cl, _ := calendar.ParseClock(close)
	if c.salonHours[salonID] == nil {
		c.salonHours[salonID] = map[time.Weekday]*model.SalonHours{}
	}
	c.salonHours[salonID][wd] = &model.SalonHours{SalonID: salonID, Weekday: int(wd), OpenMin: int(o), CloseMin: int(cl)}
}

func (c *fakeCatalog) setStaffHours(staffID uuid.UUID, wd time.Weekday, start, end string, off bool) {
	s, _ := calendar.ParseClock(start)
	e, _ := calendar.ParseClock(end)
	if c.staffHours[staffID] == nil {
		c.staffHours[staffID] = map[time.Weekday]*model.StaffHours{}
	}
	c.staffHours[staffID][wd] = &model.StaffHours{StaffID: staffID, Weekday: int(wd), StartMin: int(s), EndMin: int(e), Off: off}
}

func (c *fakeCatalog) addStaff(salonID uuid.UUID, name string, services ...uuid.UUID) uuid.UUID {
	id := uuid.New()
	c.staff[id] = &model.Staff{ID: id, SalonID: salonID, DisplayName: name, CreatedAt: time.Now()}
	c.staffOrder = append(c.staffOrder, id)
	for _, svc := range services {
		c.staffLinks[pair{id, svc}] = &model.StaffService{StaffID: id, ServiceID: svc}
	}
	return id
}

//
// Хранилище записей
//

type fakeStore struct {
	mu      sync.Mutex
	appts   map[uuid.UUID]model.Appointment
	catalog Catalog

	listErr   error
	insertErr error
	inserts   int
	versions  map[string]int64
}

func newFakeStore(catalog Catalog) *fakeStore {
	return &fakeStore{appts: map[uuid.UUID]model.Appointment{}, versions: map[string]int64{}, catalog: catalog}
}

func listActive(appts map[uuid.UUID]model.Appointment, key string, window calendar.TimeRange) []model.Appointment {
	var out []model.Appointment
	for _, a := range appts {
		if a.ResourceKey != key || !a.Status.IsActive() {
			continue
		}
		if a.StartsAt.Before(window.End) && window.Start.Before(a.EndsAt) {
			out = append(out, a)
		}
	}
	return out
}

func (s *fakeStore) ListActive(_ context.Context, key string, _ calendar.Date, window calendar.TimeRange) ([]model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return listActive(s.appts, key, window), nil
}

func (s *fakeStore) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// InTx сериализует транзакции и применяет изменения только при успехе fn.
func (s *fakeStore) InTx(ctx context.Context, fn func(tx AppointmentTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	staged := make(map[uuid.UUID]model.Appointment, len(s.appts))
	for k, v := range s.appts {
		staged[k] = v
	}
	tx := &fakeTx{store: s, staged: staged}
	if err := fn(tx); err != nil {
		return err
	}

	s.appts = staged
	s.inserts += tx.inserts
	for _, k := range tx.bumped {
		s.versions[k]++
	}
	return nil
}

func (s *fakeStore) get(t *testing.T, id uuid.UUID) model.Appointment {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appts[id]
	if !ok {
		t.Fatalf("appointment %s not stored", id)
	}
	return a
}

func (s *fakeStore) put(a model.Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appts[a.ID] = a
}

func (s *fakeStore) countActive(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.appts {
		if a.ResourceKey == key && a.Status.IsActive() {
			n++
		}
	}
	return n
}

type fakeTx struct {
	store   *fakeStore
	staged  map[uuid.UUID]model.Appointment
	inserts int
	bumped  []string
}

func (tx *fakeTx) ListActive(_ context.Context, key string, _ calendar.Date, window calendar.TimeRange) ([]model.Appointment, error) {
	if tx.store.listErr != nil {
		return nil, tx.store.listErr
	}
	return listActive(tx.staged, key, window), nil
}

func (tx *fakeTx) Catalog() Catalog {
	return tx.store.catalog
}

func (tx *fakeTx) GetForUpdate(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	a, ok := tx.staged[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (tx *fakeTx) Insert(_ context.Context, a *model.Appointment, day calendar.Date) error {
	if tx.store.insertErr != nil {
		return tx.store.insertErr
	}
	tx.staged[a.ID] = *a
	tx.inserts++
	tx.bumped = append(tx.bumped, a.ResourceKey+"/"+day.String())
	return nil
}

func (tx *fakeTx) UpdateStatus(_ context.Context, id uuid.UUID, from []model.AppointmentStatus, to model.AppointmentStatus, actor *uuid.UUID, at time.Time) (bool, error) {
	a, ok := tx.staged[id]
	if !ok {
		return false, nil
	}
	allowed := false
	for _, st := range from {
		if a.Status == st {
			allowed = true
		}
	}
	if !allowed {
		return false, nil
	}
	a.Status = to
	if to == model.AppointmentStatusCancelled {
		a.CancelledAt = &at
		a.CancelledBy = actor
	}
	tx.staged[id] = a
	return true, nil
}

//
// Notifier
//

type scheduledReminder struct {
	AppointmentID uuid.UUID
	FireAt        time.Time
	Payload       ReminderPayload
}

type fakeNotifier struct {
	mu        sync.Mutex
	scheduled []scheduledReminder
	cancelled []uuid.UUID
	err       error
}

func (n *fakeNotifier) ScheduleReminder(_ context.Context, id uuid.UUID, fireAt time.Time, p ReminderPayload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.scheduled = append(n.scheduled, scheduledReminder{AppointmentID: id, FireAt: fireAt, Payload: p})
	return nil
}

func (n *fakeNotifier) CancelReminders(_ context.Context, id uuid.UUID) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.cancelled = append(n.cancelled, id)
	return nil
}

//
// Фикстура: салон 09:00–18:00 по будням, сетка 30 минут, услуга 60 минут, один мастер.
//

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type fixture struct {
	catalog  *fakeCatalog
	store    *fakeStore
	notifier *fakeNotifier
	clock    *fakeClock

	ownerID   uuid.UUID
	salonID   uuid.UUID
	serviceID uuid.UUID
	staffID   uuid.UUID

	resolver   *Resolver
	calculator *Calculator
	validator  *Validator
	scheduler  *Scheduler
}

// Понедельник.
var testDay = calendar.Date{Year: 2025, Month: time.January, Day: 6}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	catalog := newFakeCatalog()
	f := &fixture{
		catalog:  catalog,
		store:    newFakeStore(catalog),
		notifier: &fakeNotifier{},
		clock:    &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		ownerID:  uuid.New(),
	}

	salon := &model.Salon{
		ID:                 uuid.New(),
		OwnerID:            f.ownerID,
		Name:               "Salon",
		TimeZone:           "UTC",
		SlotGranularityMin: 30,
	}
	f.salonID = salon.ID
	f.catalog.salons[salon.ID] = salon
	for wd := time.Monday; wd <= time.Friday; wd++ {
		f.catalog.setSalonHours(salon.ID, wd, "09:00", "18:00")
	}

	svc := &model.Service{
		ID:            uuid.New(),
		Name:          "Haircut",
		DurationMin:   60,
		Price:         decimal.NewFromInt(50),
		RequiresStaff: true,
		IsActive:      true,
	}
	f.serviceID = svc.ID
	f.catalog.services[svc.ID] = svc
	f.catalog.salonLinks[pair{salon.ID, svc.ID}] = &model.SalonService{SalonID: salon.ID, ServiceID: svc.ID, Enabled: true}

	f.staffID = f.catalog.addStaff(salon.ID, "X", svc.ID)

	f.rebuild(Options{})
	return f
}

func (f *fixture) rebuild(opts Options) {
	f.resolver = NewResolver(f.catalog)
	f.calculator = NewCalculator(f.catalog, f.resolver, f.store, f.clock.Now)
	f.validator = NewValidator(f.catalog, f.resolver, f.clock.Now)
	opts.Now = f.clock.Now
	f.scheduler = NewScheduler(f.catalog, f.store, f.validator, f.notifier, opts)
}

func (f *fixture) salon() *model.Salon {
	return f.catalog.salons[f.salonID]
}

func (f *fixture) service() *model.Service {
	return f.catalog.services[f.serviceID]
}

// book кладёт существующую запись мастера напрямую в хранилище.
func (f *fixture) book(t *testing.T, staffID uuid.UUID, day calendar.Date, start, end string) model.Appointment {
	t.Helper()
	s := mustClock(t, start)
	e := mustClock(t, end)
	id := staffID
	a := model.Appointment{
		ID:          uuid.New(),
		SalonID:     f.salonID,
		StaffID:     &id,
		ServiceID:   f.serviceID,
		ResourceKey: model.StaffResourceKey(staffID),
		StartsAt:    day.At(s, time.UTC),
		EndsAt:      day.At(e, time.UTC),
		Status:      model.AppointmentStatusScheduled,
		Price:       decimal.NewFromInt(50),
		DurationMin: int(e - s),
	}
	f.store.put(a)
	return a
}

func (f *fixture) request(staffID *uuid.UUID, day calendar.Date, at calendar.Clock) BookingRequest {
	clientID := uuid.New()
	return BookingRequest{
		SalonID:   f.salonID,
		ServiceID: f.serviceID,
		StaffID:   staffID,
		Date:      day,
		Time:      at,
		Client:    ClientContext{ClientID: &clientID},
	}
}

func mustClock(t *testing.T, s string) calendar.Clock {
	t.Helper()
	c, err := calendar.ParseClock(s)
	if err != nil {
		t.Fatalf("parse clock %q: %v", s, err)
	}
	return c
}

func clocks(slots []Slot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Start.String())
	}
	return out
}

func ptr[T any](v T) *T { return &v }
