package repository

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Leganyst/salon-booking/internal/calendar"
	"github.com/Leganyst/salon-booking/internal/model"
	"github.com/Leganyst/salon-booking/internal/scheduling"
)

func openTestDB(t *testing.T, dsn string, maxOpen int) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := model.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

// In-memory база живёт в одном соединении.
func newTestDB(t *testing.T) *gorm.DB {
	return openTestDB(t, ":memory:", 1)
}

type seed struct {
	salon   model.Salon
	service model.Service
	staff   []model.Staff
}

func seedCatalog(t *testing.T, db *gorm.DB) seed {
	t.Helper()

	s := seed{
		salon: model.Salon{
			OwnerID:            uuid.New(),
			Name:               "Salon",
			TimeZone:           "UTC",
			SlotGranularityMin: 30,
		},
		service: model.Service{
			Name:          "Haircut",
			DurationMin:   60,
			Price:         decimal.NewFromInt(50),
			RequiresStaff: true,
			IsActive:      true,
		},
	}
	if err := db.Create(&s.salon).Error; err != nil {
		t.Fatalf("create salon: %v", err)
	}
	if err := db.Create(&s.service).Error; err != nil {
		t.Fatalf("create service: %v", err)
	}
	hours := model.SalonHours{SalonID: s.salon.ID, Weekday: int(time.Monday), OpenMin: 9 * 60, CloseMin: 18 * 60}
	if err := db.Create(&hours).Error; err != nil {
		t.Fatalf("create hours: %v", err)
	}
	link := model.SalonService{SalonID: s.salon.ID, ServiceID: s.service.ID, Enabled: true,
		PriceOverride: decimal.NewNullDecimal(decimal.NewFromInt(45))}
	if err := db.Create(&link).Error; err != nil {
		t.Fatalf("create salon link: %v", err)
	}

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"B", "A", "C"} {
		st := model.Staff{SalonID: s.salon.ID, DisplayName: name, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := db.Create(&st).Error; err != nil {
			t.Fatalf("create staff: %v", err)
		}
		s.staff = append(s.staff, st)
	}
	// Третий мастер услугу не выполняет.
	for _, st := range s.staff[:2] {
		if err := db.Create(&model.StaffService{StaffID: st.ID, ServiceID: s.service.ID}).Error; err != nil {
			t.Fatalf("create qualification: %v", err)
		}
	}
	return s
}

func TestCatalog_LookupsAndNotFound(t *testing.T) {
	db := newTestDB(t)
	s := seedCatalog(t, db)
	repo := NewGormCatalogRepository(db)
	ctx := context.Background()

	salon, err := repo.GetSalon(ctx, s.salon.ID)
	if err != nil || salon == nil || salon.Name != "Salon" {
		t.Fatalf("GetSalon: %v / %+v", err, salon)
	}
	missing, err := repo.GetSalon(ctx, uuid.New())
	if err != nil || missing != nil {
		t.Fatalf("missing salon must be (nil, nil), got %+v / %v", missing, err)
	}

	h, err := repo.GetSalonHours(ctx, s.salon.ID, time.Monday)
	if err != nil || h == nil || h.OpenMin != 540 {
		t.Fatalf("GetSalonHours: %v / %+v", err, h)
	}
	if h, err := repo.GetSalonHours(ctx, s.salon.ID, time.Sunday); err != nil || h != nil {
		t.Fatalf("sunday must be absent, got %+v / %v", h, err)
	}

	link, err := repo.GetSalonOverride(ctx, s.salon.ID, s.service.ID)
	if err != nil || link == nil || !link.Enabled || !link.PriceOverride.Decimal.Equal(decimal.NewFromInt(45)) {
		t.Fatalf("GetSalonOverride: %v / %+v", err, link)
	}

	so, err := repo.GetStaffOverride(ctx, s.staff[2].ID, s.service.ID)
	if err != nil || so != nil {
		t.Fatalf("unqualified staff must have no row, got %+v / %v", so, err)
	}

	if wh, err := repo.GetStaffWorkingHours(ctx, s.staff[0].ID, time.Monday); err != nil || wh != nil {
		t.Fatalf("no staff hours expected, got %+v / %v", wh, err)
	}
}

func TestCatalog_ListQualifiedStaffInCreationOrder(t *testing.T) {
	db := newTestDB(t)
	s := seedCatalog(t, db)
	repo := NewGormCatalogRepository(db)

	staff, err := repo.ListQualifiedStaff(context.Background(), s.salon.ID, s.service.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(staff) != 2 {
		t.Fatalf("expected 2 qualified staff, got %d", len(staff))
	}
	if staff[0].ID != s.staff[0].ID || staff[1].ID != s.staff[1].ID {
		t.Fatalf("unexpected order: %s, %s", staff[0].DisplayName, staff[1].DisplayName)
	}
}

func newAppointment(s seed, staff model.Staff, startsAt time.Time) *model.Appointment {
	id := staff.ID
	return &model.Appointment{
		SalonID:     s.salon.ID,
		StaffID:     &id,
		ServiceID:   s.service.ID,
		ResourceKey: model.StaffResourceKey(staff.ID),
		GuestName:   "Guest",
		StartsAt:    startsAt,
		EndsAt:      startsAt.Add(time.Hour),
		Status:      model.AppointmentStatusScheduled,
		Price:       decimal.NewFromInt(45),
		DurationMin: 60,
	}
}

var monday = calendar.Date{Year: 2025, Month: time.January, Day: 6}

func TestAppointments_InsertListAndVersion(t *testing.T) {
	db := newTestDB(t)
	s := seedCatalog(t, db)
	repo := NewGormAppointmentRepository(db)
	ctx := context.Background()
	at := monday.At(10*60, time.UTC)

	appt := newAppointment(s, s.staff[0], at)
	err := repo.InTx(ctx, func(tx scheduling.AppointmentTx) error {
		busy, err := tx.ListActive(ctx, appt.ResourceKey, monday, calendar.TimeRange{Start: at, End: at.Add(time.Hour)})
		if err != nil {
			return err
		}
		if len(busy) != 0 {
			t.Fatalf("expected empty day, got %d", len(busy))
		}
		return tx.Insert(ctx, appt, monday)
	})
	if err != nil {
		t.Fatalf("InTx: %v", err)
	}

	var lock model.ScheduleLock
	if err := db.Where("resource_key = ?", appt.ResourceKey).First(&lock).Error; err != nil {
		t.Fatalf("lock row: %v", err)
	}
	if lock.Version != 1 {
		t.Fatalf("version = %d, want 1", lock.Version)
	}

	// Касание концами — не пересечение.
	touching, err := repo.ListActive(ctx, appt.ResourceKey, monday, calendar.TimeRange{Start: at.Add(time.Hour), End: at.Add(2 * time.Hour)})
	if err != nil || len(touching) != 0 {
		t.Fatalf("touching window: %v / %d", err, len(touching))
	}
	overlapping, err := repo.ListActive(ctx, appt.ResourceKey, monday, calendar.TimeRange{Start: at.Add(30 * time.Minute), End: at.Add(90 * time.Minute)})
	if err != nil || len(overlapping) != 1 {
		t.Fatalf("overlapping window: %v / %d", err, len(overlapping))
	}

	got, err := repo.Get(ctx, appt.ID)
	if err != nil || got == nil || !got.Price.Equal(decimal.NewFromInt(45)) || !got.StartsAt.Equal(at) {
		t.Fatalf("Get: %v / %+v", err, got)
	}
	if none, err := repo.Get(ctx, uuid.New()); err != nil || none != nil {
		t.Fatalf("missing appointment must be (nil, nil), got %+v / %v", none, err)
	}
}

func TestAppointments_RollbackOnError(t *testing.T) {
	db := newTestDB(t)
	s := seedCatalog(t, db)
	repo := NewGormAppointmentRepository(db)
	ctx := context.Background()

	appt := newAppointment(s, s.staff[0], monday.At(12*60, time.UTC))
	boom := errors.New("boom")
	err := repo.InTx(ctx, func(tx scheduling.AppointmentTx) error {
		if err := tx.Insert(ctx, appt, monday); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if got, err := repo.Get(ctx, appt.ID); err != nil || got != nil {
		t.Fatalf("insert must be rolled back, got %+v / %v", got, err)
	}
}

func TestAppointments_UpdateStatusGuardsFrom(t *testing.T) {
	db := newTestDB(t)
	s := seedCatalog(t, db)
	repo := NewGormAppointmentRepository(db)
	ctx := context.Background()

	appt := newAppointment(s, s.staff[0], monday.At(14*60, time.UTC))
	if err := repo.InTx(ctx, func(tx scheduling.AppointmentTx) error { return tx.Insert(ctx, appt, monday) }); err != nil {
		t.Fatalf("insert: %v", err)
	}

	actor := uuid.New()
	now := time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)
	var updated, again bool
	err := repo.InTx(ctx, func(tx scheduling.AppointmentTx) error {
		locked, err := tx.GetForUpdate(ctx, appt.ID)
		if err != nil || locked == nil {
			t.Fatalf("GetForUpdate: %v / %+v", err, locked)
		}
		if updated, err = tx.UpdateStatus(ctx, appt.ID, model.ActiveStatuses, model.AppointmentStatusCancelled, &actor, now); err != nil {
			return err
		}
		again, err = tx.UpdateStatus(ctx, appt.ID, model.ActiveStatuses, model.AppointmentStatusCancelled, &actor, now)
		return err
	})
	if err != nil {
		t.Fatalf("InTx: %v", err)
	}
	if !updated || again {
		t.Fatalf("updated=%v again=%v, want true/false", updated, again)
	}

	got, _ := repo.Get(ctx, appt.ID)
	if got.Status != model.AppointmentStatusCancelled || got.CancelledBy == nil || *got.CancelledBy != actor || got.CancelledAt == nil {
		t.Fatalf("unexpected cancelled row %+v", got)
	}

	active, err := repo.ListActive(ctx, appt.ResourceKey, monday, calendar.TimeRange{Start: appt.StartsAt, End: appt.EndsAt})
	if err != nil || len(active) != 0 {
		t.Fatalf("cancelled appointment must not be active: %v / %d", err, len(active))
	}
}

// Файловая база: несколько соединений и BEGIN IMMEDIATE, как в проде на sqlite.
func TestAppointments_ConcurrentCheckAndInsert(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "booking.db") + "?_busy_timeout=10000&_txlock=immediate&_journal_mode=WAL"
	db := openTestDB(t, dsn, 8)
	s := seedCatalog(t, db)
	repo := NewGormAppointmentRepository(db)
	at := monday.At(14*60, time.UTC)
	window := calendar.TimeRange{Start: at, End: at.Add(time.Hour)}

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		wins    int
		losses  int
		failure error
	)
	errTaken := errors.New("taken")
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := context.Background()
			err := repo.InTx(ctx, func(tx scheduling.AppointmentTx) error {
				busy, err := tx.ListActive(ctx, model.StaffResourceKey(s.staff[0].ID), monday, window)
				if err != nil {
					return err
				}
				if len(busy) > 0 {
					return errTaken
				}
				return tx.Insert(ctx, newAppointment(s, s.staff[0], at), monday)
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, errTaken):
				losses++
			default:
				failure = err
			}
		}()
	}
	wg.Wait()

	if failure != nil {
		t.Fatalf("unexpected error: %v", failure)
	}
	if wins != 1 || losses != n-1 {
		t.Fatalf("wins=%d losses=%d", wins, losses)
	}

	var count int64
	db.Model(&model.Appointment{}).Where("resource_key = ?", model.StaffResourceKey(s.staff[0].ID)).Count(&count)
	if count != 1 {
		t.Fatalf("stored appointments = %d, want 1", count)
	}
}

func TestAppointments_ListByClient(t *testing.T) {
	db := newTestDB(t)
	s := seedCatalog(t, db)
	repo := NewGormAppointmentRepository(db)
	ctx := context.Background()

	clientID := uuid.New()
	for i := 0; i < 3; i++ {
		a := newAppointment(s, s.staff[0], monday.At(calendar.Clock(9*60+i*60), time.UTC))
		a.ClientID = &clientID
		if err := repo.InTx(ctx, func(tx scheduling.AppointmentTx) error { return tx.Insert(ctx, a, monday) }); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	items, total, err := repo.ListByClient(ctx, clientID, monday.At(0, time.UTC), monday.AddDays(1).At(0, time.UTC), 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 3 || len(items) != 2 || !items[0].StartsAt.Before(items[1].StartsAt) {
		t.Fatalf("total=%d len=%d", total, len(items))
	}
}

func TestScheduler_OverGormStores(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "booking.db") + "?_busy_timeout=10000&_txlock=immediate&_journal_mode=WAL"
	db := openTestDB(t, dsn, 4)
	s := seedCatalog(t, db)

	catalog := NewGormCatalogRepository(db)
	store := NewGormAppointmentRepository(db)
	now := func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	resolver := scheduling.NewResolver(catalog)
	sched := scheduling.NewScheduler(catalog, store, scheduling.NewValidator(catalog, resolver, now), nil, scheduling.Options{Now: now})
	calc := scheduling.NewCalculator(catalog, resolver, store, now)
	ctx := context.Background()

	appt, err := sched.Create(ctx, scheduling.BookingRequest{
		SalonID:   s.salon.ID,
		ServiceID: s.service.ID,
		Date:      monday,
		Time:      10 * 60,
		Client:    scheduling.ClientContext{GuestName: "Guest"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if appt.StaffID == nil || *appt.StaffID != s.staff[0].ID {
		t.Fatalf("expected first qualified staff")
	}
	if !appt.Price.Equal(decimal.NewFromInt(45)) {
		t.Fatalf("price = %s, want salon override 45", appt.Price)
	}

	staffID := s.staff[0].ID
	_, err = sched.Create(ctx, scheduling.BookingRequest{
		SalonID:   s.salon.ID,
		ServiceID: s.service.ID,
		StaffID:   &staffID,
		Date:      monday,
		Time:      10*60 + 30,
	})
	if !errors.Is(err, scheduling.ErrSlotAlreadyBooked) {
		t.Fatalf("expected ErrSlotAlreadyBooked, got %v", err)
	}

	slots, err := calc.Collect(ctx, scheduling.SlotQuery{SalonID: s.salon.ID, ServiceID: s.service.ID, StaffID: &staffID, From: monday, To: monday})
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	for _, sl := range slots {
		if sl.Start == 10*60 || sl.Start == 9*60+30 || sl.Start == 10*60+30 {
			t.Fatalf("slot %s overlaps the booking", sl.Start)
		}
	}

	if _, err := sched.Cancel(ctx, appt.ID, scheduling.Actor{Role: scheduling.ActorClient}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	after, err := calc.Collect(ctx, scheduling.SlotQuery{SalonID: s.salon.ID, ServiceID: s.service.ID, StaffID: &staffID, From: monday, To: monday})
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	if len(after) != 17 {
		t.Fatalf("slots after cancel = %d, want 17", len(after))
	}
}

// Транзакция не должна брать второе соединение из пула: при пуле меньше числа
// конкурентных запросов бронирования иначе висят до таймаута.
func TestScheduler_ConcurrentCreatesWithBoundedPool(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "booking.db") + "?_busy_timeout=10000&_txlock=immediate&_journal_mode=WAL"
	db := openTestDB(t, dsn, 2)
	s := seedCatalog(t, db)

	catalog := NewGormCatalogRepository(db)
	store := NewGormAppointmentRepository(db)
	now := func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	sched := scheduling.NewScheduler(catalog, store, scheduling.NewValidator(catalog, nil, now), nil,
		scheduling.Options{Now: now, Timeout: 20 * time.Second})

	run := func(n int, staffID *uuid.UUID, at calendar.Clock) (wins, booked int, failure error) {
		var (
			wg sync.WaitGroup
			mu sync.Mutex
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := sched.Create(context.Background(), scheduling.BookingRequest{
					SalonID:   s.salon.ID,
					ServiceID: s.service.ID,
					StaffID:   staffID,
					Date:      monday,
					Time:      at,
					Client:    scheduling.ClientContext{GuestName: "Guest"},
				})

				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					wins++
				case errors.Is(err, scheduling.ErrSlotAlreadyBooked):
					booked++
				default:
					failure = err
				}
			}()
		}
		wg.Wait()
		return wins, booked, failure
	}

	staffID := s.staff[0].ID
	wins, booked, failure := run(8, &staffID, 14*60)
	if failure != nil {
		t.Fatalf("specific staff: unexpected error: %v", failure)
	}
	if wins != 1 || booked != 7 {
		t.Fatalf("specific staff: wins=%d booked=%d, want 1/7", wins, booked)
	}

	// Два квалифицированных мастера: ровно две записи на одно время.
	wins, booked, failure = run(12, nil, 16*60)
	if failure != nil {
		t.Fatalf("any staff: unexpected error: %v", failure)
	}
	if wins != 2 || booked != 10 {
		t.Fatalf("any staff: wins=%d booked=%d, want 2/10", wins, booked)
	}
}
