package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Leganyst/salon-booking/internal/scheduling"
)

func TestBooking_ListSlotsReversedRangeIsEmpty(t *testing.T) {
	e := newEnv(t)

	page, err := e.booking.ListSlots(context.Background(), ListSlotsRequest{
		SalonID:   e.salon.ID,
		ServiceID: e.service.ID,
		From:      "2025-01-08",
		To:        "2025-01-06",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 0 || len(page.Items) != 0 || page.HasNext {
		t.Fatalf("expected empty page, got %+v", page)
	}
}

func TestBooking_HugePageNumbers(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	slots, err := e.booking.ListSlots(ctx, ListSlotsRequest{
		SalonID:   e.salon.ID,
		ServiceID: e.service.ID,
		From:      "2025-01-06",
		Page:      math.MaxInt/20 + 2,
		PageSize:  20,
	})
	if err != nil {
		t.Fatalf("ListSlots: %v", err)
	}
	if len(slots.Items) != 0 || slots.Total != 17 || slots.HasNext {
		t.Fatalf("unexpected slot page %+v", slots)
	}

	clientID := uuid.New()
	if _, err := e.booking.CreateAppointment(ctx, SlotRequestDTO{
		SalonID:   e.salon.ID,
		ServiceID: e.service.ID,
		StaffID:   &e.staff.ID,
		Date:      "2025-01-06",
		Time:      "10:00",
		Client:    ClientDTO{ClientID: &clientID},
	}); err != nil {
		t.Fatalf("CreateAppointment: %v", err)
	}

	history, err := e.booking.ListClientAppointments(ctx, ClientAppointmentsRequest{
		ClientID: clientID,
		From:     time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC),
		Page:     math.MaxInt,
		PageSize: 20,
	})
	if err != nil {
		t.Fatalf("ListClientAppointments: %v", err)
	}
	if len(history.Items) != 0 || history.Total != 1 || history.HasNext {
		t.Fatalf("unexpected history page %+v", history)
	}
}

// Пул из четырёх соединений меньше числа конкурентных запросов.
func TestBooking_ConcurrentCreatesExactlyOneWins(t *testing.T) {
	e := newEnv(t)

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		wins    int
		booked  int
		failure error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			_, err := e.booking.CreateAppointment(ctx, SlotRequestDTO{
				SalonID:   e.salon.ID,
				ServiceID: e.service.ID,
				StaffID:   &e.staff.ID,
				Date:      "2025-01-06",
				Time:      "14:00",
				Client:    ClientDTO{GuestName: "Guest"},
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

	if failure != nil {
		t.Fatalf("unexpected error: %v", failure)
	}
	if wins != 1 || booked != n-1 {
		t.Fatalf("wins=%d booked=%d, want 1/%d", wins, booked, n-1)
	}
}

func TestRecoveryInterceptor(t *testing.T) {
	intercept := RecoveryInterceptor(zap.NewNop())
	info := &grpc.UnaryServerInfo{FullMethod: "/booking.v1.BookingService/ListSlots"}

	_, err := intercept(context.Background(), nil, info, func(context.Context, any) (any, error) {
		panic("boom")
	})
	if status.Code(err) != codes.Internal {
		t.Fatalf("code = %s, want Internal (err=%v)", status.Code(err), err)
	}

	resp, err := intercept(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return "ok", nil
	})
	if err != nil || resp != "ok" {
		t.Fatalf("unexpected passthrough result %v / %v", resp, err)
	}
}
