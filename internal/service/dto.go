package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Leganyst/salon-booking/internal/model"
	"github.com/Leganyst/salon-booking/internal/scheduling"
)

// Транспортные DTO. Даты в формате "YYYY-MM-DD", время "HH:MM" по местному времени салона.

type ClientDTO struct {
	ClientID   *uuid.UUID `json:"clientId,omitempty"`
	GuestName  string     `json:"guestName,omitempty"`
	GuestEmail string     `json:"guestEmail,omitempty"`
	GuestPhone string     `json:"guestPhone,omitempty"`
}

type ActorDTO struct {
	UserID uuid.UUID `json:"userId"`
	Role   string    `json:"role"`
}

type ListSlotsRequest struct {
	SalonID   uuid.UUID  `json:"salonId"`
	ServiceID uuid.UUID  `json:"serviceId"`
	StaffID   *uuid.UUID `json:"staffId,omitempty"`
	From      string     `json:"from"`
	To        string     `json:"to"`
	Page      int        `json:"page"`
	PageSize  int        `json:"pageSize"`
}

type SlotDTO struct {
	Date     string     `json:"date"`
	Time     string     `json:"time"`
	StaffID  *uuid.UUID `json:"staffId,omitempty"`
	StartsAt time.Time  `json:"startsAt"`
	EndsAt   time.Time  `json:"endsAt"`
}

type SlotPage struct {
	Items    []SlotDTO `json:"items"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
	Total    int       `json:"total"`
	HasNext  bool      `json:"hasNext"`
	HasPrev  bool      `json:"hasPrev"`
}

// SlotRequestDTO — запрос на проверку или бронирование одного слота.
type SlotRequestDTO struct {
	SalonID   uuid.UUID  `json:"salonId"`
	ServiceID uuid.UUID  `json:"serviceId"`
	StaffID   *uuid.UUID `json:"staffId,omitempty"`
	Date      string     `json:"date"`
	Time      string     `json:"time"`
	Client    ClientDTO  `json:"client"`
}

type ValidationDTO struct {
	StaffID     *uuid.UUID      `json:"staffId,omitempty"`
	Price       decimal.Decimal `json:"price"`
	DurationMin int             `json:"durationMin"`
	StartsAt    time.Time       `json:"startsAt"`
	EndsAt      time.Time       `json:"endsAt"`
}

type AppointmentRequest struct {
	AppointmentID uuid.UUID `json:"appointmentId"`
	Actor         ActorDTO  `json:"actor"`
}

type RescheduleRequestDTO struct {
	AppointmentID uuid.UUID  `json:"appointmentId"`
	Date          string     `json:"date"`
	Time          string     `json:"time"`
	StaffID       *uuid.UUID `json:"staffId,omitempty"`
	AnyStaff      bool       `json:"anyStaff"`
	Actor         ActorDTO   `json:"actor"`
}

type ResolveServiceRequest struct {
	SalonID   uuid.UUID  `json:"salonId"`
	ServiceID uuid.UUID  `json:"serviceId"`
	StaffID   *uuid.UUID `json:"staffId,omitempty"`
}

type EffectiveDTO struct {
	Price       decimal.Decimal `json:"price"`
	DurationMin int             `json:"durationMin"`
}

type ClientAppointmentsRequest struct {
	ClientID uuid.UUID `json:"clientId"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
}

type AppointmentPage struct {
	Items    []AppointmentDTO `json:"items"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
	Total    int              `json:"total"`
	HasNext  bool             `json:"hasNext"`
	HasPrev  bool             `json:"hasPrev"`
}

type AppointmentDTO struct {
	ID                uuid.UUID       `json:"id"`
	SalonID           uuid.UUID       `json:"salonId"`
	ServiceID         uuid.UUID       `json:"serviceId"`
	StaffID           *uuid.UUID      `json:"staffId,omitempty"`
	Client            ClientDTO       `json:"client"`
	StartsAt          time.Time       `json:"startsAt"`
	EndsAt            time.Time       `json:"endsAt"`
	Status            string          `json:"status"`
	Price             decimal.Decimal `json:"price"`
	DurationMin       int             `json:"durationMin"`
	RescheduledFromID *uuid.UUID      `json:"rescheduledFromId,omitempty"`
	CancelledAt       *time.Time      `json:"cancelledAt,omitempty"`
	CancelledBy       *uuid.UUID      `json:"cancelledBy,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
}

type SalonServiceDTO struct {
	ServiceID     uuid.UUID       `json:"serviceId"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	DurationMin   int             `json:"durationMin"`
	RequiresStaff bool            `json:"requiresStaff"`
	Enabled       bool            `json:"enabled"`
}

func (c ClientDTO) toContext() scheduling.ClientContext {
	return scheduling.ClientContext{
		ClientID:   c.ClientID,
		GuestName:  c.GuestName,
		GuestEmail: c.GuestEmail,
		GuestPhone: c.GuestPhone,
	}
}

func toSlotDTO(s scheduling.Slot) SlotDTO {
	return SlotDTO{
		Date:     s.Date.String(),
		Time:     s.Start.String(),
		StaffID:  s.StaffID,
		StartsAt: s.StartsAt,
		EndsAt:   s.EndsAt,
	}
}

func toAppointmentDTO(a *model.Appointment) AppointmentDTO {
	return AppointmentDTO{
		ID:        a.ID,
		SalonID:   a.SalonID,
		ServiceID: a.ServiceID,
		StaffID:   a.StaffID,
		Client: ClientDTO{
			ClientID:   a.ClientID,
			GuestName:  a.GuestName,
			GuestEmail: a.GuestEmail,
			GuestPhone: a.GuestPhone,
		},
		StartsAt:          a.StartsAt.UTC(),
		EndsAt:            a.EndsAt.UTC(),
		Status:            string(a.Status),
		Price:             a.Price,
		DurationMin:       a.DurationMin,
		RescheduledFromID: a.RescheduledFromID,
		CancelledAt:       a.CancelledAt,
		CancelledBy:       a.CancelledBy,
		CreatedAt:         a.CreatedAt.UTC(),
	}
}

// toSalonServiceDTO применяет переопределения салона к базовой услуге.
func toSalonServiceDTO(link model.SalonService) SalonServiceDTO {
	out := SalonServiceDTO{
		ServiceID: link.ServiceID,
		Enabled:   link.Enabled,
	}
	if link.Service != nil {
		out.Name = link.Service.Name
		out.Description = link.Service.Description
		out.Price = link.Service.Price
		out.DurationMin = link.Service.DurationMin
		out.RequiresStaff = link.Service.RequiresStaff
		out.Enabled = link.Enabled && link.Service.IsActive
	}
	if link.PriceOverride.Valid {
		out.Price = link.PriceOverride.Decimal
	}
	if link.DurationOverrideMin != nil {
		out.DurationMin = *link.DurationOverrideMin
	}
	return out
}
