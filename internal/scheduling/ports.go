package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/salon-booking/internal/calendar"
	"github.com/Leganyst/salon-booking/internal/model"
)

// Все методы чтения возвращают (nil, nil), если сущность не найдена.

// ServiceCatalog отдаёт услуги и переопределения для Resolver.
type ServiceCatalog interface {
	GetService(ctx context.Context, serviceID uuid.UUID) (*model.Service, error)
	GetSalonOverride(ctx context.Context, salonID, serviceID uuid.UUID) (*model.SalonService, error)
	GetStaffOverride(ctx context.Context, staffID, serviceID uuid.UUID) (*model.StaffService, error)
}

// Catalog — read-модели салонов, услуг и мастеров.
type Catalog interface {
	ServiceCatalog

	GetSalon(ctx context.Context, salonID uuid.UUID) (*model.Salon, error)
	GetSalonHours(ctx context.Context, salonID uuid.UUID, weekday time.Weekday) (*model.SalonHours, error)
	GetStaff(ctx context.Context, staffID uuid.UUID) (*model.Staff, error)
	// ListQualifiedStaff возвращает мастеров салона, умеющих услугу,
	// в порядке создания (created_at, id).
	ListQualifiedStaff(ctx context.Context, salonID, serviceID uuid.UUID) ([]model.Staff, error)
	GetStaffWorkingHours(ctx context.Context, staffID uuid.UUID, weekday time.Weekday) (*model.StaffHours, error)
}

// AppointmentReader читает активные (scheduled/confirmed) записи ресурса,
// пересекающие window. day — местный день салона, к которому относится окно;
// транзакционная реализация блокирует по нему корзину ресурса.
type AppointmentReader interface {
	ListActive(ctx context.Context, resourceKey string, day calendar.Date, window calendar.TimeRange) ([]model.Appointment, error)
}

// AppointmentTx выполняет операции внутри одной атомарной единицы работы.
type AppointmentTx interface {
	AppointmentReader

	// Catalog читает каталог в той же транзакции.
	Catalog() Catalog

	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	// Insert вставляет запись и увеличивает версию корзины (resource, day).
	Insert(ctx context.Context, appt *model.Appointment, day calendar.Date) error
	// UpdateStatus меняет статус, только если текущий входит в from.
	// Возвращает false, если ни одна строка не обновлена.
	UpdateStatus(ctx context.Context, id uuid.UUID, from []model.AppointmentStatus, to model.AppointmentStatus, actor *uuid.UUID, at time.Time) (bool, error)
}

// AppointmentStore хранит записи.
type AppointmentStore interface {
	AppointmentReader

	Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	// InTx выполняет fn в одной изолированной транзакции; ошибка fn откатывает всё.
	InTx(ctx context.Context, fn func(tx AppointmentTx) error) error
}

// ReminderPayload — данные напоминания для внешнего воркера доставки.
type ReminderPayload struct {
	AppointmentID uuid.UUID  `json:"appointmentId"`
	SalonID       uuid.UUID  `json:"salonId"`
	ServiceID     uuid.UUID  `json:"serviceId"`
	StaffID       *uuid.UUID `json:"staffId,omitempty"`
	ClientID      *uuid.UUID `json:"clientId,omitempty"`
	GuestName     string     `json:"guestName,omitempty"`
	GuestEmail    string     `json:"guestEmail,omitempty"`
	GuestPhone    string     `json:"guestPhone,omitempty"`
	StartsAt      time.Time  `json:"startsAt"`
	Title         string     `json:"title"`
	Body          string     `json:"body"`
}

// Notifier планирует напоминания. Вызывается после коммита, вне транзакции.
type Notifier interface {
	ScheduleReminder(ctx context.Context, appointmentID uuid.UUID, fireAt time.Time, payload ReminderPayload) error
	CancelReminders(ctx context.Context, appointmentID uuid.UUID) error
}

// NowFunc возвращает текущее время; в тестах подменяется.
type NowFunc func() time.Time

// ClientContext — клиент, для которого бронируется слот.
type ClientContext struct {
	ClientID   *uuid.UUID
	GuestName  string
	GuestEmail string
	GuestPhone string
}

type ActorRole string

const (
	ActorClient ActorRole = "client"
	ActorOwner  ActorRole = "owner"
	ActorStaff  ActorRole = "staff"
)

// Actor — кто выполняет операцию над записью.
type Actor struct {
	UserID uuid.UUID
	Role   ActorRole
}

// IsOwnerOf сообщает, владеет ли актор салоном.
func (a Actor) IsOwnerOf(salon *model.Salon) bool {
	return a.Role == ActorOwner && salon != nil && a.UserID != uuid.Nil && a.UserID == salon.OwnerID
}
