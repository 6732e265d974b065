package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Effective — цена и длительность услуги после применения переопределений.
type Effective struct {
	Price    decimal.Decimal
	Duration time.Duration
}

// DurationMinutes возвращает длительность в минутах для сетки слотов.
func (e Effective) DurationMinutes() int {
	return int(e.Duration / time.Minute)
}

// Resolver вычисляет эффективные цену и длительность для (салон, услуга, мастер).
// Цена: мастер > салон > база. Длительность: салон > база, мастер не влияет.
// Принадлежность мастера салону здесь не проверяется.
type Resolver struct {
	catalog ServiceCatalog
}

func NewResolver(catalog ServiceCatalog) *Resolver {
	return &Resolver{catalog: catalog}
}

func (r *Resolver) Resolve(ctx context.Context, salonID, serviceID uuid.UUID, staffID *uuid.UUID) (Effective, error) {
	svc, err := r.catalog.GetService(ctx, serviceID)
	if err != nil {
		return Effective{}, storageError("get service", err)
	}
	if svc == nil || !svc.IsActive {
		return Effective{}, newError(ErrServiceNotFound, "service %s", serviceID)
	}

	link, err := r.catalog.GetSalonOverride(ctx, salonID, serviceID)
	if err != nil {
		return Effective{}, storageError("get salon override", err)
	}
	switch {
	case link != nil && !link.Enabled:
		return Effective{}, newError(ErrServiceNotOfferedBySalon, "service %s is disabled in salon %s", serviceID, salonID)
	case link == nil && !svc.GloballyBookable:
		return Effective{}, newError(ErrServiceNotOfferedBySalon, "service %s is not offered by salon %s", serviceID, salonID)
	}

	eff := Effective{
		Price:    svc.Price,
		Duration: time.Duration(svc.DurationMin) * time.Minute,
	}

	if link != nil {
		if link.PriceOverride.Valid {
			eff.Price = link.PriceOverride.Decimal
		}
		if link.DurationOverrideMin != nil && *link.DurationOverrideMin > 0 {
			eff.Duration = time.Duration(*link.DurationOverrideMin) * time.Minute
		}
	}

	// Интервал нулевой длины ни с чем не пересекается.
	if eff.Duration <= 0 {
		return Effective{}, newError(ErrServiceNotFound, "service %s has no positive duration", serviceID)
	}

	if staffID != nil {
		so, err := r.catalog.GetStaffOverride(ctx, *staffID, serviceID)
		if err != nil {
			return Effective{}, storageError("get staff override", err)
		}
		if so != nil && so.PriceOverride.Valid {
			eff.Price = so.PriceOverride.Decimal
		}
	}

	return eff, nil
}
