package scheduling

import (
	"context"
	"errors"
	"fmt"
)

// Kind — класс доменной ошибки.
type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindPolicyViolation    Kind = "policy_violation"
	KindConflict           Kind = "conflict"
	KindQualification      Kind = "qualification"
	KindState              Kind = "state"
	KindStorageUnavailable Kind = "storage_unavailable"
)

// Reason — конкретная причина отказа.
type Reason string

const (
	ReasonSalonNotFound            Reason = "SalonNotFound"
	ReasonServiceNotFound          Reason = "ServiceNotFound"
	ReasonStaffNotFound            Reason = "StaffNotFound"
	ReasonAppointmentNotFound      Reason = "AppointmentNotFound"
	ReasonServiceNotOfferedBySalon Reason = "ServiceNotOfferedBySalon"

	ReasonSalonClosed               Reason = "SalonClosed"
	ReasonOutsideLeadTime           Reason = "OutsideLeadTime"
	ReasonStaffUnavailable          Reason = "StaffUnavailable"
	ReasonOffGrid                   Reason = "OffGrid"
	ReasonCancellationWindowExpired Reason = "CancellationWindowExpired"

	ReasonSlotAlreadyBooked Reason = "SlotAlreadyBooked"

	ReasonStaffNotQualified Reason = "StaffNotQualified"

	ReasonInvalidTransition      Reason = "InvalidTransition"
	ReasonAppointmentNotFinished Reason = "AppointmentNotFinished"

	ReasonStorageUnavailable Reason = "StorageUnavailable"
)

// Error — типизированная ошибка ядра. Сравнение через errors.Is идёт по Reason.
type Error struct {
	Kind    Kind
	Reason  Reason
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is позволяет писать errors.Is(err, scheduling.ErrSlotAlreadyBooked).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Reason == t.Reason
}

// Сентинелы для errors.Is.
var (
	ErrSalonNotFound            = &Error{Kind: KindNotFound, Reason: ReasonSalonNotFound}
	ErrServiceNotFound          = &Error{Kind: KindNotFound, Reason: ReasonServiceNotFound}
	ErrStaffNotFound            = &Error{Kind: KindNotFound, Reason: ReasonStaffNotFound}
	ErrAppointmentNotFound      = &Error{Kind: KindNotFound, Reason: ReasonAppointmentNotFound}
	ErrServiceNotOfferedBySalon = &Error{Kind: KindNotFound, Reason: ReasonServiceNotOfferedBySalon}

	ErrSalonClosed               = &Error{Kind: KindPolicyViolation, Reason: ReasonSalonClosed}
	ErrOutsideLeadTime           = &Error{Kind: KindPolicyViolation, Reason: ReasonOutsideLeadTime}
	ErrStaffUnavailable          = &Error{Kind: KindPolicyViolation, Reason: ReasonStaffUnavailable}
	ErrOffGrid                   = &Error{Kind: KindPolicyViolation, Reason: ReasonOffGrid}
	ErrCancellationWindowExpired = &Error{Kind: KindPolicyViolation, Reason: ReasonCancellationWindowExpired}

	ErrSlotAlreadyBooked = &Error{Kind: KindConflict, Reason: ReasonSlotAlreadyBooked}

	ErrStaffNotQualified = &Error{Kind: KindQualification, Reason: ReasonStaffNotQualified}

	ErrInvalidTransition      = &Error{Kind: KindState, Reason: ReasonInvalidTransition}
	ErrAppointmentNotFinished = &Error{Kind: KindState, Reason: ReasonAppointmentNotFinished}

	ErrStorageUnavailable = &Error{Kind: KindStorageUnavailable, Reason: ReasonStorageUnavailable}
)

func newError(base *Error, format string, args ...any) *Error {
	return &Error{Kind: base.Kind, Reason: base.Reason, Message: fmt.Sprintf(format, args...)}
}

// storageError оборачивает ошибку хранилища. Доменные ошибки и
// отмена контекста пробрасываются без изменений.
func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &Error{
		Kind:    KindStorageUnavailable,
		Reason:  ReasonStorageUnavailable,
		Message: op,
		Err:     err,
	}
}

// KindOf возвращает класс ошибки или пустую строку для недоменных ошибок.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// ReasonOf возвращает причину ошибки или пустую строку.
func ReasonOf(err error) Reason {
	var de *Error
	if errors.As(err, &de) {
		return de.Reason
	}
	return ""
}
