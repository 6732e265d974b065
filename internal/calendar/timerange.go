package calendar

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidTimeRange = errors.New("invalid time range")
	ErrSlotStep         = errors.New("slot step must be positive")
	ErrInvalidDate      = errors.New("invalid date, want YYYY-MM-DD")
	ErrInvalidClock     = errors.New("invalid time of day, want HH:MM")
)

// TimeRange представляет временной интервал [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NewTimeRange создаёт интервал и делает простую валидацию.
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return TimeRange{}, ErrInvalidTimeRange
	}
	return TimeRange{Start: start, End: end}, nil
}

// Overlaps — полуоткрытые интервалы [Start, End) пересекаются,
// если a.Start < b.End && b.Start < a.End. Касание концами не считается.
func (tr TimeRange) Overlaps(other TimeRange) bool {
	return tr.Start.Before(other.End) && other.Start.Before(tr.End)
}

// HasOverlap проверяет, пересекается ли newRange с existing, и возвращает конфликты.
func HasOverlap(newRange TimeRange, existing []TimeRange) (bool, []TimeRange) {
	var conflicts []TimeRange
	for _, tr := range existing {
		if newRange.Overlaps(tr) {
			conflicts = append(conflicts, tr)
		}
	}
	return len(conflicts) > 0, conflicts
}

// ===== Дата без времени =====

// Date — календарный день без привязки к часовому поясу.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate разбирает дату в формате YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return DateOf(t), nil
}

// DateOf возвращает календарный день момента t в его часовом поясе.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// IsZero сообщает, что дата не задана.
func (d Date) IsZero() bool {
	return d == Date{}
}

// AddDays сдвигает дату на n дней (нормализация через time.Date).
func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

func (d Date) Weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Weekday()
}

func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

func (d Date) After(other Date) bool {
	return other.Before(d)
}

// At возвращает момент времени «дата + время суток» в часовом поясе loc.
// Время суток трактуется как настенное, поэтому переходы DST учитываются.
func (d Date) At(c Clock, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, c.Hour(), c.Minute(), 0, 0, loc)
}

// ===== Время суток =====

// Clock — время суток в минутах от полуночи.
type Clock int

const MinutesPerDay Clock = 24 * 60

// ParseClock разбирает время в формате HH:MM (24h).
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, ErrInvalidClock
	}
	return Clock(t.Hour()*60 + t.Minute()), nil
}

// ClockOf возвращает время суток момента t в его часовом поясе.
func ClockOf(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Valid сообщает, что время в пределах суток [00:00, 24:00].
func (c Clock) Valid() bool {
	return c >= 0 && c <= MinutesPerDay
}

// ClockRange — интервал внутри одних суток [Start, End).
// Ночные интервалы (End < Start) не поддерживаются.
type ClockRange struct {
	Start Clock
	End   Clock
}

// Empty сообщает, что интервал пуст или некорректен.
func (r ClockRange) Empty() bool {
	return !r.Start.Valid() || !r.End.Valid() || r.End <= r.Start
}

// Intersect возвращает пересечение двух интервалов (может быть пустым).
func (r ClockRange) Intersect(other ClockRange) ClockRange {
	out := ClockRange{Start: r.Start, End: r.End}
	if other.Start > out.Start {
		out.Start = other.Start
	}
	if other.End < out.End {
		out.End = other.End
	}
	return out
}

// Contains сообщает, что [start, start+length) целиком лежит в интервале.
func (r ClockRange) Contains(start Clock, length int) bool {
	return start >= r.Start && start+Clock(length) <= r.End
}

// GridStarts разбивает интервал на кандидатов в начало слота с шагом step минут.
// Сетка якорится на r.Start; кандидат отбрасывается, если start+length выходит за r.End.
func GridStarts(r ClockRange, step, length int) ([]Clock, error) {
	if step <= 0 {
		return nil, ErrSlotStep
	}
	if r.Empty() || length <= 0 {
		return []Clock{}, nil
	}

	var starts []Clock
	for cur := r.Start; cur+Clock(length) <= r.End; cur += Clock(step) {
		starts = append(starts, cur)
	}
	if starts == nil {
		starts = []Clock{}
	}
	return starts, nil
}

// OnGrid сообщает, попадает ли c на сетку с шагом step, отсчитанную от r.Start.
func OnGrid(r ClockRange, step int, c Clock) bool {
	if step <= 0 || c < r.Start {
		return false
	}
	return int(c-r.Start)%step == 0
}

// ===== Форматирование слота для пользователя =====

var ruWeekdays = map[time.Weekday]string{
	time.Monday:    "Понедельник",
	time.Tuesday:   "Вторник",
	time.Wednesday: "Среда",
	time.Thursday:  "Четверг",
	time.Friday:    "Пятница",
	time.Saturday:  "Суббота",
	time.Sunday:    "Воскресенье",
}

// FormatSlotForUser форматирует интервал в человекочитаемую строку.
// Если loc != nil, время переводится в указанный часовой пояс.
func FormatSlotForUser(tr TimeRange, loc *time.Location) string {
	start := tr.Start
	end := tr.End

	if loc != nil {
		start = start.In(loc)
		end = end.In(loc)
	}

	weekday := ruWeekdays[start.Weekday()]
	return fmt.Sprintf("%s, %s, %s–%s",
		weekday,
		start.Format("02.01.2006"),
		start.Format("15:04"),
		end.Format("15:04"),
	)
}
