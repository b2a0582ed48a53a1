// Package calendar works with whole calendar days: month ends, weekdays and
// the quarterly anchor dates drawn as reference lines on charts.
package calendar

import (
	"time"

	"github.com/jinzhu/now"
)

const dateLayout = "2006-01-02"

// Date is a calendar day without time of day or location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate normalises out-of-range values the way time.Date does, so
// NewDate(2023, 2, 30) is 2023-03-02.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	year, month, day := t.Date()
	return Date{Year: year, Month: month, Day: day}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(value string) (Date, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// LastDayOfMonth returns the last calendar day of month in year.
func LastDayOfMonth(year int, month time.Month) Date {
	return DateOf(now.New(NewDate(year, month, 1).Time()).EndOfMonth())
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// AddDays moves d by n calendar days; n may be negative.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// LastWeekdayOnOrBefore returns d if it falls on weekday, otherwise the
// closest earlier day that does.
func (d Date) LastWeekdayOnOrBefore(weekday time.Weekday) Date {
	back := (int(d.Weekday()) - int(weekday) + 7) % 7
	return d.AddDays(-back)
}

func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

func (d Date) String() string {
	return d.Time().Format(dateLayout)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
