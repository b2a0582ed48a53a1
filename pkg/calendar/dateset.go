package calendar

import (
	"slices"
	"time"

	"github.com/samber/lo"
)

// DateSet is a set of calendar days, typically the days present in a
// time-indexed dataset.
type DateSet map[Date]struct{}

func NewDateSet(dates ...Date) DateSet {
	set := make(DateSet, len(dates))
	for _, d := range dates {
		set.Add(d)
	}
	return set
}

// DateSetOf collects the calendar days of a time index.
func DateSetOf(times []time.Time) DateSet {
	return NewDateSet(lo.Map(times, func(t time.Time, _ int) Date { return DateOf(t) })...)
}

func (s DateSet) Add(d Date) {
	s[d] = struct{}{}
}

// Contains reports whether d is in the set. A nil set contains nothing.
func (s DateSet) Contains(d Date) bool {
	_, ok := s[d]
	return ok
}

func (s DateSet) Len() int {
	return len(s)
}

// Sorted returns the days in chronological order.
func (s DateSet) Sorted() []Date {
	dates := lo.Keys(s)
	slices.SortFunc(dates, func(a, b Date) int { return a.Time().Compare(b.Time()) })
	return dates
}

// YearRange returns the first and last year in the set. ok is false for an
// empty set.
func (s DateSet) YearRange() (first, last int, ok bool) {
	if len(s) == 0 {
		return 0, 0, false
	}

	years := lo.Map(lo.Keys(s), func(d Date, _ int) int { return d.Year })
	return lo.Min(years), lo.Max(years), true
}
