package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// everyDay returns each day in [from, to].
func everyDay(from, to Date) DateSet {
	set := NewDateSet()
	for d := from; !to.Before(d); d = d.AddDays(1) {
		set.Add(d)
	}
	return set
}

func TestQuarterlyAnchorDates_SingleMatch(t *testing.T) {
	valid := NewDateSet(NewDate(2023, time.June, 12))

	got := QuarterlyAnchorDates(valid, 2023, 2023, DefaultShiftBackDays)
	assert.Equal(t, []Date{NewDate(2023, time.June, 12)}, got)
}

func TestQuarterlyAnchorDates_EmptySet(t *testing.T) {
	got := QuarterlyAnchorDates(NewDateSet(), 2020, 2021, DefaultShiftBackDays)
	require.NotNil(t, got)
	assert.Empty(t, got)

	assert.Empty(t, QuarterlyAnchorDates(nil, 2020, 2021, DefaultShiftBackDays))
}

func TestQuarterlyAnchorDates_InvertedYears(t *testing.T) {
	valid := everyDay(NewDate(2020, time.January, 1), NewDate(2021, time.December, 31))
	assert.Empty(t, QuarterlyAnchorDates(valid, 2021, 2020, DefaultShiftBackDays))
}

func TestQuarterlyAnchorDates_GroupedByQuarterMonth(t *testing.T) {
	valid := everyDay(NewDate(2023, time.January, 1), NewDate(2024, time.December, 31))

	got := QuarterlyAnchorDates(valid, 2023, 2024, DefaultShiftBackDays)
	assert.Equal(t, []Date{
		NewDate(2023, time.March, 13),
		NewDate(2024, time.March, 11),
		NewDate(2023, time.June, 12),
		NewDate(2024, time.June, 10),
		NewDate(2023, time.September, 11),
		NewDate(2024, time.September, 9),
		NewDate(2023, time.December, 11),
		NewDate(2024, time.December, 9),
	}, got)
}

func TestQuarterlyAnchorDates_DropsMissingDays(t *testing.T) {
	valid := everyDay(NewDate(2020, time.January, 1), NewDate(2021, time.December, 31))
	delete(valid, NewDate(2020, time.September, 7))
	delete(valid, NewDate(2021, time.December, 13))

	got := QuarterlyAnchorDates(valid, 2020, 2021, DefaultShiftBackDays)
	assert.Equal(t, []Date{
		NewDate(2020, time.March, 9),
		NewDate(2021, time.March, 8),
		NewDate(2020, time.June, 8),
		NewDate(2021, time.June, 7),
		NewDate(2021, time.September, 6),
		NewDate(2020, time.December, 7),
	}, got)
}

func TestQuarterlyAnchorDates_NoShift(t *testing.T) {
	valid := everyDay(NewDate(2021, time.January, 1), NewDate(2021, time.December, 31))

	got := QuarterlyAnchorDates(valid, 2021, 2021, 0)
	for _, d := range got {
		assert.Equal(t, time.Friday, d.Weekday())
	}
	assert.Equal(t, NewDate(2021, time.December, 31), got[len(got)-1])
}

func TestQuarterlyAnchorDates_Idempotent(t *testing.T) {
	valid := everyDay(NewDate(2023, time.January, 1), NewDate(2023, time.December, 31))

	first := QuarterlyAnchorDates(valid, 2023, 2023, DefaultShiftBackDays)
	second := QuarterlyAnchorDates(valid, 2023, 2023, DefaultShiftBackDays)
	assert.Equal(t, first, second)
}

func TestAnchorsFor(t *testing.T) {
	var index []time.Time
	start := time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)
	for ts := start; ts.Before(start.AddDate(0, 1, 0)); ts = ts.Add(4 * time.Hour) {
		index = append(index, ts)
	}

	assert.Equal(t, []Date{NewDate(2023, time.June, 12)}, AnchorsFor(index, DefaultShiftBackDays))
	assert.Empty(t, AnchorsFor(nil, DefaultShiftBackDays))
}

func TestQuarterMonths(t *testing.T) {
	months := QuarterMonths()
	assert.Equal(t, []time.Month{time.March, time.June, time.September, time.December}, months)

	months[0] = time.January
	assert.Equal(t, time.March, QuarterMonths()[0])
}
