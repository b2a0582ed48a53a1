package calendar

import (
	"slices"
	"time"
)

// DefaultShiftBackDays is how far before the last Friday of a quarter the
// anchor date falls.
const DefaultShiftBackDays = 18

var quarterMonths = [...]time.Month{time.March, time.June, time.September, time.December}

// QuarterMonths returns the months that end a fiscal quarter.
func QuarterMonths() []time.Month {
	return slices.Clone(quarterMonths[:])
}

// QuarterlyAnchorDates returns, for each quarter-ending month and each year
// in [yearMin, yearMax], the last Friday of that month moved back
// shiftBackDays days. Dates missing from valid are dropped.
//
// The result is grouped by quarter month (every March, then every June, and
// so on), not sorted chronologically.
func QuarterlyAnchorDates(valid DateSet, yearMin, yearMax, shiftBackDays int) []Date {
	anchors := make([]Date, 0)

	for _, month := range quarterMonths {
		for year := yearMin; year <= yearMax; year++ {
			lastFriday := LastDayOfMonth(year, month).LastWeekdayOnOrBefore(time.Friday)
			anchor := lastFriday.AddDays(-shiftBackDays)
			if valid.Contains(anchor) {
				anchors = append(anchors, anchor)
			}
		}
	}

	return anchors
}

// AnchorsFor computes QuarterlyAnchorDates over the years spanned by a time
// index, keeping only anchors that are days of that index.
func AnchorsFor(times []time.Time, shiftBackDays int) []Date {
	valid := DateSetOf(times)

	first, last, ok := valid.YearRange()
	if !ok {
		return []Date{}
	}

	return QuarterlyAnchorDates(valid, first, last, shiftBackDays)
}
