package axis

import (
	"fmt"
	"strings"
	"time"

	"github.com/xhit/go-str2duration/v2"
)

// Date label layouts for the X axis.
const (
	DayLayout    = "02.01.06"
	MinuteLayout = "02.01.06 15:04"
)

const day = 24 * time.Hour

// ParseFrequency parses a tick frequency such as "6h", "1d" or the pandas
// style "6H", "1D".
func ParseFrequency(freq string) (time.Duration, error) {
	d, err := str2duration.ParseDuration(strings.ToLower(strings.TrimSpace(freq)))
	if err != nil {
		return 0, fmt.Errorf("invalid tick frequency %q: %w", freq, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid tick frequency %q: must be positive", freq)
	}
	return d, nil
}

// FrequencyFor returns the X tick frequency for candles of the given
// duration: every six hours for five-minute candles, daily otherwise.
func FrequencyFor(timeStep time.Duration) string {
	if timeStep == 5*time.Minute {
		return "6h"
	}
	return "1d"
}

// DateLayout returns the label layout for ticks at freq. Whole-day
// frequencies drop the time of day.
func DateLayout(freq time.Duration) string {
	if freq%day == 0 {
		return DayLayout
	}
	return MinuteLayout
}

// TimeTicks lists start, start+freq, ... up to and including end.
func TimeTicks(start, end time.Time, freq time.Duration) ([]time.Time, error) {
	if freq <= 0 {
		return nil, fmt.Errorf("%w: tick frequency %s", ErrInvalidRange, freq)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end %s before start %s", ErrInvalidRange, end, start)
	}
	if count := end.Sub(start) / freq; count > maxTicks {
		return nil, fmt.Errorf("%w: %d", ErrTooManyTicks, count)
	}

	ticks := make([]time.Time, 0, end.Sub(start)/freq+1)
	for t := start; !t.After(end); t = t.Add(freq) {
		ticks = append(ticks, t)
	}

	return ticks, nil
}
