package exchange

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/samber/lo"
	"github.com/xhit/go-str2duration/v2"

	"github.com/raykavin/tradechart/pkg/core"
)

var (
	ErrInvalidTimeframe = errors.New("invalid timeframe")
	ErrFeedNotFound     = errors.New("feed not found")
)

const weekly = "1w"

// PairFeed describes one candle CSV file.
type PairFeed struct {
	Pair       string
	File       string
	Timeframe  string
	HeikinAshi bool
}

// CSVFeed serves candles read from CSV files, resampled to a target
// timeframe. It implements core.Feeder.
type CSVFeed struct {
	Feeds               map[string]PairFeed
	CandlePairTimeFrame map[string][]core.Candle
}

// NewCSVFeed reads every feed and resamples it to targetTimeframe.
func NewCSVFeed(targetTimeframe string, feeds ...PairFeed) (*CSVFeed, error) {
	csvFeed := &CSVFeed{
		Feeds:               make(map[string]PairFeed),
		CandlePairTimeFrame: make(map[string][]core.Candle),
	}

	for _, feed := range feeds {
		csvFeed.Feeds[feed.Pair] = feed

		candles, err := ReadCandles(feed.File, feed.Pair)
		if err != nil {
			return nil, err
		}

		if feed.HeikinAshi {
			ha := core.NewHeikinAshi()
			candles = lo.Map(candles, func(candle core.Candle, _ int) core.Candle {
				return candle.ToHeikinAshi(ha)
			})
		}

		csvFeed.CandlePairTimeFrame[feedTimeframeKey(feed.Pair, feed.Timeframe)] = candles

		if err := csvFeed.resample(feed.Pair, feed.Timeframe, targetTimeframe); err != nil {
			return nil, fmt.Errorf("%s: %w", feed.File, err)
		}
	}

	return csvFeed, nil
}

func feedTimeframeKey(pair, timeframe string) string {
	return fmt.Sprintf("%s--%s", pair, timeframe)
}

// Candles returns every candle of pair at timeframe.
func (c CSVFeed) Candles(pair, timeframe string) ([]core.Candle, error) {
	candles, ok := c.CandlePairTimeFrame[feedTimeframeKey(pair, timeframe)]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrFeedNotFound, pair, timeframe)
	}
	return candles, nil
}

// CandlesByPeriod returns the candles of pair at timeframe within [start, end].
func (c CSVFeed) CandlesByPeriod(_ context.Context, pair, timeframe string, start, end time.Time) ([]core.Candle, error) {
	candles, err := c.Candles(pair, timeframe)
	if err != nil {
		return nil, err
	}

	return lo.Filter(candles, func(candle core.Candle, _ int) bool {
		return !candle.Time.Before(start) && !candle.Time.After(end)
	}), nil
}

// Limit keeps only the candles within duration of each series' last candle.
func (c *CSVFeed) Limit(duration time.Duration) *CSVFeed {
	for key, candles := range c.CandlePairTimeFrame {
		if len(candles) == 0 {
			continue
		}

		start := candles[len(candles)-1].Time.Add(-duration)
		c.CandlePairTimeFrame[key] = lo.Filter(candles, func(candle core.Candle, _ int) bool {
			return candle.Time.After(start)
		})
	}
	return c
}

func parseTimeframe(timeframe string) (time.Duration, error) {
	duration, err := str2duration.ParseDuration(timeframe)
	if err != nil || duration <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidTimeframe, timeframe)
	}
	return duration, nil
}

// isTimeOnPeriodBoundary reports whether t opens a period of timeframe.
// Periods divide the UTC day evenly; weekly periods open on Sunday midnight.
func isTimeOnPeriodBoundary(t time.Time, timeframe string) (bool, error) {
	t = t.UTC()
	if timeframe == weekly {
		return t.Weekday() == time.Sunday && t.Equal(t.Truncate(24*time.Hour)), nil
	}

	duration, err := parseTimeframe(timeframe)
	if err != nil {
		return false, err
	}
	if (24*time.Hour)%duration != 0 {
		return false, fmt.Errorf("%w: %s does not divide a day", ErrInvalidTimeframe, timeframe)
	}

	return t.Equal(t.Truncate(duration)), nil
}

// isLastCandlePeriod reports whether the candle opened at t closes a period
// of targetTimeframe.
func isLastCandlePeriod(t time.Time, fromTimeframe, targetTimeframe string) (bool, error) {
	if fromTimeframe == targetTimeframe {
		return true, nil
	}

	fromDuration, err := parseTimeframe(fromTimeframe)
	if err != nil {
		return false, err
	}

	return isTimeOnPeriodBoundary(t.Add(fromDuration), targetTimeframe)
}

// isFirstCandlePeriod reports whether the candle opened at t opens a period
// of targetTimeframe.
func isFirstCandlePeriod(t time.Time, fromTimeframe, targetTimeframe string) (bool, error) {
	fromDuration, err := parseTimeframe(fromTimeframe)
	if err != nil {
		return false, err
	}

	return isLastCandlePeriod(t.Add(-fromDuration), fromTimeframe, targetTimeframe)
}

func (c *CSVFeed) resample(pair, sourceTimeframe, targetTimeframe string) error {
	if sourceTimeframe != targetTimeframe {
		source, err := parseTimeframe(sourceTimeframe)
		if err != nil {
			return err
		}
		target, err := parseTimeframe(targetTimeframe)
		if err != nil {
			return err
		}
		if target < source {
			return fmt.Errorf("%w: cannot resample %s to %s", ErrInvalidTimeframe, sourceTimeframe, targetTimeframe)
		}
	}

	sourceCandles := c.CandlePairTimeFrame[feedTimeframeKey(pair, sourceTimeframe)]

	startIdx, err := findFirstPeriodCandle(sourceCandles, sourceTimeframe, targetTimeframe)
	if err != nil {
		return err
	}

	targetCandles, err := resampleCandles(sourceCandles[startIdx:], sourceTimeframe, targetTimeframe)
	if err != nil {
		return err
	}

	c.CandlePairTimeFrame[feedTimeframeKey(pair, targetTimeframe)] = targetCandles
	return nil
}

func findFirstPeriodCandle(candles []core.Candle, sourceTimeframe, targetTimeframe string) (int, error) {
	for i := range candles {
		isFirst, err := isFirstCandlePeriod(candles[i].Time, sourceTimeframe, targetTimeframe)
		if err != nil {
			return 0, err
		}
		if isFirst {
			return i, nil
		}
	}
	return len(candles), nil
}

// resampleCandles merges source candles into target periods. Metadata comes
// from the last candle of each period, and an unfinished trailing period is
// dropped.
func resampleCandles(sourceCandles []core.Candle, sourceTimeframe, targetTimeframe string) ([]core.Candle, error) {
	targetCandles := make([]core.Candle, 0, len(sourceCandles))

	var current core.Candle
	inPeriod := false

	for _, candle := range sourceCandles {
		isLast, err := isLastCandlePeriod(candle.Time, sourceTimeframe, targetTimeframe)
		if err != nil {
			return nil, err
		}

		if !inPeriod {
			current = candle
			inPeriod = true
		} else {
			current.High = math.Max(current.High, candle.High)
			current.Low = math.Min(current.Low, candle.Low)
			current.Close = candle.Close
			current.Volume += candle.Volume
			current.Metadata = candle.Metadata
		}

		if isLast {
			current.Complete = true
			targetCandles = append(targetCandles, current)
			inPeriod = false
		}
	}

	return targetCandles, nil
}
