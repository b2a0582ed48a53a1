package core

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/samber/lo"
)

// Column names resolved by Dataframe.Column besides metadata keys.
const (
	ColumnOpen   = "open"
	ColumnHigh   = "high"
	ColumnLow    = "low"
	ColumnClose  = "close"
	ColumnVolume = "volume"
)

// Metadata keys holding futures prices next to the spot candle.
const (
	ColumnHighFutures  = "high_d"
	ColumnLowFutures   = "low_d"
	ColumnCloseFutures = "close_d"
)

// Dataframe is a time-indexed table of OHLCV and custom indicator columns.
// Every column has the same length as Time.
type Dataframe struct {
	Pair string

	Close  Series[float64]
	Open   Series[float64]
	High   Series[float64]
	Low    Series[float64]
	Volume Series[float64]

	Time       []time.Time
	LastUpdate time.Time

	// Custom user metadata for indicators
	Metadata map[string]Series[float64]
}

// NewDataframe creates an empty dataframe for pair.
func NewDataframe(pair string) *Dataframe {
	return &Dataframe{
		Pair:     pair,
		Metadata: make(map[string]Series[float64]),
	}
}

// DataframeOf builds a dataframe from candles sorted by time.
func DataframeOf(pair string, candles []Candle) (*Dataframe, error) {
	df := NewDataframe(pair)
	for _, candle := range candles {
		if err := df.Append(candle); err != nil {
			return nil, err
		}
	}
	return df, nil
}

// Len returns the number of rows.
func (df *Dataframe) Len() int {
	return len(df.Time)
}

// Append adds a candle as the newest row. Metadata keys missing from the
// candle are filled with NaN so every column stays aligned with Time.
func (df *Dataframe) Append(candle Candle) error {
	if n := len(df.Time); n > 0 && !candle.Time.After(df.Time[n-1]) {
		return fmt.Errorf("%w: %s after %s", ErrUnsortedCandles, candle.Time, df.Time[n-1])
	}

	if df.Metadata == nil {
		df.Metadata = make(map[string]Series[float64])
	}

	rows := len(df.Time)
	for key, value := range candle.Metadata {
		if _, ok := df.Metadata[key]; !ok {
			df.Metadata[key] = nanSeries(rows)
		}
		df.Metadata[key] = append(df.Metadata[key], value)
	}
	for key, column := range df.Metadata {
		if len(column) == rows {
			df.Metadata[key] = append(column, nan)
		}
	}

	df.Close = append(df.Close, candle.Close)
	df.Open = append(df.Open, candle.Open)
	df.High = append(df.High, candle.High)
	df.Low = append(df.Low, candle.Low)
	df.Volume = append(df.Volume, candle.Volume)
	df.Time = append(df.Time, candle.Time)
	df.LastUpdate = candle.Time

	return nil
}

// Row returns the i-th row as a candle, metadata included. NaN metadata
// values are kept so the row round-trips through CSV.
func (df *Dataframe) Row(i int) (Candle, error) {
	if i < 0 || i >= len(df.Time) {
		return Candle{}, fmt.Errorf("%w: row %d of %d", ErrOutOfRange, i, len(df.Time))
	}

	candle := Candle{
		Pair:     df.Pair,
		Time:     df.Time[i],
		Open:     df.Open[i],
		Close:    df.Close[i],
		Low:      df.Low[i],
		High:     df.High[i],
		Volume:   df.Volume[i],
		Complete: true,
	}
	if len(df.Metadata) > 0 {
		candle.Metadata = make(map[string]float64, len(df.Metadata))
		for key, column := range df.Metadata {
			candle.Metadata[key] = column[i]
		}
	}

	return candle, nil
}

// Column returns the named column. OHLCV names take precedence over metadata.
func (df *Dataframe) Column(name string) (Series[float64], error) {
	var column Series[float64]
	switch name {
	case ColumnOpen:
		column = df.Open
	case ColumnHigh:
		column = df.High
	case ColumnLow:
		column = df.Low
	case ColumnClose:
		column = df.Close
	case ColumnVolume:
		column = df.Volume
	default:
		var ok bool
		if column, ok = df.Metadata[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
		}
	}

	if len(column) != len(df.Time) {
		return nil, fmt.Errorf("%w: %s has %d rows, index has %d", ErrColumnLength, name, len(column), len(df.Time))
	}

	return column, nil
}

// SetColumn stores values under a metadata key.
func (df *Dataframe) SetColumn(name string, values Series[float64]) error {
	if len(values) != len(df.Time) {
		return fmt.Errorf("%w: %s has %d rows, index has %d", ErrColumnLength, name, len(values), len(df.Time))
	}
	if df.Metadata == nil {
		df.Metadata = make(map[string]Series[float64])
	}
	df.Metadata[name] = values
	return nil
}

// Columns lists OHLCV columns followed by the sorted metadata keys.
func (df *Dataframe) Columns() []string {
	keys := lo.Keys(df.Metadata)
	slices.Sort(keys)
	return append([]string{ColumnOpen, ColumnHigh, ColumnLow, ColumnClose, ColumnVolume}, keys...)
}

// Span returns the first and last timestamps of the index.
func (df *Dataframe) Span() (start, end time.Time, err error) {
	if len(df.Time) == 0 {
		return time.Time{}, time.Time{}, ErrEmptyDataframe
	}
	return df.Time[0], df.Time[len(df.Time)-1], nil
}

// Between returns the rows whose time falls in [start, end].
func (df *Dataframe) Between(start, end time.Time) *Dataframe {
	from, _ := slices.BinarySearchFunc(df.Time, start, func(t, target time.Time) int { return t.Compare(target) })
	to, found := slices.BinarySearchFunc(df.Time, end, func(t, target time.Time) int { return t.Compare(target) })
	if found {
		to++
	}
	if to < from {
		to = from
	}
	return df.slice(from, to)
}

// Sample returns a subset of the dataframe with the last 'positions' elements
// Used for windowing operations on a dataframe
func (df *Dataframe) Sample(positions int) *Dataframe {
	start := len(df.Time) - positions
	if start <= 0 {
		return df
	}
	return df.slice(start, len(df.Time))
}

func (df *Dataframe) slice(from, to int) *Dataframe {
	out := &Dataframe{
		Pair:       df.Pair,
		Close:      df.Close[from:to],
		Open:       df.Open[from:to],
		High:       df.High[from:to],
		Low:        df.Low[from:to],
		Volume:     df.Volume[from:to],
		Time:       df.Time[from:to],
		LastUpdate: df.LastUpdate,
		Metadata:   make(map[string]Series[float64], len(df.Metadata)),
	}

	for key, column := range df.Metadata {
		out.Metadata[key] = column[from:to]
	}

	return out
}

var nan = math.NaN()

func nanSeries(n int) Series[float64] {
	s := make(Series[float64], n)
	for i := range s {
		s[i] = nan
	}
	return s
}
