// Package exchange reads and writes candle CSV files and downloads candles
// from a core.Feeder into them.
package exchange

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/samber/lo"

	"github.com/raykavin/tradechart/pkg/core"
)

var (
	ErrEmptyFile     = errors.New("empty csv file")
	ErrMissingColumn = errors.New("missing csv column")
)

// CSV header names, in the column order written by CandleWriter.
var csvHeaders = []string{"time", "open", "close", "low", "high", "volume"}

var defaultHeaderMap = map[string]int{
	"time": 0, "open": 1, "close": 2, "low": 3, "high": 4, "volume": 5,
}

// parseHeaders maps column names to indexes. A first field that parses as an
// integer means the file has no header and uses the default layout.
func parseHeaders(headers []string) (headerMap map[string]int, additional []string, hasHeader bool, err error) {
	if _, err := strconv.ParseInt(headers[0], 10, 64); err == nil {
		return defaultHeaderMap, nil, false, nil
	}

	headerMap = make(map[string]int, len(headers))
	for index, header := range headers {
		headerMap[header] = index
		if _, exists := defaultHeaderMap[header]; !exists {
			additional = append(additional, header)
		}
	}

	for _, required := range csvHeaders {
		if _, ok := headerMap[required]; !ok {
			return nil, nil, true, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	return headerMap, additional, true, nil
}

// DecodeCandles reads candles for pair from r. Rows are
// time,open,close,low,high,volume with unix-second timestamps, and any extra
// header column becomes candle metadata.
func DecodeCandles(r io.Reader, pair string) ([]core.Candle, error) {
	lines, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyFile
	}

	headerMap, additional, hasHeader, err := parseHeaders(lines[0])
	if err != nil {
		return nil, err
	}
	if hasHeader {
		lines = lines[1:]
	}

	candles := make([]core.Candle, 0, len(lines))
	for i, line := range lines {
		candle, err := parseCandleFromLine(line, headerMap, additional, pair)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		candles = append(candles, candle)
	}

	return candles, nil
}

func parseCandleFromLine(line []string, headerMap map[string]int, additional []string, pair string) (core.Candle, error) {
	timestamp, err := strconv.ParseInt(line[headerMap["time"]], 10, 64)
	if err != nil {
		return core.Candle{}, err
	}

	candle := core.Candle{
		Pair:     pair,
		Time:     time.Unix(timestamp, 0).UTC(),
		Complete: true,
	}

	fields := []struct {
		name  string
		value *float64
	}{
		{"open", &candle.Open},
		{"close", &candle.Close},
		{"low", &candle.Low},
		{"high", &candle.High},
		{"volume", &candle.Volume},
	}
	for _, field := range fields {
		if *field.value, err = strconv.ParseFloat(line[headerMap[field.name]], 64); err != nil {
			return core.Candle{}, fmt.Errorf("%s: %w", field.name, err)
		}
	}

	if len(additional) > 0 {
		candle.Metadata = make(map[string]float64, len(additional))
		for _, header := range additional {
			raw := line[headerMap[header]]
			if raw == "" {
				candle.Metadata[header] = math.NaN()
				continue
			}

			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return core.Candle{}, fmt.Errorf("%s: %w", header, err)
			}
			candle.Metadata[header] = value
		}
	}

	return candle, nil
}

// ReadCandles reads a candle CSV file.
func ReadCandles(path, pair string) ([]core.Candle, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return DecodeCandles(file, pair)
}

// ReadCSV reads a candle CSV file into a dataframe. Rows must be in time
// order.
func ReadCSV(path, pair string) (*core.Dataframe, error) {
	candles, err := ReadCandles(path, pair)
	if err != nil {
		return nil, err
	}

	df, err := core.DataframeOf(pair, candles)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return df, nil
}

// CandleWriter writes candles as CSV rows. The header is written with the
// first candle; its metadata keys, sorted, become the extra columns of every
// row. Keys missing from later candles are written as NaN.
type CandleWriter struct {
	writer    *csv.Writer
	precision int
	keys      []string
	started   bool
}

// NewCandleWriter creates a writer formatting prices with precision decimals.
// A negative precision uses the fewest digits that represent each value.
func NewCandleWriter(w io.Writer, precision int) *CandleWriter {
	return &CandleWriter{
		writer:    csv.NewWriter(w),
		precision: precision,
	}
}

func (cw *CandleWriter) writeHeader(keys []string) error {
	cw.started = true
	cw.keys = keys
	return cw.writer.Write(append(slices.Clone(csvHeaders), keys...))
}

// Write appends candles to the output.
func (cw *CandleWriter) Write(candles ...core.Candle) error {
	for _, candle := range candles {
		if !cw.started {
			keys := lo.Keys(candle.Metadata)
			slices.Sort(keys)
			if err := cw.writeHeader(keys); err != nil {
				return err
			}
		}

		row := candle.ToSlice(cw.precision)
		for _, key := range cw.keys {
			value, ok := candle.Metadata[key]
			if !ok {
				value = math.NaN()
			}
			row = append(row, strconv.FormatFloat(value, 'f', cw.precision, 64))
		}

		if err := cw.writer.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes buffered rows. A writer that saw no candle still emits the
// header.
func (cw *CandleWriter) Flush() error {
	if !cw.started {
		if err := cw.writeHeader(nil); err != nil {
			return err
		}
	}
	cw.writer.Flush()
	return cw.writer.Error()
}

// WriteCSV writes every row of df, metadata columns included.
func WriteCSV(w io.Writer, df *core.Dataframe, precision int) error {
	cw := NewCandleWriter(w, precision)
	for i := range df.Len() {
		candle, err := df.Row(i)
		if err != nil {
			return err
		}
		if err := cw.Write(candle); err != nil {
			return err
		}
	}
	return cw.Flush()
}

// SaveCSV writes df to path, replacing any existing file.
func SaveCSV(path string, df *core.Dataframe, precision int) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := WriteCSV(file, df, precision); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
