package exchange

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/xhit/go-str2duration/v2"

	"github.com/raykavin/tradechart/pkg/core"
	"github.com/raykavin/tradechart/pkg/logger"
)

const (
	defaultBatchSize = 500
	defaultPrecision = -1
)

// Downloader fetches historical candles from a feeder into CSV files.
type Downloader struct {
	feeder core.Feeder
	log    logger.Logger
}

// NewDownloader creates a new downloader reading from feeder.
func NewDownloader(feeder core.Feeder, log logger.Logger) Downloader {
	return Downloader{
		feeder: feeder,
		log:    log,
	}
}

// Parameters defines the time range and output format of a download.
type Parameters struct {
	Start     time.Time
	End       time.Time
	BatchSize int
	Precision int
	Progress  io.Writer
}

// Option is a function type for configuring download parameters
type Option func(*Parameters)

// WithInterval sets specific start and end times for the download
func WithInterval(start, end time.Time) Option {
	return func(parameters *Parameters) {
		parameters.Start = start
		parameters.End = end
	}
}

// WithDays sets the download period to a specific number of days from now
func WithDays(days int) Option {
	return func(parameters *Parameters) {
		parameters.Start = time.Now().AddDate(0, 0, -days)
		parameters.End = time.Now()
	}
}

// WithBatchSize sets how many candles are requested per feeder call.
func WithBatchSize(size int) Option {
	return func(parameters *Parameters) {
		if size > 0 {
			parameters.BatchSize = size
		}
	}
}

// WithPrecision sets the decimals written per price. Negative keeps the
// shortest exact representation.
func WithPrecision(precision int) Option {
	return func(parameters *Parameters) {
		parameters.Precision = precision
	}
}

// WithProgressOutput redirects the progress bar.
func WithProgressOutput(w io.Writer) Option {
	return func(parameters *Parameters) {
		parameters.Progress = w
	}
}

// initializeParameters creates default parameters for the last month
func initializeParameters() *Parameters {
	now := time.Now()
	return &Parameters{
		Start:     now.AddDate(0, -1, 0),
		End:       now,
		BatchSize: defaultBatchSize,
		Precision: defaultPrecision,
		Progress:  os.Stderr,
	}
}

// normalizeTimeParameters moves the start to its UTC midnight and clamps the
// end to now. A past end is moved to its UTC midnight too.
func normalizeTimeParameters(parameters *Parameters) {
	parameters.Start = midnight(parameters.Start)

	now := time.Now()
	if now.After(parameters.End) {
		parameters.End = midnight(parameters.End)
	} else {
		parameters.End = now
	}
}

func midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// calculateCandleCount determines the number of candles in the given timeframe
func calculateCandleCount(start, end time.Time, timeframe string) (int, time.Duration, error) {
	interval, err := str2duration.ParseDuration(timeframe)
	if err != nil {
		return 0, 0, err
	}
	if interval <= 0 {
		return 0, 0, ErrInvalidTimeframe
	}
	return int(end.Sub(start) / interval), interval, nil
}

// Download fetches candles of pair at timeframe and writes them to outputPath.
func (d Downloader) Download(ctx context.Context, pair, timeframe, outputPath string, options ...Option) error {
	parameters := initializeParameters()
	for _, option := range options {
		option(parameters)
	}
	normalizeTimeParameters(parameters)

	candleCount, interval, err := calculateCandleCount(parameters.Start, parameters.End, timeframe)
	if err != nil {
		return err
	}
	candleCount++

	recordFile, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer recordFile.Close()

	d.log.WithFields(map[string]any{
		"pair":      pair,
		"timeframe": timeframe,
		"start":     parameters.Start,
		"end":       parameters.End,
	}).Infof("Downloading %d candles", candleCount)

	writer := NewCandleWriter(recordFile, parameters.Precision)
	progressBar := progressbar.NewOptions64(
		int64(candleCount),
		progressbar.OptionSetWriter(parameters.Progress),
		progressbar.OptionSetDescription(pair),
		progressbar.OptionShowCount(),
	)

	missingCandles, err := d.downloadCandleBatches(ctx, pair, timeframe, parameters, interval, writer, progressBar)
	if err != nil {
		return err
	}

	if err = progressBar.Close(); err != nil {
		d.log.Warnf("Failed to close progress bar: %s", err.Error())
	}

	if missingCandles > 0 {
		d.log.Warnf("%d missing candles", missingCandles)
	}

	if err := writer.Flush(); err != nil {
		return err
	}

	d.log.WithField("file", outputPath).Info("Download finished")
	return nil
}

// downloadCandleBatches downloads candles in batches and writes them to CSV
func (d Downloader) downloadCandleBatches(
	ctx context.Context,
	pair string,
	timeframe string,
	parameters *Parameters,
	interval time.Duration,
	writer *CandleWriter,
	progressBar *progressbar.ProgressBar,
) (int, error) {
	missingCandles := 0
	span := interval * time.Duration(parameters.BatchSize)

	for batchStart := parameters.Start; batchStart.Before(parameters.End); batchStart = batchStart.Add(span) {
		if err := ctx.Err(); err != nil {
			return missingCandles, err
		}

		batchEnd := calculateBatchEnd(batchStart, span, parameters.End)
		isLastBatch := batchEnd.Equal(parameters.End)

		candles, err := d.feeder.CandlesByPeriod(ctx, pair, timeframe, batchStart, batchEnd)
		if err != nil {
			return missingCandles, err
		}

		if err := writer.Write(candles...); err != nil {
			return missingCandles, err
		}

		if !isLastBatch && len(candles) < parameters.BatchSize {
			missingCandles += parameters.BatchSize - len(candles)
		}

		if err := progressBar.Add(len(candles)); err != nil {
			d.log.Warnf("Failed to update progress bar: %s", err.Error())
		}
	}

	return missingCandles, nil
}

// calculateBatchEnd stops a batch one second before the next one starts,
// or at the overall end.
func calculateBatchEnd(batchStart time.Time, span time.Duration, totalEnd time.Time) time.Time {
	potentialEnd := batchStart.Add(span)
	if potentialEnd.Before(totalEnd) {
		return potentialEnd.Add(-1 * time.Second)
	}
	return totalEnd
}
