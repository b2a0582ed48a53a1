package binance

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"

	"github.com/raykavin/tradechart/pkg/core"
	"github.com/raykavin/tradechart/pkg/logger"
)

const (
	// Binance serves at most this many klines per request.
	defaultLimit   = 1000
	defaultRetries = 5
)

type klineFetcher func(ctx context.Context, pair, period string, start, end time.Time, limit int) ([]kline, error)

// Feeder reads historical candles from Binance. It implements core.Feeder.
type Feeder struct {
	spot    *binance.Client
	futures *futures.Client

	withFutures bool
	heikinAshi  bool
	limit       int
	retries     int
	log         logger.Logger

	fetchSpot    klineFetcher
	fetchFutures klineFetcher
}

// Option configures a Feeder.
type Option func(*Feeder)

// WithCredentials sets the API credentials. Klines are public, so they are
// only needed for accounts with IP restrictions or higher rate limits.
func WithCredentials(key, secret string) Option {
	return func(f *Feeder) {
		f.spot = binance.NewClient(key, secret)
		f.futures = futures.NewClient(key, secret)
	}
}

// WithFuturesPrices adds the USDⓈ-M futures high, low and close of each
// candle as the high_d, low_d and close_d metadata columns.
func WithFuturesPrices() Option {
	return func(f *Feeder) {
		f.withFutures = true
	}
}

// WithHeikinAshiCandles enables Heikin Ashi candle conversion
func WithHeikinAshiCandles() Option {
	return func(f *Feeder) {
		f.heikinAshi = true
	}
}

// WithRetries sets how many times a failed request is retried.
func WithRetries(retries int) Option {
	return func(f *Feeder) {
		if retries >= 0 {
			f.retries = retries
		}
	}
}

// WithTestNet enables the Binance testnet
func WithTestNet() Option {
	return func(_ *Feeder) {
		binance.UseTestnet = true
		futures.UseTestnet = true
	}
}

// NewFeeder creates a feeder and checks that the API is reachable.
func NewFeeder(ctx context.Context, log logger.Logger, options ...Option) (*Feeder, error) {
	f := newFeeder(log, options...)

	if err := f.spot.NewPingService().Do(ctx); err != nil {
		return nil, fmt.Errorf("binance ping: %w", err)
	}
	if f.withFutures {
		if err := f.futures.NewPingService().Do(ctx); err != nil {
			return nil, fmt.Errorf("binance futures ping: %w", err)
		}
	}

	return f, nil
}

func newFeeder(log logger.Logger, options ...Option) *Feeder {
	f := &Feeder{
		spot:    binance.NewClient("", ""),
		futures: futures.NewClient("", ""),
		limit:   defaultLimit,
		retries: defaultRetries,
		log:     log,
	}
	for _, option := range options {
		option(f)
	}

	f.fetchSpot = f.spotKlines
	f.fetchFutures = f.futuresKlines
	return f
}

func (f *Feeder) spotKlines(ctx context.Context, pair, period string, start, end time.Time, limit int) ([]kline, error) {
	data, err := f.spot.NewKlinesService().
		Symbol(pair).
		Interval(period).
		StartTime(start.UnixMilli()).
		EndTime(end.UnixMilli()).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, err
	}

	klines := make([]kline, 0, len(data))
	for _, d := range data {
		klines = append(klines, kline{
			OpenTime: d.OpenTime,
			Open:     d.Open,
			High:     d.High,
			Low:      d.Low,
			Close:    d.Close,
			Volume:   d.Volume,
		})
	}
	return klines, nil
}

func (f *Feeder) futuresKlines(ctx context.Context, pair, period string, start, end time.Time, limit int) ([]kline, error) {
	data, err := f.futures.NewKlinesService().
		Symbol(pair).
		Interval(period).
		StartTime(start.UnixMilli()).
		EndTime(end.UnixMilli()).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, err
	}

	klines := make([]kline, 0, len(data))
	for _, d := range data {
		klines = append(klines, kline{
			OpenTime: d.OpenTime,
			Open:     d.Open,
			High:     d.High,
			Low:      d.Low,
			Close:    d.Close,
			Volume:   d.Volume,
		})
	}
	return klines, nil
}

// CandlesByPeriod returns the candles of pair opened within [start, end].
func (f *Feeder) CandlesByPeriod(ctx context.Context, pair, period string, start, end time.Time) ([]core.Candle, error) {
	candles, err := f.candles(ctx, f.fetchSpot, pair, period, start, end)
	if err != nil {
		return nil, err
	}

	if f.withFutures {
		prices, err := f.candles(ctx, f.fetchFutures, pair, period, start, end)
		if err != nil {
			return nil, fmt.Errorf("futures: %w", err)
		}
		mergeFuturesPrices(candles, prices)
	}

	if f.heikinAshi {
		ha := core.NewHeikinAshi()
		for i := range candles {
			candles[i] = candles[i].ToHeikinAshi(ha)
		}
	}

	return candles, nil
}

// candles pages through [start, end] until a short page comes back.
func (f *Feeder) candles(ctx context.Context, fetch klineFetcher, pair, period string, start, end time.Time) ([]core.Candle, error) {
	var candles []core.Candle

	for from := start; !from.After(end); {
		var page []kline
		err := f.retry(ctx, func() error {
			var err error
			page, err = fetch(ctx, pair, period, from, end, f.limit)
			return err
		})
		if err != nil {
			return nil, err
		}

		for _, k := range page {
			candle, err := convertKlineToCandle(pair, k)
			if err != nil {
				return nil, err
			}
			candles = append(candles, candle)
		}

		if len(page) < f.limit {
			break
		}
		from = time.UnixMilli(page[len(page)-1].OpenTime + 1)
	}

	return candles, nil
}

func (f *Feeder) retry(ctx context.Context, request func() error) error {
	backoff := setupBackoffRetry()
	for {
		err := request()
		if err == nil {
			return nil
		}
		if int(backoff.Attempt()) >= f.retries {
			return err
		}

		wait := backoff.Duration()
		f.log.WithError(err).Warnf("binance request failed, retrying in %s", wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// mergeFuturesPrices copies futures prices into the metadata of the spot
// candle opened at the same time. Spot candles without a futures match get
// NaN so every candle carries the same columns.
func mergeFuturesPrices(candles, prices []core.Candle) {
	byTime := make(map[int64]core.Candle, len(prices))
	for _, price := range prices {
		byTime[price.Time.UnixMilli()] = price
	}

	missing := core.Candle{High: math.NaN(), Low: math.NaN(), Close: math.NaN()}
	for i := range candles {
		price, ok := byTime[candles[i].Time.UnixMilli()]
		if !ok {
			price = missing
		}
		if candles[i].Metadata == nil {
			candles[i].Metadata = make(map[string]float64, 3)
		}
		candles[i].Metadata[core.ColumnHighFutures] = price.High
		candles[i].Metadata[core.ColumnLowFutures] = price.Low
		candles[i].Metadata[core.ColumnCloseFutures] = price.Close
	}
}
