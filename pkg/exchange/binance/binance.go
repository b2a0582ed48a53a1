// Package binance downloads spot klines, optionally paired with futures
// prices, from the Binance REST API.
package binance

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jpillora/backoff"

	"github.com/raykavin/tradechart/pkg/core"
)

var ErrInvalidKline = errors.New("invalid kline")

// kline is the part of a spot or futures kline turned into a candle.
type kline struct {
	OpenTime int64
	Open     string
	High     string
	Low      string
	Close    string
	Volume   string
}

// SplitAssetQuote splits a trading pair into asset and quote parts
func SplitAssetQuote(pair string) (asset, quote string) {
	quoteAssets := []string{"USDT", "BUSD", "USDC", "BTC", "ETH", "BNB"}

	for _, quote = range quoteAssets {
		if len(pair) > len(quote) && pair[len(pair)-len(quote):] == quote {
			return pair[:len(pair)-len(quote)], quote
		}
	}

	if len(pair) > 3 {
		return pair[:len(pair)-3], pair[len(pair)-3:]
	}

	return pair, ""
}

// convertKlineToCandle parses the string prices of a kline.
func convertKlineToCandle(pair string, k kline) (core.Candle, error) {
	candle := core.Candle{
		Pair:     pair,
		Time:     time.UnixMilli(k.OpenTime).UTC(),
		Complete: true,
	}

	fields := []struct {
		name  string
		raw   string
		value *float64
	}{
		{"open", k.Open, &candle.Open},
		{"close", k.Close, &candle.Close},
		{"high", k.High, &candle.High},
		{"low", k.Low, &candle.Low},
		{"volume", k.Volume, &candle.Volume},
	}
	for _, field := range fields {
		value, err := strconv.ParseFloat(field.raw, 64)
		if err != nil {
			return core.Candle{}, fmt.Errorf("%w: %s %s: %q", ErrInvalidKline, pair, field.name, field.raw)
		}
		*field.value = value
	}

	return candle, nil
}

// setupBackoffRetry creates a backoff with sensible defaults
func setupBackoffRetry() *backoff.Backoff {
	return &backoff.Backoff{
		Min: 100 * time.Millisecond,
		Max: 1 * time.Second,
	}
}
