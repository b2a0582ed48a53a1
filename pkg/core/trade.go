package core

import (
	"fmt"
	"slices"
	"time"
)

// ExitReason tells why a trade was closed.
type ExitReason string

const (
	ExitStopLoss   ExitReason = "stop_loss"
	ExitTakeProfit ExitReason = "take_profit"
)

// TradeInfo is one closed trade as annotated on a chart: entry and exit
// times, and the stop-loss and take-profit levels that were active.
type TradeInfo struct {
	ID         int64      `json:"id"`
	Pair       string     `json:"pair"`
	Entry      time.Time  `json:"entry"`
	Exit       time.Time  `json:"exit"`
	EntryPrice float64    `json:"entry_price"`
	ExitPrice  float64    `json:"exit_price"`
	StopLoss   float64    `json:"sl_price"`
	TakeProfit float64    `json:"tp_price"`
	ExitReason ExitReason `json:"reason_exit"`
}

// Validate checks the trade can be drawn.
func (t TradeInfo) Validate() error {
	if t.Entry.IsZero() || t.Exit.IsZero() {
		return fmt.Errorf("%w: entry and exit times are required", ErrInvalidTrade)
	}
	if t.Exit.Before(t.Entry) {
		return fmt.Errorf("%w: exit %s before entry %s", ErrInvalidTrade, t.Exit, t.Entry)
	}
	return nil
}

// PriceLevels returns the stop-loss and take-profit levels.
func (t TradeInfo) PriceLevels() []float64 {
	return []float64{t.StopLoss, t.TakeProfit}
}

// TradeFilter selects trades read from a TradeStorage.
type TradeFilter func(TradeInfo) bool

// TradeStorage persists trade records for later charting.
type TradeStorage interface {
	CreateTrade(trade *TradeInfo) error
	Trades(filters ...TradeFilter) ([]*TradeInfo, error)
}

func WithPair(pair string) TradeFilter {
	return func(trade TradeInfo) bool {
		return trade.Pair == pair
	}
}

func WithExitReason(reasons ...ExitReason) TradeFilter {
	return func(trade TradeInfo) bool {
		return slices.Contains(reasons, trade.ExitReason)
	}
}

// WithEntryBetween keeps trades entered within [start, end].
func WithEntryBetween(start, end time.Time) TradeFilter {
	return func(trade TradeInfo) bool {
		return !trade.Entry.Before(start) && !trade.Entry.After(end)
	}
}
