// Package metric summarises the returns of charted trades.
package metric

import (
	"math"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"

	"github.com/raykavin/tradechart/pkg/core"
)

// Ratios are capped here when there is no loss to divide by.
const noLossRatio = 10

// Return is the relative change from entry to exit price. Trades without
// an entry price return 0.
func Return(trade core.TradeInfo) float64 {
	if trade.EntryPrice == 0 {
		return 0
	}
	return (trade.ExitPrice - trade.EntryPrice) / trade.EntryPrice
}

// Returns maps trades to their relative returns.
func Returns(trades []core.TradeInfo) []float64 {
	return lo.Map(trades, func(trade core.TradeInfo, _ int) float64 {
		return Return(trade)
	})
}

// Mean calculates the arithmetic mean of the values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// WinRate is the share of non-negative values.
func WinRate(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	wins, _ := partitionTradeResults(values)
	return float64(len(wins)) / float64(len(values))
}

// Payoff calculates the ratio of average wins to average losses.
func Payoff(values []float64) float64 {
	wins, losses := partitionTradeResults(values)
	if len(wins) == 0 {
		return 0
	}
	if len(losses) == 0 {
		return noLossRatio
	}

	avgLoss := stat.Mean(losses, nil)
	if avgLoss == 0 {
		return noLossRatio
	}

	return math.Abs(stat.Mean(wins, nil) / avgLoss)
}

// ProfitFactor calculates the ratio of total profits to total losses.
func ProfitFactor(values []float64) float64 {
	var totalWins, totalLosses float64
	for _, value := range values {
		if value >= 0 {
			totalWins += value
		} else {
			totalLosses += value
		}
	}

	if totalLosses == 0 {
		return noLossRatio
	}

	return math.Abs(totalWins / totalLosses)
}

// partitionTradeResults separates results into wins and absolute losses.
func partitionTradeResults(values []float64) (wins []float64, losses []float64) {
	for _, value := range values {
		if value >= 0 {
			wins = append(wins, value)
		} else {
			losses = append(losses, math.Abs(value))
		}
	}
	return wins, losses
}
