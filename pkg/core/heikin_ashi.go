package core

import "math"

// HeikinAshi smooths a candle sequence. It carries the previous smoothed
// candle, so one instance serves one ordered sequence.
type HeikinAshi struct {
	previous Candle
	started  bool
}

// NewHeikinAshi creates a new HeikinAshi calculator
func NewHeikinAshi() *HeikinAshi {
	return &HeikinAshi{}
}

// Next transforms c into its Heikin-Ashi candle:
//   - close = (open + high + low + close) / 4
//   - open = (previous open + previous close) / 2
//   - high = max(high, open, close)
//   - low = min(low, open, close)
//
// Time, pair, volume and metadata are kept from c.
func (ha *HeikinAshi) Next(c Candle) Candle {
	openValue, closeValue := ha.previous.Open, ha.previous.Close
	if !ha.started {
		openValue, closeValue = c.Open, c.Close
		ha.started = true
	}

	smoothed := c
	smoothed.Open = (openValue + closeValue) / 2
	smoothed.Close = (c.Open + c.High + c.Low + c.Close) / 4
	smoothed.High = math.Max(c.High, math.Max(smoothed.Open, smoothed.Close))
	smoothed.Low = math.Min(c.Low, math.Min(smoothed.Open, smoothed.Close))

	ha.previous = smoothed
	return smoothed
}

// ToHeikinAshi transforms a regular candle into a Heikin-Ashi candle
func (c Candle) ToHeikinAshi(ha *HeikinAshi) Candle {
	return ha.Next(c)
}
