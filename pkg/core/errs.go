package core

import "errors"

var (
	ErrEmptySeries     = errors.New("empty series")
	ErrEmptyDataframe  = errors.New("empty dataframe")
	ErrColumnNotFound  = errors.New("column not found")
	ErrColumnLength    = errors.New("column length does not match time index")
	ErrOutOfRange      = errors.New("value out of range")
	ErrInvalidTrade    = errors.New("invalid trade")
	ErrUnsortedCandles = errors.New("candles are not in time order")
)
