package models

import "errors"

var (
	// ErrMalformedCandle marks candle data violating OHLCV invariants.
	// The affected instrument is skipped for the cycle, never fatal.
	ErrMalformedCandle = errors.New("malformed candle")

	// ErrInsufficientData marks a series shorter than an indicator's window.
	// Treated as a normal quiet period, not a failure.
	ErrInsufficientData = errors.New("insufficient data")
)
