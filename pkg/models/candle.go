package models

import (
	"fmt"
	"time"
)

// Candle represents a single OHLCV bar for an instrument.
// Series are ordered ascending by OpenTime with a fixed timeframe per request.
type Candle struct {
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// Validate checks the candle invariants: the high bounds the body from above,
// the low bounds it from below, and volume is non-negative.
func (c *Candle) Validate() error {
	body := c.Open
	if c.Close > body {
		body = c.Close
	}
	if c.High < body {
		return fmt.Errorf("%w: high %.8f below body", ErrMalformedCandle, c.High)
	}

	body = c.Open
	if c.Close < body {
		body = c.Close
	}
	if c.Low > body {
		return fmt.Errorf("%w: low %.8f above body", ErrMalformedCandle, c.Low)
	}

	if c.Volume < 0 {
		return fmt.Errorf("%w: negative volume %.8f", ErrMalformedCandle, c.Volume)
	}

	return nil
}

// Body returns the absolute open-to-close distance
func (c *Candle) Body() float64 {
	if c.Close >= c.Open {
		return c.Close - c.Open
	}
	return c.Open - c.Close
}

// UpperWick returns the distance from the body top to the high
func (c *Candle) UpperWick() float64 {
	top := c.Open
	if c.Close > top {
		top = c.Close
	}
	return c.High - top
}

// LowerWick returns the distance from the low to the body bottom
func (c *Candle) LowerWick() float64 {
	bottom := c.Open
	if c.Close < bottom {
		bottom = c.Close
	}
	return bottom - c.Low
}

// Bullish reports whether the candle closed above its open
func (c *Candle) Bullish() bool {
	return c.Close > c.Open
}

// TypicalPrice returns (high+low+close)/3, the VWAP price component
func (c *Candle) TypicalPrice() float64 {
	return (c.High + c.Low + c.Close) / 3
}

// ValidateSeries checks every candle in a series and that timestamps ascend.
func ValidateSeries(candles []Candle) error {
	for i := range candles {
		if err := candles[i].Validate(); err != nil {
			return fmt.Errorf("candle %d: %w", i, err)
		}
		if i > 0 && !candles[i].OpenTime.After(candles[i-1].OpenTime) {
			return fmt.Errorf("%w: candle %d out of order", ErrMalformedCandle, i)
		}
	}
	return nil
}

// PriceData represents a live last-trade price for a symbol
type PriceData struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}
