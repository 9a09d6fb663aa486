package models

// MACDResult holds the MACD line, signal line and histogram
type MACDResult struct {
	Line      float64 `json:"line"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// BollingerResult holds Bollinger band levels and derived position metrics
type BollingerResult struct {
	Upper            float64 `json:"upper"`
	Middle           float64 `json:"middle"`
	Lower            float64 `json:"lower"`
	WidthPct         float64 `json:"width_pct"`
	PricePositionPct float64 `json:"price_position_pct"`
}

// VolumeResult holds trailing volume statistics for the latest bar
type VolumeResult struct {
	Current float64 `json:"current"`
	Average float64 `json:"average"`
	Spike   bool    `json:"spike"`
}

// IndicatorSnapshot is a last-value readout of the indicator library for one
// instrument and timeframe. Derived fresh per evaluation, never mutated.
type IndicatorSnapshot struct {
	EMA       map[int]float64 `json:"ema"`
	RSI       float64         `json:"rsi"`
	MACD      MACDResult      `json:"macd"`
	ATR       float64         `json:"atr"`
	Bollinger BollingerResult `json:"bollinger"`
	Volume    VolumeResult    `json:"volume"`
}
