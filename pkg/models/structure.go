package models

import "time"

// BOSDirection labels a break-of-structure event
type BOSDirection string

const (
	BOSNone    BOSDirection = "NONE"
	BOSBullish BOSDirection = "BULLISH"
	BOSBearish BOSDirection = "BEARISH"
)

// Direction labels a directional move
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

// LevelKind distinguishes levels above price from levels below it
type LevelKind string

const (
	LevelHigh LevelKind = "HIGH"
	LevelLow  LevelKind = "LOW"
)

// PriceLevel is a clustered structural level derived from swing points
type PriceLevel struct {
	Price   float64   `json:"price"`
	Kind    LevelKind `json:"kind"`
	Touches int       `json:"touches"`
}

// LiquidityLevel is a price level where resting stop orders are assumed.
// Swept transitions false→true exactly once, when a candle after FormedAt
// wicks through the level and closes back on the originating side. Candles
// that predate the level's formation never count.
type LiquidityLevel struct {
	Price    float64   `json:"price"`
	Kind     LevelKind `json:"kind"`
	Label    string    `json:"label"`
	FormedAt time.Time `json:"formed_at,omitempty"`
	Swept    bool      `json:"swept"`
}

// DisplacementResult reports an unusually large directional candle or run
type DisplacementResult struct {
	Detected      bool      `json:"detected"`
	Direction     Direction `json:"direction,omitempty"`
	StrengthScore float64   `json:"strength_score"`
}

// ExhaustionResult reports a long-wick, low-follow-through reversal pattern
type ExhaustionResult struct {
	Detected       bool    `json:"detected"`
	WickRatio      float64 `json:"wick_ratio"`
	FollowThrough  bool    `json:"follow_through"`
	VolumeSlowdown bool    `json:"volume_slowdown"`
}

// StructureSnapshot carries the market-microstructure readout for one
// instrument: structural levels ordered by distance from the current price,
// previous-day and session extremes, VWAP, liquidity state, displacement and
// exhaustion detection, and the active kill-zone tag when inside one.
type StructureSnapshot struct {
	Support      []PriceLevel       `json:"support"`
	Resistance   []PriceLevel       `json:"resistance"`
	BOS          BOSDirection       `json:"bos"`
	PDH          float64            `json:"pdh"`
	PDL          float64            `json:"pdl"`
	AsianHigh    float64            `json:"asian_high"`
	AsianLow     float64            `json:"asian_low"`
	VWAP         float64            `json:"vwap"`
	Liquidity    []LiquidityLevel   `json:"liquidity"`
	Displacement DisplacementResult `json:"displacement"`
	Exhaustion   ExhaustionResult   `json:"exhaustion"`
	KillZone     string             `json:"kill_zone,omitempty"`
}
