package models

import "time"

// Action is the directional decision for an instrument
type Action string

const (
	ActionBuy      Action = "BUY"
	ActionSell     Action = "SELL"
	ActionWait     Action = "WAIT"
	ActionExitBuy  Action = "EXIT_BUY"
	ActionExitSell Action = "EXIT_SELL"
)

// Actionable reports whether the action calls for opening or closing a trade
func (a Action) Actionable() bool {
	return a != ActionWait && a != ""
}

// ReasonCode is an enumerated scoring reason. Localized display labels are a
// presentation concern and live outside this package.
type ReasonCode string

const (
	ReasonEMABullishCross    ReasonCode = "EMA_FAST_ABOVE_SLOW"
	ReasonEMABearishCross    ReasonCode = "EMA_FAST_BELOW_SLOW"
	ReasonRSIBullishZone     ReasonCode = "RSI_BULLISH_ZONE"
	ReasonRSIBearishZone     ReasonCode = "RSI_BEARISH_ZONE"
	ReasonRSIOverbought      ReasonCode = "RSI_OVERBOUGHT"
	ReasonRSIOversold        ReasonCode = "RSI_OVERSOLD"
	ReasonMACDBullish        ReasonCode = "MACD_HISTOGRAM_POSITIVE"
	ReasonMACDBearish        ReasonCode = "MACD_HISTOGRAM_NEGATIVE"
	ReasonBOSBullish         ReasonCode = "BOS_BULLISH"
	ReasonBOSBearish         ReasonCode = "BOS_BEARISH"
	ReasonVolumeSpike        ReasonCode = "VOLUME_SPIKE"
	ReasonAboveVWAP          ReasonCode = "PRICE_ABOVE_VWAP"
	ReasonBelowVWAP          ReasonCode = "PRICE_BELOW_VWAP"
	ReasonBollingerLower     ReasonCode = "BOLLINGER_LOWER_BAND"
	ReasonBollingerUpper     ReasonCode = "BOLLINGER_UPPER_BAND"
	ReasonLiquiditySweep     ReasonCode = "LIQUIDITY_SWEEP"
	ReasonLiquidityProximity ReasonCode = "LIQUIDITY_PROXIMITY"
	ReasonDisplacementUp     ReasonCode = "DISPLACEMENT_UP"
	ReasonDisplacementDown   ReasonCode = "DISPLACEMENT_DOWN"
	ReasonNoExhaustion       ReasonCode = "NO_EXHAUSTION"
	ReasonKillZoneActive     ReasonCode = "KILL_ZONE_ACTIVE"
	ReasonPDHBreak           ReasonCode = "PDH_BREAK"
	ReasonPDLBreak           ReasonCode = "PDL_BREAK"
	ReasonSessionBreak       ReasonCode = "SESSION_BREAK"
	ReasonMomentumFading     ReasonCode = "MOMENTUM_FADING"

	ReasonInsufficientData     ReasonCode = "INSUFFICIENT_DATA"
	ReasonInsufficientMomentum ReasonCode = "INSUFFICIENT_MOMENTUM"

	CancelNoTrigger          ReasonCode = "CANCEL_NO_TRIGGER"
	CancelNoLiquidityContact ReasonCode = "CANCEL_NO_LIQUIDITY_CONTACT"
	CancelNoDisplacement     ReasonCode = "CANCEL_NO_DISPLACEMENT"
	CancelExhaustion         ReasonCode = "CANCEL_EXHAUSTION_DETECTED"
)

// SignalScore is the scorer output for a single evaluation.
// Confidence is monotonic non-decreasing in the number of independently
// confirming reasons and capped at 100.
type SignalScore struct {
	Action        Action       `json:"action"`
	BuyScore      int          `json:"buy_score"`
	SellScore     int          `json:"sell_score"`
	Confidence    int          `json:"confidence"`
	Reasons       []ReasonCode `json:"reasons"`
	CancelReasons []ReasonCode `json:"cancel_reasons,omitempty"`
}

// ConfidenceLabel buckets the confidence score for display
func (s *SignalScore) ConfidenceLabel() string {
	switch {
	case s.Confidence >= 70:
		return "strong"
	case s.Confidence >= 35:
		return "normal"
	default:
		return "weak"
	}
}

// TradeSetup is a concrete trade plan. For a BUY setup
// StopLoss < Entry < Target1 <= Target2; for a SELL the inequalities invert.
type TradeSetup struct {
	Entry      float64 `json:"entry"`
	StopLoss   float64 `json:"stop_loss"`
	Target1    float64 `json:"target1"`
	Target2    float64 `json:"target2"`
	RiskReward float64 `json:"risk_reward"`
}

// Signal is the orchestrator output for one instrument in one evaluation
type Signal struct {
	Symbol    string  `json:"symbol"`
	Timeframe string  `json:"timeframe"`
	Strategy  string  `json:"strategy"`
	Price     float64 `json:"price"`
	Action    Action  `json:"action"`

	Score SignalScore `json:"score"`
	Setup *TradeSetup `json:"setup,omitempty"`

	Indicators *IndicatorSnapshot `json:"indicators,omitempty"`
	Structure  *StructureSnapshot `json:"structure,omitempty"`

	SignalSince      time.Time `json:"signal_since"`
	SignalAgeSeconds int       `json:"signal_age_seconds"`
	EvaluatedAt      time.Time `json:"evaluated_at"`
}

// SkipReason classifies why an instrument produced no signal this cycle
type SkipReason string

const (
	SkipInsufficientData SkipReason = "DATA_INSUFFICIENT"
	SkipMalformedData    SkipReason = "DATA_MALFORMED"
	SkipFetchFailure     SkipReason = "FETCH_FAILURE"
	SkipComputation      SkipReason = "COMPUTATION_ERROR"
)

// Skip records an instrument excluded from a cycle without failing the batch
type Skip struct {
	Symbol string     `json:"symbol"`
	Reason SkipReason `json:"reason"`
	Detail string     `json:"detail,omitempty"`
}

// Batch is the full result of one evaluation cycle
type Batch struct {
	Signals     []Signal  `json:"signals"`
	Actionable  []Signal  `json:"actionable"`
	Skipped     []Skip    `json:"skipped,omitempty"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}
