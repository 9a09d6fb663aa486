package strategy

import (
	"github.com/rami12200/trading-signals-sub000/pkg/config"
	"github.com/rami12200/trading-signals-sub000/pkg/models"
)

// Classic condition weights. Chosen so a full bullish alignment scores 85
// and any two strong confirmations clear the default minimum.
const (
	weightEMACross  = 20
	weightMACD      = 20
	weightRSIZone   = 15
	weightBOS       = 15
	weightVolume    = 10
	weightVWAPSide  = 5
	rsiOverbought   = 70.0
	rsiOversold     = 30.0
)

// Classic is the indicator-confluence scorer: EMA trend, RSI zone, MACD
// momentum, break of structure, volume and VWAP side each contribute fixed
// points to one side of the book.
type Classic struct {
	cfg *config.ScoringConfig
}

// NewClassic creates the classic strategy scorer
func NewClassic(cfg *config.ScoringConfig) *Classic {
	return &Classic{cfg: cfg}
}

func (c *Classic) Name() string { return "classic" }

// Evaluate scores one instrument. Exit conditions for an in-progress regime
// take precedence over fresh entries.
func (c *Classic) Evaluate(in *Input) models.SignalScore {
	ind := in.Indicators
	if ind == nil {
		return waitScore(models.ReasonInsufficientData)
	}

	score := models.SignalScore{Action: models.ActionWait}

	emaFast, hasFast := ind.EMA[9]
	emaSlow, hasSlow := ind.EMA[21]

	if exit := c.exitSignal(ind, hasFast && hasSlow, emaFast, emaSlow); exit != nil {
		return *exit
	}

	var buyReasons, sellReasons []models.ReasonCode

	if hasFast && hasSlow {
		if emaFast > emaSlow {
			score.BuyScore += weightEMACross
			buyReasons = append(buyReasons, models.ReasonEMABullishCross)
		} else if emaFast < emaSlow {
			score.SellScore += weightEMACross
			sellReasons = append(sellReasons, models.ReasonEMABearishCross)
		}
	}

	// Directional RSI zone, extremes excluded
	if ind.RSI > 50 && ind.RSI < rsiOverbought {
		score.BuyScore += weightRSIZone
		buyReasons = append(buyReasons, models.ReasonRSIBullishZone)
	} else if ind.RSI < 50 && ind.RSI > rsiOversold {
		score.SellScore += weightRSIZone
		sellReasons = append(sellReasons, models.ReasonRSIBearishZone)
	}

	if ind.MACD.Histogram > 0 {
		score.BuyScore += weightMACD
		buyReasons = append(buyReasons, models.ReasonMACDBullish)
	} else if ind.MACD.Histogram < 0 {
		score.SellScore += weightMACD
		sellReasons = append(sellReasons, models.ReasonMACDBearish)
	}

	if st := in.Structure; st != nil {
		switch st.BOS {
		case models.BOSBullish:
			score.BuyScore += weightBOS
			buyReasons = append(buyReasons, models.ReasonBOSBullish)
		case models.BOSBearish:
			score.SellScore += weightBOS
			sellReasons = append(sellReasons, models.ReasonBOSBearish)
		}

		if st.VWAP > 0 {
			if in.Price > st.VWAP {
				score.BuyScore += weightVWAPSide
				buyReasons = append(buyReasons, models.ReasonAboveVWAP)
			} else if in.Price < st.VWAP {
				score.SellScore += weightVWAPSide
				sellReasons = append(sellReasons, models.ReasonBelowVWAP)
			}
		}
	}

	if ind.Volume.Spike && len(in.Candles) > 0 {
		last := in.Candles[len(in.Candles)-1]
		if last.Bullish() {
			score.BuyScore += weightVolume
			buyReasons = append(buyReasons, models.ReasonVolumeSpike)
		} else {
			score.SellScore += weightVolume
			sellReasons = append(sellReasons, models.ReasonVolumeSpike)
		}
	}

	return c.decide(score, buyReasons, sellReasons)
}

// decide picks the winning side when it clears the minimum score and margin
func (c *Classic) decide(score models.SignalScore, buyReasons, sellReasons []models.ReasonCode) models.SignalScore {
	win, lose := score.BuyScore, score.SellScore
	action := models.ActionBuy
	reasons := buyReasons
	if score.SellScore > score.BuyScore {
		win, lose = score.SellScore, score.BuyScore
		action = models.ActionSell
		reasons = sellReasons
	}

	if win < c.cfg.MinScore || win-lose < c.cfg.MinMargin {
		score.Action = models.ActionWait
		score.Reasons = append(reasons, models.ReasonInsufficientMomentum)
		score.Confidence = confidence(win, 0)
		return score
	}

	score.Action = action
	score.Reasons = reasons
	score.Confidence = confidence(win, len(reasons))
	return score
}

// exitSignal detects an extreme-RSI, fading-momentum close of a directional
// regime: overbought with a negative histogram while the trend is still up
// exits longs, mirrored for shorts.
func (c *Classic) exitSignal(ind *models.IndicatorSnapshot, hasEMAs bool, emaFast, emaSlow float64) *models.SignalScore {
	if !hasEMAs {
		return nil
	}

	if emaFast > emaSlow && ind.RSI >= rsiOverbought && ind.MACD.Histogram < 0 {
		return &models.SignalScore{
			Action:     models.ActionExitBuy,
			Confidence: confidence(weightEMACross+weightRSIZone, 2),
			Reasons:    []models.ReasonCode{models.ReasonRSIOverbought, models.ReasonMomentumFading},
		}
	}

	if emaFast < emaSlow && ind.RSI <= rsiOversold && ind.MACD.Histogram > 0 {
		return &models.SignalScore{
			Action:     models.ActionExitSell,
			Confidence: confidence(weightEMACross+weightRSIZone, 2),
			Reasons:    []models.ReasonCode{models.ReasonRSIOversold, models.ReasonMomentumFading},
		}
	}

	return nil
}
