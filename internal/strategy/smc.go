package strategy

import (
	"math"

	"github.com/rami12200/trading-signals-sub000/pkg/config"
	"github.com/rami12200/trading-signals-sub000/pkg/models"
)

// Smart-money weights. The three hard requirements carry most of the score;
// confirmations on top push a clean setup into the strong bucket.
const (
	weightTrigger        = 25
	weightLiquidity      = 25
	weightDisplacement   = 25
	weightNoExhaustion   = 10
	weightKillZone       = 10
	weightBOSAlignment   = 10
	displacementBonusCap = 15
)

// SmartMoney is the liquidity-driven scorer. An entry requires a trigger
// (volume spike, session break or PDH/PDL break), contact with a liquidity
// level, displacement in the trade direction and absence of exhaustion;
// each missing requirement is surfaced as a cancel reason.
type SmartMoney struct {
	cfg *config.ScoringConfig
}

// NewSmartMoney creates the smart-money strategy scorer
func NewSmartMoney(cfg *config.ScoringConfig) *SmartMoney {
	return &SmartMoney{cfg: cfg}
}

func (s *SmartMoney) Name() string { return "smc" }

// Evaluate scores one instrument against the smart-money requirements
func (s *SmartMoney) Evaluate(in *Input) models.SignalScore {
	ind := in.Indicators
	st := in.Structure
	if ind == nil || st == nil || len(in.Candles) == 0 {
		return waitScore(models.ReasonInsufficientData)
	}

	score := models.SignalScore{Action: models.ActionWait}
	var reasons []models.ReasonCode

	last := in.Candles[len(in.Candles)-1]

	// Requirement 1: a trigger event
	trigger, triggerReasons := s.findTrigger(last, ind, st)
	reasons = append(reasons, triggerReasons...)

	// Requirement 2: liquidity contact (sweep or proximity)
	liquidity, liquidityReason := s.liquidityContact(in.Price, st)
	if liquidity {
		reasons = append(reasons, liquidityReason)
	}

	// Requirement 3: displacement sets the trade direction
	displacement := st.Displacement.Detected

	// Requirement 4: no exhaustion against the move
	exhausted := st.Exhaustion.Detected

	if !trigger {
		score.CancelReasons = append(score.CancelReasons, models.CancelNoTrigger)
	}
	if !liquidity {
		score.CancelReasons = append(score.CancelReasons, models.CancelNoLiquidityContact)
	}
	if !displacement {
		score.CancelReasons = append(score.CancelReasons, models.CancelNoDisplacement)
	}
	if exhausted {
		score.CancelReasons = append(score.CancelReasons, models.CancelExhaustion)
	}

	if len(score.CancelReasons) > 0 {
		score.Reasons = reasons
		return score
	}

	points := weightTrigger + weightLiquidity + weightDisplacement + weightNoExhaustion
	reasons = append(reasons, models.ReasonNoExhaustion)

	// Displacement strength above the detection threshold earns a bonus
	bonus := int(math.Round((st.Displacement.StrengthScore - 1) * 10))
	if bonus > displacementBonusCap {
		bonus = displacementBonusCap
	}
	if bonus > 0 {
		points += bonus
	}

	action := models.ActionSell
	if st.Displacement.Direction == models.DirectionUp {
		action = models.ActionBuy
		reasons = append(reasons, models.ReasonDisplacementUp)
	} else {
		reasons = append(reasons, models.ReasonDisplacementDown)
	}

	if st.KillZone != "" {
		points += weightKillZone
		reasons = append(reasons, models.ReasonKillZoneActive)
	}

	if (action == models.ActionBuy && st.BOS == models.BOSBullish) ||
		(action == models.ActionSell && st.BOS == models.BOSBearish) {
		points += weightBOSAlignment
		if action == models.ActionBuy {
			reasons = append(reasons, models.ReasonBOSBullish)
		} else {
			reasons = append(reasons, models.ReasonBOSBearish)
		}
	}

	if action == models.ActionBuy {
		score.BuyScore = points
	} else {
		score.SellScore = points
	}

	if points < s.cfg.MinScore {
		score.Action = models.ActionWait
		score.Reasons = append(reasons, models.ReasonInsufficientMomentum)
		score.Confidence = confidence(points, 0)
		return score
	}

	score.Action = action
	score.Reasons = reasons
	score.Confidence = confidence(points, len(reasons))
	return score
}

// findTrigger checks the three smart-money trigger events
func (s *SmartMoney) findTrigger(last models.Candle, ind *models.IndicatorSnapshot, st *models.StructureSnapshot) (bool, []models.ReasonCode) {
	var reasons []models.ReasonCode

	if ind.Volume.Spike {
		reasons = append(reasons, models.ReasonVolumeSpike)
	}

	if st.AsianHigh > 0 && last.Close > st.AsianHigh {
		reasons = append(reasons, models.ReasonSessionBreak)
	} else if st.AsianLow > 0 && last.Close < st.AsianLow {
		reasons = append(reasons, models.ReasonSessionBreak)
	}

	if st.PDH > 0 && last.Close > st.PDH {
		reasons = append(reasons, models.ReasonPDHBreak)
	} else if st.PDL > 0 && last.Close < st.PDL {
		reasons = append(reasons, models.ReasonPDLBreak)
	}

	return len(reasons) > 0, reasons
}

// liquidityContact reports a swept level or price within tolerance of one
func (s *SmartMoney) liquidityContact(price float64, st *models.StructureSnapshot) (bool, models.ReasonCode) {
	tolerance := s.cfg.LiquidityTolerancePct / 100

	for _, lvl := range st.Liquidity {
		if lvl.Swept {
			return true, models.ReasonLiquiditySweep
		}
	}
	for _, lvl := range st.Liquidity {
		if price > 0 && math.Abs(price-lvl.Price)/price <= tolerance {
			return true, models.ReasonLiquidityProximity
		}
	}

	return false, ""
}
