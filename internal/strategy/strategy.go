// Package strategy turns indicator and structure readouts into directional
// decisions with confidence scores and reason codes. Variants are selected by
// configuration; each evaluation is stateless and terminal per call.
package strategy

import (
	"fmt"
	"strings"

	"github.com/rami12200/trading-signals-sub000/pkg/config"
	"github.com/rami12200/trading-signals-sub000/pkg/models"
)

// Input bundles everything a strategy may inspect for one evaluation
type Input struct {
	Candles    []models.Candle
	Price      float64
	Indicators *models.IndicatorSnapshot
	Structure  *models.StructureSnapshot
}

// Strategy scores one instrument evaluation
type Strategy interface {
	Name() string
	Evaluate(in *Input) models.SignalScore
}

// ForName returns the strategy implementation for a configured variant.
// "ict" is an alias of "smc".
func ForName(name string, cfg *config.ScoringConfig) (Strategy, error) {
	switch strings.ToLower(name) {
	case "classic":
		return NewClassic(cfg), nil
	case "smc", "ict":
		return NewSmartMoney(cfg), nil
	default:
		return nil, fmt.Errorf("unknown strategy variant: %s", name)
	}
}

// confidence maps a winning score and its confirming reason count onto
// [0,100]. More independently-confirming reasons never lower confidence.
func confidence(winScore, reasonCount int) int {
	c := winScore + 4*reasonCount
	if c > 100 {
		c = 100
	}
	if c < 0 {
		c = 0
	}
	return c
}

// waitScore builds a WAIT result carrying the given reasons
func waitScore(reasons ...models.ReasonCode) models.SignalScore {
	return models.SignalScore{
		Action:  models.ActionWait,
		Reasons: reasons,
	}
}
