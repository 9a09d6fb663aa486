// Package setup builds concrete trade plans for actionable signals. Two
// placement methods are supported: volatility-scaled distances from ATR, and
// structural levels with an ATR fallback when none are close enough.
package setup

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/rami12200/trading-signals-sub000/pkg/models"
)

// ATR multiples for the volatility path. Targets sit strictly beyond the stop
// distance so the reward ratio stays above one.
const (
	atrStopMultiple    = 1.0
	atrTarget1Multiple = 1.5
	atrTarget2Multiple = 2.5

	// structureMaxATRDistance bounds how far a structural stop may sit from
	// the entry before the calculator falls back to the ATR method.
	structureMaxATRDistance = 3.0

	// stopBufferATRFraction pushes the stop just beyond the invalidating
	// level so an exact retest does not knock the position out.
	stopBufferATRFraction = 0.25
)

// Calculator rounds all plan prices to the instrument's decimal precision
type Calculator struct {
	scale int32
}

// NewCalculator creates a setup calculator for instruments quoted with the
// given number of decimal places.
func NewCalculator(scale int32) *Calculator {
	return &Calculator{scale: scale}
}

// Build produces a trade plan for a BUY or SELL action. When useStructure is
// set and a usable invalidating level exists, the plan is anchored to
// structural levels; otherwise distances are ATR multiples.
func (c *Calculator) Build(action models.Action, price, atr float64, st *models.StructureSnapshot, useStructure bool) (*models.TradeSetup, error) {
	if action != models.ActionBuy && action != models.ActionSell {
		return nil, fmt.Errorf("no setup for action %s", action)
	}
	if price <= 0 {
		return nil, fmt.Errorf("invalid price %v", price)
	}
	if atr <= 0 {
		return nil, fmt.Errorf("invalid atr %v", atr)
	}

	if useStructure && st != nil {
		if ts, ok := c.fromStructure(action, price, atr, st); ok {
			return ts, nil
		}
	}

	return c.fromATR(action, price, atr)
}

// fromATR places the stop and targets at fixed ATR multiples from the entry
func (c *Calculator) fromATR(action models.Action, price, atr float64) (*models.TradeSetup, error) {
	dir := 1.0
	if action == models.ActionSell {
		dir = -1.0
	}

	return c.finalize(action,
		price,
		price-dir*atrStopMultiple*atr,
		price+dir*atrTarget1Multiple*atr,
		price+dir*atrTarget2Multiple*atr,
	)
}

// fromStructure anchors the stop beyond the nearest invalidating level and
// the targets at the next levels in the trade direction. Returns ok=false
// when no invalidating level sits within range, letting the caller fall back.
func (c *Calculator) fromStructure(action models.Action, price, atr float64, st *models.StructureSnapshot) (*models.TradeSetup, bool) {
	buffer := stopBufferATRFraction * atr

	var stop float64
	var targets []float64

	if action == models.ActionBuy {
		sup := nearestBelow(st.Support, price)
		if sup == 0 || price-sup > structureMaxATRDistance*atr {
			return nil, false
		}
		stop = sup - buffer
		targets = levelsAbove(st.Resistance, price)
	} else {
		res := nearestAbove(st.Resistance, price)
		if res == 0 || res-price > structureMaxATRDistance*atr {
			return nil, false
		}
		stop = res + buffer
		targets = levelsBelow(st.Support, price)
	}

	t1, t2, ok := pickTargets(action, price, atr, targets)
	if !ok {
		return nil, false
	}

	ts, err := c.finalize(action, price, stop, t1, t2)
	if err != nil {
		return nil, false
	}
	return ts, true
}

// pickTargets selects the next one or two structural levels in the trade
// direction, padding the second target with an ATR extension when only one
// level is available.
func pickTargets(action models.Action, price, atr float64, levels []float64) (float64, float64, bool) {
	if len(levels) == 0 {
		return 0, 0, false
	}

	t1 := levels[0]
	t2 := t1
	if len(levels) > 1 {
		t2 = levels[1]
	} else if action == models.ActionBuy {
		t2 = t1 + atr
	} else {
		t2 = t1 - atr
	}
	return t1, t2, true
}

// finalize rounds all prices to the instrument precision and verifies the
// ordering invariants survived rounding.
func (c *Calculator) finalize(action models.Action, entry, stop, t1, t2 float64) (*models.TradeSetup, error) {
	entry = c.round(entry)
	stop = c.round(stop)
	t1 = c.round(t1)
	t2 = c.round(t2)

	if action == models.ActionBuy {
		if !(stop < entry && entry < t1 && t1 <= t2) {
			return nil, fmt.Errorf("degenerate buy setup: sl=%v entry=%v t1=%v t2=%v", stop, entry, t1, t2)
		}
	} else {
		if !(stop > entry && entry > t1 && t1 >= t2) {
			return nil, fmt.Errorf("degenerate sell setup: sl=%v entry=%v t1=%v t2=%v", stop, entry, t1, t2)
		}
	}

	risk := abs(entry - stop)
	reward := abs(t1 - entry)

	return &models.TradeSetup{
		Entry:      entry,
		StopLoss:   stop,
		Target1:    t1,
		Target2:    t2,
		RiskReward: c.roundRatio(reward / risk),
	}, nil
}

func (c *Calculator) round(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(c.scale).Float64()
	return f
}

func (c *Calculator) roundRatio(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// nearestBelow returns the closest level price strictly under the reference
func nearestBelow(levels []models.PriceLevel, price float64) float64 {
	best := 0.0
	for _, lvl := range levels {
		if lvl.Price < price && lvl.Price > best {
			best = lvl.Price
		}
	}
	return best
}

// nearestAbove returns the closest level price strictly over the reference
func nearestAbove(levels []models.PriceLevel, price float64) float64 {
	best := 0.0
	for _, lvl := range levels {
		if lvl.Price > price && (best == 0 || lvl.Price < best) {
			best = lvl.Price
		}
	}
	return best
}

// levelsAbove returns level prices over the reference, nearest first
func levelsAbove(levels []models.PriceLevel, price float64) []float64 {
	var out []float64
	for _, lvl := range levels {
		if lvl.Price > price {
			out = append(out, lvl.Price)
		}
	}
	sort.Float64s(out)
	return out
}

// levelsBelow returns level prices under the reference, nearest first
func levelsBelow(levels []models.PriceLevel, price float64) []float64 {
	var out []float64
	for _, lvl := range levels {
		if lvl.Price < price {
			out = append(out, lvl.Price)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(out)))
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
