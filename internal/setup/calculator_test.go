package setup

import (
	"math"
	"testing"

	"github.com/rami12200/trading-signals-sub000/pkg/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func assertBuyOrdering(t *testing.T, ts *models.TradeSetup) {
	t.Helper()
	if !(ts.StopLoss < ts.Entry && ts.Entry < ts.Target1 && ts.Target1 <= ts.Target2) {
		t.Fatalf("buy ordering violated: sl=%v entry=%v t1=%v t2=%v", ts.StopLoss, ts.Entry, ts.Target1, ts.Target2)
	}
	if ts.RiskReward <= 0 {
		t.Fatalf("risk reward = %v, want > 0", ts.RiskReward)
	}
}

func assertSellOrdering(t *testing.T, ts *models.TradeSetup) {
	t.Helper()
	if !(ts.StopLoss > ts.Entry && ts.Entry > ts.Target1 && ts.Target1 >= ts.Target2) {
		t.Fatalf("sell ordering violated: sl=%v entry=%v t1=%v t2=%v", ts.StopLoss, ts.Entry, ts.Target1, ts.Target2)
	}
	if ts.RiskReward <= 0 {
		t.Fatalf("risk reward = %v, want > 0", ts.RiskReward)
	}
}

func TestATRBuySetup(t *testing.T) {
	c := NewCalculator(2)
	ts, err := c.Build(models.ActionBuy, 100, 2, nil, false)
	if err != nil {
		t.Fatal(err)
	}

	assertBuyOrdering(t, ts)
	if !almostEqual(ts.StopLoss, 98) {
		t.Errorf("stop = %v, want 98", ts.StopLoss)
	}
	if !almostEqual(ts.Target1, 103) {
		t.Errorf("t1 = %v, want 103", ts.Target1)
	}
	if !almostEqual(ts.Target2, 105) {
		t.Errorf("t2 = %v, want 105", ts.Target2)
	}
	if !almostEqual(ts.RiskReward, 1.5) {
		t.Errorf("rr = %v, want 1.5", ts.RiskReward)
	}
}

func TestATRSellSetupMirrors(t *testing.T) {
	c := NewCalculator(2)
	ts, err := c.Build(models.ActionSell, 100, 2, nil, false)
	if err != nil {
		t.Fatal(err)
	}

	assertSellOrdering(t, ts)
	if !almostEqual(ts.StopLoss, 102) || !almostEqual(ts.Target1, 97) || !almostEqual(ts.Target2, 95) {
		t.Errorf("sell plan = %+v", ts)
	}
}

func TestStructureBuySetup(t *testing.T) {
	c := NewCalculator(2)
	st := &models.StructureSnapshot{
		Support: []models.PriceLevel{
			{Price: 98.5, Kind: models.LevelLow, Touches: 3},
			{Price: 96.0, Kind: models.LevelLow, Touches: 2},
		},
		Resistance: []models.PriceLevel{
			{Price: 102.0, Kind: models.LevelHigh, Touches: 2},
			{Price: 104.5, Kind: models.LevelHigh, Touches: 1},
		},
	}

	ts, err := c.Build(models.ActionBuy, 100, 2, st, true)
	if err != nil {
		t.Fatal(err)
	}

	assertBuyOrdering(t, ts)
	// stop under the nearest support less a quarter-ATR buffer
	if !almostEqual(ts.StopLoss, 98.0) {
		t.Errorf("stop = %v, want 98.0", ts.StopLoss)
	}
	if !almostEqual(ts.Target1, 102.0) || !almostEqual(ts.Target2, 104.5) {
		t.Errorf("targets = %v/%v, want 102.0/104.5", ts.Target1, ts.Target2)
	}
}

func TestStructureSellSetup(t *testing.T) {
	c := NewCalculator(2)
	st := &models.StructureSnapshot{
		Support: []models.PriceLevel{
			{Price: 97.0, Kind: models.LevelLow},
			{Price: 95.0, Kind: models.LevelLow},
		},
		Resistance: []models.PriceLevel{
			{Price: 101.5, Kind: models.LevelHigh},
		},
	}

	ts, err := c.Build(models.ActionSell, 100, 2, st, true)
	if err != nil {
		t.Fatal(err)
	}

	assertSellOrdering(t, ts)
	if !almostEqual(ts.StopLoss, 102.0) {
		t.Errorf("stop = %v, want 102.0", ts.StopLoss)
	}
	if !almostEqual(ts.Target1, 97.0) || !almostEqual(ts.Target2, 95.0) {
		t.Errorf("targets = %v/%v, want 97.0/95.0", ts.Target1, ts.Target2)
	}
}

func TestStructureFallsBackWhenLevelTooFar(t *testing.T) {
	c := NewCalculator(2)
	st := &models.StructureSnapshot{
		Support: []models.PriceLevel{
			// 3x ATR away is the limit; 10 > 6
			{Price: 90.0, Kind: models.LevelLow},
		},
		Resistance: []models.PriceLevel{
			{Price: 103.0, Kind: models.LevelHigh},
		},
	}

	ts, err := c.Build(models.ActionBuy, 100, 2, st, true)
	if err != nil {
		t.Fatal(err)
	}
	// ATR fallback distances
	if !almostEqual(ts.StopLoss, 98) || !almostEqual(ts.Target1, 103) || !almostEqual(ts.Target2, 105) {
		t.Errorf("fallback plan = %+v, want ATR distances", ts)
	}
}

func TestStructureFallsBackWithoutTargets(t *testing.T) {
	c := NewCalculator(2)
	st := &models.StructureSnapshot{
		Support: []models.PriceLevel{{Price: 99.0, Kind: models.LevelLow}},
	}

	ts, err := c.Build(models.ActionBuy, 100, 2, st, true)
	if err != nil {
		t.Fatal(err)
	}
	assertBuyOrdering(t, ts)
	if !almostEqual(ts.StopLoss, 98) {
		t.Errorf("stop = %v, want ATR fallback 98", ts.StopLoss)
	}
}

func TestStructureSingleTargetExtendsWithATR(t *testing.T) {
	c := NewCalculator(2)
	st := &models.StructureSnapshot{
		Support:    []models.PriceLevel{{Price: 99.0, Kind: models.LevelLow}},
		Resistance: []models.PriceLevel{{Price: 103.0, Kind: models.LevelHigh}},
	}

	ts, err := c.Build(models.ActionBuy, 100, 2, st, true)
	if err != nil {
		t.Fatal(err)
	}
	assertBuyOrdering(t, ts)
	if !almostEqual(ts.Target1, 103.0) || !almostEqual(ts.Target2, 105.0) {
		t.Errorf("targets = %v/%v, want 103.0/105.0", ts.Target1, ts.Target2)
	}
}

func TestRoundingHonorsScale(t *testing.T) {
	c := NewCalculator(0)
	ts, err := c.Build(models.ActionBuy, 100.4, 2.3, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range []float64{ts.Entry, ts.StopLoss, ts.Target1, ts.Target2} {
		if v != math.Trunc(v) {
			t.Errorf("value %v not rounded to whole units", v)
		}
	}
	assertBuyOrdering(t, ts)
}

func TestBuildRejectsNonDirectionalActions(t *testing.T) {
	c := NewCalculator(2)
	for _, a := range []models.Action{models.ActionWait, models.ActionExitBuy, models.ActionExitSell} {
		if _, err := c.Build(a, 100, 2, nil, false); err == nil {
			t.Errorf("Build(%s): expected error", a)
		}
	}
}

func TestBuildRejectsZeroATR(t *testing.T) {
	c := NewCalculator(2)
	if _, err := c.Build(models.ActionBuy, 100, 0, nil, false); err == nil {
		t.Error("expected error for zero ATR")
	}
}
