package strategy

import (
	"testing"
	"time"

	"github.com/rami12200/trading-signals-sub000/pkg/config"
	"github.com/rami12200/trading-signals-sub000/pkg/models"
)

func testScoringConfig() *config.ScoringConfig {
	return &config.ScoringConfig{
		MinScore:              30,
		MinMargin:             10,
		LiquidityTolerancePct: 0.5,
	}
}

func bullishCandle(close float64, volume float64) models.Candle {
	return models.Candle{
		OpenTime: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
		Open:     close - 1,
		High:     close + 0.2,
		Low:      close - 1.2,
		Close:    close,
		Volume:   volume,
	}
}

func bullishInput() *Input {
	return &Input{
		Candles: []models.Candle{bullishCandle(105, 1000)},
		Price:   105,
		Indicators: &models.IndicatorSnapshot{
			EMA:  map[int]float64{9: 104.5, 21: 103.2},
			RSI:  62,
			MACD: models.MACDResult{Line: 0.8, Signal: 0.5, Histogram: 0.3},
			Volume: models.VolumeResult{
				Current: 1000,
				Average: 500,
				Spike:   true,
			},
		},
		Structure: &models.StructureSnapshot{
			BOS:  models.BOSBullish,
			VWAP: 103.0,
		},
	}
}

func TestForName(t *testing.T) {
	cfg := testScoringConfig()

	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"classic", "classic", false},
		{"smc", "smc", false},
		{"ict", "smc", false},
		{"martingale", "", true},
	}
	for _, tt := range tests {
		s, err := ForName(tt.name, cfg)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ForName(%q): expected error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ForName(%q): %v", tt.name, err)
		}
		if s.Name() != tt.want {
			t.Errorf("ForName(%q).Name() = %q, want %q", tt.name, s.Name(), tt.want)
		}
	}
}

func TestClassicFullBullishAlignment(t *testing.T) {
	c := NewClassic(testScoringConfig())
	score := c.Evaluate(bullishInput())

	if score.Action != models.ActionBuy {
		t.Fatalf("action = %s, want BUY (reasons %v)", score.Action, score.Reasons)
	}
	// EMA 20 + RSI 15 + MACD 20 + BOS 15 + VWAP 5 + volume 10
	if score.BuyScore != 85 {
		t.Errorf("buy score = %d, want 85", score.BuyScore)
	}
	if score.SellScore != 0 {
		t.Errorf("sell score = %d, want 0", score.SellScore)
	}
	if score.Confidence < 35 {
		t.Errorf("confidence = %d, want >= 35", score.Confidence)
	}
	if len(score.Reasons) != 6 {
		t.Errorf("reasons = %v, want 6 entries", score.Reasons)
	}
}

func TestClassicNeutralMarketWaits(t *testing.T) {
	c := NewClassic(testScoringConfig())
	in := &Input{
		Candles: []models.Candle{bullishCandle(100, 500)},
		Price:   100,
		Indicators: &models.IndicatorSnapshot{
			EMA: map[int]float64{9: 100, 21: 100},
			RSI: 50,
		},
		Structure: &models.StructureSnapshot{VWAP: 100},
	}

	score := c.Evaluate(in)
	if score.Action != models.ActionWait {
		t.Fatalf("action = %s, want WAIT", score.Action)
	}
	found := false
	for _, r := range score.Reasons {
		if r == models.ReasonInsufficientMomentum {
			found = true
		}
	}
	if !found {
		t.Errorf("reasons = %v, want INSUFFICIENT_MOMENTUM", score.Reasons)
	}
}

func TestClassicMarginGate(t *testing.T) {
	// Both sides accumulate points; winner clears MinScore but not MinMargin.
	c := NewClassic(testScoringConfig())
	in := &Input{
		Candles: []models.Candle{bullishCandle(100, 500)},
		Price:   99,
		Indicators: &models.IndicatorSnapshot{
			EMA:  map[int]float64{9: 101, 21: 100},
			RSI:  45,
			MACD: models.MACDResult{Histogram: 0.2},
		},
		Structure: &models.StructureSnapshot{VWAP: 100},
	}

	score := c.Evaluate(in)
	// buy: EMA 20 + MACD 20 = 40, sell: RSI 15 + VWAP 5 + volume 0 = 20,
	// margin 20 passes; tighten the margin and it must flip to WAIT
	if score.Action != models.ActionBuy {
		t.Fatalf("action = %s, want BUY with margin 20", score.Action)
	}

	tight := testScoringConfig()
	tight.MinMargin = 25
	score = NewClassic(tight).Evaluate(in)
	if score.Action != models.ActionWait {
		t.Errorf("action = %s, want WAIT under margin 25", score.Action)
	}
}

func TestClassicNilIndicatorsWaits(t *testing.T) {
	c := NewClassic(testScoringConfig())
	score := c.Evaluate(&Input{})
	if score.Action != models.ActionWait {
		t.Fatalf("action = %s, want WAIT", score.Action)
	}
	if len(score.Reasons) != 1 || score.Reasons[0] != models.ReasonInsufficientData {
		t.Errorf("reasons = %v, want [INSUFFICIENT_DATA]", score.Reasons)
	}
}

func TestClassicExitBuy(t *testing.T) {
	c := NewClassic(testScoringConfig())
	in := bullishInput()
	in.Indicators.RSI = 74
	in.Indicators.MACD.Histogram = -0.1

	score := c.Evaluate(in)
	if score.Action != models.ActionExitBuy {
		t.Fatalf("action = %s, want EXIT_BUY", score.Action)
	}
}

func TestClassicExitSell(t *testing.T) {
	c := NewClassic(testScoringConfig())
	in := bullishInput()
	in.Indicators.EMA = map[int]float64{9: 98, 21: 99}
	in.Indicators.RSI = 26
	in.Indicators.MACD.Histogram = 0.1

	score := c.Evaluate(in)
	if score.Action != models.ActionExitSell {
		t.Fatalf("action = %s, want EXIT_SELL", score.Action)
	}
}

func smcInput() *Input {
	return &Input{
		Candles: []models.Candle{bullishCandle(105, 2000)},
		Price:   105,
		Indicators: &models.IndicatorSnapshot{
			EMA:    map[int]float64{9: 104, 21: 103},
			RSI:    60,
			Volume: models.VolumeResult{Current: 2000, Average: 900, Spike: true},
		},
		Structure: &models.StructureSnapshot{
			BOS:  models.BOSBullish,
			PDH:  104.0,
			PDL:  98.0,
			VWAP: 102,
			Liquidity: []models.LiquidityLevel{
				{Price: 104.0, Kind: models.LevelHigh, Label: "pdh", Swept: true},
			},
			Displacement: models.DisplacementResult{
				Detected:      true,
				Direction:     models.DirectionUp,
				StrengthScore: 1.8,
			},
			KillZone: "london",
		},
	}
}

func TestSmartMoneyFullSetupBuys(t *testing.T) {
	s := NewSmartMoney(testScoringConfig())
	score := s.Evaluate(smcInput())

	if score.Action != models.ActionBuy {
		t.Fatalf("action = %s, want BUY (cancel %v)", score.Action, score.CancelReasons)
	}
	if len(score.CancelReasons) != 0 {
		t.Errorf("cancel reasons = %v, want none", score.CancelReasons)
	}
	// base 85 + strength bonus 8 + kill zone 10 + BOS 10
	if score.BuyScore != 113 {
		t.Errorf("buy score = %d, want 113", score.BuyScore)
	}
	if score.Confidence != 100 {
		t.Errorf("confidence = %d, want 100 (capped)", score.Confidence)
	}
}

func TestSmartMoneyCancelReasons(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
		want   models.ReasonCode
	}{
		{
			"no trigger",
			func(in *Input) {
				in.Indicators.Volume.Spike = false
				in.Candles[0].Close = 103 // inside the prior day range
				in.Price = 103
			},
			models.CancelNoTrigger,
		},
		{
			"no liquidity contact",
			func(in *Input) {
				in.Structure.Liquidity = nil
			},
			models.CancelNoLiquidityContact,
		},
		{
			"no displacement",
			func(in *Input) {
				in.Structure.Displacement = models.DisplacementResult{}
			},
			models.CancelNoDisplacement,
		},
		{
			"exhaustion",
			func(in *Input) {
				in.Structure.Exhaustion = models.ExhaustionResult{Detected: true, WickRatio: 2.4}
			},
			models.CancelExhaustion,
		},
	}

	s := NewSmartMoney(testScoringConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := smcInput()
			tt.mutate(in)

			score := s.Evaluate(in)
			if score.Action != models.ActionWait {
				t.Fatalf("action = %s, want WAIT", score.Action)
			}
			found := false
			for _, r := range score.CancelReasons {
				if r == tt.want {
					found = true
				}
			}
			if !found {
				t.Errorf("cancel reasons = %v, want %s", score.CancelReasons, tt.want)
			}
		})
	}
}

func TestSmartMoneyLiquidityProximity(t *testing.T) {
	s := NewSmartMoney(testScoringConfig())
	in := smcInput()
	in.Structure.Liquidity = []models.LiquidityLevel{
		{Price: 105.3, Kind: models.LevelHigh, Label: "asian_high"},
	}

	// 105.3 is within 0.5% of 105
	score := s.Evaluate(in)
	if score.Action != models.ActionBuy {
		t.Fatalf("action = %s, want BUY via proximity (cancel %v)", score.Action, score.CancelReasons)
	}

	in.Structure.Liquidity[0].Price = 110
	score = s.Evaluate(in)
	if score.Action != models.ActionWait {
		t.Errorf("action = %s, want WAIT when no level is near", score.Action)
	}
}

func TestSmartMoneySellDirection(t *testing.T) {
	s := NewSmartMoney(testScoringConfig())
	in := smcInput()
	in.Candles[0].Close = 97 // under PDL
	in.Price = 97
	in.Structure.BOS = models.BOSBearish
	in.Structure.Displacement.Direction = models.DirectionDown
	in.Structure.Liquidity = []models.LiquidityLevel{
		{Price: 98.0, Kind: models.LevelLow, Label: "pdl", Swept: true},
	}

	score := s.Evaluate(in)
	if score.Action != models.ActionSell {
		t.Fatalf("action = %s, want SELL (cancel %v)", score.Action, score.CancelReasons)
	}
	if score.SellScore == 0 || score.BuyScore != 0 {
		t.Errorf("scores buy=%d sell=%d, want sell side only", score.BuyScore, score.SellScore)
	}
}

func TestConfidenceMonotonicInReasons(t *testing.T) {
	prev := -1
	for n := 0; n <= 10; n++ {
		c := confidence(40, n)
		if c < prev {
			t.Fatalf("confidence(40, %d) = %d < confidence(40, %d) = %d", n, c, n-1, prev)
		}
		if c > 100 {
			t.Fatalf("confidence(40, %d) = %d exceeds 100", n, c)
		}
		prev = c
	}
}
