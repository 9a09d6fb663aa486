package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rami12200/trading-signals-sub000/internal/exchange"
	"github.com/rami12200/trading-signals-sub000/pkg/config"
	"github.com/rami12200/trading-signals-sub000/pkg/models"
)

type fakeProvider struct {
	series map[string][]models.Candle
	errs   map[string]error
}

func (f *fakeProvider) GetCandles(_ context.Context, symbol, _ string, _ int) ([]models.Candle, error) {
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	return f.series[symbol], nil
}

type fakeFeed struct {
	price float64
	at    time.Time
}

func (f *fakeFeed) Quote(string) (float64, time.Time, bool) {
	if f.price == 0 {
		return 0, time.Time{}, false
	}
	return f.price, f.at, true
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func testEngineConfig() *config.EngineConfig {
	return &config.EngineConfig{
		Symbols:         []string{"BTCUSDT", "ETHUSDT"},
		Timeframe:       "15m",
		Strategy:        "classic",
		LookbackBars:    300,
		MaxConcurrency:  4,
		MinConfidence:   35,
		ContinuityTTL:   time.Hour,
		InstrumentScale: 4,
	}
}

func testStructureConfig() *config.StructureConfig {
	return &config.StructureConfig{
		SwingNeighbors:      3,
		LookbackBars:        120,
		ClusterTolerancePct: 0.3,
		SweepTickPct:        0.01,
		DisplacementFactor:  1.5,
		ExhaustionWickRatio: 2.0,
		AsianSessionStart:   0,
		AsianSessionEnd:     6,
		KillZones:           "london=07:00-10:00;newyork=12:00-15:00",
	}
}

func testScoringConfig() *config.ScoringConfig {
	return &config.ScoringConfig{MinScore: 30, MinMargin: 10, LiquidityTolerancePct: 0.5}
}

// risingSeries produces a steady uptrend: fast EMA above slow, positive MACD
// histogram, price above VWAP.
func risingSeries(n int) []models.Candle {
	base := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, n)
	for i := range candles {
		close := 100 + float64(i)*0.5
		candles[i] = models.Candle{
			OpenTime: base.Add(time.Duration(i) * 15 * time.Minute),
			Open:     close - 0.4,
			High:     close + 0.1,
			Low:      close - 0.5,
			Close:    close,
			Volume:   1000,
		}
	}
	return candles
}

func newTestEngine(t *testing.T, provider *fakeProvider, feed *fakeFeed) *Engine {
	t.Helper()
	var prices exchange.PriceFeed
	if feed != nil {
		prices = feed
	}

	e, err := New(testEngineConfig(), testScoringConfig(), testStructureConfig(), provider, prices, nil, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestEvaluateRisingUniverse(t *testing.T) {
	provider := &fakeProvider{series: map[string][]models.Candle{
		"BTCUSDT": risingSeries(300),
		"ETHUSDT": risingSeries(300),
	}}
	e := newTestEngine(t, provider, nil)

	batch, err := e.EvaluateUniverse(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(batch.Signals) != 2 {
		t.Fatalf("signals = %d, want 2 (skipped %v)", len(batch.Signals), batch.Skipped)
	}
	for _, sig := range batch.Signals {
		if sig.Action != models.ActionBuy {
			t.Errorf("%s action = %s, want BUY (reasons %v)", sig.Symbol, sig.Action, sig.Score.Reasons)
		}
		if sig.Setup == nil {
			t.Errorf("%s: actionable signal missing trade setup", sig.Symbol)
		} else if !(sig.Setup.StopLoss < sig.Setup.Entry && sig.Setup.Entry < sig.Setup.Target1) {
			t.Errorf("%s: setup ordering violated: %+v", sig.Symbol, sig.Setup)
		}
		if sig.Indicators == nil || sig.Structure == nil {
			t.Errorf("%s: missing snapshots", sig.Symbol)
		}
	}
	if len(batch.Actionable) == 0 {
		t.Error("expected actionable subset for a strong uptrend")
	}
}

func TestSkipIsolation(t *testing.T) {
	provider := &fakeProvider{
		series: map[string][]models.Candle{"BTCUSDT": risingSeries(300)},
		errs:   map[string]error{"ETHUSDT": errors.New("connection reset")},
	}
	e := newTestEngine(t, provider, nil)

	batch, err := e.EvaluateUniverse(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(batch.Signals) != 1 || batch.Signals[0].Symbol != "BTCUSDT" {
		t.Fatalf("signals = %+v, want BTCUSDT only", batch.Signals)
	}
	if len(batch.Skipped) != 1 {
		t.Fatalf("skipped = %+v, want one entry", batch.Skipped)
	}
	s := batch.Skipped[0]
	if s.Symbol != "ETHUSDT" || s.Reason != models.SkipFetchFailure {
		t.Errorf("skip = %+v, want ETHUSDT FETCH_FAILURE", s)
	}
}

func TestSkipReasonTaxonomy(t *testing.T) {
	short := risingSeries(10)

	malformed := risingSeries(300)
	malformed[120].High = malformed[120].Close - 5

	provider := &fakeProvider{series: map[string][]models.Candle{
		"BTCUSDT": short,
		"ETHUSDT": malformed,
	}}
	e := newTestEngine(t, provider, nil)

	batch, err := e.EvaluateUniverse(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(batch.Skipped) != 2 {
		t.Fatalf("skipped = %+v, want two entries", batch.Skipped)
	}

	byReason := map[string]models.SkipReason{}
	for _, s := range batch.Skipped {
		byReason[s.Symbol] = s.Reason
	}
	if byReason["BTCUSDT"] != models.SkipInsufficientData {
		t.Errorf("BTCUSDT reason = %s, want DATA_INSUFFICIENT", byReason["BTCUSDT"])
	}
	if byReason["ETHUSDT"] != models.SkipMalformedData {
		t.Errorf("ETHUSDT reason = %s, want DATA_MALFORMED", byReason["ETHUSDT"])
	}
}

func TestLivePriceOverridesLastClose(t *testing.T) {
	series := risingSeries(300)
	lastClose := series[len(series)-1].Close

	provider := &fakeProvider{series: map[string][]models.Candle{
		"BTCUSDT": series, "ETHUSDT": series,
	}}

	now := time.Date(2025, 3, 12, 13, 0, 0, 0, time.UTC)
	feed := &fakeFeed{price: lastClose + 3, at: now.Add(-5 * time.Second)}

	e := newTestEngine(t, provider, feed)
	e.now = func() time.Time { return now }

	batch, err := e.EvaluateUniverse(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if batch.Signals[0].Price != lastClose+3 {
		t.Errorf("price = %v, want live quote %v", batch.Signals[0].Price, lastClose+3)
	}

	// A stale quote falls back to the last close
	feed.at = now.Add(-5 * time.Minute)
	batch, err = e.EvaluateUniverse(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if batch.Signals[0].Price != lastClose {
		t.Errorf("price = %v, want last close %v after stale quote", batch.Signals[0].Price, lastClose)
	}
}

func TestSignalAgeContinuity(t *testing.T) {
	provider := &fakeProvider{series: map[string][]models.Candle{
		"BTCUSDT": risingSeries(300), "ETHUSDT": risingSeries(300),
	}}
	e := newTestEngine(t, provider, nil)

	start := time.Date(2025, 3, 12, 12, 0, 0, 0, time.UTC)
	clock := start
	e.now = func() time.Time { return clock }

	var since time.Time
	for cycle := 0; cycle < 3; cycle++ {
		batch, err := e.EvaluateUniverse(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		sig := batch.Signals[0]

		wantAge := int(clock.Sub(start).Seconds())
		if sig.SignalAgeSeconds != wantAge {
			t.Errorf("cycle %d: age = %d, want %d", cycle, sig.SignalAgeSeconds, wantAge)
		}
		if cycle == 0 {
			since = sig.SignalSince
		} else if !sig.SignalSince.Equal(since) {
			t.Errorf("cycle %d: SignalSince moved from %v to %v with unchanged action", cycle, since, sig.SignalSince)
		}

		clock = clock.Add(15 * time.Second)
	}
}

func TestMemoryStoreTTL(t *testing.T) {
	store := NewMemoryStore(time.Nanosecond)
	ctx := context.Background()
	key := ContinuityKey("BTCUSDT", "15m", "classic")

	if err := store.Set(ctx, key, &ContinuityState{Action: models.ActionBuy, Since: time.Now()}); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)

	state, err := store.Get(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if state != nil {
		t.Errorf("state = %+v, want nil after expiry", state)
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()
	key := ContinuityKey("ETHUSDT", "1h", "smc")
	since := time.Date(2025, 3, 12, 9, 30, 0, 0, time.UTC)

	if err := store.Set(ctx, key, &ContinuityState{Action: models.ActionSell, Since: since}); err != nil {
		t.Fatal(err)
	}
	state, err := store.Get(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if state == nil || state.Action != models.ActionSell || !state.Since.Equal(since) {
		t.Errorf("state = %+v, want SELL since %v", state, since)
	}

	missing, err := store.Get(ctx, ContinuityKey("XRPUSDT", "1h", "smc"))
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Errorf("missing key returned %+v", missing)
	}
}
