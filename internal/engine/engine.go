// Package engine orchestrates one evaluation cycle over an instrument
// universe: fetch candles, compute indicator and structure snapshots, score,
// build trade setups and merge continuity state. Instruments are evaluated
// concurrently under a bounded worker pool; a failure on one instrument
// degrades to a skip entry and never fails the batch.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rami12200/trading-signals-sub000/internal/exchange"
	"github.com/rami12200/trading-signals-sub000/internal/indicator"
	"github.com/rami12200/trading-signals-sub000/internal/setup"
	"github.com/rami12200/trading-signals-sub000/internal/strategy"
	"github.com/rami12200/trading-signals-sub000/internal/structure"
	"github.com/rami12200/trading-signals-sub000/pkg/config"
	"github.com/rami12200/trading-signals-sub000/pkg/models"
)

// priceFreshness is how recent a live quote must be to override the last
// candle close.
const priceFreshness = 30 * time.Second

// Engine evaluates the configured universe and produces signal batches
type Engine struct {
	cfg      *config.EngineConfig
	provider exchange.CandleProvider
	prices   exchange.PriceFeed
	strat    strategy.Strategy
	analyzer *structure.Analyzer
	calc     *setup.Calculator
	store    ContinuityStore
	logger   *logrus.Entry

	now func() time.Time
}

// New creates a signal engine. prices may be nil when no live feed is
// attached; store may be nil to disable continuity tracking.
func New(
	cfg *config.EngineConfig,
	scoring *config.ScoringConfig,
	structCfg *config.StructureConfig,
	provider exchange.CandleProvider,
	prices exchange.PriceFeed,
	store ContinuityStore,
	logger *logrus.Logger,
) (*Engine, error) {
	strat, err := strategy.ForName(cfg.Strategy, scoring)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve strategy: %w", err)
	}

	analyzer, err := structure.NewAnalyzer(structCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build structure analyzer: %w", err)
	}

	if store == nil {
		store = NewMemoryStore(cfg.ContinuityTTL)
	}

	return &Engine{
		cfg:      cfg,
		provider: provider,
		prices:   prices,
		strat:    strat,
		analyzer: analyzer,
		calc:     setup.NewCalculator(cfg.InstrumentScale),
		store:    store,
		logger:   logger.WithField("component", "engine"),
		now:      time.Now,
	}, nil
}

// Strategy returns the resolved strategy name
func (e *Engine) Strategy() string {
	return e.strat.Name()
}

type evalResult struct {
	signal *models.Signal
	skip   *models.Skip
}

// EvaluateUniverse runs one full cycle over the configured symbols
func (e *Engine) EvaluateUniverse(ctx context.Context) (*models.Batch, error) {
	return e.Evaluate(ctx, e.cfg.Symbols)
}

// Evaluate runs one cycle over the given symbols with bounded concurrency
func (e *Engine) Evaluate(ctx context.Context, symbols []string) (*models.Batch, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("empty instrument universe")
	}

	started := e.now()

	sem := make(chan struct{}, e.maxConcurrency())
	var wg sync.WaitGroup
	results := make([]evalResult, len(symbols))

	for i, symbol := range symbols {
		wg.Add(1)
		go func(i int, sym string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = e.evaluateOne(ctx, sym)
		}(i, symbol)
	}

	wg.Wait()

	batch := &models.Batch{EvaluatedAt: started}
	for _, res := range results {
		switch {
		case res.signal != nil:
			batch.Signals = append(batch.Signals, *res.signal)
			if res.signal.Action.Actionable() && res.signal.Score.Confidence >= e.cfg.MinConfidence {
				batch.Actionable = append(batch.Actionable, *res.signal)
			}
		case res.skip != nil:
			batch.Skipped = append(batch.Skipped, *res.skip)
		}
	}

	e.logger.WithFields(logrus.Fields{
		"symbols":    len(symbols),
		"signals":    len(batch.Signals),
		"actionable": len(batch.Actionable),
		"skipped":    len(batch.Skipped),
		"took":       e.now().Sub(started).String(),
	}).Debug("Evaluation cycle complete")

	return batch, nil
}

// evaluateOne runs the full pipeline for a single instrument. Any failure is
// converted to a skip entry for that instrument only.
func (e *Engine) evaluateOne(ctx context.Context, symbol string) evalResult {
	candles, err := e.provider.GetCandles(ctx, symbol, e.cfg.Timeframe, e.cfg.LookbackBars)
	if err != nil {
		return skip(symbol, models.SkipFetchFailure, err)
	}

	if len(candles) < indicator.MinBars {
		return skip(symbol, models.SkipInsufficientData,
			fmt.Errorf("%d bars, need %d", len(candles), indicator.MinBars))
	}

	if err := models.ValidateSeries(candles); err != nil {
		return skip(symbol, models.SkipMalformedData, err)
	}

	now := e.now()
	price := e.livePrice(symbol, candles[len(candles)-1].Close, now)

	ind, err := indicator.Snapshot(candles, price)
	if err != nil {
		if errors.Is(err, models.ErrInsufficientData) {
			return skip(symbol, models.SkipInsufficientData, err)
		}
		return skip(symbol, models.SkipComputation, err)
	}

	// Structure is best-effort; the classic scorer works without it
	st, err := e.analyzer.Analyze(candles, price, now)
	if err != nil && !errors.Is(err, models.ErrInsufficientData) {
		return skip(symbol, models.SkipComputation, err)
	}

	score := e.strat.Evaluate(&strategy.Input{
		Candles:    candles,
		Price:      price,
		Indicators: ind,
		Structure:  st,
	})

	sig := &models.Signal{
		Symbol:      symbol,
		Timeframe:   e.cfg.Timeframe,
		Strategy:    e.strat.Name(),
		Price:       price,
		Action:      score.Action,
		Score:       score,
		Indicators:  ind,
		Structure:   st,
		EvaluatedAt: now,
	}

	if score.Action == models.ActionBuy || score.Action == models.ActionSell {
		ts, err := e.calc.Build(score.Action, price, ind.ATR, st, e.strat.Name() != "classic")
		if err != nil {
			e.logger.WithError(err).WithField("symbol", symbol).Warn("Failed to build trade setup")
		} else {
			sig.Setup = ts
		}
	}

	e.mergeContinuity(ctx, sig, now)
	return evalResult{signal: sig}
}

// mergeContinuity carries SignalSince forward for an unchanged action and
// resets it when the action flips. Store failures degrade to a fresh start.
func (e *Engine) mergeContinuity(ctx context.Context, sig *models.Signal, now time.Time) {
	key := ContinuityKey(sig.Symbol, sig.Timeframe, sig.Strategy)

	prev, err := e.store.Get(ctx, key)
	if err != nil {
		e.logger.WithError(err).WithField("symbol", sig.Symbol).Warn("Continuity lookup failed")
	}

	since := now
	if prev != nil && prev.Action == sig.Action && !prev.Since.IsZero() {
		since = prev.Since
	}

	sig.SignalSince = since
	sig.SignalAgeSeconds = int(now.Sub(since).Seconds())

	if err := e.store.Set(ctx, key, &ContinuityState{Action: sig.Action, Since: since}); err != nil {
		e.logger.WithError(err).WithField("symbol", sig.Symbol).Warn("Continuity update failed")
	}
}

// livePrice returns a fresh feed quote when available, else the fallback
func (e *Engine) livePrice(symbol string, fallback float64, now time.Time) float64 {
	if e.prices == nil {
		return fallback
	}
	price, at, ok := e.prices.Quote(symbol)
	if !ok || price <= 0 || now.Sub(at) > priceFreshness {
		return fallback
	}
	return price
}

func (e *Engine) maxConcurrency() int {
	if e.cfg.MaxConcurrency < 1 {
		return 1
	}
	return e.cfg.MaxConcurrency
}

func skip(symbol string, reason models.SkipReason, err error) evalResult {
	return evalResult{skip: &models.Skip{
		Symbol: symbol,
		Reason: reason,
		Detail: err.Error(),
	}}
}
