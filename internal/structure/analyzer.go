// Package structure derives market-microstructure state from candle series:
// swing-based support/resistance, break of structure, session extremes, VWAP,
// liquidity levels and sweeps, displacement and exhaustion detection.
package structure

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rami12200/trading-signals-sub000/pkg/config"
	"github.com/rami12200/trading-signals-sub000/pkg/models"
)

// MinBars is the minimum series length for a structure snapshot
const MinBars = 30

// Analyzer computes StructureSnapshots for candle series
type Analyzer struct {
	cfg       *config.StructureConfig
	killZones []KillZone
	logger    *logrus.Entry
}

// NewAnalyzer creates a new structure analyzer
func NewAnalyzer(cfg *config.StructureConfig, logger *logrus.Logger) (*Analyzer, error) {
	zones, err := ParseKillZones(cfg.KillZones)
	if err != nil {
		return nil, fmt.Errorf("failed to parse kill zones: %w", err)
	}

	return &Analyzer{
		cfg:       cfg,
		killZones: zones,
		logger:    logger.WithField("component", "structure"),
	}, nil
}

// Analyze computes the full structure snapshot for a series. price is the
// effective current price; now drives session windows and kill-zone tagging.
func (a *Analyzer) Analyze(candles []models.Candle, price float64, now time.Time) (*models.StructureSnapshot, error) {
	if len(candles) < MinBars {
		return nil, fmt.Errorf("%w: structure needs %d candles, have %d",
			models.ErrInsufficientData, MinBars, len(candles))
	}

	window := candles
	if a.cfg.LookbackBars > 0 && len(window) > a.cfg.LookbackBars {
		window = window[len(window)-a.cfg.LookbackBars:]
	}

	swings := findSwings(window, a.cfg.SwingNeighbors)
	clusters := clusterSwings(swings, a.cfg.ClusterTolerancePct)
	support, resistance := nearestLevels(clusters, price, 3)

	snap := &models.StructureSnapshot{
		Support:    support,
		Resistance: resistance,
		BOS:        detectBOS(window, swings),
	}

	snap.PDH, snap.PDL = previousDayExtremes(candles, now)
	snap.AsianHigh, snap.AsianLow = sessionExtremes(candles, now,
		a.cfg.AsianSessionStart, a.cfg.AsianSessionEnd)
	snap.VWAP = sessionVWAP(candles, now)

	snap.Liquidity = a.buildLiquidityLevels(window, snap, clusters, now)
	snap.Displacement = detectDisplacement(window, a.cfg.DisplacementFactor)
	snap.Exhaustion = detectExhaustion(window, a.cfg.ExhaustionWickRatio)
	snap.KillZone = ActiveKillZone(a.killZones, now)

	return snap, nil
}

// buildLiquidityLevels collects candidate liquidity levels and marks sweeps.
// Each level carries the time it finished forming so sweep detection never
// credits candles that predate the level: previous-day extremes exist from
// the start of the current day, session extremes from the session close, and
// clustered swings from their latest member swing.
func (a *Analyzer) buildLiquidityLevels(window []models.Candle, snap *models.StructureSnapshot, clusters []clusteredLevel, now time.Time) []models.LiquidityLevel {
	levels := make([]models.LiquidityLevel, 0, len(clusters)+4)

	dayStart := now.UTC().Truncate(24 * time.Hour)
	sessionEnd := dayStart.Add(time.Duration(a.cfg.AsianSessionEnd) * time.Hour)

	if snap.PDH > 0 {
		levels = append(levels, models.LiquidityLevel{Price: snap.PDH, Kind: models.LevelHigh, Label: "pdh", FormedAt: dayStart})
	}
	if snap.PDL > 0 {
		levels = append(levels, models.LiquidityLevel{Price: snap.PDL, Kind: models.LevelLow, Label: "pdl", FormedAt: dayStart})
	}
	if snap.AsianHigh > 0 {
		levels = append(levels, models.LiquidityLevel{Price: snap.AsianHigh, Kind: models.LevelHigh, Label: "asian_high", FormedAt: sessionEnd})
	}
	if snap.AsianLow > 0 {
		levels = append(levels, models.LiquidityLevel{Price: snap.AsianLow, Kind: models.LevelLow, Label: "asian_low", FormedAt: sessionEnd})
	}

	for _, cluster := range clusters {
		label := "swing_low"
		if cluster.Kind == models.LevelHigh {
			label = "swing_high"
		}
		levels = append(levels, models.LiquidityLevel{
			Price:    cluster.Price,
			Kind:     cluster.Kind,
			Label:    label,
			FormedAt: window[cluster.lastSwing].OpenTime,
		})
	}

	for i := range levels {
		levels[i].Swept = detectSweep(window, levels[i], a.cfg.SweepTickPct)
	}

	return levels
}

// detectSweep reports whether a candle after the level's formation wicked
// through it by at least the minimum tick while closing back on the
// originating side. The transition happens at most once per level per
// evaluation window.
func detectSweep(window []models.Candle, level models.LiquidityLevel, tickPct float64) bool {
	tick := level.Price * tickPct / 100

	for i := range window {
		c := window[i]
		if !c.OpenTime.After(level.FormedAt) {
			continue
		}
		switch level.Kind {
		case models.LevelHigh:
			if c.High >= level.Price+tick && c.Close < level.Price {
				return true
			}
		case models.LevelLow:
			if c.Low <= level.Price-tick && c.Close > level.Price {
				return true
			}
		}
	}
	return false
}
