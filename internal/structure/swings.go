package structure

import (
	"math"
	"sort"

	"github.com/rami12200/trading-signals-sub000/pkg/models"
)

// swingPoint is a confirmed local extreme in the series
type swingPoint struct {
	index int
	price float64
	kind  models.LevelKind
}

// findSwings returns confirmed swing highs and lows: bars whose high (low)
// strictly exceeds (undercuts) the n neighbors on both sides. Bars within n
// of the series end cannot confirm and are excluded.
func findSwings(candles []models.Candle, n int) []swingPoint {
	if n < 1 {
		n = 1
	}

	swings := make([]swingPoint, 0, 16)

	for i := n; i < len(candles)-n; i++ {
		isHigh := true
		isLow := true
		for j := i - n; j <= i+n; j++ {
			if j == i {
				continue
			}
			if candles[j].High >= candles[i].High {
				isHigh = false
			}
			if candles[j].Low <= candles[i].Low {
				isLow = false
			}
			if !isHigh && !isLow {
				break
			}
		}

		if isHigh {
			swings = append(swings, swingPoint{index: i, price: candles[i].High, kind: models.LevelHigh})
		}
		if isLow {
			swings = append(swings, swingPoint{index: i, price: candles[i].Low, kind: models.LevelLow})
		}
	}

	return swings
}

// clusteredLevel pairs a structural level with the window index of its most
// recent member swing, which marks when the level finished forming.
type clusteredLevel struct {
	models.PriceLevel
	lastSwing int
}

// clusterSwings groups swing prices lying within tolerancePct of each other
// into structural levels. The level price is the cluster mean.
func clusterSwings(swings []swingPoint, tolerancePct float64) []clusteredLevel {
	if len(swings) == 0 {
		return nil
	}

	byKind := map[models.LevelKind][]swingPoint{}
	for _, s := range swings {
		byKind[s.kind] = append(byKind[s.kind], s)
	}

	levels := make([]clusteredLevel, 0, len(swings))

	for kind, members := range byKind {
		sort.Slice(members, func(i, j int) bool { return members[i].price < members[j].price })

		clusterSum := members[0].price
		clusterCount := 1
		lastSwing := members[0].index

		flush := func() {
			levels = append(levels, clusteredLevel{
				PriceLevel: models.PriceLevel{
					Price:   clusterSum / float64(clusterCount),
					Kind:    kind,
					Touches: clusterCount,
				},
				lastSwing: lastSwing,
			})
		}

		for _, m := range members[1:] {
			mean := clusterSum / float64(clusterCount)
			if mean > 0 && math.Abs(m.price-mean)/mean*100 <= tolerancePct {
				clusterSum += m.price
				clusterCount++
				if m.index > lastSwing {
					lastSwing = m.index
				}
				continue
			}
			flush()
			clusterSum = m.price
			clusterCount = 1
			lastSwing = m.index
		}
		flush()
	}

	return levels
}

// nearestLevels splits clustered levels into support (below price) and
// resistance (above price), each ordered by distance and capped at limit.
func nearestLevels(levels []clusteredLevel, price float64, limit int) (support, resistance []models.PriceLevel) {
	for _, lvl := range levels {
		if lvl.Price < price {
			support = append(support, lvl.PriceLevel)
		} else if lvl.Price > price {
			resistance = append(resistance, lvl.PriceLevel)
		}
	}

	sort.Slice(support, func(i, j int) bool {
		return price-support[i].Price < price-support[j].Price
	})
	sort.Slice(resistance, func(i, j int) bool {
		return resistance[i].Price-price < resistance[j].Price-price
	})

	if len(support) > limit {
		support = support[:limit]
	}
	if len(resistance) > limit {
		resistance = resistance[:limit]
	}

	return support, resistance
}

// detectBOS reports a break of structure: the last close breaking beyond the
// most recent confirmed swing high (bullish) or swing low (bearish).
func detectBOS(candles []models.Candle, swings []swingPoint) models.BOSDirection {
	if len(candles) == 0 {
		return models.BOSNone
	}

	var lastHigh, lastLow *swingPoint
	for i := range swings {
		s := swings[i]
		switch s.kind {
		case models.LevelHigh:
			if lastHigh == nil || s.index > lastHigh.index {
				lastHigh = &swings[i]
			}
		case models.LevelLow:
			if lastLow == nil || s.index > lastLow.index {
				lastLow = &swings[i]
			}
		}
	}

	lastClose := candles[len(candles)-1].Close

	if lastHigh != nil && lastClose > lastHigh.price {
		return models.BOSBullish
	}
	if lastLow != nil && lastClose < lastLow.price {
		return models.BOSBearish
	}
	return models.BOSNone
}
