package structure

import (
	"github.com/rami12200/trading-signals-sub000/pkg/models"
)

// displacement/exhaustion both compare the latest bars against the recent
// average true range, so they share a lookback of this many bars.
const patternLookback = 14

// averageTrueRange returns the simple mean true range over the bars before
// the last `exclude` candles.
func averageTrueRange(candles []models.Candle, exclude int) float64 {
	end := len(candles) - exclude
	start := end - patternLookback
	if start < 1 {
		start = 1
	}
	if end <= start {
		return 0
	}

	sum := 0.0
	for i := start; i < end; i++ {
		tr := candles[i].High - candles[i].Low
		if hc := candles[i].High - candles[i-1].Close; hc > tr {
			tr = hc
		}
		if lc := candles[i-1].Close - candles[i].Low; lc > tr {
			tr = lc
		}
		sum += tr
	}
	return sum / float64(end-start)
}

// detectDisplacement reports an unusually large directional body on the last
// candle: body >= factor x the recent average true range. StrengthScore is
// the body-to-threshold ratio, >= 1 when detected.
func detectDisplacement(candles []models.Candle, factor float64) models.DisplacementResult {
	if len(candles) < patternLookback+2 || factor <= 0 {
		return models.DisplacementResult{}
	}

	avgTR := averageTrueRange(candles, 1)
	if avgTR <= 0 {
		return models.DisplacementResult{}
	}

	last := candles[len(candles)-1]
	body := last.Body()
	threshold := factor * avgTR

	if body < threshold {
		return models.DisplacementResult{StrengthScore: body / threshold}
	}

	direction := models.DirectionDown
	if last.Bullish() {
		direction = models.DirectionUp
	}

	return models.DisplacementResult{
		Detected:      true,
		Direction:     direction,
		StrengthScore: body / threshold,
	}
}

// detectExhaustion reports a likely exhausted move: the second-to-last candle
// shows a wick at least wickRatio x its body against the prevailing
// direction, volume declined versus the prior bar, and the final candle shows
// no directional follow-through. The last candle is left as the
// follow-through observation bar.
func detectExhaustion(candles []models.Candle, wickRatio float64) models.ExhaustionResult {
	if len(candles) < 5 || wickRatio <= 0 {
		return models.ExhaustionResult{}
	}

	n := len(candles)
	signal := candles[n-2]
	next := candles[n-1]
	prior := candles[n-3]

	// Prevailing direction over the few bars before the signal candle
	up := signal.Close > candles[n-5].Close

	body := signal.Body()
	if body == 0 {
		body = (signal.High - signal.Low) / 100 // doji guard
		if body == 0 {
			return models.ExhaustionResult{}
		}
	}

	var wick float64
	if up {
		wick = signal.UpperWick()
	} else {
		wick = signal.LowerWick()
	}
	ratio := wick / body

	volumeSlowdown := signal.Volume < prior.Volume

	var followThrough bool
	if up {
		followThrough = next.Close > signal.High
	} else {
		followThrough = next.Close < signal.Low
	}

	return models.ExhaustionResult{
		Detected:       ratio >= wickRatio && volumeSlowdown && !followThrough,
		WickRatio:      ratio,
		FollowThrough:  followThrough,
		VolumeSlowdown: volumeSlowdown,
	}
}
