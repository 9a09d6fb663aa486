// Package indicator provides pure technical-indicator functions over candle
// and close-price series. Every function is side-effect free and returns an
// explicit insufficient-data error instead of guessing on short input.
package indicator

import (
	"fmt"
	"math"

	"github.com/rami12200/trading-signals-sub000/pkg/models"
)

// SMA returns the simple mean of the trailing period values
func SMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("invalid period %d", period)
	}
	if len(values) < period {
		return 0, fmt.Errorf("%w: SMA(%d) needs %d values, have %d",
			models.ErrInsufficientData, period, period, len(values))
	}

	sum := 0.0
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period), nil
}

// EMASeries returns the exponential moving average series. The first element
// is the SMA seed over the first period values; the result has
// len(values)-period+1 elements.
func EMASeries(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("invalid period %d", period)
	}
	if len(values) < period {
		return nil, fmt.Errorf("%w: EMA(%d) needs %d values, have %d",
			models.ErrInsufficientData, period, period, len(values))
	}

	k := 2.0 / float64(period+1)

	seed := 0.0
	for _, v := range values[:period] {
		seed += v
	}
	seed /= float64(period)

	out := make([]float64, 0, len(values)-period+1)
	out = append(out, seed)

	ema := seed
	for _, v := range values[period:] {
		ema = v*k + ema*(1-k)
		out = append(out, ema)
	}

	return out, nil
}

// EMA returns the latest exponential moving average value
func EMA(values []float64, period int) (float64, error) {
	series, err := EMASeries(values, period)
	if err != nil {
		return 0, err
	}
	return series[len(series)-1], nil
}

// RSI returns the Wilder relative strength index of the closes. The seed
// averages are simple means over the first period deltas; subsequent bars use
// Wilder smoothing. Output is always in [0,100]; a zero average loss yields
// exactly 100.
func RSI(closes []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("invalid period %d", period)
	}
	if len(closes) < period+1 {
		return 0, fmt.Errorf("%w: RSI(%d) needs %d closes, have %d",
			models.ErrInsufficientData, period, period+1, len(closes))
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss += -delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	p := float64(period)
	for i := period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
	}

	if avgLoss == 0 {
		if avgGain == 0 {
			// No movement at all: neutral
			return 50, nil
		}
		return 100, nil
	}

	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), nil
}

// MACD returns the moving average convergence divergence triple. Requires at
// least slow+signal closes. Histogram is exactly Line-Signal.
func MACD(closes []float64, fast, slow, signal int) (models.MACDResult, error) {
	if fast <= 0 || slow <= fast || signal <= 0 {
		return models.MACDResult{}, fmt.Errorf("invalid MACD periods %d/%d/%d", fast, slow, signal)
	}
	if len(closes) < slow+signal {
		return models.MACDResult{}, fmt.Errorf("%w: MACD(%d,%d,%d) needs %d closes, have %d",
			models.ErrInsufficientData, fast, slow, signal, slow+signal, len(closes))
	}

	fastSeries, err := EMASeries(closes, fast)
	if err != nil {
		return models.MACDResult{}, err
	}
	slowSeries, err := EMASeries(closes, slow)
	if err != nil {
		return models.MACDResult{}, err
	}

	// Align tails: the slow series is the shorter one
	offset := len(fastSeries) - len(slowSeries)
	line := make([]float64, len(slowSeries))
	for i := range slowSeries {
		line[i] = fastSeries[i+offset] - slowSeries[i]
	}

	signalSeries, err := EMASeries(line, signal)
	if err != nil {
		return models.MACDResult{}, err
	}

	last := models.MACDResult{
		Line:   line[len(line)-1],
		Signal: signalSeries[len(signalSeries)-1],
	}
	last.Histogram = last.Line - last.Signal
	return last, nil
}

// ATR returns the Wilder average true range of the candles
func ATR(candles []models.Candle, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("invalid period %d", period)
	}
	if len(candles) < period+1 {
		return 0, fmt.Errorf("%w: ATR(%d) needs %d candles, have %d",
			models.ErrInsufficientData, period, period+1, len(candles))
	}

	trs := trueRanges(candles)

	atr := 0.0
	for _, tr := range trs[:period] {
		atr += tr
	}
	atr /= float64(period)

	p := float64(period)
	for _, tr := range trs[period:] {
		atr = (atr*(p-1) + tr) / p
	}

	return atr, nil
}

// trueRanges returns the true range per bar starting from the second candle
func trueRanges(candles []models.Candle) []float64 {
	trs := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		c := candles[i]
		prevClose := candles[i-1].Close

		tr := c.High - c.Low
		if hc := math.Abs(c.High - prevClose); hc > tr {
			tr = hc
		}
		if lc := math.Abs(c.Low - prevClose); lc > tr {
			tr = lc
		}
		trs = append(trs, tr)
	}
	return trs
}

// Bollinger returns the Bollinger bands over the trailing period with the
// given deviation multiplier. PricePositionPct is the price location within
// the band clamped to [0,100] for display.
func Bollinger(closes []float64, period int, k float64, price float64) (models.BollingerResult, error) {
	middle, err := SMA(closes, period)
	if err != nil {
		return models.BollingerResult{}, err
	}

	variance := 0.0
	for _, v := range closes[len(closes)-period:] {
		d := v - middle
		variance += d * d
	}
	stddev := math.Sqrt(variance / float64(period))

	result := models.BollingerResult{
		Upper:  middle + k*stddev,
		Middle: middle,
		Lower:  middle - k*stddev,
	}

	if middle != 0 {
		result.WidthPct = (result.Upper - result.Lower) / middle * 100
	}

	width := result.Upper - result.Lower
	if width > 0 {
		pos := (price - result.Lower) / width * 100
		result.PricePositionPct = clamp(pos, 0, 100)
	} else {
		result.PricePositionPct = 50
	}

	return result, nil
}

// VolumeStats returns the trailing average volume excluding the current bar
// and whether the current bar is a spike (>= 1.5x average).
func VolumeStats(candles []models.Candle, window int) (models.VolumeResult, error) {
	if window <= 0 {
		return models.VolumeResult{}, fmt.Errorf("invalid window %d", window)
	}
	if len(candles) < window+1 {
		return models.VolumeResult{}, fmt.Errorf("%w: volume window %d needs %d candles, have %d",
			models.ErrInsufficientData, window, window+1, len(candles))
	}

	current := candles[len(candles)-1].Volume

	sum := 0.0
	for _, c := range candles[len(candles)-1-window : len(candles)-1] {
		sum += c.Volume
	}
	average := sum / float64(window)

	return models.VolumeResult{
		Current: current,
		Average: average,
		Spike:   average > 0 && current >= 1.5*average,
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
