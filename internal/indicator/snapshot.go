package indicator

import (
	"fmt"

	"github.com/rami12200/trading-signals-sub000/pkg/models"
)

// Default periods used by the snapshot readout
const (
	RSIPeriod       = 14
	MACDFast        = 12
	MACDSlow        = 26
	MACDSignal      = 9
	ATRPeriod       = 14
	BollingerPeriod = 20
	BollingerK      = 2.0
	VolumeWindow    = 20
)

// SnapshotEMAPeriods are the EMA lengths included in a snapshot. Each period
// is best-effort: it appears in the readout only when the series covers it.
var SnapshotEMAPeriods = []int{9, 20, 21, 50, 200}

// MinBars is the minimum series length for a full snapshot: the MACD signal
// line is the widest required window. It also guarantees the short EMAs.
const MinBars = MACDSlow + MACDSignal + 1

// Snapshot computes a full last-value indicator readout for the series.
// price is the effective current price (live tick or last close).
func Snapshot(candles []models.Candle, price float64) (*models.IndicatorSnapshot, error) {
	if len(candles) < MinBars {
		return nil, fmt.Errorf("%w: snapshot needs %d candles, have %d",
			models.ErrInsufficientData, MinBars, len(candles))
	}

	closes := make([]float64, len(candles))
	for i := range candles {
		closes[i] = candles[i].Close
	}

	snap := &models.IndicatorSnapshot{
		EMA: make(map[int]float64, len(SnapshotEMAPeriods)),
	}

	for _, period := range SnapshotEMAPeriods {
		value, err := EMA(closes, period)
		if err != nil {
			// Long EMAs are best-effort on short series
			continue
		}
		snap.EMA[period] = value
	}

	rsi, err := RSI(closes, RSIPeriod)
	if err != nil {
		return nil, err
	}
	snap.RSI = rsi

	macd, err := MACD(closes, MACDFast, MACDSlow, MACDSignal)
	if err != nil {
		return nil, err
	}
	snap.MACD = macd

	atr, err := ATR(candles, ATRPeriod)
	if err != nil {
		return nil, err
	}
	snap.ATR = atr

	bb, err := Bollinger(closes, BollingerPeriod, BollingerK, price)
	if err != nil {
		return nil, err
	}
	snap.Bollinger = bb

	vol, err := VolumeStats(candles, VolumeWindow)
	if err != nil {
		return nil, err
	}
	snap.Volume = vol

	return snap, nil
}
