package exchange

import (
	"context"
	"time"

	"github.com/rami12200/trading-signals-sub000/pkg/models"
)

// CandleProvider fetches an ascending OHLCV series for one instrument.
// Implementations own transport concerns; callers receive parsed candles.
type CandleProvider interface {
	GetCandles(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error)
}

// PriceFeed exposes the most recent traded price for an instrument. Quote
// returns ok=false when no sufficiently fresh price is known.
type PriceFeed interface {
	Quote(symbol string) (price float64, at time.Time, ok bool)
}
