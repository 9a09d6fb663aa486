package exchange

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	binance "github.com/binance/binance-connector-go"
	"github.com/sirupsen/logrus"

	"github.com/rami12200/trading-signals-sub000/pkg/config"
	"github.com/rami12200/trading-signals-sub000/pkg/models"
)

// TickerStream keeps a live last-price table from the Binance combined
// ticker stream. It implements PriceFeed; quotes older than the configured
// staleness TTL are withheld so the engine falls back to the candle close.
type TickerStream struct {
	client  *binance.WebsocketStreamClient
	symbols []string
	cfg     *config.ExchangeConfig
	logger  *logrus.Entry

	connected atomic.Bool
	stopCh    chan struct{}
	done      chan struct{}

	mu     sync.RWMutex
	quotes map[string]models.PriceData
}

// NewTickerStream creates a live ticker feed for the given symbols
func NewTickerStream(symbols []string, cfg *config.ExchangeConfig, logger *logrus.Logger) *TickerStream {
	return &TickerStream{
		symbols: symbols,
		cfg:     cfg,
		logger:  logger.WithField("component", "ticker-stream"),
		done:    make(chan struct{}),
		quotes:  make(map[string]models.PriceData),
	}
}

// Start connects the combined ticker stream and begins updating quotes
func (ts *TickerStream) Start(ctx context.Context) error {
	ts.client = binance.NewWebsocketStreamClient(true)

	tickerHandler := func(event *binance.WsMarketTickerStatEvent) {
		price, err := strconv.ParseFloat(event.LastPrice, 64)
		if err != nil {
			ts.logger.WithError(err).WithField("price", event.LastPrice).Error("Failed to parse price")
			return
		}

		ts.mu.Lock()
		ts.quotes[event.Symbol] = models.PriceData{
			Symbol:    event.Symbol,
			Price:     price,
			Timestamp: time.Now(),
		}
		ts.mu.Unlock()
	}

	errorHandler := func(err error) {
		ts.logger.WithError(err).Error("WebSocket error occurred")
		ts.connected.Store(false)
	}

	doneCh, stopCh, err := ts.client.WsCombinedMarketTickersStatServe(ts.symbols, tickerHandler, errorHandler)
	if err != nil {
		return fmt.Errorf("failed to start ticker stream: %w", err)
	}

	ts.stopCh = stopCh
	ts.connected.Store(true)
	ts.logger.WithField("symbols", len(ts.symbols)).Info("Ticker stream connected")

	go ts.monitor(ctx, doneCh)
	return nil
}

// Stop closes the stream
func (ts *TickerStream) Stop() {
	close(ts.done)
	if ts.stopCh != nil {
		close(ts.stopCh)
	}
	ts.connected.Store(false)
}

// IsConnected reports whether the stream is live
func (ts *TickerStream) IsConnected() bool {
	return ts.connected.Load()
}

// Quote returns the latest live price for a symbol. ok is false when no
// quote exists or the last one is older than the staleness TTL.
func (ts *TickerStream) Quote(symbol string) (float64, time.Time, bool) {
	ts.mu.RLock()
	quote, ok := ts.quotes[symbol]
	ts.mu.RUnlock()

	if !ok {
		return 0, time.Time{}, false
	}
	if ts.cfg.PriceStaleTTL > 0 && time.Since(quote.Timestamp) > ts.cfg.PriceStaleTTL {
		return 0, time.Time{}, false
	}
	return quote.Price, quote.Timestamp, true
}

func (ts *TickerStream) monitor(ctx context.Context, doneCh chan struct{}) {
	defer ts.connected.Store(false)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ts.done:
			return
		case <-doneCh:
			ts.logger.Warn("WebSocket connection closed by server")
			return
		}
	}
}
