package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rami12200/trading-signals-sub000/pkg/config"
	"github.com/rami12200/trading-signals-sub000/pkg/models"
)

const maxKlineLimit = 1000

// BinanceRESTClient fetches candle series over the Binance REST API
type BinanceRESTClient struct {
	client    *http.Client
	baseURL   string
	logger    *logrus.Entry
	rateLimit time.Duration

	mu       sync.Mutex
	lastCall time.Time
}

// NewBinanceRESTClient creates a Binance REST API client
func NewBinanceRESTClient(cfg *config.ExchangeConfig, logger *logrus.Logger) *BinanceRESTClient {
	return &BinanceRESTClient{
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		baseURL:   cfg.APIURL,
		logger:    logger.WithField("component", "binance-rest"),
		rateLimit: cfg.RateLimit,
	}
}

// GetCandles fetches the most recent klines for a symbol and parses them
// into an ascending candle series.
func (b *BinanceRESTClient) GetCandles(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error) {
	b.enforceRateLimit()

	if limit <= 0 || limit > maxKlineLimit {
		limit = maxKlineLimit
	}

	params := url.Values{}
	params.Add("symbol", symbol)
	params.Add("interval", timeframe)
	params.Add("limit", strconv.Itoa(limit))

	fullURL := fmt.Sprintf("%s/api/v3/klines?%s", b.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	var rawKlines [][]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&rawKlines); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	candles := make([]models.Candle, 0, len(rawKlines))
	for _, raw := range rawKlines {
		candle, err := parseKline(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse kline for %s: %w", symbol, err)
		}
		candles = append(candles, candle)
	}

	b.logger.WithFields(logrus.Fields{
		"symbol":   symbol,
		"interval": timeframe,
		"count":    len(candles),
	}).Debug("Fetched candles")

	return candles, nil
}

// GetSymbolPrice fetches the current last-trade price for a symbol
func (b *BinanceRESTClient) GetSymbolPrice(ctx context.Context, symbol string) (float64, error) {
	b.enforceRateLimit()

	endpoint := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", b.baseURL, symbol)

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("API error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	var result struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	price, err := strconv.ParseFloat(result.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse price: %w", err)
	}
	return price, nil
}

// parseKline converts one raw kline array into a candle
func parseKline(raw []interface{}) (models.Candle, error) {
	if len(raw) < 6 {
		return models.Candle{}, fmt.Errorf("kline has %d fields, need 6", len(raw))
	}

	openMs, ok := raw[0].(float64)
	if !ok {
		return models.Candle{}, fmt.Errorf("unexpected open time type %T", raw[0])
	}

	fields := make([]float64, 5)
	for i := 1; i <= 5; i++ {
		s, ok := raw[i].(string)
		if !ok {
			return models.Candle{}, fmt.Errorf("unexpected field type %T at index %d", raw[i], i)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return models.Candle{}, fmt.Errorf("failed to parse field %d: %w", i, err)
		}
		fields[i-1] = v
	}

	return models.Candle{
		OpenTime: time.UnixMilli(int64(openMs)).UTC(),
		Open:     fields[0],
		High:     fields[1],
		Low:      fields[2],
		Close:    fields[3],
		Volume:   fields[4],
	}, nil
}

// enforceRateLimit spaces REST calls so concurrent evaluations stay under
// the exchange request budget.
func (b *BinanceRESTClient) enforceRateLimit() {
	if b.rateLimit <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	elapsed := time.Since(b.lastCall)
	if elapsed < b.rateLimit {
		time.Sleep(b.rateLimit - elapsed)
	}
	b.lastCall = time.Now()
}
