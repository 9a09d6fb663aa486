package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rami12200/trading-signals-sub000/pkg/config"
	"github.com/rami12200/trading-signals-sub000/pkg/models"
)

type stubSource struct {
	batch *models.Batch
}

func (s *stubSource) Latest() *models.Batch { return s.batch }

func testBatch() *models.Batch {
	buy := models.Signal{
		Symbol:    "BTCUSDT",
		Timeframe: "15m",
		Strategy:  "classic",
		Price:     64250.1,
		Action:    models.ActionBuy,
		Score:     models.SignalScore{Action: models.ActionBuy, BuyScore: 55, Confidence: 67},
	}
	wait := models.Signal{
		Symbol:    "ETHUSDT",
		Timeframe: "15m",
		Strategy:  "classic",
		Action:    models.ActionWait,
	}
	return &models.Batch{
		Signals:     []models.Signal{buy, wait},
		Actionable:  []models.Signal{buy},
		Skipped:     []models.Skip{{Symbol: "XRPUSDT", Reason: models.SkipFetchFailure, Detail: "timeout"}},
		EvaluatedAt: time.Date(2025, 3, 12, 12, 0, 0, 0, time.UTC),
	}
}

func newTestServer(source SignalSource) *Server {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	cfg := &config.Config{}
	cfg.Security.CORSEnabled = false
	cfg.Monitoring.MetricsEnabled = false

	return NewServer(cfg, source, nil, logger)
}

func TestGetSignals(t *testing.T) {
	srv := newTestServer(&stubSource{batch: testBatch()})

	req := httptest.NewRequest("GET", "/api/v1/signals", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var batch models.Batch
	if err := json.NewDecoder(rec.Body).Decode(&batch); err != nil {
		t.Fatal(err)
	}
	if len(batch.Signals) != 2 || len(batch.Actionable) != 1 || len(batch.Skipped) != 1 {
		t.Errorf("batch = %+v", batch)
	}
}

func TestGetSignalsActionableFilter(t *testing.T) {
	srv := newTestServer(&stubSource{batch: testBatch()})

	req := httptest.NewRequest("GET", "/api/v1/signals?actionable=true", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	var batch models.Batch
	if err := json.NewDecoder(rec.Body).Decode(&batch); err != nil {
		t.Fatal(err)
	}
	if len(batch.Signals) != 1 || batch.Signals[0].Symbol != "BTCUSDT" {
		t.Errorf("signals = %+v, want BTCUSDT only", batch.Signals)
	}
}

func TestGetSignalsBeforeFirstCycle(t *testing.T) {
	srv := newTestServer(&stubSource{})

	req := httptest.NewRequest("GET", "/api/v1/signals", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestGetSignalBySymbol(t *testing.T) {
	srv := newTestServer(&stubSource{batch: testBatch()})

	tests := []struct {
		path   string
		status int
	}{
		{"/api/v1/signals/BTCUSDT", http.StatusOK},
		{"/api/v1/signals/btcusdt", http.StatusOK},
		{"/api/v1/signals/XRPUSDT", http.StatusOK},
		{"/api/v1/signals/DOGEUSDT", http.StatusNotFound},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", tt.path, nil)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		if rec.Code != tt.status {
			t.Errorf("GET %s: status = %d, want %d", tt.path, rec.Code, tt.status)
		}
	}
}

func TestHealthDegradedOnFailingProbe(t *testing.T) {
	srv := newTestServer(&stubSource{batch: testBatch()})
	srv.AddHealthCheck("redis", func(context.Context) error { return nil })
	srv.AddHealthCheck("nats", func(context.Context) error { return errors.New("connection refused") })

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}

	var health struct {
		Status   string            `json:"status"`
		Services map[string]string `json:"services"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "degraded" {
		t.Errorf("status = %s, want degraded", health.Status)
	}
	if health.Services["redis"] != "ok" {
		t.Errorf("redis = %s, want ok", health.Services["redis"])
	}
}

func TestHealthHealthy(t *testing.T) {
	srv := newTestServer(&stubSource{batch: testBatch()})

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
