// Package app wires the signal engine's components together and owns their
// lifecycle: exchange clients, the evaluation loop, optional Redis and NATS,
// the WebSocket hub and the HTTP API.
package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rami12200/trading-signals-sub000/internal/api"
	"github.com/rami12200/trading-signals-sub000/internal/cache"
	"github.com/rami12200/trading-signals-sub000/internal/engine"
	"github.com/rami12200/trading-signals-sub000/internal/exchange"
	"github.com/rami12200/trading-signals-sub000/internal/messaging"
	"github.com/rami12200/trading-signals-sub000/internal/metrics"
	"github.com/rami12200/trading-signals-sub000/internal/websocket"
	"github.com/rami12200/trading-signals-sub000/pkg/config"
	"github.com/rami12200/trading-signals-sub000/pkg/models"
)

// App represents the main application
type App struct {
	cfg    *config.Config
	logger *logrus.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Core components
	restClient *exchange.BinanceRESTClient
	stream     *exchange.TickerStream
	redisStore *cache.RedisStore
	natsClient *messaging.NATSClient
	engine     *engine.Engine
	hub        *websocket.Hub
	apiServer  *api.Server
	metrics    *metrics.Metrics

	latest *batchHolder
}

// batchHolder keeps the most recent evaluation batch for the API
type batchHolder struct {
	mu    sync.RWMutex
	batch *models.Batch
}

// Latest returns the most recent completed batch, or nil before the first
// cycle finishes.
func (b *batchHolder) Latest() *models.Batch {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.batch
}

func (b *batchHolder) set(batch *models.Batch) {
	b.mu.Lock()
	b.batch = batch
	b.mu.Unlock()
}

// New creates a new application instance
func New(cfg *config.Config, logger *logrus.Logger) *App {
	ctx, cancel := context.WithCancel(context.Background())

	return &App{
		cfg:    cfg,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		latest: &batchHolder{},
	}
}

// Initialize initializes all application components
func (a *App) Initialize() error {
	a.restClient = exchange.NewBinanceRESTClient(&a.cfg.Exchange, a.logger)

	var feed exchange.PriceFeed
	if a.cfg.Exchange.StreamEnabled {
		a.stream = exchange.NewTickerStream(a.cfg.Engine.Symbols, &a.cfg.Exchange, a.logger)
		feed = a.stream
	}

	var store engine.ContinuityStore
	if a.cfg.Redis.Enabled {
		redisStore, err := cache.NewRedisStore(&a.cfg.Redis, a.cfg.Engine.ContinuityTTL, a.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis: %w", err)
		}
		a.redisStore = redisStore
		store = redisStore
	}

	if a.cfg.NATS.Enabled {
		natsClient, err := messaging.NewNATSClient(&a.cfg.NATS, a.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize NATS: %w", err)
		}
		a.natsClient = natsClient
	}

	eng, err := engine.New(&a.cfg.Engine, &a.cfg.Scoring, &a.cfg.Structure, a.restClient, feed, store, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}
	a.engine = eng

	if a.cfg.WebSocket.Enabled {
		a.hub = websocket.NewHub(&a.cfg.WebSocket, a.logger)
	}

	if a.cfg.Monitoring.MetricsEnabled {
		a.metrics = metrics.New()
		a.metrics.UniverseGauge.Set(float64(len(a.cfg.Engine.Symbols)))
	}

	a.apiServer = api.NewServer(a.cfg, a.latest, a.hub, a.logger)
	if a.redisStore != nil {
		a.apiServer.AddHealthCheck("redis", a.redisStore.Health)
	}
	if a.natsClient != nil {
		a.apiServer.AddHealthCheck("nats", func(context.Context) error {
			if !a.natsClient.IsConnected() {
				return fmt.Errorf("not connected")
			}
			return nil
		})
	}

	return nil
}

// Start starts the application
func (a *App) Start() error {
	if a.hub != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.hub.Run(a.ctx)
		}()
	}

	if a.stream != nil {
		if err := a.stream.Start(a.ctx); err != nil {
			// A dead stream is not fatal; the engine falls back to closes
			a.logger.WithError(err).Warn("Failed to start ticker stream")
		}
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.apiServer.Start(); err != nil {
			if err != http.ErrServerClosed {
				a.logger.WithError(err).Error("API server error")
			}
		}
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.runEvaluationLoop()
	}()

	a.logger.WithFields(logrus.Fields{
		"symbols":   len(a.cfg.Engine.Symbols),
		"timeframe": a.cfg.Engine.Timeframe,
		"strategy":  a.engine.Strategy(),
		"interval":  a.cfg.Engine.PollInterval.String(),
	}).Info("Signal engine started")

	return nil
}

// runEvaluationLoop drives evaluation cycles at the configured cadence
func (a *App) runEvaluationLoop() {
	// First cycle immediately, then on the ticker
	a.runCycle()

	ticker := time.NewTicker(a.cfg.Engine.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			a.runCycle()
		}
	}
}

// runCycle executes one evaluation and fans the results out
func (a *App) runCycle() {
	started := time.Now()

	batch, err := a.engine.EvaluateUniverse(a.ctx)
	if err != nil {
		a.logger.WithError(err).Error("Evaluation cycle failed")
		return
	}

	a.latest.set(batch)

	if a.metrics != nil {
		a.metrics.ObserveBatch(batch, time.Since(started))
		if a.hub != nil {
			a.metrics.WSClients.Set(float64(a.hub.ClientCount()))
		}
	}

	if a.hub != nil {
		a.hub.BroadcastBatch(batch)
	}

	if a.natsClient != nil && len(batch.Actionable) > 0 {
		if err := a.natsClient.PublishBatch(batch); err != nil {
			if a.metrics != nil {
				a.metrics.PublishErrors.Inc()
			}
		}
	}
}

// Stop gracefully stops the application
func (a *App) Stop() error {
	a.logger.Info("Stopping application...")

	a.cancel()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.logger.Info("All goroutines stopped")
	case <-time.After(3 * time.Second):
		a.logger.Warn("Timeout waiting for goroutines to finish")
	}

	a.stopServicesWithTimeout()

	if err := a.closeConnections(); err != nil {
		a.logger.WithError(err).Error("Error closing connections")
	}

	a.logger.Info("Application stopped successfully")
	return nil
}

// stopServicesWithTimeout stops each service with a timeout
func (a *App) stopServicesWithTimeout() {
	if a.apiServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := a.apiServer.Stop(ctx); err != nil {
			a.logger.WithError(err).Error("Error stopping API server")
		}
		cancel()
	}

	if a.stream != nil {
		a.stream.Stop()
	}
}

// closeConnections closes external connections
func (a *App) closeConnections() error {
	var firstErr error

	if a.natsClient != nil {
		if err := a.natsClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.redisStore != nil {
		if err := a.redisStore.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// GetContext returns the application context
func (a *App) GetContext() context.Context {
	return a.ctx
}

// GetConfig returns the application configuration
func (a *App) GetConfig() *config.Config {
	return a.cfg
}
