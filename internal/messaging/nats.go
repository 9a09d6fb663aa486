// Package messaging publishes evaluation results over NATS so downstream
// consumers (alerting, relays) can react without polling the API.
package messaging

import (
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/rami12200/trading-signals-sub000/pkg/config"
	"github.com/rami12200/trading-signals-sub000/pkg/models"
)

// NATSClient publishes signals and cycle batches
type NATSClient struct {
	conn    *nats.Conn
	encoder *nats.EncodedConn
	logger  *logrus.Entry
	cfg     *config.NATSConfig
}

// NewNATSClient connects to NATS with reconnect handling
func NewNATSClient(cfg *config.NATSConfig, logger *logrus.Logger) (*NATSClient, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnect),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.WithError(err).Warn("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	encoder, err := nats.NewEncodedConn(conn, nats.JSON_ENCODER)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create encoded connection: %w", err)
	}

	return &NATSClient{
		conn:    conn,
		encoder: encoder,
		logger:  logger.WithField("component", "nats"),
		cfg:     cfg,
	}, nil
}

// Close closes the NATS connection
func (nc *NATSClient) Close() error {
	nc.encoder.Close()
	nc.conn.Close()
	return nil
}

// IsConnected checks if NATS is connected
func (nc *NATSClient) IsConnected() bool {
	return nc.conn.IsConnected()
}

// PublishSignal publishes one actionable signal to signals.{symbol}
func (nc *NATSClient) PublishSignal(sig *models.Signal) error {
	subject := fmt.Sprintf("signals.%s", sig.Symbol)
	if err := nc.encoder.Publish(subject, sig); err != nil {
		return fmt.Errorf("failed to publish signal: %w", err)
	}
	return nil
}

// PublishBatch publishes every actionable signal of a cycle
func (nc *NATSClient) PublishBatch(batch *models.Batch) error {
	for i := range batch.Actionable {
		if err := nc.PublishSignal(&batch.Actionable[i]); err != nil {
			nc.logger.WithError(err).WithField("symbol", batch.Actionable[i].Symbol).
				Error("Failed to publish signal")
			return err
		}
	}
	return nil
}

// SubscribeSignals subscribes to the signal stream for one symbol, or all
// symbols with "*".
func (nc *NATSClient) SubscribeSignals(symbol string, handler func(*models.Signal)) (*nats.Subscription, error) {
	subject := fmt.Sprintf("signals.%s", symbol)
	sub, err := nc.encoder.Subscribe(subject, handler)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	return sub, nil
}
