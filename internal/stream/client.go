// Package stream consumes the combined 24h ticker websocket feed and
// delivers raw event batches on a channel. The connection is owned by the
// client instance; each process constructs its own rather than sharing a
// process-wide singleton.
package stream

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pumpwatch/pumpwatch/internal/logger"
	"github.com/pumpwatch/pumpwatch/internal/models"
)

// Config controls stream client behavior.
type Config struct {
	URL              string        // combined ticker stream endpoint
	ReconnectDelay   time.Duration // fixed delay between reconnect attempts
	HandshakeTimeout time.Duration
	BatchBuffer      int // buffered batches before drops kick in
}

// DefaultConfig returns the standard stream configuration.
func DefaultConfig() Config {
	return Config{
		URL:              "wss://stream.binance.com:9443/ws/!ticker@arr",
		ReconnectDelay:   5 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		BatchBuffer:      64,
	}
}

// Client reads ticker batches from the websocket feed. It reconnects
// forever on transient failures with a fixed delay; only context
// cancellation stops it.
type Client struct {
	config  Config
	batches chan []models.RawTickerEvent
}

// New creates a stream client. Zero config fields fall back to defaults.
func New(config Config) *Client {
	def := DefaultConfig()
	if config.URL == "" {
		config.URL = def.URL
	}
	if config.ReconnectDelay <= 0 {
		config.ReconnectDelay = def.ReconnectDelay
	}
	if config.HandshakeTimeout <= 0 {
		config.HandshakeTimeout = def.HandshakeTimeout
	}
	if config.BatchBuffer <= 0 {
		config.BatchBuffer = def.BatchBuffer
	}
	return &Client{
		config:  config,
		batches: make(chan []models.RawTickerEvent, config.BatchBuffer),
	}
}

// Batches returns the channel raw event batches arrive on. It is closed
// when Run returns.
func (c *Client) Batches() <-chan []models.RawTickerEvent {
	return c.batches
}

// Run connects and pumps batches until ctx is cancelled. Dial and read
// failures are never fatal: the client sleeps the fixed reconnect delay
// and tries again, indefinitely.
func (c *Client) Run(ctx context.Context) {
	defer close(c.batches)

	for {
		if ctx.Err() != nil {
			return
		}

		if err := c.readOnce(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("Stream connection lost, reconnecting in %v: %v", c.config.ReconnectDelay, err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.config.ReconnectDelay):
		}
	}
}

// readOnce dials the endpoint and pumps messages until the connection
// breaks or ctx is cancelled.
func (c *Client) readOnce(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: c.config.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.config.URL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	logger.Info("Stream connected to %s", c.config.URL)

	// Closing the connection is the only way to unblock ReadMessage.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		batch, ok := decodeBatch(message)
		if !ok {
			continue
		}
		select {
		case c.batches <- batch:
		default:
			logger.Warn("Batch channel full, dropping %d events", len(batch))
		}
	}
}

// decodeBatch parses one websocket message into a batch of raw events.
// The feed delivers either an array of events or a single event object;
// anything else (subscription acks, malformed frames) is skipped.
func decodeBatch(message []byte) ([]models.RawTickerEvent, bool) {
	var batch []models.RawTickerEvent
	if err := json.Unmarshal(message, &batch); err == nil {
		return batch, len(batch) > 0
	}

	var single models.RawTickerEvent
	if err := json.Unmarshal(message, &single); err == nil && single.Symbol != "" {
		return []models.RawTickerEvent{single}, true
	}

	logger.Debug("Skipping undecodable stream message (%d bytes)", len(message))
	return nil, false
}
