// Package market maintains the live per-symbol snapshot board: each inbound
// batch is normalized, scored, and folded into a bounded price history plus
// a latest-value table published on a fixed cadence.
package market

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pumpwatch/pumpwatch/internal/logger"
	"github.com/pumpwatch/pumpwatch/internal/models"
	"github.com/pumpwatch/pumpwatch/internal/scoring"
)

// Config controls board behavior.
type Config struct {
	QuoteSuffix string // only symbols ending in this suffix are accepted
	HistorySize int    // max retained prices per symbol
}

// DefaultConfig returns the standard board configuration.
func DefaultConfig() Config {
	return Config{
		QuoteSuffix: "USDT",
		HistorySize: 15,
	}
}

// Board holds the latest scored ticker per symbol and a bounded recent-price
// history. Writes come from the single ingest loop; reads (snapshot,
// position valuation) may happen concurrently from other goroutines.
type Board struct {
	mu      sync.RWMutex
	config  Config
	latest  map[string]models.ScoredTicker
	history map[string][]float64
}

// New creates an empty board. Zero config fields fall back to defaults.
func New(config Config) *Board {
	if config.QuoteSuffix == "" {
		config.QuoteSuffix = DefaultConfig().QuoteSuffix
	}
	if config.HistorySize <= 0 {
		config.HistorySize = DefaultConfig().HistorySize
	}
	return &Board{
		config:  config,
		latest:  make(map[string]models.ScoredTicker),
		history: make(map[string][]float64),
	}
}

// Ingest folds one raw batch into the board: quote-suffix filtering,
// normalization, scoring, history append, snapshot overwrite. Malformed
// events are dropped without aborting the rest of the batch. Returns the
// number of accepted events.
func (b *Board) Ingest(events []models.RawTickerEvent) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	accepted := 0
	for i := range events {
		event := &events[i]
		if !strings.HasSuffix(event.Symbol, b.config.QuoteSuffix) {
			continue // filtering policy, not an error
		}
		ticker, err := event.Normalize()
		if err != nil {
			logger.Debug("Dropping malformed event: %v", err)
			continue
		}
		b.latest[ticker.Symbol] = scoring.Score(ticker)
		b.appendHistory(ticker.Symbol, ticker.LastPrice)
		accepted++
	}
	return accepted
}

func (b *Board) appendHistory(symbol string, price float64) {
	h := append(b.history[symbol], price)
	if len(h) > b.config.HistorySize {
		h = h[len(h)-b.config.HistorySize:]
	}
	b.history[symbol] = h
}

// Get returns the latest scored ticker for a symbol.
func (b *Board) Get(symbol string) (models.ScoredTicker, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	t, ok := b.latest[symbol]
	return t, ok
}

// History returns a copy of the retained prices for a symbol, oldest first.
func (b *Board) History(symbol string) []float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	h := b.history[symbol]
	out := make([]float64, len(h))
	copy(out, h)
	return out
}

// Snapshot returns the current board contents ordered by symbol. Consumers
// call this on a fixed cadence rather than per event; that cadence is the
// backpressure boundary between the stream rate and the consumption rate.
func (b *Board) Snapshot() []models.ScoredTicker {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]models.ScoredTicker, 0, len(b.latest))
	for _, t := range b.latest {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// TopMovers returns up to k tickers with the highest volatility score,
// descending.
func (b *Board) TopMovers(k int) []models.ScoredTicker {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]models.ScoredTicker, 0, len(b.latest))
	for _, t := range b.latest {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].VolatilityScore > out[j].VolatilityScore
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// Len returns the number of tracked symbols.
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.latest)
}

// SnapshotScheduler is the cancellable handle for a cadence-driven
// snapshot subscription.
type SnapshotScheduler struct {
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// Stop cancels the scheduled snapshots and waits for the loop to exit.
// Safe to call more than once.
func (s *SnapshotScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

// Schedule invokes fn with a fresh snapshot on the given cadence until the
// returned handle is stopped.
func (b *Board) Schedule(cadence time.Duration, fn func([]models.ScoredTicker)) *SnapshotScheduler {
	s := &SnapshotScheduler{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(cadence)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				fn(b.Snapshot())
			}
		}
	}()
	return s
}
