// Package watcher tracks symbols crossing the pump threshold and drives
// the notification sink: one send per first crossing, in-place edits while
// the symbol stays hot, at most one outbound mutation per symbol per
// interval, and eviction with hysteresis once the move fades.
package watcher

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pumpwatch/pumpwatch/internal/logger"
	"github.com/pumpwatch/pumpwatch/internal/models"
)

// Config controls watcher behavior.
type Config struct {
	QuoteSuffix         string
	PumpThreshold       float64       // percent change that opens tracking
	HysteresisMargin    float64       // gap below the threshold that closes it
	MinReupdateInterval time.Duration // floor between outbound mutations per symbol
}

// DefaultConfig returns the standard watcher configuration.
func DefaultConfig() Config {
	return Config{
		QuoteSuffix:         "USDT",
		PumpThreshold:       30,
		HysteresisMargin:    5,
		MinReupdateInterval: 10 * time.Second,
	}
}

// Notifier is the outbound alert sink. SendAlert returns an opaque handle
// that later edits are keyed by. An edit whose handle no longer resolves
// must return an error.
type Notifier interface {
	SendAlert(t models.Ticker) (handle int, err error)
	EditAlert(handle int, t models.Ticker) error
}

// Journal persists watcher state across restarts and records the audit
// log. All methods may be called concurrently.
type Journal interface {
	SaveAlertState(state models.AlertState) error
	DeleteAlertState(symbol string) error
	RecordAlert(rec models.AlertRecord) error
}

// State is the per-symbol tracking state.
type State int

const (
	Untracked State = iota
	TrackedFresh
	TrackedThrottled
)

type entry struct {
	handle       int
	sent         bool // handle is valid
	inflight     bool // an outbound call is outstanding
	lastChange   float64
	lastUpdateAt time.Time
}

// Watcher holds the per-symbol alert state machine. Event processing is
// synchronous and cheap; outbound sink calls run in their own goroutines
// so one symbol's slow edit never stalls the rest of the stream.
type Watcher struct {
	mu       sync.Mutex
	config   Config
	notifier Notifier
	journal  Journal
	entries  map[string]*entry
	pending  sync.WaitGroup

	now func() time.Time
}

// New creates a watcher. journal may be nil when persistence is disabled.
func New(config Config, notifier Notifier, journal Journal) *Watcher {
	if config.MinReupdateInterval <= 0 {
		config.MinReupdateInterval = DefaultConfig().MinReupdateInterval
	}
	return &Watcher{
		config:   config,
		notifier: notifier,
		journal:  journal,
		entries:  make(map[string]*entry),
		now:      time.Now,
	}
}

// Restore seeds tracking state from a previous run so restarts edit the
// existing messages instead of sending duplicates.
func (w *Watcher) Restore(states []models.AlertState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, s := range states {
		w.entries[s.Symbol] = &entry{
			handle:       s.MessageHandle,
			sent:         true,
			lastChange:   s.LastChangePercent,
			lastUpdateAt: s.LastUpdateAt,
		}
	}
	logger.Info("Restored %d tracked symbols", len(states))
}

// ProcessBatch runs every event of one stream batch through the state
// machine. Malformed events are dropped; a bad tick never halts the batch.
func (w *Watcher) ProcessBatch(events []models.RawTickerEvent) {
	for i := range events {
		event := &events[i]
		if w.config.QuoteSuffix != "" && !strings.HasSuffix(event.Symbol, w.config.QuoteSuffix) {
			continue
		}
		ticker, err := event.Normalize()
		if err != nil {
			logger.Debug("Dropping malformed event: %v", err)
			continue
		}
		w.processTicker(ticker)
	}
}

func (w *Watcher) processTicker(t models.Ticker) {
	w.mu.Lock()
	defer w.mu.Unlock()

	e, tracked := w.entries[t.Symbol]
	now := w.now()

	switch {
	case t.ChangePercent >= w.config.PumpThreshold:
		if !tracked {
			w.entries[t.Symbol] = &entry{
				inflight:     true,
				lastChange:   t.ChangePercent,
				lastUpdateAt: now,
			}
			w.dispatchSend(t)
			return
		}
		if e.inflight || !e.sent {
			return // one outstanding call per symbol
		}
		if now.Sub(e.lastUpdateAt) < w.config.MinReupdateInterval {
			return // throttled, no side effect
		}
		e.inflight = true
		e.lastChange = t.ChangePercent
		e.lastUpdateAt = now
		w.dispatchEdit(t, e.handle)

	case t.ChangePercent < w.config.PumpThreshold-w.config.HysteresisMargin:
		if tracked {
			// The remote message is left as-is; only local state goes.
			delete(w.entries, t.Symbol)
			w.journalDelete(t.Symbol)
			logger.Info("Untracking %s (%.1f%% below hysteresis floor)", t.Symbol, t.ChangePercent)
		}
	}
}

func (w *Watcher) dispatchSend(t models.Ticker) {
	w.pending.Add(1)
	go func() {
		defer w.pending.Done()
		handle, err := w.notifier.SendAlert(t)

		w.mu.Lock()
		defer w.mu.Unlock()
		e, ok := w.entries[t.Symbol]
		if !ok {
			return // evicted while in flight; result discarded
		}
		if err != nil {
			logger.Warn("Alert send failed for %s, resetting: %v", t.Symbol, err)
			delete(w.entries, t.Symbol)
			w.journalDelete(t.Symbol)
			return
		}
		e.handle = handle
		e.sent = true
		e.inflight = false
		w.journalSave(t.Symbol, e)
		w.journalRecord(t, models.AlertSent, handle)
		logger.Info("Alert sent for %s (%.1f%%)", t.Symbol, t.ChangePercent)
	}()
}

func (w *Watcher) dispatchEdit(t models.Ticker, handle int) {
	w.pending.Add(1)
	go func() {
		defer w.pending.Done()
		err := w.notifier.EditAlert(handle, t)

		w.mu.Lock()
		defer w.mu.Unlock()
		e, ok := w.entries[t.Symbol]
		if !ok {
			return // evicted while in flight; result discarded
		}
		if err != nil {
			// The remote handle no longer resolves. Start fresh on the
			// next qualifying event instead of looping on the same failure.
			logger.Warn("Alert edit failed for %s, resetting: %v", t.Symbol, err)
			delete(w.entries, t.Symbol)
			w.journalDelete(t.Symbol)
			return
		}
		e.inflight = false
		w.journalSave(t.Symbol, e)
		w.journalRecord(t, models.AlertEdited, handle)
		logger.Info("Alert edited for %s (%.1f%%)", t.Symbol, t.ChangePercent)
	}()
}

func (w *Watcher) journalSave(symbol string, e *entry) {
	if w.journal == nil {
		return
	}
	state := models.AlertState{
		Symbol:            symbol,
		MessageHandle:     e.handle,
		LastChangePercent: e.lastChange,
		LastUpdateAt:      e.lastUpdateAt,
	}
	if err := w.journal.SaveAlertState(state); err != nil {
		logger.Warn("Failed to checkpoint alert state for %s: %v", symbol, err)
	}
}

func (w *Watcher) journalDelete(symbol string) {
	if w.journal == nil {
		return
	}
	if err := w.journal.DeleteAlertState(symbol); err != nil {
		logger.Warn("Failed to drop alert state for %s: %v", symbol, err)
	}
}

func (w *Watcher) journalRecord(t models.Ticker, action models.AlertAction, handle int) {
	if w.journal == nil {
		return
	}
	rec := models.AlertRecord{
		ID:            uuid.New().String(),
		Symbol:        t.Symbol,
		ChangePercent: t.ChangePercent,
		LastPrice:     t.LastPrice,
		Action:        action,
		MessageHandle: handle,
		At:            w.now(),
	}
	if err := w.journal.RecordAlert(rec); err != nil {
		logger.Warn("Failed to record alert for %s: %v", t.Symbol, err)
	}
}

// State reports the tracking state for a symbol.
func (w *Watcher) State(symbol string) State {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.entries[symbol]
	if !ok {
		return Untracked
	}
	if w.now().Sub(e.lastUpdateAt) < w.config.MinReupdateInterval {
		return TrackedThrottled
	}
	return TrackedFresh
}

// Tracked returns the number of currently tracked symbols.
func (w *Watcher) Tracked() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}

// Flush waits for every outstanding sink call to settle.
func (w *Watcher) Flush() {
	w.pending.Wait()
}
