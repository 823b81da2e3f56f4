// Package paper tracks a single simulated leveraged position valued
// against live snapshot prices. Nothing here talks to an exchange; "live"
// is a label, not a broker integration.
package paper

import (
	"errors"
	"sync"
	"time"

	"github.com/pumpwatch/pumpwatch/internal/models"
)

// Leverage is fixed for every simulated position.
const Leverage = 5

var (
	// ErrAlreadyOpen is returned when a position is opened while another
	// one is still held. One slot exists process-wide.
	ErrAlreadyOpen = errors.New("a simulated position is already open")

	// ErrNoMarketData is returned when the symbol has no snapshot yet at
	// open time.
	ErrNoMarketData = errors.New("no market data for symbol")

	// ErrNoPosition is returned by operations that need an open position.
	ErrNoPosition = errors.New("no open position")
)

// SnapshotSource yields the latest scored ticker for a symbol. The market
// board satisfies this.
type SnapshotSource interface {
	Get(symbol string) (models.ScoredTicker, bool)
}

// Tracker owns the single position slot. Open, Close, SetTakeProfit and
// Evaluate are mutually exclusive, so a valuation never observes a
// half-written position.
type Tracker struct {
	mu       sync.Mutex
	source   SnapshotSource
	position *models.Position
}

// New creates a tracker in the Closed state.
func New(source SnapshotSource) *Tracker {
	return &Tracker{source: source}
}

// Open creates the simulated position, capturing the entry price from the
// current snapshot. It is rejected when a position is already open or when
// the symbol has no snapshot; a rejected open leaves no partial state.
func (t *Tracker) Open(symbol string, direction models.Direction, notional float64) (models.Position, error) {
	if notional <= 0 {
		return models.Position{}, errors.New("notional must be positive")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.position != nil {
		return models.Position{}, ErrAlreadyOpen
	}
	snap, ok := t.source.Get(symbol)
	if !ok || snap.LastPrice <= 0 {
		return models.Position{}, ErrNoMarketData
	}

	t.position = &models.Position{
		Symbol:     symbol,
		EntryPrice: snap.LastPrice,
		Notional:   notional,
		Leverage:   Leverage,
		Direction:  direction,
		OpenedAt:   time.Now(),
	}
	return *t.position, nil
}

// SetTakeProfit records an advisory take-profit price on the open
// position, typically the analysis collaborator's recommendation.
func (t *Tracker) SetTakeProfit(price float64) error {
	if price <= 0 {
		return errors.New("take profit must be positive")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.position == nil {
		return ErrNoPosition
	}
	t.position.TakeProfit = price
	return nil
}

// ApplyAnalysis wires the analysis collaborator's recommended take-profit
// into the open position. An analysis without a recommendation is a no-op.
func (t *Tracker) ApplyAnalysis(a models.Analysis) error {
	if a.TakeProfit <= 0 {
		return nil
	}
	return t.SetTakeProfit(a.TakeProfit)
}

// Evaluate values the open position against the latest snapshot price. It
// returns (nil, nil) when the held symbol has disappeared from the
// snapshot table: the valuation is unavailable, which is not an error.
// Loss percentages are unbounded; the simulator has no liquidation floor.
func (t *Tracker) Evaluate() (*models.PnLView, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.position == nil {
		return nil, ErrNoPosition
	}
	snap, ok := t.source.Get(t.position.Symbol)
	if !ok {
		return nil, nil
	}

	p := t.position
	mark := snap.LastPrice

	var pnlPercent float64
	switch p.Direction {
	case models.Long:
		pnlPercent = (mark - p.EntryPrice) / p.EntryPrice * 100 * float64(p.Leverage)
	case models.Short:
		pnlPercent = (p.EntryPrice - mark) / p.EntryPrice * 100 * float64(p.Leverage)
	}

	view := &models.PnLView{
		Symbol:      p.Symbol,
		Direction:   p.Direction,
		EntryPrice:  p.EntryPrice,
		MarkPrice:   mark,
		Notional:    p.Notional,
		Leverage:    p.Leverage,
		PnLPercent:  pnlPercent,
		PnLAbsolute: p.Notional * pnlPercent / 100,
		EvaluatedAt: time.Now(),
	}
	if p.TakeProfit > 0 {
		switch p.Direction {
		case models.Long:
			view.TakeProfitHit = mark >= p.TakeProfit
		case models.Short:
			view.TakeProfitHit = mark <= p.TakeProfit
		}
	}
	return view, nil
}

// Close discards the position and returns a copy of what was held. Each
// simulated trade is independent; no realized-P&L ledger survives a close.
func (t *Tracker) Close() (models.Position, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.position == nil {
		return models.Position{}, ErrNoPosition
	}
	closed := *t.position
	t.position = nil
	return closed, nil
}

// Current returns a copy of the open position, if any.
func (t *Tracker) Current() (models.Position, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.position == nil {
		return models.Position{}, false
	}
	return *t.position, true
}
