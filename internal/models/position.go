package models

import (
	"errors"
	"strings"
	"time"
)

// Direction is the side of a simulated position.
type Direction int

const (
	Long Direction = iota
	Short
)

// String returns the canonical name of the direction.
func (d Direction) String() string {
	switch d {
	case Long:
		return "LONG"
	case Short:
		return "SHORT"
	default:
		return "UNKNOWN"
	}
}

// ParseDirection converts a case-insensitive side name into a Direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "long":
		return Long, nil
	case "short":
		return Short, nil
	}
	return Long, errors.New("direction must be long or short")
}

// Position is one simulated leveraged position. At most one exists
// process-wide; the tracker owns the instance and hands out copies.
type Position struct {
	Symbol     string    `json:"symbol"`
	EntryPrice float64   `json:"entry_price"`
	Notional   float64   `json:"notional"` // quote currency, before leverage
	Leverage   int       `json:"leverage"`
	Direction  Direction `json:"direction"`
	OpenedAt   time.Time `json:"opened_at"`

	// TakeProfit is an advisory price from the analysis collaborator.
	// Zero means none; crossing it is reported, never auto-executed.
	TakeProfit float64 `json:"take_profit,omitempty"`
}

// Validate checks position field constraints.
func (p *Position) Validate() error {
	if p.Symbol == "" {
		return errors.New("position symbol must not be empty")
	}
	if p.EntryPrice <= 0 {
		return errors.New("entry price must be positive")
	}
	if p.Notional <= 0 {
		return errors.New("notional must be positive")
	}
	if p.Leverage < 1 {
		return errors.New("leverage must be at least 1")
	}
	if p.TakeProfit < 0 {
		return errors.New("take profit must not be negative")
	}
	return nil
}

// PnLView is a read-only valuation of the open position against the
// latest snapshot price. Loss percentages are unbounded on purpose: the
// simulator models no liquidation floor.
type PnLView struct {
	Symbol        string    `json:"symbol"`
	Direction     Direction `json:"direction"`
	EntryPrice    float64   `json:"entry_price"`
	MarkPrice     float64   `json:"mark_price"`
	Notional      float64   `json:"notional"`
	Leverage      int       `json:"leverage"`
	PnLPercent    float64   `json:"pnl_percent"`
	PnLAbsolute   float64   `json:"pnl_absolute"`
	TakeProfitHit bool      `json:"take_profit_hit"`
	EvaluatedAt   time.Time `json:"evaluated_at"`
}

// Analysis is the output shape of the external LLM analysis collaborator.
// Its internal behavior is out of scope; only this contract is depended on.
type Analysis struct {
	Score      float64  `json:"score"`
	Rationale  string   `json:"rationale"`
	Confidence float64  `json:"confidence"`
	Risk       float64  `json:"risk"`
	Tags       []string `json:"tags,omitempty"`
	TakeProfit float64  `json:"take_profit,omitempty"` // 0 = no recommendation
}
