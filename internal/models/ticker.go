// Package models defines the core domain entities: tickers, positions, and alerts.
package models

import (
	"errors"
	"time"
)

// Ticker is a single normalized point-in-time quote for a symbol, adapted
// from one raw stream event. A new Ticker supersedes the prior one for the
// same symbol; instances are never mutated after construction.
type Ticker struct {
	Symbol        string    `json:"symbol"`
	LastPrice     float64   `json:"last_price"`
	ChangePercent float64   `json:"change_percent"` // signed, percent units
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	QuoteVolume   float64   `json:"quote_volume"`
	EventTime     time.Time `json:"event_time"`
}

// Validate checks ticker field constraints.
func (t *Ticker) Validate() error {
	if t.Symbol == "" {
		return errors.New("ticker symbol must not be empty")
	}
	if t.LastPrice < 0 {
		return errors.New("last price must not be negative")
	}
	if t.High < 0 || t.Low < 0 {
		return errors.New("high and low must not be negative")
	}
	if t.High < t.Low {
		return errors.New("high must be >= low")
	}
	if t.QuoteVolume < 0 {
		return errors.New("quote volume must not be negative")
	}
	return nil
}

// ScoredTicker is a Ticker annotated with the derived momentum signals.
// Both scores are pure functions of the ticker fields alone.
type ScoredTicker struct {
	Ticker

	VolatilityScore float64 `json:"volatility_score"` // [0, 100]
	BuyPressure     float64 `json:"buy_pressure"`     // [10, 95]
}

// Candle is one OHLCV bar from the historical fetch collaborator.
type Candle struct {
	Symbol    string    `json:"symbol"`
	Interval  string    `json:"interval"`
	OpenTime  time.Time `json:"open_time"`
	CloseTime time.Time `json:"close_time"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Validate checks candle field constraints.
func (c *Candle) Validate() error {
	if c.Symbol == "" {
		return errors.New("candle symbol must not be empty")
	}
	if c.Open < 0 || c.High < 0 || c.Low < 0 || c.Close < 0 {
		return errors.New("candle prices must not be negative")
	}
	if c.High < c.Low {
		return errors.New("candle high must be >= low")
	}
	if c.Volume < 0 {
		return errors.New("candle volume must not be negative")
	}
	if c.CloseTime.Before(c.OpenTime) {
		return errors.New("candle close time must be >= open time")
	}
	return nil
}
