package models

import (
	"fmt"
	"strconv"
	"time"
)

// RawTickerEvent is one element of an inbound stream batch, numeric fields
// still in their wire (string) form. Batches arrive unordered.
type RawTickerEvent struct {
	Event         string `json:"e"`
	EventTime     int64  `json:"E"` // milliseconds
	Symbol        string `json:"s"`
	LastPrice     string `json:"c"`
	ChangePercent string `json:"P"`
	High          string `json:"h"`
	Low           string `json:"l"`
	QuoteVolume   string `json:"q"`
}

// Normalize parses the wire fields into a Ticker. A parse failure on any
// numeric field rejects the whole event; callers drop it and continue with
// the rest of the batch.
func (r *RawTickerEvent) Normalize() (Ticker, error) {
	if r.Symbol == "" {
		return Ticker{}, fmt.Errorf("event has no symbol")
	}
	last, err := strconv.ParseFloat(r.LastPrice, 64)
	if err != nil {
		return Ticker{}, fmt.Errorf("bad last price for %s: %w", r.Symbol, err)
	}
	change, err := strconv.ParseFloat(r.ChangePercent, 64)
	if err != nil {
		return Ticker{}, fmt.Errorf("bad change percent for %s: %w", r.Symbol, err)
	}
	high, err := strconv.ParseFloat(r.High, 64)
	if err != nil {
		return Ticker{}, fmt.Errorf("bad high for %s: %w", r.Symbol, err)
	}
	low, err := strconv.ParseFloat(r.Low, 64)
	if err != nil {
		return Ticker{}, fmt.Errorf("bad low for %s: %w", r.Symbol, err)
	}
	volume, err := strconv.ParseFloat(r.QuoteVolume, 64)
	if err != nil {
		return Ticker{}, fmt.Errorf("bad quote volume for %s: %w", r.Symbol, err)
	}
	return Ticker{
		Symbol:        r.Symbol,
		LastPrice:     last,
		ChangePercent: change,
		High:          high,
		Low:           low,
		QuoteVolume:   volume,
		EventTime:     time.UnixMilli(r.EventTime),
	}, nil
}
