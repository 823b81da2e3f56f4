// Package scoring derives momentum signals from a single normalized ticker.
// Every function here is total, pure, and free of side effects.
package scoring

import (
	"math"

	"github.com/pumpwatch/pumpwatch/internal/models"
)

const (
	// BuyPressureMin and BuyPressureMax bound the synthetic buy-pressure
	// percentage so it stays a valid gauge even for extreme moves.
	BuyPressureMin = 10.0
	BuyPressureMax = 95.0

	// VolatilityMax caps the blended volatility score.
	VolatilityMax = 100.0

	changeWeight = 0.4
	volumeWeight = 35.0
)

// BuyPressure maps the signed percent change onto [10, 95], centered at a
// neutral 50.
func BuyPressure(t models.Ticker) float64 {
	return clamp(50+t.ChangePercent*4, BuyPressureMin, BuyPressureMax)
}

// VolatilityScore blends the short-horizon percent move with a
// log-compressed volume contribution, capped at 100. The +1 inside the log
// guards the volume=0 case.
func VolatilityScore(t models.Ticker) float64 {
	volumeImpact := math.Log10(t.QuoteVolume+1) / 4
	raw := math.Abs(t.ChangePercent)*changeWeight + volumeImpact*volumeWeight
	return clamp(raw, 0, VolatilityMax)
}

// Score annotates a ticker with both derived signals.
func Score(t models.Ticker) models.ScoredTicker {
	return models.ScoredTicker{
		Ticker:          t,
		VolatilityScore: VolatilityScore(t),
		BuyPressure:     BuyPressure(t),
	}
}

// clamp bounds v to [lo, hi]. NaN collapses to lo so a malformed tick can
// never leak a non-finite score downstream.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
