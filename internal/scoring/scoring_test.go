package scoring

import (
	"math"
	"testing"

	"github.com/pumpwatch/pumpwatch/internal/models"
)

func TestBuyPressure(t *testing.T) {
	tests := []struct {
		name          string
		changePercent float64
		expected      float64
	}{
		{"neutral", 0, 50},
		{"mild pump", 5, 70},
		{"mild dump", -5, 30},
		{"clamped high", 20, 95},
		{"clamped low", -20, 10},
		{"extreme pump", 1000, 95},
		{"total collapse", -100, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuyPressure(models.Ticker{Symbol: "BTCUSDT", ChangePercent: tt.changePercent})
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("BuyPressure(%v) = %v, want %v", tt.changePercent, got, tt.expected)
			}
		})
	}
}

func TestVolatilityScore_ZeroVolume(t *testing.T) {
	got := VolatilityScore(models.Ticker{Symbol: "BTCUSDT", ChangePercent: 10, QuoteVolume: 0})
	// log10(0+1) = 0, so only the percent-change term contributes.
	want := 10 * 0.4
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("VolatilityScore with zero volume = %v, want %v", got, want)
	}
}

func TestVolatilityScore_Bounds(t *testing.T) {
	tests := []struct {
		name   string
		ticker models.Ticker
	}{
		{"quiet", models.Ticker{ChangePercent: 0, QuoteVolume: 0}},
		{"huge pump huge volume", models.Ticker{ChangePercent: 1000, QuoteVolume: 1e12}},
		{"huge dump", models.Ticker{ChangePercent: -100, QuoteVolume: 5e9}},
		{"tiny volume", models.Ticker{ChangePercent: 2.5, QuoteVolume: 0.001}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VolatilityScore(tt.ticker)
			if got < 0 || got > VolatilityMax {
				t.Errorf("VolatilityScore = %v, outside [0, %v]", got, VolatilityMax)
			}
		})
	}
}

func TestVolatilityScore_Cap(t *testing.T) {
	got := VolatilityScore(models.Ticker{ChangePercent: 500, QuoteVolume: 1e10})
	if got != VolatilityMax {
		t.Errorf("expected cap at %v, got %v", VolatilityMax, got)
	}
}

func TestScore_NaNInput(t *testing.T) {
	st := Score(models.Ticker{Symbol: "BTCUSDT", ChangePercent: math.NaN(), QuoteVolume: math.NaN()})
	if math.IsNaN(st.VolatilityScore) || math.IsNaN(st.BuyPressure) {
		t.Fatalf("scores must stay finite for NaN input: vol=%v bp=%v", st.VolatilityScore, st.BuyPressure)
	}
	if st.BuyPressure != BuyPressureMin {
		t.Errorf("NaN buy pressure should collapse to %v, got %v", BuyPressureMin, st.BuyPressure)
	}
}

func TestScore_Deterministic(t *testing.T) {
	ticker := models.Ticker{Symbol: "DOGEUSDT", LastPrice: 0.42, ChangePercent: 33.3, QuoteVolume: 7.5e7}
	first := Score(ticker)
	second := Score(ticker)
	if first.VolatilityScore != second.VolatilityScore || first.BuyPressure != second.BuyPressure {
		t.Errorf("scoring must be deterministic: %+v vs %+v", first, second)
	}
}
