package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const klinesBody = `[
	[1700000000000,"100.0","110.0","95.0","105.0","1234.5",1700000059999,"130000",100,"600","63000","0"],
	[1700000060000,"105.0","112.0","104.0","111.0","987.6",1700000119999,"108000",80,"500","55000","0"]
]`

func TestFetchCandles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/klines" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("symbol"); got != "BTCUSDT" {
			t.Errorf("symbol param = %q, want BTCUSDT", got)
		}
		if got := r.URL.Query().Get("interval"); got != "1m" {
			t.Errorf("interval param = %q, want 1m", got)
		}
		w.Write([]byte(klinesBody)) //nolint:errcheck
	}))
	defer server.Close()

	c := NewClient(server.URL, 5*time.Second, ClientConfig{})
	candles, err := c.FetchCandles(context.Background(), "BTCUSDT", "1m", 2)
	if err != nil {
		t.Fatalf("FetchCandles failed: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("candles length = %d, want 2", len(candles))
	}

	first := candles[0]
	if first.Open != 100.0 || first.High != 110.0 || first.Low != 95.0 || first.Close != 105.0 {
		t.Errorf("unexpected OHLC: %+v", first)
	}
	if first.Volume != 1234.5 {
		t.Errorf("volume = %v, want 1234.5", first.Volume)
	}
	if first.Symbol != "BTCUSDT" || first.Interval != "1m" {
		t.Errorf("symbol/interval not carried through: %+v", first)
	}
	if !candles[1].OpenTime.After(first.OpenTime) {
		t.Error("candles must come back oldest first")
	}
}

func TestFetchCandles_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(klinesBody)) //nolint:errcheck
	}))
	defer server.Close()

	c := NewClient(server.URL, 5*time.Second, ClientConfig{
		MaxRetries:     3,
		RetryDelayBase: time.Millisecond,
	})
	candles, err := c.FetchCandles(context.Background(), "BTCUSDT", "1m", 2)
	if err != nil {
		t.Fatalf("FetchCandles failed after retries: %v", err)
	}
	if len(candles) != 2 {
		t.Errorf("candles length = %d, want 2", len(candles))
	}
	if calls.Load() != 3 {
		t.Errorf("server calls = %d, want 3", calls.Load())
	}
}

func TestFetchCandles_ExhaustedRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second, ClientConfig{
		MaxRetries:     2,
		RetryDelayBase: time.Millisecond,
	})
	if _, err := c.FetchCandles(context.Background(), "BTCUSDT", "1m", 2); err == nil {
		t.Fatal("expected error after exhausted retries")
	}
}

func TestFetchCandles_MalformedRow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[[1700000000000,"not-a-price","110","95","105","1",1700000059999]]`)) //nolint:errcheck
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second, ClientConfig{
		MaxRetries:     1,
		RetryDelayBase: time.Millisecond,
	})
	if _, err := c.FetchCandles(context.Background(), "BTCUSDT", "1m", 1); err == nil {
		t.Fatal("expected error for malformed kline row")
	}
}
