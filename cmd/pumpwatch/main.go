package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pumpwatch/pumpwatch/internal/config"
	"github.com/pumpwatch/pumpwatch/internal/logger"
	"github.com/pumpwatch/pumpwatch/internal/market"
	"github.com/pumpwatch/pumpwatch/internal/models"
	"github.com/pumpwatch/pumpwatch/internal/paper"
	"github.com/pumpwatch/pumpwatch/internal/rest"
	"github.com/pumpwatch/pumpwatch/internal/storage"
	"github.com/pumpwatch/pumpwatch/internal/stream"
)

var (
	configPath   = flag.String("config", "configs/config.yaml", "Path to configuration file")
	openSymbol   = flag.String("open", "", "Open a simulated position for this symbol once market data arrives")
	openSide     = flag.String("side", "long", "Position side: long or short")
	openNotional = flag.Float64("notional", 0, "Position notional in quote currency (0 = persisted default)")
	takeProfit   = flag.Float64("takeprofit", 0, "Advisory take-profit price (0 = none)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	store, err := storage.New(cfg.Storage.MaxAlerts, cfg.Storage.DBPath)
	if err != nil {
		logger.Fatal("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	settings, err := store.LoadUserSettings()
	if err != nil {
		logger.Fatal("Failed to load user settings: %v", err)
	}

	direction, err := models.ParseDirection(*openSide)
	if err != nil && *openSymbol != "" {
		logger.Fatal("Invalid -side: %v", err)
	}
	notional := *openNotional
	if notional <= 0 {
		notional = settings.DefaultNotional
	}
	if notional <= 0 {
		notional = cfg.Paper.DefaultNotional
	}

	board := market.New(market.Config{
		QuoteSuffix: cfg.Stream.QuoteSuffix,
		HistorySize: cfg.Board.HistorySize,
	})
	tracker := paper.New(board)

	restClient := rest.NewClient(cfg.Rest.APIURL, cfg.Rest.Timeout, rest.ClientConfig{
		MaxRetries:     cfg.Rest.MaxRetries,
		RetryDelayBase: cfg.Rest.RetryDelayBase,
	})

	streamClient := stream.New(stream.Config{
		URL:              cfg.Stream.WSURL,
		ReconnectDelay:   cfg.Stream.ReconnectDelay,
		HandshakeTimeout: cfg.Stream.HandshakeTimeout,
		BatchBuffer:      cfg.Stream.BatchBuffer,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	go streamClient.Run(ctx)
	go func() {
		for batch := range streamClient.Batches() {
			if n := board.Ingest(batch); n > 0 {
				logger.Debug("Ingested %d events (%d symbols tracked)", n, board.Len())
			}
		}
	}()

	opened := *openSymbol == ""
	symbol := strings.ToUpper(*openSymbol)

	scheduler := board.Schedule(cfg.Board.SnapshotCadence, func(snap []models.ScoredTicker) {
		if len(snap) == 0 {
			return
		}

		for _, t := range board.TopMovers(cfg.Board.TopK) {
			if t.QuoteVolume < settings.MinQuoteVolume {
				continue
			}
			logger.Info("%-12s %8.2f%%  vol-score %5.1f  buy-pressure %4.1f%%  last %g",
				t.Symbol, t.ChangePercent, t.VolatilityScore, t.BuyPressure, t.LastPrice)
		}

		if !opened {
			if _, ok := board.Get(symbol); !ok {
				return
			}
			pos, err := tracker.Open(symbol, direction, notional)
			if err != nil {
				logger.Error("Failed to open position: %v", err)
				opened = true // do not retry a rejected open every tick
				return
			}
			opened = true
			logger.Info("Opened %s %s, notional %.2f @ %g (leverage %dx)",
				pos.Direction, pos.Symbol, pos.Notional, pos.EntryPrice, pos.Leverage)

			if *takeProfit > 0 {
				if err := tracker.ApplyAnalysis(models.Analysis{TakeProfit: *takeProfit}); err != nil {
					logger.Warn("Failed to set take profit: %v", err)
				}
			}
			logRecentRange(ctx, restClient, symbol)
			return
		}

		view, err := tracker.Evaluate()
		if err != nil || view == nil {
			return
		}
		logger.Info("P&L %s %s: %+.2f%% (%+.2f) @ %g", view.Direction, view.Symbol,
			view.PnLPercent, view.PnLAbsolute, view.MarkPrice)
		if view.TakeProfitHit {
			logger.Info("Take-profit price reached for %s", view.Symbol)
		}
	})

	logger.Info("Screener started (cadence %v, quote suffix %s, top %d)",
		cfg.Board.SnapshotCadence, cfg.Stream.QuoteSuffix, cfg.Board.TopK)

	<-ctx.Done()
	scheduler.Stop()
	if pos, err := tracker.Close(); err == nil {
		logger.Info("Discarded open %s position on %s", pos.Direction, pos.Symbol)
	}
	logger.Info("Screener stopped")
}

// logRecentRange pulls a handful of recent candles for context around a
// freshly opened position.
func logRecentRange(ctx context.Context, client *rest.Client, symbol string) {
	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	candles, err := client.FetchCandles(fetchCtx, symbol, "1m", 30)
	if err != nil {
		logger.Warn("Failed to fetch recent candles for %s: %v", symbol, err)
		return
	}
	if len(candles) == 0 {
		return
	}
	low, high := candles[0].Low, candles[0].High
	for _, c := range candles[1:] {
		if c.Low < low {
			low = c.Low
		}
		if c.High > high {
			high = c.High
		}
	}
	logger.Info("Recent %dm range for %s: %g to %g", len(candles), symbol, low, high)
}
