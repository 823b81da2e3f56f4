package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pumpwatch/pumpwatch/internal/config"
	"github.com/pumpwatch/pumpwatch/internal/logger"
	"github.com/pumpwatch/pumpwatch/internal/models"
	"github.com/pumpwatch/pumpwatch/internal/storage"
	"github.com/pumpwatch/pumpwatch/internal/stream"
	"github.com/pumpwatch/pumpwatch/internal/telegram"
	"github.com/pumpwatch/pumpwatch/internal/watcher"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

// logNotifier stands in for the Telegram sink when notifications are
// disabled, so the watcher can run dry.
type logNotifier struct {
	next int
}

func (n *logNotifier) SendAlert(t models.Ticker) (int, error) {
	n.next++
	logger.Info("[dry-run] alert for %s (%+.2f%%)", t.Symbol, t.ChangePercent)
	return n.next, nil
}

func (n *logNotifier) EditAlert(handle int, t models.Ticker) error {
	logger.Info("[dry-run] alert #%d updated for %s (%+.2f%%)", handle, t.Symbol, t.ChangePercent)
	return nil
}

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var notifier watcher.Notifier
	if cfg.Telegram.Enabled && settings.NotificationsEnabled {
		telegramClient, err := telegram.NewClient(
			cfg.Telegram.BotToken, cfg.Telegram.ChatID,
			cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase,
		)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		telegramClient.ListenForCommands(ctx)
		notifier = telegramClient
		logger.Info("Telegram client initialized successfully")
	} else {
		notifier = &logNotifier{}
		logger.Info("Notifications disabled, running dry")
	}

	w := watcher.New(watcher.Config{
		QuoteSuffix:         cfg.Stream.QuoteSuffix,
		PumpThreshold:       cfg.Watcher.PumpThreshold,
		HysteresisMargin:    cfg.Watcher.HysteresisMargin,
		MinReupdateInterval: cfg.Watcher.MinReupdateInterval,
	}, notifier, store)

	if states, err := store.LoadAlertStates(); err != nil {
		logger.Warn("Failed to load persisted alert states: %v", err)
	} else if len(states) > 0 {
		w.Restore(states)
	}

	streamClient := stream.New(stream.Config{
		URL:              cfg.Stream.WSURL,
		ReconnectDelay:   cfg.Stream.ReconnectDelay,
		HandshakeTimeout: cfg.Stream.HandshakeTimeout,
		BatchBuffer:      cfg.Stream.BatchBuffer,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	logger.Info("Watcher started (threshold %.1f%%, hysteresis %.1f, interval %v)",
		cfg.Watcher.PumpThreshold, cfg.Watcher.HysteresisMargin, cfg.Watcher.MinReupdateInterval)

	go streamClient.Run(ctx)
	for batch := range streamClient.Batches() {
		w.ProcessBatch(batch)
	}

	w.Flush()
	logger.Info("Watcher stopped (%d symbols tracked)", w.Tracked())
}
