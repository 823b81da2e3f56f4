// Package config loads and validates the application configuration.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Stream   StreamConfig   `mapstructure:"stream"`
	Board    BoardConfig    `mapstructure:"board"`
	Paper    PaperConfig    `mapstructure:"paper"`
	Watcher  WatcherConfig  `mapstructure:"watcher"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Rest     RestConfig     `mapstructure:"rest"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// StreamConfig holds websocket feed configuration.
type StreamConfig struct {
	WSURL            string        `mapstructure:"ws_url"`
	QuoteSuffix      string        `mapstructure:"quote_suffix"`
	ReconnectDelay   time.Duration `mapstructure:"reconnect_delay"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	BatchBuffer      int           `mapstructure:"batch_buffer"`
}

// BoardConfig holds snapshot board configuration.
type BoardConfig struct {
	HistorySize     int           `mapstructure:"history_size"`
	SnapshotCadence time.Duration `mapstructure:"snapshot_cadence"`
	TopK            int           `mapstructure:"top_k"`
}

// PaperConfig holds simulated trading configuration.
type PaperConfig struct {
	Leverage        int     `mapstructure:"leverage"`
	DefaultNotional float64 `mapstructure:"default_notional"`
}

// WatcherConfig holds alert watcher behavior configuration.
type WatcherConfig struct {
	PumpThreshold       float64       `mapstructure:"pump_threshold"`
	HysteresisMargin    float64       `mapstructure:"hysteresis_margin"`
	MinReupdateInterval time.Duration `mapstructure:"min_reupdate_interval"`
}

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// RestConfig holds the historical candle fetch configuration.
type RestConfig struct {
	APIURL         string        `mapstructure:"api_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	DBPath    string `mapstructure:"db_path"`
	MaxAlerts int    `mapstructure:"max_alerts"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	v.SetEnvPrefix("PUMPWATCH")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	v.SetDefault("stream.ws_url", "wss://stream.binance.com:9443/ws/!ticker@arr")
	v.SetDefault("stream.quote_suffix", "USDT")
	v.SetDefault("stream.reconnect_delay", "5s")
	v.SetDefault("stream.handshake_timeout", "10s")
	v.SetDefault("stream.batch_buffer", 64)

	v.SetDefault("board.history_size", 15)
	v.SetDefault("board.snapshot_cadence", "1s")
	v.SetDefault("board.top_k", 10)

	v.SetDefault("paper.leverage", 5)
	v.SetDefault("paper.default_notional", 1000.0)

	v.SetDefault("watcher.pump_threshold", 30.0)
	v.SetDefault("watcher.hysteresis_margin", 5.0)
	v.SetDefault("watcher.min_reupdate_interval", "10s")

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	v.SetDefault("rest.api_url", "https://api.binance.com")
	v.SetDefault("rest.timeout", "30s")
	v.SetDefault("rest.max_retries", 3)
	v.SetDefault("rest.retry_delay_base", "1s")

	v.SetDefault("storage.db_path", "./data/pumpwatch.db")
	v.SetDefault("storage.max_alerts", 1000)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid.
func (c *Config) Validate() error {
	if c.Stream.WSURL == "" {
		return fmt.Errorf("stream.ws_url is required")
	}
	if c.Stream.QuoteSuffix == "" {
		return fmt.Errorf("stream.quote_suffix is required")
	}
	if c.Stream.ReconnectDelay < time.Second {
		return fmt.Errorf("stream.reconnect_delay must be at least 1 second")
	}
	if c.Stream.BatchBuffer < 1 {
		return fmt.Errorf("stream.batch_buffer must be at least 1")
	}

	if c.Board.HistorySize < 1 {
		return fmt.Errorf("board.history_size must be at least 1")
	}
	if c.Board.SnapshotCadence < 100*time.Millisecond {
		return fmt.Errorf("board.snapshot_cadence must be at least 100ms")
	}
	if c.Board.TopK < 1 {
		return fmt.Errorf("board.top_k must be at least 1")
	}

	if c.Paper.Leverage != 5 {
		return fmt.Errorf("paper.leverage is fixed at 5")
	}
	if c.Paper.DefaultNotional <= 0 {
		return fmt.Errorf("paper.default_notional must be positive")
	}

	if c.Watcher.PumpThreshold <= 0 {
		return fmt.Errorf("watcher.pump_threshold must be positive")
	}
	if c.Watcher.HysteresisMargin < 0 || c.Watcher.HysteresisMargin >= c.Watcher.PumpThreshold {
		return fmt.Errorf("watcher.hysteresis_margin must be in [0, pump_threshold)")
	}
	if c.Watcher.MinReupdateInterval < time.Second {
		return fmt.Errorf("watcher.min_reupdate_interval must be at least 1 second")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	if c.Rest.APIURL == "" {
		return fmt.Errorf("rest.api_url is required")
	}

	if c.Storage.MaxAlerts < 1 {
		return fmt.Errorf("storage.max_alerts must be at least 1")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
