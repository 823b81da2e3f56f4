// Package telegram implements the alert notification sink over the
// Telegram Bot API. The message ID returned by a send is the opaque
// handle later edits are keyed by.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pumpwatch/pumpwatch/internal/models"
)

// Client handles Telegram notifications.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// ListenForCommands starts a goroutine that polls for Telegram updates and
// handles bot commands. It returns immediately; the goroutine stops when
// ctx is cancelled.
func (c *Client) ListenForCommands(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message != nil && update.Message.IsCommand() {
					c.handleCommand(update.Message)
				}
			}
		}
	}()
}

func (c *Client) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "ping":
		reply := tgbotapi.NewMessage(msg.Chat.ID, "Pong")
		c.bot.Send(reply) //nolint:errcheck
	}
}

// SendAlert sends a new pump alert and returns its message ID as the
// handle for later edits.
func (c *Client) SendAlert(t models.Ticker) (int, error) {
	msg := tgbotapi.NewMessage(c.chatID, formatAlert(t, false))
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		sent, err := c.bot.Send(msg)
		if err == nil {
			return sent.MessageID, nil
		}
		lastErr = err
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return 0, fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// EditAlert rewrites the alert message in place. A handle that no longer
// resolves (message deleted out-of-band) surfaces as an error; the caller
// resets its state and sends fresh next time.
func (c *Client) EditAlert(handle int, t models.Ticker) error {
	edit := tgbotapi.NewEditMessageText(c.chatID, handle, formatAlert(t, true))
	edit.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if _, err := c.bot.Send(edit); err == nil {
			return nil
		} else {
			lastErr = err
			if !isRetryable(err) {
				break
			}
		}
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed to edit message %d: %w", handle, lastErr)
}

// isRetryable reports whether an API error is worth another attempt.
// "message to edit not found" and friends never recover on retry.
func isRetryable(err error) bool {
	msg := strings.ToLower(err.Error())
	return !strings.Contains(msg, "not found") &&
		!strings.Contains(msg, "message can't be edited")
}

// formatAlert renders the pump alert as Telegram MarkdownV2.
func formatAlert(t models.Ticker, edited bool) string {
	header := "🚀 *Pump Alert*"
	if edited {
		header = "🚀 *Pump Alert* \\(updated\\)"
	}

	symbol := escapeMarkdownV2(t.Symbol)
	change := escapeMarkdownV2(fmt.Sprintf("%+.2f%%", t.ChangePercent))
	price := escapeMarkdownV2(fmt.Sprintf("%g", t.LastPrice))
	high := escapeMarkdownV2(fmt.Sprintf("%g", t.High))
	low := escapeMarkdownV2(fmt.Sprintf("%g", t.Low))
	volume := escapeMarkdownV2(fmt.Sprintf("%.0f", t.QuoteVolume))

	return fmt.Sprintf("%s\n\n*%s* %s\n💰 Price: %s\n📊 24h Range: %s → %s\n💵 Quote Volume: %s",
		header, symbol, change, price, low, high, volume)
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4)
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
