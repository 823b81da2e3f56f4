package telegram

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pumpwatch/pumpwatch/internal/models"
)

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "Hello World"},
		{"PEPE_USDT", "PEPE\\_USDT"},
		{"+33.40%", "\\+33\\.40%"},
		{"[link](url)", "\\[link\\]\\(url\\)"},
		{"1e-07", "1e\\-07"},
		{"", ""},
		{"_*[]()~`>#+-=|{}.!", "\\_\\*\\[\\]\\(\\)\\~\\`\\>\\#\\+\\-\\=\\|\\{\\}\\.\\!"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := escapeMarkdownV2(tt.input)
			if result != tt.expected {
				t.Errorf("escapeMarkdownV2(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFormatAlert(t *testing.T) {
	ticker := models.Ticker{
		Symbol:        "PEPEUSDT",
		LastPrice:     0.0000125,
		ChangePercent: 33.4,
		High:          0.0000131,
		Low:           0.0000089,
		QuoteVolume:   52000000,
		EventTime:     time.Now(),
	}

	msg := formatAlert(ticker, false)
	if !strings.Contains(msg, "PEPEUSDT") {
		t.Error("formatted alert must contain the symbol")
	}
	if strings.Contains(msg, "updated") {
		t.Error("fresh alert must not be marked as updated")
	}

	edited := formatAlert(ticker, true)
	if !strings.Contains(edited, "updated") {
		t.Error("edited alert must be marked as updated")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err       error
		retryable bool
	}{
		{errors.New("Bad Request: message to edit not found"), false},
		{errors.New("Bad Request: message can't be edited"), false},
		{errors.New("Too Many Requests: retry after 5"), true},
		{errors.New("connection reset by peer"), true},
	}

	for _, tt := range tests {
		if got := isRetryable(tt.err); got != tt.retryable {
			t.Errorf("isRetryable(%q) = %v, want %v", tt.err, got, tt.retryable)
		}
	}
}

func TestNewClient_InvalidChatID(t *testing.T) {
	// The chat ID parse error path; token validation happens first on a
	// network call, so an empty token fails either way.
	_, err := NewClient("", "not-a-number", 3, time.Second)
	if err == nil {
		t.Error("Expected error for invalid chat ID, got nil")
	}
}
