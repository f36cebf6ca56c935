package alerts

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Tier selects which rendering of a message a Telegram chat receives.
type Tier string

const (
	TierFree  Tier = "free"
	TierElite Tier = "elite"
)

const (
	telegramMaxRetries = 3
	telegramRetryBase  = time.Second
)

// TelegramDestination posts alerts to one chat. Free chats get the terse
// rendering, elite chats the full breakdown.
type TelegramDestination struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	tier   Tier
}

// NewTelegramDestination creates a destination for the given chat and tier.
func NewTelegramDestination(botToken, chatID string, tier Tier) (*TelegramDestination, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid telegram chat id %q: %w", chatID, err)
	}

	return &TelegramDestination{bot: bot, chatID: chatIDInt, tier: tier}, nil
}

func (t *TelegramDestination) Name() string {
	return "telegram_" + string(t.tier)
}

// Send delivers with linear-backoff retry; Telegram rate limits transiently.
func (t *TelegramDestination) Send(ctx context.Context, msg Message) error {
	text := msg.Full
	if t.tier == TierFree {
		text = msg.Terse
	}

	out := tgbotapi.NewMessage(t.chatID, text)
	out.DisableWebPagePreview = true

	return sendWithRetry(ctx, telegramMaxRetries, telegramRetryBase, func() error {
		_, err := t.bot.Send(out)
		return err
	})
}

// sendWithRetry runs send up to attempts times with linear backoff between
// attempts. The final failure returns immediately without sleeping.
func sendWithRetry(ctx context.Context, attempts int, base time.Duration, send func() error) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		if lastErr = send(); lastErr == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(base * time.Duration(i+1)):
		}
	}
	return fmt.Errorf("telegram send failed after %d retries: %w", attempts, lastErr)
}
