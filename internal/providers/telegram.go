package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"golang.org/x/time/rate"

	"ingestion-service/internal/logging"
	"ingestion-service/internal/models"
	"ingestion-service/internal/utils"
)

// TelegramForwarder relays ALERT activities to an ops Telegram chat, rate
// limited and retried.
type TelegramForwarder struct {
	token   string
	chatID  int64
	limiter *rate.Limiter
	logger  *logging.Logger
}

func NewTelegramForwarder(token string, chatID int64, ratePerSecond int, logger *logging.Logger) *TelegramForwarder {
	return &TelegramForwarder{
		token:   token,
		chatID:  chatID,
		limiter: rate.NewLimiter(rate.Limit(float64(ratePerSecond)), ratePerSecond),
		logger:  logger,
	}
}

// NotifyAlert sends one alert activity to the configured chat.
func (f *TelegramForwarder) NotifyAlert(ctx context.Context, a models.Activity) error {
	if err := f.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram rate limit exceeded: %w", err)
	}

	text := fmt.Sprintf(
		"*Alert fired*\n%s\n\n*Channel:* %s\n*At:* %s",
		a.Content,
		a.ChannelID,
		a.Timestamp.Format(time.RFC3339),
	)

	return utils.Retry(f.logger, 3, time.Second, func() error {
		b, err := bot.New(f.token)
		if err != nil {
			return fmt.Errorf("failed to initialize Telegram bot: %w", err)
		}

		params := &bot.SendMessageParams{
			ChatID:    f.chatID,
			Text:      text,
			ParseMode: "Markdown",
		}
		if _, err := b.SendMessage(ctx, params); err != nil {
			return fmt.Errorf("failed to send Telegram message to chat_id %d: %w", f.chatID, err)
		}
		return nil
	})
}
