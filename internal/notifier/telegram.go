package notifier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	Bot    *tgbotapi.BotAPI
	ChatID int64

	logger zerolog.Logger
}

// NewTelegramNotifier authorizes the bot, optionally through an HTTP proxy.
func NewTelegramNotifier(botToken string, chatID int64, proxyURL string) (*TelegramNotifier, error) {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(u)
	}
	client := &http.Client{Timeout: 60 * time.Second, Transport: transport}

	bot, err := tgbotapi.NewBotAPIWithClient(botToken, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("authorize telegram bot: %w", err)
	}
	logger := log.With().Str("component", "telegram").Logger()
	logger.Info().Str("username", bot.Self.UserName).Msg("Authorized on Telegram")
	return &TelegramNotifier{Bot: bot, ChatID: chatID, logger: logger}, nil
}

// Send sends an HTML message to the configured chat.
func (t *TelegramNotifier) Send(text string) error {
	return t.sendTo(t.ChatID, text)
}

func (t *TelegramNotifier) sendTo(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.Bot.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	attempt := 0
	op := func() error {
		attempt++
		err := t.Send(text)
		if err != nil {
			t.logger.Warn().Err(err).Int("attempt", attempt).Int("max", maxRetries+1).Msg("Telegram send failed")
		}
		return err
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(maxRetries)), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return fmt.Errorf("all %d attempts exhausted: %w", attempt, err)
	}
	return nil
}
