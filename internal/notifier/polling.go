package notifier

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// CommandHandler is called when a user command is received.
type CommandHandler func(ctx context.Context, command string) string

// StartPolling long-polls for commands and replies in the originating chat.
// Only the configured chat is served. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := t.Bot.GetUpdatesChan(cfg)
	defer t.Bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info().Msg("Telegram polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			msg := update.Message
			if msg == nil || msg.Text == "" {
				continue
			}
			if msg.Chat.ID != t.ChatID {
				t.logger.Warn().Int64("chat_id", msg.Chat.ID).Msg("ignoring command from unknown chat")
				continue
			}
			text := strings.TrimSpace(msg.Text)
			t.logger.Info().Str("command", text).Msg("received command")
			if reply := handler(ctx, text); reply != "" {
				if err := t.sendTo(msg.Chat.ID, reply); err != nil {
					t.logger.Error().Err(err).Msg("send reply")
				}
			}
		}
	}
}
