// Package bot hosts the Telegram transport: update routing, the profile
// dialog, and outbound notifications.
package bot

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
)

// New builds the Telegram client with the handler as the default update
// sink.
func New(token string, h *Handler, logger *slog.Logger) (*bot.Bot, error) {
	opts := []bot.Option{
		bot.WithDefaultHandler(h.HandleUpdate),
		bot.WithErrorsHandler(func(err error) {
			logger.Error("telegram polling error", "error", err)
		}),
	}
	return bot.New(token, opts...)
}

// NewSender builds a send-only client that never consumes updates. The HTTP
// server and cron jobs use it for notifications.
func NewSender(token string) (*bot.Bot, error) {
	return bot.New(token, bot.WithSkipGetMe())
}

// Run starts long polling until the context is cancelled.
func Run(ctx context.Context, b *bot.Bot) {
	b.Start(ctx)
}
