package bot

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"staffbot-backend/internal/service"
)

// Notifier delivers service messages over the Telegram API. It only sends;
// it never starts long polling, so the HTTP server and cron jobs can share
// it without consuming updates.
type Notifier struct {
	b *bot.Bot
}

func NewNotifier(b *bot.Bot) *Notifier {
	return &Notifier{b: b}
}

func (n *Notifier) Notify(ctx context.Context, telegramID int64, msg service.Message) error {
	params := &bot.SendMessageParams{
		ChatID: telegramID,
		Text:   msg.Text,
	}
	if len(msg.Actions) > 0 {
		row := make([]models.InlineKeyboardButton, 0, len(msg.Actions))
		for _, a := range msg.Actions {
			row = append(row, models.InlineKeyboardButton{
				Text:         a.Label,
				CallbackData: a.Data,
			})
		}
		params.ReplyMarkup = models.InlineKeyboardMarkup{
			InlineKeyboard: [][]models.InlineKeyboardButton{row},
		}
	}
	_, err := n.b.SendMessage(ctx, params)
	return err
}
