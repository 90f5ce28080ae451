// Package notify delivers run announcements and artifacts to Telegram.
// Notification failures are logged and swallowed; they never affect a run.
package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// maxMessageLen is Telegram's hard limit per message.
const maxMessageLen = 4096

// Telegram sends to a single chat.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

// NewTelegram builds a notifier for the given bot token and chat.
func NewTelegram(token string, chatID int64, logger *zap.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("notify: telegram auth: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID, logger: logger}, nil
}

// SendText delivers a message, splitting it when it exceeds Telegram's
// per-message limit.
func (t *Telegram) SendText(_ context.Context, text string) {
	for _, chunk := range splitMessage(text, maxMessageLen) {
		msg := tgbotapi.NewMessage(t.chatID, chunk)
		if _, err := t.bot.Send(msg); err != nil {
			t.logger.Warn("telegram message failed", zap.Error(err))
			return
		}
	}
}

// SendDocument uploads a file with a caption.
func (t *Telegram) SendDocument(_ context.Context, path, caption string) {
	doc := tgbotapi.NewDocument(t.chatID, tgbotapi.FilePath(path))
	doc.Caption = caption
	if _, err := t.bot.Send(doc); err != nil {
		t.logger.Warn("telegram document failed",
			zap.String("path", path), zap.Error(err))
	}
}

// splitMessage cuts text into chunks of at most limit bytes, preferring to
// break on a newline.
func splitMessage(text string, limit int) []string {
	if text == "" {
		return nil
	}
	var chunks []string
	for len(text) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if text[i-1] == '\n' {
				cut = i
				break
			}
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	return append(chunks, text)
}

// NoOp discards all notifications.
type NoOp struct{}

func (NoOp) SendText(context.Context, string)             {}
func (NoOp) SendDocument(context.Context, string, string) {}
