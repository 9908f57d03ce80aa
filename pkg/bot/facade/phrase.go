package facade

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/snavid/tg-birthday-bot/pkg/logger"
)

// PhraseFacade suggests vocabulary for discussing whatever topic the
// user sends.
type PhraseFacade struct {
	completer Completer
}

func NewPhraseFacade(completer Completer) *PhraseFacade {
	return &PhraseFacade{completer: completer}
}

func (f *PhraseFacade) Name() string { return "phrase" }

func (f *PhraseFacade) HandleMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.Chat.ID == 0 {
		logger.Error("invalid update in phrase facade")
		return
	}
	chatID := update.Message.Chat.ID
	text := update.Message.Text

	if text == "" {
		return
	}
	if text == "/start" {
		sendOrLog(ctx, b, chatID, "Hello, I'm your phrase helper bot!")
		return
	}

	answer, err := f.completer.Complete(ctx, phrasePrompt(text), text)
	if err != nil {
		logger.Error("phrase completion failed", "error", err)
		sendOrLog(ctx, b, chatID, "Failed to come up with suggestions. Please try again later.")
		return
	}
	sendOrLog(ctx, b, chatID, answer)
}

func (f *PhraseFacade) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	// This persona has no inline keyboards.
}

func phrasePrompt(topic string) string {
	return fmt.Sprintf(
		"I'm looking to enhance my English vocabulary for discussions about %s. "+
			"Could you provide me with some words or phrases, along with examples of how "+
			"they are used in informal situations?", topic)
}
