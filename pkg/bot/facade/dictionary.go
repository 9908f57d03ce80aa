package facade

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/snavid/tg-birthday-bot/pkg/logger"
)

// Completer abstracts the chat-completion call so the personas can be
// tested without network access.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userText string) (string, error)
}

// DictionaryFacade answers any text with a Longman-style dictionary
// entry for it.
type DictionaryFacade struct {
	completer Completer
}

func NewDictionaryFacade(completer Completer) *DictionaryFacade {
	return &DictionaryFacade{completer: completer}
}

func (f *DictionaryFacade) Name() string { return "dictionary" }

func (f *DictionaryFacade) HandleMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.Chat.ID == 0 {
		logger.Error("invalid update in dictionary facade")
		return
	}
	chatID := update.Message.Chat.ID
	text := update.Message.Text

	if text == "" {
		return
	}
	if text == "/start" {
		sendOrLog(ctx, b, chatID, "Hello, I'm your dictionary bot!")
		return
	}

	answer, err := f.completer.Complete(ctx, dictionaryPrompt(text), text)
	if err != nil {
		logger.Error("dictionary completion failed", "error", err)
		sendOrLog(ctx, b, chatID, "Failed to look that up. Please try again later.")
		return
	}
	sendOrLog(ctx, b, chatID, answer)
}

func (f *DictionaryFacade) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	// This persona has no inline keyboards.
}

func dictionaryPrompt(word string) string {
	return fmt.Sprintf(
		"Provide a comprehensive dictionary entry for the word %[1]s like Longman Contemporary style, including:\n"+
			"- Part of speech\n"+
			"- Definition\n"+
			"- Phonetics (how to pronounce the word)\n"+
			"- Two examples of how to use the word in a sentence\n"+
			"- Its frequency or commonality. Is it common to use it in informal conversation? If yes, give two examples of that.\n"+
			"- What other common alternative words that I can use instead of %[1]s?\n"+
			"- Give some of the common collocation for this word.\n"+
			"Do we have any common phrasal verb which contains %[1]s, give me an example of them.",
		word)
}

func sendOrLog(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}); err != nil {
		logger.Error("failed to send message", "chat_id", chatID, "error", err)
	}
}
