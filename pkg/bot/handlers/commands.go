package handlers

import (
	"context"
	"sort"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/snavid/tg-birthday-bot/pkg/bot/convo"
	"github.com/snavid/tg-birthday-bot/pkg/config"
	"github.com/snavid/tg-birthday-bot/pkg/db"
	"github.com/snavid/tg-birthday-bot/pkg/logger"
	"github.com/snavid/tg-birthday-bot/pkg/ui"
)

func HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.From == nil || update.Message.Chat.ID == 0 {
		logger.Error("invalid update in HandleStart")
		return
	}

	// /start restarts from a clean slate; any in-flight flow is gone.
	if err := convo.Clear(update.Message.From.ID); err != nil {
		logger.Error("failed to clear conversation state", "user_id", update.Message.From.ID, "error", err)
	}

	keyboard, err := ui.MainMenu()
	if err != nil {
		logger.Error("failed to build main menu", "error", err)
		return
	}
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      update.Message.Chat.ID,
		Text:        ui.WelcomeText,
		ReplyMarkup: keyboard,
	}); err != nil {
		logger.Error("failed to send welcome message", "user_id", update.Message.From.ID, "error", err)
	}
}

func HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.Chat.ID == 0 {
		logger.Error("invalid update in HandleHelp")
		return
	}

	keyboard, err := ui.MainMenu()
	if err != nil {
		logger.Error("failed to build main menu", "error", err)
		return
	}
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      update.Message.Chat.ID,
		Text:        ui.HelpText(),
		ReplyMarkup: keyboard,
	}); err != nil {
		logger.Error("failed to send help message", "error", err)
	}
}

func HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.From == nil || update.Message.Chat.ID == 0 {
		logger.Error("invalid update in HandleCancel")
		return
	}

	// Unconditional: cancelling an idle conversation is a no-op, not an
	// error.
	if err := convo.Clear(update.Message.From.ID); err != nil {
		logger.Error("failed to clear conversation state", "user_id", update.Message.From.ID, "error", err)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "Failed to cancel. Please try again later.",
		})
		return
	}

	keyboard, err := ui.MainMenu()
	if err != nil {
		logger.Error("failed to build main menu", "error", err)
		return
	}
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      update.Message.Chat.ID,
		Text:        "Operation cancelled.",
		ReplyMarkup: keyboard,
	}); err != nil {
		logger.Error("failed to send cancel confirmation", "user_id", update.Message.From.ID, "error", err)
	}
}

func HandleList(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.From == nil || update.Message.Chat.ID == 0 {
		logger.Error("invalid update in HandleList")
		return
	}

	text, keyboard, err := renderListFor(update.Message.From.ID, today())
	if err != nil {
		logger.Error("failed to render birthday list", "user_id", update.Message.From.ID, "error", err)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "Failed to load your birthdays. Please try again later.",
		})
		return
	}
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      update.Message.Chat.ID,
		Text:        text,
		ReplyMarkup: keyboard,
	}); err != nil {
		logger.Error("failed to send birthday list", "user_id", update.Message.From.ID, "error", err)
	}
}

func HandleSearch(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.From == nil || update.Message.Chat.ID == 0 {
		logger.Error("invalid update in HandleSearch")
		return
	}

	if err := convo.Begin(update.Message.From.ID, convo.StateWaitingForSearchName); err != nil {
		logger.Error("failed to begin search flow", "user_id", update.Message.From.ID, "error", err)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "Failed to start the search. Please try again later.",
		})
		return
	}
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   "Whose birthday are you looking for? Send a name.",
	}); err != nil {
		logger.Error("failed to send search prompt", "user_id", update.Message.From.ID, "error", err)
	}
}

// renderListFor builds the list view, scoped to the caller unless the
// registry is global, ordered soonest birthday first.
func renderListFor(userID int64, today time.Time) (string, *models.InlineKeyboardMarkup, error) {
	query := db.DB.Model(&db.Birthday{})
	if !config.AppConfig.Telegram.GlobalRegistry {
		query = query.Where("added_by = ?", userID)
	}
	var records []db.Birthday
	if err := query.Find(&records).Error; err != nil {
		return "", nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].NextOccurrence(today).Before(records[j].NextOccurrence(today))
	})
	return ui.RenderBirthdayList("🎂 Your birthdays:", records, today)
}
