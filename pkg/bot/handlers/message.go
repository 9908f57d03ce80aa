package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/snavid/tg-birthday-bot/pkg/bot/convo"
	"github.com/snavid/tg-birthday-bot/pkg/config"
	"github.com/snavid/tg-birthday-bot/pkg/db"
	"github.com/snavid/tg-birthday-bot/pkg/logger"
	"github.com/snavid/tg-birthday-bot/pkg/ui"
)

// HandleMessage routes one inbound message of the birthday persona:
// slash commands first, then the admin elevation command, then the
// conversation state machine, and finally the help fallback.
func HandleMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.From == nil || update.Message.Chat.ID == 0 {
		logger.Error("invalid update in HandleMessage")
		return
	}

	text := strings.TrimSpace(update.Message.Text)
	switch command(text) {
	case "/start":
		HandleStart(ctx, b, update)
		return
	case "/help":
		HandleHelp(ctx, b, update)
		return
	case "/cancel":
		HandleCancel(ctx, b, update)
		return
	case "/list":
		HandleList(ctx, b, update)
		return
	case "/search":
		HandleSearch(ctx, b, update)
		return
	case "/export":
		HandleExport(ctx, b, update)
		return
	case "/promote":
		handlePromote(ctx, b, update, text)
		return
	}
	if strings.HasPrefix(text, adminCommandPrefix) {
		handleAdminElevation(ctx, b, update, text)
		return
	}

	userID := update.Message.From.ID
	reply, handled, err := convo.HandleText(userID, displayName(update.Message.From), text, time.Now().UTC(), convo.Options{
		GlobalRegistry: config.AppConfig.Telegram.GlobalRegistry,
	})
	if err != nil {
		logger.Error("conversation step failed", "user_id", userID, "error", err)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "Something went wrong. Please try again later.",
		})
		return
	}
	if !handled {
		// Idle user, unknown text: show what the bot can do.
		HandleHelp(ctx, b, update)
		return
	}

	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      update.Message.Chat.ID,
		Text:        reply.Text,
		ReplyMarkup: reply.Keyboard,
	}); err != nil {
		logger.Error("failed to send conversation reply", "user_id", userID, "error", err)
	}

	if reply.Created != nil && config.AppConfig.Telegram.GlobalRegistry {
		broadcastNewBirthday(ctx, b, reply.Created, userID)
	}
}

// command returns the leading slash command with any @botname suffix
// stripped, or "" for plain text.
func command(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd := strings.Fields(text)[0]
	if at := strings.Index(cmd, "@"); at != -1 {
		cmd = cmd[:at]
	}
	return cmd
}

// broadcastNewBirthday announces a registration to every other known
// user. Only meaningful when the registry is global; callers gate on
// the config flag.
func broadcastNewBirthday(ctx context.Context, b *bot.Bot, record *db.Birthday, creatorID int64) {
	var users []db.UserSettings
	if err := db.DB.Where("user_id <> ?", creatorID).Find(&users).Error; err != nil {
		logger.Error("failed to load users for broadcast", "error", err)
		return
	}

	text := fmt.Sprintf("📣 New birthday registered:\n\n%s", ui.BirthdayLine(record, today()))
	for _, user := range users {
		if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: user.UserID,
			Text:   text,
		}); err != nil {
			logger.Error("failed to broadcast new birthday", "user_id", user.UserID, "error", err)
		}
	}
}
