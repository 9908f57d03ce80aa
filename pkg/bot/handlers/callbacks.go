package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/snavid/tg-birthday-bot/pkg/bot/convo"
	"github.com/snavid/tg-birthday-bot/pkg/config"
	"github.com/snavid/tg-birthday-bot/pkg/db"
	"github.com/snavid/tg-birthday-bot/pkg/logger"
	"github.com/snavid/tg-birthday-bot/pkg/ui"
	"gorm.io/gorm"
)

// HandleCallbackQuery dispatches every inline-button press of the
// birthday persona.
func HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.CallbackQuery == nil {
		logger.Error("invalid update in HandleCallbackQuery")
		return
	}

	callbackID := update.CallbackQuery.ID
	answered := false
	answerCallback := func(text string) {
		if answered || callbackID == "" {
			return
		}
		if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: callbackID,
			Text:            text,
		}); err != nil {
			logger.Error("failed to answer callback query", "error", err)
		}
		answered = true
	}

	action, err := ui.ParseCallbackData(update.CallbackQuery.Data)
	if err != nil {
		logger.Error("failed to parse callback data", "data", update.CallbackQuery.Data, "error", err)
		answerCallback("Unknown command")
		return
	}

	message := update.CallbackQuery.Message
	if message.Type != models.MaybeInaccessibleMessageTypeMessage || message.Message == nil {
		logger.Error("callback query message is inaccessible", "user_id", update.CallbackQuery.From.ID)
		answerCallback("Message is not available")
		return
	}
	msg := message.Message
	if msg.Chat.ID == 0 {
		logger.Error("callback query message chat ID is missing", "user_id", update.CallbackQuery.From.ID)
		answerCallback("Message is not available")
		return
	}

	userID := update.CallbackQuery.From.ID
	name := displayName(&update.CallbackQuery.From)

	edit := func(text string, keyboard *models.InlineKeyboardMarkup) {
		if _, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:      msg.Chat.ID,
			MessageID:   msg.ID,
			Text:        text,
			ReplyMarkup: keyboard,
		}); err != nil {
			logger.Error("failed to edit message", "user_id", userID, "error", err)
		}
	}
	beginFlow := func(stateName, prompt string) {
		if err := convo.Begin(userID, stateName); err != nil {
			logger.Error("failed to begin flow", "user_id", userID, "state", stateName, "error", err)
			answerCallback("Something went wrong")
			return
		}
		answerCallback("")
		edit(prompt, nil)
	}

	switch action.Kind {
	case ui.KindAddBirthday:
		beginFlow(convo.StateWaitingForName, "Whose birthday do you want to add? Send the person's name.")

	case ui.KindOwnBirthday:
		handleOwnBirthdayButton(userID, name, answerCallback, edit)

	case ui.KindList, ui.KindDeleteNo:
		text, keyboard, err := renderListFor(userID, today())
		if err != nil {
			logger.Error("failed to render birthday list", "user_id", userID, "error", err)
			answerCallback("Failed to load birthdays")
			return
		}
		answerCallback("")
		edit(text, keyboard)

	case ui.KindSearch:
		beginFlow(convo.StateWaitingForSearchName, "Whose birthday are you looking for? Send a name.")

	case ui.KindSetReminder:
		settings, err := db.GetOrCreateUserSettings(userID, name)
		if err != nil {
			logger.Error("failed to load user settings", "user_id", userID, "error", err)
			answerCallback("Something went wrong")
			return
		}
		prompt := fmt.Sprintf(
			"How many days before a birthday should I remind you?\nCurrent default: %d. Send a number between %d and %d.",
			settings.DefaultReminderDays, convo.MinReminderDays, convo.MaxReminderDays)
		beginFlow(convo.StateWaitingForReminder, prompt)

	case ui.KindHelp:
		keyboard, err := ui.MainMenu()
		if err != nil {
			logger.Error("failed to build main menu", "error", err)
			answerCallback("Something went wrong")
			return
		}
		answerCallback("")
		edit(ui.HelpText(), keyboard)

	case ui.KindManage:
		record, err := loadOwnedRecord(userID, action.RecordID)
		if err != nil {
			logger.Error("failed to load birthday record", "user_id", userID, "record_id", action.RecordID, "error", err)
			answerCallback("Something went wrong")
			return
		}
		if record == nil {
			answerCallback("You can only manage birthdays you added")
			return
		}
		settings, err := db.GetOrCreateUserSettings(userID, name)
		if err != nil {
			logger.Error("failed to load user settings", "user_id", userID, "error", err)
			answerCallback("Something went wrong")
			return
		}
		text, keyboard, err := ui.RenderManageMenu(record, settings.DefaultReminderDays, today())
		if err != nil {
			logger.Error("failed to render manage menu", "user_id", userID, "error", err)
			answerCallback("Something went wrong")
			return
		}
		answerCallback("")
		edit(text, keyboard)

	case ui.KindEditName:
		beginEdit(userID, action.RecordID, convo.StateWaitingForEditName,
			"Send the new name for %s.", answerCallback, edit)
	case ui.KindEditDate:
		beginEdit(userID, action.RecordID, convo.StateWaitingForEditDate,
			"Send the new date for %s (Gregorian YYYY-MM-DD or Persian YYYY/MM/DD).", answerCallback, edit)
	case ui.KindEditReminder:
		beginEdit(userID, action.RecordID, convo.StateWaitingForEditReminder,
			"How many days before %s's birthday should I remind you? Send a number, or -1 to use your default.", answerCallback, edit)

	case ui.KindDelete:
		record, err := loadOwnedRecord(userID, action.RecordID)
		if err != nil {
			logger.Error("failed to load birthday record", "user_id", userID, "record_id", action.RecordID, "error", err)
			answerCallback("Something went wrong")
			return
		}
		if record == nil {
			answerCallback("You can only delete birthdays you added")
			return
		}
		text, keyboard, err := ui.RenderDeleteConfirm(record)
		if err != nil {
			logger.Error("failed to render delete confirmation", "user_id", userID, "error", err)
			answerCallback("Something went wrong")
			return
		}
		answerCallback("")
		edit(text, keyboard)

	case ui.KindDeleteYes:
		result := db.DB.Where("id = ? AND added_by = ?", action.RecordID, userID).Delete(&db.Birthday{})
		if result.Error != nil {
			logger.Error("failed to delete birthday", "user_id", userID, "record_id", action.RecordID, "error", result.Error)
			answerCallback("Failed to delete")
			return
		}
		if result.RowsAffected == 0 {
			answerCallback("That birthday no longer exists")
			return
		}
		answerCallback("Deleted")
		text, keyboard, err := renderListFor(userID, today())
		if err != nil {
			logger.Error("failed to render birthday list", "user_id", userID, "error", err)
			return
		}
		edit(text, keyboard)

	case ui.KindDupLink, ui.KindDupNew:
		reply, err := convo.HandleDuplicateChoice(userID, name, action.Kind == ui.KindDupLink, time.Now().UTC())
		if errors.Is(err, convo.ErrNotConfirmingDuplicate) {
			answerCallback("Nothing to confirm")
			return
		}
		if err != nil {
			logger.Error("failed to resolve duplicate choice", "user_id", userID, "error", err)
			answerCallback("Something went wrong")
			return
		}
		answerCallback("")
		edit(reply.Text, reply.Keyboard)
		if reply.Created != nil && config.AppConfig.Telegram.GlobalRegistry {
			broadcastNewBirthday(ctx, b, reply.Created, userID)
		}

	case ui.KindSnooze:
		handleSnooze(ctx, b, msg, userID, action, answerCallback)

	case ui.KindDismiss:
		answerCallback("Dismissed")
		clearKeyboard(ctx, b, msg)

	default:
		answerCallback("Unknown command")
	}
}

func handleOwnBirthdayButton(userID int64, name string, answerCallback func(string), edit func(string, *models.InlineKeyboardMarkup)) {
	// If the user's own birthday is already on file, show it instead of
	// asking again.
	var record db.Birthday
	err := db.DB.Where("owner_telegram_id = ?", userID).First(&record).Error
	if err == nil {
		settings, settingsErr := db.GetOrCreateUserSettings(userID, name)
		if settingsErr != nil {
			logger.Error("failed to load user settings", "user_id", userID, "error", settingsErr)
			answerCallback("Something went wrong")
			return
		}
		keyboard, kbErr := ui.MainMenu()
		if kbErr != nil {
			logger.Error("failed to build main menu", "error", kbErr)
			answerCallback("Something went wrong")
			return
		}
		answerCallback("")
		edit(ui.BirthdayInfoText(&record, settings.DefaultReminderDays, today()), keyboard)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("failed to look up own birthday", "user_id", userID, "error", err)
		answerCallback("Something went wrong")
		return
	}

	if err := convo.Begin(userID, convo.StateWaitingForOwnBirthday); err != nil {
		logger.Error("failed to begin own-birthday flow", "user_id", userID, "error", err)
		answerCallback("Something went wrong")
		return
	}
	answerCallback("")
	edit("When is your birthday? Send the date as Gregorian YYYY-MM-DD or Persian YYYY/MM/DD.", nil)
}

func beginEdit(userID int64, recordID uint, stateName, promptFormat string, answerCallback func(string), edit func(string, *models.InlineKeyboardMarkup)) {
	record, err := loadOwnedRecord(userID, recordID)
	if err != nil {
		logger.Error("failed to load birthday record", "user_id", userID, "record_id", recordID, "error", err)
		answerCallback("Something went wrong")
		return
	}
	if record == nil {
		answerCallback("You can only edit birthdays you added")
		return
	}
	if err := convo.BeginWithTarget(userID, stateName, record.ID); err != nil {
		logger.Error("failed to begin edit flow", "user_id", userID, "state", stateName, "error", err)
		answerCallback("Something went wrong")
		return
	}
	answerCallback("")
	edit(fmt.Sprintf(promptFormat, record.Name), nil)
}

func handleSnooze(ctx context.Context, b *bot.Bot, msg *models.Message, userID int64, action ui.Action, answerCallback func(string)) {
	until := today().AddDate(0, 0, action.Days)
	// Clearing last_reminder_sent lets the scheduler fire again once
	// the snooze expires.
	result := db.DB.Model(&db.Birthday{}).
		Where("id = ? AND added_by = ?", action.RecordID, userID).
		Updates(map[string]interface{}{
			"snoozed_until":      until,
			"last_reminder_sent": nil,
		})
	if result.Error != nil {
		logger.Error("failed to snooze reminder", "user_id", userID, "record_id", action.RecordID, "error", result.Error)
		answerCallback("Failed to snooze")
		return
	}
	if result.RowsAffected == 0 {
		answerCallback("That birthday no longer exists")
		return
	}

	if action.Days == 1 {
		answerCallback("Snoozed for 1 day")
	} else {
		answerCallback(fmt.Sprintf("Snoozed for %d days", action.Days))
	}
	clearKeyboard(ctx, b, msg)
}

func clearKeyboard(ctx context.Context, b *bot.Bot, msg *models.Message) {
	if _, err := b.EditMessageReplyMarkup(ctx, &bot.EditMessageReplyMarkupParams{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.ID,
		ReplyMarkup: &models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{}},
	}); err != nil {
		logger.Error("failed to clear reply markup", "error", err)
	}
}

// loadOwnedRecord fetches a record only if the caller added it. A nil
// record with nil error means not found (or not the caller's).
func loadOwnedRecord(userID int64, recordID uint) (*db.Birthday, error) {
	var record db.Birthday
	err := db.DB.Where("id = ? AND added_by = ?", recordID, userID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}
