// Package reminders is the daily batch that sends celebratory and
// upcoming-birthday messages.
package reminders

import (
	"context"
	"time"

	"github.com/go-telegram/bot"
	"github.com/robfig/cron/v3"
	"github.com/snavid/tg-birthday-bot/pkg/db"
	"github.com/snavid/tg-birthday-bot/pkg/logger"
	"github.com/snavid/tg-birthday-bot/pkg/ui"
)

// dailySchedule fires once a day at 09:00 UTC, a sane morning hour for
// the Iran-centered audience.
const dailySchedule = "0 9 * * *"

// StartScheduler runs ProcessReminders on the daily schedule until the
// context is cancelled.
func StartScheduler(ctx context.Context, b *bot.Bot) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(dailySchedule, func() {
		ProcessReminders(ctx, b, time.Now().UTC())
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	go func() {
		<-ctx.Done()
		c.Stop()
	}()
	return c, nil
}

// ProcessReminders walks every user's records once. On the birthday
// itself a celebratory message always goes out; inside the reminder
// window a reminder goes out at most once per occurrence, unless
// snoozed.
func ProcessReminders(ctx context.Context, b *bot.Bot, now time.Time) {
	var users []db.UserSettings
	if err := db.DB.Find(&users).Error; err != nil {
		logger.Error("failed to fetch users for reminders", "error", err)
		return
	}
	defaults := make(map[int64]int, len(users))
	for _, user := range users {
		defaults[user.UserID] = user.DefaultReminderDays
	}

	var records []db.Birthday
	if err := db.DB.Find(&records).Error; err != nil {
		logger.Error("failed to fetch birthdays for reminders", "error", err)
		return
	}

	for i := range records {
		defaultDays, ok := defaults[records[i].AddedBy]
		if !ok {
			defaultDays = 1
		}
		processRecord(ctx, b, &records[i], defaultDays, now)
	}
}

func processRecord(ctx context.Context, b *bot.Bot, record *db.Birthday, defaultDays int, now time.Time) {
	today := dateOnly(now)
	next := record.NextOccurrence(today)
	daysUntil := int(next.Sub(today).Hours() / 24)

	if daysUntil == 0 {
		if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: record.AddedBy,
			Text:   ui.CelebrationText(record),
		}); err != nil {
			logger.Error("failed to send celebration", "user_id", record.AddedBy, "record_id", record.ID, "error", err)
			return
		}
		stampSent(record, now)
		return
	}

	window := record.EffectiveReminderDays(defaultDays)
	if window <= 0 || daysUntil > window {
		return
	}
	if record.SnoozedUntil != nil && today.Before(*record.SnoozedUntil) {
		return
	}
	// One reminder per occurrence: a send stamped inside the current
	// window means this occurrence is already covered.
	windowStart := next.AddDate(0, 0, -window)
	if record.LastReminderSent != nil && !record.LastReminderSent.Before(windowStart) {
		return
	}

	keyboard, err := ui.SnoozeKeyboard(record.ID, daysUntil)
	if err != nil {
		logger.Error("failed to build snooze keyboard", "record_id", record.ID, "error", err)
		return
	}
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      record.AddedBy,
		Text:        ui.ReminderText(record, daysUntil),
		ReplyMarkup: keyboard,
	}); err != nil {
		logger.Error("failed to send reminder", "user_id", record.AddedBy, "record_id", record.ID, "error", err)
		return
	}
	stampSent(record, now)
}

// SendReminderNow sends one reminder outside the schedule. Used by the
// ops CLI to verify delivery end to end.
func SendReminderNow(ctx context.Context, b *bot.Bot, record *db.Birthday, daysUntil int) error {
	if daysUntil <= 0 {
		_, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: record.AddedBy,
			Text:   ui.CelebrationText(record),
		})
		return err
	}
	keyboard, err := ui.SnoozeKeyboard(record.ID, daysUntil)
	if err != nil {
		return err
	}
	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      record.AddedBy,
		Text:        ui.ReminderText(record, daysUntil),
		ReplyMarkup: keyboard,
	})
	return err
}

func stampSent(record *db.Birthday, now time.Time) {
	record.LastReminderSent = &now
	record.SnoozedUntil = nil
	if err := db.DB.Save(record).Error; err != nil {
		logger.Error("failed to update reminder state", "record_id", record.ID, "error", err)
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
