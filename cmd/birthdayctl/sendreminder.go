package main

import (
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/snavid/tg-birthday-bot/pkg/bot/reminders"
	"github.com/snavid/tg-birthday-bot/pkg/config"
	"github.com/snavid/tg-birthday-bot/pkg/db"
	"github.com/spf13/cobra"
)

func newSendReminderCmd() *cobra.Command {
	var userID int64
	var birthdayID uint
	var days int

	cmd := &cobra.Command{
		Use:   "send-reminder",
		Short: "Send one reminder immediately, bypassing the schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := pickRecord(userID, birthdayID)
			if err != nil {
				return err
			}

			daysUntil := days
			if !cmd.Flags().Changed("days") {
				now := time.Now().UTC()
				today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
				daysUntil = int(record.NextOccurrence(today).Sub(today).Hours() / 24)
			}

			b, err := bot.New(config.AppConfig.Telegram.BirthdayToken)
			if err != nil {
				return fmt.Errorf("failed to create bot: %w", err)
			}
			if err := reminders.SendReminderNow(cmd.Context(), b, record, daysUntil); err != nil {
				return fmt.Errorf("failed to send reminder: %w", err)
			}

			fmt.Printf("Sent reminder for %s (record %d) to user %d\n", record.Name, record.ID, record.AddedBy)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "telegram user id to remind")
	cmd.Flags().UintVar(&birthdayID, "birthday", 0, "specific birthday record id (defaults to the user's next one)")
	cmd.Flags().IntVar(&days, "days", 0, "override the days-until value in the message")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

// pickRecord resolves the record to remind about: an explicit id must
// belong to the user, otherwise the soonest upcoming record wins.
func pickRecord(userID int64, birthdayID uint) (*db.Birthday, error) {
	if birthdayID != 0 {
		var record db.Birthday
		if err := db.DB.Where("id = ? AND added_by = ?", birthdayID, userID).First(&record).Error; err != nil {
			return nil, fmt.Errorf("birthday %d not found for user %d: %w", birthdayID, userID, err)
		}
		return &record, nil
	}

	var records []db.Birthday
	if err := db.DB.Where("added_by = ?", userID).Find(&records).Error; err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("user %d has no birthdays", userID)
	}

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	best := &records[0]
	for i := 1; i < len(records); i++ {
		if records[i].NextOccurrence(today).Before(best.NextOccurrence(today)) {
			best = &records[i]
		}
	}
	return best, nil
}
