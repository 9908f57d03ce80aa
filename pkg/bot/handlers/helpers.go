package handlers

import (
	"time"

	"github.com/go-telegram/bot/models"
)

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// displayName is what the bot calls the user: first name, falling back
// to the username for accounts without one.
func displayName(user *models.User) string {
	if user == nil {
		return ""
	}
	if user.FirstName != "" {
		return user.FirstName
	}
	return user.Username
}
