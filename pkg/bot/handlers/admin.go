package handlers

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/snavid/tg-birthday-bot/pkg/config"
	"github.com/snavid/tg-birthday-bot/pkg/db"
	"github.com/snavid/tg-birthday-bot/pkg/logger"
	"gorm.io/gorm"
)

const adminCommandPrefix = "!admin"

// VerifyAdminCode compares the sha256 of the offered code against the
// configured digest. An empty digest disables elevation entirely.
func VerifyAdminCode(code string) bool {
	digest := config.AppConfig.Telegram.AdminCodeDigest
	if digest == "" {
		return false
	}
	sum := sha256.Sum256([]byte(code))
	offered := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(offered), []byte(strings.ToLower(digest))) == 1
}

// IsAdmin reports whether the user has been elevated.
func IsAdmin(userID int64) (bool, error) {
	var admin db.Admin
	err := db.DB.Where("user_id = ?", userID).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// handleAdminElevation processes "!admin <code> <target-user-id>".
// The code is never echoed back or logged.
func handleAdminElevation(ctx context.Context, b *bot.Bot, update *models.Update, text string) {
	chatID := update.Message.Chat.ID

	parts := strings.Fields(text)
	if len(parts) != 3 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "Usage: !admin <code> <user id>",
		})
		return
	}
	if !VerifyAdminCode(parts[1]) {
		logger.Info("rejected admin elevation attempt", "user_id", update.Message.From.ID)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "Invalid admin code.",
		})
		return
	}
	targetID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || targetID <= 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "The target must be a numeric Telegram user id.",
		})
		return
	}

	promoteUser(ctx, b, chatID, update.Message.From.ID, targetID)
}

// handlePromote processes "/promote <target-user-id>", available only
// to users who are already admins.
func handlePromote(ctx context.Context, b *bot.Bot, update *models.Update, text string) {
	chatID := update.Message.Chat.ID

	isAdmin, err := IsAdmin(update.Message.From.ID)
	if err != nil {
		logger.Error("failed to check admin status", "user_id", update.Message.From.ID, "error", err)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "Failed to check permissions. Please try again later.",
		})
		return
	}
	if !isAdmin {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "Only admins can promote other users.",
		})
		return
	}

	parts := strings.Fields(text)
	if len(parts) != 2 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "Usage: /promote <user id>",
		})
		return
	}
	targetID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || targetID <= 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "The target must be a numeric Telegram user id.",
		})
		return
	}

	promoteUser(ctx, b, chatID, update.Message.From.ID, targetID)
}

func promoteUser(ctx context.Context, b *bot.Bot, chatID, byUserID, targetID int64) {
	admin := db.Admin{UserID: targetID}
	result := db.DB.Where("user_id = ?", targetID).FirstOrCreate(&admin)
	if result.Error != nil {
		logger.Error("failed to create admin record", "target_id", targetID, "error", result.Error)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "Failed to promote the user. Please try again later.",
		})
		return
	}

	// Elevation is idempotent.
	if result.RowsAffected == 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   fmt.Sprintf("User %d is already an admin.", targetID),
		})
		return
	}

	logger.Info("promoted user to admin", "target_id", targetID, "by", byUserID)
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   fmt.Sprintf("✅ User %d is now an admin.", targetID),
	})
}
