// Package convo is the multi-turn conversation state machine behind
// the birthday bot. Every flow that needs more than one message from
// the user persists a ConversationState cursor; /cancel or any
// terminal outcome deletes it.
package convo

import (
	"errors"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/snavid/tg-birthday-bot/pkg/db"
	"github.com/snavid/tg-birthday-bot/pkg/persiandate"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StateWaitingForName         = "waiting_for_name"
	StateWaitingForBirthday     = "waiting_for_birthday"
	StateWaitingForOwnBirthday  = "waiting_for_own_birthday"
	StateConfirmDuplicate       = "confirm_existing_duplicate"
	StateWaitingForReminder     = "waiting_for_reminder"
	StateWaitingForEditName     = "waiting_for_edit_name"
	StateWaitingForEditDate     = "waiting_for_edit_date"
	StateWaitingForEditReminder = "waiting_for_edit_reminder"
	StateWaitingForSearchName   = "waiting_for_search_name"
)

// Reply is what a transition wants sent back to the chat. Created is
// set when the transition registered a new birthday, so the caller can
// announce it when the registry is global.
type Reply struct {
	Text     string
	Keyboard *models.InlineKeyboardMarkup
	Created  *db.Birthday
}

// Get returns the caller's state cursor, or nil when idle.
func Get(userID int64) (*db.ConversationState, error) {
	var state db.ConversationState
	if err := db.DB.Where("user_id = ?", userID).First(&state).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &state, nil
}

// Begin starts (or restarts) a flow, clearing any previous context.
func Begin(userID int64, stateName string) error {
	return BeginWithTarget(userID, stateName, 0)
}

// BeginWithTarget starts a record-scoped flow such as an edit.
func BeginWithTarget(userID int64, stateName string, targetID uint) error {
	state := db.ConversationState{UserID: userID}
	if err := db.DB.Where("user_id = ?", userID).FirstOrCreate(&state).Error; err != nil {
		return err
	}
	state.State = stateName
	state.PendingName = ""
	state.PendingDate = nil
	state.TargetID = targetID
	state.DuplicateID = 0
	return db.DB.Save(&state).Error
}

// Clear removes the caller's cursor. Safe to call when idle.
func Clear(userID int64) error {
	return db.DB.Where("user_id = ?", userID).Delete(&db.ConversationState{}).Error
}

func save(state *db.ConversationState) error {
	return db.DB.Save(state).Error
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// setBirthDate keeps the cached Persian rendering in step with the
// canonical Gregorian date.
func setBirthDate(record *db.Birthday, date time.Time) {
	record.BirthDate = datatypes.Date(date)
	record.PersianBirthDate = persiandate.ToPersian(date)
}
