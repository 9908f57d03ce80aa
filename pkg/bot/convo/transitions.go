package convo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/snavid/tg-birthday-bot/pkg/db"
	"github.com/snavid/tg-birthday-bot/pkg/persiandate"
	"github.com/snavid/tg-birthday-bot/pkg/ui"
	"gorm.io/gorm"
)

const (
	MinReminderDays = 0
	MaxReminderDays = 365

	// ClearOverrideSentinel resets a per-record reminder override back
	// to the owner's default.
	ClearOverrideSentinel = -1
)

type Options struct {
	GlobalRegistry bool
}

const invalidDateText = "❌ Invalid date. Please send the date as Gregorian YYYY-MM-DD " +
	"or Persian YYYY/MM/DD (for example 1990-05-01 or 1369/02/11)."

// HandleText advances the caller's flow with a free-text message. The
// second return value is false when the caller is idle and the text
// should be treated as a plain command.
func HandleText(userID int64, displayName, text string, now time.Time, opts Options) (Reply, bool, error) {
	state, err := Get(userID)
	if err != nil {
		return Reply{}, false, err
	}
	if state == nil {
		return Reply{}, false, nil
	}

	text = strings.TrimSpace(text)
	today := dateOnly(now)

	switch state.State {
	case StateWaitingForName:
		return handleName(state, text)
	case StateWaitingForBirthday:
		return handleBirthdayDate(state, userID, text, today)
	case StateWaitingForOwnBirthday:
		return handleOwnBirthdayDate(state, userID, displayName, text, today)
	case StateConfirmDuplicate:
		return Reply{Text: "Please answer with the buttons above, or /cancel."}, true, nil
	case StateWaitingForReminder:
		return handleDefaultReminder(state, userID, text)
	case StateWaitingForEditName:
		return handleEditName(state, userID, text, today)
	case StateWaitingForEditDate:
		return handleEditDate(state, userID, text, today)
	case StateWaitingForEditReminder:
		return handleEditReminder(state, userID, text)
	case StateWaitingForSearchName:
		return handleSearch(state, userID, text, today, opts)
	default:
		// Unknown tag means a stale row from an older build; drop it
		// so the user is not stuck.
		if err := Clear(userID); err != nil {
			return Reply{}, true, err
		}
		return Reply{Text: "Something went wrong with the previous operation. Please start again."}, true, nil
	}
}

func handleName(state *db.ConversationState, text string) (Reply, bool, error) {
	if text == "" {
		return Reply{Text: "Please send the person's name."}, true, nil
	}
	state.PendingName = text
	state.State = StateWaitingForBirthday
	if err := save(state); err != nil {
		return Reply{}, true, err
	}
	prompt := fmt.Sprintf("When is %s's birthday?\nSend the date as Gregorian YYYY-MM-DD or Persian YYYY/MM/DD.", text)
	return Reply{Text: prompt}, true, nil
}

func handleBirthdayDate(state *db.ConversationState, userID int64, text string, today time.Time) (Reply, bool, error) {
	date, cal, err := persiandate.Parse(text)
	if err != nil {
		// State is preserved; the user may retry indefinitely.
		return Reply{Text: invalidDateText}, true, nil
	}

	existing, err := findDuplicate(state.PendingName, date)
	if err != nil {
		return Reply{}, true, err
	}
	if existing != nil {
		state.State = StateConfirmDuplicate
		state.PendingDate = &date
		state.DuplicateID = existing.ID
		if err := save(state); err != nil {
			return Reply{}, true, err
		}
		text, keyboard, err := ui.RenderDuplicatePrompt(existing)
		if err != nil {
			return Reply{}, true, err
		}
		return Reply{Text: text, Keyboard: keyboard}, true, nil
	}

	record, err := createBirthday(state.PendingName, date, userID, nil)
	if err != nil {
		return Reply{}, true, err
	}
	if err := Clear(userID); err != nil {
		return Reply{}, true, err
	}
	return createdReply(&record, cal, today)
}

func handleOwnBirthdayDate(state *db.ConversationState, userID int64, displayName, text string, today time.Time) (Reply, bool, error) {
	date, cal, err := persiandate.Parse(text)
	if err != nil {
		return Reply{Text: invalidDateText}, true, nil
	}

	// "Own birthday" is an unambiguous identity claim: a matching
	// record is linked rather than confirmed.
	existing, err := findDuplicate(displayName, date)
	if err != nil {
		return Reply{}, true, err
	}

	var record db.Birthday
	if existing != nil {
		existing.OwnerTelegramID = &userID
		if err := db.DB.Save(existing).Error; err != nil {
			return Reply{}, true, err
		}
		record = *existing
	} else {
		record, err = createBirthday(displayName, date, userID, &userID)
		if err != nil {
			return Reply{}, true, err
		}
	}

	if err := Clear(userID); err != nil {
		return Reply{}, true, err
	}
	reply, handled, err := createdReply(&record, cal, today)
	if existing != nil {
		// Linked an existing record, nothing new to announce.
		reply.Created = nil
	}
	return reply, handled, err
}

func handleDefaultReminder(state *db.ConversationState, userID int64, text string) (Reply, bool, error) {
	days, err := strconv.Atoi(text)
	if err != nil || days < MinReminderDays || days > MaxReminderDays {
		return Reply{Text: fmt.Sprintf("Please send a number of days between %d and %d.", MinReminderDays, MaxReminderDays)}, true, nil
	}

	if err := db.DB.Model(&db.UserSettings{}).
		Where("user_id = ?", userID).
		Update("default_reminder_days", days).Error; err != nil {
		return Reply{}, true, err
	}
	if err := Clear(userID); err != nil {
		return Reply{}, true, err
	}

	keyboard, err := ui.MainMenu()
	if err != nil {
		return Reply{}, true, err
	}
	return Reply{
		Text:     fmt.Sprintf("⏰ You will be reminded %d days before each birthday.", days),
		Keyboard: keyboard,
	}, true, nil
}

func handleEditName(state *db.ConversationState, userID int64, text string, today time.Time) (Reply, bool, error) {
	if text == "" {
		return Reply{Text: "Please send the new name."}, true, nil
	}
	record, reply, err := lookupTarget(state, userID)
	if record == nil {
		return reply, true, err
	}

	record.Name = text
	if err := db.DB.Save(record).Error; err != nil {
		return Reply{}, true, err
	}
	if err := Clear(userID); err != nil {
		return Reply{}, true, err
	}
	keyboard, err := ui.MainMenu()
	if err != nil {
		return Reply{}, true, err
	}
	return Reply{Text: fmt.Sprintf("✏️ Name updated to %s.", text), Keyboard: keyboard}, true, nil
}

func handleEditDate(state *db.ConversationState, userID int64, text string, today time.Time) (Reply, bool, error) {
	date, cal, err := persiandate.Parse(text)
	if err != nil {
		return Reply{Text: invalidDateText}, true, nil
	}
	record, reply, err := lookupTarget(state, userID)
	if record == nil {
		return reply, true, err
	}

	setBirthDate(record, date)
	if err := db.DB.Save(record).Error; err != nil {
		return Reply{}, true, err
	}
	if err := Clear(userID); err != nil {
		return Reply{}, true, err
	}

	keyboard, err := ui.MainMenu()
	if err != nil {
		return Reply{}, true, err
	}
	text = fmt.Sprintf("📅 %s's birthday updated.\nGregorian: %s\nPersian: %s",
		record.Name, record.Date().Format("2006-01-02"), record.PersianBirthDate)
	if cal == persiandate.Persian {
		text += "\n(interpreted as a Persian date)"
	}
	return Reply{Text: text, Keyboard: keyboard}, true, nil
}

func handleEditReminder(state *db.ConversationState, userID int64, text string) (Reply, bool, error) {
	days, err := strconv.Atoi(text)
	if err != nil || (days != ClearOverrideSentinel && (days < MinReminderDays || days > MaxReminderDays)) {
		return Reply{Text: fmt.Sprintf("Please send a number of days between %d and %d, or -1 to use your default.", MinReminderDays, MaxReminderDays)}, true, nil
	}
	record, reply, err := lookupTarget(state, userID)
	if record == nil {
		return reply, true, err
	}

	var confirmation string
	if days == ClearOverrideSentinel {
		record.ReminderDaysOverride = nil
		confirmation = fmt.Sprintf("⏰ %s now uses your default reminder window.", record.Name)
	} else {
		record.ReminderDaysOverride = &days
		confirmation = fmt.Sprintf("⏰ You will be reminded %d days before %s's birthday.", days, record.Name)
	}
	if err := db.DB.Save(record).Error; err != nil {
		return Reply{}, true, err
	}
	if err := Clear(userID); err != nil {
		return Reply{}, true, err
	}

	keyboard, err := ui.MainMenu()
	if err != nil {
		return Reply{}, true, err
	}
	return Reply{Text: confirmation, Keyboard: keyboard}, true, nil
}

func handleSearch(state *db.ConversationState, userID int64, text string, today time.Time, opts Options) (Reply, bool, error) {
	if err := Clear(userID); err != nil {
		return Reply{}, true, err
	}

	query := db.DB.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(text)+"%")
	if !opts.GlobalRegistry {
		query = query.Where("added_by = ?", userID)
	}
	var records []db.Birthday
	if err := query.Order("name ASC").Find(&records).Error; err != nil {
		return Reply{}, true, err
	}

	// An empty result is a valid outcome, not an error.
	title := fmt.Sprintf("🔍 Results for %q:", text)
	listText, keyboard, err := ui.RenderBirthdayList(title, records, today)
	if err != nil {
		return Reply{}, true, err
	}
	return Reply{Text: listText, Keyboard: keyboard}, true, nil
}

// lookupTarget resolves the record a flow is editing. A nil record
// with a non-empty reply means the record vanished underneath the
// flow (deleted concurrently); the state is cleared and the user is
// told instead of getting a system error.
func lookupTarget(state *db.ConversationState, userID int64) (*db.Birthday, Reply, error) {
	var record db.Birthday
	err := db.DB.Where("id = ? AND added_by = ?", state.TargetID, userID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if clearErr := Clear(userID); clearErr != nil {
			return nil, Reply{}, clearErr
		}
		keyboard, kbErr := ui.MainMenu()
		if kbErr != nil {
			return nil, Reply{}, kbErr
		}
		return nil, Reply{Text: "That birthday no longer exists.", Keyboard: keyboard}, nil
	}
	if err != nil {
		return nil, Reply{}, err
	}
	return &record, Reply{}, nil
}

func findDuplicate(name string, date time.Time) (*db.Birthday, error) {
	var record db.Birthday
	err := db.DB.Where("name = ? AND birth_date = ?", name, date).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func createBirthday(name string, date time.Time, addedBy int64, owner *int64) (db.Birthday, error) {
	record := db.Birthday{
		Name:            name,
		AddedBy:         addedBy,
		OwnerTelegramID: owner,
	}
	setBirthDate(&record, date)
	err := db.DB.Create(&record).Error
	return record, err
}

func createdReply(record *db.Birthday, cal persiandate.Calendar, today time.Time) (Reply, bool, error) {
	keyboard, err := ui.MainMenu()
	if err != nil {
		return Reply{}, true, err
	}
	text := fmt.Sprintf("🎂 Birthday saved!\n\n%s", ui.BirthdayLine(record, today))
	if cal == persiandate.Persian {
		text += "(interpreted as a Persian date)"
	}
	return Reply{Text: text, Keyboard: keyboard, Created: record}, true, nil
}
