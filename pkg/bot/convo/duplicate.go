package convo

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/snavid/tg-birthday-bot/pkg/db"
	"github.com/snavid/tg-birthday-bot/pkg/ui"
	"gorm.io/gorm"
)

var ErrNotConfirmingDuplicate = errors.New("no duplicate confirmation in progress")

// HandleDuplicateChoice resolves the confirm_existing_duplicate state.
// Linking copies the existing record's contact information into the
// caller's own list; declining creates an independent record from the
// cached context. Either branch clears the state.
func HandleDuplicateChoice(userID int64, displayName string, link bool, now time.Time) (Reply, error) {
	state, err := Get(userID)
	if err != nil {
		return Reply{}, err
	}
	if state == nil || state.State != StateConfirmDuplicate || state.PendingDate == nil {
		return Reply{}, ErrNotConfirmingDuplicate
	}

	name := state.PendingName
	date := *state.PendingDate
	today := dateOnly(now)

	keyboard, err := ui.MainMenu()
	if err != nil {
		return Reply{}, err
	}

	if !link {
		record, err := createBirthday(name, date, userID, nil)
		if err != nil {
			if isUniqueViolation(err) {
				if clearErr := Clear(userID); clearErr != nil {
					return Reply{}, clearErr
				}
				return Reply{Text: fmt.Sprintf("%s is already in your list.", name), Keyboard: keyboard}, nil
			}
			return Reply{}, err
		}
		if err := Clear(userID); err != nil {
			return Reply{}, err
		}
		return Reply{
			Text:     fmt.Sprintf("🎂 Added as a separate person.\n\n%s", ui.BirthdayLine(&record, today)),
			Keyboard: keyboard,
			Created:  &record,
		}, nil
	}

	var existing db.Birthday
	err = db.DB.First(&existing, state.DuplicateID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if clearErr := Clear(userID); clearErr != nil {
			return Reply{}, clearErr
		}
		return Reply{Text: "That birthday no longer exists.", Keyboard: keyboard}, nil
	}
	if err != nil {
		return Reply{}, err
	}

	// A name matching the asker's display name is the asker's own
	// birthday; stamp the contact link on the existing record.
	owner := existing.OwnerTelegramID
	if strings.EqualFold(name, displayName) {
		existing.OwnerTelegramID = &userID
		if err := db.DB.Save(&existing).Error; err != nil {
			return Reply{}, err
		}
		owner = &userID
	}

	if existing.AddedBy != userID {
		record := db.Birthday{
			Name:             existing.Name,
			BirthDate:        existing.BirthDate,
			PersianBirthDate: existing.PersianBirthDate,
			AddedBy:          userID,
			OwnerTelegramID:  owner,
		}
		if err := db.DB.Create(&record).Error; err != nil && !isUniqueViolation(err) {
			return Reply{}, err
		}
	}

	if err := Clear(userID); err != nil {
		return Reply{}, err
	}
	return Reply{
		Text:     fmt.Sprintf("🔗 Linked to the existing record.\n\n%s", ui.BirthdayLine(&existing, today)),
		Keyboard: keyboard,
	}, nil
}

// isUniqueViolation covers both drivers used here: gorm translates
// constraint errors to ErrDuplicatedKey on postgres, while the sqlite
// driver surfaces the raw constraint message.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique")
}
