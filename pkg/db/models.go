package db

import (
	"time"

	"gorm.io/datatypes"
)

// Birthday is one registered birthday. Records are owned by the user
// who added them (AddedBy); OwnerTelegramID is only set when the
// record is that user's own birthday, which enables contact links.
type Birthday struct {
	ID               uint           `gorm:"primaryKey"`
	Name             string         `gorm:"not null;uniqueIndex:idx_birthday_identity"`
	BirthDate        datatypes.Date `gorm:"not null;uniqueIndex:idx_birthday_identity"`
	PersianBirthDate string         `gorm:"not null"` // cached rendering, recomputed on date change
	AddedBy          int64          `gorm:"index;uniqueIndex:idx_birthday_identity"`
	OwnerTelegramID  *int64
	// ReminderDaysOverride nil means "use the owner's default".
	ReminderDaysOverride *int
	LastReminderSent     *time.Time
	SnoozedUntil         *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (b *Birthday) Date() time.Time {
	return time.Time(b.BirthDate)
}

// NextOccurrence is this year's month/day, rolled to next year if it
// already passed. Feb 29 normalizes to Mar 1 outside leap years.
func (b *Birthday) NextOccurrence(today time.Time) time.Time {
	date := b.Date()
	occurrence := time.Date(today.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	if occurrence.Before(today) {
		occurrence = time.Date(today.Year()+1, date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	}
	return occurrence
}

func (b *Birthday) Age(today time.Time) int {
	date := b.Date()
	age := today.Year() - date.Year()
	if today.Month() < date.Month() ||
		(today.Month() == date.Month() && today.Day() < date.Day()) {
		age--
	}
	return age
}

// EffectiveReminderDays resolves the per-record override against the
// owner's default window.
func (b *Birthday) EffectiveReminderDays(ownerDefault int) int {
	if b.ReminderDaysOverride != nil {
		return *b.ReminderDaysOverride
	}
	return ownerDefault
}

type UserSettings struct {
	ID                  uint  `gorm:"primaryKey"`
	UserID              int64 `gorm:"uniqueIndex"`
	DisplayName         string
	DefaultReminderDays int `gorm:"not null;default:1"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ConversationState is the per-user state-machine cursor. At most one
// row per user; the row is deleted on every terminal outcome so no
// flow can leave a user stuck.
//
// The context columns are typed per state instead of a JSON scratch
// bag: PendingName/PendingDate are captured during the add flow,
// TargetID is the record being edited, DuplicateID the existing
// record found during duplicate detection.
type ConversationState struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      int64  `gorm:"uniqueIndex"`
	State       string `gorm:"not null"`
	PendingName string
	PendingDate *time.Time
	TargetID    uint
	DuplicateID uint
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Admin struct {
	ID          uint  `gorm:"primaryKey"`
	UserID      int64 `gorm:"uniqueIndex"`
	DisplayName string
	CreatedAt   time.Time
}
