package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/snavid/tg-birthday-bot/pkg/db"
	"github.com/snavid/tg-birthday-bot/pkg/persiandate"
)

// Telegram caps a list message well before this becomes a problem, so
// only the first records get manage buttons.
const maxManageButtons = 10

const WelcomeText = "Welcome to Birthday Reminder Bot! 🎉\n\n" +
	"Please use the buttons below to interact with me:"

func HelpText() string {
	return "Commands:\n" +
		"/start - show the main menu\n" +
		"/list - list your saved birthdays\n" +
		"/search - find a birthday by name\n" +
		"/export - download your birthdays as CSV\n" +
		"/cancel - abort the current operation\n" +
		"/help - show this message\n\n" +
		"Dates are accepted as Gregorian (YYYY-MM-DD) or Persian (YYYY/MM/DD)."
}

func MainMenu() (*models.InlineKeyboardMarkup, error) {
	addData, err := BuildSimpleCallback(KindAddBirthday)
	if err != nil {
		return nil, err
	}
	ownData, err := BuildSimpleCallback(KindOwnBirthday)
	if err != nil {
		return nil, err
	}
	listData, err := BuildSimpleCallback(KindList)
	if err != nil {
		return nil, err
	}
	searchData, err := BuildSimpleCallback(KindSearch)
	if err != nil {
		return nil, err
	}
	remindData, err := BuildSimpleCallback(KindSetReminder)
	if err != nil {
		return nil, err
	}
	helpData, err := BuildSimpleCallback(KindHelp)
	if err != nil {
		return nil, err
	}

	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "🎂 Add Birthday", CallbackData: addData}},
			{{Text: "🎈 My Birthday", CallbackData: ownData}},
			{
				{Text: "📋 List Birthdays", CallbackData: listData},
				{Text: "🔍 Search", CallbackData: searchData},
			},
			{
				{Text: "⏰ Set Reminder", CallbackData: remindData},
				{Text: "❓ Help", CallbackData: helpData},
			},
		},
	}, nil
}

// BirthdayLine is one entry of the list/search views.
func BirthdayLine(record *db.Birthday, today time.Time) string {
	daysUntil := int(record.NextOccurrence(today).Sub(today).Hours() / 24)
	return fmt.Sprintf("👤 %s\n📅 Gregorian: %s\n🗓 Persian: %s\n⏳ Days until birthday: %d\n",
		record.Name,
		record.Date().Format("2006-01-02"),
		record.PersianBirthDate,
		daysUntil,
	)
}

func RenderBirthdayList(title string, records []db.Birthday, today time.Time) (string, *models.InlineKeyboardMarkup, error) {
	if len(records) == 0 {
		keyboard, err := MainMenu()
		return "No birthdays found.", keyboard, err
	}

	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteString("\n\n")
	for i := range records {
		sb.WriteString(BirthdayLine(&records[i], today))
		sb.WriteString("\n")
	}

	var rows [][]models.InlineKeyboardButton
	for i := range records {
		if i >= maxManageButtons {
			break
		}
		manageData, err := BuildRecordCallback(KindManage, records[i].ID)
		if err != nil {
			return "", nil, err
		}
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: "⚙️ " + records[i].Name, CallbackData: manageData},
		})
	}

	return sb.String(), &models.InlineKeyboardMarkup{InlineKeyboard: rows}, nil
}

// BirthdayInfoText is the detail view: both calendars, age, countdown
// and zodiac sign.
func BirthdayInfoText(record *db.Birthday, ownerDefaultDays int, today time.Time) string {
	next := record.NextOccurrence(today)
	daysUntil := int(next.Sub(today).Hours() / 24)
	return fmt.Sprintf(
		"👤 %s\n📅 Gregorian: %s\n🗓 Persian: %s (%s)\n🎂 Age: %d\n⏳ Days until birthday: %d\n%s\n⏰ Reminder: %d days before",
		record.Name,
		record.Date().Format("2006-01-02"),
		record.PersianBirthDate,
		persiandate.MonthName(record.Date()),
		record.Age(today),
		daysUntil,
		persiandate.ZodiacSign(record.Date()),
		record.EffectiveReminderDays(ownerDefaultDays),
	)
}

func RenderManageMenu(record *db.Birthday, ownerDefaultDays int, today time.Time) (string, *models.InlineKeyboardMarkup, error) {
	editNameData, err := BuildRecordCallback(KindEditName, record.ID)
	if err != nil {
		return "", nil, err
	}
	editDateData, err := BuildRecordCallback(KindEditDate, record.ID)
	if err != nil {
		return "", nil, err
	}
	editReminderData, err := BuildRecordCallback(KindEditReminder, record.ID)
	if err != nil {
		return "", nil, err
	}
	deleteData, err := BuildRecordCallback(KindDelete, record.ID)
	if err != nil {
		return "", nil, err
	}
	backData, err := BuildSimpleCallback(KindList)
	if err != nil {
		return "", nil, err
	}

	rows := [][]models.InlineKeyboardButton{
		{
			{Text: "✏️ Edit Name", CallbackData: editNameData},
			{Text: "📅 Edit Date", CallbackData: editDateData},
		},
		{
			{Text: "⏰ Edit Reminder", CallbackData: editReminderData},
			{Text: "🗑 Delete", CallbackData: deleteData},
		},
	}
	if record.OwnerTelegramID != nil {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: "💬 Contact", URL: fmt.Sprintf("tg://user?id=%d", *record.OwnerTelegramID)},
		})
	}
	rows = append(rows, []models.InlineKeyboardButton{
		{Text: "⬅️ Back", CallbackData: backData},
	})

	text := BirthdayInfoText(record, ownerDefaultDays, today)
	return text, &models.InlineKeyboardMarkup{InlineKeyboard: rows}, nil
}

func RenderDeleteConfirm(record *db.Birthday) (string, *models.InlineKeyboardMarkup, error) {
	yesData, err := BuildRecordCallback(KindDeleteYes, record.ID)
	if err != nil {
		return "", nil, err
	}
	noData, err := BuildSimpleCallback(KindDeleteNo)
	if err != nil {
		return "", nil, err
	}

	text := fmt.Sprintf("Are you sure you want to delete %s's birthday (%s)?",
		record.Name, record.Date().Format("2006-01-02"))
	keyboard := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "✅ Yes, delete", CallbackData: yesData},
				{Text: "❌ No, keep it", CallbackData: noData},
			},
		},
	}
	return text, keyboard, nil
}

func RenderDuplicatePrompt(existing *db.Birthday) (string, *models.InlineKeyboardMarkup, error) {
	linkData, err := BuildSimpleCallback(KindDupLink)
	if err != nil {
		return "", nil, err
	}
	newData, err := BuildSimpleCallback(KindDupNew)
	if err != nil {
		return "", nil, err
	}

	text := fmt.Sprintf(
		"%s (%s / %s) is already registered. Is this the same person?",
		existing.Name,
		existing.Date().Format("2006-01-02"),
		existing.PersianBirthDate,
	)
	keyboard := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "✅ Yes, same person", CallbackData: linkData},
				{Text: "➕ No, add separately", CallbackData: newData},
			},
		},
	}
	return text, keyboard, nil
}

// SnoozeKeyboard offers only snooze intervals that still land before
// the birthday, plus a dismiss button.
func SnoozeKeyboard(recordID uint, daysUntil int) (*models.InlineKeyboardMarkup, error) {
	var options []models.InlineKeyboardButton
	for _, days := range []int{1, 2, 3, 7} {
		if days >= daysUntil {
			continue
		}
		data, err := BuildSnoozeCallback(recordID, days)
		if err != nil {
			return nil, err
		}
		label := fmt.Sprintf("⏰ Snooze %d days", days)
		if days == 1 {
			label = "⏰ Snooze 1 day"
		}
		options = append(options, models.InlineKeyboardButton{Text: label, CallbackData: data})
	}

	var rows [][]models.InlineKeyboardButton
	for i := 0; i < len(options); i += 2 {
		end := i + 2
		if end > len(options) {
			end = len(options)
		}
		rows = append(rows, options[i:end])
	}

	dismissData, err := BuildRecordCallback(KindDismiss, recordID)
	if err != nil {
		return nil, err
	}
	rows = append(rows, []models.InlineKeyboardButton{
		{Text: "✅ Dismiss", CallbackData: dismissData},
	})

	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}, nil
}

func CelebrationText(record *db.Birthday) string {
	return fmt.Sprintf(
		"🎉 Happy Birthday! 🎂\n\nToday is %s's birthday!\n📅 Date: %s\n🗓 Persian: %s",
		record.Name,
		record.Date().Format("2006-01-02"),
		record.PersianBirthDate,
	)
}

func ReminderText(record *db.Birthday, daysUntil int) string {
	lead := fmt.Sprintf("%s's birthday is in %d days!", record.Name, daysUntil)
	if daysUntil == 1 {
		lead = fmt.Sprintf("Tomorrow is %s's birthday!", record.Name)
	}
	return fmt.Sprintf(
		"🎂 Birthday Reminder!\n\n👤 %s\n📅 Date: %s\n🗓 Persian: %s\n%s",
		lead,
		record.Date().Format("2006-01-02"),
		record.PersianBirthDate,
		persiandate.ZodiacSign(record.Date()),
	)
}
