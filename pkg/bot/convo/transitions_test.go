package convo

import (
	"strings"
	"testing"
	"time"

	"github.com/snavid/tg-birthday-bot/pkg/db"
	"github.com/snavid/tg-birthday-bot/pkg/internal/testutil"
	"gorm.io/datatypes"
)

var testNow = time.Date(2025, time.March, 10, 15, 4, 5, 0, time.UTC)

func mustBegin(t *testing.T, userID int64, state string) {
	t.Helper()
	if err := Begin(userID, state); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
}

func currentState(t *testing.T, userID int64) *db.ConversationState {
	t.Helper()
	state, err := Get(userID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	return state
}

func TestIdleTextNotHandled(t *testing.T) {
	testutil.SetupTestDB(t)

	_, handled, err := HandleText(1, "A", "hello", testNow, Options{})
	if err != nil {
		t.Fatalf("HandleText returned error: %v", err)
	}
	if handled {
		t.Fatal("idle user's text should not be handled by the state machine")
	}
}

func TestAddBirthdayFlow(t *testing.T) {
	testutil.SetupTestDB(t)

	mustBegin(t, 1, StateWaitingForName)

	reply, handled, err := HandleText(1, "A", "Sara", testNow, Options{})
	if err != nil || !handled {
		t.Fatalf("name step failed: handled=%v err=%v", handled, err)
	}
	if !strings.Contains(reply.Text, "Sara") {
		t.Errorf("date prompt should mention the name, got %q", reply.Text)
	}
	if state := currentState(t, 1); state == nil || state.State != StateWaitingForBirthday {
		t.Fatalf("expected waiting_for_birthday, got %+v", state)
	}

	reply, handled, err = HandleText(1, "A", "1369/10/10", testNow, Options{})
	if err != nil || !handled {
		t.Fatalf("date step failed: handled=%v err=%v", handled, err)
	}
	if !strings.Contains(reply.Text, "saved") {
		t.Errorf("expected saved confirmation, got %q", reply.Text)
	}

	var record db.Birthday
	if err := db.DB.Where("name = ?", "Sara").First(&record).Error; err != nil {
		t.Fatalf("record not created: %v", err)
	}
	// 1369/10/10 Jalali is 1990-12-31 Gregorian.
	if got := record.Date(); got.Year() != 1990 || got.Month() != time.December || got.Day() != 31 {
		t.Errorf("unexpected canonical date %v", got)
	}
	if record.PersianBirthDate != "1369/10/10" {
		t.Errorf("unexpected Persian rendering %q", record.PersianBirthDate)
	}
	if record.AddedBy != 1 {
		t.Errorf("unexpected owner %d", record.AddedBy)
	}

	if state := currentState(t, 1); state != nil {
		t.Errorf("state should be cleared after creation, got %+v", state)
	}
}

func TestInvalidDateKeepsState(t *testing.T) {
	testutil.SetupTestDB(t)

	mustBegin(t, 1, StateWaitingForName)
	if _, _, err := HandleText(1, "A", "Sara", testNow, Options{}); err != nil {
		t.Fatalf("name step failed: %v", err)
	}

	for _, input := range []string{"yesterday", "1990-02-30", "1369/07/31"} {
		reply, handled, err := HandleText(1, "A", input, testNow, Options{})
		if err != nil || !handled {
			t.Fatalf("HandleText(%q) failed: handled=%v err=%v", input, handled, err)
		}
		if !strings.Contains(reply.Text, "Invalid date") {
			t.Errorf("expected re-prompt for %q, got %q", input, reply.Text)
		}
		state := currentState(t, 1)
		if state == nil || state.State != StateWaitingForBirthday || state.PendingName != "Sara" {
			t.Fatalf("state lost after invalid input %q: %+v", input, state)
		}
	}
}

func TestDuplicateDetectionAcrossOwners(t *testing.T) {
	testutil.SetupTestDB(t)

	existing := db.Birthday{
		Name:             "Ali",
		BirthDate:        datatypes.Date(time.Date(1990, time.May, 1, 0, 0, 0, 0, time.UTC)),
		PersianBirthDate: "1369/02/11",
		AddedBy:          99,
	}
	if err := db.DB.Create(&existing).Error; err != nil {
		t.Fatalf("failed to seed existing record: %v", err)
	}

	mustBegin(t, 1, StateWaitingForName)
	if _, _, err := HandleText(1, "A", "Ali", testNow, Options{}); err != nil {
		t.Fatalf("name step failed: %v", err)
	}
	reply, _, err := HandleText(1, "A", "1990-05-01", testNow, Options{})
	if err != nil {
		t.Fatalf("date step failed: %v", err)
	}
	if !strings.Contains(reply.Text, "already registered") {
		t.Errorf("expected duplicate prompt, got %q", reply.Text)
	}

	state := currentState(t, 1)
	if state == nil || state.State != StateConfirmDuplicate {
		t.Fatalf("expected confirm_existing_duplicate, got %+v", state)
	}
	if state.DuplicateID != existing.ID {
		t.Errorf("expected cached duplicate id %d, got %d", existing.ID, state.DuplicateID)
	}

	var count int64
	db.DB.Model(&db.Birthday{}).Count(&count)
	if count != 1 {
		t.Errorf("no record should be created before confirmation, found %d", count)
	}
}

func TestDuplicateChoiceCreatesSeparateRecord(t *testing.T) {
	testutil.SetupTestDB(t)

	existing := db.Birthday{
		Name:             "Ali",
		BirthDate:        datatypes.Date(time.Date(1990, time.May, 1, 0, 0, 0, 0, time.UTC)),
		PersianBirthDate: "1369/02/11",
		AddedBy:          99,
	}
	if err := db.DB.Create(&existing).Error; err != nil {
		t.Fatalf("failed to seed existing record: %v", err)
	}

	mustBegin(t, 1, StateWaitingForName)
	HandleText(1, "A", "Ali", testNow, Options{})
	HandleText(1, "A", "1990-05-01", testNow, Options{})

	reply, err := HandleDuplicateChoice(1, "A", false, testNow)
	if err != nil {
		t.Fatalf("HandleDuplicateChoice failed: %v", err)
	}
	if !strings.Contains(reply.Text, "separate") {
		t.Errorf("unexpected reply %q", reply.Text)
	}

	var count int64
	db.DB.Model(&db.Birthday{}).Where("added_by = ?", 1).Count(&count)
	if count != 1 {
		t.Errorf("expected one record owned by user 1, got %d", count)
	}
	if state := currentState(t, 1); state != nil {
		t.Errorf("state should be cleared, got %+v", state)
	}
}

func TestDuplicateChoiceLinksOwnBirthday(t *testing.T) {
	testutil.SetupTestDB(t)

	existing := db.Birthday{
		Name:             "Ali",
		BirthDate:        datatypes.Date(time.Date(1990, time.May, 1, 0, 0, 0, 0, time.UTC)),
		PersianBirthDate: "1369/02/11",
		AddedBy:          99,
	}
	if err := db.DB.Create(&existing).Error; err != nil {
		t.Fatalf("failed to seed existing record: %v", err)
	}

	mustBegin(t, 1, StateWaitingForName)
	HandleText(1, "Ali", "Ali", testNow, Options{})
	HandleText(1, "Ali", "1990-05-01", testNow, Options{})

	if _, err := HandleDuplicateChoice(1, "Ali", true, testNow); err != nil {
		t.Fatalf("HandleDuplicateChoice failed: %v", err)
	}

	var updated db.Birthday
	if err := db.DB.First(&updated, existing.ID).Error; err != nil {
		t.Fatalf("failed to reload existing record: %v", err)
	}
	if updated.OwnerTelegramID == nil || *updated.OwnerTelegramID != 1 {
		t.Errorf("expected owner telegram id 1, got %v", updated.OwnerTelegramID)
	}
}

func TestOwnBirthdayAutoLinks(t *testing.T) {
	testutil.SetupTestDB(t)

	existing := db.Birthday{
		Name:             "Sara",
		BirthDate:        datatypes.Date(time.Date(1992, time.July, 4, 0, 0, 0, 0, time.UTC)),
		PersianBirthDate: "1371/04/14",
		AddedBy:          99,
	}
	if err := db.DB.Create(&existing).Error; err != nil {
		t.Fatalf("failed to seed existing record: %v", err)
	}

	mustBegin(t, 7, StateWaitingForOwnBirthday)
	_, handled, err := HandleText(7, "Sara", "1992-07-04", testNow, Options{})
	if err != nil || !handled {
		t.Fatalf("own birthday step failed: handled=%v err=%v", handled, err)
	}

	var updated db.Birthday
	if err := db.DB.First(&updated, existing.ID).Error; err != nil {
		t.Fatalf("failed to reload existing record: %v", err)
	}
	if updated.OwnerTelegramID == nil || *updated.OwnerTelegramID != 7 {
		t.Errorf("expected auto-link to user 7, got %v", updated.OwnerTelegramID)
	}
	if state := currentState(t, 7); state != nil {
		t.Errorf("state should be cleared, got %+v", state)
	}
}

func TestOwnBirthdayCreatesOwnedRecord(t *testing.T) {
	testutil.SetupTestDB(t)

	mustBegin(t, 7, StateWaitingForOwnBirthday)
	if _, _, err := HandleText(7, "Sara", "1371/04/14", testNow, Options{}); err != nil {
		t.Fatalf("own birthday step failed: %v", err)
	}

	var record db.Birthday
	if err := db.DB.Where("added_by = ?", 7).First(&record).Error; err != nil {
		t.Fatalf("record not created: %v", err)
	}
	if record.OwnerTelegramID == nil || *record.OwnerTelegramID != 7 {
		t.Errorf("expected owner telegram id stamped, got %v", record.OwnerTelegramID)
	}
	if record.Name != "Sara" {
		t.Errorf("expected display name as record name, got %q", record.Name)
	}
}

func TestDefaultReminderBounds(t *testing.T) {
	testutil.SetupTestDB(t)

	if _, err := db.GetOrCreateUserSettings(1, "A"); err != nil {
		t.Fatalf("failed to create settings: %v", err)
	}
	mustBegin(t, 1, StateWaitingForReminder)

	for _, input := range []string{"abc", "-5", "400"} {
		reply, _, err := HandleText(1, "A", input, testNow, Options{})
		if err != nil {
			t.Fatalf("HandleText(%q) failed: %v", input, err)
		}
		if !strings.Contains(reply.Text, "between") {
			t.Errorf("expected bounds re-prompt for %q, got %q", input, reply.Text)
		}
		if state := currentState(t, 1); state == nil || state.State != StateWaitingForReminder {
			t.Fatalf("state should be preserved after %q", input)
		}
	}

	if _, _, err := HandleText(1, "A", "3", testNow, Options{}); err != nil {
		t.Fatalf("valid reminder input failed: %v", err)
	}
	var settings db.UserSettings
	if err := db.DB.Where("user_id = ?", 1).First(&settings).Error; err != nil {
		t.Fatalf("failed to load settings: %v", err)
	}
	if settings.DefaultReminderDays != 3 {
		t.Errorf("expected default reminder days 3, got %d", settings.DefaultReminderDays)
	}
	if state := currentState(t, 1); state != nil {
		t.Errorf("state should be cleared, got %+v", state)
	}
}

func TestEditReminderSentinelClearsOverride(t *testing.T) {
	testutil.SetupTestDB(t)

	override := 7
	record := db.Birthday{
		Name:                 "Ali",
		BirthDate:            datatypes.Date(time.Date(1990, time.May, 1, 0, 0, 0, 0, time.UTC)),
		PersianBirthDate:     "1369/02/11",
		AddedBy:              1,
		ReminderDaysOverride: &override,
	}
	if err := db.DB.Create(&record).Error; err != nil {
		t.Fatalf("failed to seed record: %v", err)
	}

	if err := BeginWithTarget(1, StateWaitingForEditReminder, record.ID); err != nil {
		t.Fatalf("BeginWithTarget failed: %v", err)
	}
	if _, _, err := HandleText(1, "A", "-1", testNow, Options{}); err != nil {
		t.Fatalf("sentinel input failed: %v", err)
	}

	var updated db.Birthday
	if err := db.DB.First(&updated, record.ID).Error; err != nil {
		t.Fatalf("failed to reload record: %v", err)
	}
	if updated.ReminderDaysOverride != nil {
		t.Errorf("override should be cleared, got %v", *updated.ReminderDaysOverride)
	}
}

func TestEditDateRederivesPersian(t *testing.T) {
	testutil.SetupTestDB(t)

	record := db.Birthday{
		Name:             "Ali",
		BirthDate:        datatypes.Date(time.Date(1990, time.May, 1, 0, 0, 0, 0, time.UTC)),
		PersianBirthDate: "1369/02/11",
		AddedBy:          1,
	}
	if err := db.DB.Create(&record).Error; err != nil {
		t.Fatalf("failed to seed record: %v", err)
	}

	if err := BeginWithTarget(1, StateWaitingForEditDate, record.ID); err != nil {
		t.Fatalf("BeginWithTarget failed: %v", err)
	}
	if _, _, err := HandleText(1, "A", "1991-03-21", testNow, Options{}); err != nil {
		t.Fatalf("edit date failed: %v", err)
	}

	var updated db.Birthday
	if err := db.DB.First(&updated, record.ID).Error; err != nil {
		t.Fatalf("failed to reload record: %v", err)
	}
	if updated.PersianBirthDate != "1370/01/01" {
		t.Errorf("Persian rendering not re-derived, got %q", updated.PersianBirthDate)
	}
}

func TestEditTargetGoneReturnsNotFound(t *testing.T) {
	testutil.SetupTestDB(t)

	if err := BeginWithTarget(1, StateWaitingForEditName, 12345); err != nil {
		t.Fatalf("BeginWithTarget failed: %v", err)
	}
	reply, handled, err := HandleText(1, "A", "New Name", testNow, Options{})
	if err != nil || !handled {
		t.Fatalf("HandleText failed: handled=%v err=%v", handled, err)
	}
	if !strings.Contains(reply.Text, "no longer exists") {
		t.Errorf("expected not-found reply, got %q", reply.Text)
	}
	if state := currentState(t, 1); state != nil {
		t.Errorf("state should be cleared after lookup failure, got %+v", state)
	}
}

func TestSearchIsCaseInsensitiveAndScoped(t *testing.T) {
	testutil.SetupTestDB(t)

	records := []db.Birthday{
		{Name: "Ali Rezaei", BirthDate: datatypes.Date(time.Date(1990, time.May, 1, 0, 0, 0, 0, time.UTC)), PersianBirthDate: "1369/02/11", AddedBy: 1},
		{Name: "Sara", BirthDate: datatypes.Date(time.Date(1992, time.July, 4, 0, 0, 0, 0, time.UTC)), PersianBirthDate: "1371/04/14", AddedBy: 1},
		{Name: "Alice", BirthDate: datatypes.Date(time.Date(1993, time.July, 4, 0, 0, 0, 0, time.UTC)), PersianBirthDate: "1372/04/13", AddedBy: 2},
	}
	for i := range records {
		if err := db.DB.Create(&records[i]).Error; err != nil {
			t.Fatalf("failed to seed record: %v", err)
		}
	}

	mustBegin(t, 1, StateWaitingForSearchName)
	reply, _, err := HandleText(1, "A", "ALI", testNow, Options{})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if !strings.Contains(reply.Text, "Ali Rezaei") {
		t.Errorf("expected match for owned record, got %q", reply.Text)
	}
	if strings.Contains(reply.Text, "Alice") {
		t.Errorf("private search must not leak other owners' records: %q", reply.Text)
	}

	// Empty result is a displayed outcome, and the flow is terminal
	// either way.
	mustBegin(t, 1, StateWaitingForSearchName)
	reply, _, err = HandleText(1, "A", "zzz", testNow, Options{})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if !strings.Contains(reply.Text, "No birthdays found") {
		t.Errorf("expected empty-result text, got %q", reply.Text)
	}
	if state := currentState(t, 1); state != nil {
		t.Errorf("search must clear state, got %+v", state)
	}
}

func TestSearchGlobalRegistry(t *testing.T) {
	testutil.SetupTestDB(t)

	record := db.Birthday{
		Name:             "Alice",
		BirthDate:        datatypes.Date(time.Date(1993, time.July, 4, 0, 0, 0, 0, time.UTC)),
		PersianBirthDate: "1372/04/13",
		AddedBy:          2,
	}
	if err := db.DB.Create(&record).Error; err != nil {
		t.Fatalf("failed to seed record: %v", err)
	}

	mustBegin(t, 1, StateWaitingForSearchName)
	reply, _, err := HandleText(1, "A", "ali", testNow, Options{GlobalRegistry: true})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if !strings.Contains(reply.Text, "Alice") {
		t.Errorf("global search should span owners, got %q", reply.Text)
	}
}

func TestClearIsIdempotent(t *testing.T) {
	testutil.SetupTestDB(t)

	if err := Clear(1); err != nil {
		t.Fatalf("Clear on idle user failed: %v", err)
	}
	mustBegin(t, 1, StateWaitingForName)
	if err := Clear(1); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if state := currentState(t, 1); state != nil {
		t.Errorf("state should be gone, got %+v", state)
	}
}
