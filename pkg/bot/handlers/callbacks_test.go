package handlers

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/snavid/tg-birthday-bot/pkg/bot/convo"
	"github.com/snavid/tg-birthday-bot/pkg/config"
	"github.com/snavid/tg-birthday-bot/pkg/db"
	"github.com/snavid/tg-birthday-bot/pkg/internal/testutil"
	"github.com/snavid/tg-birthday-bot/pkg/logger"
	"gorm.io/datatypes"
)

func seedBirthday(t *testing.T, name string, addedBy int64) db.Birthday {
	t.Helper()
	record := db.Birthday{
		Name:             name,
		BirthDate:        datatypes.Date(time.Date(1990, time.May, 1, 0, 0, 0, 0, time.UTC)),
		PersianBirthDate: "1369/02/11",
		AddedBy:          addedBy,
	}
	if err := db.DB.Create(&record).Error; err != nil {
		t.Fatalf("failed to seed birthday: %v", err)
	}
	return record
}

func TestDeleteFlow(t *testing.T) {
	testutil.SetupTestDB(t)
	logger.SetLogLevel(logger.ERROR)
	config.AppConfig = config.Config{}

	record := seedBirthday(t, "Ali", 202)

	client := testutil.NewMockTelegramClient()
	b := testutil.NewTestBot(t, client)
	ctx := context.Background()

	HandleCallbackQuery(ctx, b, newTestCallbackUpdate(fmt.Sprintf("b:del:%d", record.ID), 202, 202, 10))
	if got := client.LastMessageText(t); !strings.Contains(got, "sure you want to delete") {
		t.Fatalf("expected delete confirmation, got %q", got)
	}

	var count int64
	db.DB.Model(&db.Birthday{}).Count(&count)
	if count != 1 {
		t.Fatalf("confirmation alone must not delete, found %d records", count)
	}

	HandleCallbackQuery(ctx, b, newTestCallbackUpdate(fmt.Sprintf("b:delyes:%d", record.ID), 202, 202, 10))
	db.DB.Model(&db.Birthday{}).Count(&count)
	if count != 0 {
		t.Fatalf("record should be deleted, found %d", count)
	}
}

func TestDeleteRefusesForeignRecord(t *testing.T) {
	testutil.SetupTestDB(t)
	logger.SetLogLevel(logger.ERROR)
	config.AppConfig = config.Config{}

	record := seedBirthday(t, "Ali", 999)

	client := testutil.NewMockTelegramClient()
	b := testutil.NewTestBot(t, client)

	HandleCallbackQuery(context.Background(), b, newTestCallbackUpdate(fmt.Sprintf("b:delyes:%d", record.ID), 202, 202, 10))

	var count int64
	db.DB.Model(&db.Birthday{}).Count(&count)
	if count != 1 {
		t.Fatal("a user must not delete records they did not add")
	}
}

func TestManageMenuShowsRecord(t *testing.T) {
	testutil.SetupTestDB(t)
	logger.SetLogLevel(logger.ERROR)
	config.AppConfig = config.Config{}

	record := seedBirthday(t, "Ali", 202)

	client := testutil.NewMockTelegramClient()
	b := testutil.NewTestBot(t, client)

	HandleCallbackQuery(context.Background(), b, newTestCallbackUpdate(fmt.Sprintf("b:manage:%d", record.ID), 202, 202, 10))

	got := client.LastMessageText(t)
	for _, want := range []string{"Ali", "1990-05-01", "1369/02/11"} {
		if !strings.Contains(got, want) {
			t.Fatalf("manage view missing %q:\n%s", want, got)
		}
	}
}

func TestEditNameCallbackBeginsFlow(t *testing.T) {
	testutil.SetupTestDB(t)
	logger.SetLogLevel(logger.ERROR)
	config.AppConfig = config.Config{}

	record := seedBirthday(t, "Ali", 202)

	client := testutil.NewMockTelegramClient()
	b := testutil.NewTestBot(t, client)
	ctx := context.Background()

	HandleCallbackQuery(ctx, b, newTestCallbackUpdate(fmt.Sprintf("b:ename:%d", record.ID), 202, 202, 10))

	state, err := convo.Get(202)
	if err != nil {
		t.Fatalf("failed to load state: %v", err)
	}
	if state == nil || state.State != convo.StateWaitingForEditName || state.TargetID != record.ID {
		t.Fatalf("expected edit-name state targeting %d, got %+v", record.ID, state)
	}

	HandleMessage(ctx, b, newTestUpdate("Ali Rezaei", 202))
	var updated db.Birthday
	if err := db.DB.First(&updated, record.ID).Error; err != nil {
		t.Fatalf("failed to reload record: %v", err)
	}
	if updated.Name != "Ali Rezaei" {
		t.Fatalf("name not updated, got %q", updated.Name)
	}
}

func TestSnoozeCallback(t *testing.T) {
	testutil.SetupTestDB(t)
	logger.SetLogLevel(logger.ERROR)
	config.AppConfig = config.Config{}

	record := seedBirthday(t, "Ali", 202)
	sent := time.Now().UTC()
	db.DB.Model(&record).Update("last_reminder_sent", sent)

	client := testutil.NewMockTelegramClient()
	b := testutil.NewTestBot(t, client)

	HandleCallbackQuery(context.Background(), b, newTestCallbackUpdate(fmt.Sprintf("b:snooze:%d:2", record.ID), 202, 202, 10))

	var updated db.Birthday
	if err := db.DB.First(&updated, record.ID).Error; err != nil {
		t.Fatalf("failed to reload record: %v", err)
	}
	if updated.SnoozedUntil == nil {
		t.Fatal("snoozed_until should be set")
	}
	want := today().AddDate(0, 0, 2)
	if !updated.SnoozedUntil.Equal(want) {
		t.Fatalf("expected snooze until %v, got %v", want, updated.SnoozedUntil)
	}
	if updated.LastReminderSent != nil {
		t.Fatal("snoozing should re-arm the reminder")
	}
}

func TestUnknownCallbackAnswered(t *testing.T) {
	testutil.SetupTestDB(t)
	logger.SetLogLevel(logger.ERROR)
	config.AppConfig = config.Config{}

	client := testutil.NewMockTelegramClient()
	b := testutil.NewTestBot(t, client)

	HandleCallbackQuery(context.Background(), b, newTestCallbackUpdate("garbage", 202, 202, 10))

	if len(client.Requests) != 1 {
		t.Fatalf("expected exactly one answerCallbackQuery, got %d requests", len(client.Requests))
	}
	if !strings.Contains(client.Requests[0].Path, "answerCallbackQuery") {
		t.Fatalf("expected answerCallbackQuery, got %s", client.Requests[0].Path)
	}
}
