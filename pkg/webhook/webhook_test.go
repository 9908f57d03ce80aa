package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	telegram "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/snavid/tg-birthday-bot/pkg/bot/facade"
	"github.com/snavid/tg-birthday-bot/pkg/config"
	"github.com/snavid/tg-birthday-bot/pkg/db"
	"github.com/snavid/tg-birthday-bot/pkg/internal/testutil"
	"github.com/snavid/tg-birthday-bot/pkg/logger"
)

type panickyFacade struct{}

func (panickyFacade) Name() string { return "panicky" }
func (panickyFacade) HandleMessage(ctx context.Context, b *telegram.Bot, update *models.Update) {
	panic("boom")
}
func (panickyFacade) HandleCallbackQuery(ctx context.Context, b *telegram.Bot, update *models.Update) {
}

func newBirthdayHandler(t *testing.T) (*Handler, *testutil.MockTelegramClient) {
	t.Helper()
	client := testutil.NewMockTelegramClient()
	b := testutil.NewTestBot(t, client)
	registry := facade.NewRegistry(facade.Entry{Facade: facade.NewBirthdayFacade(), Bot: b})
	return NewHandler(registry), client
}

func postUpdate(t *testing.T, h *Handler, body, secret string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	if secret != "" {
		req.Header.Set("X-Telegram-Bot-Api-Secret-Token", secret)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStartEndToEnd(t *testing.T) {
	testutil.SetupTestDB(t)
	logger.SetLogLevel(logger.ERROR)
	config.AppConfig = config.Config{}

	h, client := newBirthdayHandler(t)
	body := `{"update_id":1,"message":{"message_id":5,"from":{"id":202,"first_name":"Tester"},"chat":{"id":202,"type":"private"},"text":"/start"}}`

	rec := postUpdate(t, h, body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "Success" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
	if got := client.LastMessageText(t); !strings.Contains(got, "Welcome") {
		t.Fatalf("expected welcome message, got %q", got)
	}

	var birthdays, settings int64
	db.DB.Model(&db.Birthday{}).Count(&birthdays)
	db.DB.Model(&db.UserSettings{}).Count(&settings)
	if birthdays != 0 || settings != 0 {
		t.Fatalf("/start must not create rows, got %d birthdays and %d settings", birthdays, settings)
	}
}

func TestInvalidJSONReturns400(t *testing.T) {
	testutil.SetupTestDB(t)
	logger.SetLogLevel(logger.ERROR)

	h, _ := newBirthdayHandler(t)
	rec := postUpdate(t, h, "{not json", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestNonPostRejected(t *testing.T) {
	testutil.SetupTestDB(t)
	logger.SetLogLevel(logger.ERROR)

	h, _ := newBirthdayHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/webhook", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestSecretTokenSelectsFacade(t *testing.T) {
	testutil.SetupTestDB(t)
	logger.SetLogLevel(logger.ERROR)
	config.AppConfig = config.Config{}

	client := testutil.NewMockTelegramClient()
	b := testutil.NewTestBot(t, client)
	registry := facade.NewRegistry(facade.Entry{Facade: facade.NewBirthdayFacade(), Bot: b})

	voiceClient := testutil.NewMockTelegramClient()
	voiceBot := testutil.NewTestBot(t, voiceClient)
	registry.Register("voice-secret", facade.Entry{Facade: facade.NewVoiceFacade("t", nil), Bot: voiceBot})

	h := NewHandler(registry)
	body := `{"update_id":1,"message":{"message_id":5,"from":{"id":202},"chat":{"id":202,"type":"private"},"text":"hello"}}`

	rec := postUpdate(t, h, body, "voice-secret")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(client.Requests) != 0 {
		t.Fatal("birthday persona must not receive voice-secret updates")
	}
	if got := voiceClient.LastMessageText(t); !strings.Contains(got, "voice message") {
		t.Fatalf("expected voice persona reply, got %q", got)
	}
}

func TestUnknownUpdateShapeIgnored(t *testing.T) {
	testutil.SetupTestDB(t)
	logger.SetLogLevel(logger.ERROR)

	h, client := newBirthdayHandler(t)
	rec := postUpdate(t, h, `{"update_id":9}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for unsupported update, got %d", rec.Code)
	}
	if len(client.Requests) != 0 {
		t.Fatalf("no outbound call expected, got %d", len(client.Requests))
	}
}

func TestPanicReturns500(t *testing.T) {
	testutil.SetupTestDB(t)
	logger.SetLogLevel(logger.ERROR)

	registry := facade.NewRegistry(facade.Entry{Facade: panickyFacade{}})
	h := NewHandler(registry)
	body := `{"update_id":1,"message":{"message_id":5,"from":{"id":202},"chat":{"id":202},"text":"hi"}}`

	rec := postUpdate(t, h, body, "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
