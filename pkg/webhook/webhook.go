// Package webhook is the single HTTP surface of the service. Telegram
// delivers every persona's updates to the same endpoint; the secret
// token header decides which persona handles them.
package webhook

import (
	"encoding/json"
	"net/http"

	"github.com/go-telegram/bot/models"
	"github.com/snavid/tg-birthday-bot/pkg/bot/facade"
	"github.com/snavid/tg-birthday-bot/pkg/logger"
)

const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

type Handler struct {
	registry *facade.Registry
}

func NewHandler(registry *facade.Registry) *Handler {
	return &Handler{registry: registry}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// A handler panic must never take the server down or leak a stack
	// trace to Telegram.
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("panic in webhook handler", "panic", rec)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
	}()

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var update models.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		logger.Error("failed to decode webhook update", "error", err)
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	entry := h.registry.Select(r.Header.Get(secretTokenHeader))
	logger.Debug("webhook update", "facade", entry.Facade.Name(), "update_id", update.ID)

	switch {
	case update.CallbackQuery != nil:
		entry.Facade.HandleCallbackQuery(r.Context(), entry.Bot, &update)
	case update.Message != nil:
		entry.Facade.HandleMessage(r.Context(), entry.Bot, &update)
	default:
		// Edits, channel posts and the like are acknowledged and
		// dropped.
		logger.Debug("ignoring unsupported update", "update_id", update.ID)
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("Success")); err != nil {
		logger.Error("failed to write webhook response", "error", err)
	}
}
