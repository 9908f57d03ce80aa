// Package facade hosts the bot personas served by the shared webhook
// endpoint. Telegram echoes the secret token configured per webhook in
// the X-Telegram-Bot-Api-Secret-Token header; the registry maps that
// token back to a persona and its API client.
package facade

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type Facade interface {
	Name() string
	HandleMessage(ctx context.Context, b *bot.Bot, update *models.Update)
	HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update)
}

// Entry pairs a persona with the bot client holding its token.
type Entry struct {
	Facade Facade
	Bot    *bot.Bot
}

type Registry struct {
	entries  map[string]Entry
	fallback Entry
}

// NewRegistry creates a registry that answers with the fallback entry
// for unknown or missing secret tokens.
func NewRegistry(fallback Entry) *Registry {
	return &Registry{
		entries:  make(map[string]Entry),
		fallback: fallback,
	}
}

// Register binds a secret token to a persona. Empty secrets are
// ignored so unconfigured personas never shadow the fallback.
func (r *Registry) Register(secret string, entry Entry) {
	if secret == "" {
		return
	}
	r.entries[secret] = entry
}

func (r *Registry) Select(secret string) Entry {
	if entry, ok := r.entries[secret]; ok {
		return entry
	}
	return r.fallback
}
