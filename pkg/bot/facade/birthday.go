package facade

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/snavid/tg-birthday-bot/pkg/bot/handlers"
)

// BirthdayFacade is the main persona: the birthday registry and
// reminder bot.
type BirthdayFacade struct{}

func NewBirthdayFacade() *BirthdayFacade {
	return &BirthdayFacade{}
}

func (f *BirthdayFacade) Name() string { return "birthday" }

func (f *BirthdayFacade) HandleMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	handlers.HandleMessage(ctx, b, update)
}

func (f *BirthdayFacade) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	handlers.HandleCallbackQuery(ctx, b, update)
}
