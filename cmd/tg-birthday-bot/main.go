package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-telegram/bot"
	"github.com/snavid/tg-birthday-bot/pkg/bot/facade"
	"github.com/snavid/tg-birthday-bot/pkg/bot/reminders"
	"github.com/snavid/tg-birthday-bot/pkg/config"
	"github.com/snavid/tg-birthday-bot/pkg/db"
	"github.com/snavid/tg-birthday-bot/pkg/logger"
	"github.com/snavid/tg-birthday-bot/pkg/webhook"
)

const defaultListenAddr = ":8080"

func main() {
	if err := config.LoadConfig("config.json"); err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := logger.Configure(logger.Options{
		Level: config.AppConfig.Logging.Level,
		File:  config.AppConfig.Logging.File,
	}); err != nil {
		logger.Error("failed to configure logger", "error", err)
	}

	if err := db.InitDB(config.AppConfig.Database); err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	telegramCfg := config.AppConfig.Telegram

	birthdayBot, err := bot.New(telegramCfg.BirthdayToken)
	if err != nil {
		logger.Error("failed to create birthday bot", "error", err)
		os.Exit(1)
	}
	birthdayEntry := facade.Entry{Facade: facade.NewBirthdayFacade(), Bot: birthdayBot}

	// An unknown secret token falls through to the dictionary persona
	// when one is configured, otherwise to the birthday persona.
	completer := facade.NewOpenAICompleter(config.AppConfig.OpenAI)
	fallback := birthdayEntry
	var dictionaryEntry *facade.Entry
	if telegramCfg.DictionaryToken != "" {
		dictionaryBot, err := bot.New(telegramCfg.DictionaryToken)
		if err != nil {
			logger.Error("failed to create dictionary bot", "error", err)
			os.Exit(1)
		}
		entry := facade.Entry{Facade: facade.NewDictionaryFacade(completer), Bot: dictionaryBot}
		dictionaryEntry = &entry
		fallback = entry
	}

	registry := facade.NewRegistry(fallback)
	registry.Register(telegramCfg.BirthdaySecret, birthdayEntry)
	if dictionaryEntry != nil {
		registry.Register(telegramCfg.DictionarySecret, *dictionaryEntry)
	}
	registerPersona(registry, telegramCfg.PhraseToken, telegramCfg.PhraseSecret, facade.NewPhraseFacade(completer))

	if telegramCfg.VoiceToken != "" {
		transcriber, err := facade.NewReplicateTranscriber(config.AppConfig.Replicate)
		if err != nil {
			logger.Error("failed to create transcriber", "error", err)
			os.Exit(1)
		}
		registerPersona(registry, telegramCfg.VoiceToken, telegramCfg.VoiceSecret,
			facade.NewVoiceFacade(telegramCfg.VoiceToken, transcriber))
	}

	if _, err := reminders.StartScheduler(ctx, birthdayBot); err != nil {
		logger.Error("failed to start reminder scheduler", "error", err)
		os.Exit(1)
	}

	addr := telegramCfg.ListenAddr
	if addr == "" {
		addr = defaultListenAddr
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           webhook.NewHandler(registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shut down webhook server", "error", err)
		}
	}()

	logger.Info("Starting webhook server...", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("webhook server failed", "error", err)
		os.Exit(1)
	}
}

// registerPersona wires one optional persona; a missing token just
// leaves it unregistered.
func registerPersona(registry *facade.Registry, token, secret string, f facade.Facade) {
	if token == "" {
		return
	}
	b, err := bot.New(token)
	if err != nil {
		logger.Error("failed to create bot", "facade", f.Name(), "error", err)
		return
	}
	registry.Register(secret, facade.Entry{Facade: f, Bot: b})
}
