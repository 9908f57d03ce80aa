package facade

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/snavid/tg-birthday-bot/pkg/logger"
)

const (
	// Telegram voice notes longer than this are refused instead of
	// burning transcription credit.
	maxVoiceDurationSeconds = 300

	// Telegram caps messages at 4096 characters.
	maxTranscriptionLen = 4000
)

// Transcriber abstracts the speech-to-text call.
type Transcriber interface {
	Transcribe(ctx context.Context, audioURL string) (string, error)
}

// VoiceFacade transcribes Persian voice messages. The bot token is
// needed to build the file download URL.
type VoiceFacade struct {
	token       string
	transcriber Transcriber
}

func NewVoiceFacade(token string, transcriber Transcriber) *VoiceFacade {
	return &VoiceFacade{token: token, transcriber: transcriber}
}

func (f *VoiceFacade) Name() string { return "voice" }

func (f *VoiceFacade) HandleMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.Chat.ID == 0 {
		logger.Error("invalid update in voice facade")
		return
	}
	chatID := update.Message.Chat.ID

	if update.Message.Voice != nil {
		f.handleVoice(ctx, b, chatID, update.Message.Voice)
		return
	}

	switch update.Message.Text {
	case "/start":
		sendOrLog(ctx, b, chatID, "🎤 Voice Transcription Bot\n\n"+
			"Send me a voice message and I'll transcribe it to Persian text for you!\n\n"+
			"Just send a voice message to get started! 🚀")
	case "/help":
		sendOrLog(ctx, b, chatID, "🆘 How to use:\n\n"+
			"1. Record a voice message in Telegram\n"+
			"2. Send it to this bot\n"+
			"3. Receive your Persian transcription\n\n"+
			"💡 Tips:\n"+
			"• Speak clearly for better results\n"+
			"• Avoid background noise\n"+
			"• Keep messages under 5 minutes")
	default:
		sendOrLog(ctx, b, chatID, "Please send me a voice message to transcribe, or use /help for more information.")
	}
}

func (f *VoiceFacade) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	// This persona has no inline keyboards.
}

func (f *VoiceFacade) handleVoice(ctx context.Context, b *bot.Bot, chatID int64, voice *models.Voice) {
	if voice.Duration > maxVoiceDurationSeconds {
		sendOrLog(ctx, b, chatID, "❌ Voice message is too long. Please keep it under 5 minutes.")
		return
	}

	sendOrLog(ctx, b, chatID, "🎤 Processing your voice message...")

	file, err := b.GetFile(ctx, &bot.GetFileParams{FileID: voice.FileID})
	if err != nil {
		logger.Error("failed to get voice file", "error", err)
		sendOrLog(ctx, b, chatID, "❌ Could not process the voice message. Please try again.")
		return
	}

	audioURL := fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", f.token, file.FilePath)
	text, err := f.transcriber.Transcribe(ctx, audioURL)
	if err != nil || text == "" {
		logger.Error("transcription failed", "error", err)
		sendOrLog(ctx, b, chatID, "❌ Could not transcribe the voice message. Please try again with a clearer recording.")
		return
	}

	if len(text) > maxTranscriptionLen {
		text = text[:maxTranscriptionLen] + "... (truncated)"
	}
	sendOrLog(ctx, b, chatID, fmt.Sprintf("📝 Transcription:\n\n%s", text))
}
