package facade

import (
	"context"
	"fmt"
	"strings"

	"github.com/replicate/replicate-go"
	"github.com/snavid/tg-birthday-bot/pkg/config"
)

const defaultWhisperModel = "vaibhavs10/incredibly-fast-whisper:3ab86df6c8f54c11309d4d1f930ac292bad43ace52d10c80d87eb258b3c9f79c"

// ReplicateTranscriber is the production Transcriber backed by a
// Whisper model on Replicate.
type ReplicateTranscriber struct {
	client *replicate.Client
	model  string
}

func NewReplicateTranscriber(cfg config.ReplicateConfig) (*ReplicateTranscriber, error) {
	client, err := replicate.NewClient(replicate.WithToken(cfg.APIToken))
	if err != nil {
		return nil, err
	}
	model := cfg.Model
	if model == "" {
		model = defaultWhisperModel
	}
	return &ReplicateTranscriber{client: client, model: model}, nil
}

func (t *ReplicateTranscriber) Transcribe(ctx context.Context, audioURL string) (string, error) {
	input := replicate.PredictionInput{
		"task":          "transcribe",
		"audio":         audioURL,
		"language":      "persian",
		"timestamp":     "chunk",
		"batch_size":    64,
		"diarise_audio": false,
	}
	output, err := t.client.Run(ctx, t.model, input, nil)
	if err != nil {
		return "", err
	}

	switch value := output.(type) {
	case map[string]interface{}:
		if text, ok := value["text"].(string); ok {
			return strings.TrimSpace(text), nil
		}
		return "", fmt.Errorf("transcription output missing text field")
	case string:
		return strings.TrimSpace(value), nil
	default:
		return "", fmt.Errorf("unexpected transcription output type %T", output)
	}
}
