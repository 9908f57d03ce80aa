package facade

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/snavid/tg-birthday-bot/pkg/config"
)

const defaultChatModel = openai.ChatModelGPT4oMini

// OpenAICompleter is the production Completer backed by the OpenAI
// chat-completions API.
type OpenAICompleter struct {
	client openai.Client
	model  openai.ChatModel
}

func NewOpenAICompleter(cfg config.OpenAIConfig) *OpenAICompleter {
	model := defaultChatModel
	if cfg.Model != "" {
		model = openai.ChatModel(cfg.Model)
	}
	return &OpenAICompleter{
		client: openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:  model,
	}
}

func (c *OpenAICompleter) Complete(ctx context.Context, systemPrompt, userText string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userText),
		},
		Temperature:         openai.Float(0.8),
		MaxCompletionTokens: openai.Int(3000),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
