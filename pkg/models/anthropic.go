package models

import (
	"context"
	"errors"
	"os"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
)

type AnthropicLLM struct {
	Client    *anthropic.Client
	Model     string
	MaxTokens int
}

func NewAnthropicLLM(model string) (*AnthropicLLM, error) {
	key := os.Getenv("ANTHROPIC_API_KEY")
	if key == "" {
		return nil, errors.New("missing ANTHROPIC_API_KEY")
	}
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}
	cl := anthropic.NewClient(anthropicopt.WithAPIKey(key))
	return &AnthropicLLM{Client: &cl, Model: model, MaxTokens: 1024}, nil
}

func (a *AnthropicLLM) Generate(ctx context.Context, messages []Message) (string, error) {
	var system []anthropic.TextBlockParam
	converted := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case RoleAssistant:
			converted = append(converted, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			converted = append(converted, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	msg, err := a.Client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.Model),
		MaxTokens: int64(a.MaxTokens),
		System:    system,
		Messages:  converted,
	})
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, cb := range msg.Content {
		if tb, ok := cb.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(tb.Text)
		}
	}
	return b.String(), nil
}
