package models

import (
	"context"
	"errors"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAILLM struct {
	Client *openai.Client
	Model  string
}

func NewOpenAILLM(model string) (*OpenAILLM, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("missing OPENAI_API_KEY")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAILLM{Client: openai.NewClient(apiKey), Model: model}, nil
}

func (o *OpenAILLM) Generate(ctx context.Context, messages []Message) (string, error) {
	converted := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		converted = append(converted, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	resp, err := o.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    o.Model,
		Messages: converted,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}
