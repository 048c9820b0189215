package models

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
)

type OllamaLLM struct {
	Client *ollama.Client
	Model  string
}

func NewOllamaLLM(model string) (*OllamaLLM, error) {
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		host = "http://localhost:11434"
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid OLLAMA_HOST %q: %w", host, err)
	}
	if model == "" {
		model = "llama3.2"
	}
	httpClient := &http.Client{Timeout: 60 * time.Second}
	return &OllamaLLM{Client: ollama.NewClient(u, httpClient), Model: model}, nil
}

func (o *OllamaLLM) Generate(ctx context.Context, messages []Message) (string, error) {
	converted := make([]ollama.Message, 0, len(messages))
	for _, msg := range messages {
		converted = append(converted, ollama.Message{Role: msg.Role, Content: msg.Content})
	}
	stream := false
	var text strings.Builder
	err := o.Client.Chat(ctx, &ollama.ChatRequest{
		Model:    o.Model,
		Messages: converted,
		Stream:   &stream,
	}, func(resp ollama.ChatResponse) error {
		text.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", err
	}
	return text.String(), nil
}
