package models

import (
	"context"
	"errors"
	"fmt"
	"os"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GeminiLLM struct {
	Client *genai.Client
	Model  string
}

func NewGeminiLLM(ctx context.Context, model string) (*GeminiLLM, error) {
	apiKey := os.Getenv("GOOGLE_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("missing GOOGLE_API_KEY or GEMINI_API_KEY")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &GeminiLLM{Client: client, Model: model}, nil
}

func (g *GeminiLLM) Generate(ctx context.Context, messages []Message) (string, error) {
	model := g.Client.GenerativeModel(g.Model)
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(msg.Content)}}
			break
		}
	}
	var rest []Message
	for _, msg := range messages {
		if msg.Role != RoleSystem {
			rest = append(rest, msg)
		}
	}
	resp, err := model.GenerateContent(ctx, genai.Text(Transcript(rest)))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini: empty response")
	}
	if text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text); ok {
		return string(text), nil
	}
	return "", errors.New("gemini: non-text response")
}
