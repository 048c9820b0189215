package models

import "context"

// Message is one chat-style turn handed to a text-generation provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Generator is a pluggable chat-completion provider.
type Generator interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// Transcript flattens messages into a plain-text exchange, used by
// providers without a native multi-turn API and by prompt builders.
func Transcript(messages []Message) string {
	out := ""
	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += msg.Role + ": " + msg.Content
	}
	return out
}
