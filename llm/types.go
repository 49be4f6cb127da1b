package llm

import (
	"context"
	"strings"
	"unicode/utf8"
)

// Message represents a chat message sent to a model
type Message struct {
	Role    string `json:"role"` // "user", "assistant" or "system"
	Content string `json:"content"`
}

// StreamResponse represents a chunk of streaming response
type StreamResponse struct {
	Content string
	Done    bool
	Error   error
}

// Provider is a model backend able to answer the brief conversation
type Provider interface {
	// StreamChat sends messages and returns a channel for streaming responses.
	// Producers stop sending once ctx is done.
	StreamChat(ctx context.Context, messages []Message) (<-chan StreamResponse, error)

	// Chat sends messages and returns the complete response (non-streaming)
	Chat(ctx context.Context, messages []Message) (string, error)

	// GenerateTitle generates a short job title from the conversation messages
	GenerateTitle(ctx context.Context, messages []Message) (string, error)

	// Name returns the provider name
	Name() string

	// ValidateConfig validates the provider configuration
	ValidateConfig() error
}

// Config represents provider configuration
type Config struct {
	ProviderName string
	APIKey       string
	BaseURL      string
	Model        string
	MaxTokens    int
	Temperature  float64
}

// cleanTitle removes quotes and extra whitespace from a generated title
func cleanTitle(title string) string {
	title = strings.TrimSpace(title)
	title = strings.Trim(title, "\"'«» ")
	title = strings.TrimSpace(title)

	if utf8.RuneCountInString(title) > 100 {
		title = string([]rune(title)[:100]) + "..."
	}

	if title == "" {
		title = "Nouveau poste"
	}

	return title
}
