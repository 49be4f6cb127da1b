package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"
)

// RecruiterSystemPrompt frames the model as the brief assistant
const RecruiterSystemPrompt = "Tu es un assistant IA spécialisé en recrutement. Tu aides un recruteur à définir " +
	"précisément le profil recherché : missions, compétences techniques, savoir-être, contexte du projet, " +
	"localisation et contraintes. Pose des questions courtes et concrètes, une étape à la fois."

const defaultModel = "gpt-4o-mini"

// OpenAIProvider implements the Provider interface for OpenAI-compatible APIs
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	// Allow empty API key - validation happens at runtime
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	if config.MaxTokens == 0 {
		config.MaxTokens = 1024
	}
	if config.Temperature == 0 {
		config.Temperature = 0.7
	}
	if config.Model == "" {
		config.Model = defaultModel
	}
	if config.ProviderName == "" {
		config.ProviderName = "OpenAI Compatible"
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

func (p *OpenAIProvider) request(messages []Message, stream bool) openai.ChatCompletionRequest {
	openaiMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		openaiMessages = append(openaiMessages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	return openai.ChatCompletionRequest{
		Model:       p.config.Model,
		Messages:    openaiMessages,
		MaxTokens:   p.config.MaxTokens,
		Temperature: float32(p.config.Temperature),
		Stream:      stream,
	}
}

// StreamChat implements streaming chat. The channel is closed once the reply ends
// or ctx is done.
func (p *OpenAIProvider) StreamChat(ctx context.Context, messages []Message) (<-chan StreamResponse, error) {
	responseChan := make(chan StreamResponse)
	req := p.request(messages, true)

	// send reports false once ctx is done
	send := func(r StreamResponse) bool {
		select {
		case responseChan <- r:
			return true
		case <-ctx.Done():
			return false
		}
	}

	go func() {
		defer close(responseChan)

		stream, err := p.client.CreateChatCompletionStream(ctx, req)
		if err != nil {
			send(StreamResponse{Error: fmt.Errorf("failed to create stream: %w", err)})
			return
		}
		defer stream.Close()

		for {
			response, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				send(StreamResponse{Done: true})
				return
			}
			if err != nil {
				send(StreamResponse{Error: fmt.Errorf("stream error: %w", err)})
				return
			}

			if len(response.Choices) > 0 {
				if content := response.Choices[0].Delta.Content; content != "" {
					if !send(StreamResponse{Content: content}) {
						return
					}
				}
			}
		}
	}()

	return responseChan, nil
}

// Chat implements non-streaming chat
func (p *OpenAIProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, p.request(messages, false))
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return p.config.ProviderName
}

// GenerateTitle asks the model for a job title summarizing the brief conversation
func (p *OpenAIProvider) GenerateTitle(ctx context.Context, messages []Message) (string, error) {
	titlePrompt := []Message{
		{
			Role: "system",
			Content: "Tu génères des intitulés de poste courts à partir d'un échange de recrutement. " +
				"Réponds uniquement par l'intitulé (2 à 6 mots), dans la langue de la conversation.",
		},
	}

	// The opening turns carry the role; later ones are mostly details
	maxMessages := 6
	for i, msg := range messages {
		if i >= maxMessages {
			break
		}
		titlePrompt = append(titlePrompt, msg)
	}

	titlePrompt = append(titlePrompt, Message{
		Role:    "user",
		Content: "Quel est l'intitulé du poste recherché ?",
	})

	title, err := p.Chat(ctx, titlePrompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate title: %w", err)
	}

	return cleanTitle(title), nil
}

// ValidateConfig validates the configuration
func (p *OpenAIProvider) ValidateConfig() error {
	if p.config.APIKey == "" {
		return errors.New("API key is required")
	}
	return nil
}
