package ai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sashabaranov/go-openai"
)

// ErrLLMUnavailable is returned by Chat when no usable backend is configured.
var ErrLLMUnavailable = errors.New("llm backend not configured")

// Message represents a chat message.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

// LLMService is the LLM service interface.
type LLMService interface {
	// Chat performs synchronous chat and returns the assistant content.
	Chat(ctx context.Context, messages []Message) (string, error)

	// IsAvailable reports whether Chat can reach a configured backend.
	// It performs no I/O.
	IsAvailable() bool
}

type llmService struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
	jsonOutput  bool
}

// NewLLMService creates a new LLMService. An empty or malformed credential
// yields a service whose IsAvailable is false instead of an error.
func NewLLMService(cfg *LLMConfig) (LLMService, error) {
	switch cfg.Provider {
	case "openai", "deepseek", "ollama":
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}

	if !cfg.HasCredential() {
		return unavailableService{}, nil
	}

	// DeepSeek and Ollama both speak the OpenAI chat completions API.
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &llmService{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     timeout,
		jsonOutput:  cfg.JSONOutput,
	}, nil
}

func (s *llmService) IsAvailable() bool {
	return true
}

func (s *llmService) Chat(ctx context.Context, messages []Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: wireTemperature(s.temperature),
		Messages:    convertMessages(messages),
	}
	if s.jsonOutput {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response")
	}

	return resp.Choices[0].Message.Content, nil
}

// wireTemperature works around go-openai dropping a zero temperature via
// omitempty, which would leave the server on its non-deterministic default.
func wireTemperature(t float32) float32 {
	if t <= 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	llmMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case "system":
			role = openai.ChatMessageRoleSystem
		case "assistant":
			role = openai.ChatMessageRoleAssistant
		}
		llmMessages[i] = openai.ChatCompletionMessage{Role: role, Content: m.Content}
	}
	return llmMessages
}

type unavailableService struct{}

// NewUnavailableLLMService returns a service that is never available. Callers
// fall back to their mock paths.
func NewUnavailableLLMService() LLMService {
	return unavailableService{}
}

func (unavailableService) Chat(context.Context, []Message) (string, error) {
	return "", ErrLLMUnavailable
}

func (unavailableService) IsAvailable() bool {
	return false
}

// Helper for creating system prompts
func SystemPrompt(content string) Message {
	return Message{Role: "system", Content: content}
}

// Helper for creating user messages
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}
