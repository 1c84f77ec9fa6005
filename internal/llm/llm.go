package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type Message struct {
	Role    string
	Content string
}

// Completion is one model reply plus the token accounting the usage audit
// trail records per call.
type Completion struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}

// ErrRateLimited wraps upstream HTTP 429 responses so callers can apply
// backoff instead of treating them as generic failures.
var ErrRateLimited = errors.New("llm: rate limited")

type Client interface {
	Complete(ctx context.Context, messages []Message) (Completion, error)
}

type Option func(*clientOptions)

type clientOptions struct {
	baseURL     string
	temperature float32
}

func WithBaseURL(url string) Option {
	return func(o *clientOptions) {
		o.baseURL = url
	}
}

// WithTemperature sets the sampling temperature for every completion the
// client issues. Zero means provider default.
func WithTemperature(t float32) Option {
	return func(o *clientOptions) {
		o.temperature = t
	}
}

func ParseModel(model string) (provider, modelName string, err error) {
	parts := strings.SplitN(model, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid model format %q: expected provider/model_name", model)
	}
	return parts[0], parts[1], nil
}

func NewClient(provider, apiKey, model string, opts ...Option) (Client, error) {
	o := &clientOptions{}
	for _, opt := range opts {
		opt(o)
	}

	switch provider {
	case "openai":
		return newOpenAIClient(apiKey, model, o)
	case "anthropic":
		return newAnthropicClient(apiKey, model, o)
	case "gemini":
		return newGeminiClient(apiKey, model, o)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q: supported providers are openai, anthropic, gemini", provider)
	}
}
