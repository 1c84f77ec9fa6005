package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

type geminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
}

func newGeminiClient(apiKey, model string, opts *clientOptions) (*geminiClient, error) {
	ctx := context.Background()
	config := &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	if opts.baseURL != "" {
		config.HTTPOptions.BaseURL = opts.baseURL
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &geminiClient{client: client, model: model, temperature: opts.temperature}, nil
}

func convertGeminiMessages(messages []Message) (*genai.Content, []*genai.Content) {
	var systemInstruction *genai.Content
	var contents []*genai.Content

	for _, m := range messages {
		switch m.Role {
		case "system":
			systemInstruction = &genai.Content{Parts: []*genai.Part{{Text: m.Content}}}
		case "user":
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: m.Content}}})
		case "assistant":
			contents = append(contents, &genai.Content{Role: "model", Parts: []*genai.Part{{Text: m.Content}}})
		}
	}

	return systemInstruction, contents
}

func (c *geminiClient) Complete(ctx context.Context, messages []Message) (Completion, error) {
	systemInstruction, contents := convertGeminiMessages(messages)

	hasUserMessage := false
	for _, m := range messages {
		if m.Role == "user" {
			hasUserMessage = true
			break
		}
	}
	if !hasUserMessage {
		return Completion{}, fmt.Errorf("gemini: no user message provided")
	}

	config := &genai.GenerateContentConfig{SystemInstruction: systemInstruction}
	if c.temperature > 0 {
		config.Temperature = genai.Ptr(c.temperature)
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
			return Completion{}, fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		return Completion{}, fmt.Errorf("gemini completion: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return Completion{}, fmt.Errorf("gemini: empty response text")
	}

	completion := Completion{Content: text}
	if result.UsageMetadata != nil {
		completion.PromptTokens = int(result.UsageMetadata.PromptTokenCount)
		completion.CompletionTokens = int(result.UsageMetadata.CandidatesTokenCount)
	}
	return completion, nil
}
