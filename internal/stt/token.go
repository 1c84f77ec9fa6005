package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// TokenProvider fetches a short-lived credential for the streaming
// recognizer. Consumed once per StartListening.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// HTTPTokenProvider requests tokens from the backend collaborator.
type HTTPTokenProvider struct {
	url    string
	apiKey string
	client *http.Client
}

func NewHTTPTokenProvider(url, apiKey string) *HTTPTokenProvider {
	return &HTTPTokenProvider{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *HTTPTokenProvider) Token(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, nil)
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch recognizer token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch recognizer token: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if body.Token == "" {
		return "", fmt.Errorf("token response missing token")
	}
	return body.Token, nil
}
