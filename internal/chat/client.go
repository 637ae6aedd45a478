// Package chat proxies support-assistant conversations to an
// OpenAI-compatible chat completion endpoint.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var ErrNotConfigured = errors.New("AI configuration is missing")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client is the completion adapter. Swapped for a double in tests.
type Client interface {
	Complete(ctx context.Context, messages []Message) (Message, error)
}

type OpenAIClient struct {
	APIKey  string
	Model   string
	BaseURL string

	HTTP *http.Client
}

func NewOpenAI(apiKey, model string) *OpenAIClient {
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &OpenAIClient{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: "https://api.openai.com/v1",
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, messages []Message) (Message, error) {
	if c.APIKey == "" {
		return Message{}, ErrNotConfigured
	}

	body, _ := json.Marshal(map[string]any{
		"model":       c.Model,
		"messages":    messages,
		"temperature": 0.7,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Message{}, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Message{}, fmt.Errorf("completion request failed, %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Message{}, fmt.Errorf("completion request failed, status %d", resp.StatusCode)
	}

	var data struct {
		Choices []struct {
			Message Message `json:"message"`
		} `json:"choices"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Message{}, fmt.Errorf("failed to decode completion, %w", err)
	}

	if len(data.Choices) == 0 {
		return Message{}, errors.New("completion returned no choices")
	}

	return data.Choices[0].Message, nil
}
