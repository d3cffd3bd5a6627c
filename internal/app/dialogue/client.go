// Package dialogue talks to the language-model backend. The synthesized
// briefing is injected as an opaque string into the system prompt; nothing
// here depends on the briefing's structure.
package dialogue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

var ErrDisabled = errors.New("dialogue backend not configured")

// Sink accepts situational context and a message and produces a reply.
// The briefing synthesizer's output feeds the contextText parameter.
type Sink interface {
	Converse(ctx context.Context, persona, contextText, message string) (string, error)
}

// Client calls an OpenAI-style chat-completions endpoint. An empty API key
// disables it; callers check Enabled before routing chat traffic.
type Client struct {
	logger zerolog.Logger
	apiURL string
	apiKey string
	model  string
	http   *http.Client
}

func NewClient(logger zerolog.Logger, apiURL, apiKey, model string) *Client {
	return &Client{
		logger: logger,
		apiURL: apiURL,
		apiKey: apiKey,
		model:  model,
		http:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) Converse(ctx context.Context, persona, contextText, message string) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}

	system := persona
	if contextText != "" {
		system += "\n\nYour current situation:\n" + contextText
	}
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: message},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("dialogue request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("dialogue backend status %d: %s", resp.StatusCode, bytes.TrimSpace(b))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode dialogue response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("dialogue backend returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}
