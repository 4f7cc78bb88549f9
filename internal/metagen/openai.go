package metagen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

const (
	openaiBaseURL      = "https://api.openai.com/v1"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// OpenAIClient calls any OpenAI-compatible chat/completions endpoint.
type OpenAIClient struct {
	model   string
	baseURL string
	client  *http.Client
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewOpenAIClient returns a client whose transport adds the API key as a
// bearer token. ctx may carry a base *http.Client under oauth2.HTTPClient.
func NewOpenAIClient(ctx context.Context, cfg OpenAIConfig) *OpenAIClient {
	c := &OpenAIClient{
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client: oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: cfg.APIKey,
			TokenType:   "Bearer",
		})),
	}
	if c.model == "" {
		c.model = DefaultOpenAIModel
	}
	if c.baseURL == "" {
		c.baseURL = openaiBaseURL
	}
	return c
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
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("openai: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("openai: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("openai: reading response: %w", err)
	}

	var out chatResponse
	decodeErr := json.Unmarshal(respBody, &out)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && out.Error != nil && out.Error.Message != "" {
			return "", fmt.Errorf("openai: API error (%d): %s", resp.StatusCode, out.Error.Message)
		}
		return "", fmt.Errorf("openai: API error (%d)", resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("openai: decoding response: %w", decodeErr)
	}

	if len(out.Choices) == 0 {
		return "", fmt.Errorf("openai: response has no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
