package completion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"wren/internal/session"
)

// OpenAIClient implements Backend against the OpenAI API.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// OpenAIConfig holds configuration for the OpenAI client.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DefaultOpenAIConfig returns sensible defaults.
func DefaultOpenAIConfig(apiKey string) OpenAIConfig {
	return OpenAIConfig{
		APIKey:  apiKey,
		BaseURL: "https://api.openai.com/v1",
		Model:   "o3-mini",
		Timeout: defaultTimeout,
	}
}

// NewOpenAIClient creates an OpenAI client with default config.
func NewOpenAIClient(apiKey string) *OpenAIClient {
	return NewOpenAIClientWithConfig(DefaultOpenAIConfig(apiKey))
}

// NewOpenAIClientWithConfig creates an OpenAI client with custom config.
func NewOpenAIClientWithConfig(cfg OpenAIConfig) *OpenAIClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &OpenAIClient{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name implements Backend.
func (c *OpenAIClient) Name() string { return "openai" }

// Generate implements Backend.
func (c *OpenAIClient) Generate(ctx context.Context, turns []session.Turn, mode Mode) (*Result, error) {
	if c.apiKey == "" {
		return nil, &GenerationError{Provider: c.Name(), Err: errors.New("API key not configured")}
	}

	s := settingsFor(mode)
	temperature := s.Temperature
	// Reasoning models only accept the default temperature.
	if strings.HasPrefix(c.model, "o1") || strings.HasPrefix(c.model, "o3") {
		temperature = 1
	}

	reqBody := chatRequest{
		Model:       c.model,
		Messages:    toChatMessages(turns),
		MaxTokens:   s.MaxTokens,
		Temperature: temperature,
	}

	body, err := postJSON(ctx, c.httpClient, c.Name(), c.baseURL+"/chat/completions", c.apiKey, reqBody)
	if err != nil {
		return nil, err
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &GenerationError{Provider: c.Name(), Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	if resp.Error != nil {
		return nil, &GenerationError{Provider: c.Name(), Err: errors.New(resp.Error.Message)}
	}
	if len(resp.Choices) == 0 {
		return nil, &GenerationError{Provider: c.Name(), Err: errors.New("no completion returned")}
	}

	return &Result{Content: strings.TrimSpace(resp.Choices[0].Message.Content)}, nil
}
