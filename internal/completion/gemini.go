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

// GeminiClient implements Backend against the Gemini generateContent API.
type GeminiClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DefaultGeminiConfig returns sensible defaults.
func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey:  apiKey,
		BaseURL: "https://generativelanguage.googleapis.com/v1beta",
		Model:   "gemini-2.5-flash",
		Timeout: defaultTimeout,
	}
}

// NewGeminiClient creates a Gemini client with default config.
func NewGeminiClient(apiKey string) *GeminiClient {
	return NewGeminiClientWithConfig(DefaultGeminiConfig(apiKey))
}

// NewGeminiClientWithConfig creates a Gemini client with custom config.
func NewGeminiClientWithConfig(cfg GeminiConfig) *GeminiClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &GeminiClient{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name implements Backend.
func (c *GeminiClient) Name() string { return "gemini" }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate implements Backend.
func (c *GeminiClient) Generate(ctx context.Context, turns []session.Turn, mode Mode) (*Result, error) {
	if c.apiKey == "" {
		return nil, &GenerationError{Provider: c.Name(), Err: errors.New("API key not configured")}
	}

	s := settingsFor(mode)
	reqBody := geminiRequest{
		GenerationConfig: &geminiGenerationConfig{
			MaxOutputTokens: s.MaxTokens,
			Temperature:     s.Temperature,
		},
	}

	for _, t := range turns {
		if strings.TrimSpace(t.Content) == "" {
			continue
		}
		switch t.Role {
		case session.RoleSystem:
			// Gemini takes system text out of band.
			reqBody.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: t.Content}}}
		case session.RoleAgent:
			reqBody.Contents = append(reqBody.Contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: t.Content}}})
		default:
			reqBody.Contents = append(reqBody.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: t.Content}}})
		}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	body, err := postJSON(ctx, c.httpClient, c.Name(), url, "", reqBody)
	if err != nil {
		return nil, err
	}

	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &GenerationError{Provider: c.Name(), Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	if resp.Error != nil {
		return nil, &GenerationError{Provider: c.Name(), Status: resp.Error.Code, Err: errors.New(resp.Error.Message)}
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, &GenerationError{Provider: c.Name(), Err: errors.New("no completion returned")}
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return &Result{Content: strings.TrimSpace(sb.String())}, nil
}
