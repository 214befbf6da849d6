package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"wren/internal/session"
)

// MoonshotClient implements Backend against the Moonshot (Kimi) API, which
// speaks the OpenAI chat-completions wire format and additionally returns a
// reasoning_content channel on thinking models.
type MoonshotClient struct {
	apiKey         string
	baseURL        string
	interviewModel string
	profileModel   string
	httpClient     *http.Client
}

// MoonshotConfig holds configuration for the Moonshot client.
type MoonshotConfig struct {
	APIKey         string
	BaseURL        string
	InterviewModel string
	ProfileModel   string
	Timeout        time.Duration
}

// DefaultMoonshotConfig returns sensible defaults.
func DefaultMoonshotConfig(apiKey string) MoonshotConfig {
	return MoonshotConfig{
		APIKey:         apiKey,
		BaseURL:        "https://api.moonshot.cn/v1",
		InterviewModel: "kimi-k2-thinking-turbo",
		ProfileModel:   "kimi-k2-thinking",
		Timeout:        defaultTimeout,
	}
}

// NewMoonshotClient creates a Moonshot client with default config.
func NewMoonshotClient(apiKey string) *MoonshotClient {
	return NewMoonshotClientWithConfig(DefaultMoonshotConfig(apiKey))
}

// NewMoonshotClientWithConfig creates a Moonshot client with custom config.
func NewMoonshotClientWithConfig(cfg MoonshotConfig) *MoonshotClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &MoonshotClient{
		apiKey:         cfg.APIKey,
		baseURL:        cfg.BaseURL,
		interviewModel: cfg.InterviewModel,
		profileModel:   cfg.ProfileModel,
		httpClient:     &http.Client{Timeout: cfg.Timeout},
	}
}

// Name implements Backend.
func (c *MoonshotClient) Name() string { return "moonshot" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role             string `json:"role"`
			Content          string `json:"content"`
			ReasoningContent string `json:"reasoning_content,omitempty"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Generate implements Backend.
func (c *MoonshotClient) Generate(ctx context.Context, turns []session.Turn, mode Mode) (*Result, error) {
	if c.apiKey == "" {
		return nil, &GenerationError{Provider: c.Name(), Err: errors.New("API key not configured")}
	}

	model := c.interviewModel
	if mode == ModeProfile {
		model = c.profileModel
	}
	s := settingsFor(mode)

	reqBody := chatRequest{
		Model:       model,
		Messages:    toChatMessages(turns),
		MaxTokens:   s.MaxTokens,
		Temperature: s.Temperature,
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

	msg := resp.Choices[0].Message
	return &Result{
		Content:        strings.TrimSpace(msg.Content),
		ReasoningTrace: msg.ReasoningContent,
	}, nil
}

// postJSON issues one authenticated JSON POST and returns the raw body.
// Bearer auth covers every chat-completions provider; Gemini keys ride the
// URL instead and pass apiKey as "".
func postJSON(ctx context.Context, client *http.Client, provider, url, apiKey string, reqBody interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &GenerationError{Provider: provider, Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, &GenerationError{Provider: provider, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, classifyTransportError(provider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &GenerationError{Provider: provider, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &GenerationError{Provider: provider, Status: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(body)))}
	}
	return body, nil
}

// toChatMessages maps transcript roles onto the OpenAI wire roles.
func toChatMessages(turns []session.Turn) []chatMessage {
	msgs := make([]chatMessage, 0, len(turns))
	for _, t := range turns {
		if strings.TrimSpace(t.Content) == "" {
			continue
		}
		role := "user"
		switch t.Role {
		case session.RoleSystem:
			role = "system"
		case session.RoleAgent:
			role = "assistant"
		}
		msgs = append(msgs, chatMessage{Role: role, Content: t.Content})
	}
	return msgs
}

// classifyTransportError separates timeouts from other transport faults so
// callers can tell GenerationTimeout apart from GenerationError.
func classifyTransportError(provider string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", provider, ErrTimeout)
	}
	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%s: %w", provider, ErrTimeout)
	}
	return &GenerationError{Provider: provider, Err: err}
}
